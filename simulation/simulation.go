// Package simulation assembles a yard run from its configuration: the
// scheduler, its event log, the optional recording database, and the
// optional monitor.
package simulation

import (
	"errors"

	"github.com/sarchlab/yardsim/config"
	"github.com/sarchlab/yardsim/datarecording"
	"github.com/sarchlab/yardsim/monitoring"
	"github.com/sarchlab/yardsim/scheduler"
	"github.com/sarchlab/yardsim/tracing"
	"github.com/sarchlab/yardsim/yard"
)

// A Simulation owns everything a run needs.
type Simulation struct {
	id  string
	cfg config.Config

	scheduler    *scheduler.Scheduler
	counter      *tracing.ActionCounter
	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
	monitorURL   string
}

// ID returns the unique identifier of the run.
func (s *Simulation) ID() string {
	return s.id
}

// Config returns the configuration of the run.
func (s *Simulation) Config() config.Config {
	return s.cfg
}

// Scheduler returns the scheduler.
func (s *Simulation) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

// Counter returns the action counter attached to the scheduler.
func (s *Simulation) Counter() *tracing.ActionCounter {
	return s.counter
}

// GetDataRecorder returns the recording database, or nil if the run is not
// recorded.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor, or nil if monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitor.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// Run feeds the containers to the scheduler and closes the event log.
func (s *Simulation) Run(containers []yard.Container) error {
	if s.monitor != nil {
		bar := s.monitor.TrackContainers(uint64(len(containers)))
		defer s.monitor.CompleteProgressBar(bar)
	}

	return scheduler.Run(s.scheduler, containers)
}

// Terminate closes the event log if the run did not and stops the monitor.
func (s *Simulation) Terminate() error {
	err := s.scheduler.Close()

	if s.monitor != nil {
		err = errors.Join(err, s.monitor.StopServer())
	}

	return err
}
