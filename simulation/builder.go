package simulation

import (
	"errors"
	"io"
	"log"

	"github.com/rs/xid"

	"github.com/sarchlab/yardsim/config"
	"github.com/sarchlab/yardsim/datarecording"
	"github.com/sarchlab/yardsim/eventlog"
	"github.com/sarchlab/yardsim/hooking"
	"github.com/sarchlab/yardsim/monitoring"
	"github.com/sarchlab/yardsim/scheduler"
	"github.com/sarchlab/yardsim/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	cfg       config.Config
	logWriter io.Writer
	sink      eventlog.Sink
	hooks     []hooking.Hook
}

// MakeBuilder creates a new builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		cfg:       config.Default(),
		logWriter: io.Discard,
	}
}

// WithConfig sets the configuration of the run.
func (b Builder) WithConfig(cfg config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithLogWriter sets where the actions are printed when the configuration
// asks for a verbose run.
func (b Builder) WithLogWriter(w io.Writer) Builder {
	b.logWriter = w
	return b
}

// WithSink replaces the event log file named by the configuration.
func (b Builder) WithSink(sink eventlog.Sink) Builder {
	b.sink = sink
	return b
}

// WithHook registers an extra hook on the scheduler.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], hook)
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.logWriter == nil {
		panic("log writer is not set")
	}
}

// Build opens the event log, the recording database, and the monitor, and
// creates the scheduler.
func (b Builder) Build() (*Simulation, error) {
	b.parametersMustBeValid()

	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		id:      xid.New().String(),
		cfg:     b.cfg,
		counter: tracing.NewActionCounter(),
	}

	sink, err := b.openSinks(s)
	if err != nil {
		return nil, err
	}

	sb := scheduler.MakeBuilder().
		WithWidth(b.cfg.Width).
		WithParams(b.cfg.Params()).
		WithSink(sink).
		WithHook(s.counter)

	if b.cfg.Log.Verbose {
		sb = sb.WithHook(tracing.NewEventLogger(log.New(b.logWriter, "", 0)))
	}

	if b.cfg.Monitor.Enabled {
		s.monitor = monitoring.NewMonitor().
			WithPortNumber(b.cfg.Monitor.Port).
			WithBrowser(b.cfg.Monitor.OpenBrowser)
		s.monitor.RegisterStats(s.counter)
		sb = sb.WithHook(s.monitor)
	}

	for _, h := range b.hooks {
		sb = sb.WithHook(h)
	}

	s.scheduler, err = sb.Build()
	if err != nil {
		return nil, errors.Join(err, sink.Close())
	}

	if s.monitor != nil {
		if s.monitorURL, err = s.monitor.StartServer(); err != nil {
			return nil, errors.Join(err, s.scheduler.Close())
		}
	}

	return s, nil
}

func (b Builder) openSinks(s *Simulation) (eventlog.Sink, error) {
	sink := b.sink
	if sink == nil {
		w, err := eventlog.Create(b.cfg.Log.Path)
		if err != nil {
			return nil, err
		}

		sink = w
	}

	if !b.cfg.Recording.Enabled {
		return sink, nil
	}

	name := b.cfg.Recording.Name
	if name == "" {
		name = "yardsim_" + s.id
	}

	recorder, err := openRecorder(name, b.cfg.Recording.ClickHouse)
	if err != nil {
		return nil, errors.Join(err, sink.Close())
	}

	events, err := datarecording.NewEventRecorder(recorder)
	if err != nil {
		return nil, errors.Join(err, recorder.Close(), sink.Close())
	}

	s.dataRecorder = recorder

	return eventlog.Tee{sink, events}, nil
}

func openRecorder(
	name string,
	cfg config.ClickHouseConfig,
) (datarecording.DataRecorder, error) {
	if cfg.Host == "" {
		return datarecording.New(name)
	}

	r, err := datarecording.NewClickHouseRecorder(datarecording.ClickHouseOptions{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Database: cfg.Database,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}
