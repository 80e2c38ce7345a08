// Package verify replays an event log against the container definitions and
// certifies that every step was legal.
package verify

import (
	"errors"
	"fmt"

	"github.com/sarchlab/yardsim/eventlog"
	"github.com/sarchlab/yardsim/hooking"
	"github.com/sarchlab/yardsim/manifest"
	"github.com/sarchlab/yardsim/yard"
)

// HookPosReplayStep is triggered after every replayed record. The item is the
// eventlog.Record and the detail is the rebuilt yard, as a yard.View.
var HookPosReplayStep = &hooking.HookPos{Name: "ReplayStep"}

// Result summarizes a replayed log.
type Result struct {
	Name     string
	Width    int
	Cash     int
	Events   int
	LastCash int
}

// A Replayer rebuilds a yard from an event log, one record at a time.
type Replayer struct {
	hooking.HookableBase

	containers map[int]yard.Container
	yard       *yard.Yard
	result     Result
	last       yard.TimeStamp
	line       int
}

// NewReplayer creates a Replayer that knows the given containers.
func NewReplayer(containers []yard.Container) *Replayer {
	return &Replayer{
		containers: manifest.Index(containers),
	}
}

// Yard returns the rebuilt yard. It is nil until the START record is
// replayed.
func (r *Replayer) Yard() yard.View {
	if r.yard == nil {
		return nil
	}

	return r.yard
}

// Result returns the summary of the records replayed so far.
func (r *Replayer) Result() Result {
	return r.result
}

// Step applies the next record.
func (r *Replayer) Step(rec eventlog.Record) error {
	r.line++

	if err := r.apply(rec); err != nil {
		return &IntegrityError{
			Line: r.line,
			Time: rec.Time,
			Kind: rec.Kind,
			Err:  err,
		}
	}

	r.result.Events++
	r.result.Cash = r.yard.Cash()

	r.InvokeHook(hooking.HookCtx{
		Domain: r,
		Pos:    HookPosReplayStep,
		Item:   rec,
		Detail: r.Yard(),
	})

	return nil
}

func (r *Replayer) apply(rec eventlog.Record) error {
	if r.yard == nil {
		return r.start(rec)
	}

	if rec.Time < r.last {
		return fmt.Errorf("time goes back from %d", r.last)
	}

	r.last = rec.Time

	switch rec.Kind {
	case eventlog.KindStart:
		return errors.New("log started twice")
	case eventlog.KindCash:
		if rec.Amount != r.yard.Cash() {
			return fmt.Errorf("logged cash %d, expected %d",
				rec.Amount, r.yard.Cash())
		}

		r.result.LastCash = rec.Amount

		return nil
	}

	c, ok := r.containers[rec.Container]
	if !ok {
		return fmt.Errorf("unknown container %d", rec.Container)
	}

	switch rec.Kind {
	case eventlog.KindAdd:
		return r.yard.Place(c, rec.Position)
	case eventlog.KindMove:
		return r.yard.Relocate(c, rec.Position)
	case eventlog.KindRemove:
		if err := r.yard.Remove(c); err != nil {
			return err
		}

		if c.Sellable(rec.Time) {
			return r.yard.Credit(c.Value)
		}

		return nil
	}

	return fmt.Errorf("%w: unknown record kind %q", yard.ErrTypeMismatch, rec.Kind)
}

func (r *Replayer) start(rec eventlog.Record) error {
	if rec.Kind != eventlog.KindStart {
		return errors.New("log does not begin with START")
	}

	if rec.Time != 0 {
		return fmt.Errorf("log starts at %d instead of 0", rec.Time)
	}

	if rec.Width <= 0 {
		return fmt.Errorf("%w: width %d", yard.ErrTypeMismatch, rec.Width)
	}

	r.yard = yard.New(rec.Width)
	r.result.Name = rec.Name
	r.result.Width = rec.Width

	return nil
}

// Replay checks all the records against the containers.
func Replay(
	containers []yard.Container,
	records []eventlog.Record,
	hooks ...hooking.Hook,
) (*Result, error) {
	r := NewReplayer(containers)
	for _, h := range hooks {
		r.AcceptHook(h)
	}

	if len(records) == 0 {
		return nil, &IntegrityError{Err: errors.New("empty log")}
	}

	for _, rec := range records {
		if err := r.Step(rec); err != nil {
			return nil, err
		}
	}

	result := r.Result()

	return &result, nil
}

// Check reads the container definitions and the event log from files and
// replays the log.
func Check(containersPath, logPath string) error {
	_, err := CheckFiles(containersPath, logPath)
	return err
}

// CheckFiles is like Check, but also returns the summary of the run.
func CheckFiles(
	containersPath, logPath string,
	hooks ...hooking.Hook,
) (*Result, error) {
	containers, err := manifest.ReadFile(containersPath)
	if err != nil {
		return nil, err
	}

	records, err := eventlog.ReadFile(logPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", logPath, err)
	}

	return Replay(containers, records, hooks...)
}
