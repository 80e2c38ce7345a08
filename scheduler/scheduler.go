// Package scheduler implements the greedy strategy that runs a container
// yard. For every incoming container, the scheduler sells what is ripe,
// stores the container, and spends the rest of the arrival window digging
// into promising piles or balancing them.
package scheduler

import (
	"errors"
	"fmt"

	"github.com/sarchlab/yardsim/eventlog"
	"github.com/sarchlab/yardsim/hooking"
	"github.com/sarchlab/yardsim/yard"
)

// HookPosAction is triggered after every change to the yard. The item is an
// Action and the detail is the yard, as a yard.View.
var HookPosAction = &hooking.HookPos{Name: "SchedulerAction"}

// HookPosContainerDone is triggered when the scheduler is done with an
// incoming container. The item is the container.
var HookPosContainerDone = &hooking.HookPos{Name: "SchedulerContainerDone"}

// ActionKind tells how the scheduler changed the yard.
type ActionKind string

// All the kinds of actions.
const (
	ActionAdd  ActionKind = "add"
	ActionMove ActionKind = "move"
	ActionSell ActionKind = "sell"
	ActionLose ActionKind = "lose"
)

// An Action is one change to the yard, passed to the hooks.
type Action struct {
	Kind      ActionKind
	Time      yard.TimeStamp
	Container yard.Container
	Position  yard.Position
	Cash      int
}

// Scheduler runs the expert strategy on its own yard. It owns the clock and
// the event log. It is not safe for concurrent use.
type Scheduler struct {
	hooking.HookableBase

	params Params
	yard   *yard.Yard
	sink   eventlog.Sink
	now    yard.TimeStamp
	closed bool
}

// Now returns the clock.
func (s *Scheduler) Now() yard.TimeStamp {
	return s.now
}

// Cash returns the money earned so far.
func (s *Scheduler) Cash() int {
	return s.yard.Cash()
}

// Yard returns a read-only view of the yard.
func (s *Scheduler) Yard() yard.View {
	return s.yard
}

// Params returns the strategy parameters.
func (s *Scheduler) Params() Params {
	return s.params
}

// Execute takes in one container.
func (s *Scheduler) Execute(c yard.Container) error {
	if s.closed {
		return errors.New("scheduler is closed")
	}

	if err := c.Validate(s.params.SizeClasses); err != nil {
		return err
	}

	if err := s.flush(c, true); err != nil {
		return err
	}

	if err := s.intake(c); err != nil {
		return err
	}

	if err := s.flush(c, false); err != nil {
		return err
	}

	if err := s.explore(c); err != nil {
		return err
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosContainerDone,
		Item:   c,
		Detail: s.Yard(),
	})

	return nil
}

// Close writes the final cash and closes the event log. Calling Close more
// than once is a no-op.
func (s *Scheduler) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	err := s.sink.Record(eventlog.Cash(s.now, s.yard.Cash()))

	return errors.Join(err, s.sink.Close())
}

// LeastFullPile returns the designated pile where c should be stored.
func (s *Scheduler) LeastFullPile(c yard.Container) yard.Position {
	a, b := PileA(c.Size), PileB(c.Size)
	if s.yard.Height(a) > s.yard.Height(b) {
		return b
	}

	return a
}

// flush sells or drops the removable containers. Before the intake, it only
// handles containers worth more than the incoming one.
func (s *Scheduler) flush(c yard.Container, beforeIntake bool) error {
	candidates := FlushOrder(s.yard.RemovableContainers(), s.now)

	for _, r := range candidates {
		if beforeIntake {
			if s.now >= c.Delivery.End || r.Value <= c.Value {
				return nil
			}
		} else if s.now >= c.Arrival.End {
			return nil
		}

		var err error

		switch {
		case r.Expired(s.now):
			err = s.lose(r)
		case r.Sellable(s.now):
			err = s.sell(r)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Scheduler) intake(c yard.Container) error {
	if !ClassFits(c.Size, s.yard.Width()) {
		return nil
	}

	if c.Expired(s.now) || s.now >= c.Arrival.End {
		return nil
	}

	p := s.LeastFullPile(c)
	if !s.yard.CanPlace(c, p) {
		return nil
	}

	return s.add(c, p)
}

// explore spends the remaining arrival window of c on the yard.
func (s *Scheduler) explore(c yard.Container) error {
	remaining := c.Arrival.End - s.now

	for remaining > 0 && !s.yard.Empty() {
		var err error

		switch d := Plan(s.yard, s.now, remaining, s.params).(type) {
		case Equilibrate:
			remaining, err = s.equilibrate(remaining, d.Tall, d.Short)
		case Dig:
			err = s.dig(d.Pile, d.Depth)
			remaining = d.Remaining
		default:
			return nil
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Scheduler) equilibrate(
	remaining int,
	tall, short yard.Position,
) (int, error) {
	for remaining > 0 && s.yard.Height(tall) >= s.yard.Height(short) {
		if top, ok := s.yard.Top(tall); ok {
			if err := s.evaluate(top, short); err != nil {
				return 0, err
			}
		}

		remaining--
	}

	if s.yard.Empty() {
		remaining = 0
	}

	return remaining, nil
}

func (s *Scheduler) dig(pile yard.Position, depth int) error {
	for depth > 0 && !s.yard.IsEmpty(pile) {
		top, _ := s.yard.Top(pile)
		loc, _ := s.yard.Location(top)

		if err := s.evaluate(top, Alternate(top.Size, loc.Column)); err != nil {
			return err
		}

		depth--
	}

	return nil
}

// evaluate drops c if it is expired, sells it if it is deliverable, and
// otherwise moves it to dest.
func (s *Scheduler) evaluate(c yard.Container, dest yard.Position) error {
	if !s.yard.CanRemove(c) {
		return nil
	}

	switch {
	case c.Expired(s.now):
		return s.lose(c)
	case c.Sellable(s.now):
		return s.sell(c)
	case s.yard.CanRelocate(c, dest):
		return s.move(c, dest)
	}

	return nil
}

func (s *Scheduler) add(c yard.Container, p yard.Position) error {
	return s.commit(ActionAdd, c, p,
		s.yard.CanPlace(c, p),
		func() error { return s.yard.Place(c, p) },
		eventlog.Add(s.now, c, p))
}

func (s *Scheduler) move(c yard.Container, p yard.Position) error {
	return s.commit(ActionMove, c, p,
		s.yard.CanRelocate(c, p),
		func() error { return s.yard.Relocate(c, p) },
		eventlog.Move(s.now, c, p))
}

func (s *Scheduler) lose(c yard.Container) error {
	loc, _ := s.yard.Location(c)

	return s.commit(ActionLose, c, loc.Column,
		s.yard.CanRemove(c),
		func() error { return s.yard.Remove(c) },
		eventlog.Remove(s.now, c))
}

func (s *Scheduler) sell(c yard.Container) error {
	loc, _ := s.yard.Location(c)

	return s.commit(ActionSell, c, loc.Column,
		s.yard.CanRemove(c) && c.Value >= 0,
		func() error {
			if err := s.yard.Remove(c); err != nil {
				return err
			}

			return s.yard.Credit(c.Value)
		},
		eventlog.Remove(s.now, c),
		eventlog.Cash(s.now, s.yard.Cash()+c.Value))
}

// commit logs a change, applies it to the yard, notifies the hooks, and
// advances the clock. The yard is only changed once every record is written,
// so a failing log leaves the yard as the log describes it.
func (s *Scheduler) commit(
	kind ActionKind,
	c yard.Container,
	p yard.Position,
	allowed bool,
	apply func() error,
	records ...eventlog.Record,
) error {
	if !allowed {
		return fmt.Errorf("scheduler: %w: cannot %s container %d at %d",
			yard.ErrConstraintViolation, kind, c.ID, p)
	}

	for _, r := range records {
		if err := s.sink.Record(r); err != nil {
			return err
		}
	}

	if err := apply(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosAction,
		Item: Action{
			Kind:      kind,
			Time:      s.now,
			Container: c,
			Position:  p,
			Cash:      s.yard.Cash(),
		},
		Detail: s.Yard(),
	})

	s.now++

	return nil
}
