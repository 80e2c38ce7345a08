package tracing

import (
	"fmt"
	"io"
	"sync"

	"github.com/sarchlab/yardsim/hooking"
	"github.com/sarchlab/yardsim/scheduler"
)

// ActionStats is a summary of the actions of a scheduler.
type ActionStats struct {
	Adds       uint64 `json:"adds"`
	Moves      uint64 `json:"moves"`
	Sales      uint64 `json:"sales"`
	Losses     uint64 `json:"losses"`
	SoldValue  int    `json:"sold_value"`
	LostValue  int    `json:"lost_value"`
	Containers uint64 `json:"containers"`
}

// ActionCounter tallies the actions taken by a scheduler. It can be read from
// other goroutines while the scheduler runs.
type ActionCounter struct {
	lock        sync.Mutex
	actionNames []scheduler.ActionKind
	actionCount map[scheduler.ActionKind]uint64
	stats       ActionStats
}

// NewActionCounter creates a new ActionCounter
func NewActionCounter() *ActionCounter {
	return &ActionCounter{
		actionCount: make(map[scheduler.ActionKind]uint64),
	}
}

// Func counts an action or a finished container.
func (c *ActionCounter) Func(ctx hooking.HookCtx) {
	c.lock.Lock()
	defer c.lock.Unlock()

	switch ctx.Pos {
	case scheduler.HookPosAction:
		a, ok := ctx.Item.(scheduler.Action)
		if ok {
			c.countAction(a)
		}
	case scheduler.HookPosContainerDone:
		c.stats.Containers++
	}
}

func (c *ActionCounter) countAction(a scheduler.Action) {
	if _, ok := c.actionCount[a.Kind]; !ok {
		c.actionNames = append(c.actionNames, a.Kind)
	}

	c.actionCount[a.Kind]++

	switch a.Kind {
	case scheduler.ActionAdd:
		c.stats.Adds++
	case scheduler.ActionMove:
		c.stats.Moves++
	case scheduler.ActionSell:
		c.stats.Sales++
		c.stats.SoldValue += a.Container.Value
	case scheduler.ActionLose:
		c.stats.Losses++
		c.stats.LostValue += a.Container.Value
	}
}

// GetActionNames returns the kinds of actions seen, in order of first
// appearance.
func (c *ActionCounter) GetActionNames() []scheduler.ActionKind {
	c.lock.Lock()
	defer c.lock.Unlock()

	return append([]scheduler.ActionKind(nil), c.actionNames...)
}

// GetActionCount returns how many times an action of the kind was taken.
func (c *ActionCounter) GetActionCount(kind scheduler.ActionKind) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.actionCount[kind]
}

// Stats returns a copy of the summary.
func (c *ActionCounter) Stats() ActionStats {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.stats
}

// Report prints the summary.
func (c *ActionCounter) Report(w io.Writer) error {
	s := c.Stats()

	_, err := fmt.Fprintf(w,
		"containers: %d\nadds: %d\nmoves: %d\nsales: %d (value %d)\nlosses: %d (value %d)\n",
		s.Containers, s.Adds, s.Moves, s.Sales, s.SoldValue, s.Losses, s.LostValue)

	return err
}
