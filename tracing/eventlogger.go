package tracing

import (
	"log"

	"github.com/sarchlab/yardsim/eventlog"
	"github.com/sarchlab/yardsim/hooking"
	"github.com/sarchlab/yardsim/scheduler"
	"github.com/sarchlab/yardsim/verify"
)

// EventLogger is a hook that prints every scheduler action and every replayed
// record.
type EventLogger struct {
	LogHookBase
}

// NewEventLogger returns a new EventLogger which will write in to the logger
func NewEventLogger(logger *log.Logger) *EventLogger {
	h := new(EventLogger)
	h.Logger = logger

	return h
}

// Func writes the action or the record into the logger.
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case scheduler.HookPosAction:
		a, ok := ctx.Item.(scheduler.Action)
		if !ok {
			return
		}

		switch a.Kind {
		case scheduler.ActionAdd, scheduler.ActionMove:
			h.Logger.Printf("%d, %s container %d -> %d",
				a.Time, a.Kind, a.Container.ID, a.Position)
		case scheduler.ActionSell:
			h.Logger.Printf("%d, %s container %d for %d, cash %d",
				a.Time, a.Kind, a.Container.ID, a.Container.Value, a.Cash)
		default:
			h.Logger.Printf("%d, %s container %d",
				a.Time, a.Kind, a.Container.ID)
		}
	case verify.HookPosReplayStep:
		r, ok := ctx.Item.(eventlog.Record)
		if !ok {
			return
		}

		h.Logger.Printf("replay %s", r)
	}
}
