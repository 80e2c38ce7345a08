package datarecording

import (
	"errors"
	"strconv"

	"github.com/sarchlab/yardsim/eventlog"
)

// EventTable is the table that holds the event log.
const EventTable = "yard_event"

// An EventEntry is one event log record as stored in the database. Seq keeps
// the log order among records that share a timestamp.
type EventEntry struct {
	Seq       int
	Time      int
	Kind      string
	Container int
	Position  int
	Amount    int
	Name      string
	Width     int
}

func entryFromRecord(seq int, r eventlog.Record) EventEntry {
	return EventEntry{
		Seq:       seq,
		Time:      r.Time,
		Kind:      string(r.Kind),
		Container: r.Container,
		Position:  r.Position,
		Amount:    r.Amount,
		Name:      r.Name,
		Width:     r.Width,
	}
}

// Record converts the entry back to an event log record.
func (e EventEntry) Record() eventlog.Record {
	return eventlog.Record{
		Time:      e.Time,
		Kind:      eventlog.Kind(e.Kind),
		Container: e.Container,
		Position:  e.Position,
		Amount:    e.Amount,
		Name:      e.Name,
		Width:     e.Width,
	}
}

// EventRecorder is an eventlog.Sink that mirrors the event log into a
// DataRecorder.
type EventRecorder struct {
	recorder DataRecorder
	exec     *execRecorder
	seq      int
	cash     int
	closed   bool
}

// NewEventRecorder creates the event and execution tables and starts
// recording.
func NewEventRecorder(recorder DataRecorder) (*EventRecorder, error) {
	if err := recorder.CreateTable(EventTable, EventEntry{}); err != nil {
		return nil, err
	}

	exec, err := newExecRecorder(recorder)
	if err != nil {
		return nil, err
	}

	exec.Start()

	return &EventRecorder{
		recorder: recorder,
		exec:     exec,
	}, nil
}

// Record buffers a record.
func (r *EventRecorder) Record(rec eventlog.Record) error {
	if r.closed {
		return errors.New("event recorder is closed")
	}

	switch rec.Kind {
	case eventlog.KindStart:
		r.exec.Set("Strategy", rec.Name)
		r.exec.Set("Width", strconv.Itoa(rec.Width))
	case eventlog.KindCash:
		r.cash = rec.Amount
	}

	r.seq++

	return r.recorder.InsertData(EventTable, entryFromRecord(r.seq, rec))
}

// Close writes the execution information and closes the recorder.
func (r *EventRecorder) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true

	r.exec.Set("Events", strconv.Itoa(r.seq))
	r.exec.Set("Cash", strconv.Itoa(r.cash))

	return errors.Join(r.exec.End(), r.recorder.Close())
}
