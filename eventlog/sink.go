package eventlog

import "errors"

// A Sink receives the records of a yard, in the order they happen.
type Sink interface {
	// Record appends a record.
	Record(r Record) error

	// Close flushes and releases the sink.
	Close() error
}

// Memory is a Sink that keeps the records in memory.
type Memory struct {
	Records []Record
}

// NewMemory creates an empty in-memory log.
func NewMemory() *Memory {
	return &Memory{}
}

// Record appends a record.
func (m *Memory) Record(r Record) error {
	m.Records = append(m.Records, r)
	return nil
}

// Close does nothing.
func (m *Memory) Close() error {
	return nil
}

// Tee forwards every record to all of its sinks, in order.
type Tee []Sink

// Record appends the record to every sink. It stops at the first failure.
func (t Tee) Record(r Record) error {
	for _, s := range t {
		if err := s.Record(r); err != nil {
			return err
		}
	}

	return nil
}

// Close closes every sink, even if some of them fail.
func (t Tee) Close() error {
	var errs []error

	for _, s := range t {
		errs = append(errs, s.Close())
	}

	return errors.Join(errs...)
}
