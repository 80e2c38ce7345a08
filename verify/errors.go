package verify

import (
	"fmt"

	"github.com/sarchlab/yardsim/eventlog"
	"github.com/sarchlab/yardsim/yard"
)

// IntegrityError reports a log record that does not agree with the physical
// rules of the yard or with the cash ledger.
type IntegrityError struct {
	// Line is the 1-based position of the record in the log.
	Line int
	Time yard.TimeStamp
	Kind eventlog.Kind
	Err  error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("record %d (t=%d, %s): %v", e.Line, e.Time, e.Kind, e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}
