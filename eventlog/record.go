// Package eventlog defines the append-only history of a yard and its text
// encoding.
package eventlog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/yardsim/yard"
)

// Kind tells what happened to the yard.
type Kind string

// All the kinds of records.
const (
	KindStart  Kind = "START"
	KindAdd    Kind = "ADD"
	KindRemove Kind = "REMOVE"
	KindMove   Kind = "MOVE"
	KindCash   Kind = "CASH"
)

// A Record is one line of the event log. Only the fields that belong to the
// kind are meaningful.
type Record struct {
	Time      yard.TimeStamp
	Kind      Kind
	Container int
	Position  yard.Position
	Amount    int
	Name      string
	Width     int
}

// Start creates the first record of a log.
func Start(name string, width int) Record {
	return Record{Time: 0, Kind: KindStart, Name: name, Width: width}
}

// Add records a container placed at p.
func Add(t yard.TimeStamp, c yard.Container, p yard.Position) Record {
	return Record{Time: t, Kind: KindAdd, Container: c.ID, Position: p}
}

// Remove records a container taken out of the yard.
func Remove(t yard.TimeStamp, c yard.Container) Record {
	return Record{Time: t, Kind: KindRemove, Container: c.ID}
}

// Move records a container relocated to p.
func Move(t yard.TimeStamp, c yard.Container, p yard.Position) Record {
	return Record{Time: t, Kind: KindMove, Container: c.ID, Position: p}
}

// Cash records the total money earned at t.
func Cash(t yard.TimeStamp, amount int) Record {
	return Record{Time: t, Kind: KindCash, Amount: amount}
}

// String formats the record as one line of the text log, without the line
// break.
func (r Record) String() string {
	switch r.Kind {
	case KindStart:
		return fmt.Sprintf("%d %s %s %d", r.Time, r.Kind, r.Name, r.Width)
	case KindAdd, KindMove:
		return fmt.Sprintf("%d %s %d %d", r.Time, r.Kind, r.Container, r.Position)
	case KindRemove:
		return fmt.Sprintf("%d %s %d", r.Time, r.Kind, r.Container)
	case KindCash:
		return fmt.Sprintf("%d %s %d", r.Time, r.Kind, r.Amount)
	default:
		return fmt.Sprintf("%d %s", r.Time, r.Kind)
	}
}

// Parse decodes one line of the text log.
func Parse(line string) (Record, error) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return Record{}, fmt.Errorf("%w: record %q is too short",
			yard.ErrTypeMismatch, line)
	}

	t, err := parseInt(tokens[0], line)
	if err != nil {
		return Record{}, err
	}

	r := Record{Time: t, Kind: Kind(tokens[1])}
	args := tokens[2:]

	switch r.Kind {
	case KindStart:
		if err := expectArgs(args, 2, line); err != nil {
			return Record{}, err
		}

		r.Name = args[0]
		r.Width, err = parseInt(args[1], line)
	case KindAdd, KindMove:
		if err := expectArgs(args, 2, line); err != nil {
			return Record{}, err
		}

		r.Container, err = parseInt(args[0], line)
		if err == nil {
			r.Position, err = parseInt(args[1], line)
		}
	case KindRemove:
		if err := expectArgs(args, 1, line); err != nil {
			return Record{}, err
		}

		r.Container, err = parseInt(args[0], line)
	case KindCash:
		if err := expectArgs(args, 1, line); err != nil {
			return Record{}, err
		}

		r.Amount, err = parseInt(args[0], line)
	default:
		return Record{}, fmt.Errorf("%w: unknown record kind %q",
			yard.ErrTypeMismatch, tokens[1])
	}

	if err != nil {
		return Record{}, err
	}

	return r, nil
}

func expectArgs(args []string, n int, line string) error {
	if len(args) != n {
		return fmt.Errorf("%w: record %q needs %d arguments",
			yard.ErrTypeMismatch, line, n)
	}

	return nil
}

func parseInt(token, line string) (int, error) {
	v, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %q in record %q is not an integer",
			yard.ErrTypeMismatch, token, line)
	}

	return v, nil
}
