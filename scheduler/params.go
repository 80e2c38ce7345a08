package scheduler

import (
	"fmt"
	"strings"

	"github.com/sarchlab/yardsim/yard"
)

// Params tunes the greedy strategy.
type Params struct {
	// Name is written in the START record of the log.
	Name string

	// MoneyWeight and CountWeight weigh the two parts of a pile score.
	MoneyWeight float64
	CountWeight float64

	// Threshold is the pile score at or below which the scheduler balances
	// piles instead of digging.
	Threshold float64

	// SizeClasses is the number of container sizes that get designated
	// piles. Larger containers are rejected.
	SizeClasses int
}

// DefaultParams returns the parameters of the expert strategy.
func DefaultParams() Params {
	return Params{
		Name:        "my_strategy",
		MoneyWeight: 3,
		CountWeight: 1,
		Threshold:   0.3,
		SizeClasses: 4,
	}
}

// Validate checks that the parameters can drive a scheduler.
func (p Params) Validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: empty strategy name", yard.ErrTypeMismatch)
	case strings.ContainsAny(p.Name, " \t\r\n"):
		return fmt.Errorf("%w: strategy name %q contains spaces",
			yard.ErrTypeMismatch, p.Name)
	case p.MoneyWeight < 0 || p.CountWeight < 0:
		return fmt.Errorf("%w: negative score weight", yard.ErrTypeMismatch)
	case p.MoneyWeight+p.CountWeight == 0:
		return fmt.Errorf("%w: score weights sum to zero", yard.ErrTypeMismatch)
	case p.SizeClasses < 1:
		return fmt.Errorf("%w: need at least one size class, got %d",
			yard.ErrTypeMismatch, p.SizeClasses)
	}

	return nil
}
