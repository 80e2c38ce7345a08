package scheduler

import (
	"errors"

	"github.com/sarchlab/yardsim/yard"
)

// A Strategy handles incoming containers one at a time.
type Strategy interface {
	// Execute takes in one container and spends its arrival window.
	Execute(c yard.Container) error

	// Close ends the run and releases the event log.
	Close() error
}

// Run feeds all the containers to the strategy in order and closes it,
// whether the run succeeds or not.
func Run(s Strategy, containers []yard.Container) (err error) {
	defer func() {
		err = errors.Join(err, s.Close())
	}()

	for _, c := range containers {
		if err := s.Execute(c); err != nil {
			return err
		}
	}

	return nil
}
