package yard

import "fmt"

// TimeStamp is a tick of the yard clock.
type TimeStamp = int

// Position is the index of a column in the yard.
type Position = int

// TimeRange is the half-open interval [Start, End).
type TimeRange struct {
	Start TimeStamp
	End   TimeStamp
}

// Contains returns true if t lies in [Start, End).
func (r TimeRange) Contains(t TimeStamp) bool {
	return r.Start <= t && t < r.End
}

// Valid returns true if the range is not inverted.
func (r TimeRange) Valid() bool {
	return r.Start <= r.End
}

// A Container is an item stored in the yard. Size is the number of adjacent
// columns it covers. Containers are immutable and referenced by ID.
type Container struct {
	ID       int
	Size     int
	Value    int
	Arrival  TimeRange
	Delivery TimeRange
}

// Sellable returns true if removing the container at t earns its value.
func (c Container) Sellable(t TimeStamp) bool {
	return c.Delivery.Contains(t)
}

// Expired returns true if the delivery window has closed at t.
func (c Container) Expired(t TimeStamp) bool {
	return t >= c.Delivery.End
}

// Validate checks the fields that the yard and the schedulers rely on.
func (c Container) Validate(maxSize int) error {
	switch {
	case c.Size <= 0:
		return fmt.Errorf("%w: container %d has size %d",
			ErrTypeMismatch, c.ID, c.Size)
	case maxSize > 0 && c.Size > maxSize:
		return fmt.Errorf("%w: container %d has size %d, at most %d supported",
			ErrTypeMismatch, c.ID, c.Size, maxSize)
	case c.Value < 0:
		return fmt.Errorf("%w: container %d has negative value %d",
			ErrTypeMismatch, c.ID, c.Value)
	case !c.Arrival.Valid():
		return fmt.Errorf("%w: container %d has inverted arrival range",
			ErrTypeMismatch, c.ID)
	case !c.Delivery.Valid():
		return fmt.Errorf("%w: container %d has inverted delivery range",
			ErrTypeMismatch, c.ID)
	}

	return nil
}

// Location is where a container sits: the stack index in its columns and its
// leftmost column.
type Location struct {
	Height int
	Column Position
}
