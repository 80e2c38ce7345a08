// Package yard implements the container yard: a fixed number of columns, each
// a stack of containers, where a container of size s covers s adjacent
// columns at the same stack depth.
package yard

import (
	"fmt"
)

// A View provides read-only access to a yard.
type View interface {
	// Width returns the number of columns.
	Width() int

	// Cash returns the money earned so far.
	Cash() int

	// Height returns the number of containers stacked in column p.
	Height(p Position) int

	// At returns the container at stack index h of column p.
	At(p Position, h int) Container

	// Containers returns all the containers present, in insertion order.
	Containers() []Container

	// Location returns where a container sits.
	Location(c Container) (Location, bool)
}

// Yard is the container storage. Columns hold container identifiers only; the
// containers themselves live in a single table.
type Yard struct {
	width   int
	cash    int
	columns [][]int
	table   map[int]Container
	index   map[int]Location
	order   []int
}

// New creates an empty yard with the given number of columns.
func New(width int) *Yard {
	if width <= 0 {
		panic(fmt.Sprintf("yard width must be positive, got %d", width))
	}

	return &Yard{
		width:   width,
		columns: make([][]int, width),
		table:   make(map[int]Container),
		index:   make(map[int]Location),
	}
}

// Width returns the number of columns.
func (y *Yard) Width() int {
	return y.width
}

// Cash returns the money earned so far.
func (y *Yard) Cash() int {
	return y.cash
}

// ValidPosition returns true if p is a column of the yard.
func (y *Yard) ValidPosition(p Position) bool {
	return p >= 0 && p < y.width
}

// Height returns the number of containers stacked in column p.
func (y *Yard) Height(p Position) int {
	y.mustBeValidPosition(p)

	return len(y.columns[p])
}

// MaxHeight returns the height of the tallest column.
func (y *Yard) MaxHeight() int {
	height := 0
	for _, column := range y.columns {
		height = max(height, len(column))
	}

	return height
}

// At returns the container at stack index h of column p.
func (y *Yard) At(p Position, h int) Container {
	y.mustBeValidPosition(p)

	return y.table[y.columns[p][h]]
}

// Top returns the topmost container of column p.
func (y *Yard) Top(p Position) (Container, bool) {
	if y.IsEmpty(p) {
		return Container{}, false
	}

	column := y.columns[p]

	return y.table[column[len(column)-1]], true
}

// IsEmpty returns true if nothing is stacked in column p.
func (y *Yard) IsEmpty(p Position) bool {
	return y.Height(p) == 0
}

// Empty returns true if the yard holds no container.
func (y *Yard) Empty() bool {
	return len(y.order) == 0
}

// Len returns the number of containers present.
func (y *Yard) Len() int {
	return len(y.order)
}

// Contains returns true if the container is in the yard.
func (y *Yard) Contains(c Container) bool {
	_, ok := y.index[c.ID]
	return ok
}

// Location returns where a container sits.
func (y *Yard) Location(c Container) (Location, bool) {
	loc, ok := y.index[c.ID]
	return loc, ok
}

// Containers returns all the containers present, in insertion order.
func (y *Yard) Containers() []Container {
	containers := make([]Container, 0, len(y.order))
	for _, id := range y.order {
		containers = append(containers, y.table[id])
	}

	return containers
}

// RemovableContainers returns the containers that nothing sits on, in
// insertion order.
func (y *Yard) RemovableContainers() []Container {
	var removable []Container

	for _, id := range y.order {
		c := y.table[id]
		if y.CanRemove(c) {
			removable = append(removable, c)
		}
	}

	return removable
}

// CanPlace returns true if the container can be put with its left side on
// column p. The surface below it must be flat.
func (y *Yard) CanPlace(c Container, p Position) bool {
	if y.Contains(c) {
		return false
	}

	return y.canPlaceOn(c, p, func(q Position) int { return len(y.columns[q]) })
}

func (y *Yard) canPlaceOn(
	c Container,
	p Position,
	height func(Position) int,
) bool {
	if c.Size <= 0 || !y.ValidPosition(p) || p+c.Size > y.width {
		return false
	}

	level := height(p)
	for q := p + 1; q < p+c.Size; q++ {
		if height(q) != level {
			return false
		}
	}

	return true
}

// Place puts the container on the columns [p, p+c.Size).
func (y *Yard) Place(c Container, p Position) error {
	if !y.CanPlace(c, p) {
		return fmt.Errorf("%w: cannot place container %d at %d",
			ErrConstraintViolation, c.ID, p)
	}

	y.place(c, p)

	return nil
}

func (y *Yard) place(c Container, p Position) {
	y.index[c.ID] = Location{Height: len(y.columns[p]), Column: p}
	y.table[c.ID] = c
	y.order = append(y.order, c.ID)

	for q := p; q < p+c.Size; q++ {
		y.columns[q] = append(y.columns[q], c.ID)
	}
}

// CanRemove returns true if the container is present and no other container
// sits on any of its columns.
func (y *Yard) CanRemove(c Container) bool {
	loc, ok := y.index[c.ID]
	if !ok {
		return false
	}

	size := y.table[c.ID].Size
	for q := loc.Column; q < loc.Column+size; q++ {
		if len(y.columns[q]) != loc.Height+1 {
			return false
		}
	}

	return true
}

// Remove takes the container out of the yard. It does not touch the cash.
func (y *Yard) Remove(c Container) error {
	if !y.CanRemove(c) {
		return fmt.Errorf("%w: cannot remove container %d",
			ErrConstraintViolation, c.ID)
	}

	y.remove(c)

	return nil
}

func (y *Yard) remove(c Container) {
	loc := y.index[c.ID]
	stored := y.table[c.ID]

	for q := loc.Column; q < loc.Column+stored.Size; q++ {
		y.columns[q] = y.columns[q][:loc.Height]
	}

	delete(y.index, c.ID)
	delete(y.table, c.ID)

	for i, id := range y.order {
		if id == c.ID {
			y.order = append(y.order[:i], y.order[i+1:]...)
			break
		}
	}
}

// CanRelocate returns true if the container can be removed and then placed
// at p. The placement is checked against the yard after the removal.
func (y *Yard) CanRelocate(c Container, p Position) bool {
	if !y.CanRemove(c) {
		return false
	}

	loc := y.index[c.ID]
	stored := y.table[c.ID]
	heightAfterRemoval := func(q Position) int {
		h := len(y.columns[q])
		if q >= loc.Column && q < loc.Column+stored.Size {
			h--
		}

		return h
	}

	return y.canPlaceOn(stored, p, heightAfterRemoval)
}

// Relocate moves the container to p in one step.
func (y *Yard) Relocate(c Container, p Position) error {
	if !y.CanRelocate(c, p) {
		return fmt.Errorf("%w: cannot move container %d to %d",
			ErrConstraintViolation, c.ID, p)
	}

	stored := y.table[c.ID]
	y.remove(stored)
	y.place(stored, p)

	return nil
}

// Credit adds money to the yard's cash.
func (y *Yard) Credit(amount int) error {
	if amount < 0 {
		return fmt.Errorf("%w: negative credit %d",
			ErrConstraintViolation, amount)
	}

	y.cash += amount

	return nil
}

func (y *Yard) mustBeValidPosition(p Position) {
	if !y.ValidPosition(p) {
		panic(fmt.Sprintf("position %d is outside a yard of width %d",
			p, y.width))
	}
}
