package yard

// A Snapshot is a detached copy of a yard. It implements View and is safe to
// hand to other goroutines.
type Snapshot struct {
	YardWidth int               `json:"width"`
	YardCash  int               `json:"cash"`
	Columns   [][]int           `json:"columns"`
	Items     map[int]Container `json:"containers"`
	Locations map[int]Location  `json:"locations"`
	Order     []int             `json:"order"`
}

// Snapshot copies the current state of the yard.
func (y *Yard) Snapshot() *Snapshot {
	s := &Snapshot{
		YardWidth: y.width,
		YardCash:  y.cash,
		Columns:   make([][]int, len(y.columns)),
		Items:     make(map[int]Container, len(y.table)),
		Locations: make(map[int]Location, len(y.index)),
		Order:     append([]int(nil), y.order...),
	}

	for i, column := range y.columns {
		s.Columns[i] = append([]int(nil), column...)
	}

	for id, c := range y.table {
		s.Items[id] = c
	}

	for id, loc := range y.index {
		s.Locations[id] = loc
	}

	return s
}

// Width returns the number of columns.
func (s *Snapshot) Width() int {
	return s.YardWidth
}

// Cash returns the money earned when the snapshot was taken.
func (s *Snapshot) Cash() int {
	return s.YardCash
}

// Height returns the number of containers stacked in column p.
func (s *Snapshot) Height(p Position) int {
	return len(s.Columns[p])
}

// At returns the container at stack index h of column p.
func (s *Snapshot) At(p Position, h int) Container {
	return s.Items[s.Columns[p][h]]
}

// Containers returns all the containers present, in insertion order.
func (s *Snapshot) Containers() []Container {
	containers := make([]Container, 0, len(s.Order))
	for _, id := range s.Order {
		containers = append(containers, s.Items[id])
	}

	return containers
}

// Location returns where a container sat.
func (s *Snapshot) Location(c Container) (Location, bool) {
	loc, ok := s.Locations[c.ID]
	return loc, ok
}

// Heights returns the height of every column.
func Heights(v View) []int {
	heights := make([]int, v.Width())
	for p := range heights {
		heights[p] = v.Height(p)
	}

	return heights
}
