package scheduler

import "github.com/sarchlab/yardsim/yard"

// Every size class k owns two designated piles. Classes 1 to k-1 use
// 2*(1+2+...+(k-1)) = k*(k-1) columns, so pile A of class k starts right
// after them and pile B starts k columns later, at k*k.

// PileA returns the left column of the first pile of size class k.
func PileA(k int) yard.Position {
	return k * (k - 1)
}

// PileB returns the left column of the second pile of size class k.
func PileB(k int) yard.Position {
	return k * k
}

// ClassFits returns true if both piles of size class k lie inside a yard of
// the given width.
func ClassFits(k, width int) bool {
	return k >= 1 && PileB(k)+k <= width
}

// UsableClasses lists the size classes, up to maxClass, whose piles fit in a
// yard of the given width.
func UsableClasses(width, maxClass int) []int {
	var classes []int

	for k := 1; k <= maxClass; k++ {
		if ClassFits(k, width) {
			classes = append(classes, k)
		}
	}

	return classes
}

// DesignatedPiles returns the piles of the usable classes in ascending column
// order.
func DesignatedPiles(width, maxClass int) []yard.Position {
	var piles []yard.Position

	for _, k := range UsableClasses(width, maxClass) {
		piles = append(piles, PileA(k), PileB(k))
	}

	return piles
}

// Alternate returns the other designated pile of size class k.
func Alternate(k int, p yard.Position) yard.Position {
	if p == PileB(k) {
		return PileA(k)
	}

	return PileB(k)
}
