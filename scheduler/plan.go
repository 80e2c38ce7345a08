package scheduler

import (
	"sort"

	"github.com/sarchlab/yardsim/yard"
)

// A Decision is what the scheduler does with its idle time.
type Decision interface {
	decision()
}

// Dig treats the containers of a pile from the top.
type Dig struct {
	Pile      yard.Position
	Depth     int
	Remaining int
	Score     float64
}

// Equilibrate moves containers from the taller pile of a size class to the
// shorter one.
type Equilibrate struct {
	Tall  yard.Position
	Short yard.Position
	Score float64
}

func (Dig) decision()         {}
func (Equilibrate) decision() {}

// PileScore is the interest of digging a pile.
type PileScore struct {
	Pile      yard.Position
	Score     float64
	Money     int
	Count     int
	Remaining int
}

// ScorePile scans at most depth containers of pile p from the top. A
// container reached after i steps earns money if it is deliverable at now+i.
// Containers that can already be sold or that are expired are counted.
func ScorePile(
	v yard.View,
	p yard.Position,
	now yard.TimeStamp,
	depth int,
	params Params,
) PileScore {
	height := v.Height(p)
	scanned := min(depth, height)

	s := PileScore{Pile: p, Remaining: max(depth-height, 0)}

	for i := 0; i < scanned; i++ {
		c := v.At(p, height-1-i)

		if c.Sellable(now + i) {
			s.Money += c.Value
		}

		if c.Sellable(now) || c.Expired(now) {
			s.Count++
		}
	}

	s.Score = (params.MoneyWeight*float64(s.Money) +
		params.CountWeight*float64(s.Count)) /
		(params.MoneyWeight + params.CountWeight)

	return s
}

// BestPile returns the designated pile with the highest score. Ties go to the
// first pile in column order, and an empty pile never stays the best. It
// returns false if no size class fits the yard.
func BestPile(
	v yard.View,
	now yard.TimeStamp,
	depth int,
	params Params,
) (PileScore, bool) {
	var (
		best  PileScore
		found bool
	)

	for _, p := range DesignatedPiles(v.Width(), params.SizeClasses) {
		s := ScorePile(v, p, now, depth, params)
		if !found || best.Score < s.Score || v.Height(best.Pile) == 0 {
			best = s
			found = true
		}
	}

	return best, found
}

// LeastEquilibrated returns the two piles of a size class with the largest
// height difference, the taller first. The first class wins ties.
func LeastEquilibrated(v yard.View, params Params) (tall, short yard.Position) {
	maxDiff := -1

	for _, k := range UsableClasses(v.Width(), params.SizeClasses) {
		a, b := PileA(k), PileB(k)
		diff := v.Height(b) - v.Height(a)

		if abs(diff) <= maxDiff {
			continue
		}

		maxDiff = abs(diff)
		if diff > 0 {
			tall, short = b, a
		} else {
			tall, short = a, b
		}
	}

	return tall, short
}

// Plan decides how to spend depth time units on the yard. It does not mutate
// anything. It returns nil if no size class fits the yard.
func Plan(
	v yard.View,
	now yard.TimeStamp,
	depth int,
	params Params,
) Decision {
	best, ok := BestPile(v, now, depth, params)
	if !ok {
		return nil
	}

	if best.Score <= params.Threshold {
		tall, short := LeastEquilibrated(v, params)
		return Equilibrate{Tall: tall, Short: short, Score: best.Score}
	}

	return Dig{
		Pile:      best.Pile,
		Depth:     depth,
		Remaining: best.Remaining,
		Score:     best.Score,
	}
}

// FlushOrder puts the containers that can be sold at now first, the most
// valuable first. The others keep their relative order.
func FlushOrder(containers []yard.Container, now yard.TimeStamp) []yard.Container {
	var sell, rest []yard.Container

	for _, c := range containers {
		if c.Sellable(now) {
			sell = append(sell, c)
		} else {
			rest = append(rest, c)
		}
	}

	sort.SliceStable(sell, func(i, j int) bool {
		return sell[i].Value > sell[j].Value
	})

	return append(sell, rest...)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
