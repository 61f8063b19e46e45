package flappy

import (
	"github.com/vovakirdan/flappy-gym/internal/core"
)

// Pair is one upper/lower obstacle pair sharing a horizontal position.
// The gap between the two halves spans [GapY, GapY+gap).
type Pair struct {
	X      float64 // Left edge of both halves
	GapY   float64 // Bottom of the upper half, top of the gap
	Scored bool    // Whether the player already scored on this pair

	spawned bool // Whether this pair already triggered its successor
}

// UpperRect returns the collision rectangle for the upper half.
func (p Pair) UpperRect(pipeW, pipeH float64) core.Rect {
	return core.NewRect(p.X, p.GapY-pipeH, pipeW, pipeH)
}

// LowerRect returns the collision rectangle for the lower half.
func (p Pair) LowerRect(pipeW, pipeH, gap float64) core.Rect {
	return core.NewRect(p.X, p.GapY+gap, pipeW, pipeH)
}

// Center returns the horizontal center of the pair.
func (p Pair) Center(pipeW float64) float64 {
	return p.X + pipeW/2
}

// pairQueue is the ordered live obstacle sequence: append at the back,
// evict from the front. It never holds more than a handful of pairs.
type pairQueue struct {
	items []Pair
}

func (q *pairQueue) reset() {
	q.items = q.items[:0]
}

func (q *pairQueue) len() int {
	return len(q.items)
}

func (q *pairQueue) push(p Pair) {
	q.items = append(q.items, p)
}

// front returns a pointer to the leftmost pair, or nil when empty.
func (q *pairQueue) front() *Pair {
	if len(q.items) == 0 {
		return nil
	}
	return &q.items[0]
}

func (q *pairQueue) popFront() {
	n := copy(q.items, q.items[1:])
	q.items = q.items[:n]
}

// scroll moves every pair horizontally by dx.
func (q *pairQueue) scroll(dx float64) {
	for i := range q.items {
		q.items[i].X += dx
	}
}

// clone returns a copy of the live pairs.
func (q *pairQueue) clone() []Pair {
	out := make([]Pair, len(q.items))
	copy(out, q.items)
	return out
}
