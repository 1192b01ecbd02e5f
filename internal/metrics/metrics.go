// Package metrics computes the per-tag statistics bundle from the card set that
// represents a rolled-up node.
package metrics

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/tagtree/internal/collection"
	"github.com/agentic-research/tagtree/internal/rollup"
)

// YieldCounts are the card counts attributed to one yield level.
type YieldCounts struct {
	Total  int
	New    int
	Review int
}

func (y *YieldCounts) add(c *collection.Card) {
	y.Total++
	if c.Unstudied() {
		y.New++
	}
	if c.Queue == collection.QueueReview {
		y.Review++
	}
}

// ReviewStats aggregates review-log entries.
type ReviewStats struct {
	TotalReviews int
	TotalTimeMs  int64
	AvgTimeMs    float64
	Again        int
	Hard         int
	Good         int
	Easy         int
}

// CardDetail is the reduced view of an unstudied card.
type CardDetail struct {
	CardID    int64
	NoteID    int64
	Deck      string
	Queue     collection.Queue
	Due       int64
	Suspended bool
}

// Bundle is the fixed statistics set of one node.
type Bundle struct {
	// DirectCards is the number of cards carrying the tag verbatim.
	DirectCards int

	UniqueNotes int
	Due         int
	New         int
	Learning    int
	Review      int
	Mature      int
	Suspended   int
	Unstudied   int

	// Yield is indexed by level; index 0 is unused.
	Yield [MaxYieldLevel + 1]YieldCounts

	AvgEase     float64
	AvgInterval float64
	TotalLapses int

	Reviews ReviewStats

	// UnstudiedDetails lists the unstudied direct cards of leaf nodes, in card-ID order.
	UnstudiedDetails []CardDetail
}

// HighYield returns the sum of the per-level yield counts.
func (b *Bundle) HighYield() YieldCounts {
	var sum YieldCounts
	for l := 1; l <= MaxYieldLevel; l++ {
		sum.Total += b.Yield[l].Total
		sum.New += b.Yield[l].New
		sum.Review += b.Yield[l].Review
	}
	return sum
}

// Computer derives bundles from one snapshot. The yield level of every card is
// resolved once and reused across nodes.
type Computer struct {
	snap      *collection.Snapshot
	cardYield []int8
}

// NewComputer prepares a Computer for snap.
func NewComputer(snap *collection.Snapshot) *Computer {
	c := &Computer{snap: snap, cardYield: make([]int8, snap.Len())}
	levels := make(levelCache)
	snap.Each(func(idx uint32, _ *collection.Card) {
		c.cardYield[idx] = levels.cardLevel(snap.Tags(idx))
	})
	return c
}

// Compute builds the bundle of a node. Leaf nodes are measured on their direct
// cards, parent-only nodes on their rolled-up cards, and empty nodes yield zeros.
func (c *Computer) Compute(n *rollup.Node) Bundle {
	b := Bundle{DirectCards: n.DirectCount()}
	kind := n.Kind()
	if kind == rollup.Empty {
		return b
	}
	cards := n.Cards()

	c.states(&b, cards)
	c.yields(&b, n, cards)
	c.averages(&b, cards)
	c.reviews(&b, cards)

	// Unstudied follows the rolled-up set whenever it is non-empty, for leaves too.
	b.Unstudied = c.countUnstudied(n.RolledUp)

	if kind == rollup.Leaf {
		b.UnstudiedDetails = c.details(n.Direct)
	}
	return b
}

func (c *Computer) states(b *Bundle, cards *roaring.Bitmap) {
	it := cards.Iterator()
	for it.HasNext() {
		card := c.snap.Card(it.Next())
		if card.Due >= 0 && !card.Suspended() {
			b.Due++
		}
		if card.Unstudied() {
			b.New++
		}
		switch card.Queue {
		case collection.QueueLearning:
			b.Learning++
		case collection.QueueReview:
			b.Review++
		case collection.QueueSuspended:
			b.Suspended++
		}
		if card.Mature() {
			b.Mature++
		}
	}
}

// yields attributes cards to levels. A node that is itself a yield tag puts all
// of its direct cards in its own level; otherwise each card goes to its own level.
func (c *Computer) yields(b *Bundle, n *rollup.Node, cards *roaring.Bitmap) {
	if level := YieldLevel(n.Tag); level > 0 {
		it := n.Direct.Iterator()
		for it.HasNext() {
			b.Yield[level].add(c.snap.Card(it.Next()))
		}
		return
	}
	it := cards.Iterator()
	for it.HasNext() {
		idx := it.Next()
		if level := c.cardYield[idx]; level > 0 {
			b.Yield[level].add(c.snap.Card(idx))
		}
	}
}

func (c *Computer) averages(b *Bundle, cards *roaring.Bitmap) {
	var count int
	var ease, ivl int64
	notes := make(map[int64]struct{})
	it := cards.Iterator()
	for it.HasNext() {
		card := c.snap.Card(it.Next())
		count++
		ease += int64(card.Ease)
		ivl += int64(card.Interval)
		b.TotalLapses += card.Lapses
		if card.NoteID != 0 {
			notes[card.NoteID] = struct{}{}
		}
	}
	b.UniqueNotes = len(notes)
	if count > 0 {
		b.AvgEase = float64(ease) / float64(count)
		b.AvgInterval = float64(ivl) / float64(count)
	}
}

func (c *Computer) reviews(b *Bundle, cards *roaring.Bitmap) {
	r := &b.Reviews
	it := cards.Iterator()
	for it.HasNext() {
		for _, e := range c.snap.Reviews(it.Next()) {
			r.TotalReviews++
			r.TotalTimeMs += e.ElapsedMs
			switch e.Outcome {
			case collection.OutcomeAgain:
				r.Again++
			case collection.OutcomeHard:
				r.Hard++
			case collection.OutcomeGood:
				r.Good++
			case collection.OutcomeEasy:
				r.Easy++
			}
		}
	}
	if r.TotalReviews > 0 {
		r.AvgTimeMs = float64(r.TotalTimeMs) / float64(r.TotalReviews)
	}
}

func (c *Computer) countUnstudied(cards *roaring.Bitmap) int {
	n := 0
	it := cards.Iterator()
	for it.HasNext() {
		if c.snap.Card(it.Next()).Unstudied() {
			n++
		}
	}
	return n
}

func (c *Computer) details(cards *roaring.Bitmap) []CardDetail {
	var out []CardDetail
	it := cards.Iterator()
	for it.HasNext() {
		card := c.snap.Card(it.Next())
		if !card.Unstudied() {
			continue
		}
		out = append(out, CardDetail{
			CardID:    card.ID,
			NoteID:    card.NoteID,
			Deck:      card.Deck,
			Queue:     card.Queue,
			Due:       card.Due,
			Suspended: card.Suspended(),
		})
	}
	return out
}
