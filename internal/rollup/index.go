// Package rollup computes, for every tag path in a forest, the set of distinct
// cards carried by the tag itself and by all of its descendants.
package rollup

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/tagtree/internal/collection"
)

// Index maps each tag to the dense indices of the cards directly carrying it.
// A card with k tags appears in exactly k bitmaps.
type Index struct {
	direct map[string]*roaring.Bitmap
	unique *roaring.Bitmap
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		direct: make(map[string]*roaring.Bitmap),
		unique: roaring.New(),
	}
}

// Add records that card carries tag. Re-adding is a no-op.
func (x *Index) Add(tag string, card uint32) {
	bm, ok := x.direct[tag]
	if !ok {
		bm = roaring.New()
		x.direct[tag] = bm
	}
	bm.Add(card)
	x.unique.Add(card)
}

// IndexSnapshot indexes every card of snap under each of its tags accepted by
// accept. A nil accept admits every tag.
func IndexSnapshot(snap *collection.Snapshot, accept func(tag string) bool) *Index {
	x := NewIndex()
	snap.Each(func(idx uint32, _ *collection.Card) {
		for _, tag := range snap.Tags(idx) {
			if accept == nil || accept(tag) {
				x.Add(tag, idx)
			}
		}
	})
	return x
}

// Direct returns the bitmap of cards carrying tag verbatim, or nil.
// The bitmap is owned by the index and must not be modified.
func (x *Index) Direct(tag string) *roaring.Bitmap { return x.direct[tag] }

// Has reports whether tag has at least one direct card.
func (x *Index) Has(tag string) bool {
	_, ok := x.direct[tag]
	return ok
}

// Tags returns every indexed tag, sorted.
func (x *Index) Tags() []string {
	out := make([]string, 0, len(x.direct))
	for t := range x.direct {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of indexed tags.
func (x *Index) Len() int { return len(x.direct) }

// UniqueCards returns the number of distinct cards carrying at least one tag.
func (x *Index) UniqueCards() int { return int(x.unique.GetCardinality()) }
