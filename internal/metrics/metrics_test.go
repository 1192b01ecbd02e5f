package metrics

import (
	"testing"

	"github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/tagtree/internal/collection"
	"github.com/agentic-research/tagtree/internal/hierarchy"
	"github.com/agentic-research/tagtree/internal/rollup"
)

type fixture struct {
	snap *collection.Snapshot
	res  *rollup.Result
	comp *Computer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	snap := collection.NewSnapshot(
		[]collection.Card{
			{ID: 1, NoteID: 1, Deck: "Default", Queue: collection.QueueNew, Due: 1},
			{ID: 2, NoteID: 2, Deck: "Default", Queue: collection.QueueReview, Due: 100, Interval: 30, Ease: 2500, Reps: 5, Lapses: 2},
			{ID: 3, NoteID: 3, Deck: "Other", Queue: collection.QueueSuspended, Due: 50, Interval: 2, Ease: 2000, Reps: 1, Lapses: 1},
		},
		[]collection.Note{
			{ID: 1, Tags: []string{"A::B::1-HighYield"}},
			{ID: 2, Tags: []string{"A::B"}},
			{ID: 3, Tags: []string{"Z::3_LowYield", "A::C"}},
		},
		[]collection.ReviewLogEntry{
			{ID: 10, CardID: 2, Outcome: collection.OutcomeAgain, ElapsedMs: 1000},
			{ID: 11, CardID: 2, Outcome: collection.OutcomeGood, ElapsedMs: 3000},
			{ID: 12, CardID: 3, Outcome: collection.OutcomeEasy, ElapsedMs: 500},
		},
	)
	idx := rollup.IndexSnapshot(snap, func(tag string) bool { return tag != "Z::3_LowYield" })
	res := rollup.Aggregate(idx, hierarchy.FromTags(idx.Tags()))
	return &fixture{snap: snap, res: res, comp: NewComputer(snap)}
}

func (f *fixture) bundle(t *testing.T, tag string) Bundle {
	t.Helper()
	n, ok := f.res.Node(tag)
	require.True(t, ok, "node %s", tag)
	return f.comp.Compute(n)
}

func TestCompute_ParentOnly(t *testing.T) {
	f := newFixture(t)
	b := f.bundle(t, "A")

	assert.Equal(t, 0, b.DirectCards)
	assert.Equal(t, 2, b.Due)
	assert.Equal(t, 1, b.New)
	assert.Equal(t, 0, b.Learning)
	assert.Equal(t, 1, b.Review)
	assert.Equal(t, 1, b.Mature)
	assert.Equal(t, 1, b.Suspended)
	assert.Equal(t, 1, b.Unstudied)

	// Card 3's level comes from its own (filtered-out) tag.
	assert.Equal(t, YieldCounts{Total: 1, New: 1}, b.Yield[1])
	assert.Equal(t, YieldCounts{Total: 1}, b.Yield[3])
	assert.Equal(t, YieldCounts{Total: 2, New: 1}, b.HighYield())

	assert.InDelta(t, 1500.0, b.AvgEase, 1e-9)
	assert.InDelta(t, 32.0/3.0, b.AvgInterval, 1e-9)
	assert.Equal(t, 3, b.TotalLapses)
	assert.Equal(t, 3, b.UniqueNotes)

	assert.Equal(t, ReviewStats{
		TotalReviews: 3, TotalTimeMs: 4500, AvgTimeMs: 1500,
		Again: 1, Good: 1, Easy: 1,
	}, b.Reviews)
	assert.Nil(t, b.UnstudiedDetails, "parent-only nodes list no details")
}

func TestCompute_LeafWithChildren(t *testing.T) {
	f := newFixture(t)
	b := f.bundle(t, "A::B")

	assert.Equal(t, 1, b.DirectCards)
	assert.Equal(t, 1, b.Due)
	assert.Equal(t, 0, b.New)
	assert.Equal(t, 1, b.Review)
	assert.Equal(t, 1, b.Mature)
	// Unstudied counts the rolled-up set even for leaves.
	assert.Equal(t, 1, b.Unstudied)
	assert.Equal(t, YieldCounts{}, b.HighYield())

	assert.InDelta(t, 2500.0, b.AvgEase, 1e-9)
	assert.InDelta(t, 30.0, b.AvgInterval, 1e-9)
	assert.Equal(t, 2, b.TotalLapses)
	assert.Equal(t, 1, b.UniqueNotes)
	assert.Equal(t, 2, b.Reviews.TotalReviews)
	assert.InDelta(t, 2000.0, b.Reviews.AvgTimeMs, 1e-9)
	assert.Empty(t, b.UnstudiedDetails)
}

func TestCompute_YieldMarkerLeaf(t *testing.T) {
	f := newFixture(t)
	b := f.bundle(t, "A::B::1-HighYield")

	assert.Equal(t, YieldCounts{Total: 1, New: 1}, b.Yield[1])
	assert.Equal(t, YieldCounts{Total: 1, New: 1}, b.HighYield())
	assert.Equal(t, 1, b.Unstudied)
	assert.Equal(t, []CardDetail{{
		CardID: 1, NoteID: 1, Deck: "Default", Queue: collection.QueueNew, Due: 1,
	}}, b.UnstudiedDetails)

	// No reviews: averages stay at zero instead of dividing by zero.
	assert.Equal(t, ReviewStats{}, b.Reviews)
	assert.Equal(t, 0.0, b.AvgEase)
}

func TestCompute_SuspendedLeaf(t *testing.T) {
	f := newFixture(t)
	b := f.bundle(t, "A::C")

	assert.Equal(t, 1, b.Suspended)
	assert.Equal(t, 0, b.Due)
	assert.Equal(t, YieldCounts{Total: 1}, b.Yield[3])
}

func TestCompute_EmptyNode(t *testing.T) {
	f := newFixture(t)
	b := f.comp.Compute(&rollup.Node{Tag: "X", Direct: roaring.New(), RolledUp: roaring.New()})
	assert.Equal(t, Bundle{}, b)
}

func TestCompute_YieldMarkerParentOnlyHasNoOwnCards(t *testing.T) {
	snap := collection.NewSnapshot(
		[]collection.Card{{ID: 1, NoteID: 1}},
		[]collection.Note{{ID: 1, Tags: []string{"S::2-HighYield::Cardio"}}},
		nil,
	)
	idx := rollup.IndexSnapshot(snap, nil)
	res := rollup.Aggregate(idx, hierarchy.FromTags(idx.Tags()))
	comp := NewComputer(snap)

	parent, ok := res.Node("S::2-HighYield")
	require.True(t, ok)
	b := comp.Compute(parent)
	assert.Equal(t, YieldCounts{}, b.Yield[2])
	assert.Equal(t, 1, b.New, "state counts still use the rolled-up set")

	child, _ := res.Node("S::2-HighYield::Cardio")
	assert.Equal(t, YieldCounts{Total: 1, New: 1}, comp.Compute(child).Yield[2])

	root, _ := res.Node("S")
	assert.Equal(t, YieldCounts{Total: 1, New: 1}, comp.Compute(root).Yield[2])
}

func TestHighYieldIsSumOfLevels(t *testing.T) {
	f := newFixture(t)
	f.res.Each(func(n *rollup.Node) {
		b := f.comp.Compute(n)
		var total, newCards, review int
		for l := 1; l <= MaxYieldLevel; l++ {
			total += b.Yield[l].Total
			newCards += b.Yield[l].New
			review += b.Yield[l].Review
		}
		assert.Equal(t, YieldCounts{Total: total, New: newCards, Review: review}, b.HighYield(), n.Tag)
	})
}

func TestCompute_CardLevelFollowsCaseInsensitiveTagOrder(t *testing.T) {
	snap := collection.NewSnapshot(
		[]collection.Card{{ID: 1, NoteID: 1, Queue: collection.QueueNew}},
		[]collection.Note{{ID: 1, Tags: []string{"B::4-LowerYield", "Topic", "a::1-HighYield"}}},
		nil,
	)
	idx := rollup.IndexSnapshot(snap, nil)
	res := rollup.Aggregate(idx, hierarchy.FromTags(idx.Tags()))
	n, ok := res.Node("Topic")
	require.True(t, ok)

	b := NewComputer(snap).Compute(n)
	assert.Equal(t, YieldCounts{Total: 1, New: 1}, b.Yield[1])
	assert.Equal(t, YieldCounts{}, b.Yield[4])
}
