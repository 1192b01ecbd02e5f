package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshot_DenseIndexFollowsCardID(t *testing.T) {
	snap := NewSnapshot([]Card{
		{ID: 30, NoteID: 1},
		{ID: 10, NoteID: 1},
		{ID: 20, NoteID: 2},
		{ID: 10, NoteID: 9}, // duplicate keeps first
	}, nil, nil)

	require.Equal(t, 3, snap.Len())
	var ids []int64
	snap.Each(func(idx uint32, c *Card) { ids = append(ids, c.ID) })
	assert.Equal(t, []int64{10, 20, 30}, ids)

	idx, ok := snap.Index(10)
	require.True(t, ok)
	assert.Equal(t, uint32(0), idx)
	assert.Equal(t, int64(1), snap.Card(idx).NoteID)

	_, ok = snap.Index(99)
	assert.False(t, ok)
}

func TestNewSnapshot_NoteTagsNormalized(t *testing.T) {
	snap := NewSnapshot(
		[]Card{{ID: 1, NoteID: 5}, {ID: 2, NoteID: 404}},
		[]Note{{ID: 5, Tags: []string{"b", "a", "b", ""}}},
		nil,
	)

	idx, _ := snap.Index(1)
	assert.Equal(t, []string{"a", "b"}, snap.Tags(idx))

	idx, _ = snap.Index(2)
	assert.Empty(t, snap.Tags(idx), "card without a note has no tags")

	n, ok := snap.Note(5)
	require.True(t, ok)
	assert.Equal(t, int64(5), n.ID)
}

func TestNewSnapshot_TagOrderIgnoresCase(t *testing.T) {
	snap := NewSnapshot(
		[]Card{{ID: 1, NoteID: 1}},
		[]Note{{ID: 1, Tags: []string{"b::4-LowerYield", "Topic", "B::4-LowerYield", "a::1-HighYield"}}},
		nil,
	)

	idx, _ := snap.Index(1)
	assert.Equal(t, []string{"a::1-HighYield", "B::4-LowerYield", "b::4-LowerYield", "Topic"}, snap.Tags(idx))
}

func TestNewSnapshot_ReviewsAndLastReviewDate(t *testing.T) {
	snap := NewSnapshot(
		[]Card{{ID: 1}, {ID: 2}},
		nil,
		[]ReviewLogEntry{
			{ID: 1704067200000, CardID: 1, Outcome: OutcomeGood, ElapsedMs: 3000}, // 2024-01-01
			{ID: 1706745600000, CardID: 1, Outcome: OutcomeAgain, ElapsedMs: 5000}, // 2024-02-01
			{ID: 1706745600001, CardID: 7, Outcome: OutcomeEasy},
		},
	)

	assert.Equal(t, 2, snap.ReviewCount())
	idx, _ := snap.Index(1)
	assert.Len(t, snap.Reviews(idx), 2)
	assert.Equal(t, "2024-02-01", snap.Card(idx).LastReviewDate)

	idx, _ = snap.Index(2)
	assert.Empty(t, snap.Reviews(idx))
	assert.Empty(t, snap.Card(idx).LastReviewDate)
}

func TestCardPredicates(t *testing.T) {
	c := Card{Queue: QueueSuspended, Interval: 22}
	assert.True(t, c.Suspended())
	assert.True(t, c.Unstudied())
	assert.True(t, c.Mature())

	c = Card{Queue: QueueReview, Interval: MatureInterval, Reps: 3}
	assert.False(t, c.Suspended())
	assert.False(t, c.Unstudied())
	assert.False(t, c.Mature())
}

func TestQueueAndOutcomeNames(t *testing.T) {
	assert.Equal(t, "new", QueueNew.String())
	assert.Equal(t, "learning", QueueLearning.String())
	assert.Equal(t, "review", QueueReview.String())
	assert.Equal(t, "suspended", QueueSuspended.String())
	assert.Equal(t, "other", QueueUserBuried.String())
	assert.Equal(t, "other", QueueDayLearning.String())

	assert.Equal(t, "again", OutcomeAgain.String())
	assert.Equal(t, "easy", OutcomeEasy.String())
	assert.Equal(t, "none", OutcomeNone.String())
}

func TestFilterMatch(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		tag    string
		want   bool
	}{
		{"empty filter admits all", Filter{}, "anything", true},
		{"include hit", Filter{Include: []string{"Step1"}}, "#AK_Step1_v12::Pharm", true},
		{"include miss", Filter{Include: []string{"Step2"}}, "#AK_Step1_v12::Pharm", false},
		{"exclude wins over include", Filter{Include: []string{"Step1"}, Exclude: []string{"Pharm"}}, "#AK_Step1_v12::Pharm", false},
		{"exclude only", Filter{Exclude: []string{"!AK_UpdateTags"}}, "!AK_UpdateTags::x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(tt.tag))
		})
	}
}
