package collection

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Source supplies the snapshot for one run. Implementations own all I/O.
type Source interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*Snapshot, error)

// Load implements Source.
func (f SourceFunc) Load(ctx context.Context) (*Snapshot, error) { return f(ctx) }

// Snapshot is an immutable view of cards, notes and review history.
//
// Cards are addressed by a dense uint32 index so that card sets can live in
// roaring bitmaps. Indices are assigned in ascending card-ID order, so
// iterating a bitmap visits cards in ID order.
type Snapshot struct {
	cards     []Card           // dense index -> card
	cardIndex map[int64]uint32 // Card.ID -> dense index
	notes     map[int64]*Note
	reviews   [][]ReviewLogEntry // dense index -> entries
	noTags    []string
}

// NewSnapshot builds a snapshot from raw records. Duplicate card or note IDs keep
// the first occurrence. Review entries for unknown cards are dropped. Note tags
// are de-duplicated and sorted.
func NewSnapshot(cards []Card, notes []Note, reviews []ReviewLogEntry) *Snapshot {
	s := &Snapshot{
		cardIndex: make(map[int64]uint32, len(cards)),
		notes:     make(map[int64]*Note, len(notes)),
	}

	sorted := make([]Card, 0, len(cards))
	seen := make(map[int64]struct{}, len(cards))
	for _, c := range cards {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		sorted = append(sorted, c)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	s.cards = sorted
	for i := range s.cards {
		s.cardIndex[s.cards[i].ID] = uint32(i)
	}

	for _, n := range notes {
		if _, dup := s.notes[n.ID]; dup {
			continue
		}
		s.notes[n.ID] = &Note{ID: n.ID, Tags: normalizeTags(n.Tags)}
	}

	s.reviews = make([][]ReviewLogEntry, len(s.cards))
	latest := make([]int64, len(s.cards))
	for _, r := range reviews {
		idx, ok := s.cardIndex[r.CardID]
		if !ok {
			continue
		}
		s.reviews[idx] = append(s.reviews[idx], r)
		if r.ID > latest[idx] {
			latest[idx] = r.ID
		}
	}
	for i, ts := range latest {
		if ts > 0 {
			s.cards[i].LastReviewDate = time.UnixMilli(ts).UTC().Format("2006-01-02")
		}
	}
	return s
}

// tagLess orders tags case-insensitively, the way the collection stores them,
// with byte order breaking ties between case variants.
func tagLess(a, b string) bool {
	if la, lb := strings.ToLower(a), strings.ToLower(b); la != lb {
		return la < lb
	}
	return a < b
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := set[t]; ok {
			continue
		}
		set[t] = struct{}{}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return tagLess(out[i], out[j]) })
	return out
}

// Len returns the number of cards.
func (s *Snapshot) Len() int { return len(s.cards) }

// NoteCount returns the number of notes.
func (s *Snapshot) NoteCount() int { return len(s.notes) }

// ReviewCount returns the number of retained review-log entries.
func (s *Snapshot) ReviewCount() int {
	n := 0
	for _, r := range s.reviews {
		n += len(r)
	}
	return n
}

// Card returns the card at a dense index. The index must be in [0, Len()).
func (s *Snapshot) Card(idx uint32) *Card { return &s.cards[idx] }

// Index resolves a card ID to its dense index.
func (s *Snapshot) Index(cardID int64) (uint32, bool) {
	idx, ok := s.cardIndex[cardID]
	return idx, ok
}

// Note returns a note by ID.
func (s *Snapshot) Note(id int64) (*Note, bool) {
	n, ok := s.notes[id]
	return n, ok
}

// Tags returns the tags of the card at idx, resolved through its owning note.
// The returned slice is shared and must not be modified.
func (s *Snapshot) Tags(idx uint32) []string {
	n, ok := s.notes[s.cards[idx].NoteID]
	if !ok {
		return s.noTags
	}
	return n.Tags
}

// Reviews returns the review-log entries of the card at idx.
func (s *Snapshot) Reviews(idx uint32) []ReviewLogEntry { return s.reviews[idx] }

// Each calls fn for every card in dense index order.
func (s *Snapshot) Each(fn func(idx uint32, c *Card)) {
	for i := range s.cards {
		fn(uint32(i), &s.cards[i])
	}
}
