package rollup

import "github.com/agentic-research/tagtree/internal/hierarchy"

// Stats summarizes an index and its forest.
type Stats struct {
	UniqueCards      int `json:"total_unique_cards"`
	Tags             int `json:"total_tags"`
	HierarchicalTags int `json:"hierarchical_tags"`
	MaxDepth         int `json:"max_depth"`
}

// Summarize computes Stats. MaxDepth is the largest delimiter count of any tag
// carrying cards directly.
func Summarize(idx *Index, forest *hierarchy.Forest) Stats {
	s := Stats{
		UniqueCards:      idx.UniqueCards(),
		Tags:             idx.Len(),
		HierarchicalTags: len(forest.Parents()),
	}
	for _, t := range idx.Tags() {
		if d := hierarchy.Depth(t); d > s.MaxDepth {
			s.MaxDepth = d
		}
	}
	return s
}
