package export

import (
	"time"

	"github.com/agentic-research/tagtree/api"
	"github.com/agentic-research/tagtree/internal/metrics"
	"github.com/agentic-research/tagtree/internal/rollup"
)

// TimestampLayout is UTC ISO-8601 with microseconds and no zone suffix.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Meta carries the per-run fields stamped on every record.
type Meta struct {
	ServiceName   string
	Timestamp     time.Time
	SourceStep    string
	UnifiedExport bool
}

// Assemble merges every node of res with its metrics bundle into one record
// per tag path, in tag order.
func Assemble(res *rollup.Result, comp *metrics.Computer, meta Meta) []api.ExportRecord {
	ts := meta.Timestamp.UTC().Format(TimestampLayout)
	out := make([]api.ExportRecord, 0, res.Len())
	res.Each(func(n *rollup.Node) {
		rec := newRecord(n, comp.Compute(n))
		rec.ServiceName = meta.ServiceName
		rec.Timestamp = ts
		rec.ExportType = api.ExportType
		rec.SourceStep = meta.SourceStep
		rec.UnifiedExport = meta.UnifiedExport
		out = append(out, rec)
	})
	return out
}

func newRecord(n *rollup.Node, b metrics.Bundle) api.ExportRecord {
	rec := api.ExportRecord{
		TagName:        n.Tag,
		TotalCards:     b.DirectCards,
		UniqueNotes:    b.UniqueNotes,
		DueCards:       b.Due,
		NewCards:       b.New,
		LearningCards:  b.Learning,
		ReviewCards:    b.Review,
		MatureCards:    b.Mature,
		SuspendedCards: b.Suspended,
		UnstudiedCards: b.Unstudied,

		HierarchicalTotalCards: n.HierarchicalCount(),
		ChildrenCards:          n.ChildrenCount(),
		ChildrenTags:           nonNil(n.Children),
		ParentTags:             nonNil(n.Ancestors),

		AvgEase:     b.AvgEase,
		AvgInterval: b.AvgInterval,
		TotalLapses: b.TotalLapses,

		ReviewData: api.ReviewData{
			TotalReviews: b.Reviews.TotalReviews,
			TotalTimeMs:  b.Reviews.TotalTimeMs,
			AvgTimeMs:    b.Reviews.AvgTimeMs,
			AgainCount:   b.Reviews.Again,
			HardCount:    b.Reviews.Hard,
			GoodCount:    b.Reviews.Good,
			EasyCount:    b.Reviews.Easy,
		},
		UnstudiedCardDetails: make([]api.UnstudiedCard, 0, len(b.UnstudiedDetails)),
	}

	hy := b.HighYield()
	rec.HighYieldTotalCards = hy.Total
	rec.HighYieldNewCards = hy.New
	rec.HighYieldReviewCards = hy.Review
	for l := 1; l <= metrics.MaxYieldLevel; l++ {
		y := b.Yield[l]
		rec.SetYield(l, y.Total, y.New, y.Review)
	}

	for _, d := range b.UnstudiedDetails {
		rec.UnstudiedCardDetails = append(rec.UnstudiedCardDetails, api.UnstudiedCard{
			CardID:    d.CardID,
			NoteID:    d.NoteID,
			Deck:      d.Deck,
			Queue:     int(d.Queue),
			Due:       d.Due,
			Suspended: d.Suspended,
		})
	}
	return rec
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
