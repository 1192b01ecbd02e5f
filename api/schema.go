package api

// ExportType is the fixed export-type tag carried by every record.
const ExportType = "hierarchical_microservice"

// ExportRecord is one line of the export stream: the statistics of a single tag path.
// The JSON field set is a compatibility contract with the downstream consumer.
type ExportRecord struct {
	// TagName is the full tag path, e.g. "Subject::Topic::1-HighYield".
	TagName string `json:"tag_name"`
	// ServiceName is the display name of the export service that produced the record.
	ServiceName string `json:"service_name"`

	TotalCards     int `json:"total_cards"`
	UniqueNotes    int `json:"unique_notes"`
	DueCards       int `json:"due_cards"`
	NewCards       int `json:"new_cards"`
	LearningCards  int `json:"learning_cards"`
	ReviewCards    int `json:"review_cards"`
	MatureCards    int `json:"mature_cards"`
	SuspendedCards int `json:"suspended_cards"`
	UnstudiedCards int `json:"unstudied_cards"`

	// Legacy yield totals: the sum of the five per-level buckets.
	HighYieldTotalCards  int `json:"high_yield_total_cards"`
	HighYieldNewCards    int `json:"high_yield_new_cards"`
	HighYieldReviewCards int `json:"high_yield_review_cards"`

	Yield1TotalCards  int `json:"yield_1_total_cards"`
	Yield1NewCards    int `json:"yield_1_new_cards"`
	Yield1ReviewCards int `json:"yield_1_review_cards"`
	Yield2TotalCards  int `json:"yield_2_total_cards"`
	Yield2NewCards    int `json:"yield_2_new_cards"`
	Yield2ReviewCards int `json:"yield_2_review_cards"`
	Yield3TotalCards  int `json:"yield_3_total_cards"`
	Yield3NewCards    int `json:"yield_3_new_cards"`
	Yield3ReviewCards int `json:"yield_3_review_cards"`
	Yield4TotalCards  int `json:"yield_4_total_cards"`
	Yield4NewCards    int `json:"yield_4_new_cards"`
	Yield4ReviewCards int `json:"yield_4_review_cards"`
	Yield5TotalCards  int `json:"yield_5_total_cards"`
	Yield5NewCards    int `json:"yield_5_new_cards"`
	Yield5ReviewCards int `json:"yield_5_review_cards"`

	// HierarchicalTotalCards counts the distinct cards of the tag and all its descendants.
	HierarchicalTotalCards int `json:"hierarchical_total_cards"`
	// ChildrenCards is HierarchicalTotalCards minus TotalCards.
	ChildrenCards int      `json:"children_cards"`
	ChildrenTags  []string `json:"children_tags"`
	// ParentTags lists the proper ancestors, shortest first.
	ParentTags []string `json:"parent_tags"`

	AvgEase     float64 `json:"avg_ease"`
	AvgInterval float64 `json:"avg_interval"`
	TotalLapses int     `json:"total_lapses"`

	ReviewData ReviewData `json:"review_data"`

	UnstudiedCardDetails []UnstudiedCard `json:"unstudied_card_details"`

	// Timestamp is UTC ISO-8601 with microseconds and no zone suffix.
	Timestamp  string `json:"timestamp"`
	ExportType string `json:"export_type"`

	// Set only by the unified export.
	SourceStep    string `json:"source_step,omitempty"`
	UnifiedExport bool   `json:"unified_export,omitempty"`
}

// ReviewData aggregates the review-log entries of the cards behind a record.
type ReviewData struct {
	TotalReviews int     `json:"total_reviews"`
	TotalTimeMs  int64   `json:"total_time_ms"`
	AvgTimeMs    float64 `json:"avg_time_ms"`
	AgainCount   int     `json:"again_count"`
	HardCount    int     `json:"hard_count"`
	GoodCount    int     `json:"good_count"`
	EasyCount    int     `json:"easy_count"`
}

// UnstudiedCard is the per-card detail tuple listed for leaf tags.
type UnstudiedCard struct {
	CardID    int64  `json:"card_id"`
	NoteID    int64  `json:"note_id"`
	Deck      string `json:"deck"`
	Queue     int    `json:"queue"`
	Due       int64  `json:"due"`
	Suspended bool   `json:"suspended"`
}

// SetYield stores the counts of one yield level (1-5). Other levels are ignored.
func (r *ExportRecord) SetYield(level, total, newCards, review int) {
	switch level {
	case 1:
		r.Yield1TotalCards, r.Yield1NewCards, r.Yield1ReviewCards = total, newCards, review
	case 2:
		r.Yield2TotalCards, r.Yield2NewCards, r.Yield2ReviewCards = total, newCards, review
	case 3:
		r.Yield3TotalCards, r.Yield3NewCards, r.Yield3ReviewCards = total, newCards, review
	case 4:
		r.Yield4TotalCards, r.Yield4NewCards, r.Yield4ReviewCards = total, newCards, review
	case 5:
		r.Yield5TotalCards, r.Yield5NewCards, r.Yield5ReviewCards = total, newCards, review
	}
}
