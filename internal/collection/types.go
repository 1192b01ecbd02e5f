// Package collection holds the read-only record snapshot of one export run:
// cards, notes and review-log entries keyed by integer identifiers.
package collection

// Queue is a card's scheduling queue as stored in the collection.
type Queue int

const (
	QueueSchedBuried Queue = -3
	QueueUserBuried  Queue = -2
	QueueSuspended   Queue = -1
	QueueNew         Queue = 0
	QueueLearning    Queue = 1
	QueueReview      Queue = 2
	QueueDayLearning Queue = 3
	QueuePreview     Queue = 4
)

func (q Queue) String() string {
	switch q {
	case QueueNew:
		return "new"
	case QueueLearning:
		return "learning"
	case QueueReview:
		return "review"
	case QueueSuspended:
		return "suspended"
	default:
		return "other"
	}
}

// Outcome is the answer button recorded by a review-log entry.
type Outcome int

const (
	OutcomeNone  Outcome = 0 // manual rescheduling entries
	OutcomeAgain Outcome = 1
	OutcomeHard  Outcome = 2
	OutcomeGood  Outcome = 3
	OutcomeEasy  Outcome = 4
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAgain:
		return "again"
	case OutcomeHard:
		return "hard"
	case OutcomeGood:
		return "good"
	case OutcomeEasy:
		return "easy"
	default:
		return "none"
	}
}

// MatureInterval is the interval (days) above which a card counts as mature.
const MatureInterval = 21

// Card is a single study card. Tags are reached through the owning note.
type Card struct {
	ID       int64
	NoteID   int64
	Deck     string
	Queue    Queue
	Due      int64
	Interval int // days
	Ease     int // factor in permille, 2500 = 250%
	Reps     int
	Lapses   int
	Left     int

	// LastReviewDate is derived from the newest review-log entry (YYYY-MM-DD, UTC).
	// Empty when the card was never reviewed.
	LastReviewDate string
}

// Suspended reports whether the card sits in the suspended queue.
func (c *Card) Suspended() bool { return c.Queue == QueueSuspended }

// Unstudied reports whether the card has never been answered.
func (c *Card) Unstudied() bool { return c.Reps == 0 }

// Mature reports whether the card's interval exceeds MatureInterval.
func (c *Card) Mature() bool { return c.Interval > MatureInterval }

// Note owns cards and carries the tag labels applied to all of them.
type Note struct {
	ID   int64
	Tags []string
}

// ReviewLogEntry is one answered review. ID doubles as a millisecond timestamp.
type ReviewLogEntry struct {
	ID           int64
	CardID       int64
	Outcome      Outcome
	ElapsedMs    int64
	Interval     int
	LastInterval int
	Ease         int
	Type         int
}
