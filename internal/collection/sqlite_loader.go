package collection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	_ "modernc.org/sqlite"
)

// ErrCollectionNotFound is returned when the collection file does not exist.
var ErrCollectionNotFound = errors.New("collection not found")

// deckSeparator is the separator modern collections store in decks.name.
const deckSeparator = "\x1f"

// SQLiteSource loads a snapshot from a collection database file.
type SQLiteSource struct {
	Path string
}

// Load implements Source.
func (s SQLiteSource) Load(ctx context.Context) (*Snapshot, error) {
	return LoadSQLite(ctx, s.Path)
}

// LoadSQLite reads cards, notes, review log and deck names from a collection
// database and returns the snapshot built from them.
func LoadSQLite(ctx context.Context, dbPath string) (*Snapshot, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, dbPath)
		}
		return nil, fmt.Errorf("stat %s: %w", dbPath, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	if _, err := db.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, fmt.Errorf("set query_only: %w", err)
	}

	decks, err := loadDeckNames(ctx, db)
	if err != nil {
		return nil, err
	}
	cards, err := loadCards(ctx, db, decks)
	if err != nil {
		return nil, err
	}
	notes, err := loadNotes(ctx, db)
	if err != nil {
		return nil, err
	}
	reviews, err := loadReviews(ctx, db)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(cards, notes, reviews), nil
}

func loadCards(ctx context.Context, db *sql.DB, decks map[int64]string) ([]Card, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, nid, did, queue, due, ivl, factor, reps, lapses, left
		FROM cards`)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	var cards []Card
	for rows.Next() {
		var (
			c                                  Card
			did, queue, ivl, factor, reps, lap int64
			left                               int64
		)
		if err := rows.Scan(&c.ID, &c.NoteID, &did, &queue, &c.Due, &ivl, &factor, &reps, &lap, &left); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		c.Deck = decks[did]
		c.Queue = Queue(queue)
		c.Interval = int(ivl)
		c.Ease = int(factor)
		c.Reps = int(reps)
		c.Lapses = int(lap)
		c.Left = int(left)
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

func loadNotes(ctx context.Context, db *sql.DB) ([]Note, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, tags FROM notes")
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	var notes []Note
	for rows.Next() {
		var (
			id   int64
			tags sql.NullString
		)
		if err := rows.Scan(&id, &tags); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, Note{ID: id, Tags: strings.Fields(tags.String)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func loadReviews(ctx context.Context, db *sql.DB) ([]ReviewLogEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, cid, ease, ivl, lastIvl, factor, time, type
		FROM revlog`)
	if err != nil {
		return nil, fmt.Errorf("query revlog: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	var reviews []ReviewLogEntry
	for rows.Next() {
		var (
			r                                 ReviewLogEntry
			ease, ivl, lastIvl, factor, rtype int64
		)
		if err := rows.Scan(&r.ID, &r.CardID, &ease, &ivl, &lastIvl, &factor, &r.ElapsedMs, &rtype); err != nil {
			return nil, fmt.Errorf("scan revlog: %w", err)
		}
		r.Outcome = Outcome(ease)
		r.Interval = int(ivl)
		r.LastInterval = int(lastIvl)
		r.Ease = int(factor)
		r.Type = int(rtype)
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revlog: %w", err)
	}
	return reviews, nil
}

// loadDeckNames reads the decks table of modern collections and falls back to the
// JSON blob in col.decks used by older schema versions.
func loadDeckNames(ctx context.Context, db *sql.DB) (map[int64]string, error) {
	names, err := loadDeckTable(ctx, db)
	if err == nil {
		return names, nil
	}
	var raw sql.NullString
	if qerr := db.QueryRowContext(ctx, "SELECT decks FROM col LIMIT 1").Scan(&raw); qerr != nil {
		if errors.Is(qerr, sql.ErrNoRows) {
			return map[int64]string{}, nil
		}
		return nil, fmt.Errorf("read deck names: %w (legacy: %v)", err, qerr)
	}
	return parseLegacyDecks(raw.String)
}

func loadDeckTable(ctx context.Context, db *sql.DB) (map[int64]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, name FROM decks")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	names := make(map[int64]string)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		names[id] = strings.ReplaceAll(name, deckSeparator, "::")
	}
	return names, rows.Err()
}

var allDecks = jp.MustParseString("$.*")

// parseLegacyDecks extracts {id: name} from a JSON object keyed by deck id.
func parseLegacyDecks(raw string) (map[int64]string, error) {
	names := make(map[int64]string)
	if strings.TrimSpace(raw) == "" {
		return names, nil
	}
	data, err := oj.ParseString(raw)
	if err != nil {
		return nil, fmt.Errorf("parse col.decks json: %w", err)
	}
	for _, v := range allDecks.Get(data) {
		deck, ok := v.(map[string]any)
		if !ok {
			continue
		}
		name, _ := deck["name"].(string)
		switch id := deck["id"].(type) {
		case int64:
			names[id] = name
		case float64:
			names[int64(id)] = name
		}
	}
	return names, nil
}
