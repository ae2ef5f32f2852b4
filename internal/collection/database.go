package collection

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// ErrNoteTypeNotFound is returned when a filter names a note type that does
// not exist in the collection.
var ErrNoteTypeNotFound = errors.New("note type not found")

// fieldSep separates field values inside notes.flds.
const fieldSep = "\x1f"

// CardType is the lifecycle state of a card.
type CardType int

const (
	CardTypeNew      CardType = 0
	CardTypeLearning CardType = 1
	CardTypeReview   CardType = 2
)

// suspendedQueue is the cards.queue value of a suspended card.
const suspendedQueue = -1

// DB represents a wrapper around the host collection database.
type DB struct {
	conn *sql.DB
}

// Open creates a new collection connection and ensures the schema subset
// exists (a no-op against a populated collection).
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to collection: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply collection schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the collection connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CardRow is one card joined with its note, as read from the collection.
type CardRow struct {
	CardID    int64
	NoteID    int64
	Interval  int
	Type      CardType
	Suspended bool
	Fields    []string
	Tags      []string
}

// NoteTypeID resolves a note type name to its id. Returns
// ErrNoteTypeNotFound when no such note type exists.
func (db *DB) NoteTypeID(name string) (int64, error) {
	var id int64
	row := db.conn.QueryRow(`SELECT id FROM notetypes WHERE name = ?`, name)
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %q", ErrNoteTypeNotFound, name)
		}
		return 0, fmt.Errorf("failed to resolve note type %q: %w", name, err)
	}
	return id, nil
}

// FetchCards returns every card of the given note type whose note carries all
// of the given tags. Tag matching is a conjunction; an empty tag list matches
// every note of the type. Suspended cards are excluded when ignoreSuspended
// is set.
func (db *DB) FetchCards(noteTypeID int64, tags []string, ignoreSuspended bool) ([]CardRow, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT cards.id, cards.ivl, cards.type, cards.queue, notes.id, notes.flds, notes.tags
		FROM cards
		INNER JOIN notes ON cards.nid = notes.id
		WHERE notes.mid = ?`)
	args := []any{noteTypeID}

	if ignoreSuspended {
		sb.WriteString(` AND cards.queue != ?`)
		args = append(args, suspendedQueue)
	}
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		sb.WriteString(` AND notes.tags LIKE ?`)
		args = append(args, "% "+tag+" %")
	}

	sb.WriteString(` ORDER BY cards.id`)

	rows, err := db.conn.Query(sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cards for note type %d: %w", noteTypeID, err)
	}
	defer rows.Close()

	var cards []CardRow
	for rows.Next() {
		var (
			c           CardRow
			queue       int
			flds, ntags string
		)
		if err := rows.Scan(&c.CardID, &c.Interval, &c.Type, &queue, &c.NoteID, &flds, &ntags); err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		c.Suspended = queue == suspendedQueue
		c.Fields = SplitFields(flds)
		c.Tags = SplitTags(ntags)
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}
	return cards, nil
}

// CountNewCards returns the size of the current new queue.
func (db *DB) CountNewCards() (int, error) {
	var n int
	row := db.conn.QueryRow(`SELECT COUNT(*) FROM cards WHERE type = ?`, CardTypeNew)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count new cards: %w", err)
	}
	return n, nil
}

// CardUpdate sets a card's ordering key.
type CardUpdate struct {
	CardID int64
	Due    int
}

// NoteUpdate replaces a note's fields and tags.
type NoteUpdate struct {
	NoteID int64
	Fields []string
	Tags   []string
}

// ApplyUpdates writes all card and note mutations in a single transaction so
// the queue ordering is never observable half-updated.
func (db *DB) ApplyUpdates(cards []CardUpdate, notes []NoteUpdate) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin update transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range cards {
		if _, err := tx.Exec(`UPDATE cards SET due = ? WHERE id = ?`, c.Due, c.CardID); err != nil {
			return fmt.Errorf("failed to update card %d: %w", c.CardID, err)
		}
	}
	for _, n := range notes {
		if _, err := tx.Exec(
			`UPDATE notes SET flds = ?, tags = ? WHERE id = ?`,
			JoinFields(n.Fields), JoinTags(n.Tags), n.NoteID,
		); err != nil {
			return fmt.Errorf("failed to update note %d: %w", n.NoteID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit updates: %w", err)
	}
	return nil
}

// SplitFields splits a notes.flds value into its ordered field values.
func SplitFields(flds string) []string {
	return strings.Split(flds, fieldSep)
}

// JoinFields is the inverse of SplitFields.
func JoinFields(fields []string) string {
	return strings.Join(fields, fieldSep)
}

// SplitTags parses a notes.tags value into individual tags.
func SplitTags(tags string) []string {
	return strings.Fields(tags)
}

// JoinTags renders tags in the collection's padded space-delimited form.
func JoinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " " + strings.Join(tags, " ") + " "
}
