package cache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Registers the sqlite driver

	"morphcalc/internal/collection"
	"morphcalc/internal/morph"
)

// DB represents a wrapper around the morpheme cache database.
type DB struct {
	conn *sql.DB
}

// Open creates a new cache connection. The tables are not created until
// Reset is called; a recalc always starts from a clean slate.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to cache: %w", err)
	}
	return &DB{conn: db}, nil
}

// Close closes the cache connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Reset drops and recreates all cache tables.
func (db *DB) Reset() error {
	if _, err := db.conn.Exec(dropTables); err != nil {
		return fmt.Errorf("failed to drop cache tables: %w", err)
	}
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create cache tables: %w", err)
	}
	return nil
}

// CardRecord is one cached card row.
type CardRecord struct {
	CardID     int64
	NoteID     int64
	NoteTypeID int64
	Type       collection.CardType
	Fields     []string
	Tags       []string
}

// MorphRecord is one cached morpheme row.
type MorphRecord struct {
	Morph    morph.Morpheme
	Interval int
}

// CardMorphRecord is one card/morpheme association.
type CardMorphRecord struct {
	CardID int64
	Morph  morph.Key
}

// InsertCards bulk-inserts card rows in one transaction.
func (db *DB) InsertCards(records []CardRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin card insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO cards (card_id, note_id, note_type_id, card_type, fields, tags)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare card insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(
			r.CardID, r.NoteID, r.NoteTypeID, r.Type,
			collection.JoinFields(r.Fields), collection.JoinTags(r.Tags),
		)
		if err != nil {
			return fmt.Errorf("failed to insert card %d: %w", r.CardID, err)
		}
	}
	return tx.Commit()
}

// UpsertMorphs bulk-inserts morpheme rows, keeping the maximum learning
// interval for morphemes already present.
func (db *DB) UpsertMorphs(records []MorphRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin morph insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO morphs (norm, inflected, base, is_base, highest_learning_interval)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (norm, inflected) DO UPDATE SET
			highest_learning_interval = MAX(highest_learning_interval, excluded.highest_learning_interval)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare morph insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		m := r.Morph
		if _, err := stmt.Exec(m.Norm, m.Inflected, m.Base, m.IsBase(), r.Interval); err != nil {
			return fmt.Errorf("failed to insert morph %q/%q: %w", m.Norm, m.Inflected, err)
		}
	}
	return tx.Commit()
}

// InsertCardMorphs bulk-inserts card/morpheme associations. Duplicate
// associations collapse to one row.
func (db *DB) InsertCardMorphs(records []CardMorphRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin association insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO card_morph_map (card_id, morph_norm, morph_inflected)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare association insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.CardID, r.Morph.Norm, r.Morph.Inflected); err != nil {
			return fmt.Errorf("failed to insert association for card %d: %w", r.CardID, err)
		}
	}
	return tx.Commit()
}

// MorphIntervals returns the highest learning interval per morpheme.
func (db *DB) MorphIntervals() (map[morph.Key]int, error) {
	rows, err := db.conn.Query(`SELECT norm, inflected, highest_learning_interval FROM morphs`)
	if err != nil {
		return nil, fmt.Errorf("failed to read morph intervals: %w", err)
	}
	defer rows.Close()

	intervals := make(map[morph.Key]int)
	for rows.Next() {
		var k morph.Key
		var ivl int
		if err := rows.Scan(&k.Norm, &k.Inflected, &ivl); err != nil {
			return nil, fmt.Errorf("failed to scan morph interval: %w", err)
		}
		intervals[k] = ivl
	}
	return intervals, rows.Err()
}

// CardMorphs returns each card's associated morpheme keys.
func (db *DB) CardMorphs() (map[int64][]morph.Key, error) {
	rows, err := db.conn.Query(`SELECT card_id, morph_norm, morph_inflected FROM card_morph_map`)
	if err != nil {
		return nil, fmt.Errorf("failed to read associations: %w", err)
	}
	defer rows.Close()

	cardMorphs := make(map[int64][]morph.Key)
	for rows.Next() {
		var id int64
		var k morph.Key
		if err := rows.Scan(&id, &k.Norm, &k.Inflected); err != nil {
			return nil, fmt.Errorf("failed to scan association: %w", err)
		}
		cardMorphs[id] = append(cardMorphs[id], k)
	}
	return cardMorphs, rows.Err()
}

// CollectionPriority ranks morphemes by association count across the whole
// cache: the most frequent morpheme gets rank 0. Ties share the iteration
// order SQLite produces, which is stable within a run but otherwise
// unspecified.
func (db *DB) CollectionPriority() (map[morph.Key]int, error) {
	rows, err := db.conn.Query(`
		SELECT morph_norm, morph_inflected
		FROM card_morph_map
		GROUP BY morph_norm, morph_inflected
		ORDER BY COUNT(*) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to rank morphs: %w", err)
	}
	defer rows.Close()

	priority := make(map[morph.Key]int)
	rank := 0
	for rows.Next() {
		var k morph.Key
		if err := rows.Scan(&k.Norm, &k.Inflected); err != nil {
			return nil, fmt.Errorf("failed to scan morph rank: %w", err)
		}
		priority[k] = rank
		rank++
	}
	return priority, rows.Err()
}

// CardsByNoteType returns the cached cards of one note type.
func (db *DB) CardsByNoteType(noteTypeID int64) ([]CardRecord, error) {
	rows, err := db.conn.Query(`
		SELECT card_id, note_id, note_type_id, card_type, fields, tags
		FROM cards
		WHERE note_type_id = ?
		ORDER BY card_id
	`, noteTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cards for note type %d: %w", noteTypeID, err)
	}
	defer rows.Close()

	var records []CardRecord
	for rows.Next() {
		var r CardRecord
		var flds, tags string
		if err := rows.Scan(&r.CardID, &r.NoteID, &r.NoteTypeID, &r.Type, &flds, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan cached card: %w", err)
		}
		r.Fields = collection.SplitFields(flds)
		r.Tags = collection.SplitTags(tags)
		records = append(records, r)
	}
	return records, rows.Err()
}

// KnownCounts reports how many distinct lemmas and how many inflections have
// reached the given learning interval.
func (db *DB) KnownCounts(threshold int) (lemmas, inflections int, err error) {
	row := db.conn.QueryRow(`
		SELECT COUNT(DISTINCT norm), COUNT(*)
		FROM morphs
		WHERE highest_learning_interval >= ?
	`, threshold)
	if err := row.Scan(&lemmas, &inflections); err != nil {
		return 0, 0, fmt.Errorf("failed to count known morphs: %w", err)
	}
	return lemmas, inflections, nil
}

// MorphDump is one row of the dump listing.
type MorphDump struct {
	Morph     morph.Morpheme
	Interval  int
	Frequency int
}

// DumpMorphs lists every cached morpheme with its interval and association
// frequency, most frequent first.
func (db *DB) DumpMorphs() ([]MorphDump, error) {
	rows, err := db.conn.Query(`
		SELECT m.norm, m.base, m.inflected, m.highest_learning_interval,
		       (SELECT COUNT(*) FROM card_morph_map c
		        WHERE c.morph_norm = m.norm AND c.morph_inflected = m.inflected)
		FROM morphs m
		ORDER BY 5 DESC, m.norm, m.inflected
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to dump morphs: %w", err)
	}
	defer rows.Close()

	var dump []MorphDump
	for rows.Next() {
		var d MorphDump
		if err := rows.Scan(&d.Morph.Norm, &d.Morph.Base, &d.Morph.Inflected, &d.Interval, &d.Frequency); err != nil {
			return nil, fmt.Errorf("failed to scan morph dump row: %w", err)
		}
		dump = append(dump, d)
	}
	return dump, rows.Err()
}
