package collection

// Minimal Anki-compatible subset of the collection schema. Only the columns
// the recalc pipeline reads or writes are listed; applying this to an
// existing collection is a no-op.
const schema = `
CREATE TABLE IF NOT EXISTS notetypes (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

-- notes.flds holds all field values joined by the 0x1f unit separator,
-- notes.tags is a space-delimited list padded with a leading and trailing
-- space so a single tag can be matched with LIKE '% tag %'.
CREATE TABLE IF NOT EXISTS notes (
    id INTEGER PRIMARY KEY,
    mid INTEGER NOT NULL,
    flds TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '',

    FOREIGN KEY(mid) REFERENCES notetypes(id)
);

-- cards.type: 0 = new, 1 = learning, 2 = review.
-- cards.queue = -1 marks a suspended card.
-- cards.due orders the new queue; the scheduler treats equal values as
-- interchangeable, which is why recalc reassigns them uniquely.
CREATE TABLE IF NOT EXISTS cards (
    id INTEGER PRIMARY KEY,
    nid INTEGER NOT NULL,
    type INTEGER NOT NULL DEFAULT 0,
    queue INTEGER NOT NULL DEFAULT 0,
    due INTEGER NOT NULL DEFAULT 0,
    ivl INTEGER NOT NULL DEFAULT 0,

    FOREIGN KEY(nid) REFERENCES notes(id)
);
`
