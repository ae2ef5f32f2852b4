package cache

// The cache is a derived view of the host collection and is dropped and
// recreated on every recalc, so there is no migration story.
const schema = `
CREATE TABLE cards (
    card_id INTEGER PRIMARY KEY,
    note_id INTEGER NOT NULL,
    note_type_id INTEGER NOT NULL,
    card_type INTEGER NOT NULL,
    fields TEXT NOT NULL,
    tags TEXT NOT NULL
);

-- One row per distinct (norm, inflected) pair. highest_learning_interval is
-- the maximum interval observed on any card containing the morpheme; it only
-- ever grows within a rebuild.
CREATE TABLE morphs (
    norm TEXT NOT NULL,
    inflected TEXT NOT NULL,
    base TEXT NOT NULL,
    is_base INTEGER NOT NULL,
    highest_learning_interval INTEGER NOT NULL,

    PRIMARY KEY (norm, inflected)
);

-- Many-to-many card/morpheme edges, one row per distinct morpheme per card.
CREATE TABLE card_morph_map (
    card_id INTEGER NOT NULL,
    morph_norm TEXT NOT NULL,
    morph_inflected TEXT NOT NULL,

    PRIMARY KEY (card_id, morph_norm, morph_inflected)
);
`

const dropTables = `
DROP TABLE IF EXISTS cards;
DROP TABLE IF EXISTS morphs;
DROP TABLE IF EXISTS card_morph_map;
`
