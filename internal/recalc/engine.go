package recalc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"morphcalc/internal/cache"
	"morphcalc/internal/collection"
	"morphcalc/internal/config"
	"morphcalc/internal/highlight"
	"morphcalc/internal/morph"
	"morphcalc/internal/morphemizer"
)

// ErrNeedsConfiguration aborts a recalc before any write when a filter
// references no usable note type. The user has to fix their settings.
var ErrNeedsConfiguration = errors.New("recalc needs configuration: filter has no valid note type")

// checkpointInterval bounds how often progress and cancellation are checked.
// Checking every card would dominate runtime on large collections.
const checkpointInterval = 1000

// Progress receives coarse progress updates from a running recalc.
type Progress func(label string, value, max int)

// Summary reports what a recalc touched.
type Summary struct {
	CardsCached    int
	CardsUpdated   int
	DistinctMorphs int
}

// Engine runs the recalc pipeline: rebuild the morpheme cache from the host
// collection, rank morphemes by corpus frequency, score and reorder the new
// queue, and write everything back in one batch.
type Engine struct {
	col      *collection.DB
	cache    *cache.DB
	cfg      *config.Config
	log      *slog.Logger
	progress Progress
	session  *Session
}

// New creates an engine. logger and progress may be nil.
func New(col *collection.DB, cacheDB *cache.DB, cfg *config.Config, logger *slog.Logger, progress Progress) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if progress == nil {
		progress = func(string, int, int) {}
	}
	return &Engine{
		col:      col,
		cache:    cacheDB,
		cfg:      cfg,
		log:      logger,
		progress: progress,
		session:  NewSession(),
	}
}

// Session exposes the engine's session-scoped seen-morpheme store.
func (e *Engine) Session() *Session {
	return e.session
}

// Recalculate runs the whole pipeline. It is meant to be invoked off the
// interactive thread; cancel ctx to abort. On cancellation the returned error
// wraps context.Canceled, no collection write has happened, and the cache may
// be left half-built, which is harmless since the next run rebuilds it.
func (e *Engine) Recalculate(ctx context.Context) (*Summary, error) {
	e.log.Info("starting recalc")

	cached, err := e.buildCache(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := e.updateCards(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		CardsCached:    cached,
		CardsUpdated:   updated,
		DistinctMorphs: e.session.Len(),
	}
	e.log.Info("recalc finished",
		"cards_cached", summary.CardsCached,
		"cards_updated", summary.CardsUpdated,
		"distinct_morphs", summary.DistinctMorphs,
	)
	return summary, nil
}

// buildCache drops and rebuilds the three cache tables from the read-enabled
// filters. Extracting morphemes is the expensive part of recalc, and a full
// rebuild with bulk inserts beats incremental patching at this data volume.
func (e *Engine) buildCache(ctx context.Context) (int, error) {
	if err := e.cache.Reset(); err != nil {
		return 0, err
	}

	opts := e.cfg.Options
	var (
		cardRecs  []cache.CardRecord
		morphRecs []cache.MorphRecord
		assocRecs []cache.CardMorphRecord
	)

	for _, f := range e.cfg.ReadFilters() {
		if f.NoteType == "" {
			return 0, ErrNeedsConfiguration
		}
		noteTypeID, err := e.col.NoteTypeID(f.NoteType)
		if err != nil {
			if errors.Is(err, collection.ErrNoteTypeNotFound) {
				return 0, fmt.Errorf("%w: %v", ErrNeedsConfiguration, err)
			}
			return 0, err
		}
		mizer, err := morphemizer.ByName(f.Morphemizer)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrNeedsConfiguration, err)
		}

		rows, err := e.col.FetchCards(noteTypeID, f.Tags, opts.IgnoreSuspended)
		if err != nil {
			return 0, err
		}

		for i, row := range rows {
			if i%checkpointInterval == 0 {
				if err := ctx.Err(); err != nil {
					return 0, fmt.Errorf("recalc cancelled while caching: %w", err)
				}
				e.progress(fmt.Sprintf("Caching %s cards", f.NoteType), i, len(rows))
			}

			// A note the user tagged as known counts as mastered regardless
			// of the card's actual interval.
			interval := row.Interval
			if hasTag(row.Tags, opts.TagKnown) {
				interval = opts.KnownIntervalFloor
			}

			cardRecs = append(cardRecs, cache.CardRecord{
				CardID:     row.CardID,
				NoteID:     row.NoteID,
				NoteTypeID: noteTypeID,
				Type:       row.Type,
				Fields:     row.Fields,
				Tags:       row.Tags,
			})

			if f.SourceField >= len(row.Fields) {
				continue
			}
			for _, m := range dedupeMorphs(mizer.Extract(row.Fields[f.SourceField])) {
				e.session.Record(m.Key())
				morphRecs = append(morphRecs, cache.MorphRecord{Morph: m, Interval: interval})
				assocRecs = append(assocRecs, cache.CardMorphRecord{CardID: row.CardID, Morph: m.Key()})
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("recalc cancelled before cache commit: %w", err)
	}
	e.progress("Saving morpheme cache", 0, 0)

	if err := e.cache.UpsertMorphs(morphRecs); err != nil {
		return 0, err
	}
	if err := e.cache.InsertCards(cardRecs); err != nil {
		return 0, err
	}
	if err := e.cache.InsertCardMorphs(assocRecs); err != nil {
		return 0, err
	}
	return len(cardRecs), nil
}

// pendingCard carries a card through the update pass until the unique-due
// reassignment fixes its final ordering key.
type pendingCard struct {
	cardID int64
	typ    collection.CardType
	due    int
}

// updateCards scores every cached card of the modify-enabled filters, rewrites
// note fields and tags, then resolves ordering collisions: the host scheduler
// treats equal due values as interchangeable, so modified new cards are
// re-keyed with strictly increasing values appended after the untouched queue.
// The reassignment keeps only the relative order of the computed difficulties.
func (e *Engine) updateCards(ctx context.Context) (int, error) {
	opts := e.cfg.Options

	intervals, err := e.cache.MorphIntervals()
	if err != nil {
		return 0, err
	}
	cardMorphs, err := e.cache.CardMorphs()
	if err != nil {
		return 0, err
	}
	priority, err := e.morphPriority()
	if err != nil {
		return 0, err
	}
	endOfQueue, err := e.col.CountNewCards()
	if err != nil {
		return 0, err
	}

	var (
		modified []pendingCard
		notes    []collection.NoteUpdate
	)

	for _, f := range e.cfg.ModifyFilters() {
		if f.NoteType == "" {
			return 0, ErrNeedsConfiguration
		}
		noteTypeID, err := e.col.NoteTypeID(f.NoteType)
		if err != nil {
			if errors.Is(err, collection.ErrNoteTypeNotFound) {
				return 0, fmt.Errorf("%w: %v", ErrNeedsConfiguration, err)
			}
			return 0, err
		}

		records, err := e.cache.CardsByNoteType(noteTypeID)
		if err != nil {
			return 0, err
		}

		for i, rec := range records {
			if i%checkpointInterval == 0 {
				if err := ctx.Err(); err != nil {
					return 0, fmt.Errorf("recalc cancelled while updating: %w", err)
				}
				e.progress(fmt.Sprintf("Updating %s cards", f.NoteType), i, len(records))
			}

			fields := append([]string(nil), rec.Fields...)
			tags := append([]string(nil), rec.Tags...)
			pending := pendingCard{cardID: rec.CardID, typ: rec.Type}

			if rec.Type == collection.CardTypeNew {
				difficulty, unknowns := Score(cardMorphs[rec.CardID], intervals, priority, opts.SkipStaleCards)
				pending.due = difficulty
				setField(fields, f.FocusField, strings.Join(unknowns, ", "))
				setField(fields, f.DifficultyField, strconv.Itoa(difficulty))
				tags = updateTags(tags, len(unknowns), opts)
			}

			// A card with no cached morphemes keeps whatever the
			// highlighted field already holds.
			if morphs := cardMorphs[rec.CardID]; len(morphs) > 0 && f.HighlightedField > 0 && f.SourceField < len(fields) {
				annotated := annotateMorphs(morphs, intervals)
				highlighted := highlight.Text(fields[f.SourceField], annotated, opts.KnownIntervalFloor)
				setField(fields, f.HighlightedField, highlighted)
			}

			modified = append(modified, pending)
			notes = append(notes, collection.NoteUpdate{NoteID: rec.NoteID, Fields: fields, Tags: tags})
		}
	}

	sort.SliceStable(modified, func(i, j int) bool {
		return modified[i].due < modified[j].due
	})

	cardUpdates := make([]collection.CardUpdate, 0, len(modified))
	for i, pc := range modified {
		if pc.typ == collection.CardTypeNew {
			cardUpdates = append(cardUpdates, collection.CardUpdate{
				CardID: pc.cardID,
				Due:    endOfQueue + i,
			})
		}
	}

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("recalc cancelled before collection commit: %w", err)
	}
	e.progress("Writing back to collection", 0, 0)

	if err := e.col.ApplyUpdates(cardUpdates, notes); err != nil {
		return 0, err
	}
	return len(modified), nil
}

// morphPriority builds the priority map for scoring. With corpus
// prioritization off every morpheme keeps priority 0 and difficulty
// degenerates to unknown counting.
func (e *Engine) morphPriority() (map[morph.Key]int, error) {
	if !e.cfg.Options.PrioritizeCorpus {
		return map[morph.Key]int{}, nil
	}
	return e.cache.CollectionPriority()
}

// setField writes value into the 1-based optional field index; 0 disables
// the write, as does an index beyond the note's field count.
func setField(fields []string, index int, value string) {
	if index <= 0 || index > len(fields) {
		return
	}
	fields[index-1] = value
}

// dedupeMorphs collapses repeat occurrences of a morpheme within one card,
// keeping first-appearance order.
func dedupeMorphs(morphs []morph.Morpheme) []morph.Morpheme {
	seen := make(map[morph.Key]struct{}, len(morphs))
	out := morphs[:0]
	for _, m := range morphs {
		if _, ok := seen[m.Key()]; ok {
			continue
		}
		seen[m.Key()] = struct{}{}
		out = append(out, m)
	}
	return out
}

// annotateMorphs pairs each of a card's morpheme surfaces with its interval
// for highlighting.
func annotateMorphs(morphs []morph.Key, intervals map[morph.Key]int) []highlight.Annotated {
	annotated := make([]highlight.Annotated, 0, len(morphs))
	for _, k := range morphs {
		annotated = append(annotated, highlight.Annotated{
			Surface:  k.Inflected,
			Interval: intervals[k],
		})
	}
	return annotated
}
