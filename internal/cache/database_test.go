package cache

import (
	"path/filepath"
	"testing"

	"morphcalc/internal/collection"
	"morphcalc/internal/morph"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Reset(); err != nil {
		t.Fatalf("Failed to reset cache: %v", err)
	}
	return db
}

func mk(norm, inflected string) morph.Morpheme {
	return morph.Morpheme{Norm: norm, Base: norm, Inflected: inflected}
}

func TestUpsertMorphsKeepsMaxInterval(t *testing.T) {
	db := openTestDB(t)

	records := []MorphRecord{
		{Morph: mk("cat", "cats"), Interval: 5},
		{Morph: mk("cat", "cats"), Interval: 30},
		{Morph: mk("cat", "cats"), Interval: 10},
		{Morph: mk("cat", "cat"), Interval: 0},
	}
	if err := db.UpsertMorphs(records); err != nil {
		t.Fatalf("UpsertMorphs failed: %v", err)
	}

	intervals, err := db.MorphIntervals()
	if err != nil {
		t.Fatalf("MorphIntervals failed: %v", err)
	}
	if len(intervals) != 2 {
		t.Fatalf("Expected 2 distinct morphs, got %d", len(intervals))
	}
	if got := intervals[morph.Key{Norm: "cat", Inflected: "cats"}]; got != 30 {
		t.Errorf("Expected interval to be the maximum 30, got %d", got)
	}
	if got := intervals[morph.Key{Norm: "cat", Inflected: "cat"}]; got != 0 {
		t.Errorf("Expected interval 0, got %d", got)
	}
}

func TestInsertCardMorphsCollapsesDuplicates(t *testing.T) {
	db := openTestDB(t)

	k := morph.Key{Norm: "cat", Inflected: "cat"}
	records := []CardMorphRecord{
		{CardID: 1, Morph: k},
		{CardID: 1, Morph: k},
		{CardID: 2, Morph: k},
	}
	if err := db.InsertCardMorphs(records); err != nil {
		t.Fatalf("InsertCardMorphs failed: %v", err)
	}

	cardMorphs, err := db.CardMorphs()
	if err != nil {
		t.Fatalf("CardMorphs failed: %v", err)
	}
	if len(cardMorphs[1]) != 1 {
		t.Errorf("Expected duplicate association to collapse, got %v", cardMorphs[1])
	}
	if len(cardMorphs[2]) != 1 {
		t.Errorf("Expected one association for card 2, got %v", cardMorphs[2])
	}
}

func TestCollectionPriority(t *testing.T) {
	db := openTestDB(t)

	frequent := morph.Key{Norm: "the", Inflected: "the"}
	middle := morph.Key{Norm: "cat", Inflected: "cat"}
	rare := morph.Key{Norm: "zebra", Inflected: "zebra"}

	var records []CardMorphRecord
	for i := int64(1); i <= 3; i++ {
		records = append(records, CardMorphRecord{CardID: i, Morph: frequent})
	}
	for i := int64(1); i <= 2; i++ {
		records = append(records, CardMorphRecord{CardID: i, Morph: middle})
	}
	records = append(records, CardMorphRecord{CardID: 1, Morph: rare})

	if err := db.InsertCardMorphs(records); err != nil {
		t.Fatalf("InsertCardMorphs failed: %v", err)
	}

	priority, err := db.CollectionPriority()
	if err != nil {
		t.Fatalf("CollectionPriority failed: %v", err)
	}
	if priority[frequent] != 0 {
		t.Errorf("Expected the most frequent morph at rank 0, got %d", priority[frequent])
	}
	if priority[middle] != 1 {
		t.Errorf("Expected rank 1, got %d", priority[middle])
	}
	if priority[rare] != 2 {
		t.Errorf("Expected rank 2, got %d", priority[rare])
	}
}

func TestCardsByNoteType(t *testing.T) {
	db := openTestDB(t)

	records := []CardRecord{
		{CardID: 1, NoteID: 10, NoteTypeID: 7, Type: collection.CardTypeNew, Fields: []string{"a", "b"}, Tags: []string{"x"}},
		{CardID: 2, NoteID: 11, NoteTypeID: 8, Type: collection.CardTypeReview, Fields: []string{"c"}, Tags: nil},
	}
	if err := db.InsertCards(records); err != nil {
		t.Fatalf("InsertCards failed: %v", err)
	}

	got, err := db.CardsByNoteType(7)
	if err != nil {
		t.Fatalf("CardsByNoteType failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 card, got %d", len(got))
	}
	if got[0].CardID != 1 || got[0].Fields[1] != "b" || got[0].Tags[0] != "x" {
		t.Errorf("Unexpected card record: %+v", got[0])
	}
}

func TestResetDropsData(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpsertMorphs([]MorphRecord{{Morph: mk("cat", "cat"), Interval: 5}}); err != nil {
		t.Fatalf("UpsertMorphs failed: %v", err)
	}
	if err := db.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	intervals, err := db.MorphIntervals()
	if err != nil {
		t.Fatalf("MorphIntervals failed: %v", err)
	}
	if len(intervals) != 0 {
		t.Errorf("Expected an empty cache after reset, got %v", intervals)
	}
}

func TestKnownCounts(t *testing.T) {
	db := openTestDB(t)

	records := []MorphRecord{
		{Morph: mk("walk", "walk"), Interval: 30},
		{Morph: mk("walk", "walked"), Interval: 25},
		{Morph: mk("cat", "cat"), Interval: 5},
	}
	if err := db.UpsertMorphs(records); err != nil {
		t.Fatalf("UpsertMorphs failed: %v", err)
	}

	lemmas, inflections, err := db.KnownCounts(21)
	if err != nil {
		t.Fatalf("KnownCounts failed: %v", err)
	}
	if lemmas != 1 {
		t.Errorf("Expected 1 known lemma, got %d", lemmas)
	}
	if inflections != 2 {
		t.Errorf("Expected 2 known inflections, got %d", inflections)
	}
}

func TestDumpMorphs(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpsertMorphs([]MorphRecord{
		{Morph: mk("cat", "cat"), Interval: 5},
		{Morph: mk("the", "the"), Interval: 30},
	}); err != nil {
		t.Fatalf("UpsertMorphs failed: %v", err)
	}
	if err := db.InsertCardMorphs([]CardMorphRecord{
		{CardID: 1, Morph: morph.Key{Norm: "the", Inflected: "the"}},
		{CardID: 2, Morph: morph.Key{Norm: "the", Inflected: "the"}},
		{CardID: 1, Morph: morph.Key{Norm: "cat", Inflected: "cat"}},
	}); err != nil {
		t.Fatalf("InsertCardMorphs failed: %v", err)
	}

	dump, err := db.DumpMorphs()
	if err != nil {
		t.Fatalf("DumpMorphs failed: %v", err)
	}
	if len(dump) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(dump))
	}
	if dump[0].Morph.Norm != "the" || dump[0].Frequency != 2 {
		t.Errorf("Expected the most frequent morph first, got %+v", dump[0])
	}
	if dump[1].Morph.Norm != "cat" || dump[1].Interval != 5 {
		t.Errorf("Unexpected second row: %+v", dump[1])
	}
}
