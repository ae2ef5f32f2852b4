package highlight

import (
	"strings"
	"testing"
)

func TestText(t *testing.T) {
	t.Run("wraps morphemes with their status", func(t *testing.T) {
		morphs := []Annotated{
			{Surface: "cat", Interval: 0},
			{Surface: "sits", Interval: 5},
			{Surface: "the", Interval: 30},
		}
		got := Text("the cat sits", morphs, 21)
		want := `<span morph-status="known">the</span> ` +
			`<span morph-status="unknown">cat</span> ` +
			`<span morph-status="learning">sits</span>`
		if got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	})

	t.Run("is case-insensitive and preserves original case", func(t *testing.T) {
		got := Text("The THE the", []Annotated{{Surface: "the", Interval: 30}}, 21)
		want := `<span morph-status="known">The</span> ` +
			`<span morph-status="known">THE</span> ` +
			`<span morph-status="known">the</span>`
		if got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		morphs := []Annotated{
			{Surface: "猫", Interval: 0},
			{Surface: "好き", Interval: 30},
		}
		once := Text("猫が好きです", morphs, 21)
		twice := Text(once, morphs, 21)
		if once != twice {
			t.Errorf("Expected highlighting to be idempotent, got %q then %q", once, twice)
		}
	})

	t.Run("longer morpheme is not clobbered by a contained shorter one", func(t *testing.T) {
		morphs := []Annotated{
			{Surface: "in", Interval: 30},
			{Surface: "inside", Interval: 0},
		}
		got := Text("inside", morphs, 21)
		want := `<span morph-status="unknown">inside</span>`
		if got != want {
			t.Errorf("Expected the longer morpheme to win, got %q", got)
		}
	})

	t.Run("existing spans are passed through unmodified", func(t *testing.T) {
		text := `before <span morph-status="known">the</span> after the end`
		got := Text(text, []Annotated{{Surface: "the", Interval: 0}}, 21)
		if !strings.Contains(got, `<span morph-status="known">the</span>`) {
			t.Errorf("Expected the existing span to survive, got %q", got)
		}
		if strings.Count(got, "<span") != 2 {
			t.Errorf("Expected exactly one new span, got %q", got)
		}
	})

	t.Run("empty surfaces are skipped", func(t *testing.T) {
		got := Text("abc", []Annotated{{Surface: "", Interval: 0}}, 21)
		if got != "abc" {
			t.Errorf("Expected text unchanged, got %q", got)
		}
	})
}
