package morphemizer

import (
	"testing"

	"morphcalc/internal/morph"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"space", "cjkchar"} {
		m, err := ByName(name)
		if err != nil {
			t.Errorf("ByName(%q) returned error: %v", name, err)
			continue
		}
		if m.Name() != name {
			t.Errorf("Expected name %q, got %q", name, m.Name())
		}
	}

	if _, err := ByName("mecab"); err == nil {
		t.Error("Expected an error for an unregistered morphemizer")
	}
}

func TestSpaceMorphemizer(t *testing.T) {
	mizer := &SpaceMorphemizer{}

	t.Run("splits on non-word runes and lowercases the norm", func(t *testing.T) {
		morphs := mizer.Extract("The cat, the Cat!")
		want := []morph.Morpheme{
			{Norm: "the", Base: "the", Inflected: "The"},
			{Norm: "cat", Base: "cat", Inflected: "cat"},
			{Norm: "the", Base: "the", Inflected: "the"},
			{Norm: "cat", Base: "cat", Inflected: "Cat"},
		}
		if len(morphs) != len(want) {
			t.Fatalf("Expected %d morphs, got %d: %v", len(want), len(morphs), morphs)
		}
		for i, m := range morphs {
			if m != want[i] {
				t.Errorf("Morph %d: expected %+v, got %+v", i, want[i], m)
			}
		}
	})

	t.Run("keeps hyphens and apostrophes inside tokens", func(t *testing.T) {
		morphs := mizer.Extract("it's well-known")
		if len(morphs) != 2 {
			t.Fatalf("Expected 2 morphs, got %v", morphs)
		}
		if morphs[0].Inflected != "it's" || morphs[1].Inflected != "well-known" {
			t.Errorf("Unexpected surfaces: %v", morphs)
		}
	})

	t.Run("empty text yields no morphs", func(t *testing.T) {
		if morphs := mizer.Extract("   "); len(morphs) != 0 {
			t.Errorf("Expected no morphs, got %v", morphs)
		}
	})
}

func TestCJKCharMorphemizer(t *testing.T) {
	mizer := &CJKCharMorphemizer{}

	t.Run("every ideograph is one morpheme", func(t *testing.T) {
		morphs := mizer.Extract("猫が好きです")
		// が, き and です are kana, not ideographs.
		want := []string{"猫", "好"}
		if len(morphs) != len(want) {
			t.Fatalf("Expected %d morphs, got %v", len(want), morphs)
		}
		for i, m := range morphs {
			if m.Inflected != want[i] {
				t.Errorf("Morph %d: expected %q, got %q", i, want[i], m.Inflected)
			}
			if !m.IsBase() {
				t.Errorf("Expected ideograph morph %q to be its own base", m.Inflected)
			}
		}
	})

	t.Run("latin text yields no morphs", func(t *testing.T) {
		if morphs := mizer.Extract("hello world"); len(morphs) != 0 {
			t.Errorf("Expected no morphs, got %v", morphs)
		}
	})
}
