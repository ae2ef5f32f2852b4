package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "MORPHCALC_"

// Filter selects one note type from the host collection and describes how its
// cards are read and rewritten during a recalc.
//
// SourceField is the 0-based index of the field holding the expression text.
// The output field indices (focus, difficulty, highlighted) are 1-based with
// 0 meaning "not configured", so a zero value disables the corresponding
// write.
type Filter struct {
	NoteType         string   `koanf:"note_type"`
	Morphemizer      string   `koanf:"morphemizer" validate:"required,oneof=space cjkchar"`
	Tags             []string `koanf:"tags"`
	Read             bool     `koanf:"read"`
	Modify           bool     `koanf:"modify"`
	SourceField      int      `koanf:"source_field" validate:"gte=0"`
	FocusField       int      `koanf:"focus_field" validate:"gte=0"`
	DifficultyField  int      `koanf:"difficulty_field" validate:"gte=0"`
	HighlightedField int      `koanf:"highlighted_field" validate:"gte=0"`
}

// Options are the scalar knobs of the recalc engine.
type Options struct {
	// KnownIntervalFloor is the interval, in days, credited to vocabulary on
	// notes the user has tagged as known, and the threshold at or above which
	// a morpheme counts as known when highlighting.
	KnownIntervalFloor int `koanf:"known_interval_floor" validate:"gte=1"`
	// PrioritizeCorpus ranks morphemes by frequency across the collection.
	// When false every morpheme gets priority 0 and difficulty degenerates
	// to unknown counting.
	PrioritizeCorpus bool `koanf:"prioritize_corpus"`
	// SkipStaleCards pushes cards with no unknown morphemes to the end of
	// the new queue.
	SkipStaleCards bool `koanf:"skip_stale_cards"`
	// IgnoreSuspended excludes suspended cards from the cache build.
	IgnoreSuspended bool `koanf:"ignore_suspended"`

	TagKnown    string `koanf:"tag_known" validate:"required"`
	TagReady    string `koanf:"tag_ready" validate:"required"`
	TagNotReady string `koanf:"tag_not_ready" validate:"required"`
}

// Config is the root configuration.
type Config struct {
	// Collection is the path to the host collection database.
	Collection string `koanf:"collection" validate:"required"`
	// Cache is the path to the disposable morpheme cache database.
	Cache   string   `koanf:"cache" validate:"required"`
	Filters []Filter `koanf:"filters" validate:"dive"`
	Options Options  `koanf:"options"`
}

func defaults() Config {
	return Config{
		Cache: "morphcalc-cache.db",
		Options: Options{
			KnownIntervalFloor: 21,
			PrioritizeCorpus:   true,
			TagKnown:           "known",
			TagReady:           "ready",
			TagNotReady:        "not-ready",
		},
	}
}

// Load reads configuration in increasing order of precedence: defaults, the
// YAML file at path (optional when path is empty), MORPHCALC_* environment
// variables, then command-line flags. The merged result is validated before
// being returned.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		return strings.ReplaceAll(key, "__", "."), value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	cfg := defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the structural constraints of a config.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ReadFilters returns the filters whose cards are cached.
func (c *Config) ReadFilters() []Filter {
	return c.enabled(func(f Filter) bool { return f.Read })
}

// ModifyFilters returns the filters whose cards are rewritten.
func (c *Config) ModifyFilters() []Filter {
	return c.enabled(func(f Filter) bool { return f.Modify })
}

func (c *Config) enabled(keep func(Filter) bool) []Filter {
	var out []Filter
	for _, f := range c.Filters {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}
