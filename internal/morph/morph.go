package morph

// Morpheme is a single sub-word unit extracted from card text.
//
// Norm is the normalized dictionary form (lemma), Inflected the surface form
// as it appeared in the text. Two morphemes are the same morpheme exactly
// when both Norm and Inflected match, so (Norm, Inflected) is the identity
// used everywhere downstream.
type Morpheme struct {
	Norm      string
	Base      string
	Inflected string
}

// Key is the identity of a morpheme, usable as a map key.
type Key struct {
	Norm      string
	Inflected string
}

// Key returns the morpheme's identity.
func (m Morpheme) Key() Key {
	return Key{Norm: m.Norm, Inflected: m.Inflected}
}

// IsBase reports whether the surface form is already the dictionary form.
func (m Morpheme) IsBase() bool {
	return m.Norm == m.Inflected
}

// Status is the maturity of a morpheme relative to the learner.
type Status string

const (
	StatusUnknown  Status = "unknown"
	StatusLearning Status = "learning"
	StatusKnown    Status = "known"
)

// StatusOf classifies a morpheme by its highest learning interval in days.
// An interval of 0 means the morpheme has never been seen on a known card.
func StatusOf(interval, knownThreshold int) Status {
	switch {
	case interval == 0:
		return StatusUnknown
	case interval < knownThreshold:
		return StatusLearning
	default:
		return StatusKnown
	}
}
