package recalc

import "morphcalc/internal/morph"

// Session accumulates the morphemes observed while the engine is alive. It
// starts empty, is shared by every recalc run on the same engine, and is
// discarded with it; nothing about it is persisted.
type Session struct {
	seen map[morph.Key]struct{}
}

// NewSession returns an empty session store.
func NewSession() *Session {
	return &Session{seen: make(map[morph.Key]struct{})}
}

// Record marks a morpheme as seen this session.
func (s *Session) Record(k morph.Key) {
	s.seen[k] = struct{}{}
}

// Seen reports whether the morpheme was observed this session.
func (s *Session) Seen(k morph.Key) bool {
	_, ok := s.seen[k]
	return ok
}

// Len returns the number of distinct morphemes seen this session.
func (s *Session) Len() int {
	return len(s.seen)
}
