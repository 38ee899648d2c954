package fetch

import "sync/atomic"

// Slot guards one logical channel that can have at most one in-flight
// request whose result still matters (the search box, the overlay
// target, an actor row). Issue Next() before starting a request and
// check Latest(token) before applying its result; a superseded response
// is simply discarded on arrival.
type Slot struct {
	seq atomic.Uint64
}

// Next advances the slot and returns the token for a new request.
func (s *Slot) Next() uint64 {
	return s.seq.Add(1)
}

// Latest reports whether token is still the slot's current request.
func (s *Slot) Latest(token uint64) bool {
	return s.seq.Load() == token
}

// Invalidate supersedes whatever is in flight without starting a new
// request (used when a slot is closed rather than re-targeted).
func (s *Slot) Invalidate() {
	s.seq.Add(1)
}
