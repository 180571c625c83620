// Package selection tracks which options of the live selection prompt are
// checked.
//
// Every rendered selection widget carries the generation it was built for.
// Rendering a newer bot message supersedes the generation, so controls of an
// old widget that are still on screen can no longer change the state.
package selection

import (
	"errors"
	"strings"
)

// Joiner separates ids in a confirmed selection: "1 and 2".
const Joiner = " and "

// ErrStale is returned for operations carrying a superseded generation.
var ErrStale = errors.New("selection widget is no longer current")

// Tracker is an insertion-ordered set of option ids for one generation.
// It is not safe for concurrent use; all callers run on the event loop.
type Tracker struct {
	generation uint64
	order      []string
	chosen     map[string]struct{}
}

// NewTracker returns a tracker at generation zero. No widget is ever built
// for generation zero.
func NewTracker() *Tracker {
	return &Tracker{chosen: make(map[string]struct{})}
}

// Generation returns the current generation.
func (t *Tracker) Generation() uint64 {
	return t.generation
}

// Current reports whether gen is the current generation.
func (t *Tracker) Current(gen uint64) bool {
	return gen != 0 && gen == t.generation
}

// Supersede starts a new, empty generation and returns it.
func (t *Tracker) Supersede() uint64 {
	t.generation++
	t.reset()
	return t.generation
}

func (t *Tracker) reset() {
	t.order = t.order[:0]
	clear(t.chosen)
}

// Toggle inserts id when checked, removes it otherwise.
func (t *Tracker) Toggle(gen uint64, id string, checked bool) error {
	if !t.Current(gen) {
		return ErrStale
	}
	if checked {
		t.add(id)
	} else {
		t.remove(id)
	}
	return nil
}

// Fill inserts every id.
func (t *Tracker) Fill(gen uint64, ids []string) error {
	if !t.Current(gen) {
		return ErrStale
	}
	for _, id := range ids {
		t.add(id)
	}
	return nil
}

// Clear removes every id.
func (t *Tracker) Clear(gen uint64) error {
	if !t.Current(gen) {
		return ErrStale
	}
	t.reset()
	return nil
}

// Selected returns the chosen ids in the order they were chosen.
func (t *Tracker) Selected(gen uint64) ([]string, error) {
	if !t.Current(gen) {
		return nil, ErrStale
	}
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out, nil
}

// Len returns the size of the current set.
func (t *Tracker) Len() int {
	return len(t.order)
}

// Join renders ids as one chat message.
func Join(ids []string) string {
	return strings.Join(ids, Joiner)
}

func (t *Tracker) add(id string) {
	if _, ok := t.chosen[id]; ok {
		return
	}
	t.chosen[id] = struct{}{}
	t.order = append(t.order, id)
}

func (t *Tracker) remove(id string) {
	if _, ok := t.chosen[id]; !ok {
		return
	}
	delete(t.chosen, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}
