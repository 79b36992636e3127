package action

import (
	"cmp"
	"maps"
	"slices"
)

// Trigger is one observation from the input parser: "the input for Action
// was completed on Frame".
type Trigger struct {
	Action ID
	Frame  Frame
}

// Forced is a script-driven activation that bypasses selection.
type Forced struct {
	Action ID
	Cost   Cost
}

// Selection is the single action chosen to start on a frame.
type Selection struct {
	Action   *Action
	Observed Frame
	Forced   bool
	Cost     Cost
}

// Buffer holds recently observed triggers for one actor.
//
// Invariant: after Expire(now), every entry satisfies
// now-depth < observed <= now.
type Buffer struct {
	depth   int
	entries map[ID]Frame
	forced  *Forced
	// now is the frame of the last Expire; clocked is false until the first.
	now     Frame
	clocked bool
}

// NewBuffer creates an empty buffer whose entries live for depth frames.
//
// Precondition: depth > 0.
func NewBuffer(depth int) *Buffer {
	if depth <= 0 {
		panic("action.NewBuffer: depth must be > 0")
	}
	return &Buffer{depth: depth, entries: make(map[ID]Frame)}
}

// Depth returns the buffer window in frames.
func (b *Buffer) Depth() int { return b.depth }

// Len returns the number of buffered triggers.
func (b *Buffer) Len() int { return len(b.entries) }

// Observed returns the frame id was last observed, if buffered.
func (b *Buffer) Observed(id ID) (Frame, bool) {
	f, ok := b.entries[id]
	return f, ok
}

// Expire drops entries at least depth frames old. A now earlier than the
// previous Expire, or earlier than any entry, means the clock went backwards
// (a round reset): the whole buffer, pending forced activation included, is
// cleared.
func (b *Buffer) Expire(now Frame) {
	backwards := b.clocked && now < b.now
	b.now = now
	b.clocked = true
	if backwards {
		b.Clear()
		return
	}
	for _, f := range b.entries {
		if now < f {
			b.Clear()
			return
		}
	}
	for id, f := range b.entries {
		if int(now-f) >= b.depth {
			delete(b.entries, id)
		}
	}
}

// Observe records a trigger, replacing any earlier observation of the same
// action. A trigger already depth frames older than the last Expire is
// dropped.
func (b *Buffer) Observe(t Trigger) {
	if b.clocked && int(b.now-t.Frame) >= b.depth {
		return
	}
	b.entries[t.Action] = t.Frame
}

// Force installs a pending activation for the next selection. A later call
// replaces an earlier one.
func (b *Buffer) Force(f Forced) {
	cp := Forced{Action: f.Action, Cost: slices.Clone(f.Cost)}
	b.forced = &cp
}

// Pending returns the forced activation, if any.
func (b *Buffer) Pending() (Forced, bool) {
	if b.forced == nil {
		return Forced{}, false
	}
	return *b.forced, true
}

// Clear removes every entry and the forced activation.
func (b *Buffer) Clear() {
	clear(b.entries)
	b.forced = nil
}

// Clone returns an independent copy for rollback snapshots.
func (b *Buffer) Clone() *Buffer {
	cp := &Buffer{depth: b.depth, entries: maps.Clone(b.entries), now: b.now, clocked: b.clocked}
	if b.forced != nil {
		f := *b.forced
		f.Cost = slices.Clone(f.Cost)
		cp.forced = &f
	}
	return cp
}

// Select picks at most one action to start at s. It does not modify the
// buffer; call Consume with the result.
//
// A forced activation wins unconditionally. Otherwise every buffered action
// is filtered by Eligible and the survivor with the highest input
// complexity wins, then the earliest observation, then the lowest ID.
//
// Precondition: every buffered ID exists in cat; a missing one panics with a
// *ContentError.
// Postcondition: the result depends only on the buffer, s, and running.
func (b *Buffer) Select(cat *Catalog, s Situation, running *Tracker) (Selection, bool) {
	if b.forced != nil {
		return Selection{
			Action:   cat.MustGet(b.forced.Action),
			Observed: s.Frame(),
			Forced:   true,
			Cost:     slices.Clone(b.forced.Cost),
		}, true
	}

	ids := slices.Sorted(maps.Keys(b.entries))
	var best Selection
	found := false
	for _, id := range ids {
		a := cat.MustGet(id)
		if !Eligible(a, s, running) {
			continue
		}
		cand := Selection{Action: a, Observed: b.entries[id], Cost: slices.Clone(a.Cost)}
		if !found || better(cand, best) {
			best = cand
			found = true
		}
	}
	return best, found
}

func better(a, b Selection) bool {
	if c := cmp.Compare(a.Action.Complexity(), b.Action.Complexity()); c != 0 {
		return c > 0
	}
	if a.Observed != b.Observed {
		return a.Observed < b.Observed
	}
	return a.Action.ID < b.Action.ID
}

// Consume removes the selected action from the buffer. A forced selection
// clears the forced slot and leaves input entries untouched.
func (b *Buffer) Consume(sel Selection) {
	if sel.Forced {
		b.forced = nil
		return
	}
	delete(b.entries, sel.Action.ID)
}

// Eligible reports whether a may start at s given the running tracker.
//
// The action's own requirements must hold and its cost be affordable. If an
// action is running and will not finish at s, its cancel window must admit
// a and the same-tier rule must allow it.
func Eligible(a *Action, s Situation, running *Tracker) bool {
	if !CheckAll(a.Requirements, s) {
		return false
	}
	if !a.Cost.Affordable(s) {
		return false
	}
	if running == nil || running.WouldComplete(s) {
		return true
	}
	if _, ok := running.CancellableInto(a.target(), s); !ok {
		return false
	}
	return TierAllows(running.Action().Category, running.Paid(), a.Category, a.Cost)
}
