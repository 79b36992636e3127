package action

import "slices"

// Breakpoint records the cancel policy in force from Frame onward.
type Breakpoint struct {
	Policy CancelPolicy
	Frame  Frame
}

// Status is the outcome of one Tracker.Advance call.
type Status int

const (
	// StatusRunning means the current block has not exited.
	StatusRunning Status = iota
	// StatusAdvanced means the tracker entered the next block.
	StatusAdvanced
	// StatusBranched means the block exited into a branch; Next names it.
	StatusBranched
	// StatusComplete means the final block exited and the action is over.
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusAdvanced:
		return "advanced"
	case StatusBranched:
		return "branched"
	case StatusComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Advance is the result of Tracker.Advance.
type Advance struct {
	Status Status
	// Events are the entered block's events (StatusAdvanced only).
	Events []Event
	// Branch is the taken branch (StatusBranched only).
	Branch Branch
}

// Tracker is the runtime cursor over one running action. It is owned by a
// single actor and replaced wholesale on cancel.
//
// Invariant: len(breakpoints) == index+1 and breakpoint frames never decrease.
type Tracker struct {
	action      *Action
	startFrame  Frame
	blockStart  Frame
	index       int
	current     Block
	hasHit      bool
	paid        int
	breakpoints []Breakpoint
}

// NewTracker starts a at s.Frame() and enters its first block.
//
// Precondition: a has a non-empty script.
// Postcondition: Returns the tracker and the first block's events, already
// adjusted by the block's mutator. paid is recorded for the same-tier rule.
func NewTracker(a *Action, s Situation, paid int) (*Tracker, []Event) {
	first := a.Phase(0).enter(s)
	t := &Tracker{
		action:     a,
		startFrame: s.Frame(),
		blockStart: s.Frame(),
		current:    first,
		paid:       paid,
		breakpoints: []Breakpoint{
			{Policy: first.Cancel, Frame: s.Frame()},
		},
	}
	return t, slices.Clone(first.Events)
}

func (t *Tracker) Action() *Action { return t.action }
func (t *Tracker) StartFrame() Frame { return t.startFrame }
func (t *Tracker) BlockStartFrame() Frame { return t.blockStart }
func (t *Tracker) Index() int { return t.index }
func (t *Tracker) HasHit() bool { return t.hasHit }
func (t *Tracker) Paid() int { return t.paid }

// Current returns the active block as entered (after its mutator).
func (t *Tracker) Current() Block { return t.current }

// RegisterHit marks that the action has landed a hit, opening hit-only
// cancel windows.
func (t *Tracker) RegisterHit() { t.hasHit = true }

// Breakpoints returns a copy of the breakpoint log.
func (t *Tracker) Breakpoints() []Breakpoint { return slices.Clone(t.breakpoints) }

// PeekNext returns the block after the current one, or false when the
// current block is the last.
func (t *Tracker) PeekNext() (Block, bool) {
	i := len(t.breakpoints)
	if i >= len(t.action.Script) {
		return Block{}, false
	}
	return t.action.Phase(i), true
}

// View returns a by-value snapshot for Situation construction.
func (t *Tracker) View() TrackerView {
	return TrackerView{
		Action:          t.action.ID,
		StartFrame:      t.startFrame,
		BlockStartFrame: t.blockStart,
		Block:           t.index,
		HasHit:          t.hasHit,
		Paid:            t.paid,
	}
}

// Clone returns an independent copy for rollback snapshots. The Action
// template is shared since it is immutable.
func (t *Tracker) Clone() *Tracker {
	cp := *t
	cp.breakpoints = slices.Clone(t.breakpoints)
	cp.current.Events = slices.Clone(t.current.Events)
	return &cp
}

// Advance evaluates the current block's exit requirement against s and, if
// it is satisfied, moves to the next block, a branch, or completion.
// At most one block transition happens per call.
func (t *Tracker) Advance(s Situation) Advance {
	if !t.current.Exit.Satisfied(s, t.blockStart) {
		return Advance{Status: StatusRunning}
	}
	if br, ok := t.matchBranch(s); ok {
		return Advance{Status: StatusBranched, Branch: br}
	}
	next, ok := t.PeekNext()
	if !ok {
		return Advance{Status: StatusComplete}
	}
	t.index++
	t.blockStart = s.Frame()
	t.current = next.enter(s)
	t.breakpoints = append(t.breakpoints, Breakpoint{Policy: t.current.Cancel, Frame: s.Frame()})
	return Advance{Status: StatusAdvanced, Events: slices.Clone(t.current.Events)}
}

func (t *Tracker) matchBranch(s Situation) (Branch, bool) {
	for _, br := range t.current.Branches {
		if br.Requirements.Met(s, t.hasHit) {
			return br, true
		}
	}
	return Branch{}, false
}

// CancellableSince returns the earliest frame from which the action has been
// continuously cancellable into target, judged on the breakpoints entered so
// far. A window that closes and reopens reports the reopening frame.
//
// Postcondition: Has no side effects; repeated calls agree.
func (t *Tracker) CancellableSince(target Target) (Frame, bool) {
	return sinceOver(t.breakpoints, t.hasHit, target)
}

// CancellableInto answers CancellableSince as of s, looking ahead one block:
// if the current block's exit is already satisfied at s.Frame(), the next
// block's policy is appended as a synthetic breakpoint at that frame. An
// action that would complete at s.Frame() is reported open from s.Frame().
func (t *Tracker) CancellableInto(target Target, s Situation) (Frame, bool) {
	if !t.current.Exit.Satisfied(s, t.blockStart) {
		return t.CancellableSince(target)
	}
	if _, branching := t.matchBranch(s); branching {
		return t.CancellableSince(target)
	}
	next, ok := t.PeekNext()
	if !ok {
		return s.Frame(), true
	}
	bps := append(slices.Clone(t.breakpoints), Breakpoint{Policy: next.Cancel, Frame: s.Frame()})
	return sinceOver(bps, t.hasHit, target)
}

// WouldComplete reports whether the action ends at s without entering
// another block or branch.
func (t *Tracker) WouldComplete(s Situation) bool {
	if !t.current.Exit.Satisfied(s, t.blockStart) {
		return false
	}
	if _, branching := t.matchBranch(s); branching {
		return false
	}
	_, more := t.PeekNext()
	return !more
}

func sinceOver(bps []Breakpoint, hasHit bool, target Target) (Frame, bool) {
	var since Frame
	open := false
	for _, bp := range bps {
		if !bp.Policy.CanCancel(hasHit, target) {
			open = false
			continue
		}
		if !open {
			since = bp.Frame
			open = true
		}
	}
	return since, open
}
