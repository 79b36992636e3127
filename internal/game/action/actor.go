package action

import (
	"cmp"
	"slices"

	"go.uber.org/zap"
)

// FrameResult reports everything one actor did on one frame.
type FrameResult struct {
	Frame Frame
	// Started is the action that began this frame, or "".
	Started ID
	// Forced is true when Started came from a script branch.
	Forced bool
	// Cancelled is the action Started replaced, or "".
	Cancelled ID
	// Completed is the action that finished this frame, or "".
	Completed ID
	// Advance is the running tracker's exit check outcome. It is
	// StatusRunning on frames where an action started.
	Advance Status
	// Events are emitted in order: cost payment, then block events.
	Events []Event
}

// ActorState is a rollback snapshot of an Actor.
type ActorState struct {
	buffer  *Buffer
	tracker *Tracker
}

// Actor drives one character's buffer and tracker through the per-frame
// pipeline. It is not safe for concurrent use; every call for a given
// frame must come from the simulation thread.
type Actor struct {
	name    string
	catalog *Catalog
	buffer  *Buffer
	tracker *Tracker
	logger  *zap.Logger
}

// NewActor creates an idle actor for cat.
//
// Precondition: cat is non-nil; depth > 0. A nil logger is replaced with a no-op.
func NewActor(name string, cat *Catalog, depth int, logger *zap.Logger) *Actor {
	if cat == nil {
		panic("action.NewActor: catalog must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Actor{
		name:    name,
		catalog: cat,
		buffer:  NewBuffer(depth),
		logger:  logger.With(zap.String("actor", name)),
	}
}

func (a *Actor) Name() string { return a.name }
func (a *Actor) Catalog() *Catalog { return a.catalog }
func (a *Actor) Buffer() *Buffer { return a.buffer }

// Tracker returns the running tracker, or nil when idle.
func (a *Actor) Tracker() *Tracker { return a.tracker }

// Situation builds the snapshot for p, filling in the running tracker view.
func (a *Actor) Situation(p SituationParams) Situation {
	if a.tracker == nil {
		return NewSituation(p, nil)
	}
	v := a.tracker.View()
	return NewSituation(p, &v)
}

// Step runs one frame: expire the buffer, ingest triggers, build the
// situation, start a forced or selected action, otherwise advance the
// running one.
//
// Precondition: every trigger names an action in the catalog.
// Postcondition: at most one action starts and at most one block transition
// happens. With nothing eligible the running tracker is only advanced.
func (a *Actor) Step(p SituationParams, triggers []Trigger) FrameResult {
	now := p.Frame
	res := FrameResult{Frame: now}

	a.buffer.Expire(now)
	a.ingest(now, triggers)

	s := a.Situation(p)

	if sel, ok := a.buffer.Select(a.catalog, s, a.tracker); ok {
		a.buffer.Consume(sel)
		a.start(sel, s, &res)
		return res
	}

	if a.tracker == nil {
		return res
	}
	adv := a.tracker.Advance(s)
	res.Advance = adv.Status
	switch adv.Status {
	case StatusAdvanced:
		res.Events = adv.Events
	case StatusBranched:
		a.buffer.Force(Forced{Action: adv.Branch.Next, Cost: adv.Branch.Requirements.Cost})
		a.logger.Debug("action branched",
			zap.String("action", string(a.tracker.Action().ID)),
			zap.String("next", string(adv.Branch.Next)),
			zap.Int("frame", int(now)),
		)
	case StatusComplete:
		res.Completed = a.tracker.Action().ID
		a.logger.Debug("action completed",
			zap.String("action", string(res.Completed)),
			zap.Int("frame", int(now)),
		)
		a.tracker = nil
	}
	return res
}

func (a *Actor) ingest(now Frame, triggers []Trigger) {
	sorted := slices.Clone(triggers)
	slices.SortStableFunc(sorted, func(x, y Trigger) int {
		if c := cmp.Compare(x.Frame, y.Frame); c != 0 {
			return c
		}
		return cmp.Compare(x.Action, y.Action)
	})
	for _, t := range sorted {
		a.catalog.MustGet(t.Action)
		if t.Frame > now {
			continue
		}
		a.buffer.Observe(t)
	}
}

func (a *Actor) start(sel Selection, s Situation, res *FrameResult) {
	if a.tracker != nil {
		res.Cancelled = a.tracker.Action().ID
	}
	tracker, events := NewTracker(sel.Action, s, sel.Cost.Total())
	a.tracker = tracker

	res.Started = sel.Action.ID
	res.Forced = sel.Forced
	res.Events = append(sel.Cost.Events(), events...)

	a.logger.Debug("action started",
		zap.String("action", string(sel.Action.ID)),
		zap.String("cancelled", string(res.Cancelled)),
		zap.Bool("forced", sel.Forced),
		zap.Int("paid", sel.Cost.Total()),
		zap.Int("frame", int(s.Frame())),
	)
}

// RegisterHit records a landed hit on the running action. It is a no-op
// when idle.
func (a *Actor) RegisterHit() {
	if a.tracker != nil {
		a.tracker.RegisterHit()
	}
}

// Save returns a deep snapshot of the actor's mutable state.
func (a *Actor) Save() ActorState {
	st := ActorState{buffer: a.buffer.Clone()}
	if a.tracker != nil {
		st.tracker = a.tracker.Clone()
	}
	return st
}

// Restore replaces the actor's state with a copy of st, so st can be
// restored again later.
func (a *Actor) Restore(st ActorState) {
	a.buffer = st.buffer.Clone()
	a.tracker = nil
	if st.tracker != nil {
		a.tracker = st.tracker.Clone()
	}
}
