// Package match runs two actors in lock-step and records a per-frame journal
// whose checksum identifies a run.
package match

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"slices"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fightcore/internal/game/action"
)

// Sides is the number of actors in a match.
const Sides = 2

// Player binds a display name to a move list.
type Player struct {
	Name    string
	Catalog *action.Catalog
}

// FrameInput is everything the outer simulation supplies for one frame.
type FrameInput struct {
	Frame    action.Frame
	Triggers [Sides][]action.Trigger
	// Params carries each side's situation; Params[i].Frame is overwritten
	// with Frame.
	Params [Sides]action.SituationParams
	// Hits marks sides whose running action landed a hit this frame. Hits
	// are registered after both actors step.
	Hits [Sides]bool
}

// FrameOutcome is one journal entry.
type FrameOutcome struct {
	Frame   action.Frame
	Results [Sides]action.FrameResult
}

// State is a rollback snapshot of a Match.
type State struct {
	actors     [Sides]action.ActorState
	journalLen int
	lastFrame  action.Frame
	started    bool
}

// Match owns both actors. It is single-threaded: Step, Save and Restore
// must not be called concurrently.
type Match struct {
	actors    [Sides]*action.Actor
	journal   []FrameOutcome
	lastFrame action.Frame
	started   bool
	logger    *zap.Logger
}

// New creates a match between p1 and p2 with the given buffer depth.
//
// Precondition: both players have a non-nil Catalog; depth > 0.
// Postcondition: Returns a match with idle actors and an empty journal.
func New(p1, p2 Player, depth int, logger *zap.Logger) *Match {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Match{logger: logger}
	for i, p := range [Sides]Player{p1, p2} {
		m.actors[i] = action.NewActor(p.Name, p.Catalog, depth, logger)
	}
	return m
}

// Actor returns the actor for side.
//
// Precondition: 0 <= side < Sides.
func (m *Match) Actor(side int) *action.Actor { return m.actors[side] }

// Step advances both actors one frame in side order and then applies hits.
//
// Precondition: in.Frame is greater than the previous step's frame, unless
// the caller is deliberately resetting the clock (a backward frame clears
// every buffer).
// Postcondition: Appends exactly one outcome to the journal and returns it.
func (m *Match) Step(in FrameInput) FrameOutcome {
	if m.started && in.Frame < m.lastFrame {
		m.logger.Info("frame clock moved backwards",
			zap.Int("from", int(m.lastFrame)),
			zap.Int("to", int(in.Frame)),
		)
	}
	out := FrameOutcome{Frame: in.Frame}
	for i, a := range m.actors {
		p := in.Params[i]
		p.Frame = in.Frame
		out.Results[i] = a.Step(p, in.Triggers[i])
	}
	for i, hit := range in.Hits {
		if hit {
			m.actors[i].RegisterHit()
		}
	}
	m.journal = append(m.journal, out)
	m.lastFrame = in.Frame
	m.started = true
	return out
}

// Save snapshots every actor and the journal position.
func (m *Match) Save() State {
	st := State{journalLen: len(m.journal), lastFrame: m.lastFrame, started: m.started}
	for i, a := range m.actors {
		st.actors[i] = a.Save()
	}
	return st
}

// Restore rewinds the match to st, truncating the journal to the saved
// length. The same State may be restored any number of times.
//
// Precondition: st was produced by Save on this match.
func (m *Match) Restore(st State) {
	for i, a := range m.actors {
		a.Restore(st.actors[i])
	}
	m.journal = m.journal[:st.journalLen]
	m.lastFrame = st.lastFrame
	m.started = st.started
}

// Frames returns the journal entry count.
func (m *Match) Frames() int { return len(m.journal) }

// Journal returns a copy of every recorded outcome.
func (m *Match) Journal() []FrameOutcome { return slices.Clone(m.journal) }

// Checksum returns the hex SHA-256 of the canonical journal encoding. Two
// runs with identical inputs and content produce identical checksums.
func (m *Match) Checksum() string {
	h := sha256.New()
	for _, o := range m.journal {
		writeOutcome(h, o)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeOutcome(w io.Writer, o FrameOutcome) {
	for side, r := range o.Results {
		fmt.Fprintf(w, "%d/%d start=%s forced=%t cancel=%s done=%s adv=%s",
			o.Frame, side, r.Started, r.Forced, r.Cancelled, r.Completed, r.Advance)
		for _, e := range r.Events {
			fmt.Fprintf(w, " %s[%s %d %d %s %d %d]", e.Kind, e.Name, e.X, e.Y, e.Resource, e.Amount, e.Duration)
		}
		io.WriteString(w, "\n")
	}
}
