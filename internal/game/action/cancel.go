// Package action implements the per-actor action-resolution core: action
// scripts, cancel policies, requirement predicates, the input buffer, and the
// tracker that walks an action's blocks on a fixed frame clock.
//
// Everything in this package is synchronous and deterministic. No function
// reads the wall clock, sleeps, or iterates a map without sorting its keys.
package action

import (
	"fmt"
	"slices"
	"strings"
)

// ID identifies a distinct action. IDs are ordered lexicographically; the
// order is used only as the final selection tie-break.
type ID string

// Frame is a logical simulation frame number.
type Frame int

// Level is a cancel category. The zero value is Uncancellable.
//
// Levels Uncancellable through Any are totally ordered. Everything sits
// outside that order and is only meaningful as a query target.
type Level int

const (
	Uncancellable Level = iota
	Normal
	CommandNormal
	Special
	Super
	Any
	// Everything asks "is any cancel window open at all".
	Everything
)

var levelNames = map[Level]string{
	Uncancellable: "uncancellable",
	Normal:        "normal",
	CommandNormal: "command_normal",
	Special:       "special",
	Super:         "super",
	Any:           "any",
	Everything:    "everything",
}

// String returns the snake_case content name of the level.
func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel converts a content name to a Level. "never" is accepted as an
// alias for uncancellable.
//
// Postcondition: Returns the Level or an error naming the unknown value.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "never" || name == "" {
		return Uncancellable, nil
	}
	for l, n := range levelNames {
		if n == name {
			return l, nil
		}
	}
	return Uncancellable, fmt.Errorf("unknown cancel level %q", s)
}

// Target is the candidate side of a cancel query.
type Target struct {
	ID    ID
	Level Level
}

// AnyTarget is the Everything query target.
var AnyTarget = Target{Level: Everything}

// CancelRule opens a cancel window for a block.
//
// A non-empty Specific list selects the Specific variant: only the named
// actions may cancel, regardless of level.
type CancelRule struct {
	RequiresHit bool
	Level       Level
	Specific    []ID
}

// CanCancel reports whether this rule lets target interrupt the block.
//
// Postcondition: Levels permit only targets strictly below them, so a window
// never admits a candidate of its own level.
func (r CancelRule) CanCancel(hasHit bool, target Target) bool {
	if r.RequiresHit && !hasHit {
		return false
	}
	if len(r.Specific) > 0 {
		return target.Level == Everything || slices.Contains(r.Specific, target.ID)
	}
	if r.Level == Uncancellable || r.Level == Everything {
		return false
	}
	if target.Level == Everything {
		return true
	}
	return r.Level > target.Level
}

// CancelPolicy is the set of rules active during a block. An empty policy is
// uncancellable.
type CancelPolicy []CancelRule

// CanCancel reports whether any rule in the policy admits target.
func (p CancelPolicy) CanCancel(hasHit bool, target Target) bool {
	for _, r := range p {
		if r.CanCancel(hasHit, target) {
			return true
		}
	}
	return false
}

// Window is shorthand for a single-rule policy at level l.
func Window(l Level) CancelPolicy {
	return CancelPolicy{{Level: l}}
}

// Never is the uncancellable policy.
func Never() CancelPolicy { return nil }
