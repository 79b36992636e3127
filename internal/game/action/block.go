package action

import "slices"

// ExitKind selects the Exit variant.
type ExitKind int

const (
	// ExitNone blocks never end on their own.
	ExitNone ExitKind = iota
	ExitTime
	ExitCondition
)

// Exit is a block's natural end condition.
type Exit struct {
	Kind       ExitKind
	Frames     int           // ExitTime, in unscaled frames
	Conditions []Requirement // ExitCondition, ANDed
}

// ExitNever returns the exit that never fires.
func ExitNever() Exit { return Exit{Kind: ExitNone} }

// ExitAfter returns a timed exit of n unscaled frames.
func ExitAfter(n int) Exit { return Exit{Kind: ExitTime, Frames: n} }

// ExitWhen returns an exit that fires once all conds hold.
func ExitWhen(conds ...Requirement) Exit {
	return Exit{Kind: ExitCondition, Conditions: conds}
}

// EffectiveFrames scales a timed exit by the action-speed multiplier.
//
// Postcondition: Returns Frames*SpeedUnit/speed with integer truncation, so the
// result is identical on every replay. Faster actors get shorter blocks.
func (e Exit) EffectiveFrames(s Situation) int {
	return e.Frames * SpeedUnit / s.speed()
}

// Satisfied reports whether a block entered at blockStart has exited by s.
func (e Exit) Satisfied(s Situation, blockStart Frame) bool {
	switch e.Kind {
	case ExitTime:
		return int(s.Frame()-blockStart) >= e.EffectiveFrames(s)
	case ExitCondition:
		return CheckAll(e.Conditions, s)
	default:
		return false
	}
}

// Mutator is a named, pure block transform applied once at block entry.
type Mutator int

const (
	MutateNone Mutator = iota
	// MutateMirrorFacing flips the X of movement and hitbox events when the
	// actor faces left.
	MutateMirrorFacing
	// MutateFollowStick replaces the X direction of movement events with the
	// stick's horizontal direction; a neutral stick zeroes it.
	MutateFollowStick
)

var mutatorNames = [...]string{
	MutateNone:         "",
	MutateMirrorFacing: "mirror_facing",
	MutateFollowStick:  "follow_stick",
}

func (m Mutator) String() string {
	if int(m) < len(mutatorNames) {
		return mutatorNames[m]
	}
	return "unknown"
}

// ParseMutator converts a content name to a Mutator. "" and "none" are MutateNone.
func ParseMutator(s string) (Mutator, bool) {
	if s == "none" {
		return MutateNone, true
	}
	for i, n := range mutatorNames {
		if n == s {
			return Mutator(i), true
		}
	}
	return MutateNone, false
}

// Apply returns an adjusted copy of b for s. b itself is never modified.
func (m Mutator) Apply(b Block, s Situation) Block {
	out := b
	out.Events = slices.Clone(b.Events)
	switch m {
	case MutateMirrorFacing:
		sign := s.Facing().Sign()
		for i, ev := range out.Events {
			if ev.Kind == EventMovement || ev.Kind == EventHitbox {
				out.Events[i].X = ev.X * sign
			}
		}
	case MutateFollowStick:
		dir := s.Stick().X()
		for i, ev := range out.Events {
			if ev.Kind == EventMovement {
				x := ev.X
				if x < 0 {
					x = -x
				}
				out.Events[i].X = x * dir
			}
		}
	}
	return out
}

// Branch names another action to switch into when its requirements hold at
// block exit. Branches refer to actions by ID only.
type Branch struct {
	Requirements Requirements
	Next         ID
}

// Block is one timed segment of an action's script.
type Block struct {
	Events   []Event
	Exit     Exit
	Cancel   CancelPolicy
	Mutator  Mutator
	Branches []Branch
}

// Wait is a convenience block with no events.
func Wait(frames int, cancel CancelPolicy) Block {
	return Block{Exit: ExitAfter(frames), Cancel: cancel}
}

// enter applies the block's mutator for s.
func (b Block) enter(s Situation) Block {
	return b.Mutator.Apply(b, s)
}
