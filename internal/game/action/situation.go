package action

import (
	"maps"
	"slices"
)

// ResourceID names a character resource such as meter or drive.
type ResourceID string

// ItemID names an inventory item.
type ItemID string

// Button is a bit set of held buttons.
type Button uint16

const (
	ButtonLP Button = 1 << iota
	ButtonMP
	ButtonHP
	ButtonLK
	ButtonMK
	ButtonHK
)

var buttonNames = []struct {
	b    Button
	name string
}{
	{ButtonLP, "LP"}, {ButtonMP, "MP"}, {ButtonHP, "HP"},
	{ButtonLK, "LK"}, {ButtonMK, "MK"}, {ButtonHK, "HK"},
}

// ParseButton returns the button for a content name such as "LP".
func ParseButton(name string) (Button, bool) {
	for _, bn := range buttonNames {
		if bn.name == name {
			return bn.b, true
		}
	}
	return 0, false
}

// Has reports whether every button in want is set in b.
func (b Button) Has(want Button) bool { return b&want == want }

// Facing is the horizontal direction the actor faces.
type Facing int

const (
	FacingRight Facing = iota
	FacingLeft
)

// Sign returns +1 when facing right and -1 when facing left.
func (f Facing) Sign() int {
	if f == FacingLeft {
		return -1
	}
	return 1
}

// Stick is a numpad-notation stick position: 5 is neutral, 6 is forward.
type Stick int

// X returns the horizontal component of the stick in {-1, 0, 1}.
func (s Stick) X() int {
	switch s {
	case 3, 6, 9:
		return 1
	case 1, 4, 7:
		return -1
	default:
		return 0
	}
}

// SpeedUnit is the fixed-point scale of Stats.ActionSpeed; 1000 is normal speed.
const SpeedUnit = 1000

// Stats carries actor statistics relevant to action timing.
type Stats struct {
	// ActionSpeed is the action-speed multiplier in thousandths. Zero means
	// normal speed.
	ActionSpeed int
}

// Resource is a current/maximum pair.
type Resource struct {
	Value int
	Max   int
}

// TrackerView is a by-value snapshot of a running tracker.
type TrackerView struct {
	Action          ID
	StartFrame      Frame
	BlockStartFrame Frame
	Block           int
	HasHit          bool
	Paid            int
}

// SituationParams is the data the surrounding subsystems hand to the core
// each frame. The tracker view is filled in by the actor, not the caller.
type SituationParams struct {
	Frame     Frame
	Grounded  bool
	Resources map[ResourceID]Resource
	Inventory []ItemID
	Held      Button
	Stick     Stick
	Facing    Facing
	Stats     Stats
}

// Situation is an immutable per-frame, per-actor snapshot. All fields are
// private and copied at construction so no caller can alter it afterwards.
type Situation struct {
	frame     Frame
	grounded  bool
	ongoing   *TrackerView
	resources map[ResourceID]Resource
	inventory []ItemID
	held      Button
	stick     Stick
	facing    Facing
	stats     Stats
}

// NewSituation builds a Situation from p and an optional tracker view.
//
// Postcondition: the result shares no mutable memory with p or ongoing.
func NewSituation(p SituationParams, ongoing *TrackerView) Situation {
	s := Situation{
		frame:     p.Frame,
		grounded:  p.Grounded,
		resources: maps.Clone(p.Resources),
		inventory: slices.Clone(p.Inventory),
		held:      p.Held,
		stick:     p.Stick,
		facing:    p.Facing,
		stats:     p.Stats,
	}
	if ongoing != nil {
		v := *ongoing
		s.ongoing = &v
	}
	return s
}

func (s Situation) Frame() Frame { return s.frame }
func (s Situation) Grounded() bool { return s.grounded }
func (s Situation) Held() Button { return s.held }
func (s Situation) Stick() Stick { return s.stick }
func (s Situation) Facing() Facing { return s.facing }
func (s Situation) Stats() Stats { return s.stats }

// Ongoing returns the running action's view, if any.
func (s Situation) Ongoing() (TrackerView, bool) {
	if s.ongoing == nil {
		return TrackerView{}, false
	}
	return *s.ongoing, true
}

// Resource returns the named resource.
//
// Precondition: the character defines id. A missing resource is a content
// bug and panics with a *ContentError.
func (s Situation) Resource(id ResourceID) Resource {
	r, ok := s.resources[id]
	if !ok {
		panic(&ContentError{Op: "resource lookup", Detail: "character does not define resource " + string(id)})
	}
	return r
}

// Owns reports whether the inventory contains any of items.
func (s Situation) Owns(items ...ItemID) bool {
	for _, it := range items {
		if slices.Contains(s.inventory, it) {
			return true
		}
	}
	return false
}

// speed returns the effective action speed in thousandths.
func (s Situation) speed() int {
	if s.stats.ActionSpeed <= 0 {
		return SpeedUnit
	}
	return s.stats.ActionSpeed
}
