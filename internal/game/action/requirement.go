package action

import "slices"

// RequirementKind selects the Requirement variant.
type RequirementKind int

const (
	ReqGrounded RequirementKind = iota
	ReqAirborne
	ReqOngoingAction
	ReqItemsOwned
	ReqResourceFull
	ReqResourceAtLeast
	ReqButtonsHeld
	ReqButtonsReleased
)

// Requirement is a predicate over a Situation. It is a closed tagged union;
// only the fields relevant to Kind are read.
type Requirement struct {
	Kind     RequirementKind
	Actions  []ID       // ReqOngoingAction
	Items    []ItemID   // ReqItemsOwned
	Resource ResourceID // ReqResourceFull, ReqResourceAtLeast
	Value    int        // ReqResourceAtLeast
	Buttons  Button     // ReqButtonsHeld, ReqButtonsReleased
}

func Grounded() Requirement { return Requirement{Kind: ReqGrounded} }
func Airborne() Requirement { return Requirement{Kind: ReqAirborne} }

func OngoingAction(ids ...ID) Requirement {
	return Requirement{Kind: ReqOngoingAction, Actions: ids}
}

func ItemsOwned(items ...ItemID) Requirement {
	return Requirement{Kind: ReqItemsOwned, Items: items}
}

func ResourceFull(r ResourceID) Requirement {
	return Requirement{Kind: ReqResourceFull, Resource: r}
}

func ResourceAtLeast(r ResourceID, v int) Requirement {
	return Requirement{Kind: ReqResourceAtLeast, Resource: r, Value: v}
}

func ButtonsHeld(b Button) Requirement {
	return Requirement{Kind: ReqButtonsHeld, Buttons: b}
}

func ButtonsReleased(b Button) Requirement {
	return Requirement{Kind: ReqButtonsReleased, Buttons: b}
}

// Check evaluates the requirement against s.
//
// Precondition: resource variants name a resource the character defines;
// otherwise Check panics with a *ContentError.
func (r Requirement) Check(s Situation) bool {
	switch r.Kind {
	case ReqGrounded:
		return s.Grounded()
	case ReqAirborne:
		return !s.Grounded()
	case ReqOngoingAction:
		v, ok := s.Ongoing()
		return ok && slices.Contains(r.Actions, v.Action)
	case ReqItemsOwned:
		return s.Owns(r.Items...)
	case ReqResourceFull:
		res := s.Resource(r.Resource)
		return res.Value >= res.Max
	case ReqResourceAtLeast:
		return s.Resource(r.Resource).Value >= r.Value
	case ReqButtonsHeld:
		return s.Held().Has(r.Buttons)
	case ReqButtonsReleased:
		return s.Held()&r.Buttons == 0
	default:
		panic(contentErrorf("requirement check", "unknown requirement kind %d", r.Kind))
	}
}

// CheckAll ANDs reqs against s, stopping at the first failure.
func CheckAll(reqs []Requirement, s Situation) bool {
	for _, r := range reqs {
		if !r.Check(s) {
			return false
		}
	}
	return true
}

// ResourceCost is an amount of one resource.
type ResourceCost struct {
	Resource ResourceID
	Amount   int
}

// Cost is the resource price of starting an action or taking a branch.
type Cost []ResourceCost

// Total returns the summed amount across resources. Totals are what the
// same-tier cancel rule compares.
func (c Cost) Total() int {
	n := 0
	for _, rc := range c {
		n += rc.Amount
	}
	return n
}

// Affordable reports whether s holds at least every amount in c.
//
// Precondition: every resource in c is defined for the character.
func (c Cost) Affordable(s Situation) bool {
	for _, rc := range c {
		if s.Resource(rc.Resource).Value < rc.Amount {
			return false
		}
	}
	return true
}

// Events returns the resource-delta events that pay c.
func (c Cost) Events() []Event {
	out := make([]Event, 0, len(c))
	for _, rc := range c {
		if rc.Amount == 0 {
			continue
		}
		out = append(out, Event{Kind: EventResourceDelta, Resource: rc.Resource, Amount: -rc.Amount})
	}
	return out
}

// GroundState constrains a branch to the ground, the air, or neither.
type GroundState int

const (
	GroundAny GroundState = iota
	GroundOnly
	AirOnly
)

// Requirements gates a script branch. Unlike action-level requirements it can
// see the running tracker's hit state and carries a cost.
type Requirements struct {
	RequiresHit bool
	Cost        Cost
	Items       []ItemID
	Held        Button
	Ground      GroundState
}

// Met reports whether the branch may be taken given s and the tracker's hit
// state.
func (r Requirements) Met(s Situation, hasHit bool) bool {
	if r.RequiresHit && !hasHit {
		return false
	}
	switch r.Ground {
	case GroundOnly:
		if !s.Grounded() {
			return false
		}
	case AirOnly:
		if s.Grounded() {
			return false
		}
	}
	if len(r.Items) > 0 && !s.Owns(r.Items...) {
		return false
	}
	if r.Held != 0 && !s.Held().Has(r.Held) {
		return false
	}
	return r.Cost.Affordable(s)
}

// TierAllows applies the same-tier cancel rule: an action of level running
// that already paid paid may only be interrupted by a strictly higher level,
// or by a same-or-lower level that spends strictly more.
func TierAllows(running Level, paid int, candidate Level, cost Cost) bool {
	if candidate > running {
		return true
	}
	return cost.Total() > paid
}
