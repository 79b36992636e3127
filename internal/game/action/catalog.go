package action

import (
	"errors"
	"slices"
)

// Catalog is a character's move list: an immutable mapping from ID to Action.
// It is built once and then only read, so it may be shared freely.
type Catalog struct {
	actions   map[ID]*Action
	ids       []ID
	resources []ResourceID
}

// NewCatalog validates actions and builds a Catalog. resources lists every
// resource the character defines; actions may only reference those.
//
// Postcondition: Returns a Catalog whose every branch, ongoing-action and
// resource reference resolves, or an error wrapping ErrContent that lists
// every violation.
func NewCatalog(resources []ResourceID, actions []*Action) (*Catalog, error) {
	c := &Catalog{
		actions:   make(map[ID]*Action, len(actions)),
		resources: slices.Clone(resources),
	}
	slices.Sort(c.resources)

	var errs []error
	for _, a := range actions {
		if a == nil {
			errs = append(errs, contentErrorf("catalog", "nil action"))
			continue
		}
		if a.ID == "" {
			errs = append(errs, contentErrorf("catalog", "action with empty id"))
			continue
		}
		if _, dup := c.actions[a.ID]; dup {
			errs = append(errs, contentErrorf("catalog", "duplicate action %q", a.ID))
			continue
		}
		cp := *a
		cp.complexity = InputComplexity(a.Input)
		c.actions[a.ID] = &cp
		c.ids = append(c.ids, a.ID)
	}
	slices.Sort(c.ids)

	for _, id := range c.ids {
		errs = append(errs, c.validate(c.actions[id])...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate(a *Action) []error {
	var errs []error
	if len(a.Script) == 0 {
		errs = append(errs, contentErrorf("catalog", "action %q has an empty script", a.ID))
	}
	if a.Category < Uncancellable || a.Category >= Everything {
		errs = append(errs, contentErrorf("catalog", "action %q has invalid category %s", a.ID, a.Category))
	}
	errs = append(errs, c.checkRequirements(a.ID, a.Requirements)...)
	errs = append(errs, c.checkCost(a.ID, a.Cost)...)
	for i, b := range a.Script {
		if b.Exit.Kind == ExitTime && b.Exit.Frames < 0 {
			errs = append(errs, contentErrorf("catalog", "action %q block %d has negative time %d", a.ID, i, b.Exit.Frames))
		}
		if b.Exit.Kind == ExitCondition {
			errs = append(errs, c.checkRequirements(a.ID, b.Exit.Conditions)...)
		}
		for _, r := range b.Cancel {
			for _, id := range r.Specific {
				if _, ok := c.actions[id]; !ok {
					errs = append(errs, contentErrorf("catalog", "action %q block %d cancels into unknown action %q", a.ID, i, id))
				}
			}
		}
		for _, br := range b.Branches {
			if _, ok := c.actions[br.Next]; !ok {
				errs = append(errs, contentErrorf("catalog", "action %q block %d branches to unknown action %q", a.ID, i, br.Next))
			}
			errs = append(errs, c.checkCost(a.ID, br.Requirements.Cost)...)
		}
	}
	return errs
}

func (c *Catalog) checkRequirements(owner ID, reqs []Requirement) []error {
	var errs []error
	for _, r := range reqs {
		switch r.Kind {
		case ReqResourceFull, ReqResourceAtLeast:
			if !c.definesResource(r.Resource) {
				errs = append(errs, contentErrorf("catalog", "action %q requires undefined resource %q", owner, r.Resource))
			}
		case ReqOngoingAction:
			for _, id := range r.Actions {
				if _, ok := c.actions[id]; !ok {
					errs = append(errs, contentErrorf("catalog", "action %q requires unknown ongoing action %q", owner, id))
				}
			}
		}
	}
	return errs
}

func (c *Catalog) checkCost(owner ID, cost Cost) []error {
	var errs []error
	for _, rc := range cost {
		if !c.definesResource(rc.Resource) {
			errs = append(errs, contentErrorf("catalog", "action %q costs undefined resource %q", owner, rc.Resource))
		}
		if rc.Amount < 0 {
			errs = append(errs, contentErrorf("catalog", "action %q has negative cost %d", owner, rc.Amount))
		}
	}
	return errs
}

func (c *Catalog) definesResource(id ResourceID) bool {
	_, ok := slices.BinarySearch(c.resources, id)
	return ok
}

// Get returns the action for id.
func (c *Catalog) Get(id ID) (*Action, bool) {
	a, ok := c.actions[id]
	return a, ok
}

// MustGet returns the action for id.
//
// Precondition: id exists. A missing action is a content bug and panics with
// a *ContentError.
func (c *Catalog) MustGet(id ID) *Action {
	a, ok := c.actions[id]
	if !ok {
		panic(contentErrorf("catalog lookup", "no action %q", id))
	}
	return a
}

// IDs returns every action ID in ascending order.
func (c *Catalog) IDs() []ID { return slices.Clone(c.ids) }

// Resources returns the resources the character defines, sorted.
func (c *Catalog) Resources() []ResourceID { return slices.Clone(c.resources) }

// Len returns the number of actions.
func (c *Catalog) Len() int { return len(c.ids) }
