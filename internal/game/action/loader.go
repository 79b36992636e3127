package action

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ResourceDef declares a resource a character owns.
type ResourceDef struct {
	ID  ResourceID
	Max int
}

// Character is one loaded move-list file.
type Character struct {
	Name      string
	Resources []ResourceDef
	Catalog   *Catalog
}

// FullResources returns every declared resource at its maximum, as a
// starting point for SituationParams.
func (c *Character) FullResources() map[ResourceID]Resource {
	out := make(map[ResourceID]Resource, len(c.Resources))
	for _, r := range c.Resources {
		out[r.ID] = Resource{Value: r.Max, Max: r.Max}
	}
	return out
}

type yamlCharacter struct {
	Character string         `yaml:"character"`
	Resources []yamlResource `yaml:"resources"`
	Actions   []yamlAction   `yaml:"actions"`
}

type yamlResource struct {
	ID  string `yaml:"id"`
	Max int    `yaml:"max"`
}

type yamlAction struct {
	ID           string            `yaml:"id"`
	Input        string            `yaml:"input"`
	Category     string            `yaml:"category"`
	Requirements []yamlRequirement `yaml:"requirements"`
	Cost         []yamlCost        `yaml:"cost"`
	Script       []yamlBlock       `yaml:"script"`
}

type yamlRequirement struct {
	Kind     string   `yaml:"kind"`
	Actions  []string `yaml:"actions"`
	Items    []string `yaml:"items"`
	Resource string   `yaml:"resource"`
	Value    int      `yaml:"value"`
	Buttons  []string `yaml:"buttons"`
}

type yamlCost struct {
	Resource string `yaml:"resource"`
	Amount   int    `yaml:"amount"`
}

type yamlBlock struct {
	Events   []yamlEvent  `yaml:"events"`
	Exit     yamlExit     `yaml:"exit"`
	Cancel   []yamlCancel `yaml:"cancel"`
	Mutator  string       `yaml:"mutator"`
	Branches []yamlBranch `yaml:"branches"`
}

type yamlEvent struct {
	Kind     string `yaml:"kind"`
	Name     string `yaml:"name"`
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
	Resource string `yaml:"resource"`
	Amount   int    `yaml:"amount"`
	Duration int    `yaml:"duration"`
}

type yamlExit struct {
	Time *int              `yaml:"time"`
	When []yamlRequirement `yaml:"when"`
}

type yamlCancel struct {
	Level       string   `yaml:"level"`
	RequiresHit bool     `yaml:"requires_hit"`
	Specific    []string `yaml:"specific"`
}

type yamlBranch struct {
	Next        string     `yaml:"next"`
	RequiresHit bool       `yaml:"requires_hit"`
	Cost        []yamlCost `yaml:"cost"`
	Items       []string   `yaml:"items"`
	Held        []string   `yaml:"held"`
	Ground      string     `yaml:"ground"`
}

// LoadCharacterFile reads and validates one move-list YAML file.
//
// Precondition: path names a readable YAML file.
// Postcondition: Returns a Character with a validated Catalog or a non-nil error.
func LoadCharacterFile(path string) (*Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading move list %s: %w", path, err)
	}
	c, err := LoadCharacterBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return c, nil
}

// LoadCharacterBytes parses and validates a move list from YAML bytes.
// Unknown fields are rejected.
func LoadCharacterBytes(data []byte) (*Character, error) {
	var yc yamlCharacter
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&yc); err != nil {
		return nil, fmt.Errorf("parsing move list YAML: %w", err)
	}
	if yc.Character == "" {
		return nil, contentErrorf("move list", "character name must not be empty")
	}
	return convertYAMLCharacter(yc)
}

// LoadCharacterDir loads every *.yaml/*.yml file in dir, keyed by character
// name.
//
// Postcondition: Returns at least one character or an error; duplicate
// character names are an error.
func LoadCharacterDir(dir string) (map[string]*Character, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading move list directory %s: %w", dir, err)
	}
	out := make(map[string]*Character)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		c, err := LoadCharacterFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if _, dup := out[c.Name]; dup {
			return nil, contentErrorf("move list", "character %q defined twice (second in %s)", c.Name, name)
		}
		out[c.Name] = c
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no move list files found in %s", dir)
	}
	return out, nil
}

func convertYAMLCharacter(yc yamlCharacter) (*Character, error) {
	var errs []error
	c := &Character{Name: yc.Character}
	resourceIDs := make([]ResourceID, 0, len(yc.Resources))
	for _, yr := range yc.Resources {
		if yr.ID == "" || yr.Max < 0 {
			errs = append(errs, contentErrorf("move list", "resource %q has invalid definition", yr.ID))
			continue
		}
		c.Resources = append(c.Resources, ResourceDef{ID: ResourceID(yr.ID), Max: yr.Max})
		resourceIDs = append(resourceIDs, ResourceID(yr.ID))
	}

	actions := make([]*Action, 0, len(yc.Actions))
	for _, ya := range yc.Actions {
		a, err := convertYAMLAction(ya)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		actions = append(actions, a)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	cat, err := NewCatalog(resourceIDs, actions)
	if err != nil {
		return nil, fmt.Errorf("character %q: %w", yc.Character, err)
	}
	c.Catalog = cat
	return c, nil
}

func convertYAMLAction(ya yamlAction) (*Action, error) {
	wrap := func(err error) error { return fmt.Errorf("action %q: %w", ya.ID, err) }

	level, err := ParseLevel(ya.Category)
	if err != nil {
		return nil, wrap(err)
	}
	reqs, err := convertRequirements(ya.Requirements)
	if err != nil {
		return nil, wrap(err)
	}
	a := &Action{
		ID:           ID(ya.ID),
		Input:        ya.Input,
		Category:     level,
		Requirements: reqs,
		Cost:         convertCost(ya.Cost),
	}
	for i, yb := range ya.Script {
		b, err := convertBlock(yb)
		if err != nil {
			return nil, wrap(fmt.Errorf("block %d: %w", i, err))
		}
		a.Script = append(a.Script, b)
	}
	return a, nil
}

func convertBlock(yb yamlBlock) (Block, error) {
	var b Block
	for _, ye := range yb.Events {
		kind, err := ParseEventKind(ye.Kind)
		if err != nil {
			return Block{}, err
		}
		b.Events = append(b.Events, Event{
			Kind:     kind,
			Name:     ye.Name,
			X:        ye.X,
			Y:        ye.Y,
			Resource: ResourceID(ye.Resource),
			Amount:   ye.Amount,
			Duration: ye.Duration,
		})
	}

	switch {
	case yb.Exit.Time != nil && len(yb.Exit.When) > 0:
		return Block{}, errors.New("exit may set time or when, not both")
	case yb.Exit.Time != nil:
		b.Exit = ExitAfter(*yb.Exit.Time)
	case len(yb.Exit.When) > 0:
		conds, err := convertRequirements(yb.Exit.When)
		if err != nil {
			return Block{}, err
		}
		b.Exit = ExitWhen(conds...)
	default:
		b.Exit = ExitNever()
	}

	for _, yc := range yb.Cancel {
		level, err := ParseLevel(yc.Level)
		if err != nil {
			return Block{}, err
		}
		rule := CancelRule{RequiresHit: yc.RequiresHit, Level: level}
		for _, id := range yc.Specific {
			rule.Specific = append(rule.Specific, ID(id))
		}
		b.Cancel = append(b.Cancel, rule)
	}

	m, ok := ParseMutator(yb.Mutator)
	if !ok {
		return Block{}, fmt.Errorf("unknown mutator %q", yb.Mutator)
	}
	b.Mutator = m

	for _, ybr := range yb.Branches {
		br, err := convertBranch(ybr)
		if err != nil {
			return Block{}, err
		}
		b.Branches = append(b.Branches, br)
	}
	return b, nil
}

func convertBranch(ybr yamlBranch) (Branch, error) {
	held, err := convertButtons(ybr.Held)
	if err != nil {
		return Branch{}, err
	}
	var ground GroundState
	switch ybr.Ground {
	case "", "any":
		ground = GroundAny
	case "grounded":
		ground = GroundOnly
	case "airborne":
		ground = AirOnly
	default:
		return Branch{}, fmt.Errorf("unknown ground state %q", ybr.Ground)
	}
	br := Branch{
		Next: ID(ybr.Next),
		Requirements: Requirements{
			RequiresHit: ybr.RequiresHit,
			Cost:        convertCost(ybr.Cost),
			Held:        held,
			Ground:      ground,
		},
	}
	for _, it := range ybr.Items {
		br.Requirements.Items = append(br.Requirements.Items, ItemID(it))
	}
	return br, nil
}

func convertRequirements(yrs []yamlRequirement) ([]Requirement, error) {
	out := make([]Requirement, 0, len(yrs))
	for _, yr := range yrs {
		var r Requirement
		switch yr.Kind {
		case "grounded":
			r = Grounded()
		case "airborne":
			r = Airborne()
		case "ongoing_action":
			ids := make([]ID, 0, len(yr.Actions))
			for _, id := range yr.Actions {
				ids = append(ids, ID(id))
			}
			r = OngoingAction(ids...)
		case "items_owned":
			items := make([]ItemID, 0, len(yr.Items))
			for _, it := range yr.Items {
				items = append(items, ItemID(it))
			}
			r = ItemsOwned(items...)
		case "resource_full":
			r = ResourceFull(ResourceID(yr.Resource))
		case "resource_at_least":
			r = ResourceAtLeast(ResourceID(yr.Resource), yr.Value)
		case "buttons_held", "buttons_released":
			b, err := convertButtons(yr.Buttons)
			if err != nil {
				return nil, err
			}
			if yr.Kind == "buttons_held" {
				r = ButtonsHeld(b)
			} else {
				r = ButtonsReleased(b)
			}
		default:
			return nil, fmt.Errorf("unknown requirement kind %q", yr.Kind)
		}
		out = append(out, r)
	}
	return out, nil
}

func convertButtons(names []string) (Button, error) {
	var b Button
	for _, n := range names {
		btn, ok := ParseButton(n)
		if !ok {
			return 0, fmt.Errorf("unknown button %q", n)
		}
		b |= btn
	}
	return b, nil
}

func convertCost(ycs []yamlCost) Cost {
	if len(ycs) == 0 {
		return nil
	}
	out := make(Cost, 0, len(ycs))
	for _, yc := range ycs {
		out = append(out, ResourceCost{Resource: ResourceID(yc.Resource), Amount: yc.Amount})
	}
	return slices.Clip(out)
}
