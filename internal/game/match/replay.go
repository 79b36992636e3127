package match

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/fightcore/internal/game/action"
)

// Replay is a recorded input stream for a whole match. Inputs carry only
// changes: stick, held buttons, ground state, facing, speed and resource
// overrides persist until changed, while triggers and hits apply to a
// single frame.
type Replay struct {
	Name       string
	Characters [Sides]string
	Depth      int
	Length     int
	Inputs     []ReplayInput
}

// ReplayInput changes one side's state at Frame.
type ReplayInput struct {
	Frame     action.Frame
	Side      int
	Triggers  []action.ID
	Hit       bool
	Held      *action.Button
	Stick     *action.Stick
	Grounded  *bool
	Facing    *action.Facing
	Speed     *int
	Resources map[action.ResourceID]int
}

type yamlReplay struct {
	Name       string            `yaml:"name"`
	Characters []string          `yaml:"characters"`
	Depth      int               `yaml:"buffer_depth"`
	Length     int               `yaml:"frames"`
	Inputs     []yamlReplayInput `yaml:"inputs"`
}

type yamlReplayInput struct {
	Frame     int            `yaml:"frame"`
	Side      string         `yaml:"side"`
	Triggers  []string       `yaml:"triggers"`
	Hit       bool           `yaml:"hit"`
	Held      *[]string      `yaml:"held"`
	Stick     *int           `yaml:"stick"`
	Grounded  *bool          `yaml:"grounded"`
	Facing    string         `yaml:"facing"`
	Speed     *int           `yaml:"speed"`
	Resources map[string]int `yaml:"resources"`
}

// LoadReplay reads a replay YAML file.
//
// Precondition: path names a readable YAML file.
// Postcondition: Returns a structurally valid Replay or a non-nil error.
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading replay %s: %w", path, err)
	}
	r, err := ParseReplay(data)
	if err != nil {
		return nil, fmt.Errorf("loading replay %s: %w", path, err)
	}
	return r, nil
}

// ParseReplay decodes replay YAML. Unknown fields are rejected.
func ParseReplay(data []byte) (*Replay, error) {
	var yr yamlReplay
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&yr); err != nil {
		return nil, fmt.Errorf("parsing replay YAML: %w", err)
	}
	return convertYAMLReplay(yr)
}

func convertYAMLReplay(yr yamlReplay) (*Replay, error) {
	var errs []error
	if len(yr.Characters) != Sides {
		errs = append(errs, fmt.Errorf("replay needs exactly %d characters, got %d", Sides, len(yr.Characters)))
	}
	if yr.Length <= 0 {
		errs = append(errs, fmt.Errorf("replay frames must be > 0, got %d", yr.Length))
	}
	if yr.Depth < 0 {
		errs = append(errs, fmt.Errorf("replay buffer_depth must be >= 0, got %d", yr.Depth))
	}
	r := &Replay{Name: yr.Name, Depth: yr.Depth, Length: yr.Length}
	copy(r.Characters[:], yr.Characters)

	for i, yi := range yr.Inputs {
		in, err := convertYAMLReplayInput(yi)
		if err != nil {
			errs = append(errs, fmt.Errorf("input %d: %w", i, err))
			continue
		}
		if int(in.Frame) >= yr.Length || in.Frame < 0 {
			errs = append(errs, fmt.Errorf("input %d: frame %d outside [0,%d)", i, in.Frame, yr.Length))
			continue
		}
		r.Inputs = append(r.Inputs, in)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	slices.SortStableFunc(r.Inputs, func(a, b ReplayInput) int { return int(a.Frame - b.Frame) })
	return r, nil
}

func convertYAMLReplayInput(yi yamlReplayInput) (ReplayInput, error) {
	in := ReplayInput{
		Frame:    action.Frame(yi.Frame),
		Hit:      yi.Hit,
		Grounded: yi.Grounded,
		Speed:    yi.Speed,
	}
	switch yi.Side {
	case "p1", "1":
		in.Side = 0
	case "p2", "2":
		in.Side = 1
	default:
		return ReplayInput{}, fmt.Errorf("unknown side %q", yi.Side)
	}
	for _, t := range yi.Triggers {
		in.Triggers = append(in.Triggers, action.ID(t))
	}
	if yi.Held != nil {
		var held action.Button
		for _, n := range *yi.Held {
			b, ok := action.ParseButton(n)
			if !ok {
				return ReplayInput{}, fmt.Errorf("unknown button %q", n)
			}
			held |= b
		}
		in.Held = &held
	}
	if yi.Stick != nil {
		if *yi.Stick < 1 || *yi.Stick > 9 {
			return ReplayInput{}, fmt.Errorf("stick %d outside 1-9", *yi.Stick)
		}
		s := action.Stick(*yi.Stick)
		in.Stick = &s
	}
	switch yi.Facing {
	case "":
	case "right":
		f := action.FacingRight
		in.Facing = &f
	case "left":
		f := action.FacingLeft
		in.Facing = &f
	default:
		return ReplayInput{}, fmt.Errorf("unknown facing %q", yi.Facing)
	}
	if len(yi.Resources) > 0 {
		in.Resources = make(map[action.ResourceID]int, len(yi.Resources))
		for k, v := range yi.Resources {
			in.Resources[action.ResourceID(k)] = v
		}
	}
	return in, nil
}

// sideState is the persistent per-side situation a replay drives.
type sideState struct {
	params action.SituationParams
}

func newSideState(c *action.Character) *sideState {
	return &sideState{params: action.SituationParams{
		Grounded:  true,
		Resources: c.FullResources(),
		Stick:     5,
	}}
}

func (s *sideState) apply(in ReplayInput) {
	if in.Held != nil {
		s.params.Held = *in.Held
	}
	if in.Stick != nil {
		s.params.Stick = *in.Stick
	}
	if in.Grounded != nil {
		s.params.Grounded = *in.Grounded
	}
	if in.Facing != nil {
		s.params.Facing = *in.Facing
	}
	if in.Speed != nil {
		s.params.Stats.ActionSpeed = *in.Speed
	}
	for id, v := range in.Resources {
		s.setResource(id, v)
	}
}

// pay applies resource-delta events, clamped to [0, max].
func (s *sideState) pay(events []action.Event) {
	for _, e := range events {
		if e.Kind != action.EventResourceDelta {
			continue
		}
		if r, ok := s.params.Resources[e.Resource]; ok {
			s.setResource(e.Resource, r.Value+e.Amount)
		}
	}
}

func (s *sideState) setResource(id action.ResourceID, v int) {
	r, ok := s.params.Resources[id]
	if !ok {
		return
	}
	r.Value = min(max(v, 0), r.Max)
	s.params.Resources[id] = r
}

// Run simulates r from frame 0 to r.Length-1 against chars, keyed by
// character name. A zero r.Depth falls back to defaultDepth.
//
// Postcondition: Returns the finished match or an error if a character or
// trigger does not resolve. Replays never panic on bad content references.
func Run(r *Replay, chars map[string]*action.Character, defaultDepth int, logger *zap.Logger) (*Match, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var players [Sides]Player
	var sides [Sides]*sideState
	for i, name := range r.Characters {
		c, ok := chars[name]
		if !ok {
			return nil, fmt.Errorf("replay %q: unknown character %q", r.Name, name)
		}
		players[i] = Player{Name: fmt.Sprintf("p%d:%s", i+1, name), Catalog: c.Catalog}
		sides[i] = newSideState(c)
	}
	for _, in := range r.Inputs {
		for _, id := range in.Triggers {
			if _, ok := players[in.Side].Catalog.Get(id); !ok {
				return nil, fmt.Errorf("replay %q frame %d: %s has no action %q", r.Name, in.Frame, r.Characters[in.Side], id)
			}
		}
	}

	depth := r.Depth
	if depth == 0 {
		depth = defaultDepth
	}
	m := New(players[0], players[1], depth, logger)

	next := 0
	for f := action.Frame(0); int(f) < r.Length; f++ {
		fi := FrameInput{Frame: f}
		for ; next < len(r.Inputs) && r.Inputs[next].Frame == f; next++ {
			in := r.Inputs[next]
			sides[in.Side].apply(in)
			for _, id := range in.Triggers {
				fi.Triggers[in.Side] = append(fi.Triggers[in.Side], action.Trigger{Action: id, Frame: f})
			}
			fi.Hits[in.Side] = fi.Hits[in.Side] || in.Hit
		}
		for i, s := range sides {
			fi.Params[i] = s.params
		}
		out := m.Step(fi)
		for i, s := range sides {
			s.pay(out.Results[i].Events)
		}
	}
	logger.Debug("replay finished",
		zap.String("replay", r.Name),
		zap.Int("frames", r.Length),
		zap.String("checksum", m.Checksum()),
	)
	return m, nil
}
