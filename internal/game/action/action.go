package action

import "unicode"

// Action is an immutable move template shared by every actor of a character.
type Action struct {
	ID ID
	// Input is the motion/button pattern in numpad notation, e.g. "236LP" or
	// "[4]6HP" for a charge. Empty for moves only reachable by branch.
	Input string
	// Category is the action's own cancel tier. Windows must be strictly
	// above it to be interrupted into it.
	Category     Level
	Script       []Block
	Requirements []Requirement
	Cost         Cost

	complexity int
}

// Complexity returns the input-complexity score used as the primary
// selection key. Longer or more constrained inputs score higher.
func (a *Action) Complexity() int { return a.complexity }

// Phase returns the script block at index i.
//
// Precondition: 0 <= i < len(a.Script). Anything else is a content bug and
// panics with a *ContentError.
func (a *Action) Phase(i int) Block {
	if i < 0 || i >= len(a.Script) {
		panic(contentErrorf("phase lookup", "action %q has %d blocks, index %d requested", a.ID, len(a.Script), i))
	}
	return a.Script[i]
}

// target returns the action as a cancel-query target.
func (a *Action) target() Target {
	return Target{ID: a.ID, Level: a.Category}
}

// InputComplexity scores an input pattern.
//
// Each non-neutral direction counts 1, each button token counts 1, and a
// charge bracket adds 1 on top of its contents. Separators count nothing.
func InputComplexity(pattern string) int {
	score := 0
	inButton := false
	for _, r := range pattern {
		switch {
		case r >= '1' && r <= '9':
			inButton = false
			if r != '5' {
				score++
			}
		case r == '[':
			inButton = false
			score++
		case unicode.IsUpper(r):
			if !inButton {
				score++
			}
			inButton = true
		default:
			inButton = false
		}
	}
	return score
}
