package action

import "fmt"

// EventKind selects the Event variant.
type EventKind int

const (
	EventAnimation EventKind = iota
	EventHitbox
	EventMovement
	EventResourceDelta
	EventStatus
	EventSound
	EventVFX
)

var eventKindNames = [...]string{
	EventAnimation:     "animation",
	EventHitbox:        "hitbox",
	EventMovement:      "movement",
	EventResourceDelta: "resource_delta",
	EventStatus:        "status",
	EventSound:         "sound",
	EventVFX:           "vfx",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// ParseEventKind converts a content name to an EventKind.
func ParseEventKind(s string) (EventKind, error) {
	for i, n := range eventKindNames {
		if n == s {
			return EventKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

// Event is one outbound gameplay effect emitted on block entry. Rendering,
// physics and audio consume events; the core never interprets them.
type Event struct {
	Kind     EventKind
	Name     string     // animation clip, hitbox id, status id, sound or vfx id
	X, Y     int        // movement impulse or hitbox offset
	Resource ResourceID // EventResourceDelta
	Amount   int        // EventResourceDelta, hitbox damage
	Duration int        // frames; hitbox lifetime or status duration
}

// String renders the event for journals and logs.
func (e Event) String() string {
	switch e.Kind {
	case EventMovement:
		return fmt.Sprintf("%s(%d,%d)", e.Kind, e.X, e.Y)
	case EventHitbox:
		return fmt.Sprintf("%s(%s,%d,%d,dmg=%d,dur=%d)", e.Kind, e.Name, e.X, e.Y, e.Amount, e.Duration)
	case EventResourceDelta:
		return fmt.Sprintf("%s(%s,%+d)", e.Kind, e.Resource, e.Amount)
	case EventStatus:
		return fmt.Sprintf("%s(%s,%d)", e.Kind, e.Name, e.Duration)
	default:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Name)
	}
}
