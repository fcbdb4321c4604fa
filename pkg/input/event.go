// Package input feeds note and key events from hardware MIDI ports and the on-screen
// keyboard into a single serialized queue in front of a sonority tracker.
package input

import (
	"fmt"

	"github.com/james-see/chordid/pkg/harmony"
)

// Kind is the type of an input event
type Kind int

const (
	NoteOn Kind = iota
	NoteOff
	KeyChange
	AllNotesOff
)

func (k Kind) String() string {
	switch k {
	case NoteOn:
		return "note-on"
	case NoteOff:
		return "note-off"
	case KeyChange:
		return "key-change"
	case AllNotesOff:
		return "all-notes-off"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Source identifies the physical path an event arrived on
type Source int

const (
	Hardware Source = iota
	Virtual
)

func (s Source) String() string {
	if s == Virtual {
		return "virtual"
	}
	return "hardware"
}

// Event is one note or key change
type Event struct {
	Kind     Kind
	Source   Source
	Pitch    harmony.Pitch
	Velocity uint8
	KeyID    int // KeyChange only; 0 unsets the key
}

func (e Event) String() string {
	switch e.Kind {
	case NoteOn, NoteOff:
		return fmt.Sprintf("%s %s pitch=%d", e.Source, e.Kind, e.Pitch)
	case KeyChange:
		return fmt.Sprintf("%s %s key=%d", e.Source, e.Kind, e.KeyID)
	default:
		return fmt.Sprintf("%s %s", e.Source, e.Kind)
	}
}
