package input

import (
	"strconv"
	"strings"

	"github.com/james-see/chordid/pkg/harmony"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrNoPort is returned when no input port matches a selection
var ErrNoPort = errors.New("no matching MIDI input port")

// Port describes one MIDI input port
type Port struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// ListPorts returns the MIDI input ports of the registered driver
func ListPorts() []Port {
	return portsOf(midi.GetInPorts())
}

func portsOf(ins []drivers.In) []Port {
	res := make([]Port, 0, len(ins))
	for _, in := range ins {
		res = append(res, Port{Index: in.Number(), Name: in.String()})
	}
	return res
}

// FindPort selects an input port by index or by case-insensitive name substring.
// An empty selection picks the first port.
func FindPort(selection string) (drivers.In, error) {
	return findPort(midi.GetInPorts(), selection)
}

func findPort(ins []drivers.In, selection string) (drivers.In, error) {
	if len(ins) == 0 {
		return nil, ErrNoPort
	}
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return ins[0], nil
	}
	if idx, err := strconv.Atoi(selection); err == nil {
		for _, in := range ins {
			if in.Number() == idx {
				return in, nil
			}
		}
		return nil, errors.Wrapf(ErrNoPort, "index %d", idx)
	}
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), strings.ToLower(selection)) {
			return in, nil
		}
	}
	return nil, errors.Wrapf(ErrNoPort, "name %q", selection)
}

// Listen forwards note starts and ends from in to the router as hardware events.
// The returned stop function closes the listener.
func Listen(in drivers.In, r *Router) (stop func(), err error) {
	stop, err = midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		if ev, ok := eventFromMessage(msg); ok {
			r.Submit(ev)
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listen to %s", in.String())
	}
	return stop, nil
}

// eventFromMessage converts a channel message into a hardware event. Note-on with
// velocity 0 counts as note-off; controller 123 releases everything.
func eventFromMessage(msg midi.Message) (Event, bool) {
	var ch, key, vel, ctl, val uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return Event{Kind: NoteOn, Source: Hardware, Pitch: harmony.Pitch(key), Velocity: vel}, true
	case msg.GetNoteEnd(&ch, &key):
		return Event{Kind: NoteOff, Source: Hardware, Pitch: harmony.Pitch(key)}, true
	case msg.GetControlChange(&ch, &ctl, &val) && ctl == 123:
		return Event{Kind: AllNotesOff, Source: Hardware}, true
	}
	return Event{}, false
}
