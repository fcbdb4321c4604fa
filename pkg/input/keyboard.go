package input

import (
	"sort"
	"sync"

	"github.com/james-see/chordid/pkg/harmony"
)

// Change is a key of the virtual keyboard going down or up. Echo is set when the
// change mirrors a hardware event rather than a user action on the keyboard itself.
type Change struct {
	Pitch harmony.Pitch
	Down  bool
	Echo  bool
}

// qwerty rows: naturals on the lower row, accidentals on the row above,
// two octaves starting at the keyboard's base C.
var bindings = map[string]int{
	"z": 0, "s": 1, "x": 2, "d": 3, "c": 4, "v": 5, "g": 6, "b": 7, "h": 8, "n": 9, "j": 10, "m": 11,
	",": 12, "l": 13, ".": 14, ";": 15, "/": 16,
	"q": 12, "2": 13, "w": 14, "3": 15, "e": 16, "r": 17, "5": 18, "t": 19, "6": 20, "y": 21, "7": 22, "u": 23,
	"i": 24, "9": 25, "o": 26, "0": 27, "p": 28,
}

const (
	minOctave     = 1
	maxOctave     = 7
	defaultOctave = 4
)

// Keyboard is the on-screen keyboard. Terminals report key presses but not
// releases, so keys latch: pressing a bound key toggles its note. A key shows as
// down while the user has it latched or any mirrored hardware note holds it, so
// the keyboard agrees with the tracker's count of each pitch.
type Keyboard struct {
	mu        sync.Mutex
	octave    int
	latched   map[harmony.Pitch]bool
	mirrored  map[harmony.Pitch]int
	listeners []func(Change)
}

// NewKeyboard creates a keyboard whose lower row starts at C4 (MIDI 60)
func NewKeyboard() *Keyboard {
	return &Keyboard{
		octave:   defaultOctave,
		latched:  make(map[harmony.Pitch]bool),
		mirrored: make(map[harmony.Pitch]int),
	}
}

// OnChange registers fn to be called after every key change
func (k *Keyboard) OnChange(fn func(Change)) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.listeners = append(k.listeners, fn)
}

// Octave returns the octave number of the lower row's C
func (k *Keyboard) Octave() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.octave
}

// ShiftOctave moves the bindings by delta octaves, clamped to the playable range
func (k *Keyboard) ShiftOctave(delta int) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.octave += delta
	if k.octave < minOctave {
		k.octave = minOctave
	}
	if k.octave > maxOctave {
		k.octave = maxOctave
	}
	return k.octave
}

// PitchFor returns the pitch bound to a qwerty key at the current octave
func (k *Keyboard) PitchFor(key string) (harmony.Pitch, bool) {
	offset, ok := bindings[key]
	if !ok {
		return 0, false
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return harmony.Pitch(12*(k.octave+1) + offset), true
}

// ToggleKey presses or releases the note bound to a qwerty key
func (k *Keyboard) ToggleKey(key string) (Change, bool) {
	p, ok := k.PitchFor(key)
	if !ok {
		return Change{}, false
	}
	return k.Toggle(p), true
}

// Toggle flips the user's latch on pitch
func (k *Keyboard) Toggle(p harmony.Pitch) Change {
	k.mu.Lock()
	down := !k.latched[p]
	if down {
		k.latched[p] = true
	} else {
		delete(k.latched, p)
	}
	k.mu.Unlock()
	return k.notify(Change{Pitch: p, Down: down})
}

// Mirror shows a hardware event on the keyboard. Listeners see Echo set.
// A hardware release with no hardware note held takes the user's latch with it,
// matching the tracker removing its only instance of the pitch.
func (k *Keyboard) Mirror(p harmony.Pitch, down bool) {
	k.mu.Lock()
	switch {
	case down:
		k.mirrored[p]++
	case k.mirrored[p] > 1:
		k.mirrored[p]--
	case k.mirrored[p] == 1:
		delete(k.mirrored, p)
	default:
		delete(k.latched, p)
	}
	k.mu.Unlock()
	k.notify(Change{Pitch: p, Down: down, Echo: true})
}

// ReleaseAll lifts every key without notifying listeners
func (k *Keyboard) ReleaseAll() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.latched = make(map[harmony.Pitch]bool)
	k.mirrored = make(map[harmony.Pitch]int)
}

// IsDown reports whether pitch is held by either source
func (k *Keyboard) IsDown(p harmony.Pitch) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.latched[p] || k.mirrored[p] > 0
}

// Down returns the held pitches in ascending order
func (k *Keyboard) Down() []harmony.Pitch {
	k.mu.Lock()
	defer k.mu.Unlock()
	res := make([]harmony.Pitch, 0, len(k.latched)+len(k.mirrored))
	for p := range k.latched {
		res = append(res, p)
	}
	for p := range k.mirrored {
		if !k.latched[p] {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

func (k *Keyboard) notify(c Change) Change {
	k.mu.Lock()
	listeners := append([]func(Change){}, k.listeners...)
	k.mu.Unlock()

	for _, fn := range listeners {
		fn(c)
	}
	return c
}
