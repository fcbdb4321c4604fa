package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/james-see/chordid/pkg/harmony"
)

var letterClass = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// parsePitch reads a MIDI note number or a note name with octave, where C4 is 60
func parsePitch(s string) (harmony.Pitch, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 127 {
			return 0, fmt.Errorf("pitch %d out of range 0-127", n)
		}
		return harmony.Pitch(n), nil
	}
	if s == "" {
		return 0, fmt.Errorf("empty pitch")
	}

	class, ok := letterClass[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("invalid pitch %q", s)
	}
	rest := strings.NewReplacer(string(harmony.Flat), "b", string(harmony.Sharp), "#").Replace(s[1:])
	for len(rest) > 0 && (rest[0] == '#' || rest[0] == 'b') {
		if rest[0] == '#' {
			class++
		} else {
			class--
		}
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid pitch %q: missing octave", s)
	}

	n := 12*(octave+1) + class
	if n < 0 || n > 127 {
		return 0, fmt.Errorf("pitch %q out of range", s)
	}
	return harmony.Pitch(n), nil
}
