// Package harmony identifies triads and seventh chords from interval sets and renders them
// as Roman-numeral analysis relative to a key.
package harmony

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownKey is returned when a key id or name does not match any key context
var ErrUnknownKey = errors.New("unknown key")

// Mode is the major/minor quality of a key
type Mode int

const (
	Major Mode = iota
	Minor
)

func (m Mode) String() string {
	if m == Minor {
		return "minor"
	}
	return "major"
}

// Spelling selects whether chromatic degrees are spelled with flats or sharps
type Spelling int

const (
	FlatKeys Spelling = iota
	SharpKeys
)

func (s Spelling) String() string {
	if s == SharpKeys {
		return "sharp"
	}
	return "flat"
}

// Key is one of the 30 key contexts. The zero value is the unset key.
type Key struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Tonic     int      `json:"tonic"`     // pitch class of the tonic, 0 = C
	Mode      Mode     `json:"mode"`      // major or minor
	Spelling  Spelling `json:"spelling"`  // flat-key or sharp-key context
	Signature int      `json:"signature"` // sharps (positive) or flats (negative)
}

// NoKey is the unset key context; classification is suppressed while it is selected
var NoKey = Key{}

// IsSet reports whether k is one of the 30 key contexts
func (k Key) IsSet() bool {
	return k.ID != 0
}

// Display returns the key name with Unicode accidentals, e.g. "E♭ minor"
func (k Key) Display() string {
	if !k.IsSet() {
		return "--"
	}
	tonic, mode, _ := strings.Cut(k.Name, " ")
	if len(tonic) > 1 {
		tonic = tonic[:1] + strings.NewReplacer("b", string(Flat), "#", string(Sharp)).Replace(tonic[1:])
	}
	return tonic + " " + mode
}

func (k Key) String() string {
	if !k.IsSet() {
		return "unset"
	}
	return k.Name
}

// Ids 1-15 are flat-key contexts, 16-30 sharp-key contexts.
var keys = [...]Key{
	{ID: 1, Name: "C major", Tonic: 0, Mode: Major, Spelling: FlatKeys, Signature: 0},
	{ID: 2, Name: "F major", Tonic: 5, Mode: Major, Spelling: FlatKeys, Signature: -1},
	{ID: 3, Name: "Bb major", Tonic: 10, Mode: Major, Spelling: FlatKeys, Signature: -2},
	{ID: 4, Name: "Eb major", Tonic: 3, Mode: Major, Spelling: FlatKeys, Signature: -3},
	{ID: 5, Name: "Ab major", Tonic: 8, Mode: Major, Spelling: FlatKeys, Signature: -4},
	{ID: 6, Name: "Db major", Tonic: 1, Mode: Major, Spelling: FlatKeys, Signature: -5},
	{ID: 7, Name: "Gb major", Tonic: 6, Mode: Major, Spelling: FlatKeys, Signature: -6},
	{ID: 8, Name: "Cb major", Tonic: 11, Mode: Major, Spelling: FlatKeys, Signature: -7},
	{ID: 9, Name: "D minor", Tonic: 2, Mode: Minor, Spelling: FlatKeys, Signature: -1},
	{ID: 10, Name: "G minor", Tonic: 7, Mode: Minor, Spelling: FlatKeys, Signature: -2},
	{ID: 11, Name: "C minor", Tonic: 0, Mode: Minor, Spelling: FlatKeys, Signature: -3},
	{ID: 12, Name: "F minor", Tonic: 5, Mode: Minor, Spelling: FlatKeys, Signature: -4},
	{ID: 13, Name: "Bb minor", Tonic: 10, Mode: Minor, Spelling: FlatKeys, Signature: -5},
	{ID: 14, Name: "Eb minor", Tonic: 3, Mode: Minor, Spelling: FlatKeys, Signature: -6},
	{ID: 15, Name: "Ab minor", Tonic: 8, Mode: Minor, Spelling: FlatKeys, Signature: -7},
	{ID: 16, Name: "G major", Tonic: 7, Mode: Major, Spelling: SharpKeys, Signature: 1},
	{ID: 17, Name: "D major", Tonic: 2, Mode: Major, Spelling: SharpKeys, Signature: 2},
	{ID: 18, Name: "A major", Tonic: 9, Mode: Major, Spelling: SharpKeys, Signature: 3},
	{ID: 19, Name: "E major", Tonic: 4, Mode: Major, Spelling: SharpKeys, Signature: 4},
	{ID: 20, Name: "B major", Tonic: 11, Mode: Major, Spelling: SharpKeys, Signature: 5},
	{ID: 21, Name: "F# major", Tonic: 6, Mode: Major, Spelling: SharpKeys, Signature: 6},
	{ID: 22, Name: "C# major", Tonic: 1, Mode: Major, Spelling: SharpKeys, Signature: 7},
	{ID: 23, Name: "A minor", Tonic: 9, Mode: Minor, Spelling: SharpKeys, Signature: 0},
	{ID: 24, Name: "E minor", Tonic: 4, Mode: Minor, Spelling: SharpKeys, Signature: 1},
	{ID: 25, Name: "B minor", Tonic: 11, Mode: Minor, Spelling: SharpKeys, Signature: 2},
	{ID: 26, Name: "F# minor", Tonic: 6, Mode: Minor, Spelling: SharpKeys, Signature: 3},
	{ID: 27, Name: "C# minor", Tonic: 1, Mode: Minor, Spelling: SharpKeys, Signature: 4},
	{ID: 28, Name: "G# minor", Tonic: 8, Mode: Minor, Spelling: SharpKeys, Signature: 5},
	{ID: 29, Name: "D# minor", Tonic: 3, Mode: Minor, Spelling: SharpKeys, Signature: 6},
	{ID: 30, Name: "A# minor", Tonic: 10, Mode: Minor, Spelling: SharpKeys, Signature: 7},
}

// NumKeys is the number of selectable key contexts
const NumKeys = len(keys)

// Keys returns all key contexts in id order
func Keys() []Key {
	res := make([]Key, len(keys))
	copy(res, keys[:])
	return res
}

// KeyByID returns the key with the given id. Id 0 returns NoKey.
func KeyByID(id int) (Key, error) {
	if id == 0 {
		return NoKey, nil
	}
	if id < 0 || id > len(keys) {
		return NoKey, fmt.Errorf("key id %d: %w", id, ErrUnknownKey)
	}
	return keys[id-1], nil
}

// KeyFromSignature maps a MIDI key signature (sharps/flats count and minor flag)
// to its key context
func KeyFromSignature(sf int, minor bool) (Key, error) {
	mode := Major
	if minor {
		mode = Minor
	}
	for _, k := range keys {
		if k.Signature == sf && k.Mode == mode {
			return k, nil
		}
	}
	return NoKey, fmt.Errorf("key signature %d %s: %w", sf, mode, ErrUnknownKey)
}

// ParseKey resolves a key from a numeric id or a name such as "Eb minor", "F#m",
// "bb" or "G". A bare tonic is major when upper-case and minor when lower-case.
// Empty, "0", "none" and "unset" return NoKey.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "0", "none", "unset", "--":
		return NoKey, nil
	}
	if id, err := strconv.Atoi(s); err == nil {
		return KeyByID(id)
	}

	s = strings.NewReplacer(string(Flat), "b", string(Sharp), "#").Replace(s)
	letter := s[:1]
	if !strings.Contains("ABCDEFGabcdefg", letter) {
		return NoKey, fmt.Errorf("key %q: %w", s, ErrUnknownKey)
	}
	rest := s[1:]
	accidental := ""
	if strings.HasPrefix(rest, "#") || strings.HasPrefix(rest, "b") {
		accidental, rest = rest[:1], rest[1:]
	}

	mode := Major
	if letter == strings.ToLower(letter) {
		mode = Minor
	}
	rest = strings.TrimSpace(rest)
	switch {
	case rest == "":
	case rest == "M":
		mode = Major
	case strings.EqualFold(rest, "major"), strings.EqualFold(rest, "maj"):
		mode = Major
	case strings.EqualFold(rest, "minor"), strings.EqualFold(rest, "min"), rest == "m":
		mode = Minor
	default:
		return NoKey, fmt.Errorf("key %q: %w", s, ErrUnknownKey)
	}

	name := strings.ToUpper(letter) + accidental + " " + mode.String()
	for _, k := range keys {
		if k.Name == name {
			return k, nil
		}
	}
	return NoKey, fmt.Errorf("key %q: %w", s, ErrUnknownKey)
}
