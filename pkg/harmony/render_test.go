package harmony

import (
	"errors"
	"reflect"
	"testing"
)

func mustKey(t *testing.T, name string) Key {
	t.Helper()
	k, err := ParseKey(name)
	if err != nil {
		t.Fatalf("ParseKey(%q) error = %v", name, err)
	}
	return k
}

func pitches(ps ...int) []Pitch {
	res := make([]Pitch, len(ps))
	for i, p := range ps {
		res[i] = Pitch(p)
	}
	return res
}

func TestClassifyPitches(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		notes   []int
		want    string
		upper   bool
		figures []string
	}{
		{"tonic triad", "C major", []int{60, 64, 67}, "I", true, nil},
		{"tonic first inversion", "C major", []int{64, 67, 72}, "I6", true, []string{"6"}},
		{"cadential six-four", "C major", []int{67, 72, 76}, "V6/4", true, []string{"6", "4"}},
		{"cadential six-four with fifth", "C major", []int{67, 72, 76, 74}, "V6/4", true, []string{"6", "4"}},
		{"subdominant six-four", "C major", []int{60, 65, 69}, "IV6/4", true, []string{"6", "4"}},
		{"leading-tone diminished seventh", "C major", []int{59, 62, 65, 68}, "viio7", false, []string{"7"}},
		{"supertonic minor", "C major", []int{62, 65, 69}, "ii", false, nil},
		{"mediant first inversion", "C major", []int{67, 71, 76}, "iii6", false, []string{"6"}},
		{"submediant second inversion", "C major", []int{64, 69, 72}, "vi6/4", false, []string{"6", "4"}},
		{"dominant seventh", "C major", []int{55, 59, 62, 65}, "V7", true, []string{"7"}},
		{"dominant six-five", "C major", []int{59, 62, 65, 67}, "V6/5", true, []string{"6", "5"}},
		{"dominant four-three", "C major", []int{62, 65, 67, 71}, "V4/3", true, []string{"4", "3"}},
		{"dominant four-two", "C major", []int{53, 55, 59, 62}, "V4/2", true, []string{"4", "2"}},
		{"half-diminished supertonic in minor", "C minor", []int{62, 65, 68, 72}, "iiø7", false, []string{"7"}},
		{"half-diminished leading tone", "C major", []int{59, 62, 65, 69}, "viiø7", false, []string{"7"}},
		{"minor seventh first inversion", "C major", []int{65, 69, 72, 74}, "ii6/5", false, []string{"6", "5"}},
		{"major seventh", "C major", []int{60, 64, 67, 71}, "I7", true, []string{"7"}},
		{"major seventh third inversion", "F major", []int{64, 65, 69, 72}, "I4/2", true, []string{"4", "2"}},
		{"augmented mediant in minor", "A minor", []int{60, 64, 68}, "III+", true, nil},
		{"diminished triad", "C major", []int{59, 62, 65}, "viio", false, nil},
		{"diminished first inversion", "C major", []int{62, 65, 71}, "viio6", false, []string{"6"}},
		{"diminished second inversion", "C major", []int{65, 71, 74}, "viio6/4", false, []string{"6", "4"}},
		{"suspension over tonic", "C major", []int{60, 62, 65, 67}, "I4/2", true, []string{"4", "2"}},
		{"flat seven in flat key", "C major", []int{58, 62, 65}, "♭VII", true, nil},
		{"sharp four in sharp key", "G major", []int{61, 64, 68}, "♯iv", false, nil},
		{"flat five in flat key", "F major", []int{59, 62, 66}, "♭v", false, nil},
		{"neapolitan sixth", "C major", []int{65, 68, 73}, "♭II6", true, []string{"6"}},
		{"flat three in major", "C major", []int{63, 67, 70}, "♭III", true, nil},
		{"sharp two in sharp major", "D major", []int{65, 68, 72}, "♯ii", false, nil},
		{"diatonic three in minor", "C minor", []int{63, 67, 70}, "III", true, nil},
		{"diatonic six in minor", "C minor", []int{56, 60, 63}, "VI", true, nil},
		{"flat six in major", "C major", []int{56, 60, 63}, "♭VI", true, nil},
		{"sharp five in sharp major", "A major", []int{65, 69, 72}, "♯V", true, nil},
		{"raised six in minor", "A minor", []int{66, 69, 72}, "♯vio", false, nil},
		{"subtonic in flat minor", "C minor", []int{58, 62, 65}, "♭VII", true, nil},
		{"leading-tone major in flat minor", "C minor", []int{59, 63, 66}, "VII", true, nil},
		{"subtonic in sharp minor", "A minor", []int{55, 59, 62}, "♯VI", true, nil},
		{"leading-tone major in sharp minor", "A minor", []int{56, 60, 63}, "VII", true, nil},
		{"picardy tonic in minor", "E minor", []int{52, 56, 59}, "I", true, nil},
		{"transposed tonic", "Eb major", []int{51, 55, 58}, "I", true, nil},
		{"octave doublings", "C major", []int{48, 60, 64, 67, 72, 76}, "I", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, ok := ClassifyPitches(pitches(tt.notes...), mustKey(t, tt.key))
			if !ok {
				t.Fatalf("ClassifyPitches(%v, %s) returned no label", tt.notes, tt.key)
			}
			if got := label.String(); got != tt.want {
				t.Errorf("label = %q, want %q", got, tt.want)
			}
			if label.UpperCase != tt.upper {
				t.Errorf("UpperCase = %v, want %v", label.UpperCase, tt.upper)
			}
			if !reflect.DeepEqual(label.Figures, tt.figures) {
				t.Errorf("Figures = %v, want %v", label.Figures, tt.figures)
			}
		})
	}
}

func TestClassifyBlank(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		notes []int
	}{
		{"no notes", "C major", nil},
		{"single note", "C major", []int{60}},
		{"octave", "C major", []int{60, 72}},
		{"open fifth", "C major", []int{60, 67}},
		{"open fifth doubled", "G major", []int{43, 50, 55, 62}},
		{"cluster", "C major", []int{60, 61, 62}},
		{"key unset", "", []int{60, 64, 67}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := ParseKey(tt.key)
			if err != nil {
				t.Fatalf("ParseKey(%q) error = %v", tt.key, err)
			}
			if label, ok := ClassifyPitches(pitches(tt.notes...), k); ok {
				t.Errorf("ClassifyPitches(%v) = %q, want no label", tt.notes, label)
			}
		})
	}
}

func TestSingleIntervalNeverLabels(t *testing.T) {
	for _, k := range Keys() {
		for interval := 1; interval < 12; interval++ {
			if label, ok := Classify(60, IntervalSet{interval}, k); ok {
				t.Errorf("Classify({%d}, %s) = %q, want no label", interval, k, label)
			}
		}
	}
}

func TestDiminishedSeventhInversions(t *testing.T) {
	c := mustKey(t, "C major")
	tests := []struct {
		bass Pitch
		want string
	}{
		{59, "viio7"},
		{62, "viio6/5"},
		{65, "viio4/3"},
		{68, "viio4/2"},
	}

	for _, tt := range tests {
		label, err := Render(DiminishedSeventh, tt.bass, c)
		if err != nil {
			t.Fatalf("Render(%d) error = %v", tt.bass, err)
		}
		if label.String() != tt.want {
			t.Errorf("Render(%d) = %q, want %q", tt.bass, label, tt.want)
		}
	}

	if _, err := Render(DiminishedSeventh, 61, c); !errors.Is(err, ErrUnresolvedInversion) {
		t.Errorf("Render(61) error = %v, want ErrUnresolvedInversion", err)
	}
}

func TestCadentialSixFour(t *testing.T) {
	g := mustKey(t, "G major")
	// D major six-four in G is V6/4 literally; the tonic six-four becomes V6/4 too
	label, _ := ClassifyPitches(pitches(69, 74, 78), g)
	if label.String() != "V6/4" {
		t.Errorf("dominant six-four = %q, want V6/4", label)
	}
	label, _ = ClassifyPitches(pitches(62, 67, 71), g)
	if label.String() != "V6/4" {
		t.Errorf("tonic six-four = %q, want V6/4", label)
	}
	// minor six-four on the tonic stays i6/4
	label, _ = ClassifyPitches(pitches(62, 67, 70), mustKey(t, "G minor"))
	if label.String() != "i6/4" {
		t.Errorf("minor tonic six-four = %q, want i6/4", label)
	}
}

func TestRenderRequiresKey(t *testing.T) {
	if _, err := Render(MajorTriadRoot, 60, NoKey); !errors.Is(err, ErrNoKey) {
		t.Errorf("Render() error = %v, want ErrNoKey", err)
	}
}

func TestRenderPanicsOnMissingRule(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Render() with no rendering rule did not panic")
		}
	}()
	_, _ = Render(Identity(999), 60, keys[0])
}

func TestEveryTableEntryRenders(t *testing.T) {
	for set, id := range chordTable {
		if _, ok := voicings[id]; !ok {
			t.Errorf("identity %v for %s has no rendering rule", id, set)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	for set, id := range chordTable {
		intervals := parseSetKey(t, set)
		for _, k := range Keys() {
			for bass := Pitch(48); bass < 60; bass++ {
				a, okA := Classify(bass, intervals, k)
				b, okB := Classify(bass, intervals, k)
				if okA != okB || !reflect.DeepEqual(a, b) {
					t.Fatalf("Classify(%d, %s, %s) not deterministic", bass, set, k)
				}
				if okA && a.Chord != id {
					t.Fatalf("Classify(%d, %s) chord = %v, want %v", bass, set, a.Chord, id)
				}
			}
		}
	}
}

func TestSpellingsCoverSevenSteps(t *testing.T) {
	for mode := range spellings {
		for class := range spellings[mode] {
			for degree, sp := range spellings[mode][class] {
				if sp.step < 0 || sp.step > 6 {
					t.Errorf("spellings[%d][%d][%d] step = %d out of range", mode, class, degree, sp.step)
				}
				natural := degree == 0 || degree == 2 || degree == 5 || degree == 7
				if natural && sp.accidental != Natural {
					t.Errorf("spellings[%d][%d][%d] = %q, want no accidental", mode, class, degree, sp.accidental)
				}
			}
		}
	}
}

func parseSetKey(t *testing.T, key string) IntervalSet {
	t.Helper()
	var res IntervalSet
	n := 0
	for _, r := range key + "-" {
		if r == '-' {
			res = append(res, n)
			n = 0
			continue
		}
		n = n*10 + int(r-'0')
	}
	return res
}
