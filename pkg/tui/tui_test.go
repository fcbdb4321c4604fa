package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/james-see/chordid/pkg/harmony"
	"github.com/james-see/chordid/pkg/logger"
	"github.com/james-see/chordid/pkg/score"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func mustKey(t *testing.T, name string) harmony.Key {
	t.Helper()
	k, err := harmony.ParseKey(name)
	if err != nil {
		t.Fatalf("ParseKey(%q) error = %v", name, err)
	}
	return k
}

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	m.Run()
}

func TestMenuNavigation(t *testing.T) {
	m := New(WithKey(mustKey(t, "C")))

	m = send(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != StateKeySelect {
		t.Fatalf("state = %v, want StateKeySelect", m.state)
	}
	if m.keyIndex != 1 {
		t.Errorf("keyIndex = %d, want 1", m.keyIndex)
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != StatePlay {
		t.Fatalf("state = %v, want StatePlay", m.state)
	}
	if m.key.Name != "Bb major" {
		t.Errorf("key = %q, want Bb major", m.key.Name)
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	if m.state != StateMenu {
		t.Errorf("state = %v, want StateMenu", m.state)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if cmd != nil {
		t.Error("navigation returned a command")
	}
}

func TestKeyCycling(t *testing.T) {
	m := New()
	m.state = StatePlay

	tests := []struct {
		key  string
		want int
	}{
		{"[", 30},
		{"[", 29},
		{"]", 30},
		{"]", 0},
		{"]", 1},
	}

	for _, tt := range tests {
		m = send(t, m, runes(tt.key))
		if m.key.ID != tt.want {
			t.Errorf("after %q key id = %d, want %d", tt.key, m.key.ID, tt.want)
		}
	}
}

func TestPlayKeys(t *testing.T) {
	m := New(WithKey(mustKey(t, "C")))
	m.state = StatePlay

	m = send(t, m, runes("z"), runes("c"))
	for _, p := range []harmony.Pitch{60, 64} {
		if !m.keyboard.IsDown(p) {
			t.Errorf("pitch %d not held", p)
		}
	}

	m = send(t, m, runes("z"))
	if m.keyboard.IsDown(60) {
		t.Error("second press did not release pitch 60")
	}

	m = send(t, m, runes("="))
	if got := m.keyboard.Octave(); got != 5 {
		t.Errorf("Octave() = %d, want 5", got)
	}
	m = send(t, m, runes("-"), runes("-"))
	if got := m.keyboard.Octave(); got != 3 {
		t.Errorf("Octave() = %d, want 3", got)
	}
	if m.state != StatePlay {
		t.Errorf("state = %v, want StatePlay", m.state)
	}
}

func TestLabelMessage(t *testing.T) {
	m := New(WithKey(mustKey(t, "C")))
	m.state = StatePlay

	label := harmony.Label{Numeral: "V", UpperCase: true, Figures: []string{"6", "5"}}
	m = send(t, m, labelMsg{label: label, pitches: []harmony.Pitch{59, 62, 65, 67}})

	view := m.View()
	if !strings.Contains(view, "V6/5") {
		t.Errorf("View() missing label text:\n%s", view)
	}
	if !strings.Contains(view, "Ⅴ") {
		t.Errorf("View() missing numeral glyph:\n%s", view)
	}
	if !strings.Contains(view, "B3 D4 F4 G4") {
		t.Errorf("View() missing pitch names:\n%s", view)
	}
}

func TestRenderLabel(t *testing.T) {
	tests := []struct {
		name  string
		label harmony.Label
		lines int
		want  []string
	}{
		{"blank", harmony.Label{}, 1, nil},
		{"root", harmony.Label{Numeral: "IV", UpperCase: true}, 2, []string{"Ⅳ"}},
		{"stacked", harmony.Label{Numeral: "vii", Quality: harmony.HalfDiminished, Figures: []string{"4", "3"}}, 2, []string{"ⅶø4", "3"}},
		{"flat", harmony.Label{Numeral: "VI", UpperCase: true, Accidental: harmony.Flat}, 2, []string{"♭Ⅵ"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderLabel(tt.label)
			if n := len(strings.Split(got, "\n")); n != tt.lines {
				t.Errorf("renderLabel() has %d lines, want %d:\n%s", n, tt.lines, got)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("renderLabel() = %q, missing %q", got, w)
				}
			}
		})
	}
}

func TestPitchNames(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"Eb", "C4 E♭4 G♭4 B♭4"},
		{"E", "C4 D♯4 F♯4 A♯4"},
	}

	for _, tt := range tests {
		got := pitchNames([]harmony.Pitch{60, 63, 66, 70}, mustKey(t, tt.key))
		if got != tt.want {
			t.Errorf("pitchNames() in %s = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestAnalysisResult(t *testing.T) {
	m := New()
	m.state = StateAnalyzing
	m.selectedFile = "/tmp/cadence.mid"

	tl := &score.Timeline{
		Key:       mustKey(t, "G"),
		KeySource: score.KeySignature,
		Tempo:     120,
		Segments: []score.Segment{
			{Seconds: 0, Text: "I", Pitches: []int{67, 71, 74}},
			{Seconds: 0.5, Text: "V7", Pitches: []int{62, 66, 69, 72}},
		},
	}
	m = send(t, m, analysisDoneMsg{timeline: tl})
	if m.state != StateResult {
		t.Fatalf("state = %v, want StateResult", m.state)
	}
	view := m.View()
	for _, want := range []string{"CADENCE.MID", "G major", "V7"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.scroll != 1 {
		t.Errorf("scroll = %d, want 1", m.scroll)
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.scroll != 1 {
		t.Errorf("scroll past the last segment: %d", m.scroll)
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != StateMenu || m.timeline != nil {
		t.Errorf("enter did not return to the menu")
	}
}

func TestAnalysisError(t *testing.T) {
	m := New()
	m = send(t, m, analysisDoneMsg{err: errors.New("not a Standard MIDI File")})
	if !strings.Contains(m.View(), "Analysis failed") {
		t.Errorf("View() missing error:\n%s", m.View())
	}
}

func TestLiveLabels(t *testing.T) {
	m := New(WithKey(mustKey(t, "C")))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := m.start(ctx)
	defer stop()

	for _, key := range []string{"b", "z", "c"} {
		m.keyboard.ToggleKey(key)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-m.labels:
			if msg.label.String() == "I" {
				if len(msg.pitches) != 3 {
					t.Errorf("pitches = %v, want 3 pitches", msg.pitches)
				}
				return
			}
		case <-deadline:
			t.Fatal("no I label from the router")
		}
	}
}
