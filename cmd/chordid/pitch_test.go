package main

import (
	"testing"

	"github.com/james-see/chordid/pkg/harmony"
)

func TestParsePitch(t *testing.T) {
	tests := []struct {
		in      string
		want    harmony.Pitch
		wantErr bool
	}{
		{"60", 60, false},
		{"C4", 60, false},
		{"c4", 60, false},
		{"F#3", 54, false},
		{"Bb2", 46, false},
		{"E♭4", 63, false},
		{"Cb4", 59, false},
		{"B#3", 60, false},
		{"G-1", 7, false},
		{"128", 0, true},
		{"-3", 0, true},
		{"H4", 0, true},
		{"C", 0, true},
		{"", 0, true},
		{"A9", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePitch(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePitch(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parsePitch(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
