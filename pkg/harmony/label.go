package harmony

import "strings"

// Accidental is the symbol placed before a chromatically altered numeral
type Accidental string

const (
	Natural Accidental = ""
	Flat    Accidental = "♭"
	Sharp   Accidental = "♯"
)

// Quality is the chord-quality mark placed after the numeral
type Quality string

const (
	Plain          Quality = ""
	Augmented      Quality = "+"
	Diminished     Quality = "o"
	HalfDiminished Quality = "ø"
)

// Label is a rendered Roman-numeral analysis. The zero value is the blank label.
type Label struct {
	Numeral    string     `json:"numeral"`
	UpperCase  bool       `json:"upper_case"`
	Figures    []string   `json:"figures,omitempty"`
	Quality    Quality    `json:"quality,omitempty"`
	Accidental Accidental `json:"accidental,omitempty"`
	Chord      Identity   `json:"chord"`
}

// IsBlank reports whether l carries no analysis
func (l Label) IsBlank() bool {
	return l.Numeral == ""
}

// Figure returns the inversion figures joined with "/", e.g. "6/4"
func (l Label) Figure() string {
	return strings.Join(l.Figures, "/")
}

// String renders the label on one line, e.g. "♭VII", "V6/4", "viio7"
func (l Label) String() string {
	if l.IsBlank() {
		return ""
	}
	return string(l.Accidental) + l.Numeral + string(l.Quality) + l.Figure()
}

var (
	upperGlyphs = [7]string{"Ⅰ", "Ⅱ", "Ⅲ", "Ⅳ", "Ⅴ", "Ⅵ", "Ⅶ"}
	lowerGlyphs = [7]string{"ⅰ", "ⅱ", "ⅲ", "ⅳ", "ⅴ", "ⅵ", "ⅶ"}
	numerals    = [7]string{"I", "II", "III", "IV", "V", "VI", "VII"}
)

// Glyph returns the numeral as a single Unicode Roman numeral character
func (l Label) Glyph() string {
	for i, n := range numerals {
		if strings.EqualFold(n, l.Numeral) {
			if l.UpperCase {
				return upperGlyphs[i]
			}
			return lowerGlyphs[i]
		}
	}
	return ""
}
