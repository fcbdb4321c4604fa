package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/chordid/pkg/harmony"
)

// Staff-paper color scheme
var (
	accent    = lipgloss.Color("#F2C14E")
	ink       = lipgloss.Color("#E8E6E3")
	muted     = lipgloss.Color("#8A8F98")
	panel     = lipgloss.Color("#2B2D42")
	keyActive = lipgloss.Color("#EF476F")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Background(panel).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(ink).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(muted).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	numeralStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	figureStyle = lipgloss.NewStyle().
			Foreground(ink)

	helpStyle = lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2)

	whiteKey = lipgloss.NewStyle().Foreground(panel).Background(ink)
	blackKey = lipgloss.NewStyle().Foreground(ink).Background(panel)
	heldKey  = lipgloss.NewStyle().Foreground(ink).Background(keyActive).Bold(true)
)

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	// Header
	s.WriteString(logo())
	s.WriteString("\n")

	help := "↑/↓: navigate • enter: select • q: quit"
	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StatePlay:
		s.WriteString(m.viewPlay())
		help = "keys: toggle notes • space: release all • -/=: octave • [/]: key • tab: key list • esc: menu"
	case StateKeySelect:
		s.WriteString(m.viewKeySelect())
		help = "↑/↓: navigate • enter: select • esc: menu"
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
		help = "esc: back to menu"
	case StateAnalyzing:
		s.WriteString(m.viewAnalyzing())
	case StateResult:
		s.WriteString(m.viewResult())
		help = "↑/↓: scroll • enter: back to menu"
	}

	// Footer help
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(help))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" CHORDID "))
	s.WriteString("\n")
	s.WriteString(statusStyle.Render("Key: " + m.key.Display()))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(muted).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewPlay() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" PLAY · %s ", m.key.Display())))
	s.WriteString("\n\n")
	s.WriteString(renderLabel(m.label))
	s.WriteString("\n\n")
	s.WriteString(m.renderKeyboard())
	s.WriteString("\n")

	status := fmt.Sprintf("Octave C%d", m.keyboard.Octave())
	if len(m.pitches) > 0 {
		status += " • " + pitchNames(m.pitches, m.key)
	}
	if !m.key.IsSet() {
		status += " • no key selected"
	}
	if m.port != nil {
		status += " • MIDI in: " + m.port.String()
	}
	s.WriteString(statusStyle.Render(status))

	return boxStyle.Render(s.String())
}

// renderLabel draws the numeral with its figures stacked to the right
func renderLabel(l harmony.Label) string {
	if l.IsBlank() {
		return numeralStyle.Render("  ")
	}
	numeral := numeralStyle.Render(string(l.Accidental) + l.Glyph() + string(l.Quality))

	var upper, lower string
	switch len(l.Figures) {
	case 1:
		upper = l.Figures[0]
	case 2:
		upper, lower = l.Figures[0], l.Figures[1]
	}
	figures := figureStyle.Render(upper + "\n" + lower)

	return lipgloss.JoinHorizontal(lipgloss.Top, numeral, figures) +
		lipgloss.NewStyle().Foreground(muted).Render("   "+l.String())
}

var pitchClassNames = map[harmony.Spelling][12]string{
	harmony.FlatKeys:  {"C", "D♭", "D", "E♭", "E", "F", "G♭", "G", "A♭", "A", "B♭", "B"},
	harmony.SharpKeys: {"C", "C♯", "D", "D♯", "E", "F", "F♯", "G", "G♯", "A", "A♯", "B"},
}

func pitchNames(pitches []harmony.Pitch, key harmony.Key) string {
	names := pitchClassNames[key.Spelling]
	parts := make([]string, len(pitches))
	for i, p := range pitches {
		parts[i] = fmt.Sprintf("%s%d", names[p.Class()], int(p)/12-1)
	}
	return strings.Join(parts, " ")
}

// renderKeyboard draws the two playable octaves with held keys highlighted
func (m Model) renderKeyboard() string {
	base := harmony.Pitch(12 * (m.keyboard.Octave() + 1))
	black := map[int]bool{1: true, 3: true, 6: true, 8: true, 10: true}

	var top, bottom strings.Builder
	for i := 0; i < 29; i++ {
		p := base + harmony.Pitch(i)
		style := whiteKey
		if black[i%12] {
			style = blackKey
		}
		if m.keyboard.IsDown(p) {
			style = heldKey
		}
		if black[i%12] {
			top.WriteString(style.Render(" "))
			bottom.WriteString(" ")
		} else {
			top.WriteString(" ")
			bottom.WriteString(style.Render(" "))
		}
	}
	return top.String() + "\n" + bottom.String()
}

func (m Model) viewKeySelect() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT KEY "))
	s.WriteString("\n\n")

	// Show a window of keys around the cursor
	const window = 10
	start := m.keyIndex - window/2
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > harmony.NumKeys+1 {
		end = harmony.NumKeys + 1
		start = end - window
	}

	for id := start; id < end; id++ {
		name := "No key"
		if id > 0 {
			k, _ := harmony.KeyByID(id)
			name = fmt.Sprintf("%-10s %s", k.Display(), k.Spelling)
		}
		if id == m.keyIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", name)))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", name)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT MIDI FILE "))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())

	return s.String()
}

func (m Model) viewAnalyzing() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" ANALYZING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Analyzing %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	if m.key.IsSet() {
		s.WriteString(statusStyle.Render("  in " + m.key.Display()))
	} else {
		s.WriteString(statusStyle.Render("  key from file"))
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Analysis failed: %s", m.err.Error())))
		return boxStyle.Render(s.String())
	}

	tl := m.timeline
	s.WriteString(titleStyle.Render(fmt.Sprintf(" %s ", strings.ToUpper(filepath.Base(m.selectedFile)))))
	s.WriteString("\n")
	s.WriteString(statusStyle.Render(fmt.Sprintf("Key: %s (%s) • %.0f BPM • %.1fs", tl.Key.Display(), tl.KeySource, tl.Tempo, tl.Duration)))
	s.WriteString("\n\n")

	const rows = 12
	end := m.scroll + rows
	if end > len(tl.Segments) {
		end = len(tl.Segments)
	}
	for _, seg := range tl.Segments[m.scroll:end] {
		text := seg.Text
		if text == "" {
			text = "--"
		}
		s.WriteString(fmt.Sprintf("%8.2fs  ", seg.Seconds))
		s.WriteString(numeralStyle.Render(fmt.Sprintf("%-8s", text)))
		s.WriteString(lipgloss.NewStyle().Foreground(muted).Render(fmt.Sprintf("  %v", seg.Pitches)))
		s.WriteString("\n")
	}
	if len(tl.Segments) == 0 {
		s.WriteString(menuStyle.Render("No chord changes"))
	}

	return boxStyle.Render(s.String())
}

func logo() string {
	logo := `
        _                   _ _     _
   ___ | |__   ___  _ __ __| (_) __| |
  / __|| '_ \ / _ \| '__/ _' | |/ _' |
 | (__ | | | | (_) | | | (_| | | (_| |
  \___||_| |_|\___/|_|  \__,_|_|\__,_|
`
	return lipgloss.NewStyle().Foreground(accent).Render(logo)
}
