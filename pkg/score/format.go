package score

import (
	"path/filepath"
	"strings"
)

// Format represents a file format
type Format string

const (
	FormatMIDI    Format = "midi"
	FormatUnknown Format = "unknown"
)

// Extensions lists the file extensions of Standard MIDI Files
var Extensions = []string{".mid", ".midi", ".smf", ".kar"}

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range Extensions {
		if ext == e {
			return FormatMIDI
		}
	}
	return FormatUnknown
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	if len(data) >= 4 && string(data[:4]) == "MThd" {
		return FormatMIDI
	}
	return FormatUnknown
}
