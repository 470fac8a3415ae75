package models

import (
	"fmt"
	"strings"
)

const maxTitleLen = 30

// GenerateTitle builds a memo title from the first sentence of a transcript.
func GenerateTitle(transcript string) string {
	first, _, _ := strings.Cut(transcript, ".")
	r := []rune(first)
	if len(r) > maxTitleLen {
		return string(r[:maxTitleLen]) + "..."
	}
	return first
}

// FormatDuration renders milliseconds as m:ss.
func FormatDuration(millis int64) string {
	if millis < 0 {
		millis = 0
	}
	seconds := millis / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ExportText renders a memo as shareable plain text.
func ExportText(m VoiceMemo) string {
	return fmt.Sprintf("%s\n\nSummary:\n%s\n\nTranscript:\n%s\n\nTags: %s\n\n— Exported from Vocap",
		m.Title, m.Summary, m.Transcript, strings.Join(m.Tags, ", "))
}
