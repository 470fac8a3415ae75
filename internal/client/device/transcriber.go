package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/atinyakov/Vocap/internal/models"
)

// ErrNoSpeech is returned for an empty capture.
var ErrNoSpeech = errors.New("no speech detected")

// TextTranscriber reads dictation captures back. The summary is the first
// sentence and tags are the #hashtags found in the text.
type TextTranscriber struct{}

// Process reads the capture at audioURI back as a transcription.
func (TextTranscriber) Process(ctx context.Context, audioURI string) (models.Transcription, error) {
	if err := ctx.Err(); err != nil {
		return models.Transcription{}, err
	}
	raw, err := os.ReadFile(audioURI)
	if err != nil {
		return models.Transcription{}, fmt.Errorf("read capture: %w", err)
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return models.Transcription{}, ErrNoSpeech
	}

	summary, _, found := strings.Cut(text, ".")
	if found {
		summary += "."
	}
	return models.Transcription{
		Transcript: text,
		Summary:    strings.TrimSpace(summary),
		Tags:       hashtags(text),
	}, nil
}

func hashtags(text string) []string {
	tags := []string{}
	for _, word := range strings.Fields(text) {
		if !strings.HasPrefix(word, "#") {
			continue
		}
		tag := strings.ToLower(strings.TrimRight(strings.TrimPrefix(word, "#"), ".,;:!?"))
		if tag != "" && !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}
