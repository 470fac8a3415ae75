// Package device provides desktop stand-ins for the phone's microphone and
// the remote transcription service. Dictated text is written to a file in
// place of audio so the rest of the pipeline runs unchanged.
package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/Vocap/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrAlreadyRecording is returned by Start while a capture is running.
	ErrAlreadyRecording = errors.New("already recording")
	// ErrNotRecording is returned by Stop and Cancel when nothing is captured.
	ErrNotRecording = errors.New("not recording")
)

// DictationRecorder captures text instead of audio.
type DictationRecorder struct {
	dir string
	now func() time.Time

	mu        sync.Mutex
	recording bool
	started   time.Time
	buf       strings.Builder
}

// NewDictationRecorder stores captures under dir.
func NewDictationRecorder(dir string, now func() time.Time) *DictationRecorder {
	if now == nil {
		now = time.Now
	}
	return &DictationRecorder{dir: dir, now: now}
}

// RequestPermission succeeds when the capture directory is writable.
func (r *DictationRecorder) RequestPermission(ctx context.Context) bool {
	return os.MkdirAll(r.dir, 0o700) == nil
}

// Start begins a new capture.
func (r *DictationRecorder) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return ErrAlreadyRecording
	}
	r.recording = true
	r.started = r.now()
	r.buf.Reset()
	return nil
}

// Dictate appends text to the running capture. It is ignored when idle.
func (r *DictationRecorder) Dictate(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	if r.buf.Len() > 0 {
		r.buf.WriteByte(' ')
	}
	r.buf.WriteString(strings.TrimSpace(text))
}

// Stop writes the captured text to a new file and reports its duration.
func (r *DictationRecorder) Stop(ctx context.Context) (models.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return models.Recording{}, ErrNotRecording
	}
	r.recording = false

	path := filepath.Join(r.dir, uuid.NewString()+".txt")
	if err := os.WriteFile(path, []byte(r.buf.String()), 0o600); err != nil {
		return models.Recording{}, fmt.Errorf("write capture: %w", err)
	}
	return models.Recording{
		AudioURI:       path,
		DurationMillis: r.now().Sub(r.started).Milliseconds(),
	}, nil
}

// Cancel drops the running capture without writing anything.
func (r *DictationRecorder) Cancel(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return ErrNotRecording
	}
	r.recording = false
	r.buf.Reset()
	return nil
}

// Release removes a capture file. A missing file is not an error.
func (r *DictationRecorder) Release(ctx context.Context, audioURI string) error {
	if audioURI == "" {
		return nil
	}
	if err := os.Remove(audioURI); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
