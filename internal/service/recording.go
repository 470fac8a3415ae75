package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atinyakov/Vocap/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrSessionBusy is returned when a recording or processing step is already in flight.
	ErrSessionBusy = errors.New("recording session already in progress")
	// ErrNoActiveSession is returned when there is nothing to stop or cancel.
	ErrNoActiveSession = errors.New("no active recording session")
	// ErrPermissionDenied is returned when microphone access was refused.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrQuotaExceeded matches any QuotaExceededError.
	ErrQuotaExceeded = errors.New("recording quota exceeded")
	// ErrTranscriptionFailed wraps failures of the transcriber.
	ErrTranscriptionFailed = errors.New("transcription failed")
)

// QuotaExceededError carries the user-facing reason from admission control.
type QuotaExceededError struct {
	Reason string
}

func (e *QuotaExceededError) Error() string { return e.Reason }

// Is lets errors.Is(err, ErrQuotaExceeded) match.
func (e *QuotaExceededError) Is(target error) bool { return target == ErrQuotaExceeded }

// Recorder captures audio from the microphone.
type Recorder interface {
	RequestPermission(ctx context.Context) bool
	Start(ctx context.Context) error
	Stop(ctx context.Context) (models.Recording, error)
	// Cancel stops capturing and discards the audio.
	Cancel(ctx context.Context) error
	// Release deletes a previously recorded audio resource.
	Release(ctx context.Context, audioURI string) error
}

// Transcriber turns recorded audio into text, a summary and tags.
type Transcriber interface {
	Process(ctx context.Context, audioURI string) (models.Transcription, error)
}

// Admission is what the recording flow needs from admission control.
type Admission interface {
	CanRecord(ctx context.Context) models.Decision
	MaxRecordingDuration(ctx context.Context) time.Duration
}

// UsageIncrementer consumes one unit of monthly quota.
type UsageIncrementer interface {
	Increment(ctx context.Context)
}

// MemoWriter is the write side of the memo collection.
type MemoWriter interface {
	Add(ctx context.Context, memo models.VoiceMemo) (models.VoiceMemo, error)
	Get(id string) (models.VoiceMemo, bool)
	Delete(ctx context.Context, id string) error
}

// RecordingFlow runs one recording session at a time through
// permission check, capture, quota consumption, transcription and storage.
//
// Quota is consumed once a stopped recording is handed to processing, so a
// failed transcription still counts and a cancelled recording never does.
type RecordingFlow struct {
	admission    Admission
	usage        UsageIncrementer
	entitlements Entitlements
	memos        MemoWriter
	recorder     Recorder
	transcriber  Transcriber
	now          Clock
	log          *zap.Logger

	mu        sync.Mutex
	state     models.SessionState
	maxLen    time.Duration
	premium   bool
	startedAt time.Time
}

// NewRecordingFlow wires a recording flow.
func NewRecordingFlow(
	admission Admission,
	usage UsageIncrementer,
	entitlements Entitlements,
	memos MemoWriter,
	recorder Recorder,
	transcriber Transcriber,
	now Clock,
	log *zap.Logger,
) *RecordingFlow {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RecordingFlow{
		admission:    admission,
		usage:        usage,
		entitlements: entitlements,
		memos:        memos,
		recorder:     recorder,
		transcriber:  transcriber,
		now:          now,
		log:          log,
		state:        models.SessionIdle,
	}
}

// State returns the current session state.
func (f *RecordingFlow) State() models.SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Start checks permission and quota, then begins capturing audio.
func (f *RecordingFlow) Start(ctx context.Context) error {
	if !f.transition(models.SessionIdle, models.SessionStarting) {
		return ErrSessionBusy
	}

	if !f.recorder.RequestPermission(ctx) {
		f.setState(models.SessionIdle)
		return ErrPermissionDenied
	}

	decision := f.admission.CanRecord(ctx)
	if !decision.Allowed {
		f.setState(models.SessionIdle)
		f.log.Info("recording refused", zap.String("reason", decision.Reason))
		return &QuotaExceededError{Reason: decision.Reason}
	}

	maxLen := f.admission.MaxRecordingDuration(ctx)
	premium := f.entitlements.Tier(ctx).IsPremium()

	if err := f.recorder.Start(ctx); err != nil {
		f.setState(models.SessionIdle)
		return fmt.Errorf("start recorder: %w", err)
	}

	f.mu.Lock()
	f.state = models.SessionRecording
	f.maxLen = maxLen
	f.premium = premium
	f.startedAt = f.now()
	f.mu.Unlock()

	f.log.Info("recording started", zap.Duration("max_length", maxLen))
	return nil
}

// MaxDuration returns the cap captured when the session started. Zero is unlimited.
func (f *RecordingFlow) MaxDuration() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxLen
}

// Elapsed returns how long the current recording has been running.
func (f *RecordingFlow) Elapsed() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != models.SessionRecording {
		return 0
	}
	return f.now().Sub(f.startedAt)
}

// DurationExceeded reports whether a free-tier recording hit its length cap.
// The recorder's polling loop calls it with the elapsed recording time.
func (f *RecordingFlow) DurationExceeded(elapsed time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == models.SessionRecording && f.maxLen > 0 && elapsed >= f.maxLen
}

// Finish stops the recording and processes it into a stored memo.
func (f *RecordingFlow) Finish(ctx context.Context) (models.VoiceMemo, error) {
	if !f.transition(models.SessionRecording, models.SessionProcessing) {
		return models.VoiceMemo{}, ErrNoActiveSession
	}
	defer f.setState(models.SessionIdle)

	rec, err := f.recorder.Stop(ctx)
	if err != nil {
		return models.VoiceMemo{}, fmt.Errorf("stop recorder: %w", err)
	}

	f.usage.Increment(ctx)

	tr, err := f.transcriber.Process(ctx, rec.AudioURI)
	if err != nil {
		f.log.Warn("transcription failed", zap.String("audio", rec.AudioURI), zap.Error(err))
		return models.VoiceMemo{}, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	f.mu.Lock()
	premium := f.premium
	f.mu.Unlock()

	memo, err := f.memos.Add(ctx, models.VoiceMemo{
		ID:             models.NewMemoID(),
		Title:          models.GenerateTitle(tr.Transcript),
		Transcript:     tr.Transcript,
		Summary:        tr.Summary,
		Tags:           tr.Tags,
		AudioURI:       rec.AudioURI,
		DurationMillis: rec.DurationMillis,
		CreatedAt:      f.now().UnixMilli(),
		IsPremium:      premium,
	})
	if err != nil {
		return memo, err
	}
	f.log.Info("memo created", zap.String("id", memo.ID), zap.Int64("duration_ms", rec.DurationMillis))
	return memo, nil
}

// Cancel discards the current recording without consuming quota.
func (f *RecordingFlow) Cancel(ctx context.Context) error {
	if !f.transition(models.SessionRecording, models.SessionProcessing) {
		return ErrNoActiveSession
	}
	defer f.setState(models.SessionIdle)

	if err := f.recorder.Cancel(ctx); err != nil {
		f.log.Warn("failed to cancel recording cleanly", zap.Error(err))
		return fmt.Errorf("cancel recorder: %w", err)
	}
	f.log.Info("recording cancelled")
	return nil
}

// DeleteMemo releases the memo's audio and removes it from the collection.
func (f *RecordingFlow) DeleteMemo(ctx context.Context, id string) error {
	memo, ok := f.memos.Get(id)
	if !ok {
		return ErrMemoNotFound
	}
	if err := f.recorder.Release(ctx, memo.AudioURI); err != nil {
		f.log.Warn("failed to release audio", zap.String("audio", memo.AudioURI), zap.Error(err))
	}
	return f.memos.Delete(ctx, id)
}

func (f *RecordingFlow) transition(from, to models.SessionState) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != from {
		return false
	}
	f.state = to
	return true
}

func (f *RecordingFlow) setState(s models.SessionState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}
