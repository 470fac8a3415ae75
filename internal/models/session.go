package models

// SessionState models the record-then-process lifecycle.
type SessionState string

const (
	SessionIdle       SessionState = "idle"
	SessionStarting   SessionState = "starting"
	SessionRecording  SessionState = "recording"
	SessionProcessing SessionState = "processing"
)

// Recording is what the recorder hands back after a successful stop.
type Recording struct {
	AudioURI       string `json:"audioUri"`
	DurationMillis int64  `json:"durationMillis"`
}

// Transcription is the output of the speech-to-text and summarization service.
type Transcription struct {
	Transcript string   `json:"transcript"`
	Summary    string   `json:"summary"`
	Tags       []string `json:"tags"`
}
