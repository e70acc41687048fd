package types

import "time"

type SessionStatus string

const (
	SessionStatusRecording SessionStatus = "recording"
	SessionStatusEnhancing SessionStatus = "enhancing"
	SessionStatusReady     SessionStatus = "ready"
	SessionStatusFailed    SessionStatus = "failed"
)

// Session is one captured recording/transcript. EnvironmentID, when set,
// overrides the process-wide default environment during resolution.
type Session struct {
	ID            string        `json:"id"`
	Title         string        `json:"title,omitempty"`
	Status        SessionStatus `json:"status"`
	EnvironmentID string        `json:"environment_id,omitempty"`
	Transcript    string        `json:"transcript,omitempty"`
	Enhanced      string        `json:"enhanced,omitempty"`
	Tags          []string      `json:"tags,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
