package types

import "time"

type Note struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
