package session

import (
	"time"

	"github.com/google/uuid"
)

// Turn roles as they appear in the transcript and the store.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Turn represents a single rendered chat turn
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session represents a local chat session
type Session struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	BaseURL   string    `json:"base_url"`
	Turns     []Turn    `json:"turns"`
}

// New starts an empty session against baseURL.
func New(baseURL string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		StartTime: time.Now(),
		BaseURL:   baseURL,
		Turns:     []Turn{},
	}
}

// Append records a turn and returns it.
func (s *Session) Append(role, content string) Turn {
	t := Turn{Role: role, Content: content, Timestamp: time.Now()}
	s.Turns = append(s.Turns, t)
	return t
}
