package entity

import "time"

type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// Turn is one exchange half inside a conversation session.
type Turn struct {
	Role      TurnRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is an in-memory conversation. Turns are appended only after a
// pipeline run completes, so a failed run leaves the session untouched.
type Session struct {
	ID        string    `json:"id"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append records one turn and bumps the session's update time.
func (s *Session) Append(role TurnRole, content string) {
	now := time.Now()
	s.Turns = append(s.Turns, Turn{Role: role, Content: content, CreatedAt: now})
	s.UpdatedAt = now
}
