package domain

import "strings"

type SessionID string

func (id SessionID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Session is one conversation's identity and history. Closed is transient and never persisted.
type Session struct {
	ID      SessionID
	History []Message
	Closed  bool
}

func (s Session) Clone() Session {
	history := make([]Message, len(s.History))
	copy(history, s.History)
	s.History = history
	return s
}
