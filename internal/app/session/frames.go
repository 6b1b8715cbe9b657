package session

import (
	"voxpair/internal/app/pipeline"
	"voxpair/internal/app/user"
)

// MembershipFrame answers init and join (translation_session_created, translation_session_joined).
type MembershipFrame struct {
	Type      string           `json:"type"`
	SessionID string           `json:"sessionId"`
	User      user.Participant `json:"user"`
	IsActive  bool             `json:"isActive"`
	Session   Session          `json:"session"`
}

// ActiveFrame is broadcast to both participants when the second slot fills.
type ActiveFrame struct {
	Type      string  `json:"type"`
	SessionID string  `json:"sessionId"`
	Session   Session `json:"session"`
}

// EndedFrame is broadcast before an explicit teardown.
type EndedFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// UserDisconnectedFrame tells the remaining participant that the other side left.
type UserDisconnectedFrame struct {
	Type      string           `json:"type"`
	SessionID string           `json:"sessionId"`
	UserID    string           `json:"userId"`
	User      user.Participant `json:"user"`
}

// ResultFrame carries a translated message (translation_result).
type ResultFrame struct {
	Type           string            `json:"type"`
	SessionID      string            `json:"sessionId"`
	Message        Message           `json:"message"`
	AverageLatency *pipeline.Latency `json:"averageLatency,omitempty"`
}
