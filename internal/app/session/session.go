/*
Package session implements the two-party translation session state machine.

A session is keyed by a session id (a paired room reuses its room id), tracks
the language spoken on each side and keeps an append-only log of translated
messages. It becomes active only through the init or join transition that
fills its second slot.
*/
package session

import (
	"time"

	"voxpair/internal/app/pipeline"
	"voxpair/internal/app/user"
)

// Session is a snapshot of a translation session. Values returned by Service
// are copies without the message log.
type Session struct {
	ID             string            `json:"sessionId"`
	User1          *user.Participant `json:"user1"`
	User2          *user.Participant `json:"user2"`
	User1Language  string            `json:"user1Language"`
	User2Language  string            `json:"user2Language"`
	IsActive       bool              `json:"isActive"`
	CreatedAt      time.Time         `json:"createdAt"`
	LastActivityAt time.Time         `json:"lastActivityAt"`
	MessageCount   int               `json:"messageCount"`

	messages []Message
	latency  *pipeline.LatencyTracker
}

// Message is one translated utterance. Never mutated after append.
type Message struct {
	ID             string            `json:"id"`
	SessionID      string            `json:"sessionId"`
	SenderID       string            `json:"senderId"`
	OriginalText   string            `json:"originalText"`
	TranslatedText string            `json:"translatedText"`
	SourceLanguage string            `json:"sourceLanguage"`
	TargetLanguage string            `json:"targetLanguage"`
	CreatedAtMs    int64             `json:"createdAt"`
	Latency        *pipeline.Latency `json:"latency,omitempty"`
}

// Occupants returns the ids of the filled slots, user1 first.
func (s *Session) Occupants() []string {
	ids := make([]string, 0, 2)
	if s.User1 != nil {
		ids = append(ids, s.User1.ID)
	}
	if s.User2 != nil {
		ids = append(ids, s.User2.ID)
	}
	return ids
}

// Has reports whether userID occupies either slot.
func (s *Session) Has(userID string) bool {
	return (s.User1 != nil && s.User1.ID == userID) || (s.User2 != nil && s.User2.ID == userID)
}

// Empty reports whether both slots are vacant.
func (s *Session) Empty() bool {
	return s.User1 == nil && s.User2 == nil
}

// Direction derives the translation direction for a message sent by
// senderID: user1 speaks user1Language and hears user2Language, and the
// reverse for user2. ok is false when the sender is not a participant.
func (s *Session) Direction(senderID string) (source, target string, ok bool) {
	switch {
	case s.User1 != nil && s.User1.ID == senderID:
		return s.User1Language, s.User2Language, true
	case s.User2 != nil && s.User2.ID == senderID:
		return s.User2Language, s.User1Language, true
	default:
		return "", "", false
	}
}

func (s *Session) snapshot() Session {
	c := *s
	c.MessageCount = len(s.messages)
	c.messages = nil
	c.latency = nil
	return c
}
