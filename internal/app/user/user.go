/*
Package user defines the participant identity carried on room and session frames.

Identity is supplied by the external identity provider (or the client itself);
the core stores it for the lifetime of a socket and never verifies it.
*/
package user

import "strings"

// Participant is one side of a room or translation session.
type Participant struct {
	// ID is the participant identifier used as the connection registry key.
	ID string `json:"id" validate:"max=128"`

	// DisplayName is shown to the other participant.
	DisplayName string `json:"name,omitempty" validate:"max=128"`

	// PreferredLanguage is the language the participant speaks and wants to hear.
	PreferredLanguage string `json:"preferredLanguage,omitempty" validate:"max=35"`
}

// Normalize trims whitespace and fills an empty display name with the id.
func (p Participant) Normalize() Participant {
	p.ID = strings.TrimSpace(p.ID)
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	p.PreferredLanguage = strings.TrimSpace(p.PreferredLanguage)
	if p.DisplayName == "" {
		p.DisplayName = p.ID
	}
	return p
}

// Same reports whether p and other refer to the same participant id.
func (p *Participant) Same(other *Participant) bool {
	return p != nil && other != nil && p.ID == other.ID
}
