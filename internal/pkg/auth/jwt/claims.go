/*
Package jwt verifies identity tokens issued by the external identity provider.

The core never authenticates users itself; a valid token only supplies a
participant id, display name and preferred language for a WebSocket connection.
*/
package jwt

import "github.com/golang-jwt/jwt"

// Payload is the claim set of an identity token.
type Payload struct {
	jwt.StandardClaims

	// ID is the participant id assigned by the identity provider.
	ID string `json:"id"`

	// Name is the participant's display name.
	Name string `json:"name"`

	// Language is the participant's preferred language (BCP 47 or ISO 639-1).
	Language string `json:"language,omitempty"`
}
