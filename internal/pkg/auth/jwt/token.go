package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

// TokenIssuer identifies tokens minted by GenerateToken.
const TokenIssuer = "voxpair"

var (
	// ErrNoParticipant is returned for tokens that carry neither an id claim
	// nor a subject.
	ErrNoParticipant = errors.New("token has no participant id")

	errUnexpectedMethod = errors.New("unexpected signing method")
)

// GenerateToken signs an HS256 identity token valid for ttl. Identity tokens
// normally come from the identity provider; this is for tests and local tools.
func GenerateToken(payload *Payload, secretKey string, ttl time.Duration) (string, error) {
	if payload.ID == "" {
		return "", ErrNoParticipant
	}

	claims := *payload
	issued := time.Now()
	claims.StandardClaims = jwt.StandardClaims{
		Subject:   payload.ID,
		Issuer:    TokenIssuer,
		IssuedAt:  issued.Unix(),
		ExpiresAt: issued.Add(ttl).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString([]byte(secretKey))
}

// ParseToken verifies tokenString and returns the participant it names.
// Providers that only set "sub" are accepted; the subject becomes the id.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, hmacKey(secretKey)); err != nil {
		return nil, err
	}

	if claims.ID == "" {
		claims.ID = claims.Subject
	}
	if claims.ID == "" {
		return nil, ErrNoParticipant
	}

	return claims, nil
}

func hmacKey(secretKey string) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errUnexpectedMethod
		}
		return []byte(secretKey), nil
	}
}
