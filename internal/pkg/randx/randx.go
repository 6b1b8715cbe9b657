/*
Package randx generates cryptographically secure identifiers.

It produces the 6-digit room PINs, 16-byte hex room ids and UUID based
session and message ids.
*/
package randx

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	// PinLength is the number of decimal digits in a room PIN.
	PinLength = 6

	// RoomIDBytes is the number of random bytes behind a room id (hex encoded).
	RoomIDBytes = 16

	pinDigits = "0123456789"
)

// Pin returns a random PIN of PinLength decimal digits. Leading zeros are kept.
// No uniqueness across rooms is implied.
func Pin() (string, error) {
	result := make([]byte, PinLength)

	for i := range PinLength {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(pinDigits))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit for pin: %w", err)
		}
		result[i] = pinDigits[num.Int64()]
	}

	return string(result), nil
}

// IsValidPin reports whether pin is exactly PinLength ASCII digits.
func IsValidPin(pin string) bool {
	if len(pin) != PinLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

// RoomID returns RoomIDBytes random bytes encoded as lowercase hex.
func RoomID() (string, error) {
	buf := make([]byte, RoomIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes for room id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// SessionID returns a new UUID v4 string for translation sessions.
func SessionID() string {
	return uuid.New().String()
}

// MessageID returns a new UUID v4 string for translation messages.
func MessageID() string {
	return uuid.New().String()
}
