package randx

import (
	"regexp"
	"testing"
)

var pinPattern = regexp.MustCompile(`^[0-9]{6}$`)

func TestPin_Format(t *testing.T) {
	t.Parallel()

	for i := 0; i < 500; i++ {
		pin, err := Pin()
		if err != nil {
			t.Fatalf("Pin: %v", err)
		}
		if !pinPattern.MatchString(pin) {
			t.Fatalf("pin %q does not match %s", pin, pinPattern)
		}
		if !IsValidPin(pin) {
			t.Fatalf("IsValidPin(%q)=false", pin)
		}
	}
}

func TestIsValidPin(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{"", "12345", "1234567", "12a456", " 12345", "１２３４５６"} {
		if IsValidPin(bad) {
			t.Errorf("IsValidPin(%q)=true, want false", bad)
		}
	}
	if !IsValidPin("000000") {
		t.Errorf("leading zeros must be valid")
	}
}

func TestRoomID(t *testing.T) {
	t.Parallel()

	id, err := RoomID()
	if err != nil {
		t.Fatalf("RoomID: %v", err)
	}
	if !regexp.MustCompile(`^[0-9a-f]{32}$`).MatchString(id) {
		t.Fatalf("room id %q is not 32 hex chars", id)
	}

	other, _ := RoomID()
	if other == id {
		t.Fatalf("two room ids collided: %q", id)
	}
}
