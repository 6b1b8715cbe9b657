package handshake

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"voxpair/internal/app/protocol"
	"voxpair/internal/app/schedule"
	"voxpair/internal/app/user"
	"voxpair/internal/pkg/errs"
)

type delivery struct {
	to    string
	frame any
}

type recordingRelay struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (r *recordingRelay) Broadcast(userIDs []string, frame any, excludeUserID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, id := range userIDs {
		if id == "" || id == excludeUserID {
			continue
		}
		r.deliveries = append(r.deliveries, delivery{to: id, frame: frame})
		n++
	}
	return n
}

// typesFor returns the frame types delivered to userID in order.
func (r *recordingRelay) typesFor(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, d := range r.deliveries {
		if d.to != userID {
			continue
		}
		switch f := d.frame.(type) {
		case ParticipantFrame:
			out = append(out, f.Type)
		case HandshakeCompleteFrame:
			out = append(out, f.Type)
		case RoomFrame:
			out = append(out, f.Type)
		}
	}
	return out
}

func newTestService(delay time.Duration) (*Service, *recordingRelay) {
	relay := &recordingRelay{}
	return NewService(relay, schedule.New(), delay), relay
}

var (
	alice = user.Participant{ID: "alice", DisplayName: "Alice", PreferredLanguage: "en"}
	bob   = user.Participant{ID: "bob", DisplayName: "Bob", PreferredLanguage: "es"}
	carol = user.Participant{ID: "carol", DisplayName: "Carol"}
)

func TestCreateRoom_PinAndIDFormat(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(time.Hour)
	pinRe := regexp.MustCompile(`^[0-9]{6}$`)
	idRe := regexp.MustCompile(`^[0-9a-f]{32}$`)

	for range 50 {
		room, cerr := s.CreateRoom(alice)
		if cerr != nil {
			t.Fatalf("CreateRoom: %v", cerr)
		}
		if !pinRe.MatchString(room.PIN) {
			t.Fatalf("pin=%q does not match ^[0-9]{6}$", room.PIN)
		}
		if !idRe.MatchString(room.ID) {
			t.Fatalf("room id=%q is not 16 hex bytes", room.ID)
		}
		if room.State != StateCreated || room.IsActive {
			t.Fatalf("state=%s active=%v, want created/false", room.State, room.IsActive)
		}
	}
}

func TestJoinRoom_Errors(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(time.Hour)
	room, _ := s.CreateRoom(alice)

	cases := []struct {
		name string
		pin  string
		user user.Participant
		code int
	}{
		{"bad pin", "12ab", bob, errs.ErrInvalidPin},
		{"own room", room.PIN, alice, errs.ErrAlreadyInRoom},
	}

	for _, tc := range cases {
		_, cerr := s.JoinRoom(tc.pin, tc.user)
		if cerr == nil || cerr.Code != tc.code {
			t.Fatalf("%s: err=%v, want code %d", tc.name, cerr, tc.code)
		}
	}

	if _, cerr := s.JoinRoom(room.PIN, bob); cerr != nil {
		t.Fatalf("join: %v", cerr)
	}

	_, cerr := s.JoinRoom(room.PIN, carol)
	if cerr == nil || cerr.Code != errs.ErrRoomIsFull {
		t.Fatalf("third join err=%v, want ErrRoomIsFull", cerr)
	}
	if cerr.FrameType() != errs.TypeRoomFull {
		t.Fatalf("frame type=%q, want %q", cerr.FrameType(), errs.TypeRoomFull)
	}
}

func TestJoinRoom_NotFound(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(time.Hour)
	room, _ := s.CreateRoom(alice)

	pin := "000000"
	if room.PIN == pin {
		pin = "999999"
	}

	_, cerr := s.JoinRoom(pin, bob)
	if cerr == nil || cerr.FrameType() != errs.TypeRoomNotFound {
		t.Fatalf("err=%v, want room_not_found", cerr)
	}
}

func TestJoinRoom_NotifiesHostAndCompletesAfterDelay(t *testing.T) {
	t.Parallel()

	s, relay := newTestService(20 * time.Millisecond)

	completed := make(chan Room, 1)
	s.OnComplete(func(r Room) { completed <- r })

	room, _ := s.CreateRoom(alice)
	joined, cerr := s.JoinRoom(room.PIN, bob)
	if cerr != nil {
		t.Fatalf("join: %v", cerr)
	}
	if joined.State != StatePaired || !joined.IsActive {
		t.Fatalf("state=%s active=%v, want paired/true", joined.State, joined.IsActive)
	}

	if got := relay.typesFor("alice"); len(got) != 1 || got[0] != protocol.TypeUserJoined {
		t.Fatalf("host frames=%v, want [user_joined]", got)
	}

	select {
	case r := <-completed:
		if r.ID != room.ID || r.State != StateComplete {
			t.Fatalf("completed room=%s state=%s", r.ID, r.State)
		}
	case <-time.After(time.Second):
		t.Fatalf("handshake did not complete")
	}

	for _, id := range []string{"alice", "bob"} {
		got := relay.typesFor(id)
		if got[len(got)-1] != protocol.TypeHandshakeComplete {
			t.Fatalf("%s frames=%v, want handshake_complete last", id, got)
		}
	}
}

func TestCompleteHandshake_Idempotent(t *testing.T) {
	t.Parallel()

	s, relay := newTestService(time.Hour)
	room, _ := s.CreateRoom(alice)
	_, _ = s.JoinRoom(room.PIN, bob)

	for range 2 {
		if _, cerr := s.CompleteHandshake(room.ID); cerr != nil {
			t.Fatalf("complete: %v", cerr)
		}
	}

	count := 0
	for _, typ := range relay.typesFor("bob") {
		if typ == protocol.TypeHandshakeComplete {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("bob got %d handshake_complete, want 2", count)
	}

	got, _ := s.Get(room.ID)
	if got.Host.ID != "alice" || got.Guest.ID != "bob" || len(got.Occupants()) != 2 {
		t.Fatalf("room corrupted: %+v", got)
	}
	if s.Count() != 1 {
		t.Fatalf("count=%d, want 1", s.Count())
	}
}

func TestLeaveRoom_DeletesEmptyRoom(t *testing.T) {
	t.Parallel()

	s, relay := newTestService(time.Hour)
	room, _ := s.CreateRoom(alice)
	_, _ = s.JoinRoom(room.PIN, bob)

	deleted, cerr := s.LeaveRoom(room.ID, "bob")
	if cerr != nil || deleted {
		t.Fatalf("first leave deleted=%v err=%v", deleted, cerr)
	}
	if got := relay.typesFor("alice"); got[len(got)-1] != protocol.TypeUserLeft {
		t.Fatalf("host frames=%v, want user_left last", got)
	}

	after, _ := s.Get(room.ID)
	if after.IsActive || after.State != StateCreated {
		t.Fatalf("after guest leave active=%v state=%s", after.IsActive, after.State)
	}

	deleted, cerr = s.LeaveRoom(room.ID, "alice")
	if cerr != nil || !deleted {
		t.Fatalf("second leave deleted=%v err=%v", deleted, cerr)
	}
	if _, ok := s.Get(room.ID); ok {
		t.Fatalf("empty room still present")
	}

	if _, cerr := s.LeaveRoom(room.ID, "alice"); cerr == nil || cerr.Code != errs.ErrRoomNotFound {
		t.Fatalf("leave on deleted room err=%v", cerr)
	}
}

func TestLeaveRoom_RejectsNonMember(t *testing.T) {
	t.Parallel()

	s, relay := newTestService(time.Hour)
	room, _ := s.CreateRoom(alice)

	deleted, cerr := s.LeaveRoom(room.ID, "carol")
	if cerr == nil || cerr.Code != errs.ErrNotInRoom || deleted {
		t.Fatalf("non-member leave deleted=%v err=%v, want ErrNotInRoom", deleted, cerr)
	}
	if _, ok := s.Get(room.ID); !ok {
		t.Fatalf("room removed by a non-member leave")
	}
	if got := relay.typesFor("alice"); len(got) != 0 {
		t.Fatalf("host frames=%v, want none", got)
	}
}

func TestLeaveRoom_CancelsPendingCompletion(t *testing.T) {
	t.Parallel()

	s, relay := newTestService(30 * time.Millisecond)
	room, _ := s.CreateRoom(alice)
	_, _ = s.JoinRoom(room.PIN, bob)

	if n := s.LeaveAll("alice"); n != 1 {
		t.Fatalf("left=%d, want 1", n)
	}
	if n := s.LeaveAll("bob"); n != 1 {
		t.Fatalf("left=%d, want 1", n)
	}

	time.Sleep(80 * time.Millisecond)

	for _, typ := range relay.typesFor("bob") {
		if typ == protocol.TypeHandshakeComplete {
			t.Fatalf("destroyed room completed its handshake")
		}
	}
}

func TestJoinRoom_SharedPinMatchesOldestRoom(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(time.Hour)
	first, _ := s.CreateRoom(alice)
	second, _ := s.CreateRoom(carol)

	s.mu.Lock()
	s.rooms[second.ID].PIN = first.PIN
	s.mu.Unlock()

	joined, cerr := s.JoinRoom(first.PIN, bob)
	if cerr != nil {
		t.Fatalf("join: %v", cerr)
	}
	if joined.ID != first.ID {
		t.Fatalf("joined room=%s, want oldest %s", joined.ID, first.ID)
	}

	other, _ := s.Get(second.ID)
	if other.Guest != nil {
		t.Fatalf("second room must stay untouched")
	}
}

func TestSweep_SilentExpiry(t *testing.T) {
	t.Parallel()

	s, relay := newTestService(time.Hour)
	room, _ := s.CreateRoom(alice)
	_, _ = s.JoinRoom(room.PIN, bob)
	before := len(relay.typesFor("alice"))

	ttl := 30 * time.Minute
	if n := s.Sweep(time.Now(), ttl); n != 0 {
		t.Fatalf("fresh room swept")
	}
	if n := s.Sweep(time.Now().Add(ttl+time.Second), ttl); n != 1 {
		t.Fatalf("swept=%d, want 1", n)
	}

	if s.Count() != 0 {
		t.Fatalf("count=%d, want 0", s.Count())
	}
	if after := len(relay.typesFor("alice")); after != before {
		t.Fatalf("sweep notified occupants")
	}

	if _, cerr := s.CompleteHandshake(room.ID); cerr == nil || cerr.Code != errs.ErrRoomNotFound {
		t.Fatalf("operation on expired room err=%v, want ErrRoomNotFound", cerr)
	}
}
