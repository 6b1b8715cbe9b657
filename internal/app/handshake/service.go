package handshake

import (
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voxpair/internal/app/protocol"
	"voxpair/internal/app/schedule"
	"voxpair/internal/app/user"
	"voxpair/internal/pkg/errs"
	"voxpair/internal/pkg/logx"
	"voxpair/internal/pkg/randx"
)

// Broadcaster delivers a frame to a set of participants, skipping one.
type Broadcaster interface {
	Broadcast(userIDs []string, frame any, excludeUserID string) int
}

// Service owns the rooms of one handshake endpoint.
type Service struct {
	// mu guards rooms and order. Broadcasts are issued while holding it so
	// occupants observe frames in mutation order.
	mu    sync.Mutex
	rooms map[string]*Room

	// order keeps room ids in creation order; PIN lookup scans it.
	order []string

	relay     Broadcaster
	scheduler *schedule.Scheduler
	delay     time.Duration

	onComplete func(Room)

	logger zerolog.Logger
}

// NewService builds a room service. delay is the wait between a successful
// join and the automatic handshake completion.
func NewService(relay Broadcaster, scheduler *schedule.Scheduler, delay time.Duration) *Service {
	return &Service{
		rooms:     make(map[string]*Room),
		relay:     relay,
		scheduler: scheduler,
		delay:     delay,
		logger:    logx.Component("handshake"),
	}
}

// OnComplete registers a hook invoked, outside the lock, after every
// handshake_complete broadcast.
func (s *Service) OnComplete(fn func(Room)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onComplete = fn
}

// CreateRoom opens a room with host in the first slot.
func (s *Service) CreateRoom(host user.Participant) (Room, *errs.CustomError) {
	roomID, err := randx.RoomID()
	if err != nil {
		return Room{}, errs.NewError(errs.ErrUnknown, err)
	}

	pin, err := randx.Pin()
	if err != nil {
		return Room{}, errs.NewError(errs.ErrUnknown, err)
	}

	now := time.Now()
	h := host
	room := &Room{
		ID:             roomID,
		PIN:            pin,
		Host:           &h,
		State:          StateCreated,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n := s.countPinLocked(pin); n > 0 {
		s.logger.Warn().
			Str("room_id", roomID).
			Int("rooms_with_pin", n).
			Msg("PIN collides with an open room; joins will match the oldest room first.")
	}

	s.rooms[roomID] = room
	s.order = append(s.order, roomID)

	s.logger.Info().Str("room_id", roomID).Str("user_id", host.ID).Msg("Room created.")

	return *room, nil
}

// JoinRoom places guest into the first room, in creation order, whose PIN matches.
func (s *Service) JoinRoom(pin string, guest user.Participant) (Room, *errs.CustomError) {
	if !randx.IsValidPin(pin) {
		return Room{}, errs.NewError(errs.ErrInvalidPin)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.findByPinLocked(pin)
	if room == nil {
		return Room{}, errs.NewError(errs.ErrRoomNotFound)
	}
	if room.Guest != nil {
		return Room{}, errs.NewError(errs.ErrRoomIsFull)
	}
	if room.Host != nil && room.Host.ID == guest.ID {
		return Room{}, errs.NewError(errs.ErrAlreadyInRoom)
	}

	g := guest
	room.Guest = &g
	room.refresh()
	if room.IsActive {
		room.State = StatePaired
	}
	room.touch(time.Now())

	if room.Host != nil {
		s.relay.Broadcast([]string{room.Host.ID}, ParticipantFrame{
			Type:   protocol.TypeUserJoined,
			RoomID: room.ID,
			User:   guest,
		}, "")
	}

	roomID := room.ID
	s.scheduler.After(roomID, s.delay, func() {
		if _, cerr := s.CompleteHandshake(roomID); cerr != nil {
			s.logger.Debug().Str("room_id", roomID).Msg("Scheduled handshake completion skipped; room is gone.")
		}
	})

	s.logger.Info().Str("room_id", roomID).Str("user_id", guest.ID).Msg("Guest joined room; handshake scheduled.")

	return *room, nil
}

// CompleteHandshake broadcasts handshake_complete to every occupant. Repeated
// calls broadcast again without changing the room.
func (s *Service) CompleteHandshake(roomID string) (Room, *errs.CustomError) {
	s.mu.Lock()

	room, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return Room{}, errs.NewError(errs.ErrRoomNotFound)
	}

	if room.IsActive {
		room.State = StateComplete
	}
	room.touch(time.Now())
	snapshot := *room

	s.relay.Broadcast(room.Occupants(), HandshakeCompleteFrame{
		Type:   protocol.TypeHandshakeComplete,
		RoomID: room.ID,
		Room:   snapshot,
	}, "")

	hook := s.onComplete
	s.mu.Unlock()

	s.logger.Info().Str("room_id", roomID).Msg("Handshake complete.")

	if hook != nil && snapshot.IsActive {
		hook(snapshot)
	}

	return snapshot, nil
}

// LeaveRoom clears the slot held by userID. The room is deleted when both
// slots end up empty; otherwise the remaining occupant receives user_left.
// deleted reports whether the room was removed.
func (s *Service) LeaveRoom(roomID, userID string) (deleted bool, cerr *errs.CustomError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return false, errs.NewError(errs.ErrRoomNotFound)
	}
	if !room.Has(userID) {
		return false, errs.NewError(errs.ErrNotInRoom)
	}

	return s.leaveLocked(room, userID), nil
}

// LeaveAll removes userID from every room it occupies. Used on socket close.
func (s *Service) LeaveAll(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	left := 0
	for _, id := range slices.Clone(s.order) {
		room := s.rooms[id]
		if room == nil || !room.Has(userID) {
			continue
		}
		s.leaveLocked(room, userID)
		left++
	}

	return left
}

func (s *Service) leaveLocked(room *Room, userID string) bool {
	var leaver *user.Participant

	switch {
	case room.Host != nil && room.Host.ID == userID:
		leaver = room.Host
		room.Host = nil
	case room.Guest != nil && room.Guest.ID == userID:
		leaver = room.Guest
		room.Guest = nil
	default:
		return false
	}

	s.scheduler.Cancel(room.ID)

	if room.Empty() {
		s.deleteLocked(room.ID)
		s.logger.Info().Str("room_id", room.ID).Str("user_id", userID).Msg("Last occupant left; room deleted.")
		return true
	}

	room.refresh()
	room.touch(time.Now())

	s.relay.Broadcast(room.Occupants(), ParticipantFrame{
		Type:   protocol.TypeUserLeft,
		RoomID: room.ID,
		User:   *leaver,
	}, userID)

	s.logger.Info().Str("room_id", room.ID).Str("user_id", userID).Msg("Participant left room.")

	return false
}

// Get returns a snapshot of the room.
func (s *Service) Get(roomID string) (Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return Room{}, false
	}
	return *room, true
}

// Count returns the number of open rooms.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.rooms)
}

// Sweep deletes rooms idle for longer than ttl without notifying occupants.
func (s *Service) Sweep(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, id := range slices.Clone(s.order) {
		room := s.rooms[id]
		if room == nil || now.Sub(room.LastActivityAt) <= ttl {
			continue
		}
		s.scheduler.Cancel(id)
		s.deleteLocked(id)
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Expired idle rooms.")
	}

	return removed
}

// Name identifies the service in reaper logs.
func (s *Service) Name() string {
	return "rooms"
}

// Shutdown drops every room and pending completion.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		s.scheduler.Cancel(id)
	}
	s.rooms = make(map[string]*Room)
	s.order = nil

	s.logger.Info().Msg("Handshake service shutdown complete.")
}

func (s *Service) deleteLocked(roomID string) {
	delete(s.rooms, roomID)
	if i := slices.Index(s.order, roomID); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

func (s *Service) findByPinLocked(pin string) *Room {
	var found *Room
	matches := 0

	for _, id := range s.order {
		room := s.rooms[id]
		if room == nil || room.PIN != pin {
			continue
		}
		if found == nil {
			found = room
		}
		matches++
	}

	if matches > 1 {
		s.logger.Warn().Int("rooms_with_pin", matches).Str("room_id", found.ID).Msg("PIN shared by several rooms; matched the oldest.")
	}

	return found
}

func (s *Service) countPinLocked(pin string) int {
	n := 0
	for _, room := range s.rooms {
		if room.PIN == pin {
			n++
		}
	}
	return n
}
