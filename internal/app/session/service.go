package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voxpair/internal/app/pipeline"
	"voxpair/internal/app/protocol"
	"voxpair/internal/app/schedule"
	"voxpair/internal/app/user"
	"voxpair/internal/pkg/errs"
	"voxpair/internal/pkg/logx"
	"voxpair/internal/pkg/randx"
)

// Relay delivers frames to participants and drops their registry entries.
type Relay interface {
	Broadcast(userIDs []string, frame any, excludeUserID string) int
	Remove(userIDs ...string)
}

// Service owns the translation sessions of one endpoint.
type Service struct {
	// mu guards sessions. Frames are relayed while holding it so participants
	// observe them in mutation order.
	mu       sync.Mutex
	sessions map[string]*Session

	relay     Relay
	scheduler *schedule.Scheduler

	// overall aggregates latency samples across every session.
	overall pipeline.LatencyTracker

	logger zerolog.Logger
}

// NewService builds a session service.
func NewService(relay Relay, scheduler *schedule.Scheduler) *Service {
	return &Service{
		sessions:  make(map[string]*Session),
		relay:     relay,
		scheduler: scheduler,
		logger:    logx.Component("session"),
	}
}

// Init creates the session when sessionID is unknown (a new id is generated
// when it is empty), fills the free slot of an existing one and activates it,
// or refreshes the entry of a returning participant. The requester receives
// translation_session_created; activation is broadcast to both participants.
func (s *Service) Init(sessionID string, u user.Participant, lang1, lang2 string) (Session, *errs.CustomError) {
	if sessionID == "" {
		sessionID = randx.SessionID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		now := time.Now()
		p := u
		sess = &Session{
			ID:             sessionID,
			User1:          &p,
			User1Language:  lang1,
			User2Language:  lang2,
			CreatedAt:      now,
			LastActivityAt: now,
			latency:        &pipeline.LatencyTracker{},
		}
		s.sessions[sessionID] = sess

		s.replyLocked(sess, protocol.TypeSessionCreated, u)
		s.logger.Info().Str("session_id", sessionID).Str("user_id", u.ID).Msg("Translation session created.")

		return sess.snapshot(), nil
	}

	fillLanguage(&sess.User1Language, lang1)
	fillLanguage(&sess.User2Language, lang2)

	activated, cerr := s.enterLocked(sess, u)
	if cerr != nil {
		return Session{}, cerr
	}

	s.replyLocked(sess, protocol.TypeSessionCreated, u)
	if activated {
		s.broadcastActiveLocked(sess)
	}

	return sess.snapshot(), nil
}

// Join places u into an existing session.
func (s *Service) Join(sessionID string, u user.Participant) (Session, *errs.CustomError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, errs.NewError(errs.ErrSessionNotFound)
	}

	activated, cerr := s.enterLocked(sess, u)
	if cerr != nil {
		return Session{}, cerr
	}

	s.replyLocked(sess, protocol.TypeSessionJoined, u)
	if activated {
		s.broadcastActiveLocked(sess)
	}

	return sess.snapshot(), nil
}

// Pair seeds a session for a completed room handshake, reusing the room id.
// Both slots are filled by an explicit transition, so the session starts active.
// An existing session under the same id is left untouched.
func (s *Service) Pair(sessionID string, host, guest user.Participant) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		return sess.snapshot(), false
	}

	now := time.Now()
	h, g := host, guest
	sess := &Session{
		ID:             sessionID,
		User1:          &h,
		User2:          &g,
		User1Language:  host.PreferredLanguage,
		User2Language:  guest.PreferredLanguage,
		IsActive:       true,
		CreatedAt:      now,
		LastActivityAt: now,
		latency:        &pipeline.LatencyTracker{},
	}
	s.sessions[sessionID] = sess

	s.broadcastActiveLocked(sess)
	s.logger.Info().Str("session_id", sessionID).Msg("Translation session seeded from handshake.")

	return sess.snapshot(), true
}

// enterLocked places u into sess. It reports whether the session was activated.
// A returning participant only has its entry refreshed; activation is never
// derived from slot occupancy outside this transition.
func (s *Service) enterLocked(sess *Session, u user.Participant) (bool, *errs.CustomError) {
	p := u
	sess.LastActivityAt = time.Now()

	switch {
	case sess.User1 != nil && sess.User1.ID == u.ID:
		sess.User1 = &p
		return false, nil
	case sess.User2 != nil && sess.User2.ID == u.ID:
		sess.User2 = &p
		return false, nil
	case sess.User2 == nil:
		sess.User2 = &p
	case sess.User1 == nil:
		sess.User1 = &p
	default:
		return false, errs.NewError(errs.ErrSessionFull)
	}

	if sess.User1 != nil && sess.User2 != nil {
		sess.IsActive = true
		s.logger.Info().Str("session_id", sess.ID).Msg("Translation session active.")
		return true, nil
	}

	return false, nil
}

// End broadcasts translation_session_ended, deletes the session and drops both
// participants from the connection registry.
func (s *Service) End(sessionID string) *errs.CustomError {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return errs.NewError(errs.ErrSessionNotFound)
	}

	occupants := sess.Occupants()
	s.relay.Broadcast(occupants, EndedFrame{Type: protocol.TypeSessionEnded, SessionID: sessionID}, "")

	s.scheduler.Cancel(sessionID)
	delete(s.sessions, sessionID)
	s.relay.Remove(occupants...)

	s.logger.Info().Str("session_id", sessionID).Msg("Translation session ended.")

	return nil
}

// Disconnect clears the slot held by userID and deactivates the session. The
// session is deleted when empty; otherwise the other side receives
// user_disconnected. deleted reports whether the session was removed.
func (s *Service) Disconnect(sessionID, userID string) (deleted bool, cerr *errs.CustomError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return false, errs.NewError(errs.ErrSessionNotFound)
	}

	return s.disconnectLocked(sess, userID), nil
}

// DisconnectAll removes userID from every session it occupies. Used on socket close.
func (s *Service) DisconnectAll(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, sess := range s.sessions {
		if !sess.Has(userID) {
			continue
		}
		s.disconnectLocked(sess, userID)
		n++
	}

	return n
}

func (s *Service) disconnectLocked(sess *Session, userID string) bool {
	var leaver *user.Participant

	switch {
	case sess.User1 != nil && sess.User1.ID == userID:
		leaver = sess.User1
		sess.User1 = nil
	case sess.User2 != nil && sess.User2.ID == userID:
		leaver = sess.User2
		sess.User2 = nil
	default:
		return false
	}

	sess.IsActive = false

	if sess.Empty() {
		s.scheduler.Cancel(sess.ID)
		delete(s.sessions, sess.ID)
		s.logger.Info().Str("session_id", sess.ID).Msg("Last participant left; translation session deleted.")
		return true
	}

	sess.LastActivityAt = time.Now()
	s.relay.Broadcast(sess.Occupants(), UserDisconnectedFrame{
		Type:      protocol.TypeUserDisconnected,
		SessionID: sess.ID,
		UserID:    userID,
		User:      *leaver,
	}, userID)

	s.logger.Info().Str("session_id", sess.ID).Str("user_id", userID).Msg("Participant disconnected from translation session.")

	return false
}

// Get returns a snapshot of the session.
func (s *Service) Get(sessionID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	return sess.snapshot(), true
}

// Messages returns a copy of the session's message log.
func (s *Service) Messages(sessionID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	return append([]Message(nil), sess.messages...)
}

// Append adds msg to the session log and relays it to every participant,
// sender included, as translation_result with the session's running averages.
func (s *Service) Append(msg Message) (Message, *errs.CustomError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[msg.SessionID]
	if !ok {
		return Message{}, errs.NewError(errs.ErrSessionNotFound)
	}

	if msg.ID == "" {
		msg.ID = randx.MessageID()
	}
	if msg.CreatedAtMs == 0 {
		msg.CreatedAtMs = time.Now().UnixMilli()
	}

	sess.messages = append(sess.messages, msg)
	sess.LastActivityAt = time.Now()

	frame := ResultFrame{Type: protocol.TypeTranslationResult, SessionID: sess.ID, Message: msg}
	if avg, n := sess.latency.Average(); n > 0 {
		frame.AverageLatency = &avg
	}

	s.relay.Broadcast(sess.Occupants(), frame, "")

	return msg, nil
}

// RecordLatency folds one utterance's final sample into the session and
// overall averages.
func (s *Service) RecordLatency(sessionID string, sample pipeline.Latency) (pipeline.Latency, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return pipeline.Latency{}, false
	}

	s.overall.Record(sample)
	return sess.latency.Record(sample), true
}

// Broadcast relays frame to the session participants except excludeUserID.
func (s *Service) Broadcast(sessionID string, frame any, excludeUserID string) (int, *errs.CustomError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return 0, errs.NewError(errs.ErrSessionNotFound)
	}

	sess.LastActivityAt = time.Now()
	return s.relay.Broadcast(sess.Occupants(), frame, excludeUserID), nil
}

// Schedule runs fn after d unless the session is torn down first.
func (s *Service) Schedule(sessionID string, d time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return false
	}
	return s.scheduler.After(sessionID, d, fn)
}

// Count returns the number of sessions and how many of them are active.
func (s *Service) Count() (total, active int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.IsActive {
			active++
		}
	}
	return len(s.sessions), active
}

// AverageLatency returns the averages across all sessions.
func (s *Service) AverageLatency() (pipeline.Latency, int) {
	return s.overall.Average()
}

// Sweep deletes sessions idle for longer than ttl without notifying anyone.
func (s *Service) Sweep(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActivityAt) <= ttl {
			continue
		}
		s.scheduler.Cancel(id)
		delete(s.sessions, id)
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Expired idle translation sessions.")
	}

	return removed
}

// Name identifies the service in reaper logs.
func (s *Service) Name() string {
	return "sessions"
}

// Shutdown drops every session and pending task.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.sessions {
		s.scheduler.Cancel(id)
	}
	s.sessions = make(map[string]*Session)

	s.logger.Info().Msg("Session service shutdown complete.")
}

func (s *Service) replyLocked(sess *Session, frameType string, u user.Participant) {
	s.relay.Broadcast([]string{u.ID}, MembershipFrame{
		Type:      frameType,
		SessionID: sess.ID,
		User:      u,
		IsActive:  sess.IsActive,
		Session:   sess.snapshot(),
	}, "")
}

func (s *Service) broadcastActiveLocked(sess *Session) {
	s.relay.Broadcast(sess.Occupants(), ActiveFrame{
		Type:      protocol.TypeSessionActive,
		SessionID: sess.ID,
		Session:   sess.snapshot(),
	}, "")
}

func fillLanguage(dst *string, lang string) {
	if *dst == "" && lang != "" {
		*dst = lang
	}
}
