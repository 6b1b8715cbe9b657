package dispatch

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"voxpair/internal/app/conn"
	"voxpair/internal/app/handshake"
	"voxpair/internal/app/protocol"
	"voxpair/internal/app/user"
	"voxpair/internal/pkg/errs"
)

// Peer is the dispatcher state of one connection. Handle is called from the
// connection's read loop, so frames of one peer are processed in order.
type Peer struct {
	d      *Dispatcher
	socket conn.Socket

	// identity is the verified caller, if any.
	identity *user.Participant

	mu   sync.Mutex
	user *user.Participant

	logger zerolog.Logger
}

// User returns the participant this socket is registered as.
func (p *Peer) User() (user.Participant, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.user == nil {
		return user.Participant{}, false
	}
	return *p.user, true
}

// Handle decodes and dispatches one raw frame.
func (p *Peer) Handle(data []byte) {
	frame, err := protocol.Decode(data)
	if err != nil {
		p.handleDecodeError(err)
		return
	}

	p.Dispatch(frame)
}

func (p *Peer) handleDecodeError(err error) {
	var unknown *protocol.UnknownTypeError
	var invalid *protocol.InvalidFrameError

	switch {
	case errors.Is(err, protocol.ErrMalformed):
		p.logger.Warn().Err(err).Msg("Dropping malformed frame")
	case errors.As(err, &unknown):
		p.replyError(errs.NewError(errs.ErrUnknownMessageType, unknown.Type))
	case errors.As(err, &invalid):
		p.logger.Info().Str("frame_type", invalid.Type).Str("reason", invalid.Reason).Msg("Rejected invalid frame")
		p.replyError(errs.NewError(errs.ErrInvalidParams))
	default:
		p.logger.Error().Err(err).Msg("Unexpected decode error")
	}
}

// Dispatch routes a decoded frame. Frame families disabled on this endpoint
// are answered like unknown types.
func (p *Peer) Dispatch(frame protocol.Inbound) {
	features := p.d.deps.Features

	var cerr *errs.CustomError

	switch f := frame.(type) {
	case protocol.Identify:
		cerr = p.onIdentify(f)
	case protocol.Ping:
		p.reply(protocol.Pong{Type: protocol.TypePong})

	case protocol.CreateRoom:
		if !features.Rooms {
			cerr = unhandled(frame)
			break
		}
		cerr = p.onCreateRoom(f)
	case protocol.JoinRoom:
		if !features.Rooms {
			cerr = unhandled(frame)
			break
		}
		cerr = p.onJoinRoom(f)
	case protocol.CompleteHandshake:
		if !features.Rooms {
			cerr = unhandled(frame)
			break
		}
		_, cerr = p.d.deps.Rooms.CompleteHandshake(f.RoomID)
	case protocol.LeaveRoom:
		if !features.Rooms {
			cerr = unhandled(frame)
			break
		}
		cerr = p.onLeaveRoom(f)

	case protocol.InitTranslationSession:
		if !features.Sessions {
			cerr = unhandled(frame)
			break
		}
		cerr = p.onInitSession(f)
	case protocol.JoinTranslationSession:
		if !features.Sessions {
			cerr = unhandled(frame)
			break
		}
		cerr = p.onJoinSession(f)
	case protocol.SpeechInput:
		if !features.Sessions {
			cerr = unhandled(frame)
			break
		}
		cerr = p.onSpeechInput(f)
	case protocol.TextTranslation:
		if !features.Sessions {
			cerr = unhandled(frame)
			break
		}
		cerr = p.onTextTranslation(f)
	case protocol.EndTranslationSession:
		if !features.Sessions {
			cerr = unhandled(frame)
			break
		}
		cerr = p.d.deps.Sessions.End(f.SessionID)

	default:
		cerr = unhandled(frame)
	}

	if cerr != nil {
		p.replyError(cerr)
	}
}

func unhandled(frame protocol.Inbound) *errs.CustomError {
	return errs.NewError(errs.ErrUnknownMessageType, frame.FrameType())
}

// Close unregisters the socket and, when it is still the participant's live
// connection, leaves every room and session on this endpoint.
func (p *Peer) Close() {
	defer func() { _ = p.socket.Close() }()

	u, ok := p.User()
	if !ok {
		return
	}

	if !p.release(u.ID) {
		p.logger.Debug().Str("user_id", u.ID).Msg("Stale connection closed; participant is served by a newer socket.")
		return
	}

	p.logger.Info().Str("user_id", u.ID).Msg("Participant disconnected.")
}

// release unregisters userID from this socket and vacates its room and session
// slots. Nothing is vacated when a newer socket already serves userID.
func (p *Peer) release(userID string) bool {
	if !p.d.deps.Registry.RemoveIf(userID, p.socket) {
		return false
	}

	if p.d.deps.Features.Rooms {
		p.d.deps.Rooms.LeaveAll(userID)
	}
	if p.d.deps.Features.Sessions {
		p.d.deps.Sessions.DisconnectAll(userID)
	}
	return true
}

// resolve completes the participant carried by a frame and registers the
// socket under its id.
func (p *Peer) resolve(frameUser user.Participant) (user.Participant, *errs.CustomError) {
	u := frameUser.Normalize()

	p.mu.Lock()
	defer p.mu.Unlock()

	if u.ID == "" {
		switch {
		case p.identity != nil:
			u.ID = p.identity.ID
		case p.user != nil:
			u.ID = p.user.ID
		}
	}
	if u.ID == "" {
		return user.Participant{}, errs.NewError(errs.ErrNotIdentified)
	}

	if p.identity != nil && p.identity.ID == u.ID {
		if u.DisplayName == "" || u.DisplayName == u.ID {
			u.DisplayName = p.identity.DisplayName
		}
		if u.PreferredLanguage == "" {
			u.PreferredLanguage = p.identity.PreferredLanguage
		}
	}
	if p.user != nil && p.user.ID == u.ID && u.PreferredLanguage == "" {
		u.PreferredLanguage = p.user.PreferredLanguage
	}
	u = u.Normalize()

	if p.user != nil && p.user.ID != u.ID {
		if p.release(p.user.ID) {
			p.logger.Info().Str("user_id", p.user.ID).Str("new_user_id", u.ID).Msg("Socket switched participant; previous slots vacated.")
		}
	}

	p.d.deps.Registry.Register(u.ID, p.socket)
	p.user = &u

	return u, nil
}

// current returns the registered participant or ErrNotIdentified.
func (p *Peer) current() (user.Participant, *errs.CustomError) {
	u, ok := p.User()
	if !ok {
		return user.Participant{}, errs.NewError(errs.ErrNotIdentified)
	}
	return u, nil
}

func (p *Peer) onIdentify(f protocol.Identify) *errs.CustomError {
	u, cerr := p.resolve(f.User)
	if cerr != nil {
		return cerr
	}

	p.reply(protocol.Identified{Type: protocol.TypeIdentified, User: u})
	return nil
}

func (p *Peer) onCreateRoom(f protocol.CreateRoom) *errs.CustomError {
	u, cerr := p.resolve(f.User)
	if cerr != nil {
		return cerr
	}

	room, cerr := p.d.deps.Rooms.CreateRoom(u)
	if cerr != nil {
		return cerr
	}

	p.reply(handshake.NewRoomCreated(room))
	return nil
}

func (p *Peer) onJoinRoom(f protocol.JoinRoom) *errs.CustomError {
	u, cerr := p.resolve(f.User)
	if cerr != nil {
		return cerr
	}

	room, cerr := p.d.deps.Rooms.JoinRoom(f.Pin, u)
	if cerr != nil {
		return cerr
	}

	p.reply(handshake.NewRoomJoined(room))
	return nil
}

func (p *Peer) onLeaveRoom(f protocol.LeaveRoom) *errs.CustomError {
	u, cerr := p.current()
	if cerr != nil {
		return cerr
	}

	if _, cerr := p.d.deps.Rooms.LeaveRoom(f.RoomID, u.ID); cerr != nil {
		return cerr
	}

	p.reply(handshake.NewRoomLeft(f.RoomID))
	return nil
}

func (p *Peer) onInitSession(f protocol.InitTranslationSession) *errs.CustomError {
	u, cerr := p.resolve(f.User)
	if cerr != nil {
		return cerr
	}

	_, cerr = p.d.deps.Sessions.Init(f.SessionID, u, f.User1Language, f.User2Language)
	return cerr
}

func (p *Peer) onJoinSession(f protocol.JoinTranslationSession) *errs.CustomError {
	u, cerr := p.resolve(f.User)
	if cerr != nil {
		return cerr
	}

	_, cerr = p.d.deps.Sessions.Join(f.SessionID, u)
	return cerr
}

// reply sends frame to this socket only.
func (p *Peer) reply(frame any) {
	if err := conn.SendTo(p.socket, frame); err != nil {
		p.logger.Debug().Err(err).Msg("Reply dropped")
	}
}

func (p *Peer) replyError(cerr *errs.CustomError) {
	p.reply(protocol.ErrorFrame{
		Type:    cerr.FrameType(),
		Code:    cerr.Code,
		Message: cerr.Message,
	})
}
