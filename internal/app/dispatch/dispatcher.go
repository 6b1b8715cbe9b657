/*
Package dispatch routes decoded WebSocket frames to the room handshake and
translation session services and runs the translation pipeline for speech and
text frames.

One Dispatcher serves one endpoint; every connection gets a Peer that tracks
the participant its socket speaks for.
*/
package dispatch

import (
	"time"

	"github.com/rs/zerolog"

	"voxpair/internal/app/conn"
	"voxpair/internal/app/handshake"
	"voxpair/internal/app/history"
	"voxpair/internal/app/pipeline"
	"voxpair/internal/app/session"
	"voxpair/internal/app/storage"
	"voxpair/internal/app/user"
	"voxpair/internal/pkg/logx"
)

// pipelineTimeout bounds one collaborator call. Closing the socket does not
// cancel it.
const pipelineTimeout = 30 * time.Second

// Features selects which frame families an endpoint accepts.
type Features struct {
	Rooms    bool
	Sessions bool

	// AutoTranslate runs the full pipeline on final speech instead of
	// relaying a translation_request to the other client.
	AutoTranslate bool
}

// Deps wires a Dispatcher.
type Deps struct {
	Name     string
	Registry *conn.Registry
	Rooms    *handshake.Service
	Sessions *session.Service
	Pipeline *pipeline.Orchestrator

	// Audio, when set, receives synthesized speech; otherwise audio is inlined.
	Audio storage.AudioStore

	// History, when set, receives every appended message.
	History *history.Writer

	AudioReadyDelay time.Duration
	Features        Features
}

// Dispatcher owns the routing for one endpoint.
type Dispatcher struct {
	deps   Deps
	logger zerolog.Logger
}

// New builds a dispatcher. Features whose service is missing are disabled.
func New(deps Deps) *Dispatcher {
	if deps.Rooms == nil {
		deps.Features.Rooms = false
	}
	if deps.Sessions == nil || deps.Pipeline == nil {
		deps.Features.Sessions = false
		deps.Features.AutoTranslate = false
	}

	return &Dispatcher{
		deps:   deps,
		logger: logx.Component("dispatch").With().Str("server", deps.Name).Logger(),
	}
}

// Registry returns the endpoint's connection registry.
func (d *Dispatcher) Registry() *conn.Registry {
	return d.deps.Registry
}

// Attach creates the peer for a new connection. identity, when non-nil, is the
// verified caller and fills participant fields that frames leave empty.
func (d *Dispatcher) Attach(s conn.Socket, identity *user.Participant) *Peer {
	p := &Peer{
		d:      d,
		socket: s,
		logger: d.logger.With().Str("conn_id", s.ID()).Logger(),
	}
	if identity != nil {
		id := identity.Normalize()
		p.identity = &id
	}

	return p
}
