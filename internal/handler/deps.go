package handler

import (
	"sync"
	"time"

	"voxpair/internal/app/dispatch"
	"voxpair/internal/app/handshake"
	"voxpair/internal/app/pipeline"
	"voxpair/internal/app/session"
	"voxpair/internal/configs"
	"voxpair/internal/pkg/limiter"
)

// AppDeps carries the services shared by the three routers.
type AppDeps struct {
	Config *configs.AppConfig

	// Handshake serves room frames on the handshake server.
	Handshake *dispatch.Dispatcher

	// Translation serves session frames on the translation server.
	Translation *dispatch.Dispatcher

	// Embedded serves the single-session flow on the main server.
	Embedded *dispatch.Dispatcher

	Rooms            *handshake.Service
	Sessions         *session.Service
	EmbeddedSessions *session.Service
	Pipeline         *pipeline.Orchestrator

	StartedAt time.Time

	mu       sync.Mutex
	limiters []*limiter.IPRateLimiter
}

// newLimiter creates a rate limiter that Close stops.
func (d *AppDeps) newLimiter(l *limiter.IPRateLimiter) *limiter.IPRateLimiter {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.limiters = append(d.limiters, l)
	return l
}

// Close stops the background work started by the routers.
func (d *AppDeps) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, l := range d.limiters {
		l.Stop()
	}
	d.limiters = nil
}
