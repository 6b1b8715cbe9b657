/*
Package handler provides the HTTP routing for the three listeners.

The handshake and translation servers only upgrade WebSocket connections. The
main server carries CORS, the health and stats endpoints, the REST translate
endpoint and the embedded single-session WebSocket flow. Every router applies
request ids, real IP resolution, request logging and panic recovery.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"voxpair/internal/app/dispatch"
	"voxpair/internal/pkg/auth/jwt"
	"voxpair/internal/pkg/limiter"
	"voxpair/internal/pkg/logx"
	"voxpair/internal/pkg/resp"
)

const (
	UpgradeRate    = 1
	UpgradeBurst   = 10
	TranslateRate  = 0.5
	TranslateBurst = 5
)

// HandshakeRouter serves the room handshake WebSocket endpoint.
func HandshakeRouter(deps *AppDeps) http.Handler {
	return socketRouter(deps, "handshake", deps.Handshake)
}

// TranslationRouter serves the translation session WebSocket endpoint.
func TranslationRouter(deps *AppDeps) http.Handler {
	return socketRouter(deps, "translation", deps.Translation)
}

// socketRouter accepts upgrades on "/" and "/ws".
func socketRouter(deps *AppDeps, server string, d *dispatch.Dispatcher) http.Handler {
	upgradeLimiter := deps.newLimiter(limiter.NewIPRateLimiter(rate.Limit(UpgradeRate), UpgradeBurst))

	r := chi.NewRouter()
	useCommonMiddleware(r, server)

	r.Get("/health", HandleHealth(server))

	ws := HandleWebSocket(d, newUpgrader(deps), upgradeLimiter, server)
	r.Group(func(g chi.Router) {
		g.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))
		g.Get("/", ws)
		g.Get("/ws", ws)
	})

	return r
}

// Router sets up the main HTTP server: CORS, health, stats, REST translate and
// the embedded single-session WebSocket endpoint.
func Router(deps *AppDeps) http.Handler {
	upgradeLimiter := deps.newLimiter(limiter.NewIPRateLimiter(rate.Limit(UpgradeRate), UpgradeBurst))
	translateLimiter := deps.newLimiter(limiter.NewIPRateLimiter(rate.Limit(TranslateRate), TranslateBurst))

	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	useCommonMiddleware(r, "main")

	r.Get("/health", HandleHealth("main"))

	r.Group(func(g chi.Router) {
		g.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		g.Route("/api", func(api chi.Router) {
			api.Get("/stats", HandleStats(deps))

			rateLimitedTranslate := translateLimiter.Middleware(HandleTranslate(deps))
			api.Post("/translate", rateLimitedTranslate.ServeHTTP)
		})

		g.Get("/ws", HandleEmbeddedWebSocket(deps, newUpgrader(deps), upgradeLimiter))
	})

	return r
}

func useCommonMiddleware(r chi.Router, server string) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger(server))
	r.Use(middleware.Recoverer)
}

// newUpgrader checks the Origin header against ALLOWED_ORIGINS outside
// development.
func newUpgrader(deps *AppDeps) websocket.Upgrader {
	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}
	development := deps.Config.IsDevelopment()

	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if development {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}
}

// HandleHealth reports liveness for one listener.
func HandleHealth(server string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{
			"status":  "ok",
			"service": "voxpair",
			"server":  server,
		})
	}
}
