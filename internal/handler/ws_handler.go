package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"voxpair/internal/app/conn"
	"voxpair/internal/app/dispatch"
	"voxpair/internal/app/protocol"
	"voxpair/internal/app/user"
	"voxpair/internal/pkg/auth/jwt"
	"voxpair/internal/pkg/errs"
	"voxpair/internal/pkg/limiter"
	"voxpair/internal/pkg/logx"
	"voxpair/internal/pkg/resp"
)

// HandleWebSocket upgrades a connection and hands its frames to d. The socket
// stays anonymous until it identifies or sends a frame carrying a user.
func HandleWebSocket(d *dispatch.Dispatcher, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, server string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowUpgrade(w, r, rateLimiter) {
			return
		}

		identity := identityFromRequest(r)

		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket", "server", server)
			return
		}

		serve(d, conn.NewClient(wsConn, server), identity, nil)
	}
}

// HandleEmbeddedWebSocket serves /ws?sessionId=&userId=&name=&language=&peerLanguage=.
// The socket is identified and placed into the session on connect; an empty
// sessionId creates a new session.
func HandleEmbeddedWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowUpgrade(w, r, rateLimiter) {
			return
		}

		query := r.URL.Query()
		sessionID := strings.TrimSpace(query.Get("sessionId"))
		language := strings.TrimSpace(query.Get("language"))
		peerLanguage := strings.TrimSpace(query.Get("peerLanguage"))

		participant := user.Participant{
			ID:                query.Get("userId"),
			DisplayName:       query.Get("name"),
			PreferredLanguage: language,
		}
		identity := identityFromRequest(r)
		if participant.ID == "" && identity != nil {
			participant = *identity
			if language == "" {
				language = identity.PreferredLanguage
			}
		}
		participant = participant.Normalize()

		if participant.ID == "" || len(sessionID) > 64 || len(participant.ID) > 128 {
			logx.Warn("Embedded WebSocket rejected: missing or oversized parameters", "session_id", sessionID)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		// A newcomer to an existing session takes the second slot, so the
		// languages are given from the creator's side.
		lang1, lang2 := language, peerLanguage
		if sessionID != "" && deps.EmbeddedSessions != nil {
			if sess, ok := deps.EmbeddedSessions.Get(sessionID); ok && !sess.Has(participant.ID) {
				lang1, lang2 = peerLanguage, language
			}
		}

		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket", "server", "main")
			return
		}

		serve(deps.Embedded, conn.NewClient(wsConn, "main"), identity, protocol.InitTranslationSession{
			SessionID:     sessionID,
			User:          participant,
			User1Language: lang1,
			User2Language: lang2,
		})
	}
}

// serve runs the client's pumps until the read side ends. first, when set, is
// dispatched before any frame is read.
func serve(d *dispatch.Dispatcher, client *conn.Client, identity *user.Participant, first protocol.Inbound) {
	go client.WritePump()

	peer := d.Attach(client, identity)
	client.Logger().Info().Msg("WebSocket connection established")

	if first != nil {
		peer.Dispatch(first)
	}

	client.ReadPump(peer.Handle)
	peer.Close()
}

func allowUpgrade(w http.ResponseWriter, r *http.Request, rateLimiter *limiter.IPRateLimiter) bool {
	if rateLimiter.Allow(r) {
		return true
	}

	logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", limiter.ClientIP(r))
	resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
	return false
}

// identityFromRequest converts a verified token payload into a participant.
func identityFromRequest(r *http.Request) *user.Participant {
	payload := jwt.GetPayloadFromContext(r)
	if payload == nil || payload.ID == "" {
		return nil
	}

	return &user.Participant{
		ID:                payload.ID,
		DisplayName:       payload.Name,
		PreferredLanguage: payload.Language,
	}
}
