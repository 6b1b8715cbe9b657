package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"voxpair/internal/app/ai"
	"voxpair/internal/app/conn"
	"voxpair/internal/app/dispatch"
	"voxpair/internal/app/handshake"
	"voxpair/internal/app/pipeline"
	"voxpair/internal/app/protocol"
	"voxpair/internal/app/schedule"
	"voxpair/internal/app/session"
	"voxpair/internal/app/user"
	"voxpair/internal/configs"
	"voxpair/internal/pkg/auth/jwt"
)

func newTestDeps(t *testing.T) *AppDeps {
	t.Helper()

	cfg, err := configs.LoadConfigFrom(func(string) string { return "" })
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	provider := ai.NewStub(&ai.StubConfig{Transcript: "Hello", Dictionary: ai.DefaultStubConfig().Dictionary})
	orchestrator := pipeline.NewOrchestrator(provider, provider, provider)

	handshakeRegistry := conn.NewRegistry("handshake")
	translationRegistry := conn.NewRegistry("translation")
	embeddedRegistry := conn.NewRegistry("main")

	handshakeScheduler := schedule.New()
	translationScheduler := schedule.New()
	embeddedScheduler := schedule.New()

	rooms := handshake.NewService(handshakeRegistry, handshakeScheduler, 20*time.Millisecond)
	sessions := session.NewService(translationRegistry, translationScheduler)
	embeddedSessions := session.NewService(embeddedRegistry, embeddedScheduler)

	rooms.OnComplete(func(room handshake.Room) {
		sessions.Pair(room.ID, *room.Host, *room.Guest)
	})

	deps := &AppDeps{
		Config: cfg,
		Handshake: dispatch.New(dispatch.Deps{
			Name:     "handshake",
			Registry: handshakeRegistry,
			Rooms:    rooms,
			Features: dispatch.Features{Rooms: true},
		}),
		Translation: dispatch.New(dispatch.Deps{
			Name:            "translation",
			Registry:        translationRegistry,
			Sessions:        sessions,
			Pipeline:        orchestrator,
			AudioReadyDelay: 10 * time.Millisecond,
			Features:        dispatch.Features{Sessions: true},
		}),
		Embedded: dispatch.New(dispatch.Deps{
			Name:            "main",
			Registry:        embeddedRegistry,
			Sessions:        embeddedSessions,
			Pipeline:        orchestrator,
			AudioReadyDelay: 10 * time.Millisecond,
			Features:        dispatch.Features{Sessions: true, AutoTranslate: true},
		}),
		Rooms:            rooms,
		Sessions:         sessions,
		EmbeddedSessions: embeddedSessions,
		Pipeline:         orchestrator,
		StartedAt:        time.Now(),
	}

	t.Cleanup(func() {
		deps.Close()
		rooms.Shutdown()
		sessions.Shutdown()
		embeddedSessions.Shutdown()
		handshakeScheduler.Stop()
		translationScheduler.Stop()
		embeddedScheduler.Stop()
	})

	return deps
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func write(t *testing.T, c *websocket.Conn, frame map[string]any) {
	t.Helper()

	if err := c.WriteJSON(frame); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// readUntil reads frames until one of type typ arrives.
func readUntil(t *testing.T, c *websocket.Conn, typ string) map[string]any {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for {
		if err := c.SetReadDeadline(deadline); err != nil {
			t.Fatalf("deadline: %v", err)
		}

		var frame map[string]any
		if err := c.ReadJSON(&frame); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if frame["type"] == typ {
			return frame
		}
	}
}

func participant(id, lang string) map[string]any {
	return map[string]any{"id": id, "name": id, "preferredLanguage": lang}
}

func sessionUser(id string) user.Participant {
	return user.Participant{ID: id, DisplayName: id}
}

func TestEndToEnd_PairThenTranslate(t *testing.T) {
	deps := newTestDeps(t)

	handshakeSrv := httptest.NewServer(HandshakeRouter(deps))
	defer handshakeSrv.Close()
	translationSrv := httptest.NewServer(TranslationRouter(deps))
	defer translationSrv.Close()

	a := dial(t, handshakeSrv, "/")
	b := dial(t, handshakeSrv, "/ws")

	write(t, a, map[string]any{"type": protocol.TypeCreateRoom, "user": participant("alice", "en")})
	created := readUntil(t, a, protocol.TypeRoomCreated)
	room := created["room"].(map[string]any)
	pin, roomID := room["pin"].(string), room["roomId"].(string)
	if len(pin) != 6 {
		t.Fatalf("pin=%q, want 6 digits", pin)
	}

	write(t, b, map[string]any{"type": protocol.TypeJoinRoom, "pin": pin, "user": participant("bob", "es")})
	readUntil(t, b, protocol.TypeRoomJoined)
	readUntil(t, a, protocol.TypeUserJoined)

	for _, c := range []*websocket.Conn{a, b} {
		done := readUntil(t, c, protocol.TypeHandshakeComplete)
		if done["roomId"] != roomID {
			t.Fatalf("handshake roomId=%v, want %s", done["roomId"], roomID)
		}
	}

	ta := dial(t, translationSrv, "/")
	tb := dial(t, translationSrv, "/")

	write(t, ta, map[string]any{"type": protocol.TypeInitTranslationSession, "sessionId": roomID, "user": participant("alice", "en")})
	write(t, tb, map[string]any{"type": protocol.TypeInitTranslationSession, "sessionId": roomID, "user": participant("bob", "es")})
	readUntil(t, ta, protocol.TypeSessionCreated)
	readUntil(t, tb, protocol.TypeSessionCreated)

	write(t, ta, map[string]any{
		"type":           protocol.TypeTextTranslation,
		"sessionId":      roomID,
		"text":           "Hello",
		"sourceLanguage": "en",
		"targetLanguage": "es",
	})

	for _, c := range []*websocket.Conn{ta, tb} {
		res := readUntil(t, c, protocol.TypeTranslationResult)
		msg := res["message"].(map[string]any)
		if msg["translatedText"] != "Hola" || msg["originalText"] != "Hello" {
			t.Fatalf("message=%v, want Hello -> Hola", msg)
		}
		readUntil(t, c, protocol.TypeAudioReady)
	}
}

func TestEmbeddedWebSocket_JoinsOnConnect(t *testing.T) {
	deps := newTestDeps(t)

	srv := httptest.NewServer(Router(deps))
	defer srv.Close()

	a := dial(t, srv, "/ws?userId=u1&name=Ann&language=en&peerLanguage=es")
	created := readUntil(t, a, protocol.TypeSessionCreated)
	sessionID, _ := created["sessionId"].(string)
	if sessionID == "" {
		t.Fatalf("created frame without session id: %v", created)
	}

	b := dial(t, srv, "/ws?sessionId="+url.QueryEscape(sessionID)+"&userId=u2&name=Ben&language=es")
	readUntil(t, b, protocol.TypeSessionCreated)

	active := readUntil(t, a, protocol.TypeSessionActive)
	sess := active["session"].(map[string]any)
	if sess["user1Language"] != "en" || sess["user2Language"] != "es" {
		t.Fatalf("languages=%v/%v, want en/es", sess["user1Language"], sess["user2Language"])
	}

	write(t, b, map[string]any{
		"type":       protocol.TypeSpeechInput,
		"sessionId":  sessionID,
		"transcript": "Hola",
		"language":   "es",
		"isFinal":    true,
	})

	res := readUntil(t, a, protocol.TypeTranslationResult)
	msg := res["message"].(map[string]any)
	if msg["translatedText"] != "Hello" || msg["targetLanguage"] != "en" {
		t.Fatalf("message=%v, want Hola -> Hello in en", msg)
	}
}

func TestEmbeddedWebSocket_RequiresUser(t *testing.T) {
	deps := newTestDeps(t)

	srv := httptest.NewServer(Router(deps))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/ws?language=en")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer res.Body.Close()

	var body struct {
		Code int `json:"code"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != 1001 {
		t.Fatalf("code=%d, want 1001", body.Code)
	}
}

func TestWebSocket_TokenIdentityFillsMissingID(t *testing.T) {
	deps := newTestDeps(t)

	srv := httptest.NewServer(HandshakeRouter(deps))
	defer srv.Close()

	token, err := jwt.GenerateToken(&jwt.Payload{ID: "carol", Name: "Carol", Language: "fr"}, deps.Config.JWTSecret, time.Minute)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	c := dial(t, srv, "/?token="+url.QueryEscape(token))
	write(t, c, map[string]any{"type": protocol.TypeCreateRoom, "user": map[string]any{}})

	created := readUntil(t, c, protocol.TypeRoomCreated)
	host := created["room"].(map[string]any)["host"].(map[string]any)
	if host["id"] != "carol" || host["name"] != "Carol" {
		t.Fatalf("host=%v, want carol from token", host)
	}
}

func TestHealth(t *testing.T) {
	deps := newTestDeps(t)

	rec := httptest.NewRecorder()
	Router(deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("health=%d %s", rec.Code, rec.Body.String())
	}
}

func TestTranslateEndpoint(t *testing.T) {
	deps := newTestDeps(t)
	router := Router(deps)

	post := func(body string) map[string]any {
		r := httptest.NewRequest(http.MethodPost, "/api/translate", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, r)

		var out map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
		return out
	}

	ok := post(`{"text":"Hello","sourceLanguage":"en","targetLanguage":"fr"}`)
	data, _ := ok["data"].(map[string]any)
	if ok["code"] != float64(0) || data["translatedText"] != "Bonjour" {
		t.Fatalf("translate=%v, want Bonjour", ok)
	}

	missing := post(`{"text":"Hello"}`)
	if missing["code"] != float64(1001) {
		t.Fatalf("missing target code=%v, want 1001", missing["code"])
	}

	unknown := post(`{"text":"Hello","targetLanguage":"es","extra":true}`)
	if unknown["code"] != float64(1003) {
		t.Fatalf("unknown field code=%v, want 1003", unknown["code"])
	}
}

func TestStats(t *testing.T) {
	deps := newTestDeps(t)

	if _, cerr := deps.Sessions.Init("s1", sessionUser("a"), "en", "es"); cerr != nil {
		t.Fatalf("init: %v", cerr)
	}
	deps.Sessions.RecordLatency("s1", pipeline.Latency{Translation: 100, Total: 100})
	deps.EmbeddedSessions.Pair("s2", sessionUser("b"), sessionUser("c"))
	deps.EmbeddedSessions.RecordLatency("s2", pipeline.Latency{Translation: 200, Total: 400})

	rec := httptest.NewRecorder()
	Router(deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	var out struct {
		Data StatsResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	stats := out.Data
	if stats.Sessions.Total != 1 || stats.Sessions.Active != 0 {
		t.Fatalf("sessions=%+v, want 1 total 0 active", stats.Sessions)
	}
	if stats.EmbeddedSessions.Active != 1 {
		t.Fatalf("embedded=%+v, want 1 active", stats.EmbeddedSessions)
	}
	if stats.LatencySamples != 2 || stats.AverageLatency == nil || stats.AverageLatency.Total != 250 {
		t.Fatalf("latency=%+v samples=%d, want total 250 over 2", stats.AverageLatency, stats.LatencySamples)
	}
}
