package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"docsync/internal/auth"
	"docsync/internal/bridge"
	"docsync/internal/models"
	"docsync/internal/session"
	"docsync/internal/store"
	"docsync/internal/store/memory"
)

const testSecret = "test-secret"

type frameCapture struct {
	frames []models.Outbound
}

func (c *frameCapture) hook(frame models.Outbound) { c.frames = append(c.frames, frame) }

type stubStore struct {
	loadFn func(ctx context.Context, id string) (string, error)
	saveFn func(ctx context.Context, id, content string) error
}

func (s *stubStore) Load(ctx context.Context, id string) (string, error) {
	if s.loadFn != nil {
		return s.loadFn(ctx, id)
	}
	return "", store.ErrNotFound
}

func (s *stubStore) Save(ctx context.Context, id, content string) error {
	if s.saveFn != nil {
		return s.saveFn(ctx, id, content)
	}
	return nil
}

func newTestHandlers(t *testing.T, st store.DocumentStore) *Handlers {
	t.Helper()
	log := zap.NewNop().Sugar()
	br := bridge.New(st, log, 2, time.Second)
	t.Cleanup(br.Close)
	return NewHandlers(log, session.NewHub(), br, auth.NewResolver(testSecret), 16)
}

func newTestServer(t *testing.T, st store.DocumentStore) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/ws/documents/{id}", newTestHandlers(t, st).EditorWS)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func signToken(t *testing.T, sub string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func dial(t *testing.T, server *httptest.Server, docID, userID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/documents/" + docID
	if userID != "" {
		wsURL += "?token=" + signToken(t, userID)
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decode frame %s: %v", data, err)
	}
	return frame
}

// expectNoFrame must be the last read on a connection: the expired deadline
// leaves the read side unusable.
func expectNoFrame(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, data, err := conn.ReadMessage(); err == nil {
		t.Fatalf("unexpected frame: %s", data)
	}
}

func sendJSON(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func TestSnapshotOnConnect(t *testing.T) {
	st := memory.New()
	st.Create("doc1", "hello world")
	server := newTestServer(t, st)

	conn := dial(t, server, "doc1", "A")
	frame := readFrame(t, conn)
	if frame["type"] != "document_content" || frame["content"] != "hello world" || frame["user_id"] != "A" {
		t.Fatalf("unexpected snapshot: %#v", frame)
	}
}

func TestSnapshotMissingDocumentIsEmpty(t *testing.T) {
	server := newTestServer(t, memory.New())

	conn := dial(t, server, "ghost", "")
	frame := readFrame(t, conn)
	if frame["type"] != "document_content" || frame["content"] != "" || frame["user_id"] != "anonymous" {
		t.Fatalf("unexpected snapshot: %#v", frame)
	}
}

func TestTextChangeFanoutAndPersistence(t *testing.T) {
	st := memory.New()
	st.Create("doc1", "hello world")
	server := newTestServer(t, st)

	connA := dial(t, server, "doc1", "")
	readFrame(t, connA) // snapshot

	connB := dial(t, server, "doc1", "B")
	readFrame(t, connB) // snapshot

	joined := readFrame(t, connA)
	if joined["type"] != "user_joined" || joined["user_id"] != "B" {
		t.Fatalf("expected user_joined for B, got %#v", joined)
	}

	sendJSON(t, connB, `{"type":"text_change","operation":"insert","position":5,"text":"hi","content":"hello hi world"}`)

	change := readFrame(t, connA)
	want := map[string]any{
		"type": "text_change", "user_id": "B", "operation": "insert",
		"position": float64(5), "text": "hi", "length": float64(0), "content": "hello hi world",
	}
	for k, v := range want {
		if change[k] != v {
			t.Fatalf("field %s: want %v, got %v (frame %#v)", k, v, change[k], change)
		}
	}

	// save precedes broadcast, so the store is already up to date
	content, err := st.Load(context.Background(), "doc1")
	if err != nil || content != "hello hi world" {
		t.Fatalf("store content %q err=%v", content, err)
	}

	expectNoFrame(t, connB) // the sender never sees its own edit
}

func TestCursorFanout(t *testing.T) {
	st := memory.New()
	st.Create("doc1", "hello world")
	server := newTestServer(t, st)

	connA := dial(t, server, "doc1", "A")
	readFrame(t, connA) // snapshot

	connB := dial(t, server, "doc1", "")
	readFrame(t, connB) // snapshot
	readFrame(t, connA) // user_joined

	sendJSON(t, connA, `{"type":"cursor_position","position":10}`)

	cursor := readFrame(t, connB)
	if cursor["type"] != "cursor_position" || cursor["user_id"] != "A" || cursor["position"] != float64(10) {
		t.Fatalf("unexpected cursor frame: %#v", cursor)
	}
	if sel, present := cursor["selection"]; !present || sel != nil {
		t.Fatalf("expected explicit null selection, got %#v", cursor)
	}

	content, err := st.Load(context.Background(), "doc1")
	if err != nil || content != "hello world" {
		t.Fatalf("cursor moves must not touch the store, content %q err=%v", content, err)
	}
}

func TestUnknownTypeIgnoredAndConnectionStaysActive(t *testing.T) {
	st := memory.New()
	st.Create("doc1", "hello world")
	server := newTestServer(t, st)

	connA := dial(t, server, "doc1", "A")
	readFrame(t, connA) // snapshot

	connB := dial(t, server, "doc1", "B")
	readFrame(t, connB) // snapshot
	readFrame(t, connA) // user_joined

	sendJSON(t, connB, `{"type":"ping"}`)
	sendJSON(t, connB, `{"type":"cursor_position","position":7}`)

	// the next frame A sees is the cursor move: the ping produced no broadcast
	// and B's connection survived it
	frame := readFrame(t, connA)
	if frame["type"] != "cursor_position" || frame["position"] != float64(7) {
		t.Fatalf("expected cursor frame after ignored ping, got %#v", frame)
	}

	expectNoFrame(t, connB) // no error frame came back for the ping
}

func TestDisconnectBroadcastsUserLeftOnce(t *testing.T) {
	st := memory.New()
	st.Create("doc1", "hello world")
	server := newTestServer(t, st)

	connA := dial(t, server, "doc1", "A")
	readFrame(t, connA) // snapshot

	connB := dial(t, server, "doc1", "")
	readFrame(t, connB) // snapshot
	readFrame(t, connA) // user_joined

	if err := connA.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	left := readFrame(t, connB)
	if left["type"] != "user_left" || left["user_id"] != "A" {
		t.Fatalf("expected one user_left for A, got %#v", left)
	}
	expectNoFrame(t, connB) // and never a second one
}

func TestMalformedTextChangeDropped(t *testing.T) {
	st := memory.New()
	st.Create("doc1", "hello world")
	server := newTestServer(t, st)

	connA := dial(t, server, "doc1", "A")
	readFrame(t, connA) // snapshot

	connB := dial(t, server, "doc1", "B")
	readFrame(t, connB) // snapshot
	readFrame(t, connA) // user_joined

	sendJSON(t, connB, `{"type":"text_change","operation":"insert","position":1}`)

	expectNoFrame(t, connA)
	content, _ := st.Load(context.Background(), "doc1")
	if content != "hello world" {
		t.Fatalf("malformed frame must not reach the store, got %q", content)
	}
}

func TestSaveFailureSendsErrorFrameAndNoBroadcast(t *testing.T) {
	st := &stubStore{
		loadFn: func(context.Context, string) (string, error) { return "hello world", nil },
		saveFn: func(context.Context, string, string) error { return errors.New("store down") },
	}
	server := newTestServer(t, st)

	connA := dial(t, server, "doc1", "A")
	readFrame(t, connA) // snapshot

	connB := dial(t, server, "doc1", "B")
	readFrame(t, connB) // snapshot
	readFrame(t, connA) // user_joined

	sendJSON(t, connB, `{"type":"text_change","operation":"insert","position":0,"content":"x"}`)

	errFrame := readFrame(t, connB)
	if errFrame["type"] != "error" || errFrame["error"] != "save_failed" {
		t.Fatalf("expected save_failed error frame, got %#v", errFrame)
	}
	expectNoFrame(t, connA) // no broadcast without a completed save
}

/*** dispatch unit tests: no network, capture hooks only ***/

func TestDispatchCursorExcludesSender(t *testing.T) {
	h := newTestHandlers(t, memory.New())
	room := session.NewRoom("doc1")

	sender := session.NewClient(nil, "c1", "A", "doc1", 4)
	sender.SetSendHook(func(models.Outbound) { t.Fatal("sender must not receive its own frame") })
	peer := session.NewClient(nil, "c2", "B", "doc1", 4)
	capture := &frameCapture{}
	peer.SetSendHook(capture.hook)

	room.Join(sender)
	room.Join(peer)

	h.dispatch(sender, room, []byte(`{"type":"cursor_position","position":3}`))

	if len(capture.frames) != 1 {
		t.Fatalf("expected one frame at peer, got %#v", capture.frames)
	}
	cursor, ok := capture.frames[0].(models.CursorPosition)
	if !ok || cursor.UserID != "A" || cursor.Position != 3 {
		t.Fatalf("unexpected frame: %#v", capture.frames[0])
	}
}

func TestDispatchMalformedProducesNothing(t *testing.T) {
	h := newTestHandlers(t, memory.New())
	room := session.NewRoom("doc1")

	sender := session.NewClient(nil, "c1", "A", "doc1", 4)
	senderCap := &frameCapture{}
	sender.SetSendHook(senderCap.hook)
	peer := session.NewClient(nil, "c2", "B", "doc1", 4)
	peerCap := &frameCapture{}
	peer.SetSendHook(peerCap.hook)

	room.Join(sender)
	room.Join(peer)

	h.dispatch(sender, room, []byte(`not json`))
	h.dispatch(sender, room, []byte(`{"type":"text_change","operation":"insert"}`))
	h.dispatch(sender, room, []byte(`{"type":"whatever"}`))

	if len(senderCap.frames) != 0 || len(peerCap.frames) != 0 {
		t.Fatalf("expected silence, sender=%#v peer=%#v", senderCap.frames, peerCap.frames)
	}
}
