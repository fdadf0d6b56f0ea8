package api

import (
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"docsync/internal/auth"
	"docsync/internal/bridge"
	"docsync/internal/metrics"
	"docsync/internal/models"
	"docsync/internal/session"
)

type Handlers struct {
	log        *zap.SugaredLogger
	hub        *session.Hub
	bridge     *bridge.Bridge
	resolver   *auth.Resolver
	sendBuffer int
}

func NewHandlers(log *zap.SugaredLogger, hub *session.Hub, br *bridge.Bridge, resolver *auth.Resolver, sendBuffer int) *Handlers {
	return &Handlers{
		log:        log,
		hub:        hub,
		bridge:     br,
		resolver:   resolver,
		sendBuffer: sendBuffer,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// EditorWS is the connection gateway: it resolves the caller's identity,
// delivers the initial document snapshot, joins the room, then runs the
// session loop until disconnect.
//
// Document-level owner/editor/viewer permissions are enforced by the external
// CRUD system only; this layer accepts any caller, authenticated or not.
func (h *Handlers) EditorWS(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "id")
	userID := h.resolver.Resolve(r)

	content, err := h.bridge.Load(r.Context(), docID)
	if err != nil {
		h.log.Errorw("document load failed", "document_id", docID, "error", err)
		http.Error(w, "document unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := session.NewClient(conn, uuid.NewString(), userID, docID, h.sendBuffer)
	go client.WritePump()

	// Snapshot goes out before the client becomes visible to the room, so it
	// never observes a peer's change frame ahead of its own baseline.
	client.Send(models.NewDocumentContent(content, userID))

	room := h.hub.Join(docID, client)
	room.Broadcast(models.NewUserJoined(userID), client)
	metrics.ActiveConnections.Inc()
	h.log.Infow("session active", "connection_id", client.ID, "document_id", docID, "user_id", userID)

	// Teardown must run exactly once no matter how the disconnect was
	// triggered; the room is left before user_left goes out so no later
	// broadcast attempts delivery to this handle.
	var once sync.Once
	teardown := func() {
		once.Do(func() {
			h.hub.Leave(docID, client)
			room.Broadcast(models.NewUserLeft(userID), client)
			client.Close()
			metrics.ActiveConnections.Dec()
			h.log.Infow("session closed", "connection_id", client.ID, "document_id", docID, "user_id", userID)
		})
	}
	defer teardown()

	for {
		data, err := client.ReadMessage()
		if err != nil {
			return
		}
		h.dispatch(client, room, data)
	}
}

func (h *Handlers) dispatch(c *session.Client, room *session.Room, data []byte) {
	msg, err := models.DecodeInbound(data)
	switch {
	case errors.Is(err, models.ErrUnknownType):
		// tolerated: no error frame, connection stays active
		return
	case err != nil:
		// malformed frames are dropped silently
		return
	}

	switch m := msg.(type) {
	case models.TextChangeRequest:
		metrics.FramesIn.WithLabelValues(models.TypeTextChange).Inc()
		// the store must reflect the edit before any peer observes it
		if err := h.bridge.Save(c.RoomID, m.Content); err != nil {
			c.Send(models.NewError("save_failed"))
			return
		}
		room.Broadcast(models.NewTextChange(c.UserID, m), c)
		metrics.Broadcasts.WithLabelValues(models.TypeTextChange).Inc()

	case models.CursorRequest:
		metrics.FramesIn.WithLabelValues(models.TypeCursorPosition).Inc()
		room.Broadcast(models.NewCursorPosition(c.UserID, m.Position, m.Selection), c)
		metrics.Broadcasts.WithLabelValues(models.TypeCursorPosition).Inc()
	}
}
