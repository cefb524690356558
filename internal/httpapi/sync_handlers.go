package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/dispatcher"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/service"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
	wsPongWait   = 60 * time.Second
)

// SyncHandler serves both delivery surfaces: the listSince pull endpoint and
// the websocket push stream.
type SyncHandler struct {
	sync     *service.SyncService
	hub      *dispatcher.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewSyncHandler(sync *service.SyncService, hub *dispatcher.Hub, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		sync: sync,
		hub:  hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Token auth happens before the upgrade; the dashboard and the
			// service run on different origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Events handles GET /sync/api/v1/events?cursor=N&limit=M.
func (h *SyncHandler) Events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	cursor := parseInt64(r.URL.Query().Get("cursor"), 0)
	limit := parseInt(r.URL.Query().Get("limit"), 0)

	page, err := h.sync.ListSince(r.Context(), actor, cursor, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(page))
}

// Stream handles GET /sync/api/v1/ws: upgrades to a websocket and forwards
// the actor's filtered event stream until either side closes. A client whose
// stream is cut for falling behind resumes from its last seq via Events.
func (h *SyncHandler) Stream(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := h.hub.Subscribe(actor)
	defer h.hub.Unsubscribe(sub)
	defer conn.Close()

	// Reader: consume control frames and detect close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case ev, open := <-sub.C:
			if !open {
				// Dropped by the hub for falling behind.
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "stream lagged, resume via events"),
					time.Now().Add(wsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("websocket write failed",
					zap.String("actor_id", actor.ID), zap.Error(err))
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
