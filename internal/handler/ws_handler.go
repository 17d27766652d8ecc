package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/stemsi/presensi-backend/internal/config"
	"github.com/stemsi/presensi-backend/internal/model"
	ws "github.com/stemsi/presensi-backend/internal/websocket"
)

// WSHandler streams live recognition outcomes to admin dashboards.
type WSHandler struct {
	rdb      *redis.Client
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, cfg *config.Config) *WSHandler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	allowAll := false
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return &WSHandler{
		rdb: rdb,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// StreamRecognitions godoc
// GET /ws/v1/admin/recognitions/stream?token=...
// Subscribes the connection to the recognition feed channel and forwards
// every terminal outcome as it happens.
func (h *WSHandler) StreamRecognitions(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub := h.rdb.Subscribe(ctx, config.CacheKey.RecognitionFeedChannel())
	defer sub.Close()

	// Drain client frames so we notice when the peer goes away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				ws.WriteError(conn, "feed subscription closed")
				return
			}

			var event model.RecognitionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Msg("malformed recognition feed payload")
				continue
			}

			if err := ws.WriteTyped(conn, ws.RecognitionEventMessage{
				Event:   ws.EventRecognition,
				Payload: event,
			}); err != nil {
				return
			}
		}
	}
}
