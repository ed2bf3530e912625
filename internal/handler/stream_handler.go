package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/cohortsched-backend/internal/model"
	"github.com/stemsi/cohortsched-backend/internal/repository"
	ws "github.com/stemsi/cohortsched-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// StreamHandler pushes committed schedule changes of one cohort to dashboards.
type StreamHandler struct {
	events   *repository.ScheduleEventRepository
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(events *repository.ScheduleEventRepository, log zerolog.Logger, allowedOrigins []string) *StreamHandler {
	return &StreamHandler{
		events:   events,
		log:      log.With().Str("component", "stream_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ScheduleStream godoc
// WS /ws/v1/cohorts/:type/:number/stream
// Forwards every schedule event of the cohort until the client disconnects.
func (h *StreamHandler) ScheduleStream(c *gin.Context) {
	var uri model.CohortURI
	key, ok := bindCohort(c, &uri, &uri)
	if !ok {
		return
	}
	partition := key.Partition()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	pubsub := h.events.Subscribe(ctx, string(partition))
	defer pubsub.Close()
	events := pubsub.Channel()

	wsLog := h.log.With().Str("partition", string(partition)).Logger()
	wsLog.Info().Msg("Dashboard connected")
	defer wsLog.Info().Msg("Dashboard disconnected")

	if err := ws.WriteTyped(conn, ws.ConnectedResponse{
		Event:      ws.EventConnected,
		Partition:  string(partition),
		CohortName: key.Name(),
	}); err != nil {
		return
	}

	h.pump(ctx, conn, events, wsLog)
}

// pump is the only writer of conn. It forwards events and answers the client actions
// handed over by readLoop until either side goes away.
func (h *StreamHandler) pump(ctx context.Context, conn *websocket.Conn, events <-chan *redis.Message, log zerolog.Logger) {
	actions := make(chan ws.Action, 4)
	closed := make(chan struct{})
	go h.readLoop(conn, log, actions, closed)

	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := ws.WriteTyped(conn, ws.ScheduleChangedResponse{
				Event: ws.EventSchedule,
				Data:  json.RawMessage(msg.Payload),
			}); err != nil {
				log.Warn().Err(err).Msg("Failed to forward schedule event")
				return
			}
		case action := <-actions:
			if err := answer(conn, log, action); err != nil {
				return
			}
		case <-ticker.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		}
	}
}

func answer(conn *websocket.Conn, log zerolog.Logger, action ws.Action) error {
	switch action {
	case ws.ActionPing:
		return ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
	default:
		log.Warn().Str("action", string(action)).Msg("Unknown action")
		return ws.WriteError(conn, "unknown action: "+string(action))
	}
}

func (h *StreamHandler) readLoop(conn *websocket.Conn, log zerolog.Logger, actions chan<- ws.Action, closed chan<- struct{}) {
	defer close(closed)
	ws.KeepAlive(conn)

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		// A client flooding actions faster than they are answered loses the excess.
		select {
		case actions <- msg.Action:
		default:
		}
	}
}
