package handlers

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12

	defaultInterval = 10 * time.Second
	minInterval     = 1 * time.Second
	maxInterval     = 5 * time.Minute

	msgSensors = "sensors"
	msgError   = "error"
)

type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// upgrader accepts any origin unless CORS origins are configured, in which case
// browsers must come from one of them.
func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(h.corsOrigins) == 0 {
				return true
			}
			return slices.Contains(h.corsOrigins, "*") || slices.Contains(h.corsOrigins, origin)
		},
	}
}

// sensorStream pushes readings to one websocket client.
type sensorStream struct {
	h        *Handler
	conn     *websocket.Conn
	interval time.Duration
}

// @Summary      Live telemetry stream
// @Description  WebSocket. Sends {"type":"sensors","data":Reading} on connect and every interval.
// @Tags         device
// @Param        interval     query  string  false  "Go duration, 1s..5m"  example(30s)
// @Param        interval_ms  query  int     false  "Milliseconds, 1000..300000"
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	interval := parseInterval(c.Query("interval"), c.Query("interval_ms"))

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Infow("ws_upgrade_failed", "err", err, "origin", c.GetHeader("Origin"))
		}
		return
	}
	defer func() { _ = conn.Close() }()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	s := &sensorStream{h: h, conn: conn, interval: interval}
	if err := s.run(c.Request.Context()); err != nil && h.log != nil {
		h.log.Infow("ws_stream_closed", "err", err, "interval", interval)
	}
}

// run streams until the client goes away or a write fails.
func (s *sensorStream) run(ctx context.Context) error {
	s.conn.SetReadLimit(maxMsgSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	closed := make(chan struct{})
	go s.drain(closed)

	if err := s.push(ctx); err != nil {
		return err
	}

	tick := time.NewTicker(s.interval)
	defer tick.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return nil
		case <-ctx.Done():
			return nil
		case <-ping.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-tick.C:
			if err := s.push(ctx); err != nil {
				return err
			}
		}
	}
}

// drain reads and discards client frames so pongs and close frames are processed.
func (s *sensorStream) drain(closed chan<- struct{}) {
	defer close(closed)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// push writes one reading, or an error envelope when the portal read fails.
// Only write errors end the stream.
func (s *sensorStream) push(ctx context.Context) error {
	msg := wsEnvelope{Type: msgSensors}
	if r, err := s.h.services.Device.Sensors(ctx); err != nil {
		if s.h.log != nil {
			s.h.log.Warnw("ws_sensors_failed", "err", err)
		}
		_, text := statusFor(err)
		msg = wsEnvelope{Type: msgError, Error: text}
	} else {
		msg.Data = r
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

// parseInterval reads ?interval=30s or ?interval_ms=30000. Out-of-range or
// malformed values fall back to the default.
func parseInterval(interval, intervalMS string) time.Duration {
	inRange := func(d time.Duration) bool { return d >= minInterval && d <= maxInterval }

	if interval != "" {
		if d, err := time.ParseDuration(interval); err == nil && inRange(d) {
			return d
		}
	}
	if intervalMS != "" {
		if v, err := strconv.Atoi(intervalMS); err == nil {
			if d := time.Duration(v) * time.Millisecond; inRange(d) {
				return d
			}
		}
	}
	return defaultInterval
}
