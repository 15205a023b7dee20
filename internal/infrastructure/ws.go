package infra

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pot-code/wellbeing/internal/infrastructure/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	HandshakeTimeout: 3 * time.Second,
}

var (
	writeWait    = 10 * time.Second
	pongWait     = 30 * time.Second
	pingInterval = pongWait * 9 / 10
)

// WSHandler serves one round of a websocket session, a returned error ends the session
type WSHandler func(ctx context.Context, conn *websocket.Conn) error

// WithHeartbeat wrap handler function with heartbeat probe.
//
// prepare runs before the upgrade while the echo context is still valid, so
// it can read the authenticated user and reject the request with an error
func WithHeartbeat(prepare func(c echo.Context) (WSHandler, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		handler, err := prepare(c)
		if err != nil {
			return err
		}

		// the upgrader replies to the client itself on failure
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return nil
		}

		logger := logging.ExtractLoggerFromContext(c.Request().Context())
		ctx, cancel := context.WithCancel(logging.SetLoggerInContext(context.Background(), logger))
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		go heartbeatRoutine(ctx, conn)
		go processRoutine(ctx, cancel, conn, handler)
		return nil
	}
}

// WriteJSON writes v with the write deadline applied
func WriteJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func heartbeatRoutine(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func processRoutine(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, handler WSHandler) {
	defer func() {
		cancel()
		conn.Close()
	}()
	for {
		if err := handler(ctx, conn); err != nil {
			return
		}
	}
}
