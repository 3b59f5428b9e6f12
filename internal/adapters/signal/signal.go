// Package signal is the websocket edge of the coordinator: one controller
// per server, one wsSignalConn per client tab.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/nshein/duet/internal/app"
	"github.com/nshein/duet/internal/config"
	"github.com/nshein/duet/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Coord *app.Coordinator
	Cfg   *config.Config

	skips *CooldownLimiter
}

func NewController(coord *app.Coordinator, cfg *config.Config) *Controller {
	return &Controller{
		Coord: coord,
		Cfg:   cfg,
		skips: NewCooldownLimiter(cfg.SkipCooldown),
	}
}

type wsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the request and runs the pumps. Each upgrade is its own
// connection id even for the same browser, so every tab is an independent
// presence.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	id := core.ConnID(uuid.NewString())
	userID := c.GetString("user_id")
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("user", userID).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.Cfg.ReadLimit)

	conn := &wsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, id, userID, conn)
	}()
}
