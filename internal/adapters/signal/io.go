package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/nshein/duet/internal/core"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *wsSignalConn) {
	ping := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, id core.ConnID, userID string, c *wsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(id)).Msg("readPump closing")
		c.Close()
		ctl.skips.Forget(id)
		ctl.Coord.Disconnect(id)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("readPump read error")
				return
			}
			ctl.handleFrame(id, userID, c, data)
		}
	}
}

func (ctl *Controller) handleFrame(id core.ConnID, userID string, c *wsSignalConn, data []byte) {
	typ := gjson.GetBytes(data, "type").String()

	switch typ {
	case "user-online":
		ctl.handleUserOnline(id, userID, c, data)
	case "join-queue":
		ctl.Coord.JoinQueue(id)
	case "leave-queue":
		ctl.Coord.LeaveQueue(id)
	case "request-accept":
		ctl.Coord.Accept(id)
	case "request-decline":
		ctl.Coord.Decline(id)
	case "skip":
		ctl.handleSkip(id)
	case "skip-next-user":
		ctl.handleExclude(id, data)
	case "send-message":
		ctl.handleChat(id, data)
	case "send-file":
		ctl.handleFile(id, data)
	case "send-friend-request":
		ctl.handleFriendRequest(id, data)
	case "friend-response":
		ctl.handleFriendResponse(id, data)
	case "friend-call":
		ctl.handleFriendCall(id, data)
	case "accept-friend-call":
		ctl.handleAcceptFriendCall(id, data)
	case "reject-friend-call":
		ctl.handleRejectFriendCall(id, data)
	case "webrtc-offer", "webrtc-answer", "webrtc-ice-candidate":
		ctl.handleRelay(id, typ, data)
	case "ping":
		ctl.sendJSON(c, struct {
			Type string `json:"type"`
		}{Type: core.EvPong})
	default:
		log.Warn().Str("module", "signal").Str("type", typ).Msg("unknown signal")
	}
}

func (ctl *Controller) sendJSON(c *wsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
