package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/nshein/duet/internal/core"
	"github.com/nshein/duet/internal/domain"
)

// handleUserOnline registers the connection with its display snapshot. The
// authenticated identity from the transport wins over whatever the payload
// claims; unauthenticated connections announce as themselves.
func (ctl *Controller) handleUserOnline(id core.ConnID, userID string, conn *wsSignalConn, data []byte) {
	type onlinePayload struct {
		Type     string `json:"type"`
		UserID   string `json:"userId"`
		Username string `json:"username"`
		Avatar   string `json:"avatar"`
	}
	var p onlinePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad user-online payload")
		ctl.sendJSON(conn, map[string]any{"type": "error", "error": "bad_payload"})
		return
	}

	uid := userID
	if uid == "" {
		uid = p.UserID
	}
	profile, err := domain.NewProfile(domain.UserID(uid), p.Username, p.Avatar)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("invalid profile")
		ctl.sendJSON(conn, map[string]any{"type": "error", "error": err.Error()})
		return
	}

	ctl.Coord.UserOnline(id, *profile, conn)
}
