package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/nshein/duet/internal/core"
	"github.com/nshein/duet/internal/domain"
)

func (ctl *Controller) handleFriendCall(id core.ConnID, data []byte) {
	type callPayload struct {
		Type string `json:"type"`
		To   string `json:"to"` // target identity, not a connection
	}
	var p callPayload
	if err := json.Unmarshal(data, &p); err != nil || p.To == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad friend-call payload")
		return
	}
	ctl.Coord.PlaceCall(id, domain.UserID(p.To))
}

func (ctl *Controller) handleAcceptFriendCall(id core.ConnID, data []byte) {
	type acceptPayload struct {
		Type string `json:"type"`
		From string `json:"from"` // calling connection
	}
	var p acceptPayload
	if err := json.Unmarshal(data, &p); err != nil || p.From == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad accept-friend-call payload")
		return
	}
	ctl.Coord.AcceptCall(id, core.ConnID(p.From))
}

func (ctl *Controller) handleRejectFriendCall(id core.ConnID, data []byte) {
	type rejectPayload struct {
		Type string `json:"type"`
		From string `json:"from"`
	}
	var p rejectPayload
	if err := json.Unmarshal(data, &p); err != nil || p.From == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad reject-friend-call payload")
		return
	}
	ctl.Coord.RejectCall(id, core.ConnID(p.From))
}

func (ctl *Controller) handleFriendRequest(id core.ConnID, data []byte) {
	type reqPayload struct {
		Type string `json:"type"`
		To   string `json:"to"` // target identity
	}
	var p reqPayload
	if err := json.Unmarshal(data, &p); err != nil || p.To == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad send-friend-request payload")
		return
	}
	ctl.Coord.FriendRequest(id, domain.UserID(p.To))
}

func (ctl *Controller) handleFriendResponse(id core.ConnID, data []byte) {
	type respPayload struct {
		Type     string `json:"type"`
		To       string `json:"to"`
		Accepted bool   `json:"accepted"`
	}
	var p respPayload
	if err := json.Unmarshal(data, &p); err != nil || p.To == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad friend-response payload")
		return
	}
	ctl.Coord.FriendResponse(id, domain.UserID(p.To), p.Accepted)
}
