package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/nshein/duet/internal/app"
	"github.com/nshein/duet/internal/core"
)

// handleSkip ends the current session and looks for the next partner.
// Rapid skips inside the cooldown window are silently swallowed.
func (ctl *Controller) handleSkip(id core.ConnID) {
	if !ctl.skips.Allow(id) {
		log.Debug().Str("module", "signal").Str("conn", string(id)).Msg("skip inside cooldown")
		return
	}
	ctl.Coord.Skip(id)
}

// handleExclude records a peer to avoid in future matches; same cooldown as
// skip, since it is the same user gesture.
func (ctl *Controller) handleExclude(id core.ConnID, data []byte) {
	type excludePayload struct {
		Type string `json:"type"`
		To   string `json:"to"`
	}
	var p excludePayload
	if err := json.Unmarshal(data, &p); err != nil || p.To == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad skip-next-user payload")
		return
	}
	if !ctl.skips.Allow(id) {
		log.Debug().Str("module", "signal").Str("conn", string(id)).Msg("exclude inside cooldown")
		return
	}
	ctl.Coord.ExcludeNext(id, core.ConnID(p.To))
}

func (ctl *Controller) handleChat(id core.ConnID, data []byte) {
	type chatPayload struct {
		Type    string `json:"type"`
		To      string `json:"to"`
		Message string `json:"message"`
	}
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil || p.To == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad send-message payload")
		return
	}
	ctl.Coord.SendChat(id, core.ConnID(p.To), p.Message)
}

func (ctl *Controller) handleFile(id core.ConnID, data []byte) {
	type filePayload struct {
		Type     string `json:"type"`
		To       string `json:"to"`
		FileURL  string `json:"fileUrl"`
		FileType string `json:"fileType"`
		FileName string `json:"fileName"`
		FileSize int64  `json:"fileSize"`
	}
	var p filePayload
	if err := json.Unmarshal(data, &p); err != nil || p.To == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad send-file payload")
		return
	}
	ctl.Coord.SendFile(id, core.ConnID(p.To), app.FileMeta{
		FileURL:  p.FileURL,
		FileType: p.FileType,
		FileName: p.FileName,
		FileSize: p.FileSize,
	})
}

// handleRelay forwards negotiation frames verbatim; only the addressing
// field is inspected here.
func (ctl *Controller) handleRelay(id core.ConnID, event string, data []byte) {
	to := core.ConnID(gjson.GetBytes(data, "to").String())
	if to == "" {
		log.Debug().Str("module", "signal").Str("event", event).Msg("relay frame without destination")
		return
	}
	ctl.Coord.RelayEnvelope(id, event, to, data)
}
