package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/nshein/duet/internal/core"
	"github.com/nshein/duet/internal/domain"
)

// The relay is pure forwarding: payload internals are never validated, and
// an unknown destination is dropped, not an error — expected under
// disconnect races.

// FileMeta is file-share metadata passed through verbatim.
type FileMeta struct {
	FileURL  string `json:"fileUrl"`
	FileType string `json:"fileType"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
}

// RelayEnvelope forwards a negotiation frame (offer/answer/candidate) to the
// destination connection verbatim, with the sender's connection id attached
// and the addressing field stripped.
func (c *Coordinator) RelayEnvelope(from core.ConnID, event string, to core.ConnID, raw []byte) {
	dest, ok := c.registry.Lookup(to)
	if !ok {
		log.Debug().Str("module", "app.relay").Str("event", event).Str("to", string(to)).Msg("relay to unknown destination")
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Str("event", event).Msg("unparseable relay frame")
		return
	}
	delete(fields, "to")
	typ, _ := json.Marshal(event)
	fields["type"] = typ
	sender, _ := json.Marshal(from)
	fields["from"] = sender

	b, err := json.Marshal(fields)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("marshal relay frame")
		return
	}
	if err := dest.Signal().TrySend(core.Frame(b)); err != nil {
		log.Debug().Err(err).Str("module", "app.relay").Str("to", string(to)).Msg("drop relay frame")
	}
}

// SendChat forwards a chat message with the sender's profile attached.
func (c *Coordinator) SendChat(from, to core.ConnID, message string) {
	sender, ok := c.registry.Lookup(from)
	if !ok {
		return
	}
	c.send(to, core.TextEvent{Type: core.EvReceiveMessage, From: from, User: sender.Profile, Message: message})
}

// SendFile forwards file-share metadata with the sender's profile and a
// server timestamp attached.
func (c *Coordinator) SendFile(from, to core.ConnID, meta FileMeta) {
	sender, ok := c.registry.Lookup(from)
	if !ok {
		return
	}
	c.send(to, core.FileEvent{
		Type: core.EvReceiveFile,
		From: from, User: sender.Profile,
		FileURL: meta.FileURL, FileType: meta.FileType,
		FileName: meta.FileName, FileSize: meta.FileSize,
		Time: c.clock.Now().UnixMilli(),
	})
}

// FriendRequest fans the request out to every open connection of the target
// identity (multi-tab).
func (c *Coordinator) FriendRequest(from core.ConnID, to domain.UserID) {
	sender, ok := c.registry.Lookup(from)
	if !ok {
		return
	}
	ev := core.MessageEvent{Type: core.EvFriendRequestReceived, From: from, User: sender.Profile}
	for _, id := range c.registry.ConnectionsOf(to) {
		c.send(id, ev)
	}
}

// FriendResponse fans the accept/reject answer out the same way.
func (c *Coordinator) FriendResponse(from core.ConnID, to domain.UserID, accepted bool) {
	sender, ok := c.registry.Lookup(from)
	if !ok {
		return
	}
	ev := core.FriendResponseEvent{Type: core.EvFriendResponseReceived, From: from, User: sender.Profile, Accepted: accepted}
	for _, id := range c.registry.ConnectionsOf(to) {
		c.send(id, ev)
	}
}
