package core

import "github.com/nshein/duet/internal/domain"

// Outbound event types. Every frame sent to a client is a JSON object with
// a "type" discriminator; names are part of the client contract.
const (
	EvActiveUserCount        = "active-user-count"
	EvFriendStatusUpdate     = "friend-status-update"
	EvMatchFound             = "match-found"
	EvPartnerAccepted        = "partner-accepted"
	EvMatchConfirmed         = "match-confirmed"
	EvMatchTimeout           = "match-timeout"
	EvPartnerSkipped         = "partner-skipped"
	EvSkippedPartner         = "skipped-partner"
	EvPartnerDecline         = "partner-decline"
	EvPartnerDisconnect      = "partner-disconnect"
	EvReceiveMessage         = "receive-message"
	EvReceiveFile            = "receive-file"
	EvFriendRequestReceived  = "friend-request-received"
	EvFriendResponseReceived = "friend-response-received"
	EvIncomingFriendCall     = "incoming-friend-call"
	EvFriendCallRejected     = "friend-call-rejected"
	EvFriendCallTimeout      = "friend-call-timeout"
	EvFriendCallFailed       = "friend-call-failed"
	EvPong                   = "pong"
)

// StatusEntry is one row of the full presence list.
type StatusEntry struct {
	SocketID ConnID `json:"socketId"`
	domain.Profile
}

type ActiveUserCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type FriendStatusUpdate struct {
	Type  string        `json:"type"`
	Users []StatusEntry `json:"users"`
}

// MatchFound proposes a pairing; both sides still have to accept it.
type MatchFound struct {
	Type          string         `json:"type"`
	PartnerSocket ConnID         `json:"partnerSocket"`
	PartnerData   domain.Profile `json:"partnerData"`
}

// PartnerInfo is the finalized partner record, used by clients to address
// relayed frames after a pairing is confirmed.
type PartnerInfo struct {
	SocketID ConnID `json:"socketId"`
	domain.Profile
}

type MatchConfirmed struct {
	Type    string      `json:"type"`
	Partner PartnerInfo `json:"partner"`
}

// UserEvent covers the partner-* family: the peer's profile plus a type.
type UserEvent struct {
	Type string         `json:"type"`
	User domain.Profile `json:"user"`
}

type MessageEvent struct {
	Type string         `json:"type"`
	From ConnID         `json:"from"`
	User domain.Profile `json:"user"`
}

type TextEvent struct {
	Type    string         `json:"type"`
	From    ConnID         `json:"from"`
	User    domain.Profile `json:"user"`
	Message string         `json:"message"`
}

type FileEvent struct {
	Type     string         `json:"type"`
	From     ConnID         `json:"from"`
	User     domain.Profile `json:"user"`
	FileURL  string         `json:"fileUrl"`
	FileType string         `json:"fileType"`
	FileName string         `json:"fileName"`
	FileSize int64          `json:"fileSize"`
	Time     int64          `json:"time"`
}

type FriendResponseEvent struct {
	Type     string         `json:"type"`
	From     ConnID         `json:"from"`
	User     domain.Profile `json:"user"`
	Accepted bool           `json:"accepted"`
}

type InfoEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
