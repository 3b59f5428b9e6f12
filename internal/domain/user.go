// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const MaxUsernameLen = 36

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
	ErrUserIDEmpty     = errors.New("user id empty")
)

type UserID string

// Profile is the denormalized display snapshot a connection announces at
// registration time. It is captured once and never re-fetched; profile
// storage itself lives outside this service.
type Profile struct {
	UserID   UserID `json:"userId"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// NewProfile is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewProfile(uid UserID, username, avatar string) (*Profile, error) {
	if uid == "" {
		return nil, ErrUserIDEmpty
	}
	if username == "" {
		return nil, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	return &Profile{UserID: uid, Username: username, Avatar: avatar}, nil
}
