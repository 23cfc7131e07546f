package authmodel

import (
	"time"

	"github.com/jrsteele09/trails-auth/users"
)

// AuthResponse is returned by every endpoint that can establish a session.
// When RequiresTwoFactor is set, Token is a pending token that is only good
// for /twofactor/verify and User may be empty.
type AuthResponse struct {
	Token             string      `json:"token"`
	RefreshToken      string      `json:"refreshToken"`
	ExpiresAt         string      `json:"expiresAt"`
	User              *users.User `json:"user"`
	RequiresTwoFactor bool        `json:"requiresTwoFactor"`
}

// Zone-less layouts are interpreted as UTC.
var expiryLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
}

// Expiry parses ExpiresAt. ok is false when the field is empty or unparseable.
func (r *AuthResponse) Expiry() (t time.Time, ok bool) {
	if r == nil || r.ExpiresAt == "" {
		return time.Time{}, false
	}
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, r.ExpiresAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// HasSession reports whether the response carries everything needed to log in.
func (r *AuthResponse) HasSession() bool {
	return r != nil && r.Token != "" && r.User != nil && r.User.ID != ""
}
