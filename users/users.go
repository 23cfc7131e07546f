package users

import (
	"encoding/json"
	"strings"

	"github.com/jrsteele09/trails-auth/internal/utils"
)

// User is the profile the backend returns alongside a session token.
// It is replaced wholesale on every update; the client never patches individual fields.
type User struct {
	ID               string  `json:"id"`                        // Backend user identifier
	Email            string  `json:"email"`                     // Login email address
	FirstName        string  `json:"firstName"`                 // Given name
	LastName         string  `json:"lastName"`                  // Family name
	PhoneNumber      *string `json:"phoneNumber,omitempty"`     // Optional contact number
	ProfileImageURL  *string `json:"profileImageUrl,omitempty"` // Optional avatar location
	TwoFactorEnabled bool    `json:"twoFactorEnabled"`          // Whether logins require a second factor
}

// FullName joins the first and last names, skipping empty parts.
func (u *User) FullName() string {
	return strings.TrimSpace(strings.Join([]string{u.FirstName, u.LastName}, " "))
}

// Equal compares two profiles field by field, treating optional fields by value.
func (u *User) Equal(other *User) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.ID == other.ID &&
		u.Email == other.Email &&
		u.FirstName == other.FirstName &&
		u.LastName == other.LastName &&
		utils.EqualPtr(u.PhoneNumber, other.PhoneNumber) &&
		utils.EqualPtr(u.ProfileImageURL, other.ProfileImageURL) &&
		u.TwoFactorEnabled == other.TwoFactorEnabled
}

// Clone returns a deep copy so callers cannot mutate a stored profile through shared pointers.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.PhoneNumber != nil {
		c.PhoneNumber = utils.Ptr(*u.PhoneNumber)
	}
	if u.ProfileImageURL != nil {
		c.ProfileImageURL = utils.Ptr(*u.ProfileImageURL)
	}
	return &c
}

// Marshal serialises the profile for durable storage.
func (u *User) Marshal() (string, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Unmarshal decodes a stored profile. A record without an ID is treated as malformed.
func Unmarshal(data string) (*User, error) {
	var u User
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		return nil, err
	}
	if strings.TrimSpace(u.ID) == "" {
		return nil, ErrMalformedUser
	}
	return &u, nil
}
