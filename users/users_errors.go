package users

import "errors"

var (
	ErrMalformedUser = errors.New("malformed user record")
)
