package auth

import "errors"

var (
	InvalidBaseURLErr = errors.New("invalid api base url")
)
