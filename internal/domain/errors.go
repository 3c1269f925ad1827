package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found, locally
	// (unknown session) or remotely (order gone on the order API).
	ErrNotFound = errors.New("not found")
)
