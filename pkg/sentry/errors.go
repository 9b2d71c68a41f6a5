package sentry

import "github.com/cockroachdb/errors"

var (
	ErrInvalidConfig = errors.New("sentry: invalid config")
	ErrClientClosed  = errors.New("sentry: client closed")
)
