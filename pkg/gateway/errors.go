package gateway

import (
	"errors"

	"servicedeck/pkg/config"
)

var (
	// ErrDuplicatePrefix is returned when two routes claim the same prefix.
	ErrDuplicatePrefix = errors.New("duplicate route prefix")

	// ErrInvalidPrefix is returned for prefixes that are empty, relative or the root path.
	ErrInvalidPrefix = errors.New("route prefix must be an absolute path other than /")

	// ErrInvalidUpstream is returned when an upstream is not an absolute http(s) URL. It is the
	// same sentinel config reports, so either package's value matches.
	ErrInvalidUpstream = config.ErrInvalidUpstream
)
