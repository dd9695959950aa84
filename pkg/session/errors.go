package session

import "github.com/pkg/errors"

var (
	ErrIndexOutOfRange = errors.New("history index out of range")
	ErrUnknownModel    = errors.New("unknown model")
	ErrNoTransport     = errors.New("no transport configured")
)
