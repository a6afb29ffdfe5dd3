package agenda

import "errors"

var (
	// ErrInvalidRange reports an unparseable week start token.
	ErrInvalidRange = errors.New("invalid week start token")
	// ErrInvertedRange reports an event whose end precedes its start.
	ErrInvertedRange = errors.New("event end precedes start")
)
