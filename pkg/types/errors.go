package types

import "errors"

var (
	ErrUnknownKind      = errors.New("unknown message kind")
	ErrMalformedPayload = errors.New("message payload missing required fields")
)
