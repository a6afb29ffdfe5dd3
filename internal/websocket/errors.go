package websocket

import "errors"

var (
	ErrNilConnection    = errors.New("connection is nil")
	ErrConnectionClosed = errors.New("connection is closed")
	ErrInvalidJSON      = errors.New("invalid JSON data")
	ErrWriteTimeout     = errors.New("write timeout")
)
