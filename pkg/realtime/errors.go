package realtime

import "errors"

var (
	ErrConnClosed = errors.New("realtime: connection closed")
	ErrSlowClient = errors.New("realtime: send queue full")
)
