package handlers

import "time"

const (
	ErrInvalidRequestBody  = "Invalid request body"
	ErrInternalServerError = "Internal server error"

	// frames streamed to a websocket client while a drag is in progress
	frameInterval = 50 * time.Millisecond

	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	wsSendBuffer = 64
	wsMaxMessage = 4096
)
