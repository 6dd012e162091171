package chat

import "errors"

var (
	// ErrSessionNotFound is returned when a session id has no active session.
	ErrSessionNotFound = errors.New("chat: session not found")

	// ErrSessionTerminated is returned for any operation on a deleted session.
	ErrSessionTerminated = errors.New("chat: session terminated")
)
