package domain

import "errors"

// ErrEmptyCommand is returned when a command is blank after trimming.
var ErrEmptyCommand = errors.New("empty command")

// ErrSessionNotFound is returned when a journal has no entries for a session ID.
var ErrSessionNotFound = errors.New("session not found")
