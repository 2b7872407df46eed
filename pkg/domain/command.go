package domain

import "strings"

// Command is the raw string entered by the operator after the command marker.
type Command string

// Normalize trims surrounding whitespace and rejects blank commands.
func (c Command) Normalize() (Command, error) {
	trimmed := strings.TrimSpace(string(c))
	if trimmed == "" {
		return "", ErrEmptyCommand
	}
	return Command(trimmed), nil
}

func (c Command) String() string {
	return string(c)
}
