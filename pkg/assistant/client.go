// Package assistant talks to the remote language model that comments on
// operator questions and command output.
package assistant

import (
	"context"
	"errors"
	"fmt"
)

// Reply is the text returned by the model.
type Reply struct {
	Text         string
	FinishReason string
}

// Client sends a fully composed prompt and returns the reply.
// Failures are returned as *Failure.
type Client interface {
	Send(ctx context.Context, prompt string) (Reply, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, prompt string) (Reply, error)

func (f ClientFunc) Send(ctx context.Context, prompt string) (Reply, error) {
	return f(ctx, prompt)
}

// FailureKind classifies a failed call.
type FailureKind string

const (
	FailureNetwork   FailureKind = "network"
	FailureService   FailureKind = "service"
	FailureMalformed FailureKind = "malformed"
	FailureEmpty     FailureKind = "empty"
)

// Failure is the typed error returned by Client implementations.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("assistant %s failure: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("assistant %s failure: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Describe returns the operator-facing description of the failure.
func (f *Failure) Describe() string {
	switch f.Kind {
	case FailureNetwork:
		if f.Err != nil {
			return fmt.Sprintf("[Network/Request Error]: %v", f.Err)
		}
		return fmt.Sprintf("[Network/Request Error]: %s", f.Message)
	case FailureService:
		return fmt.Sprintf("[API Error: %s]", f.Message)
	case FailureEmpty:
		return "[No content returned, possible safety block.]"
	default:
		return fmt.Sprintf("[Parsing Error] %s", f.Message)
	}
}

// Describe converts any error returned by a Client into displayable text.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Describe()
	}
	return fmt.Sprintf("[Network/Request Error]: %v", err)
}

// KindOf returns the failure kind of err, defaulting to FailureNetwork.
func KindOf(err error) FailureKind {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind
	}
	return FailureNetwork
}
