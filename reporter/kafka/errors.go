package kafka

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrQueueFull is recorded when an event is dropped because the queue
	// between Report and the writer is full.
	ErrQueueFull = errors.New("kafka reporter queue full")

	// ErrClosed is recorded when an event is reported after Close.
	ErrClosed = errors.New("kafka reporter closed")

	ErrConnectionFailed     = errors.New("connection failed")
	ErrConnectionLost       = errors.New("connection lost")
	ErrBrokerNotAvailable   = errors.New("broker not available")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrAuthorizationFailed  = errors.New("authorization failed")
	ErrTopicNotFound        = errors.New("topic not found")
	ErrMessageTooLarge      = errors.New("message too large")
	ErrLeaderNotAvailable   = errors.New("leader not available")
	ErrRequestTimedOut      = errors.New("request timed out")
	ErrUnknownError         = errors.New("unknown error")
)

// TranslateError maps a writer error to one of the package's sentinel
// errors so that logs and metrics group failures by cause.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrRequestTimedOut
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "connection refused"):
		return ErrConnectionFailed
	case strings.Contains(errMsg, "connection reset"), strings.Contains(errMsg, "connection closed"):
		return ErrConnectionLost
	case strings.Contains(errMsg, "broker not available"):
		return ErrBrokerNotAvailable
	case strings.Contains(errMsg, "sasl"), strings.Contains(errMsg, "authentication"):
		return ErrAuthenticationFailed
	case strings.Contains(errMsg, "authorization"), strings.Contains(errMsg, "not authorized"):
		return ErrAuthorizationFailed
	case strings.Contains(errMsg, "unknown topic"), strings.Contains(errMsg, "topic not found"):
		return ErrTopicNotFound
	case strings.Contains(errMsg, "message too large"), strings.Contains(errMsg, "message size"):
		return ErrMessageTooLarge
	case strings.Contains(errMsg, "leader not available"), strings.Contains(errMsg, "not leader"):
		return ErrLeaderNotAvailable
	case strings.Contains(errMsg, "timed out"), strings.Contains(errMsg, "timeout"):
		return ErrRequestTimedOut
	default:
		return ErrUnknownError
	}
}
