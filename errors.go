package main

import "fmt"

type ChatError struct {
	Err     error
	Message string
}

func (c *ChatError) Error() string {
	if c.Err == nil {
		return c.Message
	}
	return fmt.Sprintf("%s: %s", c.Message, c.Err.Error())
}

func (c *ChatError) Unwrap() error {
	return c.Err
}

// Is reports whether target is a ChatError of the same kind, so wrapped
// instances still match the sentinel values below.
func (c *ChatError) Is(target error) bool {
	t, ok := target.(*ChatError)
	return ok && t.Message == c.Message
}

var (
	ErrProtocol = &ChatError{
		Message: "malformed handshake",
	}
	ErrInvalidRoom = &ChatError{
		Message: "room not found",
	}
	ErrSlowConsumer = &ChatError{
		Message: "outbound queue full",
	}
	ErrClientClosed = &ChatError{
		Message: "client closed",
	}
	ErrInvalidMessage = &ChatError{
		Message: "message must be a single non-empty line",
	}
)

func newChatError(kind *ChatError, err error) *ChatError {
	return &ChatError{Err: err, Message: kind.Message}
}
