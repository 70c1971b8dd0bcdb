package main

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		matches  []error
		excludes []error
		text     string
	}{
		{
			name:     "sentinel",
			err:      ErrInvalidRoom,
			matches:  []error{ErrInvalidRoom},
			excludes: []error{ErrProtocol, io.EOF},
			text:     "room not found",
		},
		{
			name:     "wrapped cause",
			err:      newChatError(ErrProtocol, io.EOF),
			matches:  []error{ErrProtocol, io.EOF},
			excludes: []error{ErrInvalidRoom, ErrSlowConsumer},
			text:     "malformed handshake: EOF",
		},
		{
			name:     "joined",
			err:      errors.Join(errors.New("context"), newChatError(ErrSlowConsumer, nil)),
			matches:  []error{ErrSlowConsumer},
			excludes: []error{ErrClientClosed},
			text:     "context\noutbound queue full",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, target := range tt.matches {
				assert.ErrorIs(t, tt.err, target)
			}
			for _, target := range tt.excludes {
				assert.NotErrorIs(t, tt.err, target)
			}
			assert.Equal(t, tt.text, tt.err.Error())
		})
	}
}
