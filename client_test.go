package main

import (
	"bufio"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPipeClient returns a client on one end of an in-memory connection and
// the other end for the test to drive. The client's writer is not started.
func newPipeClient(t *testing.T, queueSize int) (*ChatClient, net.Conn) {
	serverSide, peer := net.Pipe()
	client := NewChatClient(serverSide, queueSize, time.Second, testLogger())
	t.Cleanup(func() {
		_ = client.Close()
		_ = peer.Close()
	})
	return client, peer
}

func TestChatClient_ReadLine(t *testing.T) {
	client, peer := newPipeClient(t, 1)
	go func() {
		_, _ = io.WriteString(peer, "2\r\nalice\n\nlast")
		_ = peer.Close()
	}()

	for _, want := range []string{"2", "alice", "", "last"} {
		line, err := client.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}
	_, err := client.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestChatClient_DisplayName(t *testing.T) {
	client, _ := newPipeClient(t, 1)
	assert.Equal(t, "unknown", client.DisplayName())

	client.SetName("")
	assert.Equal(t, "", client.DisplayName())

	client.SetName("alice")
	assert.Equal(t, "alice", client.DisplayName())
}

func TestChatClient_WritePump(t *testing.T) {
	client, peer := newPipeClient(t, 8)
	go client.writePump()

	require.NoError(t, client.Notify("first"))
	require.NoError(t, client.Deliver("second", time.Second))

	reader := bufio.NewReader(peer)
	for _, want := range []string{"first\n", "second\n"} {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}
}

func TestChatClient_Deliver(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(c *ChatClient)
		timeout time.Duration
		wantErr error
	}{
		{
			name:    "room in queue",
			prepare: func(c *ChatClient) {},
			timeout: time.Second,
		},
		{
			name: "full queue without timeout",
			prepare: func(c *ChatClient) {
				c.outbound <- "filler"
			},
			wantErr: ErrSlowConsumer,
		},
		{
			name: "full queue times out",
			prepare: func(c *ChatClient) {
				c.outbound <- "filler"
			},
			timeout: 20 * time.Millisecond,
			wantErr: ErrSlowConsumer,
		},
		{
			name: "closed",
			prepare: func(c *ChatClient) {
				_ = c.Close()
			},
			timeout: time.Second,
			wantErr: ErrClientClosed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newPipeClient(t, 1)
			tt.prepare(client)
			err := client.Deliver("line", tt.timeout)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestChatClient_NotifyUnblocksOnClose(t *testing.T) {
	client, _ := newPipeClient(t, 1)
	require.NoError(t, client.Notify("filler"))

	errs := make(chan error, 1)
	go func() {
		errs <- client.Notify("blocked")
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, client.Close())

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrClientClosed)
	case <-time.After(time.Second):
		t.Fatal("Notify still blocked after Close")
	}
}

func TestChatClient_CloseTwice(t *testing.T) {
	client, _ := newPipeClient(t, 1)
	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())
	assert.True(t, client.closed())
}
