package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChatClient is one accepted connection. Everything written to the socket goes
// through outbound, which is drained by writePump.
type ChatClient struct {
	ClientId uuid.UUID
	Name     string
	named    bool

	conn         net.Conn
	reader       *bufio.Reader
	outbound     chan string
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
	logger       *log.Logger
}

func NewChatClient(conn net.Conn, queueSize int, writeTimeout time.Duration, logger *log.Logger) *ChatClient {
	if queueSize <= 0 {
		queueSize = defaultOutboundQueueSize
	}
	return &ChatClient{
		ClientId:     uuid.New(),
		conn:         conn,
		reader:       bufio.NewReader(conn),
		outbound:     make(chan string, queueSize),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

func (c *ChatClient) String() string {
	return fmt.Sprintf("%s(%s)", c.DisplayName(), c.ClientId)
}

// ReadLine returns the next line without its terminator. A final line that
// is not newline-terminated is still returned before io.EOF.
func (c *ChatClient) ReadLine() (string, error) {
	input, err := c.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && input != "" {
			return trimMessage(input), nil
		}
		return "", err
	}
	return trimMessage(input), nil
}

func (c *ChatClient) SetName(name string) {
	c.Name = name
	c.named = true
}

// DisplayName is the username, or a placeholder when the handshake never got
// that far.
func (c *ChatClient) DisplayName() string {
	if !c.named {
		return unknownUsername
	}
	return c.Name
}

// Notify queues a line for this client only, waiting for queue space. Only the
// client's own worker calls it, so waiting never stalls anyone else.
func (c *ChatClient) Notify(line string) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.outbound <- line:
		return nil
	case <-c.done:
		return ErrClientClosed
	}
}

// Deliver queues a broadcast line, waiting at most timeout for queue space.
func (c *ChatClient) Deliver(line string, timeout time.Duration) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.outbound <- line:
		return nil
	default:
	}
	if timeout <= 0 {
		return ErrSlowConsumer
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case c.outbound <- line:
		return nil
	case <-c.done:
		return ErrClientClosed
	case <-timer.C:
		return ErrSlowConsumer
	}
}

func (c *ChatClient) writePump() {
	writer := bufio.NewWriter(c.conn)
	for {
		select {
		case <-c.done:
			return
		case line := <-c.outbound:
			if err := c.write(writer, line); err != nil {
				if !errors.Is(err, net.ErrClosed) {
					c.logger.Printf("error writing to %s: %v", c, err)
				}
				_ = c.Close()
				return
			}
		}
	}
}

// write sends line plus whatever else is already queued in one flush.
func (c *ChatClient) write(writer *bufio.Writer, line string) error {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	if err := writeText(writer, line); err != nil {
		return err
	}
	for n := len(c.outbound); n > 0; n-- {
		if err := writeText(writer, <-c.outbound); err != nil {
			return err
		}
	}
	return writer.Flush()
}

func (c *ChatClient) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Close stops the writer and closes the socket. Only the first call has any
// effect.
func (c *ChatClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func writeText(w io.Writer, text string) error {
	if _, err := io.WriteString(w, text+"\n"); err != nil {
		return err
	}
	return nil
}
