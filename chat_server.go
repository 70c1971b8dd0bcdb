package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"
)

type ChatServer struct {
	config   *Config
	registry *Registry
	history  HistoryStore
	metrics  *Metrics
	logger   *log.Logger

	listener net.Listener

	mu      sync.Mutex
	clients map[*ChatClient]struct{}
	closed  bool
	wg      sync.WaitGroup
}

func NewChatServer(config *Config, registry *Registry, history HistoryStore, metrics *Metrics, logger *log.Logger) *ChatServer {
	return &ChatServer{
		config:   config,
		registry: registry,
		history:  history,
		metrics:  metrics,
		logger:   logger,
		clients:  make(map[*ChatClient]struct{}),
	}
}

// Start binds the listener. Connections are not accepted until Serve runs.
func (s *ChatServer) Start() error {
	if s.listener != nil {
		return fmt.Errorf("server already started")
	}
	listener, err := net.Listen("tcp", s.config.ChatAddress())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.ChatAddress(), err)
	}
	s.listener = listener
	s.logger.Printf("chat server listening on %s with %d rooms", listener.Addr(), s.registry.Len())
	return nil
}

func (s *ChatServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until Stop is called, handling each one on its
// own goroutine. It returns nil after a clean stop.
func (s *ChatServer) Serve() error {
	if s.listener == nil {
		return fmt.Errorf("server not started")
	}
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			return fmt.Errorf("accepting chat connection: %w", err)
		}
		client := NewChatClient(conn, s.config.OutboundQueueSize, s.config.WriteTimeout, s.logger)
		if !s.trackClient(client) {
			_ = client.Close()
			return nil
		}
		go s.serveClient(client)
	}
}

// Stop closes the listener and every live connection, then waits for the
// connection workers to finish or ctx to expire.
func (s *ChatServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	clients := make([]*ChatClient, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.Unlock()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Printf("error closing chat listener: %v", err)
		}
	}
	for _, client := range clients {
		_ = client.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Printf("chat server stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for chat connections: %w", ctx.Err())
	}
}

func (s *ChatServer) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// trackClient registers a connection and its worker. It refuses once Stop has
// begun so the wait group never grows while Stop is waiting on it.
func (s *ChatServer) trackClient(client *ChatClient) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[client] = struct{}{}
	s.wg.Add(2)
	return true
}

func (s *ChatServer) untrackClient(client *ChatClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, client)
}

func (s *ChatServer) serveClient(client *ChatClient) {
	defer s.wg.Done()
	go func() {
		defer s.wg.Done()
		client.writePump()
	}()
	s.metrics.ConnectionsTotal.Inc()
	s.metrics.ActiveConnections.Inc()

	var room *Room
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("recovered from panic serving %s: %v", client, r)
		}
		s.disconnect(client, room)
	}()

	room, err := s.resolveRoom(client)
	if err != nil {
		s.logger.Printf("closing %s: %v", client, err)
		return
	}

	username, err := client.ReadLine()
	if err != nil {
		s.metrics.HandshakeFailures.WithLabelValues(handshakeReadFailed).Inc()
		s.logger.Printf("%s left %s before sending a username: %v", client, room, err)
		return
	}
	client.SetName(username)
	room.Join(client, username)
	s.logger.Printf("%s joined %s", client, room)

	if err := s.replayHistory(client, room); err != nil {
		return
	}
	s.relay(client, room)
}

// resolveRoom reads the first handshake line and looks the room up.
func (s *ChatServer) resolveRoom(client *ChatClient) (*Room, error) {
	line, err := client.ReadLine()
	if err != nil {
		s.metrics.HandshakeFailures.WithLabelValues(handshakeReadFailed).Inc()
		return nil, fmt.Errorf("reading room id: %w", err)
	}
	roomId, err := ParseRoomId(line)
	if err != nil {
		s.metrics.HandshakeFailures.WithLabelValues(handshakeBadRoomId).Inc()
		return nil, err
	}
	room, err := s.registry.Get(roomId)
	if err != nil {
		s.metrics.HandshakeFailures.WithLabelValues(handshakeUnknownRoom).Inc()
		return nil, err
	}
	return room, nil
}

func (s *ChatServer) replayHistory(client *ChatClient, room *Room) error {
	lines, err := s.history.ReadAll(room.Id)
	if err != nil {
		s.logger.Printf("error reading history of %s: %v", room, err)
	}
	for _, line := range lines {
		if err := client.Notify(line); err != nil {
			return err
		}
	}
	return nil
}

func (s *ChatServer) relay(client *ChatClient, room *Room) {
	for {
		line, err := client.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Printf("error reading from %s: %v", client, err)
			}
			return
		}
		if IsUsersCommand(line) {
			if err := client.Notify(FormatUsers(room.SnapshotUsernames())); err != nil {
				return
			}
			continue
		}
		s.publish(room, line)
	}
}

// publish records line in the room's history and sends it to every member.
// A history failure is logged and the line is still delivered.
func (s *ChatServer) publish(room *Room, line string) {
	s.logger.Printf("In room %d: %s", room.Id, line)
	if err := s.history.Append(room.Id, line); err != nil {
		s.metrics.HistoryAppendFailures.Inc()
		s.logger.Printf("error saving message to history of %s: %v", room, err)
	}
	s.broadcast(room, line)
	s.metrics.MessagesRelayed.Inc()
}

func (s *ChatServer) broadcast(room *Room, line string) {
	_, dropped := room.Broadcast(line)
	if dropped > 0 {
		s.metrics.DeliveriesDropped.Add(float64(dropped))
	}
}

// disconnect runs once per connection, after its worker stops reading.
func (s *ChatServer) disconnect(client *ChatClient, room *Room) {
	username := client.DisplayName()
	if room != nil {
		room.Leave(client, username)
	}
	_ = client.Close()
	s.untrackClient(client)
	s.metrics.ActiveConnections.Dec()
	if room == nil {
		return
	}
	s.logger.Printf("%s left %s", client, room)
	s.broadcast(room, DepartureMessage(username))
}

func (s *ChatServer) Rooms() []*Room {
	return s.registry.Rooms()
}

func (s *ChatServer) GetRoomMessages(roomId RoomId) ([]string, error) {
	room, err := s.registry.Get(roomId)
	if err != nil {
		return []string{}, err
	}
	return s.history.ReadAll(room.Id)
}

func (s *ChatServer) GetRoomUsers(roomId RoomId) ([]string, error) {
	room, err := s.registry.Get(roomId)
	if err != nil {
		return []string{}, err
	}
	return room.SnapshotUsernames(), nil
}

// PostMessageToRoom relays text into a room exactly as if a member had typed it.
func (s *ChatServer) PostMessageToRoom(roomId RoomId, text string) error {
	room, err := s.registry.Get(roomId)
	if err != nil {
		return err
	}
	if text == "" || strings.ContainsAny(text, "\r\n") {
		return ErrInvalidMessage
	}
	s.publish(room, text)
	return nil
}
