package main

import (
	"fmt"
	"log"
	"strconv"
	"time"
)

// Registry holds the fixed set of rooms. It is never modified after
// NewRegistry returns.
type Registry struct {
	rooms []*Room
}

func NewRegistry(numberOfRooms int, sendTimeout time.Duration, logger *log.Logger) *Registry {
	rooms := make([]*Room, numberOfRooms)
	for i := range rooms {
		rooms[i] = NewRoom(RoomId(i), sendTimeout, logger)
	}
	return &Registry{rooms: rooms}
}

func (r *Registry) Get(id RoomId) (*Room, error) {
	if id < 0 || int(id) >= len(r.rooms) {
		return nil, newChatError(ErrInvalidRoom, fmt.Errorf("room %d outside [0, %d)", id, len(r.rooms)))
	}
	return r.rooms[id], nil
}

func (r *Registry) Rooms() []*Room {
	return append([]*Room(nil), r.rooms...)
}

func (r *Registry) Len() int {
	return len(r.rooms)
}

// ParseRoomId parses the decimal room id sent as the first handshake line.
func ParseRoomId(text string) (RoomId, error) {
	id, err := strconv.Atoi(text)
	if err != nil {
		return 0, newChatError(ErrProtocol, fmt.Errorf("room id %q: %w", text, err))
	}
	return RoomId(id), nil
}
