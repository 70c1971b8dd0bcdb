package main

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

type RoomId int

// Room tracks who is connected to one numbered room. members and usernames
// are only touched while holding mu.
type Room struct {
	Id RoomId

	mu        sync.Mutex
	members   map[*ChatClient]struct{}
	usernames map[string]struct{}

	sendTimeout time.Duration
	logger      *log.Logger
}

func NewRoom(id RoomId, sendTimeout time.Duration, logger *log.Logger) *Room {
	return &Room{
		Id:          id,
		members:     make(map[*ChatClient]struct{}),
		usernames:   make(map[string]struct{}),
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

func (r *Room) String() string {
	return fmt.Sprintf("room %d", r.Id)
}

func (r *Room) Join(client *ChatClient, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[client] = struct{}{}
	r.usernames[username] = struct{}{}
}

// Leave removes client and its username. It reports whether the client was a
// member; calling it again for the same client changes nothing.
func (r *Room) Leave(client *ChatClient, username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[client]; !ok {
		return false
	}
	delete(r.members, client)
	delete(r.usernames, username)
	return true
}

// Broadcast queues line for every client that is a member when it is called.
// Recipients with a full queue wait in parallel, so one call takes at most the
// room's send timeout however many of them are stalled. A recipient still full
// after that is disconnected; its own worker then removes it from the room.
func (r *Room) Broadcast(line string) (delivered, dropped int) {
	var stalled []*ChatClient
	for _, client := range r.snapshotMembers() {
		err := client.Deliver(line, 0)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, ErrSlowConsumer):
			stalled = append(stalled, client)
		default:
			dropped++
		}
	}
	if len(stalled) == 0 {
		return delivered, dropped
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, client := range stalled {
		wg.Add(1)
		go func(client *ChatClient) {
			defer wg.Done()
			err := client.Deliver(line, r.sendTimeout)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				delivered++
				return
			}
			dropped++
			if errors.Is(err, ErrSlowConsumer) {
				r.logger.Printf("disconnecting %s from %s: %v", client, r, err)
				_ = client.Close()
			}
		}(client)
	}
	wg.Wait()
	return delivered, dropped
}

func (r *Room) snapshotMembers() []*ChatClient {
	r.mu.Lock()
	defer r.mu.Unlock()
	clients := make([]*ChatClient, 0, len(r.members))
	for client := range r.members {
		clients = append(clients, client)
	}
	return clients
}

// SnapshotUsernames returns the usernames present right now, sorted.
func (r *Room) SnapshotUsernames() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.usernames))
	for name := range r.usernames {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)
	return names
}

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}
