package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// HistoryStore persists the messages of each room as an ordered list of lines.
type HistoryStore interface {
	Append(roomId RoomId, line string) error
	// ReadAll returns every line of the room in append order. On failure it
	// returns an empty slice together with the error.
	ReadAll(roomId RoomId) ([]string, error)
	Close() error
}

const (
	HistoryBackendFile   = "file"
	HistoryBackendSQLite = "sqlite"

	historyFilePrefix = "message_history_room_"
)

func OpenHistoryStore(config *Config) (HistoryStore, error) {
	switch config.HistoryBackend {
	case HistoryBackendFile, "":
		return NewFileHistoryStore(config.HistoryDir)
	case HistoryBackendSQLite:
		return NewSQLiteHistoryStore(config.SqlitePath)
	default:
		return nil, fmt.Errorf("unknown history backend %q", config.HistoryBackend)
	}
}

func validateHistoryLine(line string) error {
	if strings.Contains(line, "\n") {
		return fmt.Errorf("history line must not contain a newline")
	}
	return nil
}

// FileHistoryStore keeps one append-only text file per room.
type FileHistoryStore struct {
	dir string

	mu    sync.Mutex
	locks map[RoomId]*sync.RWMutex
}

func NewFileHistoryStore(dir string) (*FileHistoryStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}
	return &FileHistoryStore{
		dir:   dir,
		locks: make(map[RoomId]*sync.RWMutex),
	}, nil
}

func (s *FileHistoryStore) path(roomId RoomId) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%d.txt", historyFilePrefix, roomId))
}

func (s *FileHistoryStore) roomLock(roomId RoomId) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[roomId]
	if !ok {
		lock = &sync.RWMutex{}
		s.locks[roomId] = lock
	}
	return lock
}

func (s *FileHistoryStore) Append(roomId RoomId, line string) error {
	if err := validateHistoryLine(line); err != nil {
		return err
	}
	lock := s.roomLock(roomId)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.OpenFile(s.path(roomId), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening history for room %d: %w", roomId, err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("appending history for room %d: %w", roomId, err)
	}
	return f.Close()
}

func (s *FileHistoryStore) ReadAll(roomId RoomId) ([]string, error) {
	lock := s.roomLock(roomId)
	lock.RLock()
	defer lock.RUnlock()

	f, err := os.OpenFile(s.path(roomId), os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return []string{}, fmt.Errorf("opening history for room %d: %w", roomId, err)
	}
	defer f.Close()

	// split on '\n' only so lines of any length, and any '\r' they carry,
	// come back exactly as appended
	lines := make([]string, 0)
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if line != "" {
					lines = append(lines, line)
				}
				return lines, nil
			}
			return []string{}, fmt.Errorf("reading history for room %d: %w", roomId, err)
		}
		lines = append(lines, strings.TrimSuffix(line, "\n"))
	}
}

func (s *FileHistoryStore) Close() error {
	return nil
}
