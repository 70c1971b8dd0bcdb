package main

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteHistorySchema = `
CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	room       INTEGER NOT NULL,
	line       TEXT    NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_room_id ON messages (room, id);
`

// SQLiteHistoryStore keeps every room's history in one sqlite database.
// Lines are returned in insertion order.
type SQLiteHistoryStore struct {
	db *sql.DB
}

func NewSQLiteHistoryStore(path string) (*SQLiteHistoryStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite history %s: %w", path, err)
	}
	// a single connection serializes writers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteHistorySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating sqlite history schema: %w", err)
	}
	return &SQLiteHistoryStore{db: db}, nil
}

func (s *SQLiteHistoryStore) Append(roomId RoomId, line string) error {
	if err := validateHistoryLine(line); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO messages (room, line, created_at) VALUES (?, ?, ?)`,
		int(roomId), line, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("appending history for room %d: %w", roomId, err)
	}
	return nil
}

func (s *SQLiteHistoryStore) ReadAll(roomId RoomId) ([]string, error) {
	rows, err := s.db.Query(`SELECT line FROM messages WHERE room = ? ORDER BY id`, int(roomId))
	if err != nil {
		return []string{}, fmt.Errorf("reading history for room %d: %w", roomId, err)
	}
	defer rows.Close()

	lines := make([]string, 0)
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return []string{}, fmt.Errorf("scanning history for room %d: %w", roomId, err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return []string{}, fmt.Errorf("reading history for room %d: %w", roomId, err)
	}
	return lines, nil
}

func (s *SQLiteHistoryStore) Close() error {
	return s.db.Close()
}
