package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry(NumberOfRooms, time.Second, testLogger())
	tests := []struct {
		name    string
		id      RoomId
		wantErr bool
	}{
		{name: "negative", id: -1, wantErr: true},
		{name: "first", id: 0},
		{name: "middle", id: 2},
		{name: "last", id: NumberOfRooms - 1},
		{name: "one past last", id: NumberOfRooms, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room, err := registry.Get(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRoom)
				assert.Nil(t, room)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, room.Id)
		})
	}
}

func TestRegistry_SameRoomEveryTime(t *testing.T) {
	registry := NewRegistry(NumberOfRooms, time.Second, testLogger())
	first, err := registry.Get(3)
	require.NoError(t, err)
	second, err := registry.Get(3)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestRegistry_Rooms(t *testing.T) {
	registry := NewRegistry(NumberOfRooms, time.Second, testLogger())
	rooms := registry.Rooms()
	require.Len(t, rooms, NumberOfRooms)
	assert.Equal(t, NumberOfRooms, registry.Len())
	for i, room := range rooms {
		assert.Equal(t, RoomId(i), room.Id)
	}

	rooms[0] = nil
	room, err := registry.Get(0)
	require.NoError(t, err)
	assert.NotNil(t, room)
}

func TestParseRoomId(t *testing.T) {
	tests := []struct {
		text    string
		want    RoomId
		wantErr bool
	}{
		{text: "0", want: 0},
		{text: "5", want: 5},
		{text: "-1", want: -1},
		{text: "abc", wantErr: true},
		{text: "", wantErr: true},
		{text: " 2", wantErr: true},
		{text: "2.5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			id, err := ParseRoomId(tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrProtocol)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}
