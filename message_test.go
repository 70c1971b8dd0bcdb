package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatUsers(t *testing.T) {
	tests := []struct {
		name      string
		usernames []string
		want      string
	}{
		{name: "empty room", usernames: nil, want: "Usuarios en la sala:"},
		{name: "one user", usernames: []string{"alice"}, want: "Usuarios en la sala: alice"},
		{name: "sorted", usernames: []string{"carol", "alice", "bob"}, want: "Usuarios en la sala: alice, bob, carol"},
		{name: "trailing space kept", usernames: []string{"bob ", "alice"}, want: "Usuarios en la sala: alice, bob "},
		{name: "leading space kept", usernames: []string{" zed"}, want: "Usuarios en la sala:  zed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUsers(tt.usernames))
		})
	}
}

func TestFormatUsers_DoesNotReorderInput(t *testing.T) {
	usernames := []string{"bob", "alice"}
	FormatUsers(usernames)
	assert.Equal(t, []string{"bob", "alice"}, usernames)
}

func TestDepartureMessage(t *testing.T) {
	assert.Equal(t, "alice se ha desconectado de la sala.", DepartureMessage("alice"))
	assert.Equal(t, "unknown se ha desconectado de la sala.", DepartureMessage(unknownUsername))
}

func TestIsUsersCommand(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{line: "/getUsers:", want: true},
		{line: "/getUsers: please", want: true},
		{line: "/getusers:", want: false},
		{line: " /getUsers:", want: false},
		{line: "/getUsers", want: false},
		{line: "hello", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUsersCommand(tt.line))
		})
	}
}

func TestTrimMessage(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "hello\n", want: "hello"},
		{input: "hello\r\n", want: "hello"},
		{input: "hello", want: "hello"},
		{input: "\r\n", want: ""},
		{input: "a\rb\n", want: "a\rb"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, trimMessage(tt.input))
		})
	}
}
