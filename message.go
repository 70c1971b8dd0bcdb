package main

import (
	"sort"
	"strings"
)

const (
	UsersCommandPrefix = "/getUsers:"

	usersLabel      = "Usuarios en la sala:"
	departureNotice = " se ha desconectado de la sala."
	unknownUsername = "unknown"
)

// FormatUsers renders a presence reply. An empty room renders as the bare label.
func FormatUsers(usernames []string) string {
	sorted := append([]string(nil), usernames...)
	sort.Strings(sorted)
	if len(sorted) == 0 {
		return usersLabel
	}
	return usersLabel + " " + strings.Join(sorted, ", ")
}

func DepartureMessage(username string) string {
	return username + departureNotice
}

func IsUsersCommand(line string) bool {
	return strings.HasPrefix(line, UsersCommandPrefix)
}

func trimMessage(messageText string) string {
	return strings.TrimSuffix(strings.TrimSuffix(messageText, "\n"), "\r")
}
