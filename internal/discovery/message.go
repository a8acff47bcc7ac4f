package discovery

import (
	"strings"
	"unicode/utf8"
)

const (
	announcementPrefix = "DISCOVERY:"

	// MaxNameLength keeps an announcement well under one KiB.
	MaxNameLength = 255

	maxDatagramSize = 2048
)

// EncodeAnnouncement builds the presence datagram "DISCOVERY:<id>:<name>\n".
func EncodeAnnouncement(id, name string) []byte {
	return []byte(announcementPrefix + id + ":" + name + "\n")
}

// ParseAnnouncement extracts id and name from a presence datagram. Anything
// that is not valid UTF-8 or lacks the prefix is rejected. The name may
// itself contain ':'.
func ParseAnnouncement(data []byte) (id, name string, ok bool) {
	if !utf8.Valid(data) {
		return "", "", false
	}

	s := strings.TrimRight(string(data), "\r\n")
	rest, found := strings.CutPrefix(s, announcementPrefix)
	if !found {
		return "", "", false
	}

	id, name, found = strings.Cut(rest, ":")
	if !found || id == "" {
		return "", "", false
	}
	return id, name, true
}
