package models

import (
	"net/url"
	"strings"
)

// SplitRelays parses a comma or whitespace separated relay list, normalising and
// de-duplicating entries while keeping their order.
func SplitRelays(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == '\r'
	})
	seen := make(map[string]struct{}, len(fields))
	relays := make([]string, 0, len(fields))
	for _, f := range fields {
		u := NormalizeRelayURL(f)
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		relays = append(relays, u)
	}
	return relays
}

func JoinRelays(relays []string) string {
	return strings.Join(relays, ",")
}

func NormalizeRelayURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

func ValidRelayURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "ws" || u.Scheme == "wss") && u.Host != ""
}
