// Package nostrx wraps go-nostr with the event checks the services rely on.
package nostrx

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maheshrc27/postr/internal/models"
	"github.com/nbd-wtf/go-nostr"
)

var (
	ErrMalformedEvent = errors.New("malformed nostr event")
	ErrEventID        = errors.New("event id does not match its content")
	ErrSignature      = errors.New("invalid event signature")
	ErrAuthKind       = errors.New("auth event must be kind 27235")
	ErrAuthExpired    = errors.New("auth event is outside the allowed time window")
	ErrAuthTarget     = errors.New("auth event was signed for another request")
	ErrNotOwner       = errors.New("proof is not signed by the account key")
)

// ParseDraft decodes possibly unsigned event JSON. Only the shape is checked.
func ParseDraft(raw string) (*nostr.Event, error) {
	var ev nostr.Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.Kind < 0 {
		return nil, fmt.Errorf("%w: negative kind", ErrMalformedEvent)
	}
	return &ev, nil
}

// ParseSigned decodes a signed event and verifies its id and signature.
func ParseSigned(raw string) (*nostr.Event, error) {
	ev, err := ParseDraft(raw)
	if err != nil {
		return nil, err
	}
	if err := Verify(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func Verify(ev *nostr.Event) error {
	if ev.ID == "" || ev.PubKey == "" || ev.Sig == "" {
		return fmt.Errorf("%w: id, pubkey and sig are required", ErrMalformedEvent)
	}
	if ev.GetID() != ev.ID {
		return ErrEventID
	}
	ok, err := ev.CheckSignature()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignature, err)
	}
	if !ok {
		return ErrSignature
	}
	return nil
}

// Target is the request a kind 27235 event must name in its u and method tags.
type Target struct {
	URL    string
	Method string
}

// VerifyAuth checks a kind 27235 login event signed within maxSkew of now for target.
func VerifyAuth(ev *nostr.Event, now time.Time, maxSkew time.Duration, target Target) error {
	if err := verifyFresh(ev, now, maxSkew); err != nil {
		return err
	}
	if !strings.EqualFold(firstTagValue(ev.Tags, "method"), target.Method) {
		return fmt.Errorf("%w: method tag must be %s", ErrAuthTarget, target.Method)
	}
	if normalizeURL(firstTagValue(ev.Tags, "u")) != normalizeURL(target.URL) {
		return fmt.Errorf("%w: u tag must be %s", ErrAuthTarget, target.URL)
	}
	return nil
}

// VerifyOwnership checks that ev is a fresh kind 27235 event signed by account that names
// user in a p tag.
func VerifyOwnership(ev *nostr.Event, account, user string, now time.Time, maxSkew time.Duration) error {
	if err := verifyFresh(ev, now, maxSkew); err != nil {
		return err
	}
	if ev.PubKey != account {
		return ErrNotOwner
	}
	if !hasTag(ev.Tags, "p", user) {
		return fmt.Errorf("%w: p tag must name %s", ErrNotOwner, user)
	}
	return nil
}

func verifyFresh(ev *nostr.Event, now time.Time, maxSkew time.Duration) error {
	if ev.Kind != models.KindHTTPAuth {
		return ErrAuthKind
	}
	if err := Verify(ev); err != nil {
		return err
	}
	skew := now.Sub(ev.CreatedAt.Time())
	if skew < 0 {
		skew = -skew
	}
	if skew > maxSkew {
		return ErrAuthExpired
	}
	return nil
}

func normalizeURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}

// ReferencedEventID returns the event a repost or quote points at: the first e tag of a
// kind 6 or 16 repost, otherwise the first q tag.
func ReferencedEventID(ev *nostr.Event) *string {
	if ev.Kind == models.KindRepost || ev.Kind == models.KindGenericRepost {
		if id := firstTagValue(ev.Tags, "e"); id != "" {
			return &id
		}
	}
	if id := firstTagValue(ev.Tags, "q"); id != "" {
		return &id
	}
	return nil
}

func firstTagValue(tags nostr.Tags, name string) string {
	for _, tag := range tags {
		if len(tag) >= 2 && tag[0] == name && tag[1] != "" {
			return tag[1]
		}
	}
	return ""
}

func hasTag(tags nostr.Tags, name, value string) bool {
	for _, tag := range tags {
		if len(tag) >= 2 && tag[0] == name && tag[1] == value {
			return true
		}
	}
	return false
}
