package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/postr/internal/relay"
	"github.com/maheshrc27/postr/internal/repository"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

const (
	testAccount = "aa00000000000000000000000000000000000000000000000000000000000001"
	testUser    = "bb00000000000000000000000000000000000000000000000000000000000002"
)

func newClient(t *testing.T) (*repository.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	prev := now
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() { now = prev })
	return repository.NewClient(db), mock
}

func columns(t *testing.T, table string) []string {
	t.Helper()
	for _, tb := range repository.Tables() {
		if tb.Name == table {
			return tb.Columns
		}
	}
	t.Fatalf("unknown table %s", table)
	return nil
}

// expectMember expects the membership lookup for user in account.
func expectMember(t *testing.T, mock sqlmock.Sqlmock, account, user, role string, grant bool) {
	t.Helper()
	mock.ExpectQuery(`SELECT .+ FROM "account_users"`).
		WithArgs(account, user, 1).
		WillReturnRows(sqlmock.NewRows(columns(t, "account_users")).AddRow(
			"au-"+user[:4], account, user, role,
			grant, grant, grant, grant, grant, grant,
			"accepted", fixedNow, fixedNow,
		))
}

func expectNoMember(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	mock.ExpectQuery(`SELECT .+ FROM "account_users"`).
		WillReturnRows(sqlmock.NewRows(columns(t, "account_users")))
}

func expectAudit(mock sqlmock.Sqlmock) {
	mock.ExpectExec(`INSERT INTO "audit_logs"`).WillReturnResult(sqlmock.NewResult(0, 1))
}

func signedEvent(t *testing.T, kind int, tags nostr.Tags, at time.Time) (nostr.Event, string) {
	t.Helper()
	sk := nostr.GeneratePrivateKey()
	pk, err := nostr.GetPublicKey(sk)
	require.NoError(t, err)
	ev := nostr.Event{
		PubKey:    pk,
		CreatedAt: nostr.Timestamp(at.Unix()),
		Kind:      kind,
		Tags:      tags,
		Content:   "hello nostr",
	}
	require.NoError(t, ev.Sign(sk))
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return ev, string(b)
}

type dispatch struct {
	ID    string
	Delay time.Duration
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatch
	err   error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, scheduleID string, delay time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.calls = append(d.calls, dispatch{ID: scheduleID, Delay: delay})
	return nil
}

type fakePublisher struct {
	errs map[string]error
	got  []string
}

func (p *fakePublisher) PublishAll(ctx context.Context, relays []string, ev nostr.Event) []relay.Result {
	p.got = relays
	results := make([]relay.Result, len(relays))
	for i, r := range relays {
		results[i] = relay.Result{Relay: r, Err: p.errs[r]}
	}
	return results
}
