package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	config "github.com/maheshrc27/postr/configs"
	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/nostrx"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loginTarget = nostrx.Target{URL: "https://postr.example/login", Method: "POST"}

func loginTags() nostr.Tags {
	return nostr.Tags{{"u", loginTarget.URL}, {"method", loginTarget.Method}}
}

func TestLoginCreatesUser(t *testing.T) {
	c, mock := newClient(t)
	ev, raw := signedEvent(t, models.KindHTTPAuth, loginTags(), fixedNow.Add(-10*time.Second))

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users" .+ ON CONFLICT \("pubkey"\)`).
		WillReturnRows(sqlmock.NewRows(columns(t, "users")).AddRow(ev.PubKey, nil, fixedNow, fixedNow))
	expectAudit(mock)
	mock.ExpectCommit()

	svc := NewAuthService(config.Config{AuthMaxSkew: time.Minute}, c)
	user, err := svc.Login(context.Background(), raw, loginTarget)
	require.NoError(t, err)
	assert.Equal(t, ev.PubKey, user.Pubkey)
}

func TestLoginRejectsStaleEvent(t *testing.T) {
	c, _ := newClient(t)
	_, raw := signedEvent(t, models.KindHTTPAuth, loginTags(), fixedNow.Add(-5*time.Minute))

	svc := NewAuthService(config.Config{AuthMaxSkew: time.Minute}, c)
	_, err := svc.Login(context.Background(), raw, loginTarget)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLoginRejectsOtherKinds(t *testing.T) {
	c, _ := newClient(t)
	_, raw := signedEvent(t, models.KindTextNote, loginTags(), fixedNow)

	svc := NewAuthService(config.Config{AuthMaxSkew: time.Minute}, c)
	_, err := svc.Login(context.Background(), raw, loginTarget)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLoginRejectsGarbage(t *testing.T) {
	c, _ := newClient(t)

	svc := NewAuthService(config.Config{AuthMaxSkew: time.Minute}, c)
	_, err := svc.Login(context.Background(), "{not json", loginTarget)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLoginRejectsEventForAnotherRequest(t *testing.T) {
	c, _ := newClient(t)
	_, raw := signedEvent(t, models.KindHTTPAuth, nostr.Tags{{"u", "https://elsewhere.example/login"}, {"method", "POST"}}, fixedNow)

	svc := NewAuthService(config.Config{AuthMaxSkew: time.Minute}, c)
	_, err := svc.Login(context.Background(), raw, loginTarget)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, raw = signedEvent(t, models.KindHTTPAuth, nil, fixedNow)
	_, err = svc.Login(context.Background(), raw, loginTarget)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLoginAcceptsEachEventOnce(t *testing.T) {
	c, mock := newClient(t)
	ev, raw := signedEvent(t, models.KindHTTPAuth, loginTags(), fixedNow)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows(columns(t, "users")).AddRow(ev.PubKey, nil, fixedNow, fixedNow))
	expectAudit(mock)
	mock.ExpectCommit()

	svc := NewAuthService(config.Config{AuthMaxSkew: time.Minute}, c)
	_, err := svc.Login(context.Background(), raw, loginTarget)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), raw, loginTarget)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
