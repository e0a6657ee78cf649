package service

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQueue(t *testing.T) {
	c, mock := newClient(t)
	expectMember(t, mock, testAccount, testUser, models.RoleAdmin, true)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "queues"`).
		WithArgs(sqlmock.AnyArg(), testAccount, "Evening", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAudit(mock)
	mock.ExpectCommit()

	svc := NewQueueService(c)
	q, err := svc.Create(context.Background(), testAccount, testUser, "  Evening ")
	require.NoError(t, err)
	assert.Equal(t, "Evening", q.Name)
}

func TestCreateQueueDuplicateName(t *testing.T) {
	c, mock := newClient(t)
	expectMember(t, mock, testAccount, testUser, models.RoleAdmin, true)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "queues"`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "queues_account_pubkey_name_key"})
	mock.ExpectRollback()

	svc := NewQueueService(c)
	_, err := svc.Create(context.Background(), testAccount, testUser, "default")
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestQueueNameLength(t *testing.T) {
	c, mock := newClient(t)
	svc := NewQueueService(c)

	expectMember(t, mock, testAccount, testUser, models.RoleAdmin, true)
	_, err := svc.Create(context.Background(), testAccount, testUser, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	expectMember(t, mock, testAccount, testUser, models.RoleAdmin, true)
	_, err = svc.Create(context.Background(), testAccount, testUser, strings.Repeat("q", 65))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateProfileTrimsName(t *testing.T) {
	c, mock := newClient(t)
	name := "  Satoshi  "
	mock.ExpectQuery(`UPDATE "users" SET "name" = \$1, "updated_at" = \$2 WHERE "pubkey" = \$3`).
		WithArgs("Satoshi", sqlmock.AnyArg(), testUser).
		WillReturnRows(sqlmock.NewRows(columns(t, "users")).AddRow(testUser, "Satoshi", fixedNow, fixedNow))

	svc := NewUserService(c.User)
	u, err := svc.UpdateProfile(context.Background(), testUser, &name)
	require.NoError(t, err)
	assert.Equal(t, "Satoshi", *u.Name)
}

func TestGetUserInfoNotFound(t *testing.T) {
	c, mock := newClient(t)
	mock.ExpectQuery(`SELECT .+ FROM "users"`).WillReturnRows(sqlmock.NewRows(columns(t, "users")))

	svc := NewUserService(c.User)
	_, err := svc.GetUserInfo(context.Background(), testUser)
	assert.ErrorIs(t, err, ErrNotFound)
}
