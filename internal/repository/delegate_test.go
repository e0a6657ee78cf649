package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindUnique(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(exact(`SELECT "pubkey", "name", "created_at", "updated_at" FROM "users" WHERE "pubkey" = $1 LIMIT $2`)).
		WithArgs("pk1", 1).
		WillReturnRows(sqlmock.NewRows(userTable.Columns).AddRow("pk1", "alice", fixedNow, fixedNow))

	u, found, err := repo.FindUnique(context.Background(), "pk1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "pk1", u.Pubkey)
	require.NotNil(t, u.Name)
	assert.Equal(t, "alice", *u.Name)
}

func TestFindUniqueMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM "users"`).WillReturnRows(sqlmock.NewRows(userTable.Columns))

	u, found, err := repo.FindUnique(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, u)
}

func TestCreateStampsRecord(t *testing.T) {
	db, mock := newMock(t)
	repo := NewQueueRepository(db)

	mock.ExpectExec(exact(`INSERT INTO "queues" ("id", "account_pubkey", "name", "created_at", "updated_at") VALUES ($1, $2, $3, $4, $5)`)).
		WithArgs(sqlmock.AnyArg(), "acc", "evening", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	q := &models.Queue{AccountPubkey: "acc", Name: "evening"}
	require.NoError(t, repo.Create(context.Background(), q))
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, fixedNow, q.CreatedAt)
	assert.Equal(t, fixedNow, q.UpdatedAt)
}

func TestCreateManySkipDuplicates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(exact(`INSERT INTO "users" ("pubkey", "name", "created_at", "updated_at") VALUES ($1, $2, $3, $4), ($5, $6, $7, $8) ON CONFLICT DO NOTHING`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.CreateMany(context.Background(), []*models.User{{Pubkey: "a"}, {Pubkey: "b"}}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.CreateMany(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateConflict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	mock.ExpectExec(`INSERT INTO "posts"`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "posts_nostr_event_id_key"})

	err := repo.Create(context.Background(), &models.Post{AccountPubkey: "acc", AuthorPubkey: "acc", Kind: 1})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateInvalidReference(t *testing.T) {
	db, mock := newMock(t)
	repo := NewQueueRepository(db)

	mock.ExpectExec(`INSERT INTO "queues"`).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "queues_account_pubkey_fkey"})

	err := repo.Create(context.Background(), &models.Queue{AccountPubkey: "ghost", Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestUpdateTouchesUpdatedAt(t *testing.T) {
	db, mock := newMock(t)
	repo := NewQueueRepository(db)

	mock.ExpectQuery(exact(`UPDATE "queues" SET "name" = $1, "updated_at" = $2 WHERE "id" = $3 RETURNING "id", "account_pubkey", "name", "created_at", "updated_at"`)).
		WithArgs("morning", fixedNow, "q1").
		WillReturnRows(sqlmock.NewRows(queueTable.Columns).AddRow("q1", "acc", "morning", fixedNow, fixedNow))

	q, err := repo.Update(context.Background(), "q1", query.Set{"name": "morning"})
	require.NoError(t, err)
	assert.Equal(t, "morning", q.Name)
}

func TestUpdateMissingRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewQueueRepository(db)

	mock.ExpectQuery(`UPDATE "queues"`).WillReturnRows(sqlmock.NewRows(queueTable.Columns))

	_, err := repo.Update(context.Background(), "missing", query.Set{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateManyAndDeleteMany(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScheduleRepository(db)

	mock.ExpectExec(exact(`UPDATE "schedules" SET "status" = $1, "updated_at" = $2 WHERE "queue_id" = $3`)).
		WithArgs(models.ScheduleStatusCancelled, fixedNow, "q1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(exact(`DELETE FROM "schedules" WHERE "status" IN ($1, $2)`)).
		WithArgs(models.ScheduleStatusCancelled, models.ScheduleStatusExpired).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.UpdateMany(context.Background(), query.Eq("queue_id", "q1"), query.Set{"status": models.ScheduleStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = repo.DeleteMany(context.Background(), query.In("status", models.ScheduleStatusCancelled, models.ScheduleStatusExpired))
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestUpsertWithoutUpdateReturnsExisting(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(exact(`INSERT INTO "users" ("pubkey", "name", "created_at", "updated_at") VALUES ($1, $2, $3, $4) ON CONFLICT ("pubkey") DO UPDATE SET "pubkey" = EXCLUDED."pubkey" RETURNING "pubkey", "name", "created_at", "updated_at"`)).
		WithArgs("pk1", nil, fixedNow, fixedNow).
		WillReturnRows(sqlmock.NewRows(userTable.Columns).AddRow("pk1", "existing", fixedNow, fixedNow))

	u, err := repo.Ensure(context.Background(), "pk1")
	require.NoError(t, err)
	assert.Equal(t, "existing", *u.Name)
}

func TestDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewQueueRepository(db)

	mock.ExpectQuery(exact(`DELETE FROM "queues" WHERE "id" = $1 RETURNING "id", "account_pubkey", "name", "created_at", "updated_at"`)).
		WithArgs("q1").
		WillReturnRows(sqlmock.NewRows(queueTable.Columns).AddRow("q1", "acc", "n", fixedNow, fixedNow))
	mock.ExpectQuery(`DELETE FROM "queues"`).
		WithArgs("q2").
		WillReturnRows(sqlmock.NewRows(queueTable.Columns))

	q, err := repo.Delete(context.Background(), "q1")
	require.NoError(t, err)
	assert.Equal(t, "q1", q.ID)

	_, err = repo.Delete(context.Background(), "q2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCountAggregateGroupBy(t *testing.T) {
	db, mock := newMock(t)
	posts := NewPostRepository(db)
	payments := NewPaymentRepository(db)

	mock.ExpectQuery(exact(`SELECT COUNT(*) FROM "posts" WHERE ("account_pubkey" = $1 AND "is_draft" = $2)`)).
		WithArgs("acc", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))
	mock.ExpectQuery(exact(`SELECT COUNT(*), SUM("amount")::float8 FROM "payments" WHERE "account_pubkey" = $1`)).
		WithArgs("acc").
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(int64(2), float64(1500)))
	mock.ExpectQuery(exact(`SELECT "kind", COUNT(*) FROM "posts" WHERE "account_pubkey" = $1 GROUP BY "kind" ORDER BY "kind" ASC`)).
		WithArgs("acc").
		WillReturnRows(sqlmock.NewRows([]string{"kind", "count"}).AddRow(int64(1), int64(4)).AddRow(int64(6), int64(1)))

	ctx := context.Background()
	n, err := posts.Count(ctx, query.And(query.Eq("account_pubkey", "acc"), query.Eq("is_draft", true)))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	agg, err := payments.Aggregate(ctx, query.AggregateSpec{Where: query.Eq("account_pubkey", "acc"), Count: true, Sum: []string{"amount"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), agg.Count)
	assert.Equal(t, 1500.0, *agg.Sum["amount"])

	groups, err := posts.GroupBy(ctx, query.GroupBySpec{
		By:      []string{"kind"},
		Where:   query.Eq("account_pubkey", "acc"),
		Count:   true,
		OrderBy: []query.Order{query.Asc("kind")},
	})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, int64(1), groups[0].Keys["kind"])
	assert.Equal(t, int64(4), groups[0].Count)
	assert.Equal(t, int64(6), groups[1].Keys["kind"])
}

func TestFindManyReturnsEmptySlice(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAuditLogRepository(db)

	mock.ExpectQuery(exact(`SELECT "id", "account_pubkey", "user_pubkey", "action", "context", "created_at", "updated_at" FROM "audit_logs" WHERE "account_pubkey" = $1 ORDER BY "created_at" DESC LIMIT $2 OFFSET $3`)).
		WithArgs("acc", 20, 40).
		WillReturnRows(sqlmock.NewRows(auditLogTable.Columns))

	logs, err := repo.ListByAccount(context.Background(), "acc", 20, 40)
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Empty(t, logs)
}

func TestQueryErrorsPropagate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery(`FROM accounts a`).WithArgs("usr", models.InvitationAccepted).WillReturnError(sql.ErrConnDone)

	_, err := repo.ListForUser(context.Background(), "usr")
	assert.ErrorIs(t, err, sql.ErrConnDone)
}
