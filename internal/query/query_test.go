package query

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schedules = Table{
	Name:    "schedules",
	Key:     "id",
	Columns: []string{"id", "status", "scheduled_at", "account_pubkey", "relays"},
}

var queues = Table{Name: "queues", Key: "id", Columns: []string{"id", "name"}}

var payments = Table{Name: "payments", Key: "id", Columns: []string{"id", "amount", "currency", "paid_at"}}

func TestSelect(t *testing.T) {
	q, args, err := schedules.Select(Args{
		Where:   And(Eq("account_pubkey", "acc"), In("status", "pending", "failed")),
		OrderBy: []Order{Desc("scheduled_at")},
		Take:    10,
		Skip:    20,
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", "status", "scheduled_at", "account_pubkey", "relays" FROM "schedules" WHERE ("account_pubkey" = $1 AND "status" IN ($2, $3)) ORDER BY "scheduled_at" DESC LIMIT $4 OFFSET $5`, q)
	assert.Equal(t, []any{"acc", "pending", "failed", 10, 20}, args)
}

func TestSelectRejectsUnknownColumns(t *testing.T) {
	_, _, err := schedules.Select(Args{Where: Eq("status; DROP TABLE users", "x")})
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, _, err = schedules.Select(Args{OrderBy: []Order{Asc("nope")}})
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, _, err = schedules.Select(Args{Take: -1})
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestEmptyAndNullConditions(t *testing.T) {
	q, args, err := schedules.Count(Or(Eq("relays", nil), In("status")))
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "schedules" WHERE ("relays" IS NULL OR FALSE)`, q)
	assert.Empty(t, args)

	q, _, err = schedules.Count(And(Ne("relays", nil), NotIn("status"), nil))
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "schedules" WHERE ("relays" IS NOT NULL AND TRUE)`, q)

	q, _, err = schedules.Count(And())
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "schedules" WHERE TRUE`, q)
}

func TestTypedNilComparesAsNull(t *testing.T) {
	var missing *string
	q, args, err := schedules.Count(And(Eq("relays", missing), Ne("account_pubkey", sql.NullString{}), Eq("id", (*int)(nil))))
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "schedules" WHERE ("relays" IS NULL AND "account_pubkey" IS NOT NULL AND "id" IS NULL)`, q)
	assert.Empty(t, args)

	set := "wss://nos.lol"
	q, args, err = schedules.Count(And(Eq("relays", &set), Eq("account_pubkey", sql.NullString{String: "acc", Valid: true})))
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "schedules" WHERE ("relays" = $1 AND "account_pubkey" = $2)`, q)
	assert.Len(t, args, 2)
}

func TestNotNilIsNoFilter(t *testing.T) {
	var c Cond
	q, args, err := schedules.Count(Not(c))
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "schedules" WHERE TRUE`, q)
	assert.Empty(t, args)

	q, _, err = schedules.Count(And(Eq("status", "x"), Not(nil)))
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "schedules" WHERE ("status" = $1 AND TRUE)`, q)
}

func TestPatternsAndNegation(t *testing.T) {
	q, args, err := schedules.Count(And(Contains("relays", `50%_off\`), Not(Eq("status", "x")), StartsWith("id", "ab")))
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "schedules" WHERE ("relays" ILIKE $1 AND NOT ("status" = $2) AND "id" LIKE $3)`, q)
	assert.Equal(t, []any{`%50\%\_off\\%`, "x", "ab%"}, args)
}

func TestInsert(t *testing.T) {
	q, args, err := queues.Insert([][]any{{"q1", "a"}, {"q2", "b"}}, true)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "queues" ("id", "name") VALUES ($1, $2), ($3, $4) ON CONFLICT DO NOTHING`, q)
	assert.Equal(t, []any{"q1", "a", "q2", "b"}, args)

	_, _, err = queues.Insert([][]any{{"q1"}}, false)
	assert.ErrorIs(t, err, ErrInvalidArgs)

	_, _, err = queues.Insert(nil, false)
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestUpdate(t *testing.T) {
	q, args, err := schedules.Update(Set{"status": "failed", "relays": "wss://x"}, Eq("id", "s1"), true)
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "schedules" SET "relays" = $1, "status" = $2 WHERE "id" = $3 RETURNING "id", "status", "scheduled_at", "account_pubkey", "relays"`, q)
	assert.Equal(t, []any{"wss://x", "failed", "s1"}, args)

	_, _, err = schedules.Update(Set{}, nil, false)
	assert.ErrorIs(t, err, ErrEmptySet)

	_, _, err = schedules.Update(Set{"bogus": 1}, nil, false)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestUpsert(t *testing.T) {
	q, args, err := queues.Upsert([]any{"q1", "n"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "queues" ("id", "name") VALUES ($1, $2) ON CONFLICT ("id") DO UPDATE SET "id" = EXCLUDED."id" RETURNING "id", "name"`, q)
	assert.Equal(t, []any{"q1", "n"}, args)

	q, args, err = queues.Upsert([]any{"q1", "n"}, []string{"name"}, Set{"name": "m"})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "queues" ("id", "name") VALUES ($1, $2) ON CONFLICT ("name") DO UPDATE SET "name" = $3 RETURNING "id", "name"`, q)
	assert.Equal(t, []any{"q1", "n", "m"}, args)
}

func TestDelete(t *testing.T) {
	q, args, err := queues.Delete(nil, false)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "queues"`, q)
	assert.Empty(t, args)

	q, _, err = queues.Delete(Eq("id", "q1"), true)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "queues" WHERE "id" = $1 RETURNING "id", "name"`, q)
}

func TestAggregate(t *testing.T) {
	agg, err := payments.Aggregate(AggregateSpec{
		Where: Eq("currency", "usd"),
		Count: true,
		Max:   []string{"paid_at"},
		Sum:   []string{"amount"},
		Avg:   []string{"amount"},
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*), MAX("paid_at"), SUM("amount")::float8, AVG("amount")::float8 FROM "payments" WHERE "currency" = $1`, agg.SQL)
	assert.Equal(t, []any{"usd"}, agg.Args)

	dest, collect := agg.Targets()
	require.Len(t, dest, 4)
	paid := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	*dest[0].(*int64) = 3
	*dest[1].(*any) = paid
	*dest[2].(*sql.NullFloat64) = sql.NullFloat64{Float64: 3000, Valid: true}

	got := collect()
	assert.Equal(t, int64(3), got.Count)
	assert.Equal(t, paid, got.Max["paid_at"])
	require.NotNil(t, got.Sum["amount"])
	assert.Equal(t, 3000.0, *got.Sum["amount"])
	assert.Nil(t, got.Avg["amount"])

	_, err = payments.Aggregate(AggregateSpec{})
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestGroupBy(t *testing.T) {
	gq, err := payments.GroupBy(GroupBySpec{
		By:      []string{"currency"},
		Count:   true,
		Sum:     []string{"amount"},
		OrderBy: []Order{Desc(CountOrder)},
		Take:    5,
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "currency", COUNT(*), SUM("amount")::float8 FROM "payments" GROUP BY "currency" ORDER BY COUNT(*) DESC LIMIT $1`, gq.SQL)
	assert.Equal(t, []any{5}, gq.Args)

	dest, collect := gq.Targets()
	require.Len(t, dest, 3)
	*dest[0].(*any) = []byte("usd")
	*dest[1].(*int64) = 2
	*dest[2].(*sql.NullFloat64) = sql.NullFloat64{Float64: 1500, Valid: true}
	g := collect()
	assert.Equal(t, "usd", g.Keys["currency"])
	assert.Equal(t, int64(2), g.Count)
	assert.Equal(t, 1500.0, *g.Sum["amount"])

	_, err = payments.GroupBy(GroupBySpec{By: []string{"currency"}, OrderBy: []Order{Asc("amount")}})
	assert.ErrorIs(t, err, ErrInvalidArgs)

	_, err = payments.GroupBy(GroupBySpec{})
	assert.ErrorIs(t, err, ErrInvalidArgs)
}
