package repository

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
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
	return db, mock
}

func exact(q string) string {
	return regexp.QuoteMeta(q)
}

func scheduleRow(id, status string) *sqlmock.Rows {
	return sqlmock.NewRows(scheduleTable.Columns).AddRow(
		id, "post-1", nil, "acc", "usr",
		fixedNow, nil, nil, nil,
		"wss://nos.lol", status, nil, nil,
		fixedNow, fixedNow,
	)
}
