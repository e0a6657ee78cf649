package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/postr/internal/query"
)

// Client bundles one repository per model over a single connection, which is either
// the pool or an open transaction.
type Client struct {
	db   *sql.DB
	conn DBTX
	inTx bool

	User         UserRepository
	Account      AccountRepository
	Setting      SettingRepository
	AccountUser  AccountUserRepository
	Post         PostRepository
	Queue        QueueRepository
	Schedule     ScheduleRepository
	Subscription SubscriptionRepository
	Payment      PaymentRepository
	AuditLog     AuditLogRepository
}

func NewClient(db *sql.DB) *Client {
	return bind(db, db, false)
}

func bind(db *sql.DB, conn DBTX, inTx bool) *Client {
	return &Client{
		db:           db,
		conn:         conn,
		inTx:         inTx,
		User:         NewUserRepository(conn),
		Account:      NewAccountRepository(conn),
		Setting:      NewSettingRepository(conn),
		AccountUser:  NewAccountUserRepository(conn),
		Post:         NewPostRepository(conn),
		Queue:        NewQueueRepository(conn),
		Schedule:     NewScheduleRepository(conn),
		Subscription: NewSubscriptionRepository(conn),
		Payment:      NewPaymentRepository(conn),
		AuditLog:     NewAuditLogRepository(conn),
	}
}

// Connect verifies the database is reachable.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database is unreachable: %w", err)
	}
	return nil
}

func (c *Client) Disconnect() error {
	return c.db.Close()
}

// Transaction runs fn against a client bound to a new transaction. The transaction is
// committed when fn returns nil and rolled back otherwise, including on panic. Calling
// Transaction on a client that is already inside one reuses it.
func (c *Client) Transaction(ctx context.Context, fn func(tx *Client) error) (err error) {
	if c.inTx {
		return fn(c)
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Info(rbErr.Error())
			}
		}
	}()

	if err = fn(bind(c.db, tx, true)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// QueryRaw runs an arbitrary query and returns each row as a column-keyed map.
func (c *Client) QueryRaw(ctx context.Context, q string, args ...any) ([]map[string]any, error) {
	rows, err := c.conn.QueryContext(ctx, q, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, mapError(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (c *Client) ExecuteRaw(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := c.conn.ExecContext(ctx, q, args...)
	if err != nil {
		slog.Info(err.Error())
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

// Tables lists the table definitions, in dependency order.
func Tables() []query.Table {
	return []query.Table{
		userTable, accountTable, settingTable, accountUserTable, postTable,
		queueTable, scheduleTable, subscriptionTable, paymentTable, auditLogTable,
	}
}
