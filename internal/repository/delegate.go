package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"maps"
	"time"

	"github.com/maheshrc27/postr/internal/query"
)

// Delegate is the query surface every model repository exposes.
type Delegate[T any] interface {
	FindUnique(ctx context.Context, key string) (*T, bool, error)
	FindFirst(ctx context.Context, args query.Args) (*T, bool, error)
	FindMany(ctx context.Context, args query.Args) ([]*T, error)
	Create(ctx context.Context, record *T) error
	CreateMany(ctx context.Context, records []*T, skipDuplicates bool) (int64, error)
	Update(ctx context.Context, key string, set query.Set) (*T, error)
	UpdateMany(ctx context.Context, where query.Cond, set query.Set) (int64, error)
	Upsert(ctx context.Context, record *T, update query.Set) (*T, error)
	Delete(ctx context.Context, key string) (*T, error)
	DeleteMany(ctx context.Context, where query.Cond) (int64, error)
	Count(ctx context.Context, where query.Cond) (int64, error)
	Aggregate(ctx context.Context, spec query.AggregateSpec) (query.Aggregates, error)
	GroupBy(ctx context.Context, spec query.GroupBySpec) ([]query.Group, error)
}

// mapping binds a model type to its table.
type mapping[T any] struct {
	table   query.Table
	values  func(*T) []any
	scan    func(rowScanner, *T) error
	prepare func(*T, time.Time)
}

type delegate[T any] struct {
	db DBTX
	m  mapping[T]
}

func newDelegate[T any](db DBTX, m mapping[T]) *delegate[T] {
	return &delegate[T]{db: db, m: m}
}

func (d *delegate[T]) scanOne(row rowScanner) (*T, error) {
	var rec T
	if err := d.m.scan(row, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (d *delegate[T]) FindUnique(ctx context.Context, key string) (*T, bool, error) {
	return d.FindFirst(ctx, query.Args{Where: query.Eq(d.m.table.Key, key)})
}

func (d *delegate[T]) FindFirst(ctx context.Context, args query.Args) (*T, bool, error) {
	args.Take = 1
	q, params, err := d.m.table.Select(args)
	if err != nil {
		return nil, false, err
	}
	rec, err := d.scanOne(d.db.QueryRowContext(ctx, q, params...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return rec, true, nil
}

func (d *delegate[T]) FindMany(ctx context.Context, args query.Args) ([]*T, error) {
	q, params, err := d.m.table.Select(args)
	if err != nil {
		return nil, err
	}
	return d.queryMany(ctx, q, params...)
}

func (d *delegate[T]) queryMany(ctx context.Context, q string, params ...any) ([]*T, error) {
	rows, err := d.db.QueryContext(ctx, q, params...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	records := []*T{}
	for rows.Next() {
		rec, err := d.scanOne(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return records, nil
}

func (d *delegate[T]) Create(ctx context.Context, record *T) error {
	_, err := d.CreateMany(ctx, []*T{record}, false)
	return err
}

func (d *delegate[T]) CreateMany(ctx context.Context, records []*T, skipDuplicates bool) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	t := now()
	rows := make([][]any, len(records))
	for i, rec := range records {
		d.m.prepare(rec, t)
		rows[i] = d.m.values(rec)
	}
	q, params, err := d.m.table.Insert(rows, skipDuplicates)
	if err != nil {
		return 0, err
	}
	res, err := d.db.ExecContext(ctx, q, params...)
	if err != nil {
		slog.Info(err.Error())
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

func (d *delegate[T]) touch(set query.Set) query.Set {
	out := make(query.Set, len(set)+1)
	maps.Copy(out, set)
	if _, ok := out["updated_at"]; !ok {
		out["updated_at"] = now()
	}
	return out
}

func (d *delegate[T]) Update(ctx context.Context, key string, set query.Set) (*T, error) {
	return d.updateWhere(ctx, query.Eq(d.m.table.Key, key), set)
}

// updateWhere updates the single row matched by where and returns it, or ErrNotFound.
func (d *delegate[T]) updateWhere(ctx context.Context, where query.Cond, set query.Set) (*T, error) {
	q, params, err := d.m.table.Update(d.touch(set), where, true)
	if err != nil {
		return nil, err
	}
	rec, err := d.scanOne(d.db.QueryRowContext(ctx, q, params...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		slog.Info(err.Error())
		return nil, mapError(err)
	}
	return rec, nil
}

func (d *delegate[T]) UpdateMany(ctx context.Context, where query.Cond, set query.Set) (int64, error) {
	q, params, err := d.m.table.Update(d.touch(set), where, false)
	if err != nil {
		return 0, err
	}
	res, err := d.db.ExecContext(ctx, q, params...)
	if err != nil {
		slog.Info(err.Error())
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

func (d *delegate[T]) Upsert(ctx context.Context, record *T, update query.Set) (*T, error) {
	return d.upsertOn(ctx, record, nil, update)
}

func (d *delegate[T]) upsertOn(ctx context.Context, record *T, conflict []string, update query.Set) (*T, error) {
	d.m.prepare(record, now())
	if len(update) > 0 {
		update = d.touch(update)
	}
	q, params, err := d.m.table.Upsert(d.m.values(record), conflict, update)
	if err != nil {
		return nil, err
	}
	rec, err := d.scanOne(d.db.QueryRowContext(ctx, q, params...))
	if err != nil {
		slog.Info(err.Error())
		return nil, mapError(err)
	}
	return rec, nil
}

func (d *delegate[T]) Delete(ctx context.Context, key string) (*T, error) {
	q, params, err := d.m.table.Delete(query.Eq(d.m.table.Key, key), true)
	if err != nil {
		return nil, err
	}
	rec, err := d.scanOne(d.db.QueryRowContext(ctx, q, params...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		slog.Info(err.Error())
		return nil, mapError(err)
	}
	return rec, nil
}

func (d *delegate[T]) DeleteMany(ctx context.Context, where query.Cond) (int64, error) {
	q, params, err := d.m.table.Delete(where, false)
	if err != nil {
		return 0, err
	}
	res, err := d.db.ExecContext(ctx, q, params...)
	if err != nil {
		slog.Info(err.Error())
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

func (d *delegate[T]) Count(ctx context.Context, where query.Cond) (int64, error) {
	q, params, err := d.m.table.Count(where)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := d.db.QueryRowContext(ctx, q, params...).Scan(&n); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return n, nil
}

func (d *delegate[T]) Aggregate(ctx context.Context, spec query.AggregateSpec) (query.Aggregates, error) {
	aq, err := d.m.table.Aggregate(spec)
	if err != nil {
		return query.Aggregates{}, err
	}
	dest, collect := aq.Targets()
	if err := d.db.QueryRowContext(ctx, aq.SQL, aq.Args...).Scan(dest...); err != nil {
		slog.Info(err.Error())
		return query.Aggregates{}, err
	}
	return collect(), nil
}

func (d *delegate[T]) GroupBy(ctx context.Context, spec query.GroupBySpec) ([]query.Group, error) {
	gq, err := d.m.table.GroupBy(spec)
	if err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, gq.SQL, gq.Args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	groups := []query.Group{}
	for rows.Next() {
		dest, collect := gq.Targets()
		if err := rows.Scan(dest...); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		groups = append(groups, collect())
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return groups, nil
}
