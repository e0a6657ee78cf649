package query

import (
	"fmt"
	"sort"
	"strings"
)

// Table describes a relation: its name, primary key column and the full column list
// in scan order. Every statement rendered for a table only accepts these columns.
type Table struct {
	Name    string
	Key     string
	Columns []string
}

type Order struct {
	Column string
	Desc   bool
}

func Asc(column string) Order  { return Order{Column: column} }
func Desc(column string) Order { return Order{Column: column, Desc: true} }

// Args are the arguments of findFirst and findMany.
type Args struct {
	Where   Cond
	OrderBy []Order
	Take    int
	Skip    int
}

// Set assigns column values in UPDATE and upsert statements.
type Set map[string]any

func (s Set) sortedColumns() []string {
	cols := make([]string, 0, len(s))
	for c := range s {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Select renders a SELECT of every table column.
func (t Table) Select(a Args) (string, []any, error) {
	b := newBuilder(t)
	cols, err := b.columnList(t.Columns)
	if err != nil {
		return "", nil, err
	}
	b.write("SELECT " + cols + " FROM " + quote(t.Name))
	if err := b.where(a.Where); err != nil {
		return "", nil, err
	}
	if err := b.orderBy(a.OrderBy, nil); err != nil {
		return "", nil, err
	}
	if err := b.page(a.Take, a.Skip); err != nil {
		return "", nil, err
	}
	return b.sb.String(), b.args, nil
}

func (t Table) Count(where Cond) (string, []any, error) {
	b := newBuilder(t)
	b.write("SELECT COUNT(*) FROM " + quote(t.Name))
	if err := b.where(where); err != nil {
		return "", nil, err
	}
	return b.sb.String(), b.args, nil
}

// Insert renders a multi-row INSERT of every column. Values are flattened row by row
// in column order.
func (t Table) Insert(rows [][]any, skipDuplicates bool) (string, []any, error) {
	if len(rows) == 0 {
		return "", nil, fmt.Errorf("%w: no rows to insert", ErrInvalidArgs)
	}
	b := newBuilder(t)
	cols, err := b.columnList(t.Columns)
	if err != nil {
		return "", nil, err
	}
	b.write("INSERT INTO " + quote(t.Name) + " (" + cols + ") VALUES ")
	for i, row := range rows {
		if len(row) != len(t.Columns) {
			return "", nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrInvalidArgs, i, len(row), len(t.Columns))
		}
		if i > 0 {
			b.write(", ")
		}
		b.write(b.values(row))
	}
	if skipDuplicates {
		b.write(" ON CONFLICT DO NOTHING")
	}
	return b.sb.String(), b.args, nil
}

// Update renders UPDATE ... SET ... WHERE, optionally returning every column.
func (t Table) Update(set Set, where Cond, returning bool) (string, []any, error) {
	if len(set) == 0 {
		return "", nil, ErrEmptySet
	}
	b := newBuilder(t)
	b.write("UPDATE " + quote(t.Name) + " SET ")
	if err := b.assignments(set); err != nil {
		return "", nil, err
	}
	if err := b.where(where); err != nil {
		return "", nil, err
	}
	if returning {
		if err := b.returning(t.Columns); err != nil {
			return "", nil, err
		}
	}
	return b.sb.String(), b.args, nil
}

func (t Table) Delete(where Cond, returning bool) (string, []any, error) {
	b := newBuilder(t)
	b.write("DELETE FROM " + quote(t.Name))
	if err := b.where(where); err != nil {
		return "", nil, err
	}
	if returning {
		if err := b.returning(t.Columns); err != nil {
			return "", nil, err
		}
	}
	return b.sb.String(), b.args, nil
}

// Upsert renders INSERT ... ON CONFLICT (conflict) DO UPDATE SET ... RETURNING. When set
// is empty the first conflict column is reassigned to itself so the existing row is
// still returned untouched.
func (t Table) Upsert(row []any, conflict []string, set Set) (string, []any, error) {
	if len(row) != len(t.Columns) {
		return "", nil, fmt.Errorf("%w: row has %d values, want %d", ErrInvalidArgs, len(row), len(t.Columns))
	}
	if len(conflict) == 0 {
		conflict = []string{t.Key}
	}
	b := newBuilder(t)
	cols, err := b.columnList(t.Columns)
	if err != nil {
		return "", nil, err
	}
	target, err := b.columnList(conflict)
	if err != nil {
		return "", nil, err
	}
	b.write("INSERT INTO " + quote(t.Name) + " (" + cols + ") VALUES " + b.values(row))
	b.write(" ON CONFLICT (" + target + ") DO UPDATE SET ")
	if len(set) == 0 {
		c := quote(conflict[0])
		b.write(c + " = EXCLUDED." + c)
	} else if err := b.assignments(set); err != nil {
		return "", nil, err
	}
	if err := b.returning(t.Columns); err != nil {
		return "", nil, err
	}
	return b.sb.String(), b.args, nil
}

func (b *builder) values(row []any) string {
	placeholders := make([]string, len(row))
	for i, v := range row {
		placeholders[i] = b.arg(v)
	}
	return "(" + strings.Join(placeholders, ", ") + ")"
}

func (b *builder) assignments(set Set) error {
	for i, c := range set.sortedColumns() {
		col, err := b.column(c)
		if err != nil {
			return err
		}
		if i > 0 {
			b.write(", ")
		}
		b.write(col + " = " + b.arg(set[c]))
	}
	return nil
}

func (b *builder) returning(cols []string) error {
	list, err := b.columnList(cols)
	if err != nil {
		return err
	}
	b.write(" RETURNING " + list)
	return nil
}
