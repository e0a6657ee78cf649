package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrInvalidArgs   = errors.New("invalid query arguments")
	ErrEmptySet      = errors.New("update set is empty")
)

type builder struct {
	sb      strings.Builder
	args    []any
	columns map[string]struct{}
}

func newBuilder(t Table) *builder {
	cols := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		cols[c] = struct{}{}
	}
	return &builder{columns: cols}
}

func (b *builder) write(s string) {
	b.sb.WriteString(s)
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *builder) column(name string) (string, error) {
	if _, ok := b.columns[name]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return quote(name), nil
}

func (b *builder) where(c Cond) error {
	if c == nil {
		return nil
	}
	b.write(" WHERE ")
	return c.render(b)
}

func (b *builder) orderBy(orders []Order, extra map[string]string) error {
	if len(orders) == 0 {
		return nil
	}
	parts := make([]string, len(orders))
	for i, o := range orders {
		expr, ok := extra[o.Column]
		if !ok {
			col, err := b.column(o.Column)
			if err != nil {
				return err
			}
			expr = col
		}
		if o.Desc {
			expr += " DESC"
		} else {
			expr += " ASC"
		}
		parts[i] = expr
	}
	b.write(" ORDER BY " + strings.Join(parts, ", "))
	return nil
}

func (b *builder) page(take, skip int) error {
	if take < 0 || skip < 0 {
		return fmt.Errorf("%w: take=%d skip=%d", ErrInvalidArgs, take, skip)
	}
	if take > 0 {
		b.write(" LIMIT " + b.arg(take))
	}
	if skip > 0 {
		b.write(" OFFSET " + b.arg(skip))
	}
	return nil
}

func (b *builder) columnList(cols []string) (string, error) {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		q, err := b.column(c)
		if err != nil {
			return "", err
		}
		quoted[i] = q
	}
	return strings.Join(quoted, ", "), nil
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
