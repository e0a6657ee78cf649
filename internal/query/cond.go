package query

import (
	"database/sql/driver"
	"reflect"
	"strings"
)

// Cond is a composable WHERE predicate. Column names are validated against the
// owning table when the predicate is rendered.
type Cond interface {
	render(b *builder) error
}

type compare struct {
	column string
	op     string
	value  any
}

func (c compare) render(b *builder) error {
	col, err := b.column(c.column)
	if err != nil {
		return err
	}
	if isNull(c.value) {
		switch c.op {
		case "=":
			b.write(col + " IS NULL")
			return nil
		case "<>":
			b.write(col + " IS NOT NULL")
			return nil
		}
	}
	b.write(col + " " + c.op + " " + b.arg(c.value))
	return nil
}

// isNull reports whether v is stored as SQL NULL: untyped nil, a nil pointer, or a
// driver.Valuer such as sql.NullString that yields nil.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return true
	}
	if dv, ok := v.(driver.Valuer); ok {
		val, err := dv.Value()
		return err == nil && val == nil
	}
	return false
}

// Eq compares column to value. A nil value, typed or not, renders IS NULL.
func Eq(column string, value any) Cond  { return compare{column, "=", value} }
func Ne(column string, value any) Cond  { return compare{column, "<>", value} }
func Lt(column string, value any) Cond  { return compare{column, "<", value} }
func Lte(column string, value any) Cond { return compare{column, "<=", value} }
func Gt(column string, value any) Cond  { return compare{column, ">", value} }
func Gte(column string, value any) Cond { return compare{column, ">=", value} }

type membership struct {
	column string
	values []any
	negate bool
}

func (m membership) render(b *builder) error {
	col, err := b.column(m.column)
	if err != nil {
		return err
	}
	if len(m.values) == 0 {
		if m.negate {
			b.write("TRUE")
		} else {
			b.write("FALSE")
		}
		return nil
	}
	placeholders := make([]string, len(m.values))
	for i, v := range m.values {
		placeholders[i] = b.arg(v)
	}
	op := " IN ("
	if m.negate {
		op = " NOT IN ("
	}
	b.write(col + op + strings.Join(placeholders, ", ") + ")")
	return nil
}

func In(column string, values ...any) Cond { return membership{column: column, values: values} }
func NotIn(column string, values ...any) Cond {
	return membership{column: column, values: values, negate: true}
}

// Strings adapts a string slice for In and NotIn.
func Strings(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

type nullCheck struct {
	column string
	null   bool
}

func (n nullCheck) render(b *builder) error {
	col, err := b.column(n.column)
	if err != nil {
		return err
	}
	if n.null {
		b.write(col + " IS NULL")
	} else {
		b.write(col + " IS NOT NULL")
	}
	return nil
}

func IsNull(column string) Cond  { return nullCheck{column, true} }
func NotNull(column string) Cond { return nullCheck{column, false} }

type pattern struct {
	column string
	op     string
	value  string
}

func (p pattern) render(b *builder) error {
	col, err := b.column(p.column)
	if err != nil {
		return err
	}
	b.write(col + " " + p.op + " " + b.arg(p.value))
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains matches value anywhere in the column, case-insensitively.
func Contains(column, value string) Cond {
	return pattern{column, "ILIKE", "%" + likeEscaper.Replace(value) + "%"}
}

func StartsWith(column, value string) Cond {
	return pattern{column, "LIKE", likeEscaper.Replace(value) + "%"}
}

type junction struct {
	op    string
	conds []Cond
	empty string
}

func (j junction) render(b *builder) error {
	conds := make([]Cond, 0, len(j.conds))
	for _, c := range j.conds {
		if c != nil {
			conds = append(conds, c)
		}
	}
	switch len(conds) {
	case 0:
		b.write(j.empty)
		return nil
	case 1:
		return conds[0].render(b)
	}
	b.write("(")
	for i, c := range conds {
		if i > 0 {
			b.write(" " + j.op + " ")
		}
		if err := c.render(b); err != nil {
			return err
		}
	}
	b.write(")")
	return nil
}

// And joins conditions; nil entries are skipped so optional filters can be passed inline.
func And(conds ...Cond) Cond { return junction{op: "AND", conds: conds, empty: "TRUE"} }
func Or(conds ...Cond) Cond  { return junction{op: "OR", conds: conds, empty: "FALSE"} }

type negation struct {
	cond Cond
}

func (n negation) render(b *builder) error {
	if n.cond == nil {
		b.write("TRUE")
		return nil
	}
	b.write("NOT (")
	if err := n.cond.render(b); err != nil {
		return err
	}
	b.write(")")
	return nil
}

// Not negates c. Not(nil) is no filter at all, the same as a nil entry inside And.
func Not(c Cond) Cond { return negation{c} }
