package query

import (
	"database/sql"
	"fmt"
	"strings"
)

// Aggregates holds the computed values of an aggregate or of one group. Min and Max keep
// the column's native type; Sum and Avg are nil when no row contributed.
type Aggregates struct {
	Count int64               `json:"_count,omitempty"`
	Min   map[string]any      `json:"_min,omitempty"`
	Max   map[string]any      `json:"_max,omitempty"`
	Sum   map[string]*float64 `json:"_sum,omitempty"`
	Avg   map[string]*float64 `json:"_avg,omitempty"`
}

type AggregateSpec struct {
	Where Cond
	Count bool
	Min   []string
	Max   []string
	Sum   []string
	Avg   []string
}

type GroupBySpec struct {
	By      []string
	Where   Cond
	Count   bool
	Min     []string
	Max     []string
	Sum     []string
	Avg     []string
	OrderBy []Order // a grouped column or "_count"
	Take    int
	Skip    int
}

type Group struct {
	Keys map[string]any `json:"keys"`
	Aggregates
}

// CountOrder is the pseudo column that orders groups by their row count.
const CountOrder = "_count"

type aggregateColumns struct {
	count              bool
	min, max, sum, avg []string
}

func (a aggregateColumns) render(b *builder) ([]string, error) {
	var exprs []string
	if a.count {
		exprs = append(exprs, "COUNT(*)")
	}
	add := func(cols []string, format string) error {
		for _, c := range cols {
			col, err := b.column(c)
			if err != nil {
				return err
			}
			exprs = append(exprs, fmt.Sprintf(format, col))
		}
		return nil
	}
	if err := add(a.min, "MIN(%s)"); err != nil {
		return nil, err
	}
	if err := add(a.max, "MAX(%s)"); err != nil {
		return nil, err
	}
	if err := add(a.sum, "SUM(%s)::float8"); err != nil {
		return nil, err
	}
	if err := add(a.avg, "AVG(%s)::float8"); err != nil {
		return nil, err
	}
	return exprs, nil
}

// targets returns scan destinations for the aggregate expressions and a function that
// collects them once the row has been scanned.
func (a aggregateColumns) targets() ([]any, func() Aggregates) {
	var dest []any
	var count int64
	if a.count {
		dest = append(dest, &count)
	}
	mins := make([]any, len(a.min))
	for i := range mins {
		dest = append(dest, &mins[i])
	}
	maxs := make([]any, len(a.max))
	for i := range maxs {
		dest = append(dest, &maxs[i])
	}
	sums := make([]sql.NullFloat64, len(a.sum))
	for i := range sums {
		dest = append(dest, &sums[i])
	}
	avgs := make([]sql.NullFloat64, len(a.avg))
	for i := range avgs {
		dest = append(dest, &avgs[i])
	}
	return dest, func() Aggregates {
		out := Aggregates{Count: count}
		out.Min = anyMap(a.min, mins)
		out.Max = anyMap(a.max, maxs)
		out.Sum = floatMap(a.sum, sums)
		out.Avg = floatMap(a.avg, avgs)
		return out
	}
}

func anyMap(cols []string, vals []any) map[string]any {
	if len(cols) == 0 {
		return nil
	}
	m := make(map[string]any, len(cols))
	for i, c := range cols {
		m[c] = normalize(vals[i])
	}
	return m
}

func floatMap(cols []string, vals []sql.NullFloat64) map[string]*float64 {
	if len(cols) == 0 {
		return nil
	}
	m := make(map[string]*float64, len(cols))
	for i, c := range cols {
		if vals[i].Valid {
			v := vals[i].Float64
			m[c] = &v
		} else {
			m[c] = nil
		}
	}
	return m
}

// normalize turns driver byte slices (numeric, unknown types) into strings.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

type AggregateQuery struct {
	SQL  string
	Args []any
	cols aggregateColumns
}

// Targets returns scan destinations for the single result row and a collector.
func (q *AggregateQuery) Targets() ([]any, func() Aggregates) {
	return q.cols.targets()
}

func (t Table) Aggregate(spec AggregateSpec) (*AggregateQuery, error) {
	cols := aggregateColumns{count: spec.Count, min: spec.Min, max: spec.Max, sum: spec.Sum, avg: spec.Avg}
	b := newBuilder(t)
	exprs, err := cols.render(b)
	if err != nil {
		return nil, err
	}
	if len(exprs) == 0 {
		return nil, fmt.Errorf("%w: aggregate selects nothing", ErrInvalidArgs)
	}
	b.write("SELECT " + strings.Join(exprs, ", ") + " FROM " + quote(t.Name))
	if err := b.where(spec.Where); err != nil {
		return nil, err
	}
	return &AggregateQuery{SQL: b.sb.String(), Args: b.args, cols: cols}, nil
}

type GroupByQuery struct {
	SQL  string
	Args []any
	by   []string
	cols aggregateColumns
}

// Targets returns scan destinations for one group row and a collector.
func (q *GroupByQuery) Targets() ([]any, func() Group) {
	keys := make([]any, len(q.by))
	dest := make([]any, 0, len(q.by))
	for i := range keys {
		dest = append(dest, &keys[i])
	}
	aggDest, collect := q.cols.targets()
	dest = append(dest, aggDest...)
	return dest, func() Group {
		g := Group{Keys: make(map[string]any, len(q.by)), Aggregates: collect()}
		for i, c := range q.by {
			g.Keys[c] = normalize(keys[i])
		}
		return g
	}
}

func (t Table) GroupBy(spec GroupBySpec) (*GroupByQuery, error) {
	if len(spec.By) == 0 {
		return nil, fmt.Errorf("%w: group by needs at least one column", ErrInvalidArgs)
	}
	cols := aggregateColumns{count: spec.Count, min: spec.Min, max: spec.Max, sum: spec.Sum, avg: spec.Avg}
	b := newBuilder(t)
	keys, err := b.columnList(spec.By)
	if err != nil {
		return nil, err
	}
	exprs, err := cols.render(b)
	if err != nil {
		return nil, err
	}
	selectList := keys
	if len(exprs) > 0 {
		selectList += ", " + strings.Join(exprs, ", ")
	}
	b.write("SELECT " + selectList + " FROM " + quote(t.Name))
	if err := b.where(spec.Where); err != nil {
		return nil, err
	}
	b.write(" GROUP BY " + keys)
	grouped := make(map[string]struct{}, len(spec.By))
	for _, c := range spec.By {
		grouped[c] = struct{}{}
	}
	for _, o := range spec.OrderBy {
		if _, ok := grouped[o.Column]; !ok && o.Column != CountOrder {
			return nil, fmt.Errorf("%w: cannot order groups by %q", ErrInvalidArgs, o.Column)
		}
	}
	if err := b.orderBy(spec.OrderBy, map[string]string{CountOrder: "COUNT(*)"}); err != nil {
		return nil, err
	}
	if err := b.page(spec.Take, spec.Skip); err != nil {
		return nil, err
	}
	return &GroupByQuery{SQL: b.sb.String(), Args: b.args, by: spec.By, cols: cols}, nil
}
