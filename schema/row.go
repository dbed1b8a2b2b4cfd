package schema

import (
	"database/sql"
	"fmt"
	"strings"
)

// layout is the column set shared by every Row of one result set.
// Duplicate labels collapse onto the position of their first occurrence.
type layout struct {
	labels []string
	index  map[string]int
	slot   []int // result column -> position in labels
}

func newLayout(columns []string) *layout {
	l := &layout{
		labels: make([]string, 0, len(columns)),
		index:  make(map[string]int, len(columns)),
		slot:   make([]int, len(columns)),
	}
	for i, col := range columns {
		pos, ok := l.index[col]
		if !ok {
			pos = len(l.labels)
			l.index[col] = pos
			l.labels = append(l.labels, col)
		}
		l.slot[i] = pos
	}
	return l
}

// Row is one result row: column labels in result-set order, each mapped to
// the value the driver returned for it.
type Row struct {
	layout *layout
	values []any
}

// NewRow builds a Row from parallel column and value slices. When a label
// repeats, the later value wins and the first position is kept.
func NewRow(columns []string, values []any) Row {
	l := newLayout(columns)
	return l.row(values)
}

func (l *layout) row(values []any) Row {
	r := Row{layout: l, values: make([]any, len(l.labels))}
	for i, v := range values {
		if i >= len(l.slot) {
			break
		}
		r.values[l.slot[i]] = v
	}
	return r
}

// Len returns the number of distinct columns in the row.
func (r Row) Len() int {
	return len(r.values)
}

func (r Row) IsEmpty() bool {
	return len(r.values) == 0
}

// Columns returns the labels in result-set order.
func (r Row) Columns() []string {
	if r.layout == nil {
		return nil
	}
	out := make([]string, len(r.layout.labels))
	copy(out, r.layout.labels)
	return out
}

// Values returns the values in column order.
func (r Row) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Get returns the value stored under label and whether the label exists.
func (r Row) Get(label string) (any, bool) {
	if r.layout == nil {
		return nil, false
	}
	pos, ok := r.layout.index[label]
	if !ok {
		return nil, false
	}
	return r.values[pos], true
}

// Value returns the value stored under label, or nil.
func (r Row) Value(label string) any {
	v, _ := r.Get(label)
	return v
}

// First returns the value of the first column. ok is false for an empty row.
func (r Row) First() (v any, ok bool) {
	if len(r.values) == 0 {
		return nil, false
	}
	return r.values[0], true
}

// Map copies the row into an unordered map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for i, label := range r.Columns() {
		m[label] = r.values[i]
	}
	return m
}

func (r Row) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, label := range r.Columns() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", label, r.values[i])
	}
	b.WriteByte('}')
	return b.String()
}

// Rows is the subset of *sql.Rows that ReadRows needs.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Err() error
}

var _ Rows = (*sql.Rows)(nil)

// columnTyper is implemented by *sql.Rows.
type columnTyper interface {
	ColumnTypes() ([]*sql.ColumnType, error)
}

// textColumns reports which columns hold text. Without type information
// every column is treated as text. A column is binary when its database
// type names a binary or blob type, or when the driver reports no type
// name at all, as sqlite does for expressions.
func textColumns(rows Rows, n int) []bool {
	text := make([]bool, n)
	for i := range text {
		text[i] = true
	}
	ct, ok := rows.(columnTyper)
	if !ok {
		return text
	}
	types, err := ct.ColumnTypes()
	if err != nil || len(types) != n {
		return text
	}
	for i, t := range types {
		text[i] = !isBinaryType(t.DatabaseTypeName())
	}
	return text
}

func isBinaryType(name string) bool {
	name = strings.ToUpper(name)
	switch {
	case name == "":
		return true
	case strings.Contains(name, "BLOB"), strings.Contains(name, "BINARY"):
		return true
	case name == "BYTEA", name == "BIT", name == "GEOMETRY", name == "IMAGE":
		return true
	}
	return false
}

// ReadRows drains rows into Row values, preserving row and column order.
// Text the driver hands back as []byte is stored as string; binary columns
// keep their bytes. The returned slice is empty, never nil, when the result
// set has no rows.
func ReadRows(rows Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	l := newLayout(columns)
	text := textColumns(rows, len(columns))

	out := make([]Row, 0)
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok && text[i] {
				vals[i] = string(b)
			}
		}
		out = append(out, l.row(vals))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
