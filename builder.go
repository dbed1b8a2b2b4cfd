package simpledb

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Konsultn-Engineering/simpledb/schema"
)

// Builder accumulates one statement. Fragments are joined by single spaces
// and params are bound to the "?" placeholders in order. A Builder is owned
// by one caller and must not be shared.
//
// The first build error is kept and returned by every terminal call.
type Builder struct {
	db        *SimpleDb
	fragments []string
	params    []any
	err       error
}

// Append adds fragment and its params. A blank fragment is ignored along
// with its params.
func (b *Builder) Append(fragment string, params ...any) *Builder {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return b
	}
	b.fragments = append(b.fragments, fragment)
	b.params = append(b.params, params...)
	return b
}

// AppendIn adds fragment with its IN marker expanded for values, which are
// flattened with FlattenParams. The marker is the first "(?)" or, failing
// that, the first "?". For n values the marker becomes n comma-separated
// placeholders; with no values it becomes NULL so the clause matches
// nothing.
func (b *Builder) AppendIn(fragment string, values ...any) *Builder {
	flat := FlattenParams(values...)

	list := "NULL"
	if len(flat) > 0 {
		list = strings.Repeat("?, ", len(flat)-1) + "?"
	}

	if i := strings.Index(fragment, "(?)"); i >= 0 {
		return b.Append(fragment[:i]+"("+list+")"+fragment[i+3:], flat...)
	}
	if i := strings.IndexByte(fragment, '?'); i >= 0 {
		return b.Append(fragment[:i]+list+fragment[i+1:], flat...)
	}
	b.addError(&ArgumentError{Fragment: fragment, Msg: "no placeholder for IN values"})
	return b
}

func (b *Builder) addError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns the first build error.
func (b *Builder) Err() error {
	return b.err
}

// SQL returns the statement text built so far.
func (b *Builder) SQL() string {
	return strings.Join(b.fragments, " ")
}

// Params returns a copy of the bound parameters.
func (b *Builder) Params() []any {
	return append([]any(nil), b.params...)
}

func (b *Builder) exec(ctx context.Context, op string) (sql.Result, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.db.exec(ctx, op, b.SQL(), b.params)
}

// Insert executes the statement and returns the generated key, or zero
// when the table generated none.
func (b *Builder) Insert(ctx context.Context) (int64, error) {
	res, err := b.exec(ctx, "insert")
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &StatementError{Op: "insert", SQL: b.SQL(), Err: err}
	}
	return id, nil
}

// Update executes the statement and returns the number of affected rows.
func (b *Builder) Update(ctx context.Context) (int64, error) {
	return b.write(ctx, "update")
}

// Delete executes the statement and returns the number of affected rows.
func (b *Builder) Delete(ctx context.Context) (int64, error) {
	return b.write(ctx, "delete")
}

func (b *Builder) write(ctx context.Context, op string) (int64, error) {
	res, err := b.exec(ctx, op)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &StatementError{Op: op, SQL: b.SQL(), Err: err}
	}
	return n, nil
}

// SelectRows runs the query and returns every row. The slice is empty, not
// nil, when nothing matched.
func (b *Builder) SelectRows(ctx context.Context) ([]schema.Row, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.db.query(ctx, "select", b.SQL(), b.params)
}

// SelectRow returns the first row, or nil when nothing matched.
func (b *Builder) SelectRow(ctx context.Context) (*schema.Row, error) {
	rows, err := b.SelectRows(ctx)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// first returns the first column of the first row. ok is false when there
// is no row, the row is empty or the value is NULL.
func (b *Builder) first(ctx context.Context) (v any, ok bool, err error) {
	row, err := b.SelectRow(ctx)
	if err != nil || row == nil {
		return nil, false, err
	}
	v, ok = row.First()
	return v, ok && v != nil, nil
}

func (b *Builder) SelectLong(ctx context.Context) (sql.NullInt64, error) {
	v, ok, err := b.first(ctx)
	if err != nil || !ok {
		return sql.NullInt64{}, err
	}
	n, err := schema.ToInt64(v)
	if err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: n, Valid: true}, nil
}

func (b *Builder) SelectString(ctx context.Context) (sql.NullString, error) {
	v, ok, err := b.first(ctx)
	if err != nil || !ok {
		return sql.NullString{}, err
	}
	return sql.NullString{String: schema.ToString(v), Valid: true}, nil
}

func (b *Builder) SelectBoolean(ctx context.Context) (sql.NullBool, error) {
	v, ok, err := b.first(ctx)
	if err != nil || !ok {
		return sql.NullBool{}, err
	}
	t, err := schema.ToBool(v)
	if err != nil {
		return sql.NullBool{}, err
	}
	return sql.NullBool{Bool: t, Valid: true}, nil
}

// SelectDatetime accepts time.Time values and text in
// schema.LocalDateTimeLayout, read in the configured time zone.
func (b *Builder) SelectDatetime(ctx context.Context) (sql.NullTime, error) {
	v, ok, err := b.first(ctx)
	if err != nil || !ok {
		return sql.NullTime{}, err
	}
	t, err := schema.ToTime(v, b.db.loc)
	if err != nil {
		return sql.NullTime{}, err
	}
	return sql.NullTime{Time: t, Valid: true}, nil
}

// SelectLongs returns the first column of every row as int64. Empty rows
// and NULL values are skipped.
func (b *Builder) SelectLongs(ctx context.Context) ([]int64, error) {
	rows, err := b.SelectRows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(rows))
	for _, row := range rows {
		v, ok := row.First()
		if !ok || v == nil {
			continue
		}
		n, err := schema.ToInt64(v)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
