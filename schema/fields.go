package schema

import (
	"database/sql"
	"sort"
	"sync"
	"time"
)

// Model is implemented by record types that rows can be mapped onto. Bind
// registers a destination for every column the record understands; the
// column label must match the registered name exactly.
//
//	func (a *Article) Bind(r *schema.FieldRegistry) {
//		r.Int64("id", &a.ID)
//		r.String("title", &a.Title)
//		r.Time("createdDate", &a.CreatedDate)
//	}
type Model interface {
	Bind(r *FieldRegistry)
}

type setter func(v any) error

// FieldRegistry collects the column setters of one Model instance.
type FieldRegistry struct {
	loc     *time.Location
	setters map[string]setter
}

var registryPool = sync.Pool{
	New: func() any {
		return &FieldRegistry{setters: make(map[string]setter, 8)}
	},
}

func getRegistry(loc *time.Location) *FieldRegistry {
	r := registryPool.Get().(*FieldRegistry)
	r.loc = loc
	return r
}

func putRegistry(r *FieldRegistry) {
	clear(r.setters)
	r.loc = nil
	registryPool.Put(r)
}

func (r *FieldRegistry) Int64(column string, dst *int64) {
	r.setters[column] = func(v any) error {
		if v == nil {
			*dst = 0
			return nil
		}
		n, err := ToInt64(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func (r *FieldRegistry) Int(column string, dst *int) {
	r.setters[column] = func(v any) error {
		if v == nil {
			*dst = 0
			return nil
		}
		n, err := ToInt64(v)
		if err != nil {
			return err
		}
		*dst = int(n)
		return nil
	}
}

func (r *FieldRegistry) Float64(column string, dst *float64) {
	r.setters[column] = func(v any) error {
		if v == nil {
			*dst = 0
			return nil
		}
		f, err := ToFloat64(v)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func (r *FieldRegistry) String(column string, dst *string) {
	r.setters[column] = func(v any) error {
		if v == nil {
			*dst = ""
			return nil
		}
		*dst = ToString(v)
		return nil
	}
}

func (r *FieldRegistry) Bool(column string, dst *bool) {
	r.setters[column] = func(v any) error {
		if v == nil {
			*dst = false
			return nil
		}
		b, err := ToBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

// Time parses text values in the location the rows were read with.
func (r *FieldRegistry) Time(column string, dst *time.Time) {
	loc := r.loc
	r.setters[column] = func(v any) error {
		if v == nil {
			*dst = time.Time{}
			return nil
		}
		t, err := ToTime(v, loc)
		if err != nil {
			return err
		}
		*dst = t
		return nil
	}
}

func (r *FieldRegistry) Bytes(column string, dst *[]byte) {
	r.setters[column] = func(v any) error {
		switch b := v.(type) {
		case nil:
			*dst = nil
		case []byte:
			*dst = append([]byte(nil), b...)
		case string:
			*dst = []byte(b)
		default:
			return coercionError("bytes", v, nil)
		}
		return nil
	}
}

// Scanner hands the raw value to dst.Scan, which covers the sql.Null* types.
func (r *FieldRegistry) Scanner(column string, dst sql.Scanner) {
	r.setters[column] = func(v any) error {
		if err := dst.Scan(v); err != nil {
			return coercionError("scanner", v, err)
		}
		return nil
	}
}

func (r *FieldRegistry) Any(column string, dst *any) {
	r.setters[column] = func(v any) error {
		*dst = v
		return nil
	}
}

// Func registers an arbitrary setter for column.
func (r *FieldRegistry) Func(column string, fn func(v any) error) {
	r.setters[column] = fn
}

// Columns returns the registered column names, sorted.
func (r *FieldRegistry) Columns() []string {
	cols := make([]string, 0, len(r.setters))
	for col := range r.setters {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// Populate copies row into m. Columns m did not register are skipped.
func Populate(m Model, row Row, loc *time.Location) error {
	r := getRegistry(loc)
	defer putRegistry(r)

	m.Bind(r)
	if row.layout == nil {
		return nil
	}
	for i, col := range row.layout.labels {
		set, ok := r.setters[col]
		if !ok {
			continue
		}
		if err := set(row.values[i]); err != nil {
			return &FieldError{Column: col, Err: err}
		}
	}
	return nil
}

// FieldError names the column whose value could not be stored.
type FieldError struct {
	Column string
	Err    error
}

func (e *FieldError) Error() string {
	return "schema: column " + e.Column + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Columns lists the columns a Model registers.
func Columns(m Model) []string {
	r := getRegistry(nil)
	defer putRegistry(r)
	m.Bind(r)
	return r.Columns()
}
