package simpledb

import (
	"context"

	"github.com/Konsultn-Engineering/simpledb/schema"
)

// SelectRowsAs runs b and maps every row onto a new T. Columns T does not
// bind are ignored.
//
//	articles, err := simpledb.SelectRowsAs[Article](ctx, db.SQL().Append("SELECT * FROM article"))
func SelectRowsAs[T any, P interface {
	*T
	schema.Model
}](ctx context.Context, b *Builder) ([]T, error) {
	rows, err := b.SelectRows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(rows))
	for i, row := range rows {
		if err := schema.Populate(P(&out[i]), row, b.db.loc); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SelectRowAs maps the first row onto a new T, or returns nil when nothing
// matched.
func SelectRowAs[T any, P interface {
	*T
	schema.Model
}](ctx context.Context, b *Builder) (*T, error) {
	row, err := b.SelectRow(ctx)
	if err != nil || row == nil {
		return nil, err
	}
	var v T
	if err := schema.Populate(P(&v), *row, b.db.loc); err != nil {
		return nil, err
	}
	return &v, nil
}
