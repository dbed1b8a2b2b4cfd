// Package simpledb is a small relational database access layer.
//
// A SimpleDb keeps at most one connection per scope. A scope is a string
// carried by a context.Context; code that runs concurrently uses separate
// scopes. Transactions are controlled per scope with Begin, Commit and
// Rollback.
//
// Statements are built with a Builder:
//
//	ctx := simpledb.WithScope(context.Background(), "req-1")
//	rows, err := db.SQL().
//		Append("SELECT id, title FROM article WHERE").
//		AppendIn("id IN (?)", ids).
//		SelectRows(ctx)
//
// Results come back as schema.Row values, as scalars, or as records that
// implement schema.Model (see SelectRowsAs).
package simpledb
