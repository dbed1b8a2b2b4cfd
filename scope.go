package simpledb

import "context"

type scopeKey struct{}

// DefaultScope is used by contexts that carry no scope.
const DefaultScope = ""

// WithScope returns a copy of ctx that runs in scope id.
func WithScope(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, scopeKey{}, id)
}

// ScopeOf returns the scope carried by ctx.
func ScopeOf(ctx context.Context) string {
	if id, ok := ctx.Value(scopeKey{}).(string); ok {
		return id
	}
	return DefaultScope
}
