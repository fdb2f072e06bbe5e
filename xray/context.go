package xray

import "context"

type contextKey uint32

const entityKey contextKey = 1

// WithEntity derives a context carrying the given trace entity as the currently
// active one.  The parent context is never mutated, which is what guarantees that
// the caller's view of the active entity is restored once control returns to code
// holding the parent context.
func WithEntity(parent context.Context, e Entity) context.Context {
	if e == nil {
		return parent
	}

	return context.WithValue(parent, entityKey, e)
}

// GetEntity retrieves the trace entity associated with the context, if any.
func GetEntity(ctx context.Context) (Entity, bool) {
	e, ok := ctx.Value(entityKey).(Entity)
	return e, ok
}
