// Package trace carries the per-request trace id through context.Context.
package trace

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Header is the HTTP header the trace id is read from and echoed to.
const Header = "X-Trace-Id"

type traceIDKey struct{}

// WithID returns a copy of ctx carrying id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

// ID returns the trace id stored in ctx, or "" when there is none.
func ID(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Ensure returns ctx and its trace id, generating one if ctx has none.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := strings.TrimSpace(ID(ctx)); id != "" {
		return ctx, id
	}
	id := NewID()
	return WithID(ctx, id), id
}

// NewID generates a short trace id.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
