// Package requestid carries per-request identifiers through context: the
// request ID assigned at the edge and, once the JWT is verified, the
// acting account.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}

type actorKey struct{}

// New generates a random UUID v4 request ID.
func New() string {
	return uuid.NewString()
}

// WithRequestID returns a copy of ctx with the request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// FromContext extracts the request ID from ctx. Returns "" if absent.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithActor returns a copy of ctx tagged with the authenticated account ID.
func WithActor(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, actorKey{}, accountID)
}

// ActorFromContext extracts the authenticated account ID. Returns "" for
// unauthenticated requests, e.g. the candidate respond flow.
func ActorFromContext(ctx context.Context) string {
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}
