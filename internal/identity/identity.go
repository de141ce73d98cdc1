// Package identity carries the acting user through context. The identity
// provider itself (sessions, tokens) lives outside this core; the engine only
// records who acted, falling back to a fixed sentinel when no session exists.
package identity

import "context"

// SystemActor is recorded on journal entries when no session is present.
const SystemActor = "system"

type actorKey struct{}

// WithActor returns a context carrying the acting user id.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// Actor returns the acting user id from ctx, or SystemActor.
func Actor(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return SystemActor
}
