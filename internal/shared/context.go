package shared

import "context"

type actorContextKey struct{}

// ContextWithActor stores the acting user id in context. The id is
// supplied by the identity service through the gateway; zero means
// anonymous (reads only).
func ContextWithActor(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actorID)
}

// ActorFromContext extracts the acting user id from context.
func ActorFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(actorContextKey{}).(int64)
	return id
}
