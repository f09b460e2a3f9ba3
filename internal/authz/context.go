package authz

import "context"

type actorContextKey struct{}

// WithContext stores the actor context for the current request.
func WithContext(ctx context.Context, actor Context) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// FromContext extracts the actor context. The second return value is
// false when no actor is attached (unauthenticated request).
func FromContext(ctx context.Context) (Context, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Context)
	return actor, ok
}
