package shared

import (
	"context"
	"strings"
)

type actorContextKey struct{}

// SystemActor is recorded when no operator identifies the request.
const SystemActor = "system"

// ContextWithActor stores the operator name in context.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ctx
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the operator name from context.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorContextKey{}).(string)
	if actor == "" {
		return SystemActor
	}
	return actor
}
