package hook

import "context"

type actorKey struct{}

const AnonymousActor = "anonymous"

// カートの持ち主（user:1 / session:xxx）を ctx に載せる。監査ログ用。
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok && v != "" {
		return v
	}
	return AnonymousActor
}
