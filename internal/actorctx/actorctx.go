package actorctx

import "context"

type ctxKey string

const (
	keyRequestID ctxKey = "request_id"
	keyActor     ctxKey = "actor"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}

// WithActor records the authenticated admin behind a request.
func WithActor(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, keyActor, subject)
}

func ActorFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyActor).(string)

	return v, ok && v != ""
}
