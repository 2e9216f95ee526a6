// Package requestctx carries request-scoped identifiers below the transport
// layer, so domain and platform code can tag logs without importing HTTP
// middleware.
package requestctx

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	actorKey
)

// Actor is the authenticated caller of a request.
type Actor struct {
	UserID    string
	CompanyID string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func GetActor(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}
