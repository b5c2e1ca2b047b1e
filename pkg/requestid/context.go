package requestid

import "context"

type contextKey struct{}

// ContextKey is the key under which the request ID is stored in a context.
// Exposed so the logger can register a context extractor for it.
var ContextKey = contextKey{}

func WithContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKey, requestID)
}

func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, ok := ctx.Value(ContextKey).(string)
	if !ok {
		return ""
	}
	return requestID
}
