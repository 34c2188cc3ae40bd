package gateway

import "context"

type idempotencyKeyCtx struct{}

// WithIdempotencyKey makes CreatePayment send key as X-Idempotency-Key, so a
// client retry with the same key is not charged twice.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKeyCtx{}, key)
}

func idempotencyKey(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(idempotencyKeyCtx{}).(string)
	return key, ok && key != ""
}
