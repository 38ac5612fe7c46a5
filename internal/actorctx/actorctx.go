// Package actorctx carries the authenticated actor through a request's
// context.Context. The auth middleware writes it once; handlers, stores and
// the request logger read it. Nothing else should smuggle identity around.
package actorctx

import "context"

type ctxKey struct{}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKey{}).(string)

	return v, ok && v != ""
}
