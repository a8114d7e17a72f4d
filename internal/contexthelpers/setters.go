package contexthelpers

import (
	"context"
	"net/http"
)

func SelectProfileContext(r *http.Request, profileID int64) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, HasProfileContextKey, true)
	ctx = context.WithValue(ctx, CurrentProfileIDContextKey, profileID)
	return r.WithContext(ctx)
}

func SetCurrentPath(r *http.Request, currentPath string) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, CurrentPathContextKey, currentPath)
	return r.WithContext(ctx)
}
