package contexthelpers

import (
	"context"
)

func HasProfile(ctx context.Context) bool {
	hasProfile, ok := ctx.Value(HasProfileContextKey).(bool)
	if !ok {
		return false
	}

	return hasProfile
}

func CurrentProfileID(ctx context.Context) int64 {
	profileID, ok := ctx.Value(CurrentProfileIDContextKey).(int64)
	if !ok {
		return 0
	}

	return profileID
}

func CurrentPath(ctx context.Context) string {
	currentPath, ok := ctx.Value(CurrentPathContextKey).(string)
	if !ok {
		return ""
	}

	return currentPath
}
