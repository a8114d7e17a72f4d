package contexthelpers

type contextKey string

const HasProfileContextKey = contextKey("hasProfile")
const CurrentProfileIDContextKey = contextKey("currentProfileID")
const CurrentPathContextKey = contextKey("currentPath")
