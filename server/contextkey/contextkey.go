// Package contextkey defines the request-context keys the auth middleware
// uses to hand the authenticated user and session to the handlers.
package contextkey

type key int

const (
	// UserKey holds the authenticated *models.User.
	UserKey key = iota
	// SessionKey holds the *models.Session the token was issued for.
	SessionKey
)
