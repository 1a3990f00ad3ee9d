package http

import (
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/library"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Library  *library.Service
	Database *database.Database

	// Authentication. A nil SessionManager disables cookie sessions, a nil
	// Tokens disables bearer tokens.
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	Tokens         *auth.TokenIssuer
	RateLimiter    *auth.RateLimiter

	// CSRF protection is enabled when the secret is non-empty.
	CSRFSecret    []byte
	SecureCookies bool

	// Application info
	Version string
}
