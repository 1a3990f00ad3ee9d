// Package auth provides authentication for the application: password
// hashing, login, server-side session cookies, bearer tokens for API
// clients, CSRF protection and login rate limiting.
//
// Authorization (which rights a user holds) is resolved by the library
// service on every call; this package only establishes who the caller is.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>   # CSRF key, auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h            # Absolute session lifetime
//	AUTH_SESSION_IDLE_TIMEOUT=1h         # Inactivity timeout
//	AUTH_SESSION_STORE=database          # "database" or "redis"
//	AUTH_REDIS_ADDR=localhost:6379       # Used by the redis store
//	AUTH_TOKEN_SECRET=<random>           # Enables bearer tokens when set
//	AUTH_BCRYPT_COST=12                  # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true             # HTTPS-only cookies
//
// # Usage
//
//	authService := auth.NewService(accountsRepo, cfg.Auth)
//	sessions := auth.NewSessionManager(store, cfg.Auth)
//	middleware := auth.NewMiddleware(authService, sessions, tokens)
//	router.Use(sessions.SessionLoadSave(), middleware.Handler())
//
// Extract the caller in handlers:
//
//	userID := auth.GetUserID(c) // 0 when anonymous
package auth
