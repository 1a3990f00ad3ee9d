package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.Tokens))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.LoadAndSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	healthController := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", healthController.Status)

	api := router.Group("/api")

	authController := NewAuthController(cfg.Library, cfg.SessionManager, cfg.Tokens, cfg.RateLimiter)
	api.POST("/auth/register", authController.Register)
	api.POST("/auth/login", authController.Login)
	api.POST("/auth/token", authController.Token)
	api.POST("/auth/logout", authController.Logout)

	// Catalog reads are public
	booksController := NewBooksController(cfg.Library)
	api.GET("/books", booksController.List)
	api.GET("/books/:id", booksController.Get)
	api.GET("/books/:id/available", booksController.Available)

	// Everything below needs a caller. Rights are checked by the library service.
	protected := api.Group("")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	protected.GET("/auth/me", authController.Me)

	protected.POST("/books", booksController.Create)
	protected.PUT("/books/:id", booksController.Update)
	protected.DELETE("/books/:id", booksController.Delete)

	borrowsController := NewBorrowsController(cfg.Library)
	protected.POST("/borrows", borrowsController.Borrow)
	protected.GET("/borrows", borrowsController.All)
	protected.GET("/borrows/me", borrowsController.Mine)
	protected.POST("/borrows/:id/return", borrowsController.Return)
	protected.POST("/borrows/delays/sweep", borrowsController.SweepDelays)
	protected.GET("/user/due-reminders", borrowsController.Reminders)

	usersController := NewUsersController(cfg.Library)
	protected.GET("/users", usersController.List)
	protected.POST("/users", usersController.Create)
	protected.GET("/users/:id", usersController.Get)
	protected.PUT("/users/:id", usersController.Update)
	protected.DELETE("/users/:id", usersController.Delete)

	protected.GET("/roles", usersController.ListRoles)
	protected.GET("/roles/:id", usersController.GetRole)
	protected.POST("/roles/:id/rights/:right", usersController.GrantRight)
	protected.DELETE("/roles/:id/rights/:right", usersController.RevokeRight)
	protected.GET("/rights", usersController.ListRights)

	statisticsController := NewStatisticsController(cfg.Library)
	protected.GET("/statistics", statisticsController.Summary)

	auditController := NewAuditController(cfg.Library)
	protected.GET("/audit", auditController.List)

	return router
}
