package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/library"
)

// AuthController handles registration, login and logout.
type AuthController struct {
	library     *library.Service
	sessions    *auth.SessionManager
	tokens      *auth.TokenIssuer
	rateLimiter *auth.RateLimiter
}

func NewAuthController(svc *library.Service, sessions *auth.SessionManager, tokens *auth.TokenIssuer, limiter *auth.RateLimiter) *AuthController {
	return &AuthController{
		library:     svc,
		sessions:    sessions,
		tokens:      tokens,
		rateLimiter: limiter,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresAt string `json:"expires_at"`
}

// Register creates an account and opens a session for it.
// POST /api/auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var req library.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := ac.library.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "register")
		return
	}

	if ac.sessions != nil {
		if err := ac.sessions.CreateSession(c.Request, &entities.User{ID: user.ID, Email: user.Email}); err != nil {
			respondInternalError(c, err, "create session")
			return
		}
	}
	respondCreated(c, user)
}

// Login checks credentials and opens a session.
// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	identity, ok := ac.authenticate(c)
	if !ok {
		return
	}
	if ac.sessions == nil {
		respondInternalError(c, errors.New("session manager not configured"), "login")
		return
	}

	me, err := ac.library.CurrentUser(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err, "login")
		return
	}
	if err := ac.sessions.CreateSession(c.Request, &entities.User{ID: me.ID, Email: me.Email}); err != nil {
		respondInternalError(c, err, "create session")
		return
	}
	c.JSON(http.StatusOK, me)
}

// Token exchanges credentials for a bearer token.
// POST /api/auth/token
func (ac *AuthController) Token(c *gin.Context) {
	if ac.tokens == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "bearer tokens are disabled", Code: "tokens_disabled"})
		return
	}
	identity, ok := ac.authenticate(c)
	if !ok {
		return
	}

	token, expiresAt, err := ac.tokens.Issue(identity.UserID)
	if err != nil {
		respondInternalError(c, err, "issue token")
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt.UTC().Format("2006-01-02T15:04:05Z"),
	})
}

// authenticate runs the shared credential check with rate limiting. It
// writes the error response itself.
func (ac *AuthController) authenticate(c *gin.Context) (*library.SessionIdentity, bool) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return nil, false
	}

	ip := c.ClientIP()
	if ac.rateLimiter != nil {
		if allowed, retryAfter := ac.rateLimiter.Allow(ip, req.Email); !allowed {
			c.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
			c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "too many login attempts",
				Code:  "rate_limited",
			})
			return nil, false
		}
	}

	identity, err := ac.library.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if ac.rateLimiter != nil && errors.Is(err, auth.ErrInvalidCredentials) {
			if locked := ac.rateLimiter.RecordFailure(ip, req.Email); locked {
				log.Printf("Login locked out for %s from %s", auth.NormalizeEmail(req.Email), ip)
			}
		}
		respondError(c, err, "authenticate")
		return nil, false
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(ip, req.Email)
	}
	return identity, true
}

// Logout destroys the caller's session.
// POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	var end func() error
	if ac.sessions != nil {
		end = func() error { return ac.sessions.DestroySession(c.Request) }
	}
	if err := ac.library.Logout(c.Request.Context(), identity(c), end); err != nil {
		respondInternalError(c, err, "logout")
		return
	}
	respondSuccess(c, "logged out")
}

// Me returns the caller's profile and rights.
// GET /api/auth/me
func (ac *AuthController) Me(c *gin.Context) {
	me, err := ac.library.CurrentUser(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err, "current user")
		return
	}
	c.JSON(http.StatusOK, me)
}
