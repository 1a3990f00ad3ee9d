package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyAuthType = "auth_type"
)

// AuthType indicates how the user was authenticated
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// Middleware resolves the caller identity of each request.
type Middleware struct {
	service  *Service
	sessions *SessionManager
	tokens   *TokenIssuer
}

// NewMiddleware creates a new authentication middleware. Either sessions or
// tokens may be nil.
func NewMiddleware(service *Service, sessions *SessionManager, tokens *TokenIssuer) *Middleware {
	return &Middleware{
		service:  service,
		sessions: sessions,
		tokens:   tokens,
	}
}

// Handler identifies the caller from a bearer token or the session cookie
// and stores the user id in the Gin context. Anonymous requests pass
// through; use RequireAuth to reject them. A failed user lookup aborts the
// request with 500 rather than treating the caller as anonymous.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := m.tryBearerAuth(c)
		if err == nil && userID != 0 {
			setIdentity(c, userID, AuthTypeBearer)
			c.Next()
			return
		}
		if err == nil {
			userID, err = m.trySessionAuth(c)
		}
		if err != nil {
			log.Printf("Failed to resolve caller identity: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "internal server error",
				"code":  "internal",
			})
			return
		}
		if userID != 0 {
			setIdentity(c, userID, AuthTypeSession)
		} else {
			c.Set(ContextKeyAuthType, AuthTypeNone)
		}
		c.Next()
	}
}

// RequireAuth rejects requests without an authenticated user.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": ErrAuthRequired.Message,
				"code":  ErrAuthRequired.Code,
			})
			return
		}
		c.Next()
	}
}

func (m *Middleware) tryBearerAuth(c *gin.Context) (uint, error) {
	if m.tokens == nil {
		return 0, nil
	}
	token := BearerToken(c.Request)
	if token == "" {
		return 0, nil
	}
	userID, err := m.tokens.Parse(token)
	if err != nil {
		return 0, nil
	}
	return m.liveUser(userID)
}

func (m *Middleware) trySessionAuth(c *gin.Context) (uint, error) {
	if m.sessions == nil {
		return 0, nil
	}
	return m.liveUser(m.sessions.GetUserID(c.Request))
}

func (m *Middleware) liveUser(userID uint) (uint, error) {
	exists, err := m.service.UserExists(userID)
	if err != nil || !exists {
		return 0, err
	}
	return userID, nil
}

func setIdentity(c *gin.Context, userID uint, authType AuthType) {
	c.Set(ContextKeyUserID, userID)
	c.Set(ContextKeyAuthType, authType)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 if the request is anonymous.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}
