package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
)

const (
	// ContextKeyUser is the key for storing user in context
	ContextKeyUser = "current_user"
	// ContextKeyClaims is the key for storing claims in context
	ContextKeyClaims = "current_claims"

	bearerPrefix = "Bearer "
)

// SecurityService provides session helpers shared by middleware and controllers
type SecurityService struct {
	jwtProvider *JWTProvider
	cookieName  string
	secure      bool
}

// NewSecurityService creates a new SecurityService instance
func NewSecurityService(jwtProvider *JWTProvider, cfg *config.Config) *SecurityService {
	name := cfg.JWT.CookieName
	if name == "" {
		name = "jwt"
	}
	return &SecurityService{
		jwtProvider: jwtProvider,
		cookieName:  name,
		secure:      cfg.App.IsProduction(),
	}
}

// JWTProvider returns the token provider.
func (s *SecurityService) JWTProvider() *JWTProvider {
	return s.jwtProvider
}

// TokenFromRequest reads the session token from the cookie, falling back to
// the Authorization header. The Bearer prefix is stripped.
func (s *SecurityService) TokenFromRequest(c *gin.Context) string {
	raw, err := c.Cookie(s.cookieName)
	if err != nil || raw == "" {
		raw = c.GetHeader("Authorization")
	}
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, bearerPrefix) {
		raw = strings.TrimSpace(raw[len(bearerPrefix):])
	}
	return raw
}

// SetSessionCookie stores token in the session cookie.
func (s *SecurityService) SetSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, bearerPrefix+token, int(s.jwtProvider.Duration().Seconds()), "/", "", s.secure, true)
}

// ClearSessionCookie expires the session cookie.
func (s *SecurityService) ClearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, "", -1, "/", "", s.secure, true)
}

// GetCurrentUser retrieves the current user from the context
func (s *SecurityService) GetCurrentUser(c *gin.Context) *entity.User {
	user, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil
	}
	if u, ok := user.(*entity.User); ok {
		return u
	}
	return nil
}

// GetCurrentUserID retrieves the current user's ID from the context
func (s *SecurityService) GetCurrentUserID(c *gin.Context) string {
	if claims := s.GetCurrentClaims(c); claims != nil {
		return claims.UserID()
	}
	return ""
}

// GetCurrentClaims retrieves the current JWT claims from the context
func (s *SecurityService) GetCurrentClaims(c *gin.Context) *UserClaims {
	claims, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	if cl, ok := claims.(*UserClaims); ok {
		return cl
	}
	return nil
}

// SetCurrentUser sets the current user in the context
func (s *SecurityService) SetCurrentUser(c *gin.Context, user *entity.User) {
	c.Set(ContextKeyUser, user)
}

// SetCurrentClaims sets the current claims in the context
func (s *SecurityService) SetCurrentClaims(c *gin.Context, claims *UserClaims) {
	c.Set(ContextKeyClaims, claims)
}

// IsAuthenticated checks if the current request is authenticated
func (s *SecurityService) IsAuthenticated(c *gin.Context) bool {
	return s.GetCurrentUser(c) != nil
}

// HasRole checks if the current user holds one of roles
func (s *SecurityService) HasRole(c *gin.Context, roles ...entity.UserRole) bool {
	user := s.GetCurrentUser(c)
	return user != nil && user.HasRole(roles...)
}

// IsStaff checks if the current user manages the catalog
func (s *SecurityService) IsStaff(c *gin.Context) bool {
	return s.HasRole(c, entity.Staff...)
}
