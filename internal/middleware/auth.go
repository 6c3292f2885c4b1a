package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
	"github.com/jrjohn/arcana-commerce-go/internal/observability"
	"github.com/jrjohn/arcana-commerce-go/internal/security"
	apperrors "github.com/jrjohn/arcana-commerce-go/pkg/errors"
)

// Guard failure messages
const (
	MsgMustBeUnauthenticated = "must be unauthenticated"
	MsgNoToken               = "no token provided"
	MsgInvalidToken          = "invalid authentication token format"
	MsgExpiredToken          = "token has expired"
	MsgUserGone              = "user no longer exists"
	MsgPasswordChanged       = "password has been changed, please log in again"
	MsgInsufficientRole      = "insufficient permissions"
)

// AuthMiddleware guards routes with the session token
type AuthMiddleware struct {
	securityService *security.SecurityService
	users           dao.UserDAO
	logger          *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance
func NewAuthMiddleware(securityService *security.SecurityService, users dao.UserDAO, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		securityService: securityService,
		users:           users,
		logger:          logger,
	}
}

// Unauthenticated rejects requests that already carry a session token.
func (m *AuthMiddleware) Unauthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.securityService.TokenFromRequest(c) != "" {
			m.reject(c, apperrors.Unauthorized(MsgMustBeUnauthenticated))
			return
		}
		c.Next()
	}
}

// Authenticate validates the session token, loads the user and checks its
// role against roles. No roles admits every signed in user.
func (m *AuthMiddleware) Authenticate(roles ...entity.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.securityService.TokenFromRequest(c)
		if token == "" {
			m.reject(c, apperrors.Unauthorized(MsgNoToken))
			return
		}

		claims, err := m.securityService.JWTProvider().ValidateToken(token)
		if err != nil {
			if errors.Is(err, security.ErrExpiredToken) {
				m.reject(c, apperrors.Unauthorized(MsgExpiredToken))
			} else {
				m.reject(c, apperrors.Unauthorized(MsgInvalidToken))
			}
			return
		}

		user, err := m.users.FindByID(c.Request.Context(), claims.UserID())
		if err != nil {
			m.logger.Error("Failed to load authenticated user",
				zap.String("user_id", claims.UserID()),
				zap.Error(err),
			)
			m.reject(c, err)
			return
		}
		if user == nil {
			m.reject(c, apperrors.Unauthorized(MsgUserGone))
			return
		}

		if user.PasswordChangedSince(claims.IssuedAtTime()) {
			m.reject(c, apperrors.Unauthorized(MsgPasswordChanged))
			return
		}

		if !user.HasRole(roles...) {
			m.reject(c, apperrors.Forbidden(MsgInsufficientRole))
			return
		}

		m.securityService.SetCurrentClaims(c, claims)
		m.securityService.SetCurrentUser(c, user)
		observability.AddSpanAttributes(c.Request.Context(), observability.AttrUserID.String(user.ID))

		c.Next()
	}
}

// Staff admits admins and managers.
func (m *AuthMiddleware) Staff() gin.HandlerFunc {
	return m.Authenticate(entity.Staff...)
}

func (m *AuthMiddleware) reject(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
