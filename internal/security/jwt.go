package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
)

// UserClaims represents the JWT claims for a session. The subject is the
// user id in hex.
type UserClaims struct {
	Role entity.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the id of the user the token was issued to.
func (c *UserClaims) UserID() string {
	return c.Subject
}

// IssuedAtTime returns the iat claim, or the zero time when absent.
func (c *UserClaims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// JWTProvider handles JWT token generation and validation
type JWTProvider struct {
	secret   []byte
	duration time.Duration
	issuer   string
	audience string
}

// NewJWTProvider creates a new JWTProvider instance
func NewJWTProvider(cfg *config.JWTConfig) *JWTProvider {
	return &JWTProvider{
		secret:   []byte(cfg.Secret),
		duration: cfg.Duration,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// GenerateToken mints a session token for user.
func (p *JWTProvider) GenerateToken(user *entity.User) (string, error) {
	now := time.Now()
	claims := UserClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.duration)),
		},
	}
	if p.audience != "" {
		claims.Audience = jwt.ClaimStrings{p.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// ValidateToken validates a session token and returns its claims.
func (p *JWTProvider) ValidateToken(tokenString string) (*UserClaims, error) {
	var opts []jwt.ParserOption
	if p.audience != "" {
		opts = append(opts, jwt.WithAudience(p.audience))
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return p.secret, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Duration returns how long a session token lives.
func (p *JWTProvider) Duration() time.Duration {
	return p.duration
}
