package impl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/service"
	"github.com/jrjohn/arcana-commerce-go/internal/dto/request"
	"github.com/jrjohn/arcana-commerce-go/internal/security"
	apperrors "github.com/jrjohn/arcana-commerce-go/pkg/errors"
)

// authService implements service.AuthService
type authService struct {
	users          dao.UserDAO
	jwtProvider    *security.JWTProvider
	passwordHasher *security.PasswordHasher
	now            func() time.Time
}

// NewAuthService creates a new AuthService instance
func NewAuthService(
	users dao.UserDAO,
	jwtProvider *security.JWTProvider,
	passwordHasher *security.PasswordHasher,
) service.AuthService {
	return &authService{
		users:          users,
		jwtProvider:    jwtProvider,
		passwordHasher: passwordHasher,
		now:            time.Now,
	}
}

func (s *authService) Signup(ctx context.Context, req *request.SignupRequest) (*service.Session, error) {
	hashedPassword, err := s.passwordHasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	user := &entity.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: hashedPassword,
		Phone:    req.Phone,
		Role:     entity.RoleUser,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, dao.ErrDuplicateKey) {
			return nil, apperrors.Conflict(fmt.Sprintf("user %s already exists", email)).WithError(err)
		}
		return nil, err
	}

	return newSession(s.jwtProvider, user)
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*service.Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || !s.passwordHasher.Verify(req.Password, user.Password) {
		return nil, service.ErrInvalidCredentials
	}

	return newSession(s.jwtProvider, user)
}

func (s *authService) ChangePassword(ctx context.Context, user *entity.User, req *request.ChangePasswordRequest) (*service.Session, error) {
	if !s.passwordHasher.Verify(req.CurrentPassword, user.Password) {
		return nil, apperrors.Validation(map[string]string{"currentPassword": "current password is incorrect"})
	}

	hashedPassword, err := s.passwordHasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	updated, err := s.users.UpdatePassword(ctx, user.ID, hashedPassword, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, service.ErrUserNotFound
	}

	return newSession(s.jwtProvider, updated)
}

func newSession(provider *security.JWTProvider, user *entity.User) (*service.Session, error) {
	token, err := provider.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &service.Session{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
