package impl

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/service"
	"github.com/jrjohn/arcana-commerce-go/internal/dto/request"
	"github.com/jrjohn/arcana-commerce-go/internal/mail"
	"github.com/jrjohn/arcana-commerce-go/internal/security"
	apperrors "github.com/jrjohn/arcana-commerce-go/pkg/errors"
)

// passwordResetService implements service.PasswordResetService
type passwordResetService struct {
	users          dao.UserDAO
	tokens         dao.ResetTokenDAO
	jwtProvider    *security.JWTProvider
	passwordHasher *security.PasswordHasher
	mailer         mail.Dispatcher
	renderer       *mail.Renderer
	ttl            time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

// NewPasswordResetService creates a new PasswordResetService instance
func NewPasswordResetService(
	users dao.UserDAO,
	tokens dao.ResetTokenDAO,
	jwtProvider *security.JWTProvider,
	passwordHasher *security.PasswordHasher,
	mailer mail.Dispatcher,
	renderer *mail.Renderer,
	ttl time.Duration,
	logger *zap.Logger,
) service.PasswordResetService {
	return &passwordResetService{
		users:          users,
		tokens:         tokens,
		jwtProvider:    jwtProvider,
		passwordHasher: passwordHasher,
		mailer:         mailer,
		renderer:       renderer,
		ttl:            ttl,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *passwordResetService) Issue(ctx context.Context, req *request.ForgotPasswordRequest, client entity.ClientFingerprint) (string, error) {
	email := normalizeEmail(req.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		msg := fmt.Sprintf("%s does not exist", email)
		return "", apperrors.ErrNotFound.WithMessage(msg).WithDetails(map[string]string{"email": msg})
	}

	plainToken, err := security.RandomHex(security.ResetTokenBytes)
	if err != nil {
		return "", err
	}
	otp, err := security.RandomDigits(security.OTPDigits)
	if err != nil {
		return "", err
	}
	tokenHash, err := s.passwordHasher.Hash(plainToken)
	if err != nil {
		return "", err
	}
	otpHash, err := s.passwordHasher.Hash(otp)
	if err != nil {
		return "", err
	}

	token := &entity.ResetToken{
		UserID:    user.ID,
		Email:     user.Email,
		RequestID: security.NewRequestID(),
		TokenHash: tokenHash,
		OTPHash:   otpHash,
		Client:    client,
		CreatedAt: s.now().UTC(),
	}
	if err := s.tokens.Upsert(ctx, token); err != nil {
		return "", err
	}

	s.sendResetEmail(ctx, user, client, otp, resetLink(req.ForwardTo, plainToken))

	return token.RequestID, nil
}

func (s *passwordResetService) Verify(ctx context.Context, req *request.VerifyResetPasswordRequest, client entity.ClientFingerprint) (*service.Verification, error) {
	v, _, err := s.verify(ctx, req, client)
	return v, err
}

func (s *passwordResetService) Reset(ctx context.Context, req *request.ResetPasswordRequest, client entity.ClientFingerprint) (*service.Session, error) {
	_, token, err := s.verify(ctx, &req.VerifyResetPasswordRequest, client)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := s.passwordHasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.UpdatePassword(ctx, token.UserID, hashedPassword, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, service.ErrResetUserGone
	}

	if err := s.tokens.Delete(ctx, token.ID); err != nil {
		s.logger.Warn("Failed to delete consumed reset token",
			zap.String("user_id", token.UserID),
			zap.Error(err),
		)
	}

	return newSession(s.jwtProvider, user)
}

func (s *passwordResetService) verify(ctx context.Context, req *request.VerifyResetPasswordRequest, client entity.ClientFingerprint) (*service.Verification, *entity.ResetToken, error) {
	token, err := s.tokens.FindByRequest(ctx, req.RequestID, client)
	if err != nil {
		return nil, nil, err
	}
	if token == nil || token.IsExpired(s.ttl, s.now()) {
		return nil, nil, service.ErrResetNotFound
	}

	match := service.Match{
		OTP:   s.passwordHasher.Verify(req.OTP, token.OTPHash),
		Token: s.passwordHasher.Verify(req.Token, token.TokenHash),
	}
	v := &service.Verification{Match: match, IsVerified: match.OTP || match.Token}
	if !v.IsVerified {
		return nil, nil, apperrors.ErrValidation.
			WithMessage("invalid reset password request metadata").
			WithDetails(map[string]any{"message": "invalid reset password request metadata", "match": match})
	}
	return v, token, nil
}

func (s *passwordResetService) sendResetEmail(ctx context.Context, user *entity.User, client entity.ClientFingerprint, otp, link string) {
	msg, err := s.renderer.ResetPassword(user.Email, mail.ResetPasswordData{
		Name:      user.Name,
		OTP:       otp,
		Link:      link,
		Device:    client.Agent,
		IP:        client.IP,
		ExpiresIn: s.ttl,
	})
	if err != nil {
		s.logger.Error("Failed to render reset password email", zap.Error(err))
		return
	}
	if err := s.mailer.Dispatch(ctx, msg); err != nil {
		s.logger.Error("Failed to dispatch reset password email",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}
}

// resetLink appends the link token to forwardTo. An empty or unparsable
// forwardTo yields no link.
func resetLink(forwardTo, token string) string {
	if forwardTo == "" {
		return ""
	}
	u, err := url.Parse(forwardTo)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
