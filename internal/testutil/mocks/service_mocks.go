package mocks

import (
	"context"
	"sync"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/service"
	"github.com/jrjohn/arcana-commerce-go/internal/dto/request"
	"github.com/jrjohn/arcana-commerce-go/internal/mail"
)

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	SignupFunc         func(ctx context.Context, req *request.SignupRequest) (*service.Session, error)
	LoginFunc          func(ctx context.Context, req *request.LoginRequest) (*service.Session, error)
	ChangePasswordFunc func(ctx context.Context, user *entity.User, req *request.ChangePasswordRequest) (*service.Session, error)
}

var _ service.AuthService = (*MockAuthService)(nil)

func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

func (m *MockAuthService) Signup(ctx context.Context, req *request.SignupRequest) (*service.Session, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, req)
	}
	return &service.Session{
		Token: "mock-token",
		User:  &entity.User{ID: "000000000000000000000001", Name: req.Name, Email: req.Email, Role: entity.RoleUser},
	}, nil
}

func (m *MockAuthService) Login(ctx context.Context, req *request.LoginRequest) (*service.Session, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, req)
	}
	return &service.Session{
		Token: "mock-token",
		User:  &entity.User{ID: "000000000000000000000001", Email: req.Email, Role: entity.RoleUser},
	}, nil
}

func (m *MockAuthService) ChangePassword(ctx context.Context, user *entity.User, req *request.ChangePasswordRequest) (*service.Session, error) {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, user, req)
	}
	return &service.Session{Token: "mock-token", User: user}, nil
}

// MockPasswordResetService is a mock implementation of PasswordResetService
type MockPasswordResetService struct {
	IssueFunc  func(ctx context.Context, req *request.ForgotPasswordRequest, client entity.ClientFingerprint) (string, error)
	VerifyFunc func(ctx context.Context, req *request.VerifyResetPasswordRequest, client entity.ClientFingerprint) (*service.Verification, error)
	ResetFunc  func(ctx context.Context, req *request.ResetPasswordRequest, client entity.ClientFingerprint) (*service.Session, error)
}

var _ service.PasswordResetService = (*MockPasswordResetService)(nil)

func (m *MockPasswordResetService) Issue(ctx context.Context, req *request.ForgotPasswordRequest, client entity.ClientFingerprint) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, req, client)
	}
	return "0123456789abcdef0123456789abcdef", nil
}

func (m *MockPasswordResetService) Verify(ctx context.Context, req *request.VerifyResetPasswordRequest, client entity.ClientFingerprint) (*service.Verification, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, req, client)
	}
	return &service.Verification{Match: service.Match{OTP: true}, IsVerified: true}, nil
}

func (m *MockPasswordResetService) Reset(ctx context.Context, req *request.ResetPasswordRequest, client entity.ClientFingerprint) (*service.Session, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, req, client)
	}
	return &service.Session{Token: "mock-token", User: &entity.User{ID: "000000000000000000000001"}}, nil
}

// MockMailer records dispatched messages.
type MockMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	Err      error
}

var _ mail.Dispatcher = (*MockMailer)(nil)

func (m *MockMailer) Dispatch(ctx context.Context, msg mail.Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns the dispatched messages.
func (m *MockMailer) Messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}
