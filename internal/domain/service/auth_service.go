package service

import (
	"context"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
	"github.com/jrjohn/arcana-commerce-go/internal/dto/request"
)

// Session is a freshly minted token and the user it was issued to.
type Session struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

// AuthService defines the interface for account authentication
type AuthService interface {
	// Signup creates a user with the user role and opens a session.
	Signup(ctx context.Context, req *request.SignupRequest) (*Session, error)

	// Login checks the credentials and opens a session.
	Login(ctx context.Context, req *request.LoginRequest) (*Session, error)

	// ChangePassword replaces the password of user after checking the
	// current one. Sessions issued before the change stop working.
	ChangePassword(ctx context.Context, user *entity.User, req *request.ChangePasswordRequest) (*Session, error)
}

// Match reports which reset secrets matched.
type Match struct {
	OTP   bool `json:"otp"`
	Token bool `json:"token"`
}

// Verification is the outcome of checking a reset request.
type Verification struct {
	Match      Match `json:"match"`
	IsVerified bool  `json:"isVerified"`
}

// PasswordResetService defines the forgot-password flow.
type PasswordResetService interface {
	// Issue stores a reset request for the account with email, superseding
	// any earlier one, and mails the code. It returns the request id.
	Issue(ctx context.Context, req *request.ForgotPasswordRequest, client entity.ClientFingerprint) (string, error)

	// Verify checks the code or link token of a reset request made from client.
	Verify(ctx context.Context, req *request.VerifyResetPasswordRequest, client entity.ClientFingerprint) (*Verification, error)

	// Reset verifies the request, sets the new password, consumes the
	// request and opens a session.
	Reset(ctx context.Context, req *request.ResetPasswordRequest, client entity.ClientFingerprint) (*Session, error)
}
