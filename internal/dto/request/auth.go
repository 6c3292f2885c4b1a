package request

// SignupRequest represents a user registration request
type SignupRequest struct {
	Name            string `json:"name" binding:"required,min=2,max=128"`
	Email           string `json:"email" binding:"required,email,max=254"`
	Password        string `json:"password" binding:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
	Phone           string `json:"phone,omitempty" binding:"omitempty,phone"`
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest represents a password change of the logged in user
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	Password        string `json:"password" binding:"required,strongpassword,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

// ForgotPasswordRequest starts a password reset. ForwardTo may also be sent
// as a query parameter.
type ForgotPasswordRequest struct {
	Email     string `json:"email" binding:"required,email"`
	ForwardTo string `json:"forwardTo,omitempty" binding:"omitempty,url"`
}

// VerifyResetPasswordRequest proves ownership of a reset request with the
// emailed code or the link token. Token may also be sent as a query parameter.
type VerifyResetPasswordRequest struct {
	RequestID string `json:"requestId" binding:"required,len=32,hexadecimal"`
	OTP       string `json:"otp,omitempty" binding:"omitempty,len=6,numeric"`
	Token     string `json:"token,omitempty" binding:"omitempty,hexadecimal"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	VerifyResetPasswordRequest
	Password        string `json:"password" binding:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}
