package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/jrjohn/arcana-commerce-go/internal/crud"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/service"
	"github.com/jrjohn/arcana-commerce-go/internal/dto/request"
	"github.com/jrjohn/arcana-commerce-go/internal/dto/response"
	"github.com/jrjohn/arcana-commerce-go/internal/middleware"
	"github.com/jrjohn/arcana-commerce-go/internal/security"
	apperrors "github.com/jrjohn/arcana-commerce-go/pkg/errors"
)

// AuthController handles authentication endpoints
type AuthController struct {
	authService     service.AuthService
	resetService    service.PasswordResetService
	securityService *security.SecurityService
	guard           *middleware.AuthMiddleware
	resetLimiter    *middleware.RateLimiter
}

// NewAuthController creates a new AuthController instance
func NewAuthController(
	authService service.AuthService,
	resetService service.PasswordResetService,
	securityService *security.SecurityService,
	guard *middleware.AuthMiddleware,
	resetLimiter *middleware.RateLimiter,
) *AuthController {
	return &AuthController{
		authService:     authService,
		resetService:    resetService,
		securityService: securityService,
		guard:           guard,
		resetLimiter:    resetLimiter,
	}
}

// RegisterRoutes registers the auth routes
func (c *AuthController) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/signup", c.guard.Unauthenticated(), c.Signup)
		auth.POST("/login", c.guard.Unauthenticated(), c.Login)
		auth.GET("", c.guard.Authenticate(), c.Me)
		auth.POST("/logout", c.Logout)
		auth.PATCH("/change-password", c.guard.Authenticate(), c.ChangePassword)
	}

	reset := auth.Group("", c.guard.Unauthenticated(), c.resetLimiter.Middleware())
	{
		reset.POST("/forgot-password", c.ForgotPassword)
		reset.POST("/verify-reset-password", c.VerifyResetPassword)
		reset.POST("/reset-password", c.ResetPassword)
	}
}

// Signup handles account registration
// @Summary Register a new account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body request.SignupRequest true "Signup request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/v1/auth/signup [post]
func (c *AuthController) Signup(ctx *gin.Context) {
	var req request.SignupRequest
	if !crud.Bind(ctx, &req) {
		return
	}

	session, err := c.authService.Signup(ctx.Request.Context(), &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	c.securityService.SetSessionCookie(ctx, session.Token)
	response.Write(ctx, http.StatusCreated, response.Success(session))
}

// Login handles email and password login
// @Summary Login with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Login request"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/v1/auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req request.LoginRequest
	if !crud.Bind(ctx, &req) {
		return
	}

	session, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	c.securityService.SetSessionCookie(ctx, session.Token)
	response.Write(ctx, http.StatusOK, response.Success(session))
}

// Me returns the signed in user
// @Summary Get the current user
// @Tags Authentication
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/v1/auth [get]
func (c *AuthController) Me(ctx *gin.Context) {
	response.Write(ctx, http.StatusOK, response.Success(gin.H{
		"user": c.securityService.GetCurrentUser(ctx),
	}))
}

// Logout clears the session cookie
// @Summary Logout
// @Tags Authentication
// @Success 204
// @Router /api/v1/auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	c.securityService.ClearSessionCookie(ctx)
	response.Write(ctx, http.StatusNoContent, response.Success(nil))
}

// ChangePassword replaces the password of the signed in user and renews the session
// @Summary Change password
// @Tags Authentication
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.ChangePasswordRequest true "Change password request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /api/v1/auth/change-password [patch]
func (c *AuthController) ChangePassword(ctx *gin.Context) {
	var req request.ChangePasswordRequest
	if !crud.Bind(ctx, &req) {
		return
	}

	session, err := c.authService.ChangePassword(ctx.Request.Context(), c.securityService.GetCurrentUser(ctx), &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	c.securityService.SetSessionCookie(ctx, session.Token)
	response.Write(ctx, http.StatusOK, response.Success(session))
}

// ForgotPassword starts a password reset and mails the code
// @Summary Request a password reset
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body request.ForgotPasswordRequest true "Forgot password request"
// @Param forwardTo query string false "Link target for the emailed token"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /api/v1/auth/forgot-password [post]
func (c *AuthController) ForgotPassword(ctx *gin.Context) {
	var req request.ForgotPasswordRequest
	if !crud.Bind(ctx, &req) {
		return
	}
	if req.ForwardTo == "" && ctx.Query("forwardTo") != "" {
		req.ForwardTo = ctx.Query("forwardTo")
		if !validate(ctx, &req) {
			return
		}
	}

	requestID, err := c.resetService.Issue(ctx.Request.Context(), &req, security.Fingerprint(ctx))
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	response.Write(ctx, http.StatusOK, response.Success(gin.H{"requestId": requestID}))
}

// VerifyResetPassword checks the emailed code or link token
// @Summary Verify a password reset request
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body request.VerifyResetPasswordRequest true "Verify request"
// @Param token query string false "Link token"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /api/v1/auth/verify-reset-password [post]
func (c *AuthController) VerifyResetPassword(ctx *gin.Context) {
	var req request.VerifyResetPasswordRequest
	if !c.bindReset(ctx, &req, &req) {
		return
	}

	verification, err := c.resetService.Verify(ctx.Request.Context(), &req, security.Fingerprint(ctx))
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	response.Write(ctx, http.StatusOK, response.Success(verification))
}

// ResetPassword sets a new password through a verified reset request
// @Summary Reset the password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body request.ResetPasswordRequest true "Reset request"
// @Param token query string false "Link token"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /api/v1/auth/reset-password [post]
func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req request.ResetPasswordRequest
	if !c.bindReset(ctx, &req, &req.VerifyResetPasswordRequest) {
		return
	}

	session, err := c.resetService.Reset(ctx.Request.Context(), &req, security.Fingerprint(ctx))
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	c.securityService.SetSessionCookie(ctx, session.Token)
	response.Write(ctx, http.StatusOK, response.Success(session))
}

// bindReset binds body and falls back to the token query parameter.
func (c *AuthController) bindReset(ctx *gin.Context, body any, verify *request.VerifyResetPasswordRequest) bool {
	if !crud.Bind(ctx, body) {
		return false
	}
	if verify.Token == "" && ctx.Query("token") != "" {
		verify.Token = ctx.Query("token")
		return validate(ctx, body)
	}
	return true
}

// validate re-runs the binding rules after fields were filled in from the query.
func validate(ctx *gin.Context, obj any) bool {
	if err := binding.Validator.ValidateStruct(obj); err != nil {
		if fields := request.FieldErrors(err); len(fields) > 0 {
			_ = ctx.Error(apperrors.Validation(fields).WithError(err))
		} else {
			_ = ctx.Error(apperrors.BadRequest("invalid request").WithError(err))
		}
		return false
	}
	return true
}
