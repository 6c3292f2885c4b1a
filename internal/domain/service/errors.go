package service

import (
	apperrors "github.com/jrjohn/arcana-commerce-go/pkg/errors"
)

// Failures returned by the services. They render as fail envelopes.
var (
	ErrInvalidCredentials = apperrors.Unauthorized("incorrect email or password")
	ErrResetNotFound      = apperrors.BadRequest("no reset password request found for this device maybe expired or invalid request id")
	ErrResetUserGone      = apperrors.BadRequest("failed to find user, maybe user has been deleted")
	ErrUserNotFound       = apperrors.Unauthorized("user no longer exists")
	ErrAddressNotFound    = apperrors.NotFound("address not found")
)
