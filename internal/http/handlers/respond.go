package handlers

import (
	"errors"
	"net/http"

	"github.com/geocoder89/boardhub/internal/authz"
	"github.com/geocoder89/boardhub/internal/domain/org"
	"github.com/geocoder89/boardhub/internal/domain/role"
	"github.com/geocoder89/boardhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondForbidden(ctx *gin.Context) {
	RespondError(ctx, http.StatusForbidden, "forbidden", "You do not have access to this resource.", nil)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

// RespondDomainError maps the store and guard sentinels onto the mutation
// status codes. Queries do not use this for absence; they answer 200 with a
// null result instead.
func RespondDomainError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, authz.ErrForbidden):
		RespondForbidden(ctx)
	case errors.Is(err, org.ErrScopeMismatch):
		RespondConflict(ctx, "scope_mismatch", "The resource belongs to a different parent.")
	case errors.Is(err, org.ErrNotFound):
		RespondNotFound(ctx, "Resource not found.")
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found.")
	case errors.Is(err, user.ErrEmailTaken):
		RespondConflict(ctx, "email_taken", "Email is already in use.")
	case errors.Is(err, org.ErrValidation):
		RespondError(ctx, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, role.ErrUnsupportedKind):
		RespondError(ctx, http.StatusBadRequest, "unsupported_role_kind", "Unknown role kind.", nil)
	default:
		RespondInternal(ctx, "Something went wrong.")
	}
}
