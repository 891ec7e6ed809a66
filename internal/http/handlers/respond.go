package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/fintrack/internal/domain/category"
	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/domain/user"
	"github.com/geocoder89/fintrack/internal/http/middlewares"
	"github.com/geocoder89/fintrack/internal/services"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

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

func RespondValidation(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusBadRequest, code, message, nil)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// RespondDomainError maps service and store errors onto the envelope. Anything it does
// not recognise is logged and answered with a 500 that hides the cause.
func RespondDomainError(ctx *gin.Context, log *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, transaction.ErrInvalidCategory):
		RespondValidation(ctx, "invalid_category", "Category does not exist.")
	case errors.Is(err, transaction.ErrInvalidAmount):
		RespondValidation(ctx, "invalid_amount", "Amount must be greater than zero.")
	case errors.Is(err, transaction.ErrInvalidType):
		RespondValidation(ctx, "invalid_request", "Type must be Income or Expense.")
	case errors.Is(err, user.ErrPasswordTooLong):
		RespondValidation(ctx, "invalid_request", "Password must be at most 72 bytes.")
	case errors.Is(err, user.ErrEmailTaken):
		RespondValidation(ctx, "email_taken", "Email is already in use.")
	case errors.Is(err, services.ErrInvalidCredentials):
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
	case errors.Is(err, transaction.ErrForbidden):
		RespondForbidden(ctx, "You do not have access to this transaction.")
	case errors.Is(err, transaction.ErrNotFound):
		RespondNotFound(ctx, "Transaction not found")
	case errors.Is(err, category.ErrNotFound):
		RespondNotFound(ctx, "Category not found")
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	default:
		if log == nil {
			log = slog.Default()
		}
		log.ErrorContext(ctx.Request.Context(), fallback, "err", err)
		_ = ctx.Error(err)
		RespondInternal(ctx, fallback)
	}
}
