package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type ProfileReader interface {
	Profile(ctx context.Context, callerID int64) (user.User, error)
}

type UsersHandler struct {
	users   ProfileReader
	timeout time.Duration
	log     *slog.Logger
}

func NewUsersHandler(users ProfileReader, timeout time.Duration, log *slog.Logger) *UsersHandler {
	return &UsersHandler{users: users, timeout: timeout, log: log}
}

func (h *UsersHandler) Profile(ctx *gin.Context) {
	callerID, ok := callerFrom(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.users.Profile(cctx, callerID)
	if err != nil {
		RespondDomainError(ctx, h.log, err, "Could not load profile")
		return
	}

	ctx.JSON(http.StatusOK, u)
}
