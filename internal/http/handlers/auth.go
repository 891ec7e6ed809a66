package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/domain/user"
	"github.com/geocoder89/fintrack/internal/services"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Register(ctx context.Context, req user.RegisterRequest) (user.User, error)
	Login(ctx context.Context, req user.LoginRequest) (services.LoginResult, error)
}

type AuthHandler struct {
	auth    Authenticator
	timeout time.Duration
	log     *slog.Logger
}

func NewAuthHandler(auth Authenticator, timeout time.Duration, log *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, timeout: timeout, log: log}
}

type registerResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresIn int64  `json:"expiresIn"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.auth.Register(cctx, req)
	if err != nil {
		RespondDomainError(ctx, h.log, err, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, registerResponse{ID: u.ID, Name: u.Name, Email: u.Email})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.auth.Login(cctx, req)
	if err != nil {
		RespondDomainError(ctx, h.log, err, "Could not log in")
		return
	}

	expiresIn := int64(time.Until(res.ExpiresAt).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}

	ctx.JSON(http.StatusOK, loginResponse{
		Token:     res.Token,
		TokenType: "Bearer",
		ExpiresIn: expiresIn,
	})
}
