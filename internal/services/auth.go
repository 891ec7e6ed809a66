package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/fintrack/internal/domain/user"
	"github.com/geocoder89/fintrack/internal/observability"
)

// ErrInvalidCredentials covers both an unknown email and a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	GetUserByID(ctx context.Context, id int64) (user.User, error)
}

type PasswordHasher interface {
	HashPassword(plain string) (string, error)
	CheckPassword(hash, plain string) error
}

type TokenIssuer interface {
	GenerateAccessToken(userID int64, email string) (string, time.Time, error)
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      user.User
}

type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
	prom   *observability.Prom
	log    *slog.Logger
}

func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, prom *observability.Prom, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		prom:   prom,
		log:    log,
	}
}

func (s *AuthService) Register(ctx context.Context, req user.RegisterRequest) (user.User, error) {
	email := strings.TrimSpace(req.Email)

	if len(req.Password) > user.MaxPasswordBytes {
		s.prom.ObserveAuth("register", "invalid")
		return user.User{}, user.ErrPasswordTooLong
	}

	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		s.prom.ObserveAuth("register", "error")
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.CreateUser(ctx, strings.TrimSpace(req.Name), email, hash)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			s.prom.ObserveAuth("register", "email_taken")
		} else {
			s.prom.ObserveAuth("register", "error")
		}
		return user.User{}, err
	}

	s.prom.ObserveAuth("register", "ok")
	s.log.InfoContext(ctx, "user registered", "user_id", u.ID)

	return u, nil
}

func (s *AuthService) Login(ctx context.Context, req user.LoginRequest) (LoginResult, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.prom.ObserveAuth("login", "invalid_credentials")
			return LoginResult{}, ErrInvalidCredentials
		}
		s.prom.ObserveAuth("login", "error")
		return LoginResult{}, err
	}

	if err := s.hasher.CheckPassword(u.PasswordHash, req.Password); err != nil {
		s.prom.ObserveAuth("login", "invalid_credentials")
		return LoginResult{}, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		s.prom.ObserveAuth("login", "error")
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}

	s.prom.ObserveAuth("login", "ok")

	return LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *AuthService) Profile(ctx context.Context, callerID int64) (user.User, error) {
	return s.users.GetUserByID(ctx, callerID)
}
