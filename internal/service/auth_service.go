package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/middleware"
	"github.com/mmynk/foodgram/internal/storage"
	"github.com/mmynk/foodgram/pkg/api"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         storage.UserStore
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users storage.UserStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		logger:        logger,
	}
}

// Register creates a new user account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	msg := req.Msg
	s.logger.Info("Register request", "email", msg.Email, "username", msg.Username)

	if _, err := mail.ParseAddress(msg.Email); err != nil {
		return nil, invalidArgument("invalid email %q", msg.Email)
	}
	if strings.TrimSpace(msg.Username) == "" {
		return nil, invalidArgument("username is required")
	}
	if strings.TrimSpace(msg.FirstName) == "" || strings.TrimSpace(msg.LastName) == "" {
		return nil, invalidArgument("first and last name are required")
	}

	user, err := s.authenticator.Register(ctx, auth.Registration{
		Email:     msg.Email,
		Username:  strings.TrimSpace(msg.Username),
		FirstName: strings.TrimSpace(msg.FirstName),
		LastName:  strings.TrimSpace(msg.LastName),
	}, msg.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountExists):
			s.logger.Warn("Registration rejected", "email", msg.Email, "error", err)
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, auth.ErrWeakPassword):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		s.logger.Error("Registration failed", "email", msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "admin", user.IsAdmin)
	return connect.NewResponse(&api.RegisterResponse{
		User:  toAPIUser(user, false),
		Token: token,
	}), nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if errors.Is(err, auth.ErrUserBlocked) {
		s.logger.Warn("Login refused for blocked user", "email", req.Msg.Email)
		return nil, connect.NewError(connect.CodePermissionDenied, err)
	}
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return connect.NewResponse(&api.LoginResponse{
		User:  toAPIUser(user, false),
		Token: token,
	}), nil
}

// GetCurrentUser returns the authenticated user's profile.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	s.logger.Info("GetCurrentUser request", "user_id", middleware.GetUserID(ctx), "email", middleware.GetEmail(ctx))

	user, err := currentUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetCurrentUserResponse{User: toAPIUser(user, false)}), nil
}
