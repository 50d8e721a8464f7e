package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/yurawu27/splittie/internal/apperr"
	"github.com/yurawu27/splittie/internal/auth"
	"github.com/yurawu27/splittie/internal/middleware"
	"github.com/yurawu27/splittie/internal/models"
	"github.com/yurawu27/splittie/internal/storage"
	"github.com/yurawu27/splittie/internal/view"
	api "github.com/yurawu27/splittie/pkg/api"
	"github.com/yurawu27/splittie/pkg/api/apiconnect"
)

var _ apiconnect.AuthServiceHandler = (*AuthService)(nil)

// AccountLookup loads the account behind a session.
type AccountLookup interface {
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
}

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	accounts      AccountLookup
	jwtManager    *auth.JWTManager
	cookies       auth.CookieConfig
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, accounts AccountLookup, jwtManager *auth.JWTManager, cookies auth.CookieConfig, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		accounts:      accounts,
		jwtManager:    jwtManager,
		cookies:       cookies,
		logger:        logger,
	}
}

// Register creates a new account and starts a session for it.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	s.logger.Info("Register request", "username", req.Msg.Username)

	account, err := s.authenticator.Register(ctx, auth.RegisterInput{
		Username: req.Msg.Username,
		Email:    req.Msg.Email,
		Password: req.Msg.Password,
		Name:     req.Msg.Name,
		Phone:    req.Msg.Phone,
	})
	if err != nil {
		s.logger.Warn("Registration failed", "username", req.Msg.Username, "error", err)
		return nil, connectError("Register", err)
	}

	token, err := s.jwtManager.Generate(account)
	if err != nil {
		s.logger.Error("Failed to generate token", "account_id", account.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, errInternal)
	}

	res := connect.NewResponse(&api.RegisterResponse{
		Account: view.Account(account),
		Token:   token,
	})
	res.Header().Add("Set-Cookie", s.cookies.New(token).String())

	s.logger.Info("Account registered successfully", "account_id", account.ID, "username", account.Username)
	return res, nil
}

// Login authenticates an account and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	s.logger.Info("Login request", "username", req.Msg.Username)

	account, err := s.authenticator.Authenticate(ctx, req.Msg.Username, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "username", req.Msg.Username, "error", err)
		return nil, connectError("Login", err)
	}

	token, err := s.jwtManager.Generate(account)
	if err != nil {
		s.logger.Error("Failed to generate token", "account_id", account.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, errInternal)
	}

	res := connect.NewResponse(&api.LoginResponse{
		Account: view.Account(account),
		Token:   token,
	})
	res.Header().Add("Set-Cookie", s.cookies.New(token).String())

	s.logger.Info("Account logged in successfully", "account_id", account.ID)
	return res, nil
}

// Logout clears the session cookie. Bearer tokens are stateless and are
// discarded client-side.
func (s *AuthService) Logout(ctx context.Context, req *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error) {
	s.logger.Info("Logout request", "account_id", middleware.GetAccountID(ctx))
	res := connect.NewResponse(&api.LogoutResponse{})
	res.Header().Add("Set-Cookie", s.cookies.Clear().String())
	return res, nil
}

// GetCurrentUser returns the currently authenticated account.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	accountID := middleware.GetAccountID(ctx)
	if accountID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, connectError("GetCurrentUser",
			apperr.Unauthenticated(apperr.CodeNotAuthenticated, "session account no longer exists"))
	}
	if err != nil {
		return nil, connectError("GetCurrentUser", apperr.Internal(err, "failed to load account"))
	}

	return connect.NewResponse(&api.GetCurrentUserResponse{Account: view.Account(account)}), nil
}
