package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/partsbay/partsbay/internal/model"
	"github.com/partsbay/partsbay/internal/repository"
	"github.com/partsbay/partsbay/internal/telegram"
	"github.com/partsbay/partsbay/internal/types"
	"github.com/partsbay/partsbay/pkg/config"
	"github.com/partsbay/partsbay/pkg/jwt"
	"github.com/partsbay/partsbay/pkg/utils"
)

type AuthServicer interface {
	Register(ctx context.Context, req model.RegisterRequest) (uuid.UUID, error)
	Login(ctx context.Context, req model.LoginRequest) (jwt.Tokens, error)
	TelegramLogin(ctx context.Context, p telegram.LoginPayload) (*types.User, jwt.Tokens, error)
	BlacklistUserToken(ctx context.Context, accessTokenString string) error
	ValidateRefreshToken(tokenString string) (*config.RefreshClaims, error)
	ValidateAccessToken(tokenString string) (*config.UserClaims, error)
	IssueTokenPair(userID uuid.UUID) (jwt.Tokens, error)
}

type AuthService struct {
	users    repository.IUserRepo
	authLog  repository.IAuthLogRepo
	verifier *telegram.Verifier
	JM       jwt.JWTManager
}

func NewAuthService(users repository.IUserRepo, authLog repository.IAuthLogRepo, verifier *telegram.Verifier) (*AuthService, error) {
	jm, err := jwt.NewJwtManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AuthService: %w", err)
	}
	return &AuthService{
		users:    users,
		authLog:  authLog,
		verifier: verifier,
		JM:       jm,
	}, nil
}

func (as *AuthService) Register(ctx context.Context, req model.RegisterRequest) (uuid.UUID, error) {
	existing, err := as.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		return uuid.Nil, ErrUserExists
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return as.users.CreateUser(ctx, req.Email, hash, req.Username)
}

func (as *AuthService) Login(ctx context.Context, req model.LoginRequest) (jwt.Tokens, error) {
	user, err := as.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return jwt.Tokens{}, err
	}
	if user == nil {
		return jwt.Tokens{}, ErrUserNotFound
	}
	if err := utils.ComparePassword(req.Password, user.Password); err != nil {
		return jwt.Tokens{}, fmt.Errorf("invalid credentials")
	}

	return as.JM.GenerateTokenPair(user.ID)
}

// TelegramLogin verifies the widget payload, rejects replays via the auth log,
// then creates or refreshes the account bound to the Telegram identity.
func (as *AuthService) TelegramLogin(ctx context.Context, p telegram.LoginPayload) (*types.User, jwt.Tokens, error) {
	if err := as.verifier.Verify(p); err != nil {
		return nil, jwt.Tokens{}, err
	}

	fresh, err := as.authLog.RecordLogin(ctx, p.ID, p.AuthTime())
	if err != nil {
		return nil, jwt.Tokens{}, err
	}
	if !fresh {
		slog.Warn("[AUTH] replayed telegram login rejected", "telegram_id", p.ID)
		return nil, jwt.Tokens{}, ErrReplayedLogin
	}

	user := &types.User{
		Username:   p.Username,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		PhotoURL:   p.PhotoURL,
		TelegramID: p.ID,
	}
	if user.Username == "" {
		user.Username = fmt.Sprintf("tg_%d", p.ID)
	}
	if err := as.users.UpsertTelegramUser(ctx, user); err != nil {
		return nil, jwt.Tokens{}, err
	}

	tokens, err := as.JM.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, jwt.Tokens{}, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return user, tokens, nil
}

func (as *AuthService) BlacklistUserToken(ctx context.Context, accessTokenString string) error {
	accessClaims, err := as.JM.ValidateAccessToken(accessTokenString)
	if err != nil {
		// already invalid, nothing to revoke
		return nil
	}
	remaining := time.Until(accessClaims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}
	if err := as.JM.AddToBlackList(accessClaims.ID, remaining); err != nil {
		return fmt.Errorf("failed to blacklist access token: %w", err)
	}
	return nil
}

func (as *AuthService) ValidateRefreshToken(tokenString string) (*config.RefreshClaims, error) {
	return as.JM.ValidateRefreshToken(tokenString)
}

func (as *AuthService) ValidateAccessToken(tokenString string) (*config.UserClaims, error) {
	return as.JM.ValidateAccessToken(tokenString)
}

func (as *AuthService) IssueTokenPair(userID uuid.UUID) (jwt.Tokens, error) {
	return as.JM.GenerateTokenPair(userID)
}
