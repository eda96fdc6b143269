package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/partsbay/partsbay/internal/model"
	"github.com/partsbay/partsbay/internal/repository"
	"github.com/partsbay/partsbay/internal/service"
	"github.com/partsbay/partsbay/internal/telegram"
	"github.com/partsbay/partsbay/pkg/config"
	valid "github.com/partsbay/partsbay/pkg/validator"
)

var validate = valid.GetValidator()

type UserHandler struct {
	authService service.AuthServicer
	users       repository.IUserRepo
}

func NewUserHandler(authSvc service.AuthServicer, users repository.IUserRepo) (*UserHandler, error) {
	return &UserHandler{
		authService: authSvc,
		users:       users,
	}, nil
}

// RegisterUser godoc
//
//	@Summary		Register a new User
//	@Description	Register a new user with email, username, and password
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	map[string]any
//	@Failure		400	{object}	map[string]any
//	@Failure		409	{object}	map[string]any
//	@Router			/auth/register [post]
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidJson.Error(), "Invalid JSON format", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidRequest.Error(), "Input validation failed", validationDetails(err))
		return
	}

	userId, err := h.authService.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			RespondErrorJSON(w, r, http.StatusConflict, ErrUserExists.Error(), "user already exists with same email", nil)
			return
		}
		slog.Error("Internal Error", "error", err.Error())
		RespondErrorJSON(w, r, http.StatusInternalServerError, ErrInternalServer.Error(), "Something went wrong", nil)
		return
	}
	resp := map[string]any{
		"user_id": userId.String(),
	}
	RespondSuccessJSON(w, r, http.StatusCreated, "user registered successfully", resp)
}

// LoginUser godoc
//
//	@Summary		Login a User
//	@Description	Login a user with email and password
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		400	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Router			/auth/login [post]
func (h *UserHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidJson.Error(), "Invalid JSON format", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidRequest.Error(), "Input validation failed", validationDetails(err))
		return
	}

	tokens, err := h.authService.Login(r.Context(), req)
	if err != nil {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrAuthFailed.Error(), "Invalid email or password", nil)
		return
	}

	// calculate cookie expiry by validating the refresh token
	refreshClaims, _ := h.authService.ValidateRefreshToken(tokens.RefreshToken)
	setRefreshTokenCookie(w, tokens.RefreshToken, refreshClaims.ExpiresAt.Time)

	resp := map[string]any{
		"access_token": tokens.AccessToken,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Login successful", resp)
}

// TelegramLogin godoc
//
//	@Summary		Login via Telegram
//	@Description	Authenticate using the signed payload from the Telegram login widget
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Router			/auth/telegram [post]
func (h *UserHandler) TelegramLogin(w http.ResponseWriter, r *http.Request) {
	var payload telegram.LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidJson.Error(), "Invalid JSON format", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidRequest.Error(), "Input validation failed", validationDetails(err))
		return
	}

	user, tokens, err := h.authService.TelegramLogin(r.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, telegram.ErrBadSignature):
			RespondErrorJSON(w, r, http.StatusUnauthorized, ErrBadSignature.Error(), "Signature verification failed", nil)
		case errors.Is(err, telegram.ErrStale):
			RespondErrorJSON(w, r, http.StatusUnauthorized, ErrStaleLogin.Error(), "Login payload is too old", nil)
		case errors.Is(err, service.ErrReplayedLogin):
			RespondErrorJSON(w, r, http.StatusUnauthorized, ErrReplayedLogin.Error(), "Login payload already used", nil)
		default:
			slog.Error("telegram login failed", "error", err.Error())
			RespondErrorJSON(w, r, http.StatusInternalServerError, ErrInternalServer.Error(), "Something went wrong", nil)
		}
		return
	}

	refreshClaims, _ := h.authService.ValidateRefreshToken(tokens.RefreshToken)
	setRefreshTokenCookie(w, tokens.RefreshToken, refreshClaims.ExpiresAt.Time)

	resp := map[string]any{
		"access_token": tokens.AccessToken,
		"user":         user,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Login successful", resp)
}

// RefreshToken godoc
//
//	@Summary		Refresh Access Token
//	@Description	Refresh the access token using a valid refresh token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Router			/auth/refresh [post]
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(config.RefreshTokenCookieName)
	if err != nil {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrMissingCookie.Error(), "Refresh token cookie missing", nil)
		return
	}

	refreshClaims, err := h.authService.ValidateRefreshToken(cookie.Value)
	if err != nil {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrInvalidToken.Error(), "Invalid or expired refresh token", nil)
		return
	}

	// verify user still exists
	user, err := h.users.GetUserByID(r.Context(), refreshClaims.UserID)
	if err != nil || user == nil {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrUserNotFound.Error(), "User account not found", nil)
		return
	}

	tokens, err := h.authService.IssueTokenPair(user.ID)
	if err != nil {
		RespondErrorJSON(w, r, http.StatusInternalServerError, ErrTokenGenFailed.Error(), "failed to generate tokens", nil)
		return
	}
	claims, err := h.authService.ValidateRefreshToken(tokens.RefreshToken)
	if err != nil {
		RespondErrorJSON(w, r, http.StatusInternalServerError, ErrToken.Error(), "Error validating new token", nil)
		return
	}
	setRefreshTokenCookie(w, tokens.RefreshToken, claims.ExpiresAt.Time)

	resp := map[string]any{
		"access_token": tokens.AccessToken,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "token refreshed successfully", resp)
}

// LogoutUser godoc
//
//	@Summary		Logout User
//	@Description	Logout the user by blacklisting the access token and clearing the refresh token cookie
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Router			/auth/logout [post]
func (h *UserHandler) LogoutUser(w http.ResponseWriter, r *http.Request) {
	accessTokenString := ""
	authHeader := r.Header.Get("Authorization")
	if parts := strings.Split(authHeader, " "); len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		accessTokenString = parts[1]
	}

	// Even if the token is missing we still clear the cookie, so the client
	// ends up logged out either way.
	if accessTokenString != "" {
		if err := h.authService.BlacklistUserToken(r.Context(), accessTokenString); err != nil {
			RespondErrorJSON(w, r, http.StatusInternalServerError, ErrLogout.Error(), "Failed to blacklist token", nil)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.RefreshTokenCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
		Path:     "/",
		SameSite: http.SameSiteStrictMode,
	})

	RespondSuccessJSON(w, r, http.StatusOK, "Logged out successfully", "")
}

// Profile godoc
//
//	@Summary		Get User Profile
//	@Description	Retrieve the profile information of the authenticated user
//	@Tags			Users
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Router			/users/me [get]
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims := GetUserClaims(r.Context())
	if claims == nil {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrAuthFailed.Error(), "user claims not found in context", nil)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), claims.UserID)
	if err != nil || user == nil {
		RespondErrorJSON(w, r, http.StatusForbidden, ErrUserNotFound.Error(), "user profile could not be retrieved", nil)
		return
	}

	RespondSuccessJSON(w, r, http.StatusOK, "Profile data fetched successfully", user)
}

func setRefreshTokenCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.RefreshTokenCookieName,
		Value:    token,
		Expires:  expiry,
		HttpOnly: true,
		Secure:   true,
		Path:     "/",
		SameSite: http.SameSiteStrictMode,
	})
}
