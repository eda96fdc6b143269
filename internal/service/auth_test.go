package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsbay/partsbay/internal/model"
	"github.com/partsbay/partsbay/internal/telegram"
	"github.com/partsbay/partsbay/internal/types"
)

type memUserRepo struct {
	byEmail    map[string]*types.User
	byTelegram map[int64]*types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byEmail:    make(map[string]*types.User),
		byTelegram: make(map[int64]*types.User),
	}
}

func (r *memUserRepo) CreateUser(ctx context.Context, email, password, username string) (uuid.UUID, error) {
	u := &types.User{ID: uuid.New(), Email: email, Password: password, Username: username}
	r.byEmail[email] = u
	return u.ID, nil
}

func (r *memUserRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return r.byEmail[email], nil
}

func (r *memUserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*types.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	for _, u := range r.byTelegram {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) UpsertTelegramUser(ctx context.Context, u *types.User) error {
	if existing, ok := r.byTelegram[u.TelegramID]; ok {
		u.ID = existing.ID
		u.CreatedAt = existing.CreatedAt
	} else {
		u.ID = uuid.New()
		u.CreatedAt = time.Now()
	}
	u.UpdatedAt = time.Now()
	cp := *u
	r.byTelegram[u.TelegramID] = &cp
	return nil
}

type memAuthLog struct {
	seen map[string]struct{}
}

func (l *memAuthLog) RecordLogin(ctx context.Context, telegramID int64, authDate time.Time) (bool, error) {
	key := fmt.Sprintf("%d:%d", telegramID, authDate.Unix())
	if _, ok := l.seen[key]; ok {
		return false, nil
	}
	l.seen[key] = struct{}{}
	return true, nil
}

const testBotToken = "12345:test-bot-token"

func signPayload(p *telegram.LoginPayload) {
	fields := map[string]string{
		"id":        fmt.Sprintf("%d", p.ID),
		"auth_date": fmt.Sprintf("%d", p.AuthDate),
	}
	if p.FirstName != "" {
		fields["first_name"] = p.FirstName
	}
	if p.LastName != "" {
		fields["last_name"] = p.LastName
	}
	if p.Username != "" {
		fields["username"] = p.Username
	}
	if p.PhotoURL != "" {
		fields["photo_url"] = p.PhotoURL
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}
	secret := sha256.Sum256([]byte(testBotToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(strings.Join(lines, "\n")))
	p.Hash = hex.EncodeToString(mac.Sum(nil))
}

func newAuthFixture(t *testing.T) (*AuthService, *memUserRepo, *memAuthLog) {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret-for-tests")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret-for-tests")

	users := newMemUserRepo()
	authLog := &memAuthLog{seen: make(map[string]struct{})}
	svc, err := NewAuthService(users, authLog, telegram.NewVerifier(testBotToken, telegram.DefaultMaxAge))
	require.NoError(t, err)
	return svc, users, authLog
}

func TestRegisterThenLoginRoundTrip(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	id, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:    "mechanic@example.com",
		Password: "wrenches123",
		Username: "mechanic",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	_, err = svc.Register(context.Background(), model.RegisterRequest{
		Email:    "mechanic@example.com",
		Password: "other-password",
		Username: "mechanic2",
	})
	assert.ErrorIs(t, err, ErrUserExists)

	tokens, err := svc.Login(context.Background(), model.LoginRequest{
		Email:    "mechanic@example.com",
		Password: "wrenches123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)

	claims, err := svc.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)

	_, err = svc.Login(context.Background(), model.LoginRequest{
		Email:    "mechanic@example.com",
		Password: "wrong",
	})
	assert.Error(t, err)
}

func TestTelegramLoginCreatesAndRefreshesAccount(t *testing.T) {
	svc, users, _ := newAuthFixture(t)

	p := telegram.LoginPayload{
		ID:        777,
		FirstName: "Lena",
		Username:  "lena_parts",
		AuthDate:  time.Now().Unix(),
	}
	signPayload(&p)

	user, tokens, err := svc.TelegramLogin(context.Background(), p)
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	assert.Equal(t, int64(777), user.TelegramID)
	assert.Equal(t, "lena_parts", user.Username)

	// same identity, later auth_date: refreshes the existing account
	p2 := telegram.LoginPayload{
		ID:        777,
		FirstName: "Lena",
		Username:  "lena_wheels",
		AuthDate:  time.Now().Unix() + 60,
	}
	signPayload(&p2)
	again, _, err := svc.TelegramLogin(context.Background(), p2)
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "lena_wheels", users.byTelegram[777].Username)
}

func TestTelegramLoginRejectsReplay(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	p := telegram.LoginPayload{ID: 888, Username: "bob", AuthDate: time.Now().Unix()}
	signPayload(&p)

	_, _, err := svc.TelegramLogin(context.Background(), p)
	require.NoError(t, err)

	_, _, err = svc.TelegramLogin(context.Background(), p)
	assert.ErrorIs(t, err, ErrReplayedLogin)
}

func TestTelegramLoginRejectsForgedHash(t *testing.T) {
	svc, _, authLog := newAuthFixture(t)

	p := telegram.LoginPayload{ID: 999, Username: "eve", AuthDate: time.Now().Unix()}
	signPayload(&p)
	p.Username = "admin" // tampered after signing

	_, _, err := svc.TelegramLogin(context.Background(), p)
	assert.ErrorIs(t, err, telegram.ErrBadSignature)
	assert.Empty(t, authLog.seen, "rejected payloads never reach the replay log")
}

func TestLogoutBlacklistsAccessToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	id, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:    "driver@example.com",
		Password: "password123",
		Username: "driver",
	})
	require.NoError(t, err)

	tokens, err := svc.IssueTokenPair(id)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.BlacklistUserToken(context.Background(), tokens.AccessToken))

	_, err = svc.ValidateAccessToken(tokens.AccessToken)
	assert.Error(t, err, "blacklisted token no longer validates")
}
