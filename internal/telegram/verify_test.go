package telegram

import (
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"

func signedPayload(t *testing.T, authDate time.Time) LoginPayload {
	t.Helper()
	p := LoginPayload{
		ID:        987654321,
		FirstName: "Ada",
		Username:  "ada_l",
		PhotoURL:  "https://t.me/i/userpic/320/ada.jpg",
		AuthDate:  authDate.Unix(),
	}
	secret := sha256.Sum256([]byte(testBotToken))
	p.Hash = computeHash(p, secret[:])
	return p
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	v := NewVerifier(testBotToken, 0)
	p := signedPayload(t, time.Now())
	require.NoError(t, v.Verify(p))
}

func TestVerifyRejectsTamperedFields(t *testing.T) {
	v := NewVerifier(testBotToken, 0)

	p := signedPayload(t, time.Now())
	p.ID++
	assert.ErrorIs(t, v.Verify(p), ErrBadSignature)

	p = signedPayload(t, time.Now())
	p.Username = "impostor"
	assert.ErrorIs(t, v.Verify(p), ErrBadSignature)

	p = signedPayload(t, time.Now())
	p.Hash = "deadbeef"
	assert.ErrorIs(t, v.Verify(p), ErrBadSignature)
}

func TestVerifyRejectsWrongBotToken(t *testing.T) {
	v := NewVerifier("999999:other-bot", 0)
	p := signedPayload(t, time.Now())
	assert.ErrorIs(t, v.Verify(p), ErrBadSignature)
}

func TestVerifyRejectsStaleAuthDate(t *testing.T) {
	v := NewVerifier(testBotToken, time.Hour)
	p := signedPayload(t, time.Now().Add(-2*time.Hour))
	assert.ErrorIs(t, v.Verify(p), ErrStale)
}

func TestVerifyIgnoresOptionalEmptyFields(t *testing.T) {
	v := NewVerifier(testBotToken, 0)
	p := LoginPayload{ID: 42, AuthDate: time.Now().Unix()}
	secret := sha256.Sum256([]byte(testBotToken))
	p.Hash = computeHash(p, secret[:])
	require.NoError(t, v.Verify(p))
}

func TestVerifyAcceptsUppercaseHexHash(t *testing.T) {
	v := NewVerifier(testBotToken, 0)
	p := signedPayload(t, time.Now())
	p.Hash = upper(p.Hash)
	require.NoError(t, v.Verify(p))
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 32
		}
	}
	return string(b)
}
