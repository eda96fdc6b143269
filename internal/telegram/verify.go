// Package telegram verifies Telegram login-widget payloads: an HMAC-SHA256
// signature over a canonical key=value string, keyed by the SHA256 of the bot
// token.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrBadSignature = errors.New("telegram: signature mismatch")
	ErrStale        = errors.New("telegram: auth_date too old")
)

// DefaultMaxAge bounds how old an auth_date may be before the payload is
// rejected outright, independent of the replay log.
const DefaultMaxAge = 24 * time.Hour

// LoginPayload is the signed identity blob the Telegram widget posts back.
type LoginPayload struct {
	ID        int64  `json:"id" validate:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
	AuthDate  int64  `json:"auth_date" validate:"required"`
	Hash      string `json:"hash" validate:"required"`
}

// AuthTime returns auth_date as wall-clock time.
func (p LoginPayload) AuthTime() time.Time {
	return time.Unix(p.AuthDate, 0)
}

// Verifier checks payload signatures for one bot.
type Verifier struct {
	secret []byte
	maxAge time.Duration

	now func() time.Time
}

func NewVerifier(botToken string, maxAge time.Duration) *Verifier {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	secret := sha256.Sum256([]byte(botToken))
	return &Verifier{secret: secret[:], maxAge: maxAge, now: time.Now}
}

// Verify checks the HMAC over the canonical data-check string and the
// freshness of auth_date. Replay prevention is the caller's job; Verify is
// stateless.
func (v *Verifier) Verify(p LoginPayload) error {
	expected := computeHash(p, v.secret)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(p.Hash))) {
		return ErrBadSignature
	}
	if v.now().Sub(p.AuthTime()) > v.maxAge {
		return ErrStale
	}
	return nil
}

// computeHash builds the canonical newline-joined, key-sorted key=value
// string (hash excluded, empty fields omitted) and signs it.
func computeHash(p LoginPayload, secret []byte) string {
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

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
