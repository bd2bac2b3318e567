package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMalformedToken is returned when a token does not have the expected shape.
	ErrMalformedToken = errors.New("invalid token format")
	// ErrBadSignature is returned when the HMAC does not match.
	ErrBadSignature = errors.New("invalid token signature")
	// ErrExpired is returned when the token is past its expiry.
	ErrExpired = errors.New("token expired")
)

// FeedSigner issues and verifies signed calendar subscription tokens. A token
// carries an opaque payload (the encoded filter selection) and its expiry.
type FeedSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewFeedSigner constructs a signer with the provided secret and TTL.
func NewFeedSigner(secret string, ttl time.Duration) *FeedSigner {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &FeedSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a token for payload and the instant it stops being valid.
func (s *FeedSigner) Issue(payload []byte) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	token := strings.Join([]string{encoded, ts, s.sign(encoded, ts)}, ".")
	return token, expiresAt, nil
}

// Verify validates token and returns its payload.
func (s *FeedSigner) Verify(token string) ([]byte, time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, time.Time{}, ErrMalformedToken
	}
	encoded, ts, signature := parts[0], parts[1], parts[2]

	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, time.Time{}, ErrMalformedToken
	}
	if !hmac.Equal([]byte(s.sign(encoded, ts)), []byte(signature)) {
		return nil, time.Time{}, ErrBadSignature
	}
	expiresAt := time.Unix(expUnix, 0)
	if s.now().After(expiresAt) {
		return nil, expiresAt, ErrExpired
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("decode payload: %w", err)
	}
	return payload, expiresAt, nil
}

func (s *FeedSigner) sign(encoded, ts string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(encoded + "|" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}
