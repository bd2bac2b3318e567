package signing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFeedSignerIssueAndVerify(t *testing.T) {
	signer := NewFeedSigner("secret", time.Hour)
	token, expiresAt, err := signer.Issue([]byte(`{"eventType":"Workshop"}`))
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	payload, parsedExpiry, err := signer.Verify(token)
	require.NoError(t, err)
	require.JSONEq(t, `{"eventType":"Workshop"}`, string(payload))
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestFeedSignerExpired(t *testing.T) {
	signer := NewFeedSigner("secret", time.Hour)
	token, _, err := signer.Issue([]byte("x"))
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, _, err = signer.Verify(token)
	require.ErrorIs(t, err, ErrExpired)
}

func TestFeedSignerRejectsTampering(t *testing.T) {
	signer := NewFeedSigner("secret", time.Hour)
	token, _, err := signer.Issue([]byte("x"))
	require.NoError(t, err)

	other := NewFeedSigner("other", time.Hour)
	_, _, err = other.Verify(token)
	require.ErrorIs(t, err, ErrBadSignature)

	_, _, err = signer.Verify("not-a-token")
	require.ErrorIs(t, err, ErrMalformedToken)
}

func TestFeedSignerRequiresSecret(t *testing.T) {
	_, _, err := NewFeedSigner("", time.Hour).Issue([]byte("x"))
	require.Error(t, err)
}
