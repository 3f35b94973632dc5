package app

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenGenerateParseRoundTrip(t *testing.T) {
	tm := NewTokenManager(TokenConfig{
		SecretKey: "test-secret",
		Expiry:    time.Hour,
		Issuer:    "test-issuer",
	})

	token, err := tm.Generate(42, "alice", "127.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	entity, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), entity.UID)
	assert.Equal(t, "alice", entity.Nickname)
	assert.Equal(t, "127.0.0.1", entity.IP)
	assert.Equal(t, "test-issuer", entity.Issuer)

	assert.NoError(t, tm.Validate(token))
	assert.Equal(t, "test-secret", tm.GetSecretKey())
}

func TestTokenParseWrongKeyFails(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "key-one", Expiry: time.Hour})
	token, err := tm.Generate(1, "bob", "")
	require.NoError(t, err)

	other := NewTokenManager(TokenConfig{SecretKey: "key-two", Expiry: time.Hour})
	_, err = other.Parse(token)
	assert.Error(t, err)

	_, err = ParseTokenWithKey(token, "key-two")
	assert.Error(t, err)

	entity, err := ParseTokenWithKey(token, "key-one")
	require.NoError(t, err)
	assert.Equal(t, int64(1), entity.UID)
}

func TestTokenParseTamperedFails(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "test-secret", Expiry: time.Hour})
	token, err := tm.Generate(7, "carol", "")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	_, err = tm.Parse(tampered)
	assert.Error(t, err)

	_, err = tm.Parse("not-a-token")
	assert.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "test-secret", Expiry: -time.Minute})
	token, err := tm.Generate(1, "dave", "")
	require.NoError(t, err)

	_, err = tm.Parse(token)
	assert.Error(t, err)
}
