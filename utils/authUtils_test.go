package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("SecurePass123!")
	require.NoError(t, err)
	assert.NotEqual(t, "SecurePass123!", hash)

	assert.NoError(t, ComparePasswords(hash, "SecurePass123!"))
	assert.Error(t, ComparePasswords(hash, "securepass123!"))
}

func TestHashToken_Deterministic(t *testing.T) {
	a := HashToken("token-a")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashToken("token-a"))
	assert.NotEqual(t, a, HashToken("token-b"))
}

func testClaims(ttl time.Duration) *jwt.StandardClaims {
	return &jwt.StandardClaims{
		Subject:   "u1",
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}
}

func TestVerifyJWTToken(t *testing.T) {
	current := []byte("current-secret")
	previous := []byte("previous-secret")

	fresh, err := CreateJWTToken(testClaims(time.Hour), current)
	require.NoError(t, err)
	old, err := CreateJWTToken(testClaims(time.Hour), previous)
	require.NoError(t, err)
	expired, err := CreateJWTToken(testClaims(-time.Minute), current)
	require.NoError(t, err)
	foreign, err := CreateJWTToken(testClaims(time.Hour), []byte("someone-else"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		keys    SigningKeys
		wantErr error
	}{
		{name: "current key", token: fresh, keys: SigningKeys{Current: current}},
		{name: "previous key accepted", token: old, keys: SigningKeys{Current: current, Previous: previous}},
		{name: "previous key not configured", token: old, keys: SigningKeys{Current: current}, wantErr: ErrTokenInvalid},
		{name: "expired", token: expired, keys: SigningKeys{Current: current}, wantErr: ErrTokenExpired},
		{name: "unknown key", token: foreign, keys: SigningKeys{Current: current, Previous: previous}, wantErr: ErrTokenInvalid},
		{name: "garbage", token: "not.a.jwt", keys: SigningKeys{Current: current}, wantErr: ErrTokenMalformed},
		{name: "no key", token: fresh, keys: SigningKeys{}, wantErr: ErrNoSigningKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyJWTToken(tt.token, tt.keys, &jwt.StandardClaims{})
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestCreateJWTToken_NoKey(t *testing.T) {
	_, err := CreateJWTToken(testClaims(time.Hour), nil)
	assert.ErrorIs(t, err, ErrNoSigningKey)
}

func TestRetryMessage(t *testing.T) {
	assert.Equal(t, "Please try again in 1 minute.", RetryMessage(10*time.Second))
	assert.Equal(t, "Please try again in 1 minute.", RetryMessage(0))
	assert.Equal(t, "Please try again in 15 minutes.", RetryMessage(15*time.Minute))
	assert.Equal(t, "Please try again in 7 minutes.", RetryMessage(6*time.Minute+40*time.Second))
}
