package service

import (
	"testing"
	"time"

	"sanaa/config"
	"sanaa/internal/auth"
	"sanaa/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: time.Hour,
			Issuer:        "sanaa",
		},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t)
	cfg := testConfig()
	svc := NewAuthService(cfg, e.users)

	u, access, refresh, err := svc.Register("wanjiku@example.com", "wanjiku", "s3cret-pass", "0712345678")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleArtist, u.Role)
	assert.Equal(t, "+254712345678", u.MpesaPhone)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	claims, err := auth.ParseAccessToken(&cfg.JWT, access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, domain.RoleArtist, claims.Role)

	t.Run("duplicate email", func(t *testing.T) {
		_, _, _, err := svc.Register("wanjiku@example.com", "other", "s3cret-pass", "")
		assert.ErrorIs(t, err, ErrEmailExists)
	})
	t.Run("duplicate username", func(t *testing.T) {
		_, _, _, err := svc.Register("other@example.com", "wanjiku", "s3cret-pass", "")
		assert.ErrorIs(t, err, ErrUsernameExists)
	})
	t.Run("bad phone", func(t *testing.T) {
		_, _, _, err := svc.Register("third@example.com", "third", "s3cret-pass", "12345")
		assert.ErrorIs(t, err, ErrInvalidPhone)
	})

	t.Run("login", func(t *testing.T) {
		got, access, _, err := svc.Login("wanjiku@example.com", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.NotEmpty(t, access)
	})
	t.Run("wrong password", func(t *testing.T) {
		_, _, _, err := svc.Login("wanjiku@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCreds)
	})
	t.Run("unknown email", func(t *testing.T) {
		_, _, _, err := svc.Login("ghost@example.com", "s3cret-pass")
		assert.ErrorIs(t, err, ErrInvalidCreds)
	})

	t.Run("refresh", func(t *testing.T) {
		newAccess, newRefresh, err := svc.RefreshToken(refresh)
		require.NoError(t, err)
		assert.NotEmpty(t, newAccess)
		assert.NotEmpty(t, newRefresh)

		_, _, err = svc.RefreshToken("garbage.token.here")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
