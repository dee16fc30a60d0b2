package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
	"github.com/civicworks/warddesk/backend/pkg/jwt"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()
	priv, pub, err := jwt.GenerateKeyPair()
	require.NoError(t, err)
	tokens, err := jwt.NewManager(priv, pub, 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	users := newFakeUserRepo()
	profiles := newFakeProfileRepo()
	return NewAuthService(users, profiles, tokens), users
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()
	wardID := "ward-3"

	session, err := svc.Register(ctx, "Clerk@City.gov", "s3cret-pass", "A. Clerk", entities.UserRoleWard, &wardID)
	require.NoError(t, err)
	assert.Equal(t, "clerk@city.gov", session.User.Email, "email is normalized")
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	require.NotNil(t, session.Profile)
	assert.Equal(t, "A. Clerk", session.Profile.FullName)
	assert.NotEqual(t, "s3cret-pass", session.User.PasswordHash)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := svc.Register(ctx, "clerk@city.gov", "other-pass99", "B", entities.UserRoleWard, &wardID)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	})

	t.Run("login with the right password", func(t *testing.T) {
		got, err := svc.Login(ctx, "clerk@city.gov", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, session.User.ID, got.User.ID)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		_, err1 := svc.Login(ctx, "clerk@city.gov", "wrong-pass-1")
		_, err2 := svc.Login(ctx, "nobody@city.gov", "wrong-pass-1")
		require.Error(t, err1)
		require.Error(t, err2)
		assert.Equal(t, err1.Error(), err2.Error())
	})
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		role     entities.UserRole
		wardID   *string
	}{
		{"bad email", "not-an-email", "s3cret-pass", entities.UserRoleCenter, nil},
		{"short password", "a@b.gov", "short", entities.UserRoleCenter, nil},
		{"ward account without ward", "a@b.gov", "s3cret-pass", entities.UserRoleWard, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.password, "X", tt.role, tt.wardID)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		})
	}
}

func TestAuthService_DeactivatedAccount(t *testing.T) {
	svc, users := newAuthFixture(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "center@city.gov", "s3cret-pass", "Center Admin", entities.UserRoleCenter, nil)
	require.NoError(t, err)

	require.NoError(t, users.Deactivate(ctx, session.User.ID))

	_, err = svc.Login(ctx, "center@city.gov", "s3cret-pass")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))

	_, err = svc.Refresh(ctx, session.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
}

func TestAuthService_Refresh(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "center@city.gov", "s3cret-pass", "Center Admin", entities.UserRoleCenter, nil)
	require.NoError(t, err)

	t.Run("refresh token works", func(t *testing.T) {
		got, err := svc.Refresh(ctx, session.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, session.User.ID, got.User.ID)
	})

	t.Run("access token is refused", func(t *testing.T) {
		_, err := svc.Refresh(ctx, session.AccessToken)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "center@city.gov", "s3cret-pass", "Center Admin", entities.UserRoleCenter, nil)
	require.NoError(t, err)

	t.Run("wrong current password refused", func(t *testing.T) {
		err := svc.ChangePassword(ctx, session.User.ID, "wrong-pass-1", "new-pass-123")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
	})

	require.NoError(t, svc.ChangePassword(ctx, session.User.ID, "s3cret-pass", "new-pass-123"))

	_, err = svc.Login(ctx, "center@city.gov", "new-pass-123")
	require.NoError(t, err)
}

func TestAuthService_RequestPasswordReset(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	// Unknown email is acknowledged without error so callers cannot probe.
	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@city.gov"))
}
