package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukemzone/kpi-portal/internal/models"
	"github.com/dukemzone/kpi-portal/internal/store"
	"github.com/dukemzone/kpi-portal/pkg/jwt"
)

func newAuthService(t *testing.T, legacy bool) (*AuthService, *store.Store) {
	t.Helper()
	s := newTestStore(t)
	tokens := jwt.NewService("access-secret-for-tests", "refresh-secret-for-tests", time.Hour, 24*time.Hour)
	svc := NewAuthService(s, tokens, AuthOptions{AllowLegacyDefaults: legacy, BcryptCost: bcrypt.MinCost}, nullLogger())
	return svc, s
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Legacy Defaults", func(t *testing.T) {
		svc, _ := newAuthService(t, true)

		user, err := svc.Login(ctx, "meron", "1234")
		require.NoError(t, err)
		assert.Equal(t, meronID, user.ID)

		user, err = svc.Login(ctx, " dawit ", "dawit123")
		require.NoError(t, err)
		assert.Equal(t, dawitID, user.ID)

		_, err = svc.Login(ctx, "meron", "dawit123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Legacy Defaults Disabled", func(t *testing.T) {
		svc, _ := newAuthService(t, false)

		_, err := svc.Login(ctx, "meron", "1234")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Assigned Passcode Without Legacy Defaults", func(t *testing.T) {
		svc, st := newAuthService(t, false)

		for _, u := range st.ListUsers() {
			for _, secret := range []string{"1234", u.Username + "123", ""} {
				_, err := svc.Login(ctx, u.Username, secret)
				assert.ErrorIs(t, err, ErrInvalidCredentials, u.Username)
			}
		}

		require.NoError(t, svc.AssignPasscode(ctx, managerID, "wonde-2026"))
		user, err := svc.Login(ctx, "manager", "wonde-2026")
		require.NoError(t, err)
		assert.True(t, user.PasscodeSet)

		// Operators can also reset a stored passcode
		require.NoError(t, svc.AssignPasscode(ctx, managerID, "new-secret"))
		_, err = svc.Login(ctx, "manager", "wonde-2026")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = svc.Login(ctx, "manager", "new-secret")
		require.NoError(t, err)

		assert.ErrorIs(t, svc.AssignPasscode(ctx, managerID, "12"), ErrValidation)
		assert.ErrorIs(t, svc.AssignPasscode(ctx, "missing", "new-secret"), ErrNotFound)
	})

	t.Run("Unknown User", func(t *testing.T) {
		svc, _ := newAuthService(t, true)

		_, err := svc.Login(ctx, "ghost", "1234")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Stored Passcode Replaces Defaults", func(t *testing.T) {
		svc, st := newAuthService(t, true)
		require.NoError(t, svc.SetPasscode(ctx, meronID, "s3cure!", "s3cure!"))

		_, err := svc.Login(ctx, "meron", "1234")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = svc.Login(ctx, "meron", "meron123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		user, err := svc.Login(ctx, "meron", "s3cure!")
		require.NoError(t, err)
		assert.True(t, user.PasscodeSet)

		cred, err := st.GetCredential(meronID)
		require.NoError(t, err)
		assert.NotEqual(t, "s3cure!", cred.Hash)
	})

	t.Run("Delay Honors Context", func(t *testing.T) {
		svc, _ := newAuthService(t, true)
		svc.opts.LoginDelay = time.Hour

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := svc.Login(cancelled, "meron", "1234")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSetPasscode(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t, true)

	err := svc.SetPasscode(ctx, meronID, "s3cure!", "different")
	assert.ErrorIs(t, err, ErrValidation)

	err = svc.SetPasscode(ctx, meronID, "12", "12")
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.SetPasscode(ctx, meronID, "s3cure!", "s3cure!"))

	err = svc.SetPasscode(ctx, meronID, "another1", "another1")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestChangeSecret(t *testing.T) {
	ctx := context.Background()

	t.Run("Old Secret Must Match Even The First Time", func(t *testing.T) {
		svc, _ := newAuthService(t, true)

		ok, err := svc.ChangeSecret(ctx, meronID, "wrong", "newpass1")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = svc.Login(ctx, "meron", "newpass1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("From Default", func(t *testing.T) {
		svc, _ := newAuthService(t, true)

		ok, err := svc.ChangeSecret(ctx, meronID, "1234", "newpass1")
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = svc.Login(ctx, "meron", "newpass1")
		assert.NoError(t, err)
	})

	t.Run("From Stored Passcode", func(t *testing.T) {
		svc, _ := newAuthService(t, true)
		require.NoError(t, svc.SetPasscode(ctx, meronID, "first-pass", "first-pass"))

		ok, err := svc.ChangeSecret(ctx, meronID, "1234", "second-pass")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = svc.ChangeSecret(ctx, meronID, "first-pass", "second-pass")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("New Secret Validated", func(t *testing.T) {
		svc, _ := newAuthService(t, true)

		ok, err := svc.ChangeSecret(ctx, meronID, "1234", "123")
		assert.ErrorIs(t, err, ErrValidation)
		assert.False(t, ok)
	})

	t.Run("Unknown User", func(t *testing.T) {
		svc, _ := newAuthService(t, true)

		_, err := svc.ChangeSecret(ctx, "missing", "1234", "newpass1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAgreementAndRecoveryEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t, true)

	user, err := svc.AcceptAgreement(ctx, meronID)
	require.NoError(t, err)
	assert.True(t, user.AgreementAccepted)

	_, err = svc.LinkEmail(ctx, meronID, "meron@dukem.com")
	assert.ErrorIs(t, err, ErrValidation)

	user, err = svc.LinkEmail(ctx, meronID, "meron.getahun@gmail.com")
	require.NoError(t, err)
	assert.True(t, user.EmailLinked)
	assert.Equal(t, "meron.getahun@gmail.com", user.RecoveryEmail)
}

func TestTokens(t *testing.T) {
	ctx := context.Background()
	svc, st := newAuthService(t, true)

	user, err := svc.Login(ctx, "meron", "1234")
	require.NoError(t, err)

	pair, err := svc.IssueTokens(user)
	require.NoError(t, err)
	assert.Equal(t, int64(3600), pair.ExpiresIn)

	_, err = st.UpdateUser(ctx, meronID, func(u *models.User) error {
		u.Role = models.RoleCSM
		return nil
	})
	require.NoError(t, err)

	refreshed, refreshedUser, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCSM, refreshedUser.Role)

	claims, err := svc.tokens.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "CSM", claims.Role)

	_, _, err = svc.Refresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
