package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/pos-backend/internal/domain/user"
	"github.com/your-org/pos-backend/internal/pkg/auth"
	"github.com/your-org/pos-backend/internal/testutil/pgtest"
)

func TestUserServices_Integration(t *testing.T) {
	db := pgtest.Start(t)
	cfg := pgtest.Config()
	ctx := context.Background()

	admin := user.NewAdminService(db, cfg)
	svc := user.NewService(db, cfg)

	boss, err := admin.CreateUser(ctx, &user.CreateUserRequest{
		Username: "boss", Email: "boss@example.com", Password: "secret1", Role: user.RoleAdmin,
	})
	require.NoError(t, err)

	t.Run("login issues a token carrying the role", func(t *testing.T) {
		resp, err := svc.Login(ctx, &user.LoginRequest{Username: "boss", Password: "secret1"})
		require.NoError(t, err)
		assert.NotNil(t, resp.User.LastLoginAt)

		claims, err := auth.NewJWTManager(cfg).ValidateToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, boss.ID, claims.UserID)
		assert.True(t, claims.IsAdmin())
	})

	t.Run("bad credentials look the same as unknown users", func(t *testing.T) {
		_, err := svc.Login(ctx, &user.LoginRequest{Username: "boss", Password: "wrong!!"})
		assert.ErrorIs(t, err, user.ErrInvalidCredentials)

		_, err = svc.Login(ctx, &user.LoginRequest{Username: "ghost", Password: "secret1"})
		assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	})

	t.Run("duplicate username is rejected", func(t *testing.T) {
		_, err := admin.CreateUser(ctx, &user.CreateUserRequest{
			Username: "boss", Email: "other@example.com", Password: "secret1",
		})
		assert.ErrorIs(t, err, user.ErrDuplicateUser)
	})

	t.Run("profile password change needs the current password", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, boss.ID, &user.ProfileUpdateRequest{
			Username: "boss", Email: "boss@example.com", NewPassword: "secret2",
		})
		assert.ErrorIs(t, err, user.ErrCurrentPasswordEmpty)

		_, err = svc.UpdateProfile(ctx, boss.ID, &user.ProfileUpdateRequest{
			Username: "boss", Email: "boss@example.com", CurrentPassword: "nope", NewPassword: "secret2",
		})
		assert.ErrorIs(t, err, user.ErrWrongPassword)

		profile, err := svc.UpdateProfile(ctx, boss.ID, &user.ProfileUpdateRequest{
			Username: "boss", Email: "boss@example.com", CurrentPassword: "secret1", NewPassword: "secret2",
		})
		require.NoError(t, err)
		assert.Zero(t, profile.TotalSales)

		_, err = svc.Login(ctx, &user.LoginRequest{Username: "boss", Password: "secret2"})
		assert.NoError(t, err)
	})

	t.Run("admins cannot delete themselves", func(t *testing.T) {
		assert.ErrorIs(t, admin.DeleteUser(ctx, boss.ID, boss.ID), user.ErrCannotDeleteSelf)

		till, err := admin.CreateUser(ctx, &user.CreateUserRequest{
			Username: "till", Email: "till@example.com", Password: "secret1",
		})
		require.NoError(t, err)
		assert.Equal(t, user.RoleCashier, till.Role)

		require.NoError(t, admin.DeleteUser(ctx, till.ID, boss.ID))
		assert.ErrorIs(t, admin.DeleteUser(ctx, till.ID, boss.ID), user.ErrUserNotFound)
	})

	t.Run("list carries sales totals", func(t *testing.T) {
		users, err := admin.GetUsers(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, users)
		for _, u := range users {
			assert.True(t, u.TotalRevenue.IsZero())
		}
	})
}
