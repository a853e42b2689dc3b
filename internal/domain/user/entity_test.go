//go:build unit

package user_test

import (
	"testing"

	"garage-booking/internal/domain/user"
	"garage-booking/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCase struct {
	name   string
	mutate func(*builder.UserBuilder)
	errIs  error
}

func TestUser(t *testing.T) {
	t.Run("basic success case", func(t *testing.T) {
		actual, err := builder.NewUserBuilder().BuildDomain()
		require.NoError(t, err)
		require.NotNil(t, actual)

		assert.NotEqual(t, uuid.Nil, actual.ID())
		assert.Equal(t, "test@example.com", actual.Email().Value())
		assert.Equal(t, user.RoleCustomer, actual.Role())
		assert.True(t, actual.IsActive())
	})

	t.Run("email validation", func(t *testing.T) {
		runCases(t, []testCase{
			{
				name:   "plain address",
				mutate: func(b *builder.UserBuilder) { b.WithEmail("mechanic@garage.example") },
			},
			{
				name:   "subaddressed local part",
				mutate: func(b *builder.UserBuilder) { b.WithEmail("user+booking@example.com") },
			},
			{
				name:   "missing at sign",
				mutate: func(b *builder.UserBuilder) { b.WithEmail("not-an-email") },
				errIs:  user.ErrInvalidEmail,
			},
			{
				name:   "missing top level domain",
				mutate: func(b *builder.UserBuilder) { b.WithEmail("user@host") },
				errIs:  user.ErrInvalidEmail,
			},
			{
				name:   "empty email",
				mutate: func(b *builder.UserBuilder) { b.WithEmail("") },
				errIs:  user.ErrInvalidEmail,
			},
		})
	})

	t.Run("role validation", func(t *testing.T) {
		runCases(t, []testCase{
			{
				name:   "customer role",
				mutate: func(b *builder.UserBuilder) { b.WithRole("customer") },
			},
			{
				name:   "staff role",
				mutate: func(b *builder.UserBuilder) { b.WithRole("staff") },
			},
			{
				name:   "admin role",
				mutate: func(b *builder.UserBuilder) { b.WithRole("admin") },
			},
			{
				name:   "unknown role",
				mutate: func(b *builder.UserBuilder) { b.WithRole("manager") },
				errIs:  user.ErrInvalidRole,
			},
			{
				name:   "empty role",
				mutate: func(b *builder.UserBuilder) { b.WithRole("") },
				errIs:  user.ErrInvalidRole,
			},
		})
	})
}

func TestRoleIsStaff(t *testing.T) {
	assert.False(t, user.RoleCustomer.IsStaff())
	assert.True(t, user.RoleStaff.IsStaff())
	assert.True(t, user.RoleAdmin.IsStaff())
}

func TestNewCredentials(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		creds, err := user.NewCredentials("test@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, "test@example.com", creds.Email().Value())
		assert.Equal(t, "password123", creds.Password().Value())
	})

	t.Run("short password", func(t *testing.T) {
		_, err := user.NewCredentials("test@example.com", "short")
		require.ErrorIs(t, err, user.ErrPasswordTooWeak)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := user.NewCredentials("bad", "password123")
		require.ErrorIs(t, err, user.ErrInvalidEmail)
	})
}

func runCases(t *testing.T, cases []testCase) {
	t.Helper()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			actual, err := builder.NewUserBuilder().With(c.mutate).BuildDomain()

			if c.errIs == nil {
				require.NotNil(t, actual)
				require.NoError(t, err)
			} else {
				require.Nil(t, actual)
				require.Error(t, err)
				require.ErrorIs(t, err, c.errIs)
			}
		})
	}
}
