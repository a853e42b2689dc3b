//go:build unit || e2e

package builder

import (
	"garage-booking/internal/domain/user"
	"garage-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type UserBuilder struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         string
	Name         string
	Phone        string
	IsActive     bool
}

func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		ID:           uuid.New(),
		Email:        "test@example.com",
		PasswordHash: "hashed_password",
		Role:         "customer",
		Name:         "Test Customer",
		Phone:        "+1-555-0100",
		IsActive:     true,
	}
}

func (u *UserBuilder) With(mutate func(*UserBuilder)) *UserBuilder {
	mutate(u)
	return u
}

func (u *UserBuilder) BuildDomain() (*user.User, error) {
	email, err := user.NewEmail(u.Email)
	if err != nil {
		return nil, err
	}

	role, err := user.NewRole(u.Role)
	if err != nil {
		return nil, err
	}

	return user.NewUser(email, u.PasswordHash, role, u.Name, u.Phone), nil
}

func (u *UserBuilder) BuildReadModel() *queries.AuthorizedUserView {
	return &queries.AuthorizedUserView{
		ID:       u.ID,
		Email:    u.Email,
		Role:     u.Role,
		Name:     u.Name,
		Phone:    u.Phone,
		IsActive: u.IsActive,
	}
}

// Fluent builder methods
func (u *UserBuilder) WithEmail(email string) *UserBuilder {
	u.Email = email
	return u
}

func (u *UserBuilder) WithRole(role string) *UserBuilder {
	u.Role = role
	return u
}

func (u *UserBuilder) WithPasswordHash(hash string) *UserBuilder {
	u.PasswordHash = hash
	return u
}

func (u *UserBuilder) AsStaff() *UserBuilder {
	u.Role = "staff"
	return u
}

func (u *UserBuilder) AsInactive() *UserBuilder {
	u.IsActive = false
	return u
}
