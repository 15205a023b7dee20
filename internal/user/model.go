package user

import (
	"context"
	"errors"
)

var (
	// ErrDuplicatedUser unique key constraint violation
	ErrDuplicatedUser = errors.New("username or email is already registered")
	// ErrNoSuchUser failed to validate the credential
	ErrNoSuchUser = errors.New("no such user or password is incorrect")
	// ErrUserTooManyRetry login is locked after too many failures
	ErrUserTooManyRetry = errors.New("too many failed login attempts, try again later")
	// ErrNotFound user id does not exist
	ErrNotFound = errors.New("user not found")
)

type UserModel struct {
	ID         string `json:"id"`
	Username   string `json:"username" validate:"required,min=3,max=32"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password,omitempty" validate:"required,min=8,max=72"`
	LoginRetry int    `json:"-"`
	LastLogin  *int64 `json:"last_login"`
	CreatedAt  int64  `json:"created_at"`
}

type UserRepository interface {
	// FindByCredential match credential against username or email
	FindByCredential(ctx context.Context, credential string) (*UserModel, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*UserModel, error)
	FindByID(ctx context.Context, id string) (*UserModel, error)
	SaveUser(ctx context.Context, post *UserModel) error
	UpdateLogin(ctx context.Context, post *UserModel) error
}

type UserUseCase interface {
	SignUp(ctx context.Context, post *UserModel) (*UserModel, error)
	SignIn(ctx context.Context, credential, password string) (*UserModel, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	GetByID(ctx context.Context, id string) (*UserModel, error)
}
