package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pot-code/wellbeing/internal/infrastructure/clock"
	"github.com/pot-code/wellbeing/internal/infrastructure/driver"
	"go.elastic.co/apm"
	"golang.org/x/crypto/bcrypt"
)

const loginLockPrefix = "login_lock:"

// UserUseCaseImpl ...
type UserUseCaseImpl struct {
	UserRepository UserRepository
	KVStore        driver.KeyValueDB
	Clock          clock.Clock
	MaximumRetry   int           // failed logins before the lock, 0 disables it
	RetryTimeout   time.Duration // lock duration
	HashCost       int
}

var _ UserUseCase = &UserUseCaseImpl{}

// NewUserUseCase ...
func NewUserUseCase(
	UserRepository UserRepository,
	KVStore driver.KeyValueDB,
	Clock clock.Clock,
	MaximumRetry int,
	RetryTimeout time.Duration,
) *UserUseCaseImpl {
	return &UserUseCaseImpl{
		UserRepository: UserRepository,
		KVStore:        KVStore,
		Clock:          Clock,
		MaximumRetry:   MaximumRetry,
		RetryTimeout:   RetryTimeout,
		HashCost:       bcrypt.DefaultCost,
	}
}

// SignUp create a user, post.Password is replaced by its hash
func (uu *UserUseCaseImpl) SignUp(ctx context.Context, post *UserModel) (*UserModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.SignUp", "service")
	defer apmSpan.End()

	ur := uu.UserRepository
	post.Username = strings.TrimSpace(post.Username)
	post.Email = strings.ToLower(strings.TrimSpace(post.Email))

	// search for existence
	if m, err := ur.FindByUsernameOrEmail(ctx, post.Username, post.Email); err != nil {
		return nil, err
	} else if m != nil {
		return nil, ErrDuplicatedUser
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(post.Password), uu.HashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	post.Password = string(hashed)
	post.CreatedAt = clock.Millis(uu.Clock.Now())

	if err := ur.SaveUser(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// SignIn check the credential, locking the account after MaximumRetry failures
func (uu *UserUseCaseImpl) SignIn(ctx context.Context, credential, password string) (*UserModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.SignIn", "service")
	defer apmSpan.End()

	ur := uu.UserRepository
	user, err := ur.FindByCredential(ctx, strings.TrimSpace(credential))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNoSuchUser
	}

	lockKey := loginLockPrefix + user.ID
	if uu.MaximumRetry > 0 && user.LoginRetry >= uu.MaximumRetry {
		locked, err := uu.KVStore.Exists(lockKey)
		if err != nil {
			return nil, err
		}
		if locked {
			return nil, ErrUserTooManyRetry
		}
		// lock expired
		user.LoginRetry = 0
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, fmt.Errorf("compare password: %w", err)
		}
		user.LoginRetry++
		if err := ur.UpdateLogin(ctx, user); err != nil {
			return nil, err
		}
		if uu.MaximumRetry > 0 && user.LoginRetry >= uu.MaximumRetry {
			if err := uu.KVStore.SetEX(lockKey, user.ID, uu.RetryTimeout); err != nil {
				return nil, err
			}
		}
		return nil, ErrNoSuchUser
	}

	// reset retry number
	now := clock.Millis(uu.Clock.Now())
	user.LoginRetry = 0
	user.LastLogin = &now
	if err := ur.UpdateLogin(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Exists find if user exists in database
func (uu *UserUseCaseImpl) Exists(ctx context.Context, username, email string) (bool, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.Exists", "service")
	defer apmSpan.End()

	user, err := uu.UserRepository.FindByUsernameOrEmail(ctx, username, strings.ToLower(email))
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

func (uu *UserUseCaseImpl) GetByID(ctx context.Context, id string) (*UserModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.GetByID", "service")
	defer apmSpan.End()

	user, err := uu.UserRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}
