package user

import (
	"context"

	"github.com/pot-code/wellbeing/internal/infrastructure/driver"
	"github.com/pot-code/wellbeing/internal/infrastructure/uuid"
)

const userColumns = `id, username, password, email, login_retry, last_login, created_at`

type UserSQL struct {
	Conn          driver.ITransactionalDB
	UUIDGenerator uuid.Generator
}

var _ UserRepository = &UserSQL{}

func NewUserRepository(Conn driver.ITransactionalDB, UUIDGenerator uuid.Generator) *UserSQL {
	return &UserSQL{Conn, UUIDGenerator}
}

// FindByCredential query user with provided credential
func (repo *UserSQL) FindByCredential(ctx context.Context, credential string) (*UserModel, error) {
	return repo.findOne(ctx, `SELECT `+userColumns+`
	FROM app_user WHERE username=$1 OR email=$2`, credential, credential)
}

func (repo *UserSQL) FindByUsernameOrEmail(ctx context.Context, username, email string) (*UserModel, error) {
	return repo.findOne(ctx, `SELECT `+userColumns+`
	FROM app_user WHERE username=$1 OR email=$2`, username, email)
}

func (repo *UserSQL) FindByID(ctx context.Context, id string) (*UserModel, error) {
	return repo.findOne(ctx, `SELECT `+userColumns+`
	FROM app_user WHERE id=$1`, id)
}

func (repo *UserSQL) SaveUser(ctx context.Context, post *UserModel) error {
	id, err := repo.UUIDGenerator.Generate()
	if err != nil {
		return err
	}
	post.ID = id

	_, err = repo.Conn.ExecContext(ctx, `INSERT INTO app_user(`+userColumns+`)
	VALUES($1,$2,$3,$4,$5,$6,$7)`,
		post.ID, post.Username, post.Password, post.Email, post.LoginRetry, post.LastLogin, post.CreatedAt)
	if driver.IsDuplicateKey(err) {
		return ErrDuplicatedUser
	}
	return err
}

func (repo *UserSQL) UpdateLogin(ctx context.Context, post *UserModel) error {
	_, err := repo.Conn.ExecContext(ctx, `UPDATE app_user
	SET login_retry=$1,
		last_login=$2
	WHERE id=$3`, post.LoginRetry, post.LastLogin, post.ID)
	return err
}

func (repo *UserSQL) findOne(ctx context.Context, query string, args ...interface{}) (*UserModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		user := new(UserModel)
		if err := rows.Scan(&user.ID, &user.Username, &user.Password, &user.Email,
			&user.LoginRetry, &user.LastLogin, &user.CreatedAt); err != nil {
			return nil, err
		}
		return user, nil
	}
	return nil, rows.Err()
}
