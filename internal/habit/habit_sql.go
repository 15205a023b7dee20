package habit

import (
	"context"

	"github.com/pot-code/wellbeing/internal/infrastructure/driver"
	"github.com/pot-code/wellbeing/internal/infrastructure/uuid"
)

const habitColumns = `id, user_id, name, habit_type, start_date, icon_name, created_at, updated_at`

type HabitSQL struct {
	Conn          driver.ITransactionalDB
	UUIDGenerator uuid.Generator
}

var _ HabitRepository = &HabitSQL{}

func NewHabitRepository(Conn driver.ITransactionalDB, UUIDGenerator uuid.Generator) *HabitSQL {
	return &HabitSQL{Conn, UUIDGenerator}
}

func (repo *HabitSQL) FindByUser(ctx context.Context, userID, habitType string) ([]*HabitModel, error) {
	query := `SELECT ` + habitColumns + ` FROM habit WHERE user_id=$1`
	args := []interface{}{userID}
	if habitType != "" {
		query += ` AND habit_type=$2`
		args = append(args, habitType)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := repo.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*HabitModel{}
	for rows.Next() {
		m, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (repo *HabitSQL) FindByID(ctx context.Context, userID, id string) (*HabitModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT `+habitColumns+`
	FROM habit WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		return scanHabit(rows)
	}
	return nil, rows.Err()
}

func (repo *HabitSQL) Save(ctx context.Context, m *HabitModel) error {
	id, err := repo.UUIDGenerator.Generate()
	if err != nil {
		return err
	}
	m.ID = id

	_, err = repo.Conn.ExecContext(ctx, `INSERT INTO habit(`+habitColumns+`)
	VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		m.ID, m.UserID, m.Name, m.HabitType, m.StartDate, m.IconName, m.CreatedAt, m.UpdatedAt)
	return err
}

func (repo *HabitSQL) Update(ctx context.Context, m *HabitModel) error {
	res, err := repo.Conn.ExecContext(ctx, `UPDATE habit
	SET name=$1,
		habit_type=$2,
		start_date=$3,
		icon_name=$4,
		updated_at=$5
	WHERE id=$6 AND user_id=$7`, m.Name, m.HabitType, m.StartDate, m.IconName, m.UpdatedAt, m.ID, m.UserID)
	return affectedOne(res, err)
}

func (repo *HabitSQL) Delete(ctx context.Context, userID, id string) error {
	res, err := repo.Conn.ExecContext(ctx, `DELETE FROM habit WHERE id=$1 AND user_id=$2`, id, userID)
	return affectedOne(res, err)
}

type affectedResult interface {
	RowsAffected() (int64, error)
}

func affectedOne(res affectedResult, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanHabit(rows driver.ISQLRows) (*HabitModel, error) {
	m := new(HabitModel)
	if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.HabitType, &m.StartDate,
		&m.IconName, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return m, nil
}
