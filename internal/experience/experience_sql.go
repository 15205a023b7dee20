package experience

import (
	"context"

	"github.com/pot-code/wellbeing/internal/infrastructure/driver"
)

const experienceColumns = `user_id, date, total_experience, daily_experience, segments_completed, created_at, updated_at`

type ExperienceSQL struct {
	Conn driver.ITransactionalDB
}

var _ ExperienceRepository = &ExperienceSQL{}

func NewExperienceRepository(Conn driver.ITransactionalDB) *ExperienceSQL {
	return &ExperienceSQL{Conn}
}

func (repo *ExperienceSQL) FindByDate(ctx context.Context, userID, date string) (*ExperienceModel, error) {
	return repo.findOne(ctx, `SELECT `+experienceColumns+`
	FROM experience_record
	WHERE user_id=$1 AND date=$2`, userID, date)
}

func (repo *ExperienceSQL) FindLatestBefore(ctx context.Context, userID, date string) (*ExperienceModel, error) {
	return repo.findOne(ctx, `SELECT `+experienceColumns+`
	FROM experience_record
	WHERE user_id=$1 AND date<$2
	ORDER BY date DESC
	LIMIT 1`, userID, date)
}

func (repo *ExperienceSQL) FindLatestOnOrBefore(ctx context.Context, userID, date string) (*ExperienceModel, error) {
	return repo.findOne(ctx, `SELECT `+experienceColumns+`
	FROM experience_record
	WHERE user_id=$1 AND date<=$2
	ORDER BY date DESC
	LIMIT 1`, userID, date)
}

func (repo *ExperienceSQL) Insert(ctx context.Context, m *ExperienceModel) error {
	_, err := repo.Conn.ExecContext(ctx, `INSERT INTO experience_record(`+experienceColumns+`)
	VALUES($1,$2,$3,$4,$5,$6,$7)`,
		m.UserID, m.Date, m.TotalExperience, m.DailyExperience, m.SegmentsCompleted, m.CreatedAt, m.UpdatedAt)
	if driver.IsDuplicateKey(err) {
		return ErrDuplicatedRecord
	}
	return err
}

// Increment applies the award in one statement so concurrent awards never lose an update
func (repo *ExperienceSQL) Increment(ctx context.Context, userID, date string, amount int64, updatedAt int64) error {
	_, err := repo.Conn.ExecContext(ctx, `UPDATE experience_record
	SET daily_experience=daily_experience+$1,
		total_experience=total_experience+$2,
		segments_completed=segments_completed+1,
		updated_at=$3
	WHERE user_id=$4 AND date=$5`, amount, amount, updatedAt, userID, date)
	return err
}

func (repo *ExperienceSQL) RunInTx(ctx context.Context, fn func(repo ExperienceRepository) error) error {
	return driver.WithTransaction(ctx, repo.Conn, nil, func(tx driver.ITransactionalDB) error {
		return fn(&ExperienceSQL{tx})
	})
}

func (repo *ExperienceSQL) findOne(ctx context.Context, query string, args ...interface{}) (*ExperienceModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		m := new(ExperienceModel)
		if err := rows.Scan(&m.UserID, &m.Date, &m.TotalExperience, &m.DailyExperience,
			&m.SegmentsCompleted, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, rows.Err()
}
