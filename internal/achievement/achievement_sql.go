package achievement

import (
	"context"

	"github.com/pot-code/wellbeing/internal/infrastructure/driver"
	"github.com/pot-code/wellbeing/internal/infrastructure/uuid"
)

const achievementColumns = `id, user_id, achievement_id, title, description, icon_code_point, icon_font_family,
	icon_font_package, achievement_type, required_value, is_unlocked, unlocked_at, created_at, updated_at`

const statsColumns = `user_id, daily_usage_date, consecutive_days, ai_chat_usage_count, app_blocking_count,
	low_screen_time_days, first_usage_date, total_usage_months, last_sync_date, created_at`

type AchievementSQL struct {
	Conn          driver.ITransactionalDB
	UUIDGenerator uuid.Generator
}

var _ AchievementRepository = &AchievementSQL{}

func NewAchievementRepository(Conn driver.ITransactionalDB, UUIDGenerator uuid.Generator) *AchievementSQL {
	return &AchievementSQL{Conn, UUIDGenerator}
}

func (repo *AchievementSQL) FindByUser(ctx context.Context, userID string) ([]*AchievementModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT `+achievementColumns+`
	FROM achievement WHERE user_id=$1
	ORDER BY created_at, achievement_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*AchievementModel{}
	for rows.Next() {
		m, err := scanAchievement(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (repo *AchievementSQL) FindByAchievementID(ctx context.Context, userID, achievementID string) (*AchievementModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT `+achievementColumns+`
	FROM achievement WHERE user_id=$1 AND achievement_id=$2`, userID, achievementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		return scanAchievement(rows)
	}
	return nil, rows.Err()
}

func (repo *AchievementSQL) Insert(ctx context.Context, m *AchievementModel) error {
	id, err := repo.UUIDGenerator.Generate()
	if err != nil {
		return err
	}
	m.ID = id

	_, err = repo.Conn.ExecContext(ctx, `INSERT INTO achievement(`+achievementColumns+`)
	VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		m.ID, m.UserID, m.AchievementID, m.Title, m.Description, m.IconCodePoint, m.IconFontFamily,
		m.IconFontPackage, m.AchievementType, m.RequiredValue, m.IsUnlocked, m.UnlockedAt, m.CreatedAt, m.UpdatedAt)
	if driver.IsDuplicateKey(err) {
		return ErrDuplicatedRecord
	}
	return err
}

func (repo *AchievementSQL) Update(ctx context.Context, m *AchievementModel) error {
	_, err := repo.Conn.ExecContext(ctx, `UPDATE achievement
	SET title=$1,
		description=$2,
		icon_code_point=$3,
		icon_font_family=$4,
		icon_font_package=$5,
		achievement_type=$6,
		required_value=$7,
		is_unlocked=$8,
		unlocked_at=$9,
		updated_at=$10
	WHERE user_id=$11 AND achievement_id=$12`,
		m.Title, m.Description, m.IconCodePoint, m.IconFontFamily, m.IconFontPackage, m.AchievementType,
		m.RequiredValue, m.IsUnlocked, m.UnlockedAt, m.UpdatedAt, m.UserID, m.AchievementID)
	return err
}

func (repo *AchievementSQL) FindStats(ctx context.Context, userID string) (*StatsModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT `+statsColumns+`
	FROM achievement_stats WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		s := new(StatsModel)
		if err := rows.Scan(&s.UserID, &s.DailyUsageDate, &s.ConsecutiveDays, &s.AIChatUsageCount,
			&s.AppBlockingCount, &s.LowScreenTimeDays, &s.FirstUsageDate, &s.TotalUsageMonths,
			&s.LastSyncDate, &s.CreatedAt); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, rows.Err()
}

func (repo *AchievementSQL) InsertStats(ctx context.Context, s *StatsModel) error {
	_, err := repo.Conn.ExecContext(ctx, `INSERT INTO achievement_stats(`+statsColumns+`)
	VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		s.UserID, s.DailyUsageDate, s.ConsecutiveDays, s.AIChatUsageCount, s.AppBlockingCount,
		s.LowScreenTimeDays, s.FirstUsageDate, s.TotalUsageMonths, s.LastSyncDate, s.CreatedAt)
	if driver.IsDuplicateKey(err) {
		return ErrDuplicatedRecord
	}
	return err
}

func (repo *AchievementSQL) UpdateStats(ctx context.Context, s *StatsModel) error {
	_, err := repo.Conn.ExecContext(ctx, `UPDATE achievement_stats
	SET daily_usage_date=$1,
		consecutive_days=$2,
		ai_chat_usage_count=$3,
		app_blocking_count=$4,
		low_screen_time_days=$5,
		first_usage_date=$6,
		total_usage_months=$7,
		last_sync_date=$8
	WHERE user_id=$9`,
		s.DailyUsageDate, s.ConsecutiveDays, s.AIChatUsageCount, s.AppBlockingCount, s.LowScreenTimeDays,
		s.FirstUsageDate, s.TotalUsageMonths, s.LastSyncDate, s.UserID)
	return err
}

func (repo *AchievementSQL) RunInTx(ctx context.Context, fn func(repo AchievementRepository) error) error {
	return driver.WithTransaction(ctx, repo.Conn, nil, func(tx driver.ITransactionalDB) error {
		return fn(&AchievementSQL{tx, repo.UUIDGenerator})
	})
}

func scanAchievement(rows driver.ISQLRows) (*AchievementModel, error) {
	m := new(AchievementModel)
	if err := rows.Scan(&m.ID, &m.UserID, &m.AchievementID, &m.Title, &m.Description, &m.IconCodePoint,
		&m.IconFontFamily, &m.IconFontPackage, &m.AchievementType, &m.RequiredValue, &m.IsUnlocked,
		&m.UnlockedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return m, nil
}
