package appusage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pot-code/wellbeing/internal/infrastructure/driver"
	"github.com/pot-code/wellbeing/internal/infrastructure/uuid"
)

const appColumns = `id, user_id, package_name, app_name, category, icon_base64, total_usage_seconds, first_seen, last_used`

type AppUsageSQL struct {
	Conn          driver.ITransactionalDB
	UUIDGenerator uuid.Generator
}

var _ AppUsageRepository = &AppUsageSQL{}

func NewAppUsageRepository(Conn driver.ITransactionalDB, UUIDGenerator uuid.Generator) *AppUsageSQL {
	return &AppUsageSQL{Conn, UUIDGenerator}
}

func (repo *AppUsageSQL) FindByUser(ctx context.Context, userID string) ([]*TrackedAppModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT `+appColumns+`
	FROM tracked_app WHERE user_id=$1
	ORDER BY last_used DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*TrackedAppModel{}
	for rows.Next() {
		m, err := scanApp(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (repo *AppUsageSQL) FindByID(ctx context.Context, userID, id string) (*TrackedAppModel, error) {
	return repo.findOne(ctx, `SELECT `+appColumns+`
	FROM tracked_app WHERE id=$1 AND user_id=$2`, id, userID)
}

func (repo *AppUsageSQL) FindByPackage(ctx context.Context, userID, packageName string) (*TrackedAppModel, error) {
	return repo.findOne(ctx, `SELECT `+appColumns+`
	FROM tracked_app WHERE user_id=$1 AND package_name=$2`, userID, packageName)
}

func (repo *AppUsageSQL) Insert(ctx context.Context, m *TrackedAppModel) error {
	id, err := repo.UUIDGenerator.Generate()
	if err != nil {
		return err
	}
	m.ID = id

	_, err = repo.Conn.ExecContext(ctx, `INSERT INTO tracked_app(`+appColumns+`)
	VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		m.ID, m.UserID, m.PackageName, m.AppName, m.Category, m.IconBase64, m.TotalUsageSeconds, m.FirstSeen, m.LastUsed)
	if driver.IsDuplicateKey(err) {
		return ErrDuplicatedRecord
	}
	return err
}

func (repo *AppUsageSQL) Refresh(ctx context.Context, m *TrackedAppModel) error {
	res, err := repo.Conn.ExecContext(ctx, `UPDATE tracked_app
	SET app_name=$1,
		icon_base64=$2,
		last_used=$3
	WHERE id=$4 AND user_id=$5`, m.AppName, m.IconBase64, m.LastUsed, m.ID, m.UserID)
	return affectedOne(res, err)
}

func (repo *AppUsageSQL) UpdateCategory(ctx context.Context, userID, id, category string) error {
	res, err := repo.Conn.ExecContext(ctx, `UPDATE tracked_app SET category=$1 WHERE id=$2 AND user_id=$3`,
		category, id, userID)
	return affectedOne(res, err)
}

func (repo *AppUsageSQL) IncrementDaily(ctx context.Context, appID, date string, seconds, sessions int64) (bool, error) {
	res, err := repo.Conn.ExecContext(ctx, `UPDATE app_usage_record
	SET usage_seconds=usage_seconds+$1,
		sessions_count=sessions_count+$2
	WHERE app_id=$3 AND date=$4`, seconds, sessions, appID, date)
	if err := affectedOne(res, err); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (repo *AppUsageSQL) InsertDaily(ctx context.Context, u *DailyUsage) error {
	_, err := repo.Conn.ExecContext(ctx, `INSERT INTO app_usage_record(app_id, date, usage_seconds, sessions_count)
	VALUES($1,$2,$3,$4)`, u.AppID, u.Date, u.UsageSeconds, u.SessionsCount)
	if driver.IsDuplicateKey(err) {
		return ErrDuplicatedRecord
	}
	return err
}

func (repo *AppUsageSQL) IncrementTotal(ctx context.Context, appID string, seconds, lastUsed int64) error {
	_, err := repo.Conn.ExecContext(ctx, `UPDATE tracked_app
	SET total_usage_seconds=total_usage_seconds+$1,
		last_used=$2
	WHERE id=$3`, seconds, lastUsed, appID)
	return err
}

func (repo *AppUsageSQL) UsageBetween(ctx context.Context, userID, from, to string) ([]*DailyUsage, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT r.app_id, r.date, r.usage_seconds, r.sessions_count
	FROM app_usage_record r
	INNER JOIN tracked_app a ON a.id=r.app_id
	WHERE a.user_id=$1 AND r.date>=$2 AND r.date<=$3`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*DailyUsage
	for rows.Next() {
		u := new(DailyUsage)
		if err := rows.Scan(&u.AppID, &u.Date, &u.UsageSeconds, &u.SessionsCount); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (repo *AppUsageSQL) RunInTx(ctx context.Context, fn func(repo AppUsageRepository) error) error {
	return driver.WithTransaction(ctx, repo.Conn, nil, func(tx driver.ITransactionalDB) error {
		return fn(&AppUsageSQL{tx, repo.UUIDGenerator})
	})
}

func (repo *AppUsageSQL) findOne(ctx context.Context, query string, args ...interface{}) (*TrackedAppModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		return scanApp(rows)
	}
	return nil, rows.Err()
}

func affectedOne(res sql.Result, err error) error {
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

func scanApp(rows driver.ISQLRows) (*TrackedAppModel, error) {
	m := new(TrackedAppModel)
	if err := rows.Scan(&m.ID, &m.UserID, &m.PackageName, &m.AppName, &m.Category, &m.IconBase64,
		&m.TotalUsageSeconds, &m.FirstSeen, &m.LastUsed); err != nil {
		return nil, err
	}
	return m, nil
}
