package timeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/pot-code/wellbeing/internal/infrastructure/driver"
)

var (
	segmentColumns  = buildSegmentColumns()
	timelineColumns = `user_id, date, ` + strings.Join(segmentColumns, ", ") +
		`, total_useful_seconds, total_harmful_seconds, total_screen_time_seconds, sessions_count, version, created_at, updated_at`
)

func buildSegmentColumns() []string {
	cols := make([]string, 0, SegmentCount*2)
	for i := 0; i < SegmentCount; i++ {
		cols = append(cols, fmt.Sprintf("segment_%d_useful", i), fmt.Sprintf("segment_%d_harmful", i))
	}
	return cols
}

// placeholders returns "$from, $from+1, ..." n times
func placeholders(from, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ph, ", ")
}

type TimelineSQL struct {
	Conn driver.ITransactionalDB
}

var _ TimelineRepository = &TimelineSQL{}

func NewTimelineRepository(Conn driver.ITransactionalDB) *TimelineSQL {
	return &TimelineSQL{Conn}
}

func (repo *TimelineSQL) FindByDate(ctx context.Context, userID, date string) (*TimelineModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT `+timelineColumns+`
	FROM timeline_record
	WHERE user_id=$1 AND date=$2`, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	m := new(TimelineModel)
	dest := []interface{}{&m.UserID, &m.Date}
	for i := range m.Segments {
		dest = append(dest, &m.Segments[i].UsefulSeconds, &m.Segments[i].HarmfulSeconds)
	}
	dest = append(dest, &m.TotalUsefulSeconds, &m.TotalHarmfulSeconds, &m.TotalScreenTimeSeconds,
		&m.SessionsCount, &m.Version, &m.CreatedAt, &m.UpdatedAt)
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	return m, nil
}

func (repo *TimelineSQL) Insert(ctx context.Context, m *TimelineModel) error {
	args := []interface{}{m.UserID, m.Date}
	args = append(args, segmentArgs(m)...)
	args = append(args, m.TotalUsefulSeconds, m.TotalHarmfulSeconds, m.TotalScreenTimeSeconds,
		m.SessionsCount, m.Version, m.CreatedAt, m.UpdatedAt)

	_, err := repo.Conn.ExecContext(ctx, `INSERT INTO timeline_record(`+timelineColumns+`)
	VALUES(`+placeholders(1, len(args))+`)`, args...)
	if driver.IsDuplicateKey(err) {
		return ErrDuplicatedRecord
	}
	return err
}

// Update writes every segment and total in one statement guarded by the version read earlier
func (repo *TimelineSQL) Update(ctx context.Context, m *TimelineModel) error {
	sets := make([]string, 0, len(segmentColumns)+5)
	for i, col := range segmentColumns {
		sets = append(sets, fmt.Sprintf("%s=$%d", col, i+1))
	}
	n := len(segmentColumns)
	sets = append(sets,
		fmt.Sprintf("total_useful_seconds=$%d", n+1),
		fmt.Sprintf("total_harmful_seconds=$%d", n+2),
		fmt.Sprintf("total_screen_time_seconds=$%d", n+3),
		fmt.Sprintf("sessions_count=$%d", n+4),
		fmt.Sprintf("updated_at=$%d", n+5),
		"version=version+1",
	)
	query := fmt.Sprintf(`UPDATE timeline_record SET %s WHERE user_id=$%d AND date=$%d AND version=$%d`,
		strings.Join(sets, ", "), n+6, n+7, n+8)

	args := segmentArgs(m)
	args = append(args, m.TotalUsefulSeconds, m.TotalHarmfulSeconds, m.TotalScreenTimeSeconds,
		m.SessionsCount, m.UpdatedAt, m.UserID, m.Date, m.Version)
	res, err := repo.Conn.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStaleVersion
	}
	m.Version++
	return nil
}

func segmentArgs(m *TimelineModel) []interface{} {
	args := make([]interface{}, 0, SegmentCount*2)
	for _, s := range m.Segments {
		args = append(args, s.UsefulSeconds, s.HarmfulSeconds)
	}
	return args
}
