package note

import (
	"context"
	"database/sql"

	"github.com/pot-code/wellbeing/internal/infrastructure/driver"
	"github.com/pot-code/wellbeing/internal/infrastructure/uuid"
)

const noteColumns = `id, user_id, date, mood, note, created_at, updated_at`

type NoteSQL struct {
	Conn          driver.ITransactionalDB
	UUIDGenerator uuid.Generator
}

var _ NoteRepository = &NoteSQL{}

func NewNoteRepository(Conn driver.ITransactionalDB, UUIDGenerator uuid.Generator) *NoteSQL {
	return &NoteSQL{Conn, UUIDGenerator}
}

func (repo *NoteSQL) FindByUser(ctx context.Context, userID string) ([]*NoteModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT `+noteColumns+`
	FROM daily_note WHERE user_id=$1
	ORDER BY date DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*NoteModel{}
	for rows.Next() {
		m, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (repo *NoteSQL) FindByID(ctx context.Context, userID, id string) (*NoteModel, error) {
	return repo.findOne(ctx, `SELECT `+noteColumns+`
	FROM daily_note WHERE id=$1 AND user_id=$2`, id, userID)
}

func (repo *NoteSQL) FindByDate(ctx context.Context, userID, date string) (*NoteModel, error) {
	return repo.findOne(ctx, `SELECT `+noteColumns+`
	FROM daily_note WHERE user_id=$1 AND date=$2`, userID, date)
}

func (repo *NoteSQL) Save(ctx context.Context, m *NoteModel) error {
	id, err := repo.UUIDGenerator.Generate()
	if err != nil {
		return err
	}
	m.ID = id

	_, err = repo.Conn.ExecContext(ctx, `INSERT INTO daily_note(`+noteColumns+`)
	VALUES($1,$2,$3,$4,$5,$6,$7)`, m.ID, m.UserID, m.Date, m.Mood, m.Note, m.CreatedAt, m.UpdatedAt)
	if driver.IsDuplicateKey(err) {
		return ErrDuplicatedNote
	}
	return err
}

func (repo *NoteSQL) Update(ctx context.Context, m *NoteModel) error {
	res, err := repo.Conn.ExecContext(ctx, `UPDATE daily_note
	SET date=$1,
		mood=$2,
		note=$3,
		updated_at=$4
	WHERE id=$5 AND user_id=$6`, m.Date, m.Mood, m.Note, m.UpdatedAt, m.ID, m.UserID)
	if driver.IsDuplicateKey(err) {
		return ErrDuplicatedNote
	}
	return affectedOne(res, err)
}

func (repo *NoteSQL) Delete(ctx context.Context, userID, id string) error {
	res, err := repo.Conn.ExecContext(ctx, `DELETE FROM daily_note WHERE id=$1 AND user_id=$2`, id, userID)
	return affectedOne(res, err)
}

func (repo *NoteSQL) findOne(ctx context.Context, query string, args ...interface{}) (*NoteModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		return scanNote(rows)
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

func scanNote(rows driver.ISQLRows) (*NoteModel, error) {
	m := new(NoteModel)
	if err := rows.Scan(&m.ID, &m.UserID, &m.Date, &m.Mood, &m.Note, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return m, nil
}
