package note

import (
	"context"
	"errors"
)

var (
	// ErrNotFound note does not exist or belongs to another user
	ErrNotFound = errors.New("daily note not found")
	// ErrDuplicatedNote a note for that date already exists
	ErrDuplicatedNote = errors.New("a note for this date already exists")
)

type NoteModel struct {
	ID        string `json:"id"`
	UserID    string `json:"-"`
	Date      string `json:"date" validate:"required,date"`
	Mood      int    `json:"mood" validate:"required,min=1,max=5"`
	Note      string `json:"note" validate:"max=10000"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type NoteRepository interface {
	// FindByUser newest date first
	FindByUser(ctx context.Context, userID string) ([]*NoteModel, error)
	FindByID(ctx context.Context, userID, id string) (*NoteModel, error)
	FindByDate(ctx context.Context, userID, date string) (*NoteModel, error)
	// Save and Update return ErrDuplicatedNote when the date is taken
	Save(ctx context.Context, m *NoteModel) error
	Update(ctx context.Context, m *NoteModel) error
	Delete(ctx context.Context, userID, id string) error
}

type NoteUseCase interface {
	List(ctx context.Context, userID string) ([]*NoteModel, error)
	Create(ctx context.Context, userID string, post *NoteModel) (*NoteModel, error)
	Get(ctx context.Context, userID, id string) (*NoteModel, error)
	GetByDate(ctx context.Context, userID, date string) (*NoteModel, error)
	Update(ctx context.Context, userID, id string, post *NoteModel) (*NoteModel, error)
	Delete(ctx context.Context, userID, id string) error
}
