package habit

import (
	"context"
	"errors"
)

// habit types
const (
	TypeGood = "good"
	TypeBad  = "bad"
)

// DefaultIcon icon used when the client sends none
const DefaultIcon = "default"

// ErrNotFound habit does not exist or belongs to another user
var ErrNotFound = errors.New("habit not found")

type HabitModel struct {
	ID        string `json:"id"`
	UserID    string `json:"-"`
	Name      string `json:"name" validate:"required,max=100"`
	HabitType string `json:"habit_type" validate:"required,oneof=good bad"`
	StartDate int64  `json:"start_date" validate:"min=0"` // unix millis, 0 means now
	IconName  string `json:"icon_name" validate:"max=50"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type HabitRepository interface {
	// FindByUser list the user's habits newest first, habitType filters when not empty
	FindByUser(ctx context.Context, userID, habitType string) ([]*HabitModel, error)
	FindByID(ctx context.Context, userID, id string) (*HabitModel, error)
	Save(ctx context.Context, m *HabitModel) error
	// Update and Delete return ErrNotFound when no owned row matched
	Update(ctx context.Context, m *HabitModel) error
	Delete(ctx context.Context, userID, id string) error
}

type HabitUseCase interface {
	List(ctx context.Context, userID, habitType string) ([]*HabitModel, error)
	Create(ctx context.Context, userID string, post *HabitModel) (*HabitModel, error)
	Get(ctx context.Context, userID, id string) (*HabitModel, error)
	Update(ctx context.Context, userID, id string, post *HabitModel) (*HabitModel, error)
	Delete(ctx context.Context, userID, id string) error
	Reset(ctx context.Context, userID, id string) (*HabitModel, error)
}
