package achievement

import (
	"context"
	"errors"
)

// ErrDuplicatedRecord lost an insert race on a unique key
var ErrDuplicatedRecord = errors.New("duplicated record")

// AchievementModel a client defined achievement, keyed by (user, achievement_id)
type AchievementModel struct {
	ID              string  `json:"id"`
	UserID          string  `json:"-"`
	AchievementID   string  `json:"achievement_id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	IconCodePoint   int64   `json:"icon_code_point"`
	IconFontFamily  *string `json:"icon_font_family"`
	IconFontPackage *string `json:"icon_font_package"`
	AchievementType string  `json:"achievement_type"`
	RequiredValue   int64   `json:"required_value"`
	IsUnlocked      bool    `json:"is_unlocked"`
	UnlockedAt      *int64  `json:"unlocked_at"`
	CreatedAt       int64   `json:"created_at"`
	UpdatedAt       int64   `json:"updated_at"`
}

// AchievementPost one entry of the sync payload, id is the client side achievement id
type AchievementPost struct {
	ID              string  `json:"id" validate:"required,max=255"`
	Title           string  `json:"title" validate:"required,max=255"`
	Description     string  `json:"description" validate:"max=2000"`
	IconCodePoint   int64   `json:"icon_code_point" validate:"min=0"`
	IconFontFamily  *string `json:"icon_font_family" validate:"omitempty,max=255"`
	IconFontPackage *string `json:"icon_font_package" validate:"omitempty,max=255"`
	Type            string  `json:"type" validate:"required,max=255"`
	RequiredValue   int64   `json:"required_value" validate:"min=0"`
	IsUnlocked      bool    `json:"is_unlocked"`
	UnlockedAt      *int64  `json:"unlocked_at"`
}

type SyncPost struct {
	Achievements []*AchievementPost `json:"achievements" validate:"required,dive,required"`
}

// StatsModel per-user counters the client evaluates achievements with
type StatsModel struct {
	UserID            string  `json:"-"`
	DailyUsageDate    *string `json:"daily_usage_date" validate:"omitempty,date"`
	ConsecutiveDays   int64   `json:"consecutive_days" validate:"min=0"`
	AIChatUsageCount  int64   `json:"ai_chat_usage_count" validate:"min=0"`
	AppBlockingCount  int64   `json:"app_blocking_count" validate:"min=0"`
	LowScreenTimeDays int64   `json:"low_screen_time_days" validate:"min=0"`
	FirstUsageDate    *string `json:"first_usage_date" validate:"omitempty,date"`
	TotalUsageMonths  int64   `json:"total_usage_months" validate:"min=0"`
	LastSyncDate      *int64  `json:"last_sync_date"`
	CreatedAt         int64   `json:"created_at"`
}

type AchievementRepository interface {
	FindByUser(ctx context.Context, userID string) ([]*AchievementModel, error)
	FindByAchievementID(ctx context.Context, userID, achievementID string) (*AchievementModel, error)
	// Insert returns ErrDuplicatedRecord when (user, achievement_id) exists
	Insert(ctx context.Context, m *AchievementModel) error
	Update(ctx context.Context, m *AchievementModel) error
	FindStats(ctx context.Context, userID string) (*StatsModel, error)
	// InsertStats returns ErrDuplicatedRecord when the user already has a row
	InsertStats(ctx context.Context, s *StatsModel) error
	UpdateStats(ctx context.Context, s *StatsModel) error
	RunInTx(ctx context.Context, fn func(repo AchievementRepository) error) error
}

type AchievementUseCase interface {
	List(ctx context.Context, userID string) ([]*AchievementModel, error)
	// Sync upserts every entry and returns them in payload order
	Sync(ctx context.Context, userID string, posts []*AchievementPost) ([]*AchievementModel, error)
	GetStats(ctx context.Context, userID string) (*StatsModel, error)
	SaveStats(ctx context.Context, userID string, post *StatsModel) (*StatsModel, error)
}
