package experience

import (
	"context"
	"errors"
)

// level curve
const (
	BaseLevelExperience = 1500
	FirstLevel          = 1
)

// ErrExperienceOverflow awarded amount does not fit the running total
var ErrExperienceOverflow = errors.New("experience earned overflows the total")

// ExperienceModel one ledger row per user and calendar date
type ExperienceModel struct {
	UserID            string `json:"-"`
	Date              string `json:"date"`
	TotalExperience   int64  `json:"total_experience"`
	DailyExperience   int64  `json:"daily_experience"`
	SegmentsCompleted int64  `json:"segments_completed"`
	CreatedAt         int64  `json:"-"`
	UpdatedAt         int64  `json:"-"`
}

// Progress level data derived from a cumulative total
type Progress struct {
	Level                    int   `json:"level"`
	ExperienceInCurrentLevel int64 `json:"experience_in_current_level"`
	ExperienceToNextLevel    int64 `json:"experience_to_next_level"`
	RequiredForLevel         int64 `json:"required_for_level"`
}

// ComputeProgress walks the level curve: 1500 for level 1, each next level
// needs floor(previous * 1.5)
func ComputeProgress(total int64) Progress {
	level := FirstLevel
	required := int64(BaseLevelExperience)
	remaining := total
	if remaining < 0 {
		remaining = 0
	}
	for remaining >= required {
		remaining -= required
		level++
		required = required + required/2
	}
	return Progress{
		Level:                    level,
		ExperienceInCurrentLevel: remaining,
		ExperienceToNextLevel:    required - remaining,
		RequiredForLevel:         required,
	}
}

// Progress level data of the row's total
func (m *ExperienceModel) Progress() Progress {
	return ComputeProgress(m.TotalExperience)
}

type ExperienceRepository interface {
	FindByDate(ctx context.Context, userID, date string) (*ExperienceModel, error)
	// FindLatestBefore most recent row strictly before date, nil when there is none
	FindLatestBefore(ctx context.Context, userID, date string) (*ExperienceModel, error)
	// FindLatestOnOrBefore most recent row up to and including date, nil when there is none
	FindLatestOnOrBefore(ctx context.Context, userID, date string) (*ExperienceModel, error)
	// Insert fails with ErrDuplicatedRecord when the (user, date) row exists
	Insert(ctx context.Context, m *ExperienceModel) error
	Increment(ctx context.Context, userID, date string, amount int64, updatedAt int64) error
	RunInTx(ctx context.Context, fn func(repo ExperienceRepository) error) error
}

type ExperienceUseCase interface {
	GetOrCreateToday(ctx context.Context, userID string) (*ExperienceModel, error)
	AwardExperience(ctx context.Context, userID string, amount int64, segmentIndex int) (*ExperienceModel, error)
	Summary(ctx context.Context, userID string) (*ExperienceModel, error)
}

// ErrDuplicatedRecord the (user, date) row already exists
var ErrDuplicatedRecord = errors.New("experience record already exists")
