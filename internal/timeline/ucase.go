package timeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/pot-code/wellbeing/internal/infrastructure/clock"
	"github.com/pot-code/wellbeing/internal/infrastructure/logging"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// maxUpdateAttempts read-modify-write rounds before giving up with ErrConcurrentUpdate
const maxUpdateAttempts = 3

// TimelineUseCaseImpl ...
type TimelineUseCaseImpl struct {
	TimelineRepository TimelineRepository
	Clock              clock.Clock
}

var _ TimelineUseCase = &TimelineUseCaseImpl{}

// NewTimelineUseCase ...
func NewTimelineUseCase(
	TimelineRepository TimelineRepository,
	Clock clock.Clock,
) *TimelineUseCaseImpl {
	return &TimelineUseCaseImpl{TimelineRepository, Clock}
}

// GetOrCreate returns the day's row, creating an all zero one when absent
func (tu *TimelineUseCaseImpl) GetOrCreate(ctx context.Context, userID, date string) (*TimelineModel, bool, error) {
	apmSpan, _ := apm.StartSpan(ctx, "TimelineUseCaseImpl.GetOrCreate", "service")
	defer apmSpan.End()

	return tu.getOrCreate(ctx, userID, date)
}

// Merge patch the listed segments of the day
func (tu *TimelineUseCaseImpl) Merge(ctx context.Context, userID, date string, patch []SegmentPatch, sessions *int64) (*TimelineModel, bool, error) {
	apmSpan, _ := apm.StartSpan(ctx, "TimelineUseCaseImpl.Merge", "service")
	defer apmSpan.End()

	return tu.update(ctx, userID, date, ModeMerge, patch, sessions)
}

// Replace overwrite the whole day with the listed segments
func (tu *TimelineUseCaseImpl) Replace(ctx context.Context, userID, date string, patch []SegmentPatch, sessions *int64) (*TimelineModel, bool, error) {
	apmSpan, _ := apm.StartSpan(ctx, "TimelineUseCaseImpl.Replace", "service")
	defer apmSpan.End()

	return tu.update(ctx, userID, date, ModeReplace, patch, sessions)
}

func (tu *TimelineUseCaseImpl) update(ctx context.Context, userID, date string, mode UpdateMode, patch []SegmentPatch, sessions *int64) (*TimelineModel, bool, error) {
	logger := logging.ExtractLoggerFromContext(ctx)
	created := false
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		m, c, err := tu.getOrCreate(ctx, userID, date)
		if err != nil {
			return nil, false, err
		}
		created = created || c

		switch mode {
		case ModeReplace:
			m.ReplaceUpdate(patch, sessions)
		default:
			m.MergeUpdate(patch, sessions)
		}
		m.UpdatedAt = clock.Millis(tu.Clock.Now())

		err = tu.TimelineRepository.Update(ctx, m)
		if err == nil {
			return m, created, nil
		}
		if !errors.Is(err, ErrStaleVersion) {
			return nil, false, fmt.Errorf("update timeline: %w", err)
		}
		logger.Debug("timeline version conflict",
			zap.String("user.id", userID),
			zap.String("timeline.date", date),
			zap.Int("timeline.attempt", attempt))
	}
	return nil, false, ErrConcurrentUpdate
}

// getOrCreate find, insert, and on a lost insert race read the winner's row
func (tu *TimelineUseCaseImpl) getOrCreate(ctx context.Context, userID, date string) (*TimelineModel, bool, error) {
	repo := tu.TimelineRepository
	if m, err := repo.FindByDate(ctx, userID, date); err != nil {
		return nil, false, err
	} else if m != nil {
		return m, false, nil
	}

	now := clock.Millis(tu.Clock.Now())
	m := &TimelineModel{
		UserID:    userID,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := repo.Insert(ctx, m)
	if err == nil {
		return m, true, nil
	}
	if !errors.Is(err, ErrDuplicatedRecord) {
		return nil, false, err
	}

	m, err = repo.FindByDate(ctx, userID, date)
	if err != nil {
		return nil, false, err
	}
	if m == nil {
		return nil, false, fmt.Errorf("timeline record of %s not found after duplicate insert", date)
	}
	return m, false, nil
}
