package experience

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/pot-code/wellbeing/internal/infrastructure/clock"
	"github.com/pot-code/wellbeing/internal/infrastructure/logging"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// ExperienceUseCaseImpl ...
type ExperienceUseCaseImpl struct {
	ExperienceRepository ExperienceRepository
	Clock                clock.Clock
}

var _ ExperienceUseCase = &ExperienceUseCaseImpl{}

// NewExperienceUseCase ...
func NewExperienceUseCase(
	ExperienceRepository ExperienceRepository,
	Clock clock.Clock,
) *ExperienceUseCaseImpl {
	return &ExperienceUseCaseImpl{ExperienceRepository, Clock}
}

// GetOrCreateToday returns today's row, seeding the total from the latest earlier row on creation
func (eu *ExperienceUseCaseImpl) GetOrCreateToday(ctx context.Context, userID string) (*ExperienceModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ExperienceUseCaseImpl.GetOrCreateToday", "service")
	defer apmSpan.End()

	return eu.getOrCreate(ctx, userID, eu.Clock.Today())
}

// AwardExperience add amount to today's daily and total experience and count one completed segment
func (eu *ExperienceUseCaseImpl) AwardExperience(ctx context.Context, userID string, amount int64, segmentIndex int) (*ExperienceModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ExperienceUseCaseImpl.AwardExperience", "service")
	defer apmSpan.End()

	today := eu.Clock.Today()
	current, err := eu.getOrCreate(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	// negative amounts are applied as-is, only values the columns cannot hold are refused
	if overflows(current.TotalExperience, amount) || overflows(current.DailyExperience, amount) {
		return nil, ErrExperienceOverflow
	}

	var result *ExperienceModel
	err = eu.ExperienceRepository.RunInTx(ctx, func(repo ExperienceRepository) error {
		now := clock.Millis(eu.Clock.Now())
		if err := repo.Increment(ctx, userID, today, amount, now); err != nil {
			return err
		}
		m, err := repo.FindByDate(ctx, userID, today)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("experience record of %s vanished during award", today)
		}
		result = m
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("award experience: %w", err)
	}

	logging.ExtractLoggerFromContext(ctx).Debug("experience awarded",
		zap.String("user.id", userID),
		zap.Int64("experience.amount", amount),
		zap.Int("experience.segment_index", segmentIndex),
		zap.Int64("experience.total", result.TotalExperience))
	return result, nil
}

// Summary latest row up to today without creating one, a zero row when the user has none
func (eu *ExperienceUseCaseImpl) Summary(ctx context.Context, userID string) (*ExperienceModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ExperienceUseCaseImpl.Summary", "service")
	defer apmSpan.End()

	today := eu.Clock.Today()
	m, err := eu.ExperienceRepository.FindLatestOnOrBefore(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return &ExperienceModel{UserID: userID, Date: today}, nil
	}
	if m.Date != today {
		// daily counters belong to their own date
		m = &ExperienceModel{UserID: userID, Date: today, TotalExperience: m.TotalExperience}
	}
	return m, nil
}

// getOrCreate find, insert, and on a lost insert race read the winner's row.
// it must not run inside a transaction: a failed insert aborts postgres transactions
func (eu *ExperienceUseCaseImpl) getOrCreate(ctx context.Context, userID, date string) (*ExperienceModel, error) {
	repo := eu.ExperienceRepository
	if m, err := repo.FindByDate(ctx, userID, date); err != nil {
		return nil, err
	} else if m != nil {
		return m, nil
	}

	var total int64
	prev, err := repo.FindLatestBefore(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		total = prev.TotalExperience
	}

	now := clock.Millis(eu.Clock.Now())
	m := &ExperienceModel{
		UserID:          userID,
		Date:            date,
		TotalExperience: total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = repo.Insert(ctx, m)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, ErrDuplicatedRecord) {
		return nil, err
	}

	m, err = repo.FindByDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("experience record of %s not found after duplicate insert", date)
	}
	return m, nil
}

func overflows(total, amount int64) bool {
	if amount > 0 {
		return total > math.MaxInt64-amount
	}
	return total < math.MinInt64-amount
}
