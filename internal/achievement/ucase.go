package achievement

import (
	"context"
	"errors"
	"fmt"

	"github.com/pot-code/wellbeing/internal/infrastructure/clock"
	"github.com/pot-code/wellbeing/internal/infrastructure/logging"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// sync attempts when an insert races a concurrent sync of the same user
const maxSyncAttempts = 2

// AchievementUseCaseImpl ...
type AchievementUseCaseImpl struct {
	AchievementRepository AchievementRepository
	Clock                 clock.Clock
}

var _ AchievementUseCase = &AchievementUseCaseImpl{}

// NewAchievementUseCase ...
func NewAchievementUseCase(AchievementRepository AchievementRepository, Clock clock.Clock) *AchievementUseCaseImpl {
	return &AchievementUseCaseImpl{AchievementRepository, Clock}
}

func (au *AchievementUseCaseImpl) List(ctx context.Context, userID string) ([]*AchievementModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "AchievementUseCaseImpl.List", "service")
	defer apmSpan.End()

	return au.AchievementRepository.FindByUser(ctx, userID)
}

func (au *AchievementUseCaseImpl) Sync(ctx context.Context, userID string, posts []*AchievementPost) ([]*AchievementModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "AchievementUseCaseImpl.Sync", "service")
	defer apmSpan.End()

	var (
		synced []*AchievementModel
		err    error
	)
	for attempt := 1; attempt <= maxSyncAttempts; attempt++ {
		err = au.AchievementRepository.RunInTx(ctx, func(repo AchievementRepository) error {
			synced = make([]*AchievementModel, 0, len(posts))
			now := clock.Millis(au.Clock.Now())
			for _, post := range posts {
				m, err := upsertAchievement(ctx, repo, userID, post, now)
				if err != nil {
					return err
				}
				synced = append(synced, m)
			}
			return nil
		})
		if !errors.Is(err, ErrDuplicatedRecord) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("sync achievements: %w", err)
	}

	logging.ExtractLoggerFromContext(ctx).Debug("achievements synced",
		zap.String("user.id", userID),
		zap.Int("achievement.count", len(synced)))
	return synced, nil
}

func upsertAchievement(ctx context.Context, repo AchievementRepository, userID string, post *AchievementPost, now int64) (*AchievementModel, error) {
	m, err := repo.FindByAchievementID(ctx, userID, post.ID)
	if err != nil {
		return nil, err
	}
	exists := m != nil
	if !exists {
		m = &AchievementModel{
			UserID:        userID,
			AchievementID: post.ID,
			CreatedAt:     now,
		}
	}
	m.Title = post.Title
	m.Description = post.Description
	m.IconCodePoint = post.IconCodePoint
	m.IconFontFamily = post.IconFontFamily
	m.IconFontPackage = post.IconFontPackage
	m.AchievementType = post.Type
	m.RequiredValue = post.RequiredValue
	m.IsUnlocked = post.IsUnlocked
	m.UnlockedAt = post.UnlockedAt
	m.UpdatedAt = now

	if exists {
		err = repo.Update(ctx, m)
	} else {
		err = repo.Insert(ctx, m)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetStats returns the user's stats row, creating an empty one on first access
func (au *AchievementUseCaseImpl) GetStats(ctx context.Context, userID string) (*StatsModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "AchievementUseCaseImpl.GetStats", "service")
	defer apmSpan.End()

	repo := au.AchievementRepository
	s, err := repo.FindStats(ctx, userID)
	if err != nil || s != nil {
		return s, err
	}

	s = &StatsModel{
		UserID:    userID,
		CreatedAt: clock.Millis(au.Clock.Now()),
	}
	err = repo.InsertStats(ctx, s)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrDuplicatedRecord) {
		return nil, err
	}
	if s, err = repo.FindStats(ctx, userID); err == nil && s == nil {
		err = fmt.Errorf("achievement stats of %s vanished after duplicate insert", userID)
	}
	return s, err
}

// SaveStats overwrites every counter and stamps last_sync_date
func (au *AchievementUseCaseImpl) SaveStats(ctx context.Context, userID string, post *StatsModel) (*StatsModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "AchievementUseCaseImpl.SaveStats", "service")
	defer apmSpan.End()

	s, err := au.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := clock.Millis(au.Clock.Now())
	s.DailyUsageDate = post.DailyUsageDate
	s.ConsecutiveDays = post.ConsecutiveDays
	s.AIChatUsageCount = post.AIChatUsageCount
	s.AppBlockingCount = post.AppBlockingCount
	s.LowScreenTimeDays = post.LowScreenTimeDays
	s.FirstUsageDate = post.FirstUsageDate
	s.TotalUsageMonths = post.TotalUsageMonths
	s.LastSyncDate = &now
	if err := au.AchievementRepository.UpdateStats(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}
