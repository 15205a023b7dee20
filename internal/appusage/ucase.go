package appusage

import (
	"context"
	"errors"
	"fmt"

	"github.com/pot-code/wellbeing/internal/infrastructure/clock"
	"github.com/pot-code/wellbeing/internal/infrastructure/logging"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// usage report attempts when the per-date row insert races another report
const maxReportAttempts = 2

// AppUsageUseCaseImpl ...
type AppUsageUseCaseImpl struct {
	AppUsageRepository AppUsageRepository
	Clock              clock.Clock
}

var _ AppUsageUseCase = &AppUsageUseCaseImpl{}

// NewAppUsageUseCase ...
func NewAppUsageUseCase(AppUsageRepository AppUsageRepository, Clock clock.Clock) *AppUsageUseCaseImpl {
	return &AppUsageUseCaseImpl{AppUsageRepository, Clock}
}

func (au *AppUsageUseCaseImpl) List(ctx context.Context, userID string) ([]*TrackedAppModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "AppUsageUseCaseImpl.List", "service")
	defer apmSpan.End()

	apps, err := au.AppUsageRepository.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := au.fillUsage(ctx, userID, apps...); err != nil {
		return nil, err
	}
	return apps, nil
}

func (au *AppUsageUseCaseImpl) Get(ctx context.Context, userID, id string) (*TrackedAppModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "AppUsageUseCaseImpl.Get", "service")
	defer apmSpan.End()

	m, err := au.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := au.fillUsage(ctx, userID, m); err != nil {
		return nil, err
	}
	return m, nil
}

// CreateOrUpdate new packages start as useless, known ones get name, icon and last_used refreshed
func (au *AppUsageUseCaseImpl) CreateOrUpdate(ctx context.Context, userID string, post *AppPost) (*TrackedAppModel, bool, error) {
	apmSpan, _ := apm.StartSpan(ctx, "AppUsageUseCaseImpl.CreateOrUpdate", "service")
	defer apmSpan.End()

	repo := au.AppUsageRepository
	now := clock.Millis(au.Clock.Now())
	m, err := repo.FindByPackage(ctx, userID, post.PackageName)
	if err != nil {
		return nil, false, err
	}

	created := false
	if m == nil {
		m = &TrackedAppModel{
			UserID:      userID,
			PackageName: post.PackageName,
			AppName:     post.AppName,
			Category:    CategoryUseless,
			FirstSeen:   now,
			LastUsed:    now,
		}
		if post.IconBase64 != "" {
			icon := post.IconBase64
			m.IconBase64 = &icon
		}
		err = repo.Insert(ctx, m)
		if err == nil {
			created = true
		} else if errors.Is(err, ErrDuplicatedRecord) {
			if m, err = repo.FindByPackage(ctx, userID, post.PackageName); err == nil && m == nil {
				err = fmt.Errorf("app %s vanished after duplicate insert", post.PackageName)
			}
		}
		if err != nil {
			return nil, false, err
		}
	}

	if !created {
		m.AppName = post.AppName
		if post.IconBase64 != "" {
			icon := post.IconBase64
			m.IconBase64 = &icon
		}
		m.LastUsed = now
		if err := repo.Refresh(ctx, m); err != nil {
			return nil, false, err
		}
	}

	if err := au.fillUsage(ctx, userID, m); err != nil {
		return nil, false, err
	}
	return m, created, nil
}

func (au *AppUsageUseCaseImpl) UpdateCategory(ctx context.Context, userID, id, category string) (*TrackedAppModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "AppUsageUseCaseImpl.UpdateCategory", "service")
	defer apmSpan.End()

	if err := au.AppUsageRepository.UpdateCategory(ctx, userID, id, category); err != nil {
		return nil, err
	}
	return au.Get(ctx, userID, id)
}

// ReportUsage adds to the per-date record and the app total in one transaction
func (au *AppUsageUseCaseImpl) ReportUsage(ctx context.Context, userID, id string, report *UsageReport) (*TrackedAppModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "AppUsageUseCaseImpl.ReportUsage", "service")
	defer apmSpan.End()

	if _, err := au.find(ctx, userID, id); err != nil {
		return nil, err
	}

	usage := &DailyUsage{
		AppID:         id,
		Date:          report.Date,
		SessionsCount: 1,
	}
	if usage.Date == "" {
		usage.Date = au.Clock.Today()
	}
	if report.UsageSeconds != nil {
		usage.UsageSeconds = *report.UsageSeconds
	}
	if report.SessionsCount != nil {
		usage.SessionsCount = *report.SessionsCount
	}

	var err error
	for attempt := 1; attempt <= maxReportAttempts; attempt++ {
		err = au.AppUsageRepository.RunInTx(ctx, func(repo AppUsageRepository) error {
			found, err := repo.IncrementDaily(ctx, usage.AppID, usage.Date, usage.UsageSeconds, usage.SessionsCount)
			if err != nil {
				return err
			}
			if !found {
				if err := repo.InsertDaily(ctx, usage); err != nil {
					return err
				}
			}
			return repo.IncrementTotal(ctx, usage.AppID, usage.UsageSeconds, clock.Millis(au.Clock.Now()))
		})
		if !errors.Is(err, ErrDuplicatedRecord) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("report app usage: %w", err)
	}

	logging.ExtractLoggerFromContext(ctx).Debug("app usage reported",
		zap.String("user.id", userID),
		zap.String("app.id", id),
		zap.String("usage.date", usage.Date),
		zap.Int64("usage.seconds", usage.UsageSeconds),
		zap.Int64("usage.sessions", usage.SessionsCount))
	return au.Get(ctx, userID, id)
}

func (au *AppUsageUseCaseImpl) find(ctx context.Context, userID, id string) (*TrackedAppModel, error) {
	m, err := au.AppUsageRepository.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

// fillUsage sets usage_today, usage_week and usage_month from the last MonthWindow days
func (au *AppUsageUseCaseImpl) fillUsage(ctx context.Context, userID string, apps ...*TrackedAppModel) error {
	if len(apps) == 0 {
		return nil
	}
	today := au.Clock.Today()
	weekStart, err := clock.AddDays(today, -WeekWindow)
	if err != nil {
		return err
	}
	monthStart, err := clock.AddDays(today, -MonthWindow)
	if err != nil {
		return err
	}

	records, err := au.AppUsageRepository.UsageBetween(ctx, userID, monthStart, today)
	if err != nil {
		return err
	}
	byApp := make(map[string]*TrackedAppModel, len(apps))
	for _, m := range apps {
		m.UsageToday, m.UsageWeek, m.UsageMonth = 0, 0, 0
		byApp[m.ID] = m
	}
	for _, r := range records {
		m, ok := byApp[r.AppID]
		if !ok {
			continue
		}
		m.UsageMonth += r.UsageSeconds
		if r.Date >= weekStart {
			m.UsageWeek += r.UsageSeconds
		}
		if r.Date == today {
			m.UsageToday += r.UsageSeconds
		}
	}
	return nil
}
