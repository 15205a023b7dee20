package habit

import (
	"context"

	"github.com/pot-code/wellbeing/internal/infrastructure/clock"
	"go.elastic.co/apm"
)

// HabitUseCaseImpl ...
type HabitUseCaseImpl struct {
	HabitRepository HabitRepository
	Clock           clock.Clock
}

var _ HabitUseCase = &HabitUseCaseImpl{}

// NewHabitUseCase ...
func NewHabitUseCase(HabitRepository HabitRepository, Clock clock.Clock) *HabitUseCaseImpl {
	return &HabitUseCaseImpl{HabitRepository, Clock}
}

func (hu *HabitUseCaseImpl) List(ctx context.Context, userID, habitType string) ([]*HabitModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "HabitUseCaseImpl.List", "service")
	defer apmSpan.End()

	return hu.HabitRepository.FindByUser(ctx, userID, habitType)
}

func (hu *HabitUseCaseImpl) Create(ctx context.Context, userID string, post *HabitModel) (*HabitModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "HabitUseCaseImpl.Create", "service")
	defer apmSpan.End()

	now := clock.Millis(hu.Clock.Now())
	m := &HabitModel{
		UserID:    userID,
		Name:      post.Name,
		HabitType: post.HabitType,
		StartDate: post.StartDate,
		IconName:  post.IconName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if m.StartDate == 0 {
		m.StartDate = now
	}
	if m.IconName == "" {
		m.IconName = DefaultIcon
	}
	if err := hu.HabitRepository.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (hu *HabitUseCaseImpl) Get(ctx context.Context, userID, id string) (*HabitModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "HabitUseCaseImpl.Get", "service")
	defer apmSpan.End()

	m, err := hu.HabitRepository.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

// Update replace the editable fields, zero start date and empty icon keep the stored values
func (hu *HabitUseCaseImpl) Update(ctx context.Context, userID, id string, post *HabitModel) (*HabitModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "HabitUseCaseImpl.Update", "service")
	defer apmSpan.End()

	m, err := hu.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	m.Name = post.Name
	m.HabitType = post.HabitType
	if post.StartDate != 0 {
		m.StartDate = post.StartDate
	}
	if post.IconName != "" {
		m.IconName = post.IconName
	}
	m.UpdatedAt = clock.Millis(hu.Clock.Now())
	if err := hu.HabitRepository.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (hu *HabitUseCaseImpl) Delete(ctx context.Context, userID, id string) error {
	apmSpan, _ := apm.StartSpan(ctx, "HabitUseCaseImpl.Delete", "service")
	defer apmSpan.End()

	return hu.HabitRepository.Delete(ctx, userID, id)
}

// Reset restart the habit streak from now
func (hu *HabitUseCaseImpl) Reset(ctx context.Context, userID, id string) (*HabitModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "HabitUseCaseImpl.Reset", "service")
	defer apmSpan.End()

	m, err := hu.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	now := clock.Millis(hu.Clock.Now())
	m.StartDate = now
	m.UpdatedAt = now
	if err := hu.HabitRepository.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
