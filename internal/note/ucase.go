package note

import (
	"context"

	"github.com/pot-code/wellbeing/internal/infrastructure/clock"
	"go.elastic.co/apm"
)

// NoteUseCaseImpl ...
type NoteUseCaseImpl struct {
	NoteRepository NoteRepository
	Clock          clock.Clock
}

var _ NoteUseCase = &NoteUseCaseImpl{}

// NewNoteUseCase ...
func NewNoteUseCase(NoteRepository NoteRepository, Clock clock.Clock) *NoteUseCaseImpl {
	return &NoteUseCaseImpl{NoteRepository, Clock}
}

func (nu *NoteUseCaseImpl) List(ctx context.Context, userID string) ([]*NoteModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "NoteUseCaseImpl.List", "service")
	defer apmSpan.End()

	return nu.NoteRepository.FindByUser(ctx, userID)
}

// Create one note per user and date, a second one fails with ErrDuplicatedNote
func (nu *NoteUseCaseImpl) Create(ctx context.Context, userID string, post *NoteModel) (*NoteModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "NoteUseCaseImpl.Create", "service")
	defer apmSpan.End()

	now := clock.Millis(nu.Clock.Now())
	m := &NoteModel{
		UserID:    userID,
		Date:      post.Date,
		Mood:      post.Mood,
		Note:      post.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := nu.NoteRepository.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (nu *NoteUseCaseImpl) Get(ctx context.Context, userID, id string) (*NoteModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "NoteUseCaseImpl.Get", "service")
	defer apmSpan.End()

	m, err := nu.NoteRepository.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

func (nu *NoteUseCaseImpl) GetByDate(ctx context.Context, userID, date string) (*NoteModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "NoteUseCaseImpl.GetByDate", "service")
	defer apmSpan.End()

	m, err := nu.NoteRepository.FindByDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

func (nu *NoteUseCaseImpl) Update(ctx context.Context, userID, id string, post *NoteModel) (*NoteModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "NoteUseCaseImpl.Update", "service")
	defer apmSpan.End()

	m, err := nu.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	m.Date = post.Date
	m.Mood = post.Mood
	m.Note = post.Note
	m.UpdatedAt = clock.Millis(nu.Clock.Now())
	if err := nu.NoteRepository.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (nu *NoteUseCaseImpl) Delete(ctx context.Context, userID, id string) error {
	apmSpan, _ := apm.StartSpan(ctx, "NoteUseCaseImpl.Delete", "service")
	defer apmSpan.End()

	return nu.NoteRepository.Delete(ctx, userID, id)
}
