package note

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pot-code/wellbeing/internal/infrastructure/clock"
	"github.com/pot-code/wellbeing/internal/infrastructure/driver/drivertest"
	"github.com/pot-code/wellbeing/internal/infrastructure/uuid"
)

func newTestUseCase(t *testing.T) *NoteUseCaseImpl {
	t.Helper()
	repo := NewNoteRepository(drivertest.NewSQLite(t), uuid.NewNanoIDGenerator(21))
	return NewNoteUseCase(repo, clock.NewFixedClock(time.Unix(1700000000, 0)))
}

func TestOneNotePerDate(t *testing.T) {
	ctx := context.Background()
	uc := newTestUseCase(t)

	if _, err := uc.Create(ctx, "u1", &NoteModel{Date: "2024-03-01", Mood: 4, Note: "good day"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := uc.Create(ctx, "u1", &NoteModel{Date: "2024-03-01", Mood: 2}); !errors.Is(err, ErrDuplicatedNote) {
		t.Fatalf("second Create err = %v, want ErrDuplicatedNote", err)
	}
	// other users keep their own dates
	if _, err := uc.Create(ctx, "u2", &NoteModel{Date: "2024-03-01", Mood: 3}); err != nil {
		t.Fatalf("Create for u2: %v", err)
	}
}

func TestListAndGetByDate(t *testing.T) {
	ctx := context.Background()
	uc := newTestUseCase(t)

	for _, date := range []string{"2024-03-01", "2024-03-03", "2024-03-02"} {
		if _, err := uc.Create(ctx, "u1", &NoteModel{Date: date, Mood: 3}); err != nil {
			t.Fatalf("Create(%s): %v", date, err)
		}
	}
	notes, err := uc.List(ctx, "u1")
	if err != nil || len(notes) != 3 {
		t.Fatalf("List = %d notes, %v", len(notes), err)
	}
	if notes[0].Date != "2024-03-03" || notes[2].Date != "2024-03-01" {
		t.Fatalf("order = %s, %s, %s", notes[0].Date, notes[1].Date, notes[2].Date)
	}

	m, err := uc.GetByDate(ctx, "u1", "2024-03-02")
	if err != nil || m.Date != "2024-03-02" {
		t.Fatalf("GetByDate = %+v, %v", m, err)
	}
	if _, err := uc.GetByDate(ctx, "u1", "2024-04-01"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByDate(missing) err = %v, want ErrNotFound", err)
	}
}

func TestUpdateIntoTakenDate(t *testing.T) {
	ctx := context.Background()
	uc := newTestUseCase(t)

	first, err := uc.Create(ctx, "u1", &NoteModel{Date: "2024-03-01", Mood: 3})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := uc.Create(ctx, "u1", &NoteModel{Date: "2024-03-02", Mood: 3}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := uc.Update(ctx, "u1", first.ID, &NoteModel{Date: "2024-03-02", Mood: 5}); !errors.Is(err, ErrDuplicatedNote) {
		t.Fatalf("Update err = %v, want ErrDuplicatedNote", err)
	}
	updated, err := uc.Update(ctx, "u1", first.ID, &NoteModel{Date: "2024-03-01", Mood: 5, Note: "better"})
	if err != nil || updated.Mood != 5 || updated.Note != "better" {
		t.Fatalf("Update = %+v, %v", updated, err)
	}
	if err := uc.Delete(ctx, "u2", first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete by other user err = %v, want ErrNotFound", err)
	}
}
