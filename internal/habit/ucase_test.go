package habit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pot-code/wellbeing/internal/infrastructure/clock"
	"github.com/pot-code/wellbeing/internal/infrastructure/driver/drivertest"
	"github.com/pot-code/wellbeing/internal/infrastructure/uuid"
)

func newTestUseCase(t *testing.T) (*HabitUseCaseImpl, *clock.LocationClock) {
	t.Helper()
	c := clock.NewFixedClock(time.Unix(1700000000, 0))
	repo := NewHabitRepository(drivertest.NewSQLite(t), uuid.NewNanoIDGenerator(21))
	return NewHabitUseCase(repo, c), c
}

func TestCreateDefaults(t *testing.T) {
	uc, _ := newTestUseCase(t)

	m, err := uc.Create(context.Background(), "u1", &HabitModel{Name: "Smoking", HabitType: TypeBad})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.ID == "" || m.IconName != DefaultIcon || m.StartDate != 1700000000000 {
		t.Fatalf("habit = %+v", m)
	}
}

func TestListFiltersByTypeAndOwner(t *testing.T) {
	ctx := context.Background()
	uc, c := newTestUseCase(t)

	for i, post := range []*HabitModel{
		{Name: "Run", HabitType: TypeGood},
		{Name: "Doomscroll", HabitType: TypeBad},
		{Name: "Read", HabitType: TypeGood},
	} {
		c.Set(time.Unix(1700000000+int64(i), 0))
		if _, err := uc.Create(ctx, "u1", post); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if _, err := uc.Create(ctx, "u2", &HabitModel{Name: "Swim", HabitType: TypeGood}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	all, err := uc.List(ctx, "u1", "")
	if err != nil || len(all) != 3 {
		t.Fatalf("List = %d habits, %v", len(all), err)
	}
	if all[0].Name != "Read" {
		t.Fatalf("first habit = %q, want newest first", all[0].Name)
	}

	good, err := uc.List(ctx, "u1", TypeGood)
	if err != nil || len(good) != 2 {
		t.Fatalf("List(good) = %d habits, %v", len(good), err)
	}
}

func TestOwnerScoping(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUseCase(t)

	m, err := uc.Create(ctx, "u1", &HabitModel{Name: "Run", HabitType: TypeGood})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := uc.Get(ctx, "u2", m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get by other user err = %v, want ErrNotFound", err)
	}
	if err := uc.Delete(ctx, "u2", m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete by other user err = %v, want ErrNotFound", err)
	}
	if err := uc.Delete(ctx, "u1", m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := uc.Get(ctx, "u1", m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete err = %v, want ErrNotFound", err)
	}
}

func TestUpdateAndReset(t *testing.T) {
	ctx := context.Background()
	uc, c := newTestUseCase(t)

	m, err := uc.Create(ctx, "u1", &HabitModel{Name: "Run", HabitType: TypeGood, IconName: "run"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := uc.Update(ctx, "u1", m.ID, &HabitModel{Name: "Jog", HabitType: TypeGood})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Jog" || updated.IconName != "run" || updated.StartDate != m.StartDate {
		t.Fatalf("updated = %+v", updated)
	}

	c.Set(time.Unix(1700086400, 0))
	reset, err := uc.Reset(ctx, "u1", m.ID)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	stored, err := uc.Get(ctx, "u1", m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reset.StartDate != 1700086400000 || stored.StartDate != reset.StartDate {
		t.Fatalf("start date = %d stored %d", reset.StartDate, stored.StartDate)
	}
}
