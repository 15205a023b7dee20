package timeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pot-code/wellbeing/internal/infrastructure/clock"
	"github.com/pot-code/wellbeing/internal/infrastructure/driver/drivertest"
)

func newTestUseCase(t *testing.T) *TimelineUseCaseImpl {
	t.Helper()
	repo := NewTimelineRepository(drivertest.NewSQLite(t))
	return NewTimelineUseCase(repo, clock.NewFixedClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))
}

func int64p(v int64) *int64 { return &v }

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	uc := newTestUseCase(t)

	m, created, err := uc.GetOrCreate(ctx, "u1", "2024-03-01")
	if err != nil || !created {
		t.Fatalf("GetOrCreate = created %v, err %v", created, err)
	}
	if m.TotalScreenTimeSeconds != 0 || m.Segments != ([SegmentCount]Segment{}) {
		t.Fatalf("new record not zeroed: %+v", m)
	}

	_, created, err = uc.GetOrCreate(ctx, "u1", "2024-03-01")
	if err != nil || created {
		t.Fatalf("second GetOrCreate = created %v, err %v", created, err)
	}
}

func TestMergeThenReplacePersist(t *testing.T) {
	ctx := context.Background()
	uc := newTestUseCase(t)

	_, created, err := uc.Merge(ctx, "u1", "2024-03-01", []SegmentPatch{
		{Index: 0, UsefulSeconds: 100, HarmfulSeconds: 10},
		{Index: 14, UsefulSeconds: 1, HarmfulSeconds: 2},
		{Index: 99, UsefulSeconds: 1000},
	}, int64p(3))
	if err != nil || !created {
		t.Fatalf("Merge = created %v, err %v", created, err)
	}

	m, created, err := uc.Merge(ctx, "u1", "2024-03-01", []SegmentPatch{{Index: 1, UsefulSeconds: 50}}, nil)
	if err != nil || created {
		t.Fatalf("Merge = created %v, err %v", created, err)
	}
	if m.Segments[0] != (Segment{100, 10}) || m.Segments[1] != (Segment{50, 0}) || m.SessionsCount != 3 {
		t.Fatalf("merged record = %+v", m)
	}
	if m.TotalUsefulSeconds != 151 || m.TotalHarmfulSeconds != 12 || m.TotalScreenTimeSeconds != 163 {
		t.Fatalf("totals = %d/%d/%d", m.TotalUsefulSeconds, m.TotalHarmfulSeconds, m.TotalScreenTimeSeconds)
	}

	stored, err := uc.TimelineRepository.FindByDate(ctx, "u1", "2024-03-01")
	if err != nil {
		t.Fatalf("FindByDate: %v", err)
	}
	if stored.Segments != m.Segments || stored.TotalScreenTimeSeconds != 163 || stored.Version != m.Version {
		t.Fatalf("stored = %+v, want %+v", stored, m)
	}

	m, _, err = uc.Replace(ctx, "u1", "2024-03-01", []SegmentPatch{{Index: 2, HarmfulSeconds: 30}}, nil)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if m.Segments[0] != (Segment{}) || m.Segments[2] != (Segment{0, 30}) || m.SessionsCount != 0 {
		t.Fatalf("replaced record = %+v", m)
	}
	if m.TotalScreenTimeSeconds != 30 {
		t.Fatalf("screen time = %d, want 30", m.TotalScreenTimeSeconds)
	}
}

func TestStaleVersionRejected(t *testing.T) {
	ctx := context.Background()
	uc := newTestUseCase(t)

	m, _, err := uc.GetOrCreate(ctx, "u1", "2024-03-01")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	stale := *m
	if err := uc.TimelineRepository.Update(ctx, m); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := uc.TimelineRepository.Update(ctx, &stale); !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("Update with stale version err = %v, want ErrStaleVersion", err)
	}
}

func TestConcurrentMergesOnDistinctSegments(t *testing.T) {
	ctx := context.Background()
	uc := newTestUseCase(t)

	var wg sync.WaitGroup
	for i := 0; i < SegmentCount; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for {
				_, _, err := uc.Merge(ctx, "u1", "2024-03-01", []SegmentPatch{{Index: i, UsefulSeconds: 60}}, nil)
				if errors.Is(err, ErrConcurrentUpdate) {
					continue
				}
				if err != nil {
					t.Errorf("Merge: %v", err)
				}
				return
			}
		}(i)
	}
	wg.Wait()

	m, _, err := uc.GetOrCreate(ctx, "u1", "2024-03-01")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if m.TotalUsefulSeconds != 60*SegmentCount {
		t.Fatalf("total useful = %d, want %d: %+v", m.TotalUsefulSeconds, 60*SegmentCount, m.Segments)
	}
}
