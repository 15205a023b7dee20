package appusage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pot-code/wellbeing/internal/infrastructure/clock"
	"github.com/pot-code/wellbeing/internal/infrastructure/driver/drivertest"
	"github.com/pot-code/wellbeing/internal/infrastructure/uuid"
)

func newTestUseCase(t *testing.T) (*AppUsageUseCaseImpl, *clock.LocationClock) {
	t.Helper()
	c := clock.NewFixedClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	repo := NewAppUsageRepository(drivertest.NewSQLite(t), uuid.NewNanoIDGenerator(21))
	return NewAppUsageUseCase(repo, c), c
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestCreateOrUpdate(t *testing.T) {
	ctx := context.Background()
	uc, c := newTestUseCase(t)

	m, created, err := uc.CreateOrUpdate(ctx, "u1", &AppPost{PackageName: "com.example.chat", AppName: "Chat", IconBase64: "aWNvbg=="})
	if err != nil || !created {
		t.Fatalf("CreateOrUpdate = %v, created %v", err, created)
	}
	if m.Category != CategoryUseless || m.IconBase64 == nil || *m.IconBase64 != "aWNvbg==" {
		t.Fatalf("new app = %+v", m)
	}

	c.Set(c.Now().Add(time.Hour))
	again, created, err := uc.CreateOrUpdate(ctx, "u1", &AppPost{PackageName: "com.example.chat", AppName: "Chat 2"})
	if err != nil || created {
		t.Fatalf("second CreateOrUpdate = %v, created %v", err, created)
	}
	if again.ID != m.ID || again.AppName != "Chat 2" || again.LastUsed <= m.LastUsed {
		t.Fatalf("refreshed app = %+v", again)
	}
	if again.IconBase64 == nil || *again.IconBase64 != "aWNvbg==" {
		t.Fatal("empty icon must keep the stored one")
	}
	if again.FirstSeen != m.FirstSeen {
		t.Fatalf("first_seen changed from %d to %d", m.FirstSeen, again.FirstSeen)
	}
}

func TestListOrderAndOwner(t *testing.T) {
	ctx := context.Background()
	uc, c := newTestUseCase(t)

	for _, pkg := range []string{"a.first", "b.second"} {
		if _, _, err := uc.CreateOrUpdate(ctx, "u1", &AppPost{PackageName: pkg, AppName: pkg}); err != nil {
			t.Fatalf("CreateOrUpdate(%s): %v", pkg, err)
		}
		c.Set(c.Now().Add(time.Minute))
	}
	if _, _, err := uc.CreateOrUpdate(ctx, "u2", &AppPost{PackageName: "a.first", AppName: "other"}); err != nil {
		t.Fatalf("CreateOrUpdate for u2: %v", err)
	}

	apps, err := uc.List(ctx, "u1")
	if err != nil || len(apps) != 2 {
		t.Fatalf("List = %d apps, %v", len(apps), err)
	}
	if apps[0].PackageName != "b.second" {
		t.Fatalf("first app = %s, want most recently used", apps[0].PackageName)
	}
	if _, err := uc.Get(ctx, "u2", apps[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get by other user err = %v, want ErrNotFound", err)
	}
}

func TestUpdateCategory(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUseCase(t)

	m, _, err := uc.CreateOrUpdate(ctx, "u1", &AppPost{PackageName: "com.example.read", AppName: "Read"})
	if err != nil {
		t.Fatalf("CreateOrUpdate: %v", err)
	}
	updated, err := uc.UpdateCategory(ctx, "u1", m.ID, CategoryUseful)
	if err != nil || updated.Category != CategoryUseful {
		t.Fatalf("UpdateCategory = %+v, %v", updated, err)
	}
	if _, err := uc.UpdateCategory(ctx, "u2", m.ID, CategoryHarmful); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateCategory by other user err = %v, want ErrNotFound", err)
	}
}

func TestReportUsageWindows(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUseCase(t)

	m, _, err := uc.CreateOrUpdate(ctx, "u1", &AppPost{PackageName: "com.example.video", AppName: "Video"})
	if err != nil {
		t.Fatalf("CreateOrUpdate: %v", err)
	}

	reports := []*UsageReport{
		{UsageSeconds: int64Ptr(60)},
		{Date: "2024-03-10", UsageSeconds: int64Ptr(40), SessionsCount: int64Ptr(2)},
		{Date: "2024-03-05", UsageSeconds: int64Ptr(100)},
		{Date: "2024-02-20", UsageSeconds: int64Ptr(1000)},
		{Date: "2024-01-01", UsageSeconds: int64Ptr(5000)},
	}
	var view *TrackedAppModel
	for _, r := range reports {
		if view, err = uc.ReportUsage(ctx, "u1", m.ID, r); err != nil {
			t.Fatalf("ReportUsage(%+v): %v", r, err)
		}
	}

	if view.UsageToday != 100 || view.UsageWeek != 200 || view.UsageMonth != 1200 {
		t.Fatalf("usage today/week/month = %d/%d/%d, want 100/200/1200",
			view.UsageToday, view.UsageWeek, view.UsageMonth)
	}
	if view.TotalUsageSeconds != 6200 {
		t.Fatalf("total = %d, want 6200", view.TotalUsageSeconds)
	}

	records, err := uc.AppUsageRepository.UsageBetween(ctx, "u1", "2024-03-10", "2024-03-10")
	if err != nil || len(records) != 1 {
		t.Fatalf("UsageBetween = %d rows, %v", len(records), err)
	}
	if records[0].SessionsCount != 3 {
		t.Fatalf("sessions = %d, want default 1 plus 2", records[0].SessionsCount)
	}

	if _, err := uc.ReportUsage(ctx, "u2", m.ID, &UsageReport{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ReportUsage by other user err = %v, want ErrNotFound", err)
	}
}

func TestConcurrentReports(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUseCase(t)

	m, _, err := uc.CreateOrUpdate(ctx, "u1", &AppPost{PackageName: "com.example.game", AppName: "Game"})
	if err != nil {
		t.Fatalf("CreateOrUpdate: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := uc.ReportUsage(ctx, "u1", m.ID, &UsageReport{UsageSeconds: int64Ptr(10)}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("ReportUsage: %v", err)
	}

	view, err := uc.Get(ctx, "u1", m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.TotalUsageSeconds != 100 || view.UsageToday != 100 {
		t.Fatalf("total/today = %d/%d, want 100/100", view.TotalUsageSeconds, view.UsageToday)
	}
}
