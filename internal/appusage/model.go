package appusage

import (
	"context"
	"errors"
)

// app categories
const (
	CategoryUseful  = "useful"
	CategoryHarmful = "harmful"
	CategoryUseless = "useless"
)

// usage windows in days, counted back from today inclusive
const (
	WeekWindow  = 7
	MonthWindow = 30
)

var (
	// ErrNotFound app does not exist or belongs to another user
	ErrNotFound = errors.New("app not found")
	// ErrDuplicatedRecord lost an insert race on a unique key
	ErrDuplicatedRecord = errors.New("duplicated record")
)

// TrackedAppModel an installed app reported by the client, with usage views
type TrackedAppModel struct {
	ID                string  `json:"id"`
	UserID            string  `json:"-"`
	PackageName       string  `json:"package_name"`
	AppName           string  `json:"app_name"`
	Category          string  `json:"category"`
	IconBase64        *string `json:"icon_base64"`
	TotalUsageSeconds int64   `json:"total_usage_seconds"`
	FirstSeen         int64   `json:"first_seen"`
	LastUsed          int64   `json:"last_used"`
	UsageToday        int64   `json:"usage_today"`
	UsageWeek         int64   `json:"usage_week"`
	UsageMonth        int64   `json:"usage_month"`
}

// AppPost create-or-update payload
type AppPost struct {
	PackageName string `json:"package_name" validate:"required,max=255"`
	AppName     string `json:"app_name" validate:"required,max=255"`
	IconBase64  string `json:"icon_base64"`
}

type CategoryPost struct {
	Category string `json:"category" validate:"required,oneof=useful harmful useless"`
}

// UsageReport missing fields fall back to today, 0 seconds and 1 session
type UsageReport struct {
	Date          string `json:"date" validate:"omitempty,date"`
	UsageSeconds  *int64 `json:"usage_seconds" validate:"omitempty,min=0"`
	SessionsCount *int64 `json:"sessions_count" validate:"omitempty,min=0"`
}

// DailyUsage one app_usage_record row
type DailyUsage struct {
	AppID         string
	Date          string
	UsageSeconds  int64
	SessionsCount int64
}

type AppUsageRepository interface {
	// FindByUser most recently used first
	FindByUser(ctx context.Context, userID string) ([]*TrackedAppModel, error)
	FindByID(ctx context.Context, userID, id string) (*TrackedAppModel, error)
	FindByPackage(ctx context.Context, userID, packageName string) (*TrackedAppModel, error)
	// Insert returns ErrDuplicatedRecord when the package is already tracked
	Insert(ctx context.Context, m *TrackedAppModel) error
	Refresh(ctx context.Context, m *TrackedAppModel) error
	UpdateCategory(ctx context.Context, userID, id, category string) error
	// IncrementDaily reports false when the (app, date) row does not exist yet
	IncrementDaily(ctx context.Context, appID, date string, seconds, sessions int64) (bool, error)
	// InsertDaily returns ErrDuplicatedRecord when the row exists
	InsertDaily(ctx context.Context, u *DailyUsage) error
	IncrementTotal(ctx context.Context, appID string, seconds, lastUsed int64) error
	// UsageBetween rows of the user's apps with from <= date <= to
	UsageBetween(ctx context.Context, userID, from, to string) ([]*DailyUsage, error)
	RunInTx(ctx context.Context, fn func(repo AppUsageRepository) error) error
}

type AppUsageUseCase interface {
	List(ctx context.Context, userID string) ([]*TrackedAppModel, error)
	Get(ctx context.Context, userID, id string) (*TrackedAppModel, error)
	// CreateOrUpdate the bool reports whether the app was created
	CreateOrUpdate(ctx context.Context, userID string, post *AppPost) (*TrackedAppModel, bool, error)
	UpdateCategory(ctx context.Context, userID, id, category string) (*TrackedAppModel, error)
	ReportUsage(ctx context.Context, userID, id string, report *UsageReport) (*TrackedAppModel, error)
}
