package timeline

import (
	"context"
	"errors"
	"time"
)

const (
	// SegmentCount number of equal slices a day is split into
	SegmentCount = 15
	// MaxSegmentSeconds upper bound of either counter of one segment
	MaxSegmentSeconds = int64(24*60*60) / SegmentCount
)

var (
	// ErrConcurrentUpdate the row kept changing under a read-modify-write
	ErrConcurrentUpdate = errors.New("timeline was modified concurrently, please retry")
	// ErrDuplicatedRecord the (user, date) row already exists
	ErrDuplicatedRecord = errors.New("timeline record already exists")
	// ErrStaleVersion the row version moved since it was read
	ErrStaleVersion = errors.New("timeline version is stale")
)

// Segment seconds spent in one slice of the day
type Segment struct {
	UsefulSeconds  int64 `json:"useful_seconds"`
	HarmfulSeconds int64 `json:"harmful_seconds"`
}

// SegmentPatch client supplied value for one segment
type SegmentPatch struct {
	Index          int
	UsefulSeconds  int64
	HarmfulSeconds int64
}

// TimelineModel one row per user and calendar date, totals always derive from Segments
type TimelineModel struct {
	UserID                 string
	Date                   string
	Segments               [SegmentCount]Segment
	TotalUsefulSeconds     int64
	TotalHarmfulSeconds    int64
	TotalScreenTimeSeconds int64
	SessionsCount          int64
	Version                int64
	CreatedAt              int64
	UpdatedAt              int64
}

// SegmentDuration wall time covered by one segment
func SegmentDuration() time.Duration {
	return 24 * time.Hour / SegmentCount
}

// SetSegment overwrite one segment, out of range indexes are ignored and
// values are clamped to [0, MaxSegmentSeconds] so the totals cannot overflow
func (m *TimelineModel) SetSegment(index int, useful, harmful int64) {
	if index < 0 || index >= SegmentCount {
		return
	}
	m.Segments[index] = Segment{UsefulSeconds: clampSeconds(useful), HarmfulSeconds: clampSeconds(harmful)}
}

func clampSeconds(v int64) int64 {
	if v < 0 {
		return 0
	}
	if v > MaxSegmentSeconds {
		return MaxSegmentSeconds
	}
	return v
}

// RecomputeTotals derive totals from the segments
func (m *TimelineModel) RecomputeTotals() {
	var useful, harmful int64
	for _, s := range m.Segments {
		useful += s.UsefulSeconds
		harmful += s.HarmfulSeconds
	}
	m.TotalUsefulSeconds = useful
	m.TotalHarmfulSeconds = harmful
	m.TotalScreenTimeSeconds = useful + harmful
}

// MergeUpdate patch the given segments and keep the rest
func (m *TimelineModel) MergeUpdate(patch []SegmentPatch, sessions *int64) {
	for _, p := range patch {
		m.SetSegment(p.Index, p.UsefulSeconds, p.HarmfulSeconds)
	}
	if sessions != nil {
		m.SessionsCount = *sessions
	}
	m.RecomputeTotals()
}

// ReplaceUpdate reset the day to the given segments, omitted ones end at zero
func (m *TimelineModel) ReplaceUpdate(patch []SegmentPatch, sessions *int64) {
	m.Segments = [SegmentCount]Segment{}
	for _, p := range patch {
		m.SetSegment(p.Index, p.UsefulSeconds, p.HarmfulSeconds)
	}
	m.SessionsCount = 0
	if sessions != nil {
		m.SessionsCount = *sessions
	}
	m.RecomputeTotals()
}

// UpdateMode how a patch is applied to the stored day
type UpdateMode int

const (
	ModeMerge UpdateMode = iota
	ModeReplace
)

type TimelineRepository interface {
	FindByDate(ctx context.Context, userID, date string) (*TimelineModel, error)
	// Insert fails with ErrDuplicatedRecord when the (user, date) row exists
	Insert(ctx context.Context, m *TimelineModel) error
	// Update writes m when the stored version still equals m.Version, else ErrStaleVersion
	Update(ctx context.Context, m *TimelineModel) error
}

type TimelineUseCase interface {
	GetOrCreate(ctx context.Context, userID, date string) (*TimelineModel, bool, error)
	Merge(ctx context.Context, userID, date string, patch []SegmentPatch, sessions *int64) (*TimelineModel, bool, error)
	Replace(ctx context.Context, userID, date string, patch []SegmentPatch, sessions *int64) (*TimelineModel, bool, error)
}
