package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/wellbeing/internal/infrastructure/auth"
	"github.com/pot-code/wellbeing/internal/infrastructure/validate"
	"github.com/pot-code/wellbeing/internal/timeline"
)

type TimelineHandler struct {
	timelineUseCase timeline.TimelineUseCase
	validator       validate.Validator
	jwtUtil         *auth.JWTUtil
}

func NewTimelineHandler(
	TimelineUseCase timeline.TimelineUseCase,
	JWTUtil *auth.JWTUtil,
	Validator validate.Validator,
) *TimelineHandler {
	return &TimelineHandler{TimelineUseCase, Validator, JWTUtil}
}

type segmentPost struct {
	Index          *int  `json:"index" validate:"required"`
	UsefulSeconds  int64 `json:"useful_seconds" validate:"min=0,max=5760"` // at most one segment of wall time
	HarmfulSeconds int64 `json:"harmful_seconds" validate:"min=0,max=5760"`
}

type timelinePost struct {
	Date          string        `json:"date" validate:"required,date"`
	Segments      []segmentPost `json:"segments" validate:"dive"`
	SessionsCount *int64        `json:"sessions_count" validate:"omitempty,min=0"`
}

func (tp *timelinePost) patch() []timeline.SegmentPatch {
	patch := make([]timeline.SegmentPatch, 0, len(tp.Segments))
	for _, s := range tp.Segments {
		patch = append(patch, timeline.SegmentPatch{
			Index:          *s.Index,
			UsefulSeconds:  s.UsefulSeconds,
			HarmfulSeconds: s.HarmfulSeconds,
		})
	}
	return patch
}

type segmentView struct {
	Index          int   `json:"index"`
	UsefulSeconds  int64 `json:"useful_seconds"`
	HarmfulSeconds int64 `json:"harmful_seconds"`
	TotalSeconds   int64 `json:"total_seconds"`
}

// TimelineView per segment breakdown of one day plus the totals
type TimelineView struct {
	Date                   string        `json:"date"`
	Segments               []segmentView `json:"segments"`
	TotalUsefulSeconds     int64         `json:"total_useful_seconds"`
	TotalHarmfulSeconds    int64         `json:"total_harmful_seconds"`
	TotalScreenTimeSeconds int64         `json:"total_screen_time_seconds"`
	SessionsCount          int64         `json:"sessions_count"`
	SegmentSeconds         int64         `json:"segment_seconds"`
	CreatedAt              int64         `json:"created_at"`
	UpdatedAt              int64         `json:"updated_at"`
}

func NewTimelineView(m *timeline.TimelineModel) *TimelineView {
	segments := make([]segmentView, len(m.Segments))
	for i, s := range m.Segments {
		segments[i] = segmentView{i, s.UsefulSeconds, s.HarmfulSeconds, s.UsefulSeconds + s.HarmfulSeconds}
	}
	return &TimelineView{
		Date:                   m.Date,
		Segments:               segments,
		TotalUsefulSeconds:     m.TotalUsefulSeconds,
		TotalHarmfulSeconds:    m.TotalHarmfulSeconds,
		TotalScreenTimeSeconds: m.TotalScreenTimeSeconds,
		SessionsCount:          m.SessionsCount,
		SegmentSeconds:         int64(timeline.SegmentDuration() / time.Second),
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
}

func (th *TimelineHandler) HandleGetTimeline(c echo.Context) (err error) {
	claims := th.jwtUtil.GetContextToken(c)
	date := c.QueryParam("date")

	// validation
	if fields := th.validator.Var("date", date, "required,date"); len(fields) > 0 {
		return respondValidationError(c, "Failed to validate params", fields)
	}

	m, _, err := th.timelineUseCase.GetOrCreate(c.Request().Context(), claims.UID, date)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, NewTimelineView(m))
}

// HandleMergeTimeline patch the given segments, 201 when the day was created by this call
func (th *TimelineHandler) HandleMergeTimeline(c echo.Context) (err error) {
	claims := th.jwtUtil.GetContextToken(c)
	post := new(timelinePost)
	if ok, err := bindAndValidate(c, th.validator, post); !ok {
		return err
	}

	m, created, err := th.timelineUseCase.Merge(c.Request().Context(), claims.UID, post.Date, post.patch(), post.SessionsCount)
	if err != nil {
		return respondDomainError(c, err)
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return c.JSON(code, NewTimelineView(m))
}

// HandleReplaceTimeline overwrite the whole day, omitted segments end at zero
func (th *TimelineHandler) HandleReplaceTimeline(c echo.Context) (err error) {
	claims := th.jwtUtil.GetContextToken(c)
	post := new(timelinePost)
	if ok, err := bindAndValidate(c, th.validator, post); !ok {
		return err
	}

	m, _, err := th.timelineUseCase.Replace(c.Request().Context(), claims.UID, post.Date, post.patch(), post.SessionsCount)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, NewTimelineView(m))
}
