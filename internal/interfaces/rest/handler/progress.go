package handler

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pot-code/wellbeing/internal/experience"
	infra "github.com/pot-code/wellbeing/internal/infrastructure"
	"github.com/pot-code/wellbeing/internal/infrastructure/auth"
	"github.com/pot-code/wellbeing/internal/infrastructure/logging"
	"github.com/pot-code/wellbeing/internal/infrastructure/validate"
	"github.com/pot-code/wellbeing/internal/timeline"
	"go.uber.org/zap"
)

// progress feed message types
const (
	ProgressExperience = "experience"
	ProgressTimeline   = "timeline"
	ProgressError      = "error"
)

type ProgressHandler struct {
	experienceUseCase experience.ExperienceUseCase
	timelineUseCase   timeline.TimelineUseCase
	validator         validate.Validator
	jwtUtil           *auth.JWTUtil
}

func NewProgressHandler(
	ExperienceUseCase experience.ExperienceUseCase,
	TimelineUseCase timeline.TimelineUseCase,
	JWTUtil *auth.JWTUtil,
	Validator validate.Validator,
) *ProgressHandler {
	return &ProgressHandler{ExperienceUseCase, TimelineUseCase, Validator, JWTUtil}
}

type progressRequest struct {
	Type string `json:"type"`
	Date string `json:"date"`
}

type progressErrorMessage struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

type experienceMessage struct {
	Type string `json:"type"`
	*ExperienceView
}

type timelineMessage struct {
	Type string `json:"type"`
	*TimelineView
}

// HandleProgressFeed answers {"type":"experience"} and {"type":"timeline","date":...}
// requests with the REST bodies, bad requests get an error message and keep the session
func (ph *ProgressHandler) HandleProgressFeed(c echo.Context) (infra.WSHandler, error) {
	uid := ph.jwtUtil.GetContextToken(c).UID

	return func(ctx context.Context, conn *websocket.Conn) error {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		req := new(progressRequest)
		if err := json.Unmarshal(data, req); err != nil {
			return infra.WriteJSON(conn, &progressErrorMessage{ProgressError, "malformed message: " + err.Error()})
		}

		var reply interface{}
		switch req.Type {
		case ProgressExperience:
			m, err := ph.experienceUseCase.GetOrCreateToday(ctx, uid)
			if err != nil {
				logging.ExtractLoggerFromContext(ctx).Error("progress feed: load experience", zap.Error(err), zap.String("user.id", uid))
				reply = &progressErrorMessage{ProgressError, "failed to load experience"}
				break
			}
			reply = &experienceMessage{ProgressExperience, NewExperienceView(m)}
		case ProgressTimeline:
			if fields := ph.validator.Var("date", req.Date, "required,date"); len(fields) > 0 {
				reply = &progressErrorMessage{ProgressError, fields[0].Reason}
				break
			}
			m, _, err := ph.timelineUseCase.GetOrCreate(ctx, uid, req.Date)
			if err != nil {
				logging.ExtractLoggerFromContext(ctx).Error("progress feed: load timeline", zap.Error(err), zap.String("user.id", uid))
				reply = &progressErrorMessage{ProgressError, "failed to load timeline"}
				break
			}
			reply = &timelineMessage{ProgressTimeline, NewTimelineView(m)}
		default:
			reply = &progressErrorMessage{ProgressError, "unknown message type: " + req.Type}
		}
		return infra.WriteJSON(conn, reply)
	}, nil
}
