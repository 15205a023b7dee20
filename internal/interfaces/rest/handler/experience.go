package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/wellbeing/internal/experience"
	"github.com/pot-code/wellbeing/internal/infrastructure/auth"
	"github.com/pot-code/wellbeing/internal/infrastructure/validate"
)

type ExperienceHandler struct {
	experienceUseCase experience.ExperienceUseCase
	validator         validate.Validator
	jwtUtil           *auth.JWTUtil
}

func NewExperienceHandler(
	ExperienceUseCase experience.ExperienceUseCase,
	JWTUtil *auth.JWTUtil,
	Validator validate.Validator,
) *ExperienceHandler {
	return &ExperienceHandler{ExperienceUseCase, Validator, JWTUtil}
}

// segment completion report, the seconds are accepted for client compatibility only
type experiencePost struct {
	SegmentIndex     int   `json:"segment_index"`
	UsefulSeconds    int64 `json:"useful_seconds"`
	HarmfulSeconds   int64 `json:"harmful_seconds"`
	ExperienceEarned int64 `json:"experience_earned"`
}

// ExperienceView a day record together with the derived level
type ExperienceView struct {
	*experience.ExperienceModel
	experience.Progress
}

func NewExperienceView(m *experience.ExperienceModel) *ExperienceView {
	return &ExperienceView{m, m.Progress()}
}

type experienceAwardView struct {
	Success          bool  `json:"success"`
	ExperienceEarned int64 `json:"experience_earned"`
	*ExperienceView
}

func (eh *ExperienceHandler) HandleGetExperience(c echo.Context) (err error) {
	claims := eh.jwtUtil.GetContextToken(c)

	m, err := eh.experienceUseCase.GetOrCreateToday(c.Request().Context(), claims.UID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, NewExperienceView(m))
}

func (eh *ExperienceHandler) HandleAwardExperience(c echo.Context) (err error) {
	claims := eh.jwtUtil.GetContextToken(c)
	post := new(experiencePost)
	if ok, err := bindAndValidate(c, eh.validator, post); !ok {
		return err
	}

	m, err := eh.experienceUseCase.AwardExperience(c.Request().Context(), claims.UID, post.ExperienceEarned, post.SegmentIndex)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, &experienceAwardView{true, post.ExperienceEarned, NewExperienceView(m)})
}
