package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/wellbeing/internal/achievement"
	"github.com/pot-code/wellbeing/internal/infrastructure/auth"
	"github.com/pot-code/wellbeing/internal/infrastructure/validate"
)

type AchievementHandler struct {
	achievementUseCase achievement.AchievementUseCase
	validator          validate.Validator
	jwtUtil            *auth.JWTUtil
}

func NewAchievementHandler(
	AchievementUseCase achievement.AchievementUseCase,
	JWTUtil *auth.JWTUtil,
	Validator validate.Validator,
) *AchievementHandler {
	return &AchievementHandler{AchievementUseCase, Validator, JWTUtil}
}

func (ah *AchievementHandler) HandleListAchievements(c echo.Context) (err error) {
	claims := ah.jwtUtil.GetContextToken(c)

	list, err := ah.achievementUseCase.List(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (ah *AchievementHandler) HandleSyncAchievements(c echo.Context) (err error) {
	claims := ah.jwtUtil.GetContextToken(c)
	post := new(achievement.SyncPost)
	if ok, err := bindAndValidate(c, ah.validator, post); !ok {
		return err
	}

	synced, err := ah.achievementUseCase.Sync(c.Request().Context(), claims.UID, post.Achievements)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, synced)
}

func (ah *AchievementHandler) HandleGetStats(c echo.Context) (err error) {
	claims := ah.jwtUtil.GetContextToken(c)

	stats, err := ah.achievementUseCase.GetStats(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (ah *AchievementHandler) HandleSaveStats(c echo.Context) (err error) {
	claims := ah.jwtUtil.GetContextToken(c)
	post := new(achievement.StatsModel)
	if ok, err := bindAndValidate(c, ah.validator, post); !ok {
		return err
	}

	stats, err := ah.achievementUseCase.SaveStats(c.Request().Context(), claims.UID, post)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
