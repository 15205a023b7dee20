package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/wellbeing/internal/habit"
	"github.com/pot-code/wellbeing/internal/infrastructure/auth"
	"github.com/pot-code/wellbeing/internal/infrastructure/validate"
)

type HabitHandler struct {
	habitUseCase habit.HabitUseCase
	validator    validate.Validator
	jwtUtil      *auth.JWTUtil
}

func NewHabitHandler(
	HabitUseCase habit.HabitUseCase,
	JWTUtil *auth.JWTUtil,
	Validator validate.Validator,
) *HabitHandler {
	return &HabitHandler{HabitUseCase, Validator, JWTUtil}
}

// HandleListHabits optional ?habit_type=good|bad filter
func (hh *HabitHandler) HandleListHabits(c echo.Context) (err error) {
	claims := hh.jwtUtil.GetContextToken(c)
	habitType := c.QueryParam("habit_type")

	if fields := hh.validator.Var("habit_type", habitType, "omitempty,oneof=good bad"); len(fields) > 0 {
		return respondValidationError(c, "Failed to validate params", fields)
	}

	habits, err := hh.habitUseCase.List(c.Request().Context(), claims.UID, habitType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, habits)
}

func (hh *HabitHandler) HandleCreateHabit(c echo.Context) (err error) {
	claims := hh.jwtUtil.GetContextToken(c)
	post := new(habit.HabitModel)
	if ok, err := bindAndValidate(c, hh.validator, post); !ok {
		return err
	}

	m, err := hh.habitUseCase.Create(c.Request().Context(), claims.UID, post)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (hh *HabitHandler) HandleGetHabit(c echo.Context) (err error) {
	claims := hh.jwtUtil.GetContextToken(c)

	m, err := hh.habitUseCase.Get(c.Request().Context(), claims.UID, c.Param("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (hh *HabitHandler) HandleUpdateHabit(c echo.Context) (err error) {
	claims := hh.jwtUtil.GetContextToken(c)
	post := new(habit.HabitModel)
	if ok, err := bindAndValidate(c, hh.validator, post); !ok {
		return err
	}

	m, err := hh.habitUseCase.Update(c.Request().Context(), claims.UID, c.Param("id"), post)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (hh *HabitHandler) HandleDeleteHabit(c echo.Context) (err error) {
	claims := hh.jwtUtil.GetContextToken(c)

	if err := hh.habitUseCase.Delete(c.Request().Context(), claims.UID, c.Param("id")); err != nil {
		return respondDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleResetHabit restart the streak from now
func (hh *HabitHandler) HandleResetHabit(c echo.Context) (err error) {
	claims := hh.jwtUtil.GetContextToken(c)

	m, err := hh.habitUseCase.Reset(c.Request().Context(), claims.UID, c.Param("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}
