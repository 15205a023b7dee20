package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/wellbeing/internal/appusage"
	"github.com/pot-code/wellbeing/internal/infrastructure/auth"
	"github.com/pot-code/wellbeing/internal/infrastructure/validate"
)

type AppUsageHandler struct {
	appUsageUseCase appusage.AppUsageUseCase
	validator       validate.Validator
	jwtUtil         *auth.JWTUtil
}

func NewAppUsageHandler(
	AppUsageUseCase appusage.AppUsageUseCase,
	JWTUtil *auth.JWTUtil,
	Validator validate.Validator,
) *AppUsageHandler {
	return &AppUsageHandler{AppUsageUseCase, Validator, JWTUtil}
}

func (ah *AppUsageHandler) HandleListApps(c echo.Context) (err error) {
	claims := ah.jwtUtil.GetContextToken(c)

	apps, err := ah.appUsageUseCase.List(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apps)
}

func (ah *AppUsageHandler) HandleGetApp(c echo.Context) (err error) {
	claims := ah.jwtUtil.GetContextToken(c)

	m, err := ah.appUsageUseCase.Get(c.Request().Context(), claims.UID, c.Param("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// HandleCreateOrUpdateApp 201 for a new package, 200 when it was already tracked
func (ah *AppUsageHandler) HandleCreateOrUpdateApp(c echo.Context) (err error) {
	claims := ah.jwtUtil.GetContextToken(c)
	post := new(appusage.AppPost)
	if ok, err := bindAndValidate(c, ah.validator, post); !ok {
		return err
	}

	m, created, err := ah.appUsageUseCase.CreateOrUpdate(c.Request().Context(), claims.UID, post)
	if err != nil {
		return respondDomainError(c, err)
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return c.JSON(code, m)
}

func (ah *AppUsageHandler) HandleUpdateCategory(c echo.Context) (err error) {
	claims := ah.jwtUtil.GetContextToken(c)
	post := new(appusage.CategoryPost)
	if ok, err := bindAndValidate(c, ah.validator, post); !ok {
		return err
	}

	m, err := ah.appUsageUseCase.UpdateCategory(c.Request().Context(), claims.UID, c.Param("id"), post.Category)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (ah *AppUsageHandler) HandleReportUsage(c echo.Context) (err error) {
	claims := ah.jwtUtil.GetContextToken(c)
	post := new(appusage.UsageReport)
	if ok, err := bindAndValidate(c, ah.validator, post); !ok {
		return err
	}

	m, err := ah.appUsageUseCase.ReportUsage(c.Request().Context(), claims.UID, c.Param("id"), post)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}
