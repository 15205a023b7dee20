package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/wellbeing/internal/achievement"
	"github.com/pot-code/wellbeing/internal/appusage"
	"github.com/pot-code/wellbeing/internal/experience"
	"github.com/pot-code/wellbeing/internal/habit"
	"github.com/pot-code/wellbeing/internal/infrastructure/validate"
	"github.com/pot-code/wellbeing/internal/note"
	"github.com/pot-code/wellbeing/internal/timeline"
	"github.com/pot-code/wellbeing/internal/user"
)

// RESTStandardError response error
type RESTStandardError struct {
	Type    string `json:"type,omitempty"`
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Detail  string `json:"detail,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

func NewRESTStandardError(code int, detail string) *RESTStandardError {
	return &RESTStandardError{
		Code:   code,
		Title:  http.StatusText(code),
		Detail: detail,
	}
}

func (re RESTStandardError) Error() string {
	return re.Detail
}

func (re RESTStandardError) SetTraceID(traceID string) RESTStandardError {
	re.TraceID = traceID
	return re
}

// RESTValidationError standard validation error
type RESTValidationError struct {
	RESTStandardError
	InvalidParams []*validate.FieldError `json:"invalid_params"`
}

func NewRESTValidationError(code int, detail string, internal []*validate.FieldError) *RESTValidationError {
	return &RESTValidationError{
		RESTStandardError: RESTStandardError{
			Code:   code,
			Title:  http.StatusText(code),
			Detail: detail,
		},
		InvalidParams: internal,
	}
}

func (rve RESTValidationError) Error() string {
	return rve.Detail
}

func (rve RESTValidationError) SetTraceID(traceID string) RESTValidationError {
	rve.RESTStandardError.TraceID = traceID
	return rve
}

// domain errors the client can act on, anything else is a 500
var errorStatus = []struct {
	target error
	code   int
}{
	{user.ErrDuplicatedUser, http.StatusConflict},
	{user.ErrNoSuchUser, http.StatusUnauthorized},
	{user.ErrUserTooManyRetry, http.StatusForbidden},
	{user.ErrNotFound, http.StatusNotFound},
	{experience.ErrExperienceOverflow, http.StatusBadRequest},
	{timeline.ErrConcurrentUpdate, http.StatusConflict},
	{habit.ErrNotFound, http.StatusNotFound},
	{note.ErrNotFound, http.StatusNotFound},
	{note.ErrDuplicatedNote, http.StatusConflict},
	{appusage.ErrNotFound, http.StatusNotFound},
	{achievement.ErrDuplicatedRecord, http.StatusConflict},
}

// TraceID request id assigned by the RequestID middleware
func TraceID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// RespondError writes a standard error body with the request trace id
func RespondError(c echo.Context, code int, detail string) error {
	return c.JSON(code, NewRESTStandardError(code, detail).SetTraceID(TraceID(c)))
}

// respondDomainError maps known domain errors to their status, unknown ones are returned for ErrorHandling
func respondDomainError(c echo.Context, err error) error {
	for _, e := range errorStatus {
		if errors.Is(err, e.target) {
			return RespondError(c, e.code, e.target.Error())
		}
	}
	return err
}

func respondValidationError(c echo.Context, detail string, fields []*validate.FieldError) error {
	return c.JSON(http.StatusBadRequest,
		NewRESTValidationError(http.StatusBadRequest, detail, fields).SetTraceID(TraceID(c)))
}

// bindAndValidate reports false when the response has already been written
func bindAndValidate(c echo.Context, v validate.Validator, post interface{}) (bool, error) {
	if err := c.Bind(post); err != nil {
		detail := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Internal != nil {
			detail = he.Internal.Error()
		}
		return false, RespondError(c, http.StatusUnprocessableEntity, detail)
	}
	if fields := v.Struct(post); len(fields) > 0 {
		return false, respondValidationError(c, "Failed to validate fields", fields)
	}
	return true, nil
}
