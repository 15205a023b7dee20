package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/wellbeing/internal/infrastructure/auth"
	"github.com/pot-code/wellbeing/internal/infrastructure/validate"
	"github.com/pot-code/wellbeing/internal/note"
)

type NoteHandler struct {
	noteUseCase note.NoteUseCase
	validator   validate.Validator
	jwtUtil     *auth.JWTUtil
}

func NewNoteHandler(
	NoteUseCase note.NoteUseCase,
	JWTUtil *auth.JWTUtil,
	Validator validate.Validator,
) *NoteHandler {
	return &NoteHandler{NoteUseCase, Validator, JWTUtil}
}

func (nh *NoteHandler) HandleListNotes(c echo.Context) (err error) {
	claims := nh.jwtUtil.GetContextToken(c)

	notes, err := nh.noteUseCase.List(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notes)
}

func (nh *NoteHandler) HandleCreateNote(c echo.Context) (err error) {
	claims := nh.jwtUtil.GetContextToken(c)
	post := new(note.NoteModel)
	if ok, err := bindAndValidate(c, nh.validator, post); !ok {
		return err
	}

	m, err := nh.noteUseCase.Create(c.Request().Context(), claims.UID, post)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (nh *NoteHandler) HandleGetNote(c echo.Context) (err error) {
	claims := nh.jwtUtil.GetContextToken(c)

	m, err := nh.noteUseCase.Get(c.Request().Context(), claims.UID, c.Param("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (nh *NoteHandler) HandleGetNoteByDate(c echo.Context) (err error) {
	claims := nh.jwtUtil.GetContextToken(c)
	date := c.Param("date")

	if fields := nh.validator.Var("date", date, "required,date"); len(fields) > 0 {
		return respondValidationError(c, "Failed to validate params", fields)
	}

	m, err := nh.noteUseCase.GetByDate(c.Request().Context(), claims.UID, date)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (nh *NoteHandler) HandleUpdateNote(c echo.Context) (err error) {
	claims := nh.jwtUtil.GetContextToken(c)
	post := new(note.NoteModel)
	if ok, err := bindAndValidate(c, nh.validator, post); !ok {
		return err
	}

	m, err := nh.noteUseCase.Update(c.Request().Context(), claims.UID, c.Param("id"), post)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (nh *NoteHandler) HandleDeleteNote(c echo.Context) (err error) {
	claims := nh.jwtUtil.GetContextToken(c)

	if err := nh.noteUseCase.Delete(c.Request().Context(), claims.UID, c.Param("id")); err != nil {
		return respondDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
