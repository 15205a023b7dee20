package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/wellbeing/internal/experience"
	"github.com/pot-code/wellbeing/internal/infrastructure/auth"
	"github.com/pot-code/wellbeing/internal/infrastructure/driver"
	"github.com/pot-code/wellbeing/internal/infrastructure/validate"
	"github.com/pot-code/wellbeing/internal/user"
)

// UserHandler user related operations
type UserHandler struct {
	JWTUtil           *auth.JWTUtil
	KVStore           driver.KeyValueDB
	UserUseCase       user.UserUseCase
	ExperienceUseCase experience.ExperienceUseCase
	Validator         validate.Validator
}

// NewUserHandler create an user controller instance
func NewUserHandler(
	JWTUtil *auth.JWTUtil,
	KVStore driver.KeyValueDB,
	UserUseCase user.UserUseCase,
	ExperienceUseCase experience.ExperienceUseCase,
	Validator validate.Validator,
) *UserHandler {
	return &UserHandler{
		JWTUtil:           JWTUtil,
		KVStore:           KVStore,
		UserUseCase:       UserUseCase,
		ExperienceUseCase: ExperienceUseCase,
		Validator:         Validator,
	}
}

type signInPost struct {
	Username string `json:"username" validate:"required"` // username or email
	Password string `json:"password" validate:"required"`
}

type signInResponse struct {
	Token string          `json:"token"`
	User  *user.UserModel `json:"user"`
}

type meResponse struct {
	*user.UserModel
	experience.Progress
	Experience *experience.ExperienceModel `json:"experience"`
}

// HandleSignIn ...
func (uh *UserHandler) HandleSignIn(c echo.Context) (err error) {
	post := new(signInPost)
	if ok, err := bindAndValidate(c, uh.Validator, post); !ok {
		return err
	}

	u, err := uh.UserUseCase.SignIn(c.Request().Context(), post.Username, post.Password)
	if err != nil {
		return respondDomainError(c, err)
	}

	// issue JWT
	tokenStr, err := uh.JWTUtil.GenerateTokenStr(u.ID, u.Email, u.Username)
	if err != nil {
		return err
	}
	uh.JWTUtil.SetClientToken(c, tokenStr)
	u.Password = ""
	return c.JSON(http.StatusOK, &signInResponse{tokenStr, u})
}

// HandleSignUp ...
func (uh *UserHandler) HandleSignUp(c echo.Context) (err error) {
	post := new(user.UserModel)
	if ok, err := bindAndValidate(c, uh.Validator, post); !ok {
		return err
	}

	u, err := uh.UserUseCase.SignUp(c.Request().Context(), post)
	if err != nil {
		return respondDomainError(c, err)
	}
	u.Password = ""
	return c.JSON(http.StatusCreated, u)
}

// HandleSignOut blacklist the token for the rest of its lifetime
func (uh *UserHandler) HandleSignOut(c echo.Context) (err error) {
	ju := uh.JWTUtil

	tokenStr, err := ju.ExtractToken(c)
	if err != nil {
		return c.NoContent(http.StatusOK)
	}
	token, err := ju.Validate(tokenStr)
	if err != nil {
		return RespondError(c, http.StatusUnauthorized, err.Error())
	}
	ju.ClearClientToken(c)
	if remaining := token.TimeRemaining(); remaining > 0 {
		if err := uh.KVStore.SetEX(tokenStr, token.UID, remaining); err != nil {
			return err
		}
	}
	return c.NoContent(http.StatusOK)
}

// HandleUserExists ...
func (uh *UserHandler) HandleUserExists(c echo.Context) (err error) {
	username := c.QueryParam("username")
	email := c.QueryParam("email")

	if fe := uh.Validator.AllEmpty([]string{"username", "email"}, username, email); fe != nil {
		return respondValidationError(c, "Failed to validate params", []*validate.FieldError{fe})
	}

	existing, err := uh.UserUseCase.Exists(c.Request().Context(), username, email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, existing)
}

// HandleMe profile of the signed in user with the experience summary
func (uh *UserHandler) HandleMe(c echo.Context) (err error) {
	ctx := c.Request().Context()
	claims := uh.JWTUtil.GetContextToken(c)

	u, err := uh.UserUseCase.GetByID(ctx, claims.UID)
	if err != nil {
		return respondDomainError(c, err)
	}
	summary, err := uh.ExperienceUseCase.Summary(ctx, claims.UID)
	if err != nil {
		return err
	}
	u.Password = ""
	return c.JSON(http.StatusOK, &meResponse{u, summary.Progress(), summary})
}
