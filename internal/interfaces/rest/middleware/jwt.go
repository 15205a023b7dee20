package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/wellbeing/internal/infrastructure/auth"
	"github.com/pot-code/wellbeing/internal/interfaces/rest/handler"
)

// HeaderAccessToken carries the refreshed token for clients that do not keep cookies
const HeaderAccessToken = "X-Access-Token"

// ValidateTokenOption ...
type ValidateTokenOption struct {
	InBlackList func(token string) (bool, error)
}

// RefreshTokenOption ...
type RefreshTokenOption struct {
	Threshold time.Duration
}

// VerifyToken validate JWT
func VerifyToken(ju *auth.JWTUtil, options ...*ValidateTokenOption) echo.MiddlewareFunc {
	inBlacklist := func(string) (bool, error) { return false, nil }
	if len(options) > 0 {
		if option := options[0]; option.InBlackList != nil {
			inBlacklist = option.InBlackList
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, err := ju.ExtractToken(c)
			if err != nil {
				return handler.RespondError(c, http.StatusUnauthorized, err.Error())
			}

			if ok, err := inBlacklist(tokenStr); err != nil {
				return err
			} else if ok {
				return handler.RespondError(c, http.StatusUnauthorized, "token has been revoked")
			}

			token, err := ju.Validate(tokenStr)
			if err != nil {
				return handler.RespondError(c, http.StatusUnauthorized, err.Error())
			}
			ju.SetContextToken(c, token)
			return next(c)
		}
	}
}

// RefreshToken refresh jwt if necessary, must be chained after VerifyToken
func RefreshToken(ju *auth.JWTUtil, options ...*RefreshTokenOption) echo.MiddlewareFunc {
	threshold := 5 * time.Minute
	if len(options) > 0 {
		if option := options[0]; option.Threshold > 0 {
			threshold = option.Threshold
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ju.GetContextToken(c)
			if claims == nil {
				return next(c)
			}
			if claims.TimeRemaining() < threshold {
				ju.RefreshToken(claims)
				tokenStr, err := ju.Sign(claims)
				if err != nil {
					return err
				}
				ju.SetClientToken(c, tokenStr)
				c.Response().Header().Set(HeaderAccessToken, tokenStr)
			}
			return next(c)
		}
	}
}
