package rest

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	"github.com/pot-code/wellbeing/internal/achievement"
	"github.com/pot-code/wellbeing/internal/appusage"
	"github.com/pot-code/wellbeing/internal/experience"
	"github.com/pot-code/wellbeing/internal/habit"
	infra "github.com/pot-code/wellbeing/internal/infrastructure"
	"github.com/pot-code/wellbeing/internal/infrastructure/auth"
	"github.com/pot-code/wellbeing/internal/infrastructure/driver"
	"github.com/pot-code/wellbeing/internal/infrastructure/uuid"
	"github.com/pot-code/wellbeing/internal/infrastructure/validate"
	"github.com/pot-code/wellbeing/internal/interfaces/rest/handler"
	"github.com/pot-code/wellbeing/internal/interfaces/rest/middleware"
	"github.com/pot-code/wellbeing/internal/note"
	"github.com/pot-code/wellbeing/internal/timeline"
	"github.com/pot-code/wellbeing/internal/user"
	"go.elastic.co/apm/module/apmechov4"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Dependencies stores and use cases served over REST
type Dependencies struct {
	Conn               driver.ITransactionalDB
	KVStore            driver.KeyValueDB
	UserUseCase        user.UserUseCase
	ExperienceUseCase  experience.ExperienceUseCase
	TimelineUseCase    timeline.TimelineUseCase
	HabitUseCase       habit.HabitUseCase
	NoteUseCase        note.NoteUseCase
	AppUsageUseCase    appusage.AppUsageUseCase
	AchievementUseCase achievement.AchievementUseCase
}

// NewServer create the echo app with every route registered
func NewServer(option *infra.AppConfig, deps *Dependencies, logger *zap.Logger) *echo.Echo {
	var (
		app       = echo.New()
		validator = validate.NewValidator(option.Locale)
		jwtUtil   = auth.NewJWTUtil(option.Security.JWTMethod,
			option.Security.JWTSecret,
			option.Security.TokenName,
			option.SessionTimeout)
		jwtMiddleware = middleware.VerifyToken(jwtUtil, &middleware.ValidateTokenOption{
			InBlackList: func(token string) (bool, error) {
				return deps.KVStore.Exists(token)
			},
		})
		refreshMiddleware = middleware.RefreshToken(jwtUtil, &middleware.RefreshTokenOption{
			Threshold: option.SessionRefresh,
		})
		authenticated = []echo.MiddlewareFunc{jwtMiddleware, refreshMiddleware}
	)
	app.HideBanner = true
	app.HidePort = true

	app.Use(echo_middleware.RequestIDWithConfig(echo_middleware.RequestIDConfig{
		Generator: uuid.RequestID,
	}))
	app.Use(middleware.SetTraceLogger(logger))
	app.Use(middleware.Logging(&middleware.LoggingConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().RequestURI, "/healthz")
		},
	}))
	app.Use(middleware.ErrorHandling(
		&middleware.ErrorHandlingOption{
			Handler: func(c echo.Context, err error) {
				traceID := handler.TraceID(c)
				c.JSON(http.StatusInternalServerError,
					handler.NewRESTStandardError(http.StatusInternalServerError, err.Error()).SetTraceID(traceID),
				)
				logger.Error(err.Error(), zap.String("trace.id", traceID),
					zap.String("url.path", c.Request().RequestURI),
					zap.String("http.request.method", c.Request().Method))
			},
		},
	))
	app.Use(echo_middleware.Secure())
	if option.DevOP.APM {
		app.Use(apmechov4.Middleware())
	}
	app.Use(echo_middleware.CORS())
	app.Use(middleware.AbortRequest(&middleware.AbortRequestOption{
		Timeout: option.RequestTimeout,
		Skipper: func(c echo.Context) bool {
			// websocket sessions outlive the request deadline
			return strings.HasPrefix(c.Request().URL.Path, "/api/v1/ws/")
		},
	}))

	registerLivenessProbe(app, deps.Conn, deps.KVStore)
	if option.Env == infra.EnvDevelopment {
		registerProfileEndpoints(app)
	}

	var (
		UserHandler        = handler.NewUserHandler(jwtUtil, deps.KVStore, deps.UserUseCase, deps.ExperienceUseCase, validator)
		ExperienceHandler  = handler.NewExperienceHandler(deps.ExperienceUseCase, jwtUtil, validator)
		TimelineHandler    = handler.NewTimelineHandler(deps.TimelineUseCase, jwtUtil, validator)
		HabitHandler       = handler.NewHabitHandler(deps.HabitUseCase, jwtUtil, validator)
		NoteHandler        = handler.NewNoteHandler(deps.NoteUseCase, jwtUtil, validator)
		AppUsageHandler    = handler.NewAppUsageHandler(deps.AppUsageUseCase, jwtUtil, validator)
		AchievementHandler = handler.NewAchievementHandler(deps.AchievementUseCase, jwtUtil, validator)
		ProgressHandler    = handler.NewProgressHandler(deps.ExperienceUseCase, deps.TimelineUseCase, jwtUtil, validator)
	)

	createEndpoint(app,
		&endpoint{
			apiVersion: "api/v1",
			groups: []*apiGroup{
				{
					prefix: "/user",
					routes: []*route{
						{"POST", "/login", UserHandler.HandleSignIn, nil},
						{"PUT", "/sign-out", UserHandler.HandleSignOut, nil},
						{"POST", "/sign-up", UserHandler.HandleSignUp, nil},
						{"GET", "/exists", UserHandler.HandleUserExists, nil},
						{"GET", "/me", UserHandler.HandleMe, authenticated},
					},
				},
				{
					prefix:      "/experience",
					middlewares: authenticated,
					routes: []*route{
						{"GET", "", ExperienceHandler.HandleGetExperience, nil},
						{"POST", "", ExperienceHandler.HandleAwardExperience, nil},
					},
				},
				{
					prefix:      "/timeline",
					middlewares: authenticated,
					routes: []*route{
						{"GET", "", TimelineHandler.HandleGetTimeline, nil},
						{"POST", "", TimelineHandler.HandleMergeTimeline, nil},
						{"PUT", "", TimelineHandler.HandleReplaceTimeline, nil},
					},
				},
				{
					prefix:      "/habits",
					middlewares: authenticated,
					routes: []*route{
						{"GET", "", HabitHandler.HandleListHabits, nil},
						{"POST", "", HabitHandler.HandleCreateHabit, nil},
						{"GET", "/:id", HabitHandler.HandleGetHabit, nil},
						{"PUT", "/:id", HabitHandler.HandleUpdateHabit, nil},
						{"DELETE", "/:id", HabitHandler.HandleDeleteHabit, nil},
						{"POST", "/:id/reset", HabitHandler.HandleResetHabit, nil},
					},
				},
				{
					prefix:      "/daily-notes",
					middlewares: authenticated,
					routes: []*route{
						{"GET", "", NoteHandler.HandleListNotes, nil},
						{"POST", "", NoteHandler.HandleCreateNote, nil},
						{"GET", "/date/:date", NoteHandler.HandleGetNoteByDate, nil},
						{"GET", "/:id", NoteHandler.HandleGetNote, nil},
						{"PUT", "/:id", NoteHandler.HandleUpdateNote, nil},
						{"DELETE", "/:id", NoteHandler.HandleDeleteNote, nil},
					},
				},
				{
					prefix:      "/apps",
					middlewares: authenticated,
					routes: []*route{
						{"GET", "", AppUsageHandler.HandleListApps, nil},
						{"POST", "", AppUsageHandler.HandleCreateOrUpdateApp, nil},
						{"GET", "/:id", AppUsageHandler.HandleGetApp, nil},
						{"PUT", "/:id/category", AppUsageHandler.HandleUpdateCategory, nil},
						{"POST", "/:id/usage", AppUsageHandler.HandleReportUsage, nil},
					},
				},
				{
					prefix:      "/achievements",
					middlewares: authenticated,
					routes: []*route{
						{"GET", "", AchievementHandler.HandleListAchievements, nil},
						{"POST", "/sync", AchievementHandler.HandleSyncAchievements, nil},
						{"GET", "/stats", AchievementHandler.HandleGetStats, nil},
						{"POST", "/stats", AchievementHandler.HandleSaveStats, nil},
					},
				},
				{
					prefix:      "/ws",
					middlewares: []echo.MiddlewareFunc{jwtMiddleware},
					routes: []*route{
						{"GET", "/progress", infra.WithHeartbeat(ProgressHandler.HandleProgressFeed), nil},
					},
				},
			},
		})
	return app
}

// Serve start the server and shut it down gracefully once ctx is done
func Serve(ctx context.Context, app *echo.Echo, option *infra.AppConfig, logger *zap.Logger) error {
	printRoutes(app, logger)

	errc := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", option.Host, option.Port)
		logger.Info("Server started", zap.String("server.address", addr))
		errc <- app.Start(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

func printRoutes(app *echo.Echo, logger *zap.Logger) {
	for _, route := range app.Routes() {
		if !strings.HasPrefix(route.Name, "github.com/labstack/echo") {
			logger.Info("Registered route", zap.String("method", route.Method), zap.String("path", route.Path))
		}
	}
}

func registerLivenessProbe(app *echo.Echo, db driver.ITransactionalDB, rdb driver.KeyValueDB) {
	app.GET("/healthz", func(c echo.Context) error {
		if db.Ping() == nil && rdb.Ping() == nil {
			return c.NoContent(http.StatusOK)
		}
		return c.NoContent(http.StatusServiceUnavailable)
	})
}

func registerProfileEndpoints(app *echo.Echo) {
	expvarHandler := expvar.Handler()
	app.GET("/debug/vars", func(c echo.Context) error {
		expvarHandler.ServeHTTP(c.Response().Writer, c.Request())
		return nil
	})
	app.GET("/debug/pprof/", func(c echo.Context) error {
		pprof.Index(c.Response().Writer, c.Request())
		return nil
	})
	app.GET("/debug/pprof/:name", func(c echo.Context) error {
		switch c.Param("name") {
		case "cmdline":
			pprof.Cmdline(c.Response().Writer, c.Request())
		case "profile":
			pprof.Profile(c.Response().Writer, c.Request())
		case "symbol":
			pprof.Symbol(c.Response().Writer, c.Request())
		case "trace":
			pprof.Trace(c.Response().Writer, c.Request())
		default:
			pprof.Handler(c.Param("name")).ServeHTTP(c.Response().Writer, c.Request())
		}
		return nil
	})
}
