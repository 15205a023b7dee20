package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pot-code/wellbeing/internal/achievement"
	"github.com/pot-code/wellbeing/internal/appusage"
	"github.com/pot-code/wellbeing/internal/experience"
	"github.com/pot-code/wellbeing/internal/habit"
	infra "github.com/pot-code/wellbeing/internal/infrastructure"
	"github.com/pot-code/wellbeing/internal/infrastructure/clock"
	"github.com/pot-code/wellbeing/internal/infrastructure/driver"
	"github.com/pot-code/wellbeing/internal/infrastructure/logging"
	"github.com/pot-code/wellbeing/internal/infrastructure/uuid"
	"github.com/pot-code/wellbeing/internal/interfaces/rest"
	"github.com/pot-code/wellbeing/internal/note"
	"github.com/pot-code/wellbeing/internal/timeline"
	"github.com/pot-code/wellbeing/internal/user"
	"go.uber.org/zap"
)

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)
	option, err := infra.InitConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		FilePath: option.Logging.FilePath,
		Level:    option.Logging.Level,
		AppID:    option.AppID,
		Env:      option.Env,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %s\n", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appClock, err := clock.NewClock(option.Timezone)
	if err != nil {
		logger.Fatal("Failed to load timezone", zap.Error(err))
	}

	dbConn, err := driver.GetDBConnection(&driver.DBConfig{
		User:     option.Database.User,
		Password: option.Database.Password,
		MaxConn:  option.Database.MaxConn,
		Protocol: option.Database.Protocol,
		Driver:   option.Database.Driver,
		Host:     option.Database.Host,
		Port:     option.Database.Port,
		Query:    option.Database.Query,
		Schema:   option.Database.Schema,
	})
	if err != nil {
		logger.Fatal("Failed to create DB connection", zap.Error(err))
	}
	defer dbConn.Close(context.Background())
	logger.Debug("Create db connection instance", zap.String("db.driver", option.Database.Driver),
		zap.String("db.schema", option.Database.Schema),
		zap.String("db.host", option.Database.Host),
	)

	if option.Database.Migrate {
		if err := driver.Migrate(logging.SetLoggerInContext(ctx, logger), dbConn, option.Database.Driver); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	var kv driver.KeyValueDB
	if option.KVStore.Host != "" {
		kv = driver.NewRedisClient(option.KVStore.Host, option.KVStore.Port, option.KVStore.Password)
		if err := kv.Ping(); err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
	} else {
		logger.Warn("kv.host is empty, token blacklist and login locks are kept in process memory")
		kv = driver.NewMemoryKV()
	}
	defer kv.Close()

	UUIDGenerator := uuid.NewNanoIDGenerator(option.Security.IDLength)
	deps := &rest.Dependencies{
		Conn:    dbConn,
		KVStore: kv,
		UserUseCase: user.NewUserUseCase(user.NewUserRepository(dbConn, UUIDGenerator), kv, appClock,
			option.Security.MaxLoginAttempts, option.Security.RetryTimeout),
		ExperienceUseCase:  experience.NewExperienceUseCase(experience.NewExperienceRepository(dbConn), appClock),
		TimelineUseCase:    timeline.NewTimelineUseCase(timeline.NewTimelineRepository(dbConn), appClock),
		HabitUseCase:       habit.NewHabitUseCase(habit.NewHabitRepository(dbConn, UUIDGenerator), appClock),
		NoteUseCase:        note.NewNoteUseCase(note.NewNoteRepository(dbConn, UUIDGenerator), appClock),
		AppUsageUseCase:    appusage.NewAppUsageUseCase(appusage.NewAppUsageRepository(dbConn, UUIDGenerator), appClock),
		AchievementUseCase: achievement.NewAchievementUseCase(achievement.NewAchievementRepository(dbConn, UUIDGenerator), appClock),
	}

	app := rest.NewServer(option, deps, logger)
	if err := rest.Serve(ctx, app, option, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server stopped", zap.Error(err))
	}
}
