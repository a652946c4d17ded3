package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/autoblog/config"
	"github.com/cppla/autoblog/models"
	"github.com/cppla/autoblog/routes"
	"github.com/cppla/autoblog/services"
	"github.com/cppla/autoblog/store"
	"github.com/cppla/autoblog/tasks"
	"github.com/cppla/autoblog/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.MustOpenDatabase(cfg, &models.User{}, &models.Post{}, &models.Comment{})
	st := store.NewGormStore(db)

	tokens, err := utils.NewTokenManager(cfg.JWTSecret)
	if err != nil {
		utils.Sugar.Fatalf("token manager: %v", err)
	}
	gate := services.NewAuthGate(st, tokens, utils.BcryptHasher{}, time.Duration(cfg.AccessTokenExpireMinutes)*time.Minute)

	runner := newRunner(cfg, utils.Logger.Named("tasks"))
	autoreply := services.NewAutoreplyScheduler(st, st, runner, utils.Logger.Named("autoreply"))

	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		utils.Sugar.Fatalf("invalid report timezone %q: %v", cfg.ReportTimezone, err)
	}

	r := routes.SetupRouter(cfg, routes.Dependencies{
		Store:     st,
		Gate:      gate,
		Autoreply: autoreply,
		Reporter:  services.NewBreakdownReporter(st, loc),
		Moderator: services.NewWordListModerator(cfg.ModerationBlockedWords),
	})

	utils.Sugar.Infof("Starting server on port %s (graceful), task runner %s", cfg.AppPort, cfg.TaskRunner)
	err = utils.GraceServer(":"+cfg.AppPort, r,
		runner.Stop,
		func(context.Context) error { return utils.CloseRedis() },
		func(context.Context) error {
			sqlDB, err := st.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	)
	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

// newRunner builds the task runner named by cfg.TaskRunner.
func newRunner(cfg config.AppConfig, logger *zap.Logger) tasks.Runner {
	switch cfg.TaskRunner {
	case "redis":
		rc := utils.GetRedis()
		if rc == nil {
			utils.Sugar.Fatal("task runner redis requires Redis to be enabled")
		}
		r := tasks.NewRedisRunner(rc, cfg.TaskQueueKey, time.Duration(cfg.TaskPollIntervalMS)*time.Millisecond, logger)
		r.Start()
		return r
	case "memory", "":
		return tasks.NewMemoryRunner(logger)
	default:
		utils.Sugar.Fatalf("unknown task runner %q", cfg.TaskRunner)
		return nil
	}
}
