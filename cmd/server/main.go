package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/umairdev1/project-management-tool/internal/auth"
	"github.com/umairdev1/project-management-tool/internal/config"
	"github.com/umairdev1/project-management-tool/internal/db"
	"github.com/umairdev1/project-management-tool/internal/jobs"
	plog "github.com/umairdev1/project-management-tool/internal/log"
	"github.com/umairdev1/project-management-tool/internal/mail"
	"github.com/umairdev1/project-management-tool/internal/server"
	"github.com/umairdev1/project-management-tool/internal/service"
	"github.com/umairdev1/project-management-tool/internal/ws"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	plog.Init(cfg.Env, cfg.LogLevel)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config invalid")
	}

	gdb, err := db.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	hub := ws.NewHub()
	var emit service.Emitter = hub
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		defer rdb.Close()
		relay := ws.NewRedisRelay(rdb, cfg.Redis.Channel, hub)
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error().Err(err).Msg("realtime relay stopped")
			}
		}()
		emit = relay
	}

	iss := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTTL)
	mailer := mail.LogMailer{ResetURL: cfg.FrontendURL + "/reset-password"}
	activity := service.NewActivityService(gdb, emit)
	notify := service.NewNotificationService(gdb, emit)
	projects := service.NewProjectService(gdb, emit, activity, notify)
	tasks := service.NewTaskService(gdb, emit, activity, notify, projects)
	limiter := server.NewLimiter(cfg)
	defer limiter.Stop()

	r := server.SetupRouter(cfg, server.Deps{
		DB:       gdb,
		Issuer:   iss,
		Hub:      hub,
		Emit:     emit,
		Limiter:  limiter,
		Auth:     service.NewAuthService(gdb, iss, mailer, activity).WithAdminEmail(cfg.AdminEmail),
		Users:    service.NewUserService(gdb, activity),
		Projects: projects,
		Tasks:    tasks,
		Chat:     service.NewChatService(gdb, emit, activity, notify, projects),
		Notify:   notify,
		Files:    service.NewFileService(gdb, activity, projects),
		Activity: activity,
	})

	sweeper := jobs.NewDeadlineScheduler(tasks, cfg.Deadline.Interval, cfg.Deadline.Window)
	sweeper.Start()
	defer sweeper.Stop()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server starting")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server run")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}
