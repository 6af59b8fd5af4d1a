package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"taf-timeline/config"
	v1 "taf-timeline/internal/controllers/http/v1"
	"taf-timeline/internal/models"
	"taf-timeline/internal/repositories"
	"taf-timeline/internal/scheduler"
	"taf-timeline/internal/services/settings"
	"taf-timeline/internal/services/status"
	"taf-timeline/internal/services/timeline"
	"taf-timeline/internal/services/updater"
	"taf-timeline/pkg/httpserver"
	"taf-timeline/pkg/logger"
	"taf-timeline/pkg/observe"
)

// @title TAF Timeline
// @version 1.0.0
// @description Publishes terminal aerodrome forecasts as timeline pins, one pin per forecast segment.

// @BasePath /
// @schemes http https

// @tag.name Sync
// @tag.description Forecast synchronisation
// @tag.name Status
// @tag.description Statuses sent to the watch
// @tag.name Settings
// @tag.description Station sourcing settings and setup page handoff
func main() {
	os.Exit(run())
}

func run() int {
	once := flag.Bool("once", false, "run a single sync and exit")
	cfgPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("cannot read .env file: ", err.Error())
	}

	cnf, err := config.NewConfigWithProvider(config.NewFileConfigProvider(*cfgPath))
	if err != nil {
		log.Println(err.Error())
		return 2
	}

	writers := []io.Writer{os.Stdout}
	var hook *observe.SentryHook
	if cnf.Sentry.DSN != "" {
		hook = observe.NewSentryHook(cnf.SentryZone(), cnf.App.Name, 0, cnf.IsDevelopment(), cnf.Sentry.DSN)
		writers = append(writers, hook)
	}

	l := logger.NewZapLoggerWithLevel(cnf.App.Name, cnf.SentryZone(), cnf.Log.Level, writers...)
	if hook != nil {
		hook.SetLogger(l)
	}
	defer func() {
		if hook != nil {
			hook.Flush()
		}
		_ = l.Stop()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos, err := repositories.InitRepositories(ctx, cnf, l)
	if err != nil {
		l.Error(err, map[string]any{"driver": cnf.Store.Driver})
		return 2
	}
	defer repos.Settings.Close()

	settingsService := settings.NewService(repos.Settings, cnf.Setup.URL, l)
	board := status.NewBoard(0, l)
	reconciler := timeline.NewReconciler(repos.Timeline, settingsService, board, l)
	upd := updater.NewUpdater(repos.Taf, repos.Locator, settingsService, reconciler, board, l)

	if *once {
		res, err := upd.Sync(ctx)
		fmt.Println(res.Status)
		if err != nil || res.Status != models.StatusUpdated {
			return 1
		}
		return 0
	}

	app := httpserver.InitFiberServer(cnf.App.Name, cnf.Server, l, func() bool {
		_, _, err := repos.Settings.Get(ctx, models.KeyStationID)
		return err == nil
	})

	v1.NewRouter(
		app,
		upd,
		settingsService,
		board,
		l,
	)

	sched := scheduler.New(upd, cnf.Sync.Interval, l)
	if err = sched.Start(); err != nil {
		l.Error(err)
		return 2
	}

	go func() {
		if err := app.Listen(":" + cnf.Server.Port); err != nil {
			l.Fatal("cannot run the server", map[string]any{"err": err.Error()})
		}
	}()

	l.Info("application started successfully", map[string]any{"port": cnf.Server.Port, "version": cnf.App.Version})

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		l.Warning("stopping application services")
		signal.Stop(sigCh)
		close(sigCh)

		sched.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = app.ShutdownWithContext(shutdownCtx)
	}()

	select {
	case <-sigCh:
		l.Info("received shutdown signal")
	case <-ctx.Done():
		l.Info("context cancelled")
	}
	return 0
}
