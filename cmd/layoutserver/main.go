package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/frontline/internal/config"
	"github.com/udisondev/frontline/internal/db"
	"github.com/udisondev/frontline/internal/event"
	"github.com/udisondev/frontline/internal/game/layout"
	"github.com/udisondev/frontline/internal/game/zone"
	"github.com/udisondev/frontline/internal/gameloop"
	"github.com/udisondev/frontline/internal/history"
	"github.com/udisondev/frontline/internal/platform/otel"
	"github.com/udisondev/frontline/internal/ui"
	"github.com/udisondev/frontline/internal/world"
)

const ServerConfigPath = "config/layoutserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ServerConfigPath
	if p := os.Getenv("FRONTLINE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading server config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("frontline layout server starting", "log_level", cfg.LogLevel, "layout_file", cfg.LayoutFile)

	shutdownTracing, err := otel.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			slog.Warn("tracing shutdown", "error", err)
		}
	}()

	layoutCfg, err := config.LoadLayout(cfg.LayoutFile)
	if err != nil {
		return fmt.Errorf("loading layout: %w", err)
	}
	slog.Info("layout loaded",
		"name", layoutCfg.Name,
		"teams", len(layoutCfg.Teams),
		"zones", len(layoutCfg.Zones),
		"phases", len(layoutCfg.Phases))

	ids := world.NewIDGenerator()
	groups := world.NewGroups(ids)
	players := world.NewPlayers()

	teams, err := buildTeams(layoutCfg, groups)
	if err != nil {
		return fmt.Errorf("building team registry: %w", err)
	}

	bus := event.NewBus()
	loop := gameloop.New(cfg.QueueSize)

	// Движения нет в этом процессе: фиксируем удержание команд в логе.
	event.Subscribe(bus, func(e layout.TeamGrounded) {
		slog.Info("team grounding changed",
			"phase", e.Phase.Name(), "team", e.Team.String(), "grounded", e.Grounded)
	})

	format := ui.NewFormatter(cfg.Locale)
	slog.Info("broadcast locale", "locale", format.Tag().String())

	match, err := layout.New(layoutCfg, layout.NewPhaseRegistry(), layout.Deps{
		Bus:         bus,
		Exec:        loop,
		Scheduler:   loop,
		Broadcaster: ui.NewLogBroadcaster(slog.Default()),
		Players:     players,
		Teams:       teams,
		Zones:       zone.Source{LayoutZones: layoutCfg.Zones, BaseDir: filepath.Dir(cfg.LayoutFile)},
		Format:      format,
	})
	if err != nil {
		return fmt.Errorf("creating layout: %w", err)
	}

	var recorder *history.Recorder
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		recorder = history.NewRecorder(database.Matches())
		recorder.Attach(bus)
	}

	// Цикл переживает отмену ctx: EndPhase ещё должен на нём выполниться.
	loopCtx, stopLoop := context.WithCancel(context.WithoutCancel(ctx))
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(loopCtx) }()
	defer func() {
		stopLoop()
		select {
		case <-loopDone:
		case <-time.After(cfg.ShutdownTimeout):
			slog.Warn("game loop did not stop in time", "timeout", cfg.ShutdownTimeout)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if recorder != nil {
			defer recorder.Close()
		}
		slog.Info("starting layout", "name", match.Name())
		err := match.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("layout %q: %w", match.Name(), err)
		}
		slog.Info("layout finished", "name", match.Name())
		return nil
	})

	if recorder != nil {
		g.Go(func() error {
			err := recorder.Run(gctx)
			if errors.Is(err, history.ErrClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
