package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gookit/color"
	"github.com/vk/bbpatcher/internal/ctxlog"
	"github.com/vk/bbpatcher/internal/patcher"
	"github.com/vk/bbpatcher/internal/preload"
	"github.com/vk/bbpatcher/internal/signature"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	classifier *signature.Classifier
	patcher    *patcher.Patcher
	packager   *preload.Packager
}

// NewApp is the constructor for the main application. Human-readable status
// goes to outW and structured logs to logW. The embedded signature database
// is merged with cfg.SignaturesPath when one is given.
func NewApp(outW, logW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")
	if cfg.NoColor {
		color.Enable = false
	}

	db, err := signature.DefaultDatabase()
	if err != nil {
		return nil, fmt.Errorf("failed to load built-in signatures: %w", err)
	}
	if cfg.SignaturesPath != "" {
		extra, err := signature.LoadDatabase(cfg.SignaturesPath)
		if err != nil {
			return nil, err
		}
		if err := db.Merge(extra); err != nil {
			return nil, err
		}
		logger.Debug("Merged signature database.", "path", cfg.SignaturesPath)
	}
	logger.Debug("Signature database ready.", "digests", db.Len())

	return &App{
		outW:       outW,
		logger:     logger,
		config:     cfg,
		classifier: signature.NewClassifier(db),
		patcher:    patcher.New(),
		packager:   preload.New(),
	}, nil
}

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	l, err := resolveLayout(a.config)
	if err != nil {
		return err
	}
	a.logger.Debug("Game layout resolved.", "game_dir", l.GameDir, "exe", l.Exe, "mods", l.Mods, "output", l.Output)

	switch a.config.Command {
	case CmdDetect:
		err = a.detect(ctx, l)
	case CmdCheck:
		err = a.check(ctx, l)
	case CmdPatch:
		err = a.patch(ctx, l)
	case CmdPreload:
		err = a.preload(ctx, l)
	case CmdAll:
		err = a.all(ctx, l)
	default:
		err = fmt.Errorf("unknown command %q", a.config.Command)
	}

	a.logger.Debug("App.Run method finished.", "error", err)
	return err
}
