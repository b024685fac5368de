// sandbox steps a level headless, driving the player with a scripted walk.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/topdown/internal/config"
	"github.com/Faultbox/topdown/internal/game"
	"github.com/Faultbox/topdown/internal/game/ui"
	"github.com/Faultbox/topdown/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// The terminal view owns the screen, so logs only go to the file then.
	if cfg.Debug.TUI {
		err = logger.InitWithFileConfig(cfg.Logging.Level, logger.DefaultFileConfig(cfg.Logging.LogFile), false)
	} else {
		err = logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("sandbox failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, err := game.New(cfg)
	if err != nil {
		return err
	}
	defer g.Close()

	if cfg.Debug.TUI {
		term, err := ui.NewTerminal()
		if err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		defer term.Close()
		g.AttachTerminal(term)
	}

	sum, err := g.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		return err
	}
	if !cfg.Debug.TUI {
		fmt.Printf("ticks %d  collisions %d  landings %d  frame changes %d  cycles %d  rebinds %d  index rebuilds %d\n",
			sum.Ticks, sum.Collisions, sum.Landings, sum.FrameChanges, sum.Finished, sum.Rebinds, sum.IndexRebuilds)
	}
	return nil
}
