package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/waywall/internal/compositor"
	"github.com/bnema/waywall/internal/config"
	"github.com/bnema/waywall/internal/ipc"
	"github.com/bnema/waywall/internal/logger"
	"github.com/bnema/waywall/internal/output"
	"github.com/bnema/waywall/internal/ui"
)

var (
	runTUI  bool
	noWatch bool

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Create wallpaper surfaces and keep them in place",
		Long: `Detect the compositor, select a backend and create one wallpaper surface per
covered output. Runs in the foreground until interrupted, following output
hotplug and config file changes.`,
		RunE: runEngine,
	}
)

func init() {
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "show a live status view")
	runCmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload the config file on change")
	rootCmd.AddCommand(runCmd)
}

func runEngine(cmd *cobra.Command, _ []string) error {
	cfg := config.Get()
	surfaceCfg, err := cfg.Surface.Compositor()
	if err != nil {
		return fmt.Errorf("invalid surface config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Records must go to the TUI before any component takes a prefixed logger
	var sink *ui.LogSink
	if runTUI {
		sink = ui.NewLogSink(256)
		restore := logger.SetUINotifier(sink.Notify)
		defer restore()
	}

	sess, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	backend, err := sess.selectBackend()
	if err != nil {
		return err
	}
	logger.Infof("Using %s backend (%s), capabilities: %s", backend.Name, backend.Description, backend.Capabilities())

	mgr := output.NewManager(backend, surfaceCfg, cfg.Outputs)
	defer func() {
		if err := mgr.Close(); err != nil {
			logger.Warnf("Cleanup failed: %v", err)
		}
	}()
	mgr.OnReady(func(s *compositor.Surface) {
		w, h := s.Size()
		logger.Infof("Wallpaper surface ready on %s (%dx%d)", outputLabel(s.Output()), w, h)
	})

	if err := mgr.Start(); err != nil {
		// Covered outputs may still be plugged in later
		logger.Warnf("%v, waiting for outputs", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return mgr.Run(gctx)
	})

	if cfg.IPC.Enabled {
		srv := ipc.NewSocketServer(cfg.IPC.Socket, mgr)
		g.Go(func() error {
			if err := srv.Serve(gctx); err != nil {
				return fmt.Errorf("control socket: %w", err)
			}
			return nil
		})
	}

	if !noWatch {
		config.Watch(func(c *config.Config) {
			reloadConfig(gctx, mgr, c)
		})
	}

	if runTUI {
		runner := ui.NewProgramRunner(ui.DefaultProgramConfig(), ui.NewStatusModel(mgr.Snapshot, time.Second))
		g.Go(func() error {
			sink.Forward(gctx, runner.Send)
			return nil
		})
		g.Go(func() error {
			err := runner.Run(gctx)
			// Leaving the view stops the engine
			cancel()
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Shutting down")
	return nil
}

// reloadConfig applies a changed config file on the loop goroutine
func reloadConfig(ctx context.Context, mgr *output.Manager, c *config.Config) {
	surfaceCfg, err := c.Surface.Compositor()
	if err != nil {
		logger.Errorf("Ignoring invalid surface config: %v", err)
		return
	}

	var reconfErr error
	err = mgr.Do(ctx, func() {
		reconfErr = mgr.Reconfigure(surfaceCfg, c.Outputs)
	})
	switch {
	case err != nil:
		logger.Debugf("Config reload skipped: %v", err)
	case reconfErr != nil:
		logger.Errorf("Failed to apply config: %v", reconfErr)
	default:
		logger.Info("Configuration reloaded")
	}
}

func outputLabel(o *compositor.Output) string {
	if o == nil {
		return "all outputs"
	}
	return o.Identifier()
}
