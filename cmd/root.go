package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/waywall/internal/config"
	"github.com/bnema/waywall/internal/logger"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	cfgFile string
	verbose bool
	logFile *os.File

	rootCmd = &cobra.Command{
		Use:   "waywall",
		Short: "waywall - wallpaper surfaces for any compositor",
		Long: `waywall places one wallpaper surface behind the desktop on every output.
It detects the running compositor and picks a backend for it: wlr-layer-shell,
KDE Plasma, GNOME Shell, an X11 desktop window, or a fullscreen xdg-shell
fallback.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
		PersistentPostRun: func(*cobra.Command, []string) {
			if logFile != nil {
				logFile.Close()
				logFile = nil
			}
		},
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ~/.config/waywall/waywall.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// initConfig loads the config file, then applies its logging section. The
// --verbose flag wins over logging.log_level.
func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		config.SetConfigPath(cfgFile)
	}
	if err := config.Init(); err != nil {
		return err
	}

	cfg := config.Get()
	if cfg.Logging.LogLevel != "" {
		logger.SetLevel(cfg.Logging.LogLevel)
	}
	if verbose {
		logger.SetLevel("debug")
	}

	if cfg.Logging.File != "" && logFile == nil {
		f, err := logger.SetupFileLogging(cfg.Logging.File)
		if err != nil {
			logger.Warnf("File logging disabled: %v", err)
			return nil
		}
		logFile = f
	}
	return nil
}
