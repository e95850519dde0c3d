package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/bnema/waywall/internal/compositor"
	"github.com/bnema/waywall/internal/compositor/backends"
	"github.com/bnema/waywall/internal/config"
	"github.com/bnema/waywall/internal/ipc"
	"github.com/bnema/waywall/internal/logger"
	"github.com/bnema/waywall/internal/setup"
	"github.com/bnema/waywall/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage waywall configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		printConfig(cmd.OutOrStdout(), config.Get(), config.GetConfigPath())
		return nil
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save current configuration to file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(); err != nil {
			return err
		}
		logger.Infof("Configuration saved to: %s", config.GetConfigPath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration file",
	Long: `Walk through the settings interactively and write the configuration file.
With --defaults the file is written with default values and no questions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		useDefaults, _ := cmd.Flags().GetBool("defaults")
		if useDefaults {
			return initDefaults(cmd)
		}

		err := newWizard().RunInteractiveSetup()
		if errors.Is(err, setup.ErrAborted) || errors.Is(err, huh.ErrUserAborted) {
			logger.Info("Configuration unchanged")
			return nil
		}
		return err
	},
}

func init() {
	configInitCmd.Flags().Bool("defaults", false, "write defaults without prompting")
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file (with --defaults)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func initDefaults(cmd *cobra.Command) error {
	configPath := config.GetConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			logger.Infof("Configuration file already exists at: %s", configPath)
			logger.Info("Use --force to overwrite")
			return nil
		}
	}

	defaults := config.DefaultConfig
	if err := config.Update(&defaults); err != nil {
		return err
	}
	logger.Infof("Configuration initialized at: %s", configPath)
	return nil
}

// newWizard offers the registered backends and, when a Wayland display is
// reachable, its outputs
func newWizard() *setup.Wizard {
	var descs []compositor.Descriptor
	if reg, err := backends.NewRegistry(); err == nil {
		descs = reg.Descriptors()
	}

	var outputs []*compositor.Output
	if sess, err := openSession(config.Get()); err == nil {
		outputs = sess.Outputs()
		sess.Close()
	}
	return setup.NewWizard(descs, outputs)
}

func printConfig(w io.Writer, cfg *config.Config, path string) {
	const width = 24
	line := func(key, value string) {
		fmt.Fprintln(w, "  "+ui.FormatKeyValue(key, width, value))
	}
	section := func(name string) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, ui.SubheaderStyle.Render("["+name+"]"))
	}
	orDefault := func(v, def string) string {
		if v == "" {
			return ui.SubtleStyle.Render(def)
		}
		return v
	}

	fmt.Fprintln(w, ui.FormatAppHeader("CONFIG", path))

	section("backend")
	line("preferred", orDefault(cfg.Backend.Preferred, "auto"))

	section("surface")
	line("layer", cfg.Surface.Layer)
	line("anchor", cfg.Surface.Anchor)
	line("exclusive_zone", fmt.Sprint(cfg.Surface.ExclusiveZone))
	line("keyboard_interactivity", fmt.Sprint(cfg.Surface.KeyboardInteractivity))
	line("width", orDefault(nonZero(cfg.Surface.Width), "output width"))
	line("height", orDefault(nonZero(cfg.Surface.Height), "output height"))

	section("outputs")
	line("include", orDefault(strings.Join(cfg.Outputs.Include, ", "), "all"))

	section("logging")
	line("log_level", orDefault(cfg.Logging.LogLevel, "LOG_LEVEL or info"))
	line("file", orDefault(cfg.Logging.File, "none"))

	section("ipc")
	line("enabled", fmt.Sprint(cfg.IPC.Enabled))
	line("socket", orDefault(cfg.IPC.Socket, ipc.SocketPath()))
}

func nonZero(v int32) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprint(v)
}
