package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/waywall/internal/compositor"
	"github.com/bnema/waywall/internal/compositor/backends"
	"github.com/bnema/waywall/internal/config"
	"github.com/bnema/waywall/internal/logger"
	"github.com/bnema/waywall/internal/ui"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the compiled-in backends",
	Long: `List every registered backend by priority. The backend the current session
would try first is marked with *.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := backends.NewRegistry()
		if err != nil {
			return err
		}

		selected := ""
		if sess, err := openSession(config.Get()); err != nil {
			logger.Debugf("No display to detect: %v", err)
		} else {
			selected = sess.Preferred
			if selected == "" {
				selected = compositor.PreferredBackend(sess.detect())
			}
			sess.Close()
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.BackendTable(reg.Descriptors(), selected))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}
