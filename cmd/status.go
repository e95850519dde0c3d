package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/waywall/internal/config"
	"github.com/bnema/waywall/internal/ipc"
	"github.com/bnema/waywall/internal/output"
	"github.com/bnema/waywall/internal/ui"
)

var (
	statusJSON    bool
	statusTimeout time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a running waywall instance",
	Long:  `Ask the running instance over its control socket which backend it uses and which surfaces are ready.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := ipc.NewClient(config.Get().IPC.Socket).WithTimeout(statusTimeout)

		st, err := client.Status()
		if errors.Is(err, ipc.ErrNotRunning) {
			fmt.Fprintln(cmd.OutOrStdout(), "waywall is not running")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}

		if statusJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderStatus(st))
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print JSON")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 5*time.Second, "request timeout")
	rootCmd.AddCommand(statusCmd)
}

func renderStatus(st output.Status) string {
	var b strings.Builder

	b.WriteString(ui.FormatAppHeader("STATUS", ui.FormatStatus(st.Ready() == len(st.Surfaces) && len(st.Surfaces) > 0, "running")))
	b.WriteString("\n\n")
	b.WriteString(ui.StatusSummary(st))
	b.WriteString("\n\n")
	b.WriteString(ui.SurfaceTable(st.Surfaces))
	return b.String()
}
