package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/waywall/internal/compositor"
	"github.com/bnema/waywall/internal/config"
	"github.com/bnema/waywall/internal/logger"
	"github.com/bnema/waywall/internal/ui"
)

var outputsJSON bool

type outputJSON struct {
	ID          uint32 `json:"id"`
	Name        string `json:"name"`
	Make        string `json:"make,omitempty"`
	Model       string `json:"model,omitempty"`
	Description string `json:"description,omitempty"`
	X           int32  `json:"x"`
	Y           int32  `json:"y"`
	Width       int32  `json:"width"`
	Height      int32  `json:"height"`
	Scale       int32  `json:"scale"`
	RefreshMHz  int32  `json:"refresh_mhz,omitempty"`
	Covered     bool   `json:"covered"`
}

var outputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "List outputs as seen by the selected backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		sess, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		backend, err := sess.selectBackend()
		if err != nil {
			return err
		}
		defer func() {
			if err := backend.Cleanup(); err != nil {
				logger.Debugf("Backend cleanup: %v", err)
			}
		}()

		outputs := backend.Outputs().All()
		if outputsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(outputsToJSON(outputs, cfg.Outputs))
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.FormatAppHeader("OUTPUTS", backend.Name+" backend"))
		if len(outputs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), ui.MutedStyle.Render("No outputs"))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.OutputTable(outputs, cfg.Outputs.Covers))
		return nil
	},
}

func init() {
	outputsCmd.Flags().BoolVar(&outputsJSON, "json", false, "print JSON")
	rootCmd.AddCommand(outputsCmd)
}

func outputsToJSON(outputs []*compositor.Output, include config.OutputsConfig) []outputJSON {
	res := make([]outputJSON, 0, len(outputs))
	for _, o := range outputs {
		res = append(res, outputJSON{
			ID:          uint32(o.ID),
			Name:        o.Identifier(),
			Make:        o.Make,
			Model:       o.Model,
			Description: o.Description,
			X:           o.X,
			Y:           o.Y,
			Width:       o.Width,
			Height:      o.Height,
			Scale:       o.Scale,
			RefreshMHz:  o.RefreshMHz,
			Covered:     include.Covers(o.Identifier()),
		})
	}
	return res
}
