package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/waywall/internal/compositor"
	"github.com/bnema/waywall/internal/config"
	"github.com/bnema/waywall/internal/ui"
)

var detectJSON bool

// detectResult is the --json shape of detect
type detectResult struct {
	Compositor      string `json:"compositor"`
	Version         string `json:"version"`
	LayerShell      bool   `json:"layer_shell"`
	DesktopShell    bool   `json:"desktop_shell"`
	GTKShell        bool   `json:"gtk_shell"`
	Backend         string `json:"backend"`
	BackendOverride bool   `json:"backend_override"`
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show the detected compositor and the backend it maps to",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(config.Get())
		if err != nil {
			return err
		}
		defer sess.Close()

		res := newDetectResult(sess.detect(), sess.Preferred)

		if detectJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderDetect(res))
		return nil
	},
}

func init() {
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "print JSON")
	rootCmd.AddCommand(detectCmd)
}

func newDetectResult(info compositor.CompositorInfo, preferred string) detectResult {
	res := detectResult{
		Compositor:   info.Name,
		Version:      info.Version,
		LayerShell:   info.HasLayerShell,
		DesktopShell: info.HasDesktopShell,
		GTKShell:     info.HasGTKShell,
		Backend:      compositor.PreferredBackend(info),
	}
	if preferred != "" {
		res.Backend = preferred
		res.BackendOverride = true
	}
	return res
}

func renderDetect(res detectResult) string {
	var b strings.Builder
	b.WriteString(ui.FormatAppHeader("DETECT", ""))
	b.WriteString("\n\n")

	const width = 14
	b.WriteString(ui.FormatKeyValue("Compositor", width, res.Compositor))
	b.WriteString("\n")
	b.WriteString(ui.FormatKeyValue("Version", width, res.Version))
	b.WriteString("\n")
	b.WriteString(ui.FormatKeyValue("Protocols", width, protocolList(res)))
	b.WriteString("\n")

	backend := res.Backend
	if res.BackendOverride {
		backend += ui.SubtleStyle.Render(" (from config)")
	}
	b.WriteString(ui.FormatKeyValue("Backend", width, backend))
	return b.String()
}

func protocolList(res detectResult) string {
	var names []string
	if res.LayerShell {
		names = append(names, compositor.LayerShellInterface)
	}
	if res.DesktopShell {
		names = append(names, compositor.DesktopShellInterface)
	}
	if res.GTKShell {
		names = append(names, compositor.GTKShellInterface)
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
