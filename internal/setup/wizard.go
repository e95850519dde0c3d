// Package setup runs the interactive configuration wizard
package setup

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/bnema/waywall/internal/compositor"
	"github.com/bnema/waywall/internal/config"
	"github.com/bnema/waywall/internal/logger"
	"github.com/bnema/waywall/internal/ui"
)

const autoBackend = "auto"

// ErrAborted is returned when the user declines to save
var ErrAborted = errors.New("setup aborted")

// Wizard walks the user through the config file
type Wizard struct {
	backends []compositor.Descriptor
	outputs  []*compositor.Output

	// run executes a form; replaced in tests
	run func(*huh.Form) error
}

// NewWizard offers the given backends and outputs as choices. outputs may be
// empty when no display is reachable.
func NewWizard(backends []compositor.Descriptor, outputs []*compositor.Output) *Wizard {
	return &Wizard{
		backends: backends,
		outputs:  outputs,
		run:      func(f *huh.Form) error { return f.Run() },
	}
}

// answers holds the raw form values
type answers struct {
	backend       string
	layer         string
	anchor        string
	exclusiveZone string
	keyboard      bool
	width         string
	height        string
	outputs       []string
	ipc           bool
	confirm       bool
}

func answersFrom(c config.Config) answers {
	a := answers{
		backend:       c.Backend.Preferred,
		layer:         c.Surface.Layer,
		anchor:        c.Surface.Anchor,
		exclusiveZone: strconv.Itoa(int(c.Surface.ExclusiveZone)),
		keyboard:      c.Surface.KeyboardInteractivity,
		width:         strconv.Itoa(int(c.Surface.Width)),
		height:        strconv.Itoa(int(c.Surface.Height)),
		outputs:       append([]string(nil), c.Outputs.Include...),
		ipc:           c.IPC.Enabled,
		confirm:       true,
	}
	if a.backend == "" {
		a.backend = autoBackend
	}
	return a
}

// Run shows the form seeded with current and returns the edited config. The
// config is not saved.
func (w *Wizard) Run(current config.Config) (*config.Config, error) {
	a := answersFrom(current)
	if err := w.run(w.form(&a)); err != nil {
		return nil, err
	}
	if !a.confirm {
		return nil, ErrAborted
	}
	return a.apply(current)
}

func (w *Wizard) form(a *answers) *huh.Form {
	backendOpts := []huh.Option[string]{huh.NewOption("Detect automatically", autoBackend)}
	for _, d := range w.backends {
		backendOpts = append(backendOpts, huh.NewOption(fmt.Sprintf("%s - %s", d.Name, d.Description), d.Name))
	}

	layerOpts := huh.NewOptions("background", "bottom", "top", "overlay")

	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Backend").
				Description("Pick a backend or let waywall match the running compositor").
				Options(backendOpts...).
				Value(&a.backend),
			huh.NewSelect[string]().
				Title("Layer").
				Options(layerOpts...).
				Value(&a.layer),
			huh.NewInput().
				Title("Anchor").
				Description(`"fill", "none" or edges such as "top,left"`).
				Validate(validateAnchor).
				Value(&a.anchor),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Exclusive zone").
				Description("-1 ignores panels, 0 stays clear of them, N reserves N pixels").
				Validate(validateZone).
				Value(&a.exclusiveZone),
			huh.NewInput().
				Title("Width").
				Description("0 uses the output width").
				Validate(validateSize).
				Value(&a.width),
			huh.NewInput().
				Title("Height").
				Description("0 uses the output height").
				Validate(validateSize).
				Value(&a.height),
			huh.NewConfirm().
				Title("Keyboard interactivity").
				Value(&a.keyboard),
		),
	}

	if len(w.outputs) > 0 {
		outputOpts := make([]huh.Option[string], 0, len(w.outputs))
		for _, o := range w.outputs {
			outputOpts = append(outputOpts, huh.NewOption(o.String(), o.Identifier()))
		}
		groups = append(groups, huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Outputs").
				Description("Select none to cover every output, including ones plugged in later").
				Options(outputOpts...).
				Value(&a.outputs),
		))
	}

	groups = append(groups, huh.NewGroup(
		huh.NewConfirm().
			Title("Enable the control socket?").
			Description("Used by `waywall status`").
			Value(&a.ipc),
		huh.NewConfirm().
			Title("Save configuration?").
			Value(&a.confirm),
	))

	return huh.NewForm(groups...)
}

// apply converts validated answers on top of base
func (a answers) apply(base config.Config) (*config.Config, error) {
	c := base

	c.Backend.Preferred = a.backend
	if a.backend == autoBackend {
		c.Backend.Preferred = ""
	}

	zone, err := parseInt32(a.exclusiveZone)
	if err != nil {
		return nil, fmt.Errorf("exclusive zone: %w", err)
	}
	width, err := parseInt32(a.width)
	if err != nil {
		return nil, fmt.Errorf("width: %w", err)
	}
	height, err := parseInt32(a.height)
	if err != nil {
		return nil, fmt.Errorf("height: %w", err)
	}

	c.Surface = config.SurfaceConfig{
		Layer:                 a.layer,
		Anchor:                strings.TrimSpace(a.anchor),
		ExclusiveZone:         zone,
		KeyboardInteractivity: a.keyboard,
		Width:                 width,
		Height:                height,
	}
	c.Outputs.Include = append([]string{}, a.outputs...)
	c.IPC.Enabled = a.ipc

	if _, err := c.Surface.Compositor(); err != nil {
		return nil, err
	}
	return &c, nil
}

func parseInt32(s string) (int32, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return int32(v), nil
}

func validateAnchor(s string) error {
	_, err := compositor.ParseAnchor(s)
	return err
}

func validateZone(s string) error {
	v, err := parseInt32(s)
	if err != nil {
		return err
	}
	if v < -1 {
		return fmt.Errorf("must be -1 or more")
	}
	return nil
}

func validateSize(s string) error {
	v, err := parseInt32(s)
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

// RunInteractiveSetup runs the wizard and saves the result. An existing file is
// only replaced after confirmation.
func (w *Wizard) RunInteractiveSetup() error {
	path := config.GetConfigPath()

	fmt.Println(ui.FormatSetupHeader("waywall configuration"))
	fmt.Println(ui.SubtleStyle.Render("Config file: " + path))
	fmt.Println()

	if _, err := os.Stat(path); err == nil {
		overwrite := false
		confirm := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Config file exists").
				Description("Edit it? Comments in the file will be lost.").
				Value(&overwrite),
		))
		if err := w.run(confirm); err != nil {
			return err
		}
		if !overwrite {
			return ErrAborted
		}
	}

	fmt.Println(ui.FormatSetupPhase(fmt.Sprintf("%d backends, %d outputs found", len(w.backends), len(w.outputs))))
	c, err := w.Run(*config.Get())
	if err != nil {
		return err
	}

	if err := config.Update(c); err != nil {
		fmt.Println(ui.FormatSetupResult(false, "Save configuration", err.Error()))
		return err
	}
	logger.Debugf("Saved configuration to %s", path)

	fmt.Println(ui.FormatSetupResult(true, "Save configuration", path))
	return nil
}
