package ui

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ProgramConfig holds configuration for running a UI program
type ProgramConfig struct {
	AltScreen bool
	// KillAfter bounds how long Run waits for the program to quit once ctx is
	// done.
	KillAfter time.Duration
	LogFile   string
}

// DefaultProgramConfig returns default configuration
func DefaultProgramConfig() ProgramConfig {
	return ProgramConfig{
		AltScreen: true,
		KillAfter: 2 * time.Second,
	}
}

// ProgramRunner manages the lifecycle of a Bubble Tea program
type ProgramRunner struct {
	config  ProgramConfig
	program *tea.Program
	done    chan struct{}
}

// NewProgramRunner creates the program for model. Send may be used before
// Run; it blocks until the program loop starts.
func NewProgramRunner(config ProgramConfig, model tea.Model, opts ...tea.ProgramOption) *ProgramRunner {
	if config.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	return &ProgramRunner{
		config:  config,
		program: tea.NewProgram(model, opts...),
		done:    make(chan struct{}),
	}
}

// Run blocks until the program exits or ctx is done
func (r *ProgramRunner) Run(ctx context.Context) error {
	defer close(r.done)

	if r.config.LogFile != "" {
		f, err := tea.LogToFile(r.config.LogFile, "waywall")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := r.program.Run()
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		r.program.Quit()

		select {
		case err := <-errCh:
			return err
		case <-time.After(r.config.KillAfter):
			r.program.Kill()
			<-errCh
			fmt.Fprintln(os.Stderr, "UI did not exit in time, killed")
			return nil
		}
	}
}

// Send sends a message to the running program
func (r *ProgramRunner) Send(msg tea.Msg) {
	r.program.Send(msg)
}

// Quit asks the program to exit
func (r *ProgramRunner) Quit() {
	r.program.Quit()
}

// Done is closed when Run returns
func (r *ProgramRunner) Done() <-chan struct{} {
	return r.done
}
