package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bnema/waywall/internal/compositor"
	"github.com/bnema/waywall/internal/output"
)

// StatusBar represents a reusable status bar component
type StatusBar struct {
	Width       int
	Title       string
	Status      string
	Ready       bool
	ShowSpinner bool
	spinner     spinner.Model
}

// NewStatusBar creates a new status bar
func NewStatusBar(title string) *StatusBar {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: SpinnerDot,
		FPS:    time.Second / 10,
	}
	s.Style = SpinnerStyle

	return &StatusBar{
		Title:       title,
		ShowSpinner: true,
		spinner:     s,
	}
}

func (s *StatusBar) Init() tea.Cmd {
	return s.spinner.Tick
}

func (s *StatusBar) Update(msg tea.Msg) (*StatusBar, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	case tea.WindowSizeMsg:
		s.Width = msg.Width
	}
	return s, nil
}

// View renders the status bar
func (s *StatusBar) View() string {
	title := TitleStyle.Render(s.Title)

	status := s.Status
	if s.ShowSpinner && !s.Ready {
		status = s.spinner.View() + " " + s.Status
	}
	statusFormatted := FormatStatus(s.Ready, status)

	gap := max(s.Width-lipgloss.Width(title)-lipgloss.Width(statusFormatted)-6, 1)
	line := title + strings.Repeat(" ", gap) + statusFormatted

	if s.Width <= 0 {
		return BoxStyle.Render(line)
	}
	return BoxStyle.Width(s.Width - 2).Render(line)
}

// InfoPanel represents a panel with information
type InfoPanel struct {
	Title   string
	Content []string
	Width   int
}

// View renders the info panel
func (p *InfoPanel) View() string {
	var b strings.Builder

	if p.Title != "" {
		b.WriteString(SubheaderStyle.Render(p.Title))
		b.WriteString("\n")
	}
	for _, line := range p.Content {
		b.WriteString(TextStyle.Render(line))
		b.WriteString("\n")
	}

	body := strings.TrimSuffix(b.String(), "\n")
	if p.Width <= 0 {
		return BoxStyle.Render(body)
	}
	return BoxStyle.Width(p.Width).Render(body)
}

// ControlsHelp displays keyboard controls on one line
type ControlsHelp struct {
	Controls []Control
}

// Control represents a keyboard control
type Control struct {
	Key  string
	Desc string
}

func (c *ControlsHelp) View() string {
	parts := make([]string, 0, len(c.Controls))
	for _, ctrl := range c.Controls {
		parts = append(parts, "["+ControlKeyStyle.Render(ctrl.Key)+"] "+ControlDescStyle.Render(ctrl.Desc))
	}
	return strings.Join(parts, SubtleStyle.Render("  "))
}

// Message displays a styled message
type Message struct {
	Type    MessageType
	Content string
}

// MessageType represents the type of message
type MessageType int

const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageWarning
	MessageError
)

// View renders the message
func (m *Message) View() string {
	switch m.Type {
	case MessageSuccess:
		return SuccessStyle.Render(IconSuccess + " " + m.Content)
	case MessageWarning:
		return WarningStyle.Render(IconWarning + " " + m.Content)
	case MessageError:
		return ErrorStyle.Render(IconError + " " + m.Content)
	default:
		return InfoStyle.Render(IconInfo + " " + m.Content)
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...)
}

// BackendTable lists registered backends by priority. The selected one, if
// any, is highlighted.
func BackendTable(descs []compositor.Descriptor, selected string) string {
	rows := make([][]string, 0, len(descs))
	active := -1
	for i, d := range descs {
		name := d.Name
		if d.Name == selected {
			name += " *"
			active = i
		}
		rows = append(rows, []string{name, strconv.Itoa(d.Priority), d.Description})
	}

	return newTable("BACKEND", "PRIORITY", "DESCRIPTION").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row == active:
				return TableActiveStyle
			default:
				return TableCellStyle
			}
		}).
		Render()
}

// OutputTable lists outputs and whether the config covers them. covers may be
// nil, in which case every output is covered.
func OutputTable(outputs []*compositor.Output, covers func(identifier string) bool) string {
	rows := make([][]string, 0, len(outputs))
	for _, o := range outputs {
		covered := covers == nil || covers(o.Identifier())
		mark := MutedStyle.Render("-")
		if covered {
			mark = SuccessStyle.Render(IconSuccess)
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(o.ID), 10),
			o.Identifier(),
			fmt.Sprintf("%dx%d", o.Width, o.Height),
			fmt.Sprintf("%d,%d", o.X, o.Y),
			strconv.Itoa(int(o.Scale)),
			strings.TrimSpace(o.Make + " " + o.Model),
			mark,
		})
	}

	return newTable("ID", "OUTPUT", "SIZE", "POSITION", "SCALE", "MODEL", "WALLPAPER").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		}).
		Render()
}

// SurfaceTable renders the per-output surfaces of a status snapshot
func SurfaceTable(surfaces []output.SurfaceStatus) string {
	if len(surfaces) == 0 {
		return MutedStyle.Render("No surfaces")
	}

	rows := make([][]string, 0, len(surfaces))
	for _, s := range surfaces {
		rows = append(rows, []string{
			s.Output,
			fmt.Sprintf("%dx%d", s.Width, s.Height),
			surfaceState(s),
		})
	}

	return newTable("OUTPUT", "SIZE", "STATE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		}).
		Render()
}

func surfaceState(s output.SurfaceStatus) string {
	switch {
	case s.Configured && s.Committed:
		return FormatStatus(true, "ready")
	case s.Configured:
		return FormatStatus(false, "configured")
	default:
		return FormatStatus(false, "waiting for configure")
	}
}

// StatusSummary renders the backend block of a status snapshot
func StatusSummary(st output.Status) string {
	lines := []string{
		FormatKeyValue("Backend", 13, st.Backend),
		FormatKeyValue("Compositor", 13, compositorLine(st)),
		FormatKeyValue("Capabilities", 13, st.Capabilities),
		FormatKeyValue("Surfaces", 13, fmt.Sprintf("%d/%d ready", st.Ready(), len(st.Surfaces))),
	}
	return strings.Join(lines, "\n")
}

func compositorLine(st output.Status) string {
	if st.Version == "" || st.Version == "unknown" {
		return st.Compositor
	}
	return st.Compositor + " " + st.Version
}
