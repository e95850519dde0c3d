package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnema/waywall/internal/output"
)

// StatusFunc fetches a snapshot of the running engine
type StatusFunc func(ctx context.Context) (output.Status, error)

type statusMsg struct {
	status output.Status
	err    error
}

type pollMsg time.Time

// StatusModel is the live view shown by "run --tui"
type StatusModel struct {
	fetch    StatusFunc
	interval time.Duration
	timeout  time.Duration

	bar      *StatusBar
	logs     *LogBuffer
	controls *ControlsHelp

	status  output.Status
	err     error
	fetched bool

	width, height int
}

func NewStatusModel(fetch StatusFunc, interval time.Duration) *StatusModel {
	if interval <= 0 {
		interval = time.Second
	}
	return &StatusModel{
		fetch:    fetch,
		interval: interval,
		timeout:  2 * time.Second,
		bar:      NewStatusBar("waywall"),
		logs:     NewLogBuffer(200),
		controls: &ControlsHelp{Controls: []Control{
			{Key: "r", Desc: "refresh"},
			{Key: "q", Desc: "quit"},
		}},
	}
}

func (m *StatusModel) Init() tea.Cmd {
	m.bar.Status = "Waiting for backend..."
	return tea.Batch(m.bar.Init(), m.refresh())
}

func (m *StatusModel) refresh() tea.Cmd {
	fetch, timeout := m.fetch, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		st, err := fetch(ctx)
		return statusMsg{status: st, err: err}
	}
}

func (m *StatusModel) schedule() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

func (m *StatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.bar, _ = m.bar.Update(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.refresh()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.bar, cmd = m.bar.Update(msg)
		return m, cmd

	case statusMsg:
		m.fetched = true
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		m.updateBar()
		return m, m.schedule()

	case pollMsg:
		return m, m.refresh()

	case LogMsg:
		m.logs.Add(msg.Entry)
	}

	return m, nil
}

func (m *StatusModel) updateBar() {
	switch {
	case m.err != nil:
		m.bar.Ready = false
		m.bar.Status = "Status unavailable"
	case len(m.status.Surfaces) == 0:
		m.bar.Ready = false
		m.bar.Status = fmt.Sprintf("%s: no surfaces", m.status.Backend)
	default:
		ready := m.status.Ready()
		m.bar.Ready = ready == len(m.status.Surfaces)
		m.bar.Status = fmt.Sprintf("%s: %d/%d surfaces ready", m.status.Backend, ready, len(m.status.Surfaces))
	}
}

// Status returns the last successful snapshot
func (m *StatusModel) Status() output.Status {
	return m.status
}

func (m *StatusModel) View() string {
	var b strings.Builder

	b.WriteString(m.bar.View())
	b.WriteString("\n")

	switch {
	case !m.fetched:
	case m.err != nil:
		msg := Message{Type: MessageError, Content: m.err.Error()}
		b.WriteString(msg.View())
		b.WriteString("\n")
	default:
		b.WriteString(StatusSummary(m.status))
		b.WriteString("\n\n")
		b.WriteString(SurfaceTable(m.status.Surfaces))
		b.WriteString("\n")
	}

	if logs := m.logs.Tail(m.logLines()); len(logs) > 0 {
		b.WriteString("\n")
		b.WriteString(SubheaderStyle.Render("Logs"))
		b.WriteString("\n")
		for _, entry := range logs {
			b.WriteString(FormatLogEntry(entry))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.controls.View())
	return b.String()
}

// logLines is what is left of the terminal after the status block
func (m *StatusModel) logLines() int {
	if m.height <= 0 {
		return 10
	}
	used := 5 + 6 + len(m.status.Surfaces) + 4 + 3
	return max(m.height-used, 3)
}
