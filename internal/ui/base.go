package ui

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LogEntry is one log record shown in a TUI
type LogEntry struct {
	Timestamp time.Time
	Level     string
	Message   string
}

// LogMsg delivers a LogEntry to a running program
type LogMsg struct{ Entry LogEntry }

// LogBuffer keeps the most recent entries
type LogBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	max     int
}

func NewLogBuffer(max int) *LogBuffer {
	if max <= 0 {
		max = 100
	}
	return &LogBuffer{max: max}
}

// Add appends an entry and trims the buffer
func (b *LogBuffer) Add(entry LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, entry)
	if len(b.entries) > b.max {
		b.entries = b.entries[len(b.entries)-b.max:]
	}
}

// Tail returns a copy of the last n entries, all of them when n <= 0
func (b *LogBuffer) Tail(n int) []LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	start := 0
	if n > 0 && len(b.entries) > n {
		start = len(b.entries) - n
	}
	logs := make([]LogEntry, len(b.entries)-start)
	copy(logs, b.entries[start:])
	return logs
}

func (b *LogBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// LogSink collects log records before and while a program runs. Notify never
// blocks; records beyond the queue size are dropped.
type LogSink struct {
	queue chan LogEntry
}

func NewLogSink(size int) *LogSink {
	return &LogSink{queue: make(chan LogEntry, size)}
}

// Notify matches logger.SetUINotifier
func (s *LogSink) Notify(level, message string) {
	select {
	case s.queue <- LogEntry{Timestamp: time.Now(), Level: level, Message: message}:
	default:
	}
}

// Forward delivers queued records to send until ctx is done. send is usually
// (*tea.Program).Send, which blocks until the program loop is running.
func (s *LogSink) Forward(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-s.queue:
			send(LogMsg{Entry: entry})
		}
	}
}

// FormatLogEntry formats a log entry for display
func FormatLogEntry(entry LogEntry) string {
	levelStyle := lipgloss.NewStyle().Bold(true)
	var levelText string

	switch entry.Level {
	case "ERROR", "error", "fatal":
		levelStyle = levelStyle.Foreground(ColorError)
		levelText = "ERROR"
	case "WARN", "warn", "warning":
		levelStyle = levelStyle.Foreground(ColorWarning)
		levelText = "WARN "
	case "INFO", "info":
		levelStyle = levelStyle.Foreground(lipgloss.Color("42"))
		levelText = "INFO "
	case "DEBUG", "debug":
		levelStyle = levelStyle.Foreground(lipgloss.Color("245"))
		levelText = "DEBUG"
	default:
		levelStyle = levelStyle.Foreground(ColorHighlight)
		levelText = fmt.Sprintf("%-5s", entry.Level)
	}

	timestamp := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(entry.Timestamp.Format("15:04:05"))
	return fmt.Sprintf("%s %s %s", timestamp, levelStyle.Render(levelText), entry.Message)
}
