package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// Work that finishes sooner than this never shows a spinner.
	spinnerDelay = 150 * time.Millisecond
	showElapsed  = 3 * time.Second
)

type workFinishedMsg struct{}

type waitIndicator struct {
	spin     spinner.Model
	label    string
	started  time.Time
	now      func() time.Time
	finished bool
}

func (w waitIndicator) Init() tea.Cmd {
	return w.spin.Tick
}

func (w waitIndicator) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(workFinishedMsg); ok {
		w.finished = true
		return w, tea.Quit
	}
	if tick, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		w.spin, cmd = w.spin.Update(tick)
		return w, cmd
	}
	return w, nil
}

func (w waitIndicator) View() string {
	elapsed := w.now().Sub(w.started)
	if w.finished || elapsed < spinnerDelay {
		return ""
	}
	if elapsed >= showElapsed {
		return fmt.Sprintf("%s %s %ds", w.spin.View(), w.label, int(elapsed.Seconds()))
	}
	return w.spin.View() + " " + w.label
}

// runWithSpinner runs work while a spinner labelled label draws on output. It always waits
// for work to return, even after ctx is cancelled, and reports work's error first.
func runWithSpinner(ctx context.Context, output io.Writer, label string, work func(context.Context) error) error {
	indicator := waitIndicator{
		spin: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("212"))),
		),
		label:   label,
		started: time.Now(),
		now:     time.Now,
	}

	p := tea.NewProgram(indicator, tea.WithInput(nil), tea.WithOutput(output), tea.WithContext(ctx))

	result := make(chan error, 1)
	go func() {
		result <- work(ctx)
		p.Send(workFinishedMsg{})
	}()

	_, runErr := p.Run()
	if err := <-result; err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("draw spinner: %w", runErr)
	}
	return nil
}
