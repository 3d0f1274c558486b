package kds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ndoemo02/Freeflow-Final/internal/application"
	"github.com/ndoemo02/Freeflow-Final/internal/domain"
)

// Poller is the part of application.KDSPoller the board drives.
type Poller interface {
	Snapshot() application.KDSSnapshot
	OnUpdate(fn func(application.KDSSnapshot))
	Refresh(ctx context.Context) error
	Focus()
	Blur()
	StartOrder(ctx context.Context, orderID string) bool
	MarkOrderReady(ctx context.Context, orderID string) bool
	BumpOrder(ctx context.Context, orderID string) bool
	CompleteOrder(ctx context.Context, orderID string) bool
	ToggleItem(ctx context.Context, orderID string, itemIndex int) bool
	RecallLastOrder(ctx context.Context) bool
}

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type snapshotMsg application.KDSSnapshot

type actionResultMsg struct {
	action string
	ok     bool
}

type tickMsg time.Time

// Board is the interactive kitchen display. It only renders poller snapshots; every action
// goes to the backend and becomes visible after the poller refetches.
type Board struct {
	ctx      context.Context
	poller   Poller
	station  string
	now      func() time.Time
	styles   styles
	spinner  spinner.Model
	snapshot application.KDSSnapshot
	selected int
	busy     bool
	flash    string

	// static boards print one frame and quit without a footer.
	static bool
}

func NewBoard(ctx context.Context, poller Poller, station string) Board {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	return Board{
		ctx:      ctx,
		poller:   poller,
		station:  station,
		now:      time.Now,
		styles:   newStyles(),
		spinner:  spin,
		snapshot: poller.Snapshot(),
	}
}

func (b Board) Init() tea.Cmd {
	if b.static {
		return tea.Quit
	}
	return tea.Batch(b.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (b Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		// Sends race each other; an older fetch must not replace a newer one.
		if msg.Version < b.snapshot.Version {
			return b, nil
		}
		b.snapshot = application.KDSSnapshot(msg)
		b.clampSelection()
		return b, nil
	case actionResultMsg:
		b.busy = false
		if msg.ok {
			b.flash = msg.action + " sent"
		} else {
			b.flash = msg.action + " failed"
		}
		b.snapshot = b.poller.Snapshot()
		b.clampSelection()
		return b, nil
	case tickMsg:
		return b, tick()
	case tea.FocusMsg:
		b.poller.Focus()
		return b, nil
	case tea.BlurMsg:
		b.poller.Blur()
		return b, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinner, cmd = b.spinner.Update(msg)
		return b, cmd
	case tea.KeyMsg:
		return b.handleKey(msg)
	}
	return b, nil
}

func (b Board) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c", "esc":
		return b, tea.Quit
	case "up", "k":
		if b.selected > 0 {
			b.selected--
		}
		return b, nil
	case "down", "j":
		if b.selected < len(b.visible())-1 {
			b.selected++
		}
		return b, nil
	}

	if b.busy {
		return b, nil
	}

	switch key {
	case "f":
		return b.dispatch("refresh", func(ctx context.Context) bool {
			return b.poller.Refresh(ctx) == nil
		})
	case "u":
		return b.dispatch("recall", b.poller.RecallLastOrder)
	}

	order, ok := b.current()
	if !ok {
		return b, nil
	}

	switch key {
	case "s":
		return b.dispatch("start", orderAction(b.poller.StartOrder, order.ID))
	case "r":
		return b.dispatch("ready", orderAction(b.poller.MarkOrderReady, order.ID))
	case "b", "enter":
		return b.dispatch("bump", orderAction(b.poller.BumpOrder, order.ID))
	case "c":
		return b.dispatch("complete", orderAction(b.poller.CompleteOrder, order.ID))
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		index := int(key[0] - '1')
		if _, ok := order.FindItem(index); ok {
			return b.dispatch("toggle item", func(ctx context.Context) bool {
				return b.poller.ToggleItem(ctx, order.ID, index)
			})
		}
	}
	return b, nil
}

func orderAction(fn func(context.Context, string) bool, orderID string) func(context.Context) bool {
	return func(ctx context.Context) bool {
		return fn(ctx, orderID)
	}
}

func (b Board) dispatch(action string, run func(context.Context) bool) (tea.Model, tea.Cmd) {
	b.busy = true
	b.flash = action + "..."
	ctx := b.ctx
	return b, func() tea.Msg {
		return actionResultMsg{action: action, ok: run(ctx)}
	}
}

func (b Board) visible() []domain.KDSOrder {
	return VisibleOrders(b.snapshot.Orders, b.station)
}

func (b Board) current() (domain.KDSOrder, bool) {
	orders := b.visible()
	if b.selected < 0 || b.selected >= len(orders) {
		return domain.KDSOrder{}, false
	}
	return orders[b.selected], true
}

func (b *Board) clampSelection() {
	count := len(b.visible())
	if b.selected >= count {
		b.selected = count - 1
	}
	if b.selected < 0 {
		b.selected = 0
	}
}

func (b Board) View() string {
	view := renderView(b.snapshot, RenderOptions{Now: b.now(), Station: b.station, Selected: b.selected}, b.styles)
	if b.static {
		return view
	}

	footer := "↑/↓ select  s start  r ready  b bump  c complete  u recall  1-9 item  f refresh  q quit"
	if b.flash != "" {
		prefix := ""
		if b.busy {
			prefix = b.spinner.View() + " "
		}
		footer = fmt.Sprintf("%s%s\n%s", prefix, b.flash, footer)
	}
	return strings.Join([]string{view, b.styles.footer.Render(footer)}, "\n")
}

// Render draws one snapshot of the board without taking over the terminal.
func Render(snapshot application.KDSSnapshot, opts RenderOptions) (string, error) {
	board := Board{
		station:  opts.Station,
		now:      func() time.Time { return opts.Now },
		styles:   newStyles(),
		snapshot: snapshot,
		selected: opts.Selected,
		static:   true,
	}

	final, err := tea.NewProgram(board, tea.WithInput(nil), tea.WithOutput(io.Discard)).Run()
	if err != nil {
		return "", err
	}
	printed, ok := final.(Board)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}
	return printed.View(), nil
}

// RunBoard shows the board until the user quits or ctx ends. Snapshots reach the program
// from the poller's fetch goroutine without blocking it.
func RunBoard(ctx context.Context, poller Poller, station string, opts ...tea.ProgramOption) error {
	options := append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	}, opts...)
	p := tea.NewProgram(NewBoard(ctx, poller, station), options...)

	poller.OnUpdate(func(snapshot application.KDSSnapshot) {
		go p.Send(snapshotMsg(snapshot))
	})

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
