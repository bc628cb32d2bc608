// Package tui renders the edition grid in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yourusername/editions-go/internal/app"
	"github.com/yourusername/editions-go/internal/domain"
)

const (
	cellWidth    = 26
	eventBuffer  = 256
	tickInterval = 250 * time.Millisecond
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	cellStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6C757D")).
			Width(cellWidth-2).
			Padding(0, 1)

	selectedCellStyle = cellStyle.
				BorderForeground(lipgloss.Color("#4ECDC4"))
)

// Session is the part of app.Session the terminal UI drives
type Session interface {
	Load(ctx context.Context) error
	Tap(ctx context.Context, id domain.EditionID) (app.ActivateResult, error)
	LongPress(ctx context.Context, id domain.EditionID) (app.Signal, error)
	Cells(ctx context.Context) ([]app.CellState, error)
	Subscribe(ctx context.Context, fn func(app.GridEvent)) (func(), error)
	Layout() app.Layout
}

// NoticeSource supplies the notices shown in the footer
type NoticeSource interface {
	Active() []domain.Notice
	Subscribe(fn func(domain.Notice)) func()
}

// Message types
type (
	// CellsMsg carries a full grid snapshot
	CellsMsg struct {
		Cells []app.CellState
		Err   error
	}

	// GridMsg carries one grid change
	GridMsg struct {
		Event app.GridEvent
	}

	// NoticeMsg is sent when a notice is posted
	NoticeMsg struct {
		Notice domain.Notice
	}

	// ActionMsg reports the result of a tap, long press or refresh
	ActionMsg struct {
		Text string
		Err  error
	}

	// TickMsg expires notices
	TickMsg struct{}
)

// Model is the Bubble Tea model of the edition grid
type Model struct {
	ctx     context.Context
	session Session
	notices NoticeSource
	events  chan tea.Msg

	cells   []app.CellState
	cursor  int
	visible []domain.Notice
	status  string
	err     error
	loading bool

	spinner  spinner.Model
	progress progress.Model
	width    int
	height   int
}

// NewModel creates a model. events receives grid and notice messages from
// the subscriptions set up by Run.
func NewModel(ctx context.Context, session Session, notices NoticeSource, events chan tea.Msg) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	prog.Width = cellWidth - 6

	return Model{
		ctx:      ctx,
		session:  session,
		notices:  notices,
		events:   events,
		loading:  true,
		spinner:  sp,
		progress: prog,
	}
}

// Init loads the catalog and starts listening for events
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitForEvent(), m.spinner.Tick, tick())
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "left", "h":
			m.move(-1)
		case "right", "l":
			m.move(1)
		case "up", "k":
			m.move(-m.columns())
		case "down", "j":
			m.move(m.columns())
		case "enter", " ":
			if id, ok := m.selected(); ok {
				cmds = append(cmds, m.tap(id))
			}
		case "d", "backspace":
			if id, ok := m.selected(); ok {
				cmds = append(cmds, m.longPress(id))
			}
		case "r":
			m.loading = true
			cmds = append(cmds, m.load())
		}

	case CellsMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			break
		}
		m.err = nil
		m.setCells(msg.Cells)

	case GridMsg:
		m.applyEvent(msg.Event)
		cmds = append(cmds, m.waitForEvent())

	case NoticeMsg:
		m.visible = m.notices.Active()
		cmds = append(cmds, m.waitForEvent())

	case ActionMsg:
		m.status = msg.Text
		m.err = msg.Err

	case TickMsg:
		m.visible = m.notices.Active()
		cmds = append(cmds, tick())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) setCells(cells []app.CellState) {
	m.cells = cells
	if m.cursor >= len(m.cells) {
		m.cursor = len(m.cells) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) applyEvent(event app.GridEvent) {
	switch event.Type {
	case app.GridEventReset:
		m.setCells(event.Cells)
	case app.GridEventCell:
		if event.Cell == nil {
			return
		}
		for i := range m.cells {
			if m.cells[i].EditionID == event.Cell.EditionID {
				m.cells[i] = *event.Cell
				return
			}
		}
	}
}

func (m *Model) move(delta int) {
	if len(m.cells) == 0 {
		return
	}
	next := m.cursor + delta
	if next < 0 || next >= len(m.cells) {
		return
	}
	m.cursor = next
}

func (m Model) selected() (domain.EditionID, bool) {
	if m.cursor < 0 || m.cursor >= len(m.cells) {
		return "", false
	}
	return m.cells[m.cursor].EditionID, true
}

// columns is the layout's column count, reduced to what fits the terminal
func (m Model) columns() int {
	columns := m.session.Layout().Columns()
	if m.width > 0 {
		if fit := m.width / cellWidth; fit < columns {
			columns = fit
		}
	}
	if columns < 1 {
		columns = 1
	}
	return columns
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		if err := m.session.Load(m.ctx); err != nil {
			return CellsMsg{Err: err}
		}
		cells, err := m.session.Cells(m.ctx)
		return CellsMsg{Cells: cells, Err: err}
	}
}

func (m Model) tap(id domain.EditionID) tea.Cmd {
	return func() tea.Msg {
		result, err := m.session.Tap(m.ctx, id)
		if err != nil {
			return ActionMsg{Err: err}
		}
		switch result.Signal {
		case app.SignalShouldPresent:
			if result.Outcome == domain.OutcomeOpened {
				return ActionMsg{Text: fmt.Sprintf("Opened %s", id)}
			}
			return ActionMsg{Text: fmt.Sprintf("Could not open %s", id)}
		case app.SignalDownloading:
			return ActionMsg{Text: fmt.Sprintf("Downloading %s", id)}
		case app.SignalCancelled:
			return ActionMsg{Text: fmt.Sprintf("Cancelled %s", id)}
		}
		return ActionMsg{}
	}
}

func (m Model) longPress(id domain.EditionID) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.session.LongPress(m.ctx, id); err != nil {
			return ActionMsg{Err: err}
		}
		return ActionMsg{Text: fmt.Sprintf("Removed %s", id)}
	}
}

func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Editions"))
	b.WriteString("\n")

	switch {
	case m.loading && len(m.cells) == 0:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(infoStyle.Render("Loading editions..."))
		b.WriteString("\n")
	case len(m.cells) == 0:
		b.WriteString(dimStyle.Render("No editions"))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderGrid())
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render("✗ " + m.err.Error()))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(successStyle.Render("✓ " + m.status))
		b.WriteString("\n")
	}
	for _, notice := range m.visible {
		style := infoStyle
		if notice.Kind == domain.NoticeError {
			style = errorStyle
		}
		b.WriteString(style.Render("! " + notice.Message))
		b.WriteString("\n")
	}

	b.WriteString(dimStyle.Render("arrows: move • enter: open/download • d: delete • r: refresh • q: quit"))
	return b.String()
}

func (m Model) renderGrid() string {
	columns := m.columns()
	var rows []string
	for start := 0; start < len(m.cells); start += columns {
		end := start + columns
		if end > len(m.cells) {
			end = len(m.cells)
		}
		row := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			row = append(row, m.renderCell(i))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderCell(i int) string {
	cell := m.cells[i]
	style := cellStyle
	if i == m.cursor {
		style = selectedCellStyle
	}

	title := cell.Title
	if limit := cellWidth - 4; len(title) > limit {
		title = title[:limit-1] + "…"
	}

	var status string
	switch {
	case cell.Processing:
		status = m.spinner.View() + " Processing"
	case cell.Downloading && cell.Progress != nil:
		status = m.progress.ViewAs(cell.Progress.Fraction)
	case cell.Downloaded:
		status = successStyle.Render(cell.State)
	default:
		status = dimStyle.Render(cell.State)
	}

	return style.Render(title + "\n" + status)
}

// Run starts the terminal UI and blocks until the user quits
func Run(ctx context.Context, session Session, notices NoticeSource) error {
	events := make(chan tea.Msg, eventBuffer)
	push := func(msg tea.Msg) {
		select {
		case events <- msg:
		default:
		}
	}

	// the grid callback runs on the event loop and must not block
	unsubscribeGrid, err := session.Subscribe(ctx, func(e app.GridEvent) { push(GridMsg{Event: e}) })
	if err != nil {
		return err
	}
	defer unsubscribeGrid()
	unsubscribeNotices := notices.Subscribe(func(n domain.Notice) { push(NoticeMsg{Notice: n}) })
	defer unsubscribeNotices()

	p := tea.NewProgram(NewModel(ctx, session, notices, events), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
