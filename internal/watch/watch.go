// Package watch provides a terminal dashboard showing the live activity
// state of every tmux pane, classified the same way the monitor classifies
// frames during a run.
package watch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/WENLIXIAO-CS/tmux-mcp/internal/model"
	"github.com/WENLIXIAO-CS/tmux-mcp/internal/monitor"
	"github.com/WENLIXIAO-CS/tmux-mcp/internal/mux"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	processingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	permissionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	idleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	unknownStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")) // red
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// row is one pane in the dashboard with its classified state.
type row struct {
	pane  model.Pane
	state monitor.State
	err   error
}

type scanResultMsg struct {
	rows []row
	err  error
}

type tickMsg struct{}

// TUI runs the pane activity dashboard.
type TUI struct {
	Mux             mux.Multiplexer
	RefreshInterval time.Duration // 0 disables auto-refresh
	ScanWindow      int
}

// tuiModel implements tea.Model.
type tuiModel struct {
	mux             mux.Multiplexer
	ctx             context.Context
	refreshInterval time.Duration
	scanWindow      int

	rows   []row
	cursor int

	// Previous frame per pane target, so each scan can classify against
	// the frame the last scan saw.
	frames map[string]string

	spin     spinner.Model
	scanning bool
	message  string
	width    int
	height   int
}

func (t *TUI) Run(ctx context.Context) error {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	scanWindow := t.ScanWindow
	if scanWindow <= 0 {
		scanWindow = monitor.DefaultScanWindow
	}

	m := &tuiModel{
		mux:             t.Mux,
		ctx:             ctx,
		refreshInterval: t.RefreshInterval,
		scanWindow:      scanWindow,
		frames:          make(map[string]string),
		spin:            sp,
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *tuiModel) Init() tea.Cmd {
	m.scanning = true
	return tea.Batch(m.spin.Tick, m.doScan())
}

func (m *tuiModel) scheduleTick() tea.Cmd {
	if m.refreshInterval <= 0 {
		return nil
	}
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// doScan lists all panes, captures each, and classifies it against the
// previous frame for that target.
func (m *tuiModel) doScan() tea.Cmd {
	mx := m.mux
	ctx := m.ctx
	frames := m.frames
	scanWindow := m.scanWindow
	return func() tea.Msg {
		panes, err := mx.ListPanes(ctx, "")
		if err != nil {
			return scanResultMsg{err: err}
		}
		rows := make([]row, 0, len(panes))
		for _, p := range panes {
			r := row{pane: p}
			cur, err := mx.CapturePane(ctx, p.ID)
			if err != nil {
				r.err = err
			} else {
				prev := frames[p.ID]
				r.state = monitor.Classify(prev, cur, scanWindow)
				frames[p.ID] = cur
			}
			rows = append(rows, r)
		}
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].pane.Target < rows[j].pane.Target
		})
		return scanResultMsg{rows: rows}
	}
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case scanResultMsg:
		m.scanning = false
		if msg.err != nil {
			m.message = fmt.Sprintf("Scan error: %v", msg.err)
		} else {
			m.rows = msg.rows
			m.message = ""
			if m.cursor >= len(m.rows) {
				m.cursor = 0
			}
		}
		if cmd := m.scheduleTick(); cmd != nil {
			return m, cmd
		}
		return m, nil

	case tickMsg:
		if m.scanning {
			return m, m.scheduleTick()
		}
		m.scanning = true
		return m, m.doScan()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "r":
		if !m.scanning {
			m.scanning = true
			return m, m.doScan()
		}
	case "enter":
		if m.cursor < len(m.rows) {
			target := m.rows[m.cursor].pane.ID
			if err := m.mux.SelectPane(m.ctx, target); err != nil {
				m.message = fmt.Sprintf("Select failed: %v", err)
			} else {
				m.message = fmt.Sprintf("Selected %s", target)
			}
		}
	}
	return m, nil
}

func (m *tuiModel) View() string {
	var b strings.Builder

	title := titleStyle.Render("tmux-mcp watch")
	if m.scanning {
		title += " " + m.spin.View()
	}
	b.WriteString(title + "\n\n")

	if len(m.rows) == 0 {
		b.WriteString(dimStyle.Render("No panes found.") + "\n")
	} else {
		b.WriteString(headerStyle.Render(fmt.Sprintf("  %-24s %-12s %-20s %s", "TARGET", "STATE", "COMMAND", "DETAIL")) + "\n")
		for i, r := range m.rows {
			line := fmt.Sprintf("%-24s %-12s %-20s %s",
				r.pane.Target, stateLabel(r), r.pane.Command, stateDetail(r))
			if i == m.cursor {
				b.WriteString(selectedStyle.Render("> "+line) + "\n")
			} else {
				b.WriteString("  " + stateStyle(r).Render(line) + "\n")
			}
		}
	}

	b.WriteString("\n")
	if m.message != "" {
		b.WriteString(errorStyle.Render(m.message) + "\n")
	}
	b.WriteString(statusStyle.Render("j/k: move • enter: select pane • r: refresh • q: quit"))
	return b.String()
}

func stateLabel(r row) string {
	if r.err != nil {
		return "error"
	}
	switch r.state.Kind {
	case monitor.StateProcessing:
		return "processing"
	case monitor.StateAwaitingPermission:
		return "permission"
	case monitor.StateIdle:
		return "idle"
	default:
		return "changing"
	}
}

func stateDetail(r row) string {
	if r.err != nil {
		return r.err.Error()
	}
	switch r.state.Kind {
	case monitor.StateProcessing:
		return r.state.Progress
	case monitor.StateAwaitingPermission:
		return r.state.Prompt
	default:
		return ""
	}
}

func stateStyle(r row) lipgloss.Style {
	if r.err != nil {
		return errorStyle
	}
	switch r.state.Kind {
	case monitor.StateProcessing:
		return processingStyle
	case monitor.StateAwaitingPermission:
		return permissionStyle
	case monitor.StateIdle:
		return idleStyle
	default:
		return unknownStyle
	}
}
