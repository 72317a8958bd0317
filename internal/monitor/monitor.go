// Package monitor renders live relay activity in a bubbletea TUI.
package monitor

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"rocketsim-relay/internal/relay"
	"rocketsim-relay/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a log line for the viewport.
type logMsg struct{ line string }

// snapshotMsg carries the digest of the latest broadcast.
type snapshotMsg struct {
	summary   telemetry.Summary
	delivered int
	at        time.Time
}

// statsMsg carries refreshed relay counters.
type statsMsg struct{ relay.StatsRow }

const (
	snapshotInterval = 100 * time.Millisecond
	maxLogLines      = 500
)

// Monitor is a relay.Observer and an io.Writer for log output.
type Monitor struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
	lastSnap   atomic.Int64
	now        func() time.Time
}

// New starts a bubbletea program. Quitting the TUI interrupts the process
// so the relay shuts down with it.
func New() *Monitor {
	w := &Monitor{done: make(chan struct{}), now: time.Now}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newModel(), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// ObserveSnapshot implements relay.Observer. Updates are limited to ten
// per second; the relay runs at simulation rate.
func (w *Monitor) ObserveSnapshot(s relay.Snapshot, delivered int) {
	now := w.now()
	last := w.lastSnap.Load()
	if last != 0 && now.Sub(time.Unix(0, last)) < snapshotInterval {
		return
	}
	w.lastSnap.Store(now.UnixNano())
	w.program.Send(snapshotMsg{summary: telemetry.Summarize(s.Value()), delivered: delivered, at: now})
}

// UpdateStats refreshes the counters table.
func (w *Monitor) UpdateStats(row relay.StatsRow) {
	w.program.Send(statsMsg{row})
}

// Write implements io.Writer so a slog handler can log into the viewport.
func (w *Monitor) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}
		w.program.Send(logMsg{line: line})
	}
	return len(p), nil
}

// Close shuts down the TUI program and waits for cleanup.
func (w *Monitor) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type model struct {
	table      table.Model
	vp         viewport.Model
	logs       []string
	stats      relay.StatsRow
	snap       snapshotMsg
	haveSnap   bool
	wrap       bool
	autoscroll bool
	width      int
	height     int
}

func newModel() model {
	cols := []table.Column{
		{Title: "Metric", Width: 14},
		{Title: "Value", Width: 10},
		{Title: "Metric", Width: 14},
		{Title: "Value", Width: 10},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(5))
	m := model{
		table:      t,
		vp:         viewport.New(0, 0),
		autoscroll: true,
	}
	m.table.SetRows(statsRows(m.stats))
	return m
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width / 2)
		m.vp.Width = msg.Width
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
		default:
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
	case statsMsg:
		m.stats = msg.StatsRow
		m.table.SetRows(statsRows(m.stats))
	case snapshotMsg:
		m.snap = msg
		m.haveSnap = true
		m.updateViewportHeight()
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	}
	return m, nil
}

func (m *model) updateViewportHeight() {
	if m.height == 0 {
		return
	}
	h := m.height - lipgloss.Height(m.renderTop()) - lipgloss.Height(m.renderBottom())
	if h < 1 {
		h = 1
	}
	m.vp.Height = h
}

func (m *model) refreshViewport() {
	content := strings.Join(m.logs, "\n")
	if m.wrap && m.vp.Width > 0 {
		content = wordwrap.String(content, m.vp.Width)
	}
	m.vp.SetContent(content)
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func statsRows(s relay.StatsRow) []table.Row {
	return []table.Row{
		{"Datagrams", fmt.Sprint(s.Datagrams), "Subscribers", fmt.Sprint(s.Subscribers)},
		{"Decode errors", fmt.Sprint(s.DecodeErrors), "Connects", fmt.Sprint(s.Connects)},
		{"Broadcasts", fmt.Sprint(s.Broadcasts), "Disconnects", fmt.Sprint(s.Disconnects)},
		{"Deliveries", fmt.Sprint(s.Deliveries), "Send failures", fmt.Sprint(s.SendFailures)},
		{"Uptime", (time.Duration(s.Uptime) * time.Second).String(), "", ""},
	}
}

func (m model) renderSnapshot() string {
	title := lipgloss.NewStyle().Bold(true).Render("Latest state")
	if !m.haveSnap {
		return title + "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("waiting for data...")
	}
	s := m.snap.summary
	var b strings.Builder
	b.WriteString(title + "\n")
	fmt.Fprintf(&b, "mode %s  delivered %d  at %s\n", s.Gamemode, m.snap.delivered, m.snap.at.Format("15:04:05.000"))
	if s.HasBall {
		fmt.Fprintf(&b, "ball (%.0f, %.0f, %.0f)\n", s.Ball[0], s.Ball[1], s.Ball[2])
	}
	blue := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Render(fmt.Sprintf("blue %d", s.Blue))
	orange := lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Render(fmt.Sprintf("orange %d", s.Orange))
	fmt.Fprintf(&b, "cars %d  %s  %s  demoed %d\n", s.Cars, blue, orange, s.Demoed)
	if s.PadsTotal > 0 {
		fmt.Fprintf(&b, "boost pads %d/%d\n", s.PadsActive, s.PadsTotal)
	}
	for _, kv := range s.CustomInfo {
		fmt.Fprintf(&b, "%s: %s\n", kv[0], kv[1])
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m model) renderTop() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")).Render("RocketSim relay")
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("│")
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.table.View(), " "+sep+" ", m.renderSnapshot())
	return header + "\n" + body
}

func (m model) renderBottom() string {
	indicator := func(on bool) string {
		c := lipgloss.Color("9")
		if on {
			c = lipgloss.Color("10")
		}
		return lipgloss.NewStyle().Foreground(c).Render("●")
	}
	return fmt.Sprintf("%s wrap (w)  %s autoscroll (s)  q quit", indicator(m.wrap), indicator(m.autoscroll))
}

func (m model) View() string {
	return m.renderTop() + "\n" + m.vp.View() + "\n" + m.renderBottom()
}
