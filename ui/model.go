package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yllada/quicklinks/common"
	"github.com/yllada/quicklinks/dashboard"
	"github.com/yllada/quicklinks/notification"
	"github.com/yllada/quicklinks/vpn"
)

// callbackMsg carries work scheduled by a background goroutine.
type callbackMsg func()

// vpnRefreshedMsg reports the result of a user-requested VPN check.
type vpnRefreshedMsg struct {
	status vpn.Status
}

// Dispatcher returns a common.Dispatcher that runs callbacks inside the
// program's Update. Messages are delivered in the order they are sent.
func Dispatcher(p *tea.Program) common.Dispatcher {
	return func(fn func()) {
		p.Send(callbackMsg(fn))
	}
}

// Model is the dashboard screen.
type Model struct {
	app    *dashboard.App
	limit  int
	keys   keyMap
	help   help.Model
	styles styles
	status string
	width  int
}

// NewModel creates the dashboard model showing up to limit notifications.
func NewModel(app *dashboard.App, limit int) Model {
	if limit <= 0 {
		limit = common.DisplayLimit
	}
	return Model{
		app:    app,
		limit:  limit,
		keys:   defaultKeyMap,
		help:   help.New(),
		styles: newStyles(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case callbackMsg:
		msg()
		return m, nil

	case vpnRefreshedMsg:
		m.status = msg.status.Message
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.MarkRead):
			m.app.Log().MarkAllRead()
			m.status = "All notifications marked as read"
		case key.Matches(msg, m.keys.Clear):
			m.app.Log().ClearAll()
			m.status = "Notifications cleared"
		case key.Matches(msg, m.keys.RefreshVPN):
			m.status = "Checking VPN..."
			return m, m.refreshVPN()
		}
	}
	return m, nil
}

func (m Model) refreshVPN() tea.Cmd {
	app := m.app
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), app.Config().VPN.CommandTimeout)
		defer cancel()
		return vpnRefreshedMsg{status: app.RefreshVPN(ctx)}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render(common.AppName))
	b.WriteString("\n")

	b.WriteString(m.styles.section.Render("Security keys"))
	b.WriteString("\n")
	keys := m.app.Keys()
	if len(keys) == 0 {
		b.WriteString(m.styles.muted.Render("  No security keys connected"))
		b.WriteString("\n")
	}
	for _, k := range keys {
		b.WriteString("  " + m.styles.success.Render("●") + " " + k + "\n")
	}

	if m.app.Config().VPN.Enabled {
		b.WriteString(m.styles.section.Render("VPN"))
		b.WriteString("\n")
		b.WriteString("  " + m.vpnLine() + "\n")
	}

	log := m.app.Log()
	b.WriteString(m.styles.section.Render(fmt.Sprintf("Notifications (%d unread)", log.UnreadCount())))
	b.WriteString("\n")
	entries := log.Recent(m.limit)
	if len(entries) == 0 {
		b.WriteString(m.styles.muted.Render("  No notifications"))
		b.WriteString("\n")
	}
	for _, e := range entries {
		b.WriteString(m.entryLine(e) + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + m.styles.muted.Render(m.status) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))

	return m.styles.app.Render(b.String())
}

func (m Model) vpnLine() string {
	st, ok := m.app.VPNStatus()
	switch {
	case !ok:
		return m.styles.muted.Render("Checking...")
	case st.Connected:
		return m.styles.success.Render("Connected") + m.styles.muted.Render(" "+m.app.VPN().Server())
	default:
		return m.styles.warning.Render("Not connected") + m.styles.muted.Render(" "+st.Message)
	}
}

func (m Model) entryLine(e notification.Entry) string {
	marker := "  "
	if !e.Read {
		marker = m.styles.unread.Render("•") + " "
	}

	ts := ""
	if !e.Timestamp.IsZero() {
		ts = m.styles.muted.Render(e.Timestamp.Local().Format("15:04:05")) + " "
	}

	var style lipgloss.Style
	switch e.Level {
	case notification.LevelWarning:
		style = m.styles.warning
	case notification.LevelError:
		style = m.styles.error
	case notification.LevelSuccess:
		style = m.styles.success
	default:
		style = m.styles.info
	}
	return "  " + marker + ts + style.Render(e.Message)
}

// Run starts the dashboard and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, app *dashboard.App, limit int) error {
	p := tea.NewProgram(NewModel(app, limit), tea.WithAltScreen(), tea.WithContext(ctx))
	app.Start(Dispatcher(p))

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
