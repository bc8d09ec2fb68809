// Package app is the root Bubble Tea model. It routes keys to the screens,
// runs API calls as commands and renders the active screen.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/adminui/sysdash/internal/client"
	"github.com/adminui/sysdash/internal/processes"
	"github.com/adminui/sysdash/internal/theme"
	"github.com/adminui/sysdash/internal/views/debug"
	"github.com/adminui/sysdash/internal/views/detail"
	"github.com/adminui/sysdash/internal/views/filterbar"
	"github.com/adminui/sysdash/internal/views/help"
	"github.com/adminui/sysdash/internal/views/login"
	"github.com/adminui/sysdash/internal/views/logs"
	"github.com/adminui/sysdash/internal/views/proctable"
	"github.com/adminui/sysdash/internal/views/status"
	"github.com/adminui/sysdash/internal/views/system"
)

// Screen identifies the main view.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenProcesses
	ScreenSystem
	ScreenLogs
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayDetail
	OverlayDebug
	OverlayConfirmRestart
	OverlayHelp
)

const uiTick = time.Second

// API is the subset of *client.Dispatcher the screens call directly. Process
// loads go through the controller.
type API interface {
	BaseURL() string
	Login(ctx context.Context, email, password string) (*client.LoginResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*client.User, error)
	SystemStatus(ctx context.Context) (*client.SystemStatus, error)
	RestartService(ctx context.Context, name string) (*client.RestartResult, error)
	ServiceLogs(ctx context.Context, service string, lines int) (*client.LogsResponse, error)
}

// Session reports whether a credential is held.
type Session interface {
	IsAuthenticated() bool
}

// Deps are the collaborators of the root model.
type Deps struct {
	API     API
	Session Session
	Procs   *processes.Controller
	Sched   *processes.Scheduler
	Clock   clockwork.Clock
	Logger  *zap.Logger

	// RestartServices may be restarted from the logs screen.
	RestartServices []string
	// LogServices can be tailed.
	LogServices []string
	// AutoRefresh starts the scheduler after sign-in.
	AutoRefresh bool
}

// Model is the root Bubble Tea model.
type Model struct {
	api     API
	session Session
	procs   *processes.Controller
	sched   *processes.Scheduler
	clock   clockwork.Clock
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc

	keys   KeyMap
	width  int
	height int
	now    time.Time

	screen      Screen
	overlay     Overlay
	autoRefresh bool
	user        *client.User

	// Sub-views.
	login     login.Model
	filterBar filterbar.Model
	table     proctable.Model
	detail    detail.Model
	debugLog  debug.Model
	system    system.Model
	logs      logs.Model

	confirmService string
}

// New creates the root model on the login screen.
func New(d Deps) Model {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		api:         d.API,
		session:     d.Session,
		procs:       d.Procs,
		sched:       d.Sched,
		clock:       d.Clock,
		logger:      d.Logger,
		ctx:         ctx,
		cancel:      cancel,
		keys:        DefaultKeyMap(),
		now:         d.Clock.Now(),
		autoRefresh: d.AutoRefresh,
		login:       login.New(),
		filterBar:   filterbar.New(),
		table:       proctable.New(),
		debugLog:    debug.New(),
		logs:        logs.New(d.LogServices, d.RestartServices),
	}
}

// Screen returns the active screen.
func (m Model) Screen() Screen { return m.screen }

// Overlay returns the active overlay.
func (m Model) Overlay() Overlay { return m.overlay }

// Init starts the UI clock and resumes a saved session.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tickCmd()}
	if m.session != nil && m.session.IsAuthenticated() {
		cmds = append(cmds, func() tea.Msg { return restoredMsg{} })
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetSize(msg.Width, msg.Height)
		m.logs.SetSize(msg.Width, msg.Height)
		return m, nil

	case tickMsg:
		m.now = m.clock.Now()
		if m.screen == ScreenProcesses {
			m.syncTable()
		}
		return m, m.tickCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case restoredMsg:
		m.debugLog.Add(m.now, debug.KindAuth, "resumed saved session")
		return m.enterDashboard()

	case loginDoneMsg:
		m.login.Busy = false
		if msg.err != nil {
			m.login.Reset()
			m.login.Err = loginError(msg.err)
			m.debugLog.Add(m.now, debug.KindAuth, "login failed: "+msg.err.Error())
			return m, nil
		}
		m.login.Reset()
		m.login.Err = ""
		m.login.Notice = ""
		m.user = &client.User{UserID: msg.resp.UserID, Username: msg.resp.Username, Role: msg.resp.Role}
		m.debugLog.Addf(m.now, debug.KindAuth, "signed in as %s", msg.resp.Username)
		return m.enterDashboard()

	case logoutDoneMsg:
		if msg.err != nil {
			m.debugLog.Add(m.now, debug.KindErr, "logout: "+msg.err.Error())
		}
		m.leaveDashboard("Signed out.")
		m.debugLog.Add(m.now, debug.KindAuth, "signed out")
		return m, nil

	case SessionExpiredMsg:
		return m.expire()

	case userMsg:
		if unauthorized(msg.err) {
			return m.expire()
		}
		if msg.err != nil {
			m.debugLog.Add(m.now, debug.KindErr, "current user: "+msg.err.Error())
			return m, nil
		}
		m.user = msg.user
		return m, nil

	case processesLoadedMsg:
		if unauthorized(msg.err) {
			return m.expire()
		}
		if !msg.result.Stale {
			m.syncTable()
		}
		return m, nil

	case ProcessEventMsg:
		return m.handleProcessEvent(msg.Event)

	case systemMsg:
		if unauthorized(msg.err) {
			return m.expire()
		}
		m.system.Loading = false
		if msg.err != nil {
			m.system.Err = msg.err.Error()
			m.debugLog.Add(m.now, debug.KindErr, "system status: "+msg.err.Error())
			return m, nil
		}
		m.system.Err = ""
		m.system.Status = msg.status
		m.system.FetchedAt = m.clock.Now()
		m.debugLog.Add(m.now, debug.KindAPI, "system status loaded")
		return m, nil

	case logsMsg:
		if unauthorized(msg.err) {
			return m.expire()
		}
		if msg.service != m.logs.Selected() {
			return m, nil
		}
		m.logs.Loading = false
		if msg.err != nil {
			m.logs.Err = msg.err.Error()
			m.debugLog.Addf(m.now, debug.KindErr, "logs %s: %v", msg.service, msg.err)
			return m, nil
		}
		m.logs.SetLines(msg.resp.Logs, m.clock.Now())
		m.debugLog.Addf(m.now, debug.KindAPI, "logs %s: %d lines", msg.service, len(msg.resp.Logs))
		return m, nil

	case restartMsg:
		if unauthorized(msg.err) {
			return m.expire()
		}
		if msg.err != nil {
			m.procs.SetStatus(processes.StatusError, fmt.Sprintf("Failed to restart %s: %v", msg.service, msg.err))
			m.debugLog.Addf(m.now, debug.KindErr, "restart %s: %v", msg.service, msg.err)
			return m, nil
		}
		m.procs.SetStatus(processes.StatusOK, fmt.Sprintf("Service %s restarted (%s → %s)",
			msg.service, msg.result.Before, msg.result.After))
		m.debugLog.Addf(m.now, debug.KindAPI, "restarted %s", msg.service)
		if m.screen == ScreenLogs && m.logs.Selected() == msg.service {
			cmd := m.logsCmd(msg.service)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleProcessEvent(ev processes.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case processes.EventSnapshot:
		st := m.procs.State()
		n := 0
		if st.Snapshot != nil {
			n = len(st.Snapshot.Processes)
		}
		m.debugLog.Addf(m.now, debug.KindPoll, "#%d applied %d processes", ev.Seq, n)
		m.syncTable()
	case processes.EventLoadFailed:
		if unauthorized(ev.Err) {
			return m.expire()
		}
		m.debugLog.Addf(m.now, debug.KindErr, "#%d load failed: %v", ev.Seq, ev.Err)
	case processes.EventStale:
		m.debugLog.Addf(m.now, debug.KindPoll, "#%d discarded (stale)", ev.Seq)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}
	if m.screen == ScreenLogin {
		return m.handleLoginKey(msg)
	}
	if m.filterBar.Editing() {
		return m.handleFilterKey(msg)
	}
	if m.overlay != OverlayNone {
		return m.handleOverlayKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Screen1):
		m.screen = ScreenProcesses
		m.syncTable()
		return m, nil

	case key.Matches(msg, m.keys.Screen2):
		m.screen = ScreenSystem
		if m.system.Status == nil && !m.system.Loading {
			cmd := m.systemCmd()
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.Screen3):
		m.screen = ScreenLogs
		if len(m.logs.Lines) == 0 && !m.logs.Loading && m.logs.Selected() != "" {
			cmd := m.logsCmd(m.logs.Selected())
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		return m, m.logoutCmd()
	}

	switch m.screen {
	case ScreenProcesses:
		return m.handleProcessKey(msg)
	case ScreenSystem:
		if key.Matches(msg, m.keys.Reload) {
			cmd := m.systemCmd()
			return m, cmd
		}
	case ScreenLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.Busy {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Tab):
		cmd := m.login.NextField()
		return m, cmd

	case key.Matches(msg, m.keys.Enter):
		if !m.login.Ready() {
			if !m.login.OnPassword() {
				cmd := m.login.NextField()
				return m, cmd
			}
			m.login.Err = "Email and password are required"
			return m, nil
		}
		m.login.Busy = true
		m.login.Err = ""
		email, password := m.login.Credentials()
		return m, m.loginCmd(email, password)
	}

	var cmd tea.Cmd
	m.login, cmd = m.login.Update(msg)
	return m, cmd
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.filterBar.End()
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		field, raw := m.filterBar.Field(), m.filterBar.Value()
		m.filterBar.End()
		if err := m.procs.SetFilter(field, raw); err != nil {
			m.filterBar.Err = err.Error()
			m.debugLog.Add(m.now, debug.KindErr, err.Error())
			return m, nil
		}
		m.filterBar.Err = ""
		m.debugLog.Addf(m.now, debug.KindNav, "%s = %q", field, raw)
		return m, m.loadCmd()
	}

	var cmd tea.Cmd
	m.filterBar, cmd = m.filterBar.Update(msg)
	return m, cmd
}

func (m Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case OverlayConfirmRestart:
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.overlay = OverlayNone
			svc := m.confirmService
			m.confirmService = ""
			m.procs.SetStatus(processes.StatusInfo, "Restarting "+svc+"...")
			return m, m.restartCmd(svc)
		case key.Matches(msg, m.keys.Escape), msg.String() == "n", msg.String() == "N":
			m.overlay = OverlayNone
			m.confirmService = ""
		}
		return m, nil

	case OverlayDebug:
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Debug):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Up):
			m.debugLog.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.debugLog.ScrollDown(1)
		}
		return m, nil

	case OverlayHelp:
		if key.Matches(msg, m.keys.Escape, m.keys.Help) {
			m.overlay = OverlayNone
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Escape) {
		m.overlay = OverlayNone
	}
	return m, nil
}

func (m Model) handleProcessKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		pid, ok := m.table.SelectedPID()
		if !ok {
			return m, nil
		}
		rec, err := m.procs.Detail(pid)
		if err != nil {
			m.detail = detail.NotFound(err)
		} else {
			m.detail = detail.New(rec, m.now)
		}
		m.overlay = OverlayDetail
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		return m, m.loadCmd()

	case key.Matches(msg, m.keys.AutoRefresh):
		m.autoRefresh = m.sched.Toggle()
		if m.autoRefresh {
			m.procs.SetStatus(processes.StatusInfo, fmt.Sprintf("Auto-refresh enabled (%s)", m.sched.Interval()))
		} else {
			m.procs.SetStatus(processes.StatusInfo, "Auto-refresh disabled")
		}
		m.debugLog.Addf(m.now, debug.KindPoll, "auto-refresh %t", m.autoRefresh)
		return m, nil

	case key.Matches(msg, m.keys.Sort):
		next := m.procs.Filters().SortBy.Next()
		if err := m.procs.SetFilter(processes.FieldSortBy, string(next)); err != nil {
			return m, nil
		}
		return m, m.loadCmd()

	case key.Matches(msg, m.keys.User):
		cmd := m.filterBar.Begin(processes.FieldUser, m.procs.Filters())
		return m, cmd
	case key.Matches(msg, m.keys.MinCPU):
		cmd := m.filterBar.Begin(processes.FieldMinCPU, m.procs.Filters())
		return m, cmd
	case key.Matches(msg, m.keys.MinMem):
		cmd := m.filterBar.Begin(processes.FieldMinMem, m.procs.Filters())
		return m, cmd
	case key.Matches(msg, m.keys.Limit):
		cmd := m.filterBar.Begin(processes.FieldLimit, m.procs.Filters())
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextService):
		m.logs.Next()
		cmd := m.logsCmd(m.logs.Selected())
		return m, cmd
	case key.Matches(msg, m.keys.PrevService):
		m.logs.Prev()
		cmd := m.logsCmd(m.logs.Selected())
		return m, cmd
	case key.Matches(msg, m.keys.Reload):
		cmd := m.logsCmd(m.logs.Selected())
		return m, cmd
	case key.Matches(msg, m.keys.Up):
		m.logs.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.logs.ScrollDown(1)
	case key.Matches(msg, m.keys.Restart):
		if m.logs.CanRestart() {
			m.confirmService = m.logs.Selected()
			m.overlay = OverlayConfirmRestart
		}
	}
	return m, nil
}

func (m Model) enterDashboard() (tea.Model, tea.Cmd) {
	m.screen = ScreenProcesses
	m.overlay = OverlayNone
	if m.autoRefresh && !m.sched.Running() {
		m.sched.Start(m.sched.Interval())
	}
	return m, tea.Batch(m.userCmd(), m.loadCmd())
}

func (m *Model) leaveDashboard(notice string) {
	m.sched.Stop()
	m.screen = ScreenLogin
	m.overlay = OverlayNone
	m.user = nil
	m.filterBar.End()
	m.login.Reset()
	m.login.Notice = notice
}

// expire drops back to the login screen. Repeated notifications for the same
// 401 are ignored.
func (m Model) expire() (tea.Model, tea.Cmd) {
	if m.screen == ScreenLogin {
		return m, nil
	}
	m.logger.Info("session expired")
	m.leaveDashboard("Session expired. Please sign in again.")
	m.debugLog.Add(m.now, debug.KindAuth, "session expired")
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.sched.Stop()
	m.cancel()
	return m, tea.Quit
}

func (m *Model) syncTable() {
	st := m.procs.State()
	if st.Snapshot == nil {
		return
	}
	m.table.SetProcesses(st.Snapshot.Processes, m.now)
}

func unauthorized(err error) bool {
	return errors.Is(err, client.ErrUnauthorized)
}

func loginError(err error) string {
	if unauthorized(err) {
		return "Invalid email or password"
	}
	return "Login failed: " + err.Error()
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.screen == ScreenLogin {
		return m.login.View(m.api.BaseURL(), m.width, m.height)
	}

	switch m.overlay {
	case OverlayDetail:
		return m.place(m.detail.View())
	case OverlayDebug:
		return m.debugLog.View(m.width, m.height)
	case OverlayConfirmRestart:
		return m.place(logs.Confirm(m.confirmService))
	case OverlayHelp:
		return m.place(help.View(m.keys.HelpSections(), m.width, m.height))
	}

	st := m.procs.State()
	sections := []string{m.statusBar(st).View(), m.tabs()}

	switch m.screen {
	case ScreenProcesses:
		sections = append(sections,
			m.filterBar.View(st.Filters),
			proctable.StatsRow(st.Stats, m.width-2),
			m.table.View(st.Snapshot != nil),
			theme.StyleDimmed.Render("  j/k:move  enter:detail  r:refresh  a:auto  s:sort  u:user  c:cpu  m:mem  l:limit  d:log  L:logout  q:quit"),
		)
	case ScreenSystem:
		sections = append(sections,
			m.system.View(m.width, m.now),
			theme.StyleDimmed.Render("  r:refresh  1/2/3:screens  d:log  L:logout  q:quit"),
		)
	case ScreenLogs:
		sections = append(sections,
			m.logs.View(),
			theme.StyleDimmed.Render("  ←/→:service  j/k:scroll  r:refresh  R:restart  d:log  L:logout  q:quit"),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) statusBar(st processes.State) status.Model {
	sb := status.New()
	if m.user != nil {
		sb.Username = m.user.Username
		sb.Role = m.user.Role
	}
	sb.AutoRefresh = m.sched.Running()
	sb.Interval = m.sched.Interval()
	sb.Loading = st.Loading
	sb.Pagination = st.Pagination()
	sb.Status = st.Status
	sb.Now = m.now
	sb.Width = m.width - 2
	return sb
}

func (m Model) tabs() string {
	names := []struct {
		screen Screen
		label  string
	}{
		{ScreenProcesses, "1 Processes"},
		{ScreenSystem, "2 System"},
		{ScreenLogs, "3 Logs"},
	}
	active := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBright).Underline(true).Padding(0, 1)
	idle := lipgloss.NewStyle().Foreground(theme.ColorDimmed).Padding(0, 1)
	out := ""
	for _, n := range names {
		if n.screen == m.screen {
			out += active.Render(n.label)
		} else {
			out += idle.Render(n.label)
		}
	}
	return out
}

func (m Model) place(s string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
}
