package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adminui/sysdash/internal/views/logs"
)

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(uiTick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loginCmd(email, password string) tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		resp, err := api.Login(ctx, email, password)
		return loginDoneMsg{resp: resp, err: err}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		return logoutDoneMsg{err: api.Logout(ctx)}
	}
}

func (m Model) userCmd() tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		u, err := api.CurrentUser(ctx)
		return userMsg{user: u, err: err}
	}
}

// loadCmd runs one controller load. Its result is also published to
// subscribers; this message only carries it back to the model that asked.
func (m Model) loadCmd() tea.Cmd {
	procs, ctx := m.procs, m.ctx
	return func() tea.Msg {
		res, err := procs.LoadProcesses(ctx)
		return processesLoadedMsg{result: res, err: err}
	}
}

func (m *Model) systemCmd() tea.Cmd {
	m.system.Loading = true
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		s, err := api.SystemStatus(ctx)
		return systemMsg{status: s, err: err}
	}
}

func (m *Model) logsCmd(service string) tea.Cmd {
	if service == "" {
		return nil
	}
	m.logs.Loading = true
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		resp, err := api.ServiceLogs(ctx, service, logs.DefaultLines)
		return logsMsg{service: service, resp: resp, err: err}
	}
}

func (m Model) restartCmd(service string) tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		res, err := api.RestartService(ctx, service)
		return restartMsg{service: service, result: res, err: err}
	}
}
