package app

import (
	"time"

	"github.com/adminui/sysdash/internal/client"
	"github.com/adminui/sysdash/internal/processes"
)

// SessionExpiredMsg tells the program the backend rejected the credential.
// The dispatcher's unauthorized hook sends it.
type SessionExpiredMsg struct{}

// ProcessEventMsg carries a controller notification into the program. Loads
// started by the scheduler only reach the UI this way.
type ProcessEventMsg struct {
	Event processes.Event
}

type (
	tickMsg time.Time

	restoredMsg struct{}

	loginDoneMsg struct {
		resp *client.LoginResponse
		err  error
	}

	logoutDoneMsg struct {
		err error
	}

	userMsg struct {
		user *client.User
		err  error
	}

	processesLoadedMsg struct {
		result processes.LoadResult
		err    error
	}

	systemMsg struct {
		status *client.SystemStatus
		err    error
	}

	logsMsg struct {
		service string
		resp    *client.LogsResponse
		err     error
	}

	restartMsg struct {
		service string
		result  *client.RestartResult
		err     error
	}
)
