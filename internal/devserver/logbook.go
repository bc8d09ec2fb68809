package devserver

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const logTimeFormat = "Jan 02 15:04:05"

// logBook keeps a bounded in-memory journal per service.
type logBook struct {
	mu    sync.Mutex
	clock clockwork.Clock
	lines map[string][]string
}

func newLogBook(services []string, clock clockwork.Clock) *logBook {
	b := &logBook{clock: clock, lines: make(map[string][]string, len(services))}
	start := clock.Now().Add(-time.Hour)
	for _, svc := range services {
		b.lines[svc] = []string{
			fmt.Sprintf("%s devhost systemd[1]: Starting %s.service...", start.Format(logTimeFormat), svc),
			fmt.Sprintf("%s devhost systemd[1]: Started %s.service.", start.Add(time.Second).Format(logTimeFormat), svc),
		}
	}
	return b
}

func (b *logBook) append(service, line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := append(b.lines[service], b.clock.Now().Format(logTimeFormat)+" devhost "+line)
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	b.lines[service] = lines
}

// restart records a simulated restart in the service's journal.
func (b *logBook) restart(service string) {
	b.append(service, "systemd[1]: Stopping "+service+".service...")
	b.append(service, "systemd[1]: Stopped "+service+".service.")
	b.append(service, "systemd[1]: Started "+service+".service.")
}

// tail returns a copy of the last n lines.
func (b *logBook) tail(service string, n int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := b.lines[service]
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}
