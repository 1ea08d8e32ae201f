package lsp

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// notifier is the slice of the LSP connection the background pipeline
// needs: server-to-client notifications.
type notifier interface {
	Notify(method string, params any)
}

// progressReporter emits $/progress begin/report/end notifications for
// one fetch batch. It stays silent unless the client advertised
// window.workDoneProgress support.
//
// report is called from every fetch goroutine in the batch, so the
// counter and the notification send are guarded by a mutex; the lock
// also keeps report messages from interleaving out of order with end.
type progressReporter struct {
	client  notifier
	token   string
	total   int
	enabled bool

	mu   sync.Mutex
	done int
}

func newProgressReporter(client notifier, enabled bool, total int) *progressReporter {
	return &progressReporter{
		client:  client,
		token:   uuid.NewString(),
		total:   total,
		enabled: enabled,
	}
}

type progressParams struct {
	Token string `json:"token"`
	Value any    `json:"value"`
}

func (p *progressReporter) begin(title string) {
	if !p.enabled {
		return
	}
	p.client.Notify("$/progress", progressParams{
		Token: p.token,
		Value: map[string]any{
			"kind":       "begin",
			"title":      title,
			"cancellable": false,
			"percentage": 0,
		},
	})
}

func (p *progressReporter) report(name string) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	percentage := 0
	if p.total > 0 {
		percentage = p.done * 100 / p.total
	}
	p.client.Notify("$/progress", progressParams{
		Token: p.token,
		Value: map[string]any{
			"kind":       "report",
			"message":    fmt.Sprintf("%s (%d/%d)", name, p.done, p.total),
			"percentage": percentage,
		},
	})
}

func (p *progressReporter) end() {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client.Notify("$/progress", progressParams{
		Token: p.token,
		Value: map[string]any{"kind": "end"},
	})
}
