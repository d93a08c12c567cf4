// Fixed-interval notification polling.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/amverse/songbook/internal/models"
	"github.com/amverse/songbook/internal/services"
	"github.com/amverse/songbook/internal/shared"
)

// NotifyFunc receives each freshly fetched notification batch.
type NotifyFunc func(notifications []models.Notification)

// Poller fetches notifications on a fixed interval for as long as a session
// is active. There is no push channel; polling is the only delivery
// mechanism. Ticks that land while a fetch is still in flight are skipped.
type Poller struct {
	api      services.NotificationAPI
	interval time.Duration
	notify   NotifyFunc
	logger   *log.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	busy    bool
	lastErr error
}

// NewPoller creates a poller. notify may be nil; fetched batches are then
// only logged.
func NewPoller(api services.NotificationAPI, interval time.Duration, notify NotifyFunc, logger *log.Logger) *Poller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Poller{
		api:      api,
		interval: interval,
		notify:   notify,
		logger:   logger,
	}
}

// Start begins polling. Starting an already-running poller is a no-op.
// The loop stops when Stop is called or ctx is canceled.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	go p.run(ctx)
}

// Stop cancels the polling loop. Stopping a stopped poller is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Running reports whether the polling loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Err returns the error from the most recent poll, nil when healthy.
func (p *Poller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Debugf("notification poller started, interval %s", p.interval)

	// One immediate poll so a fresh login sees its inbox without waiting
	// a full interval.
	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("notification poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return
	}
	p.busy = true
	p.mu.Unlock()

	notifications, err := p.api.ListNotifications(ctx)

	p.mu.Lock()
	p.busy = false
	p.lastErr = err
	p.mu.Unlock()

	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warnf("notification poll failed: %v", err)
		}
		return
	}

	if p.notify != nil {
		p.notify(notifications)
	}
}
