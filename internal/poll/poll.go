// Package poll runs the periodic refreshes behind the activity feed, the
// unread-notification badge and the maintenance overlay.
package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// DefaultInterval applies when a Poller has no positive Interval.
const DefaultInterval = 5 * time.Second

// Poller calls Fn immediately and then every Interval until its context is
// cancelled. A failing call only flips the status; the next tick tries again
// and nothing retries sooner.
type Poller struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context) error
	OnStatus func(Status, error)
	Logger   *slog.Logger

	mu     sync.Mutex
	status Status
	err    error
}

func (p *Poller) Status() (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == "" {
		return StatusConnecting, nil
	}
	return p.status, p.err
}

// Run blocks until ctx is done. It returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	every := p.Interval
	if every <= 0 {
		every = DefaultInterval
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		p.tick(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	err := p.Fn(ctx)
	if ctx.Err() != nil {
		return
	}
	next := StatusConnected
	if err != nil {
		next = StatusDisconnected
		if p.Logger != nil {
			p.Logger.Debug("poll failed", "poller", p.Name, "err", err)
		}
	}
	p.mu.Lock()
	changed := next != p.status
	p.status, p.err = next, err
	p.mu.Unlock()
	if changed && p.OnStatus != nil {
		p.OnStatus(next, err)
	}
}
