package connect

import (
	"context"
	"log/slog"
	"sync"

	"symonectl/internal/api"
)

type ModePersister interface {
	UpdateMode(ctx context.Context, mode, serverID string) error
}

// ModeController holds the connection state shown to the user and applies
// mode changes optimistically. A change the backend rejects is rolled back
// and the error returned.
type ModeController struct {
	persist ModePersister
	logger  *slog.Logger

	mu sync.Mutex
	in Input
}

func NewModeController(p ModePersister, info api.MCPConnectionInfo, logger *slog.Logger) *ModeController {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModeController{persist: p, logger: logger, in: FromInfo(info)}
}

// Input returns a copy of the current state.
func (c *ModeController) Input() Input {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneInput(c.in)
}

func (c *ModeController) Derive(agent Agent) (Snippet, error) {
	return Derive(agent, c.Input())
}

func (c *ModeController) SetMode(ctx context.Context, m Mode) error {
	if err := m.Selectable(); err != nil {
		return err
	}
	c.mu.Lock()
	prev := c.in.Mode
	c.in.Mode = m
	c.mu.Unlock()

	if err := c.persist.UpdateMode(ctx, string(m), ""); err != nil {
		c.mu.Lock()
		if c.in.Mode == m {
			c.in.Mode = prev
		}
		c.mu.Unlock()
		c.logger.Error("mode change rejected, reverted", "mode", m, "previous", prev, "err", err)
		return err
	}
	return nil
}

// SetServerMode sets or clears (Inherit) one server's override.
func (c *ModeController) SetServerMode(ctx context.Context, serverID, mode string) error {
	next, err := ParseOverride(mode)
	if err != nil {
		return err
	}
	c.mu.Lock()
	idx := -1
	for i, s := range c.in.Servers {
		if s.ID == serverID {
			idx = i
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return api.Invalid("server", "server "+serverID+" is not enabled for this workspace")
	}
	prev := c.in.Servers[idx].Mode
	c.in.Servers[idx].Mode = next
	c.mu.Unlock()

	if err := c.persist.UpdateMode(ctx, mode, serverID); err != nil {
		c.mu.Lock()
		for i := range c.in.Servers {
			if c.in.Servers[i].ID == serverID && sameMode(c.in.Servers[i].Mode, next) {
				c.in.Servers[i].Mode = prev
			}
		}
		c.mu.Unlock()
		c.logger.Error("server mode change rejected, reverted", "server_id", serverID, "mode", mode, "err", err)
		return err
	}
	return nil
}

func sameMode(a, b *Mode) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneInput(in Input) Input {
	out := in
	out.Servers = make([]Server, len(in.Servers))
	for i, s := range in.Servers {
		out.Servers[i] = s
		if s.Mode != nil {
			m := *s.Mode
			out.Servers[i].Mode = &m
		}
	}
	return out
}
