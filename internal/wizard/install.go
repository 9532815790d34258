// Package wizard sequences the multi-call install and deploy flows.
//
// The install flow is a small state machine:
//
//	info -> configure -> verify -> success
//
// Each state is its own type and only exposes the transitions valid from
// it, so a Success cannot exist without connection info.
package wizard

import (
	"context"
	"fmt"
	"strings"

	"symonectl/internal/api"
)

type State string

const (
	StateInfo      State = "info"
	StateConfigure State = "configure"
	StateVerify    State = "verify"
	StateSuccess   State = "success"
)

// Backend is the subset of the data layer the wizards drive.
type Backend interface {
	CreateServer(ctx context.Context, in api.DeployRequest) (api.Server, error)
	CreateSecret(ctx context.Context, in api.SecretInput) (api.Secret, error)
	ActivateServer(ctx context.Context, id string) error
	ConnectionInfo(ctx context.Context, serverID string) (api.ConnectionInfo, error)
}

type Step interface {
	State() State
}

type Wizard struct {
	backend Backend
	mcp     api.MarketplaceMCP

	trail   []State
	server  api.Server
	created map[string]bool
}

// NewInstall starts installing a marketplace entry.
func NewInstall(b Backend, mcp api.MarketplaceMCP) (*Wizard, *Info) {
	w := &Wizard{backend: b, mcp: mcp, trail: []State{StateInfo}, created: map[string]bool{}}
	return w, &Info{w: w}
}

// Trail lists the states visited so far, in order. Consecutive visits to the
// same state are recorded once.
func (w *Wizard) Trail() []State { return append([]State(nil), w.trail...) }

func (w *Wizard) Server() api.Server { return w.server }

func (w *Wizard) RequiredSecrets() []string { return append([]string(nil), w.mcp.RequiredSecrets...) }

func (w *Wizard) enter(s State) {
	if len(w.trail) > 0 && w.trail[len(w.trail)-1] == s {
		return
	}
	w.trail = append(w.trail, s)
}

type Info struct {
	w *Wizard
}

func (*Info) State() State { return StateInfo }

func (i *Info) MCP() api.MarketplaceMCP { return i.w.mcp }

// Install deploys the server. On failure the wizard stays on Info.
func (i *Info) Install(ctx context.Context) (Step, error) {
	w := i.w
	typ := w.mcp.ServerType
	if typ == "" {
		typ = w.mcp.Slug
	}
	srv, err := w.backend.CreateServer(ctx, api.DeployRequest{Name: w.mcp.Name, Type: typ, Region: DefaultRegion})
	if err != nil {
		return i, err
	}
	w.server = srv
	if len(w.mcp.RequiredSecrets) == 0 {
		w.enter(StateVerify)
		v := &Verify{w: w}
		return v.fetch(ctx)
	}
	w.enter(StateConfigure)
	return &Configure{w: w, values: map[string]string{}}, nil
}

type Configure struct {
	w      *Wizard
	values map[string]string
	// Err is the failure that brought the wizard back here, if any.
	Err error
}

func (*Configure) State() State { return StateConfigure }

func (c *Configure) Required() []string { return c.w.RequiredSecrets() }

func (c *Configure) Set(key, value string) { c.values[key] = value }

func (c *Configure) Value(key string) string { return c.values[key] }

func (c *Configure) Missing() []string {
	var out []string
	for _, k := range c.w.mcp.RequiredSecrets {
		if strings.TrimSpace(c.values[k]) == "" {
			out = append(out, k)
		}
	}
	return out
}

// Submit stores each secret in order, activates the server and fetches its
// connection info. Blank secrets fail before any call. A secret or
// activation failure returns to Configure with the entered values intact.
// Secrets stored by an earlier attempt are not sent again.
func (c *Configure) Submit(ctx context.Context) (Step, error) {
	if missing := c.Missing(); len(missing) > 0 {
		err := api.Invalid("secrets", "Please fill in all required secrets: "+strings.Join(missing, ", "))
		c.Err = err
		return c, err
	}
	w := c.w
	w.enter(StateVerify)
	back := func(err error) (Step, error) {
		w.enter(StateConfigure)
		c.Err = err
		return c, err
	}
	for _, key := range w.mcp.RequiredSecrets {
		if w.created[key] {
			continue
		}
		if _, err := w.backend.CreateSecret(ctx, api.SecretInput{
			Name:      key,
			Value:     c.values[key],
			ServerIDs: []string{w.server.ID},
		}); err != nil {
			return back(fmt.Errorf("save secret %s: %w", key, err))
		}
		w.created[key] = true
	}
	if err := w.backend.ActivateServer(ctx, w.server.ID); err != nil {
		return back(err)
	}
	c.Err = nil
	v := &Verify{w: w}
	return v.fetch(ctx)
}

// Verify is reached once the server is created and configured. It is left
// for Success only after connection info arrives.
type Verify struct {
	w   *Wizard
	Err error
}

func (*Verify) State() State { return StateVerify }

// Retry fetches connection info again. Nothing is redeployed.
func (v *Verify) Retry(ctx context.Context) (Step, error) {
	return v.fetch(ctx)
}

func (v *Verify) fetch(ctx context.Context) (Step, error) {
	info, err := v.w.backend.ConnectionInfo(ctx, v.w.server.ID)
	if err != nil {
		v.Err = err
		return v, fmt.Errorf("server %s is active but its connection info is unavailable: %w", v.w.server.ID, err)
	}
	v.Err = nil
	v.w.enter(StateSuccess)
	return &Success{Server: v.w.server, Connection: info}, nil
}

type Success struct {
	Server     api.Server
	Connection api.ConnectionInfo
}

func (*Success) State() State { return StateSuccess }
