// Package mcp checks that a workspace's MCP endpoint answers with the
// credentials a client would use.
package mcp

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	clientName    = "symonectl"
	clientVersion = "1.0.0"
)

type ProbeOptions struct {
	// Headers sent on every request, in addition to the API key.
	Headers    map[string]string
	HTTPClient *http.Client
	MaxRetries int
	// PreferSSE skips the streamable transport.
	PreferSSE bool
}

type ProbeResult struct {
	Endpoint  string        `json:"endpoint"`
	Transport string        `json:"transport"`
	Tools     []string      `json:"tools"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Probe connects to endpoint (streamable HTTP first, SSE as fallback), lists
// the tools it exposes and disconnects.
func Probe(ctx context.Context, endpoint, apiKey string, opts ProbeOptions) (ProbeResult, error) {
	if endpoint == "" {
		return ProbeResult{}, fmt.Errorf("endpoint is required")
	}
	if apiKey == "" {
		return ProbeResult{}, fmt.Errorf("api key is required")
	}
	headers := map[string]string{"X-Symone-Key": apiKey}
	for k, v := range opts.Headers {
		headers[k] = v
	}
	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: 15 * time.Second}
	}
	httpc := WithHeaders(base, headers)

	start := time.Now()
	attempt := func(name string, transport mcp.Transport) (ProbeResult, error) {
		client := mcp.NewClient(&mcp.Implementation{Name: clientName, Version: clientVersion}, nil)
		session, err := client.Connect(ctx, transport, nil)
		if err != nil {
			return ProbeResult{}, err
		}
		defer session.Close()
		res, err := session.ListTools(ctx, nil)
		if err != nil {
			return ProbeResult{}, fmt.Errorf("list tools: %w", err)
		}
		names := make([]string, 0, len(res.Tools))
		for _, t := range res.Tools {
			names = append(names, t.Name)
		}
		sort.Strings(names)
		return ProbeResult{Endpoint: endpoint, Transport: name, Tools: names, Elapsed: time.Since(start)}, nil
	}

	var streamErr error
	if !opts.PreferSSE {
		res, err := attempt("streamable", &mcp.StreamableClientTransport{
			Endpoint:   endpoint,
			HTTPClient: httpc,
			MaxRetries: opts.MaxRetries,
		})
		if err == nil {
			return res, nil
		}
		streamErr = err
	}
	res, err := attempt("sse", &mcp.SSEClientTransport{Endpoint: endpoint, HTTPClient: httpc})
	if err != nil {
		if streamErr != nil {
			return ProbeResult{}, fmt.Errorf("streamable error: %v; sse error: %w", streamErr, err)
		}
		return ProbeResult{}, err
	}
	return res, nil
}

// WithHeaders returns a copy of c whose transport adds headers to every request.
func WithHeaders(c *http.Client, headers map[string]string) *http.Client {
	out := *c
	next := c.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	out.Transport = &headerTransport{headers: headers, next: next}
	return &out
}

type headerTransport struct {
	headers map[string]string
	next    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.next.RoundTrip(r)
}
