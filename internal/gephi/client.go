package gephi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// defaultTimeout bounds a single update request.
const defaultTimeout = 10 * time.Second

const (
	opAddNode = "an"
	opAddEdge = "ae"
)

// Node is the payload of an add-node event.
type Node struct {
	Label string `json:"label"`
	Depth int    `json:"depth"`
}

// EdgeAttrs is the payload of an add-edge event.
type EdgeAttrs struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Directed bool   `json:"directed"`
}

// Client posts node and edge events to one Gephi workspace.
// It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	updateURL  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for updates.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// NewClient creates a client for the workspace at endpoint,
// e.g. "http://localhost:8088/workspace1".
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEndpoint, endpoint)
	}

	q := u.Query()
	q.Set("operation", "updateGraph")
	u.RawQuery = q.Encode()

	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		updateURL:  u.String(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// EdgeID returns the id of the directed edge from source to target.
func EdgeID(source, target string) string {
	return source + "-" + target
}

// AddNode upserts a node keyed by its URL.
func (c *Client) AddNode(ctx context.Context, nodeURL string, depth int) error {
	return c.send(ctx, opAddNode, nodeURL, Node{Label: nodeURL, Depth: depth})
}

// AddEdge upserts a directed edge.
func (c *Client) AddEdge(ctx context.Context, source, target string) error {
	id := EdgeID(source, target)
	return c.send(ctx, opAddEdge, id, EdgeAttrs{Source: source, Target: target, Directed: true})
}

// Upsert reports that target, found at depth, was discovered on source.
// The source node is placed one level above the target. All three events
// are attempted even when one fails; the failures are joined.
func (c *Client) Upsert(ctx context.Context, source, target string, depth int) error {
	return errors.Join(
		c.AddNode(ctx, source, max(depth-1, 0)),
		c.AddNode(ctx, target, depth),
		c.AddEdge(ctx, source, target),
	)
}

func (c *Client) send(ctx context.Context, op, id string, attrs any) error {
	payload, err := json.Marshal(map[string]map[string]any{op: {id: attrs}})
	if err != nil {
		return &ReportError{Operation: op, ID: id, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.updateURL, bytes.NewReader(payload))
	if err != nil {
		return &ReportError{Operation: op, ID: id, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ReportError{Operation: op, ID: id, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // drained for connection reuse

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ReportError{Operation: op, ID: id, StatusCode: resp.StatusCode}
	}
	return nil
}
