package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultClientTimeout bounds each probe of a running endpoint.
const DefaultClientTimeout = 3 * time.Second

// Client probes a discovery endpoint, typically one started by the daemon.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL, e.g. http://127.0.0.1:24368.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultClientTimeout},
	}
}

// NewLocalClient creates a client for the loopback endpoint on port.
func NewLocalClient(port uint16) *Client {
	return NewClient("http://" + net.JoinHostPort(Host, strconv.Itoa(int(port))))
}

// BaseURL returns the endpoint address the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Health returns nil when the endpoint answers /health with OK.
func (c *Client) Health(ctx context.Context) error {
	body, err := c.get(ctx, "/health")
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(body)) != "OK" {
		return fmt.Errorf("unexpected health response: %q", body)
	}
	return nil
}

// Index fetches the discovery index.
func (c *Client) Index(ctx context.Context) (*Index, error) {
	body, err := c.get(ctx, WellKnownPath)
	if err != nil {
		return nil, err
	}
	var index Index
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, fmt.Errorf("decode discovery index: %w", err)
	}
	return &index, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("discovery error: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}
