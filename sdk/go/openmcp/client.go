// Package openmcp is a Go client for the ops HTTP API of the ABI MCP server.
package openmcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"sync"
	"time"
)

// DefaultHTTPTimeout defines the timeout used by clients created without a
// custom http.Client.
const DefaultHTTPTimeout = 15 * time.Second

// Client wraps the HTTP interactions with the ops API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client

	mu          sync.RWMutex
	accessToken string
}

// ChainSnapshot is the chain state reported by the health endpoint.
type ChainSnapshot struct {
	Chain       string `json:"chain"`
	ChainID     string `json:"chain_id"`
	BlockNumber string `json:"block_number"`
	Notes       string `json:"notes,omitempty"`
}

// Health is the payload of /healthz.
type Health struct {
	Status   string         `json:"status"`
	Contract string         `json:"contract,omitempty"`
	Address  string         `json:"address,omitempty"`
	Tools    int            `json:"tools"`
	Chain    *ChainSnapshot `json:"chain,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Tool describes one generated contract tool.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Function    string          `json:"function"`
	Inputs      string          `json:"inputs,omitempty"`
	Action      string          `json:"action"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Transaction is one journalled contract write.
type Transaction struct {
	ID          string          `json:"id"`
	CallID      string          `json:"call_id,omitempty"`
	Contract    string          `json:"contract"`
	Address     string          `json:"address"`
	Chain       string          `json:"chain,omitempty"`
	Function    string          `json:"function"`
	Args        json.RawMessage `json:"args,omitempty"`
	Status      string          `json:"status"`
	TxHash      string          `json:"tx_hash,omitempty"`
	BlockNumber uint64          `json:"block_number,omitempty"`
	GasUsed     uint64          `json:"gas_used,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   int64           `json:"created_at"`
}

// APIError represents a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("openmcp api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient instantiates a client for the ops API. When httpClient is nil, a
// default client with DefaultHTTPTimeout is used.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

// Health fetches the server health. A degraded server answers 503 with a
// body, which is returned together with an *APIError.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var health Health
	err := c.get(ctx, "/healthz", nil, &health)
	return health, err
}

// ListTools returns the generated tools in registration order.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	var tools []Tool
	if err := c.get(ctx, "/api/v1/tools", nil, &tools); err != nil {
		return nil, err
	}
	return tools, nil
}

// ListTransactions returns up to limit journalled writes, newest first. A
// non-positive limit uses the server default.
func (c *Client) ListTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var txs []Transaction
	if err := c.get(ctx, "/api/v1/transactions", query, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// AccessToken returns the currently stored token string.
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// SetAccessToken sets the bearer token sent with every request.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	rel := &url.URL{Path: path.Join(c.baseURL.Path, endpoint), RawQuery: query.Encode()}
	u := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if token := c.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(data))}
		// health reports degraded state as JSON
		if out != nil && json.Valid(data) {
			_ = json.Unmarshal(data, out)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
