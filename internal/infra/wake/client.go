package wake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Mode sent with every wake call.
const modeNow = "now"

// Payload is the JSON body of a wake call.
type Payload struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
}

// Client posts wake calls to the local endpoint.
type Client struct {
	http  *http.Client
	url   string
	token string
}

// NewClient creates a client for http://host:port/path.
func NewClient(host string, port int, path, token string, timeout time.Duration) *Client {
	return NewClientWithURL("http://"+net.JoinHostPort(host, strconv.Itoa(port))+path, token, timeout)
}

// NewClientWithURL creates a client for an explicit endpoint URL.
func NewClientWithURL(url, token string, timeout time.Duration) *Client {
	return &Client{
		http:  &http.Client{Timeout: timeout},
		url:   url,
		token: token,
	}
}

// URL returns the endpoint URL.
func (c *Client) URL() string {
	return c.url
}

// Post sends one wake call. It is attempted exactly once.
func (c *Client) Post(ctx context.Context, text string) error {
	body, err := json.Marshal(Payload{Text: text, Mode: modeNow})
	if err != nil {
		return fmt.Errorf("marshal wake payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build wake request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post wake: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post wake: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
