// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
client.go - Kodi JSON-RPC client

Every call is a JSON-RPC 2.0 POST to {proto}://{host}:{port}/jsonrpc.
Kodi answers with either a result or an error object; the latter is surfaced
as *RPCError so callers can tell application errors from an unreachable host.

API Reference: https://kodi.wiki/view/JSON-RPC_API
*/

package kodi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/mediasensors/internal/metrics"
)

// Gateway performs one named remote call. Both Client and BreakerGateway
// implement it; the sensor engines only ever see this interface.
type Gateway interface {
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)

	// ID identifies the underlying player connection. Sensors sharing an ID
	// are siblings for fan-out purposes.
	ID() string
}

var _ Gateway = (*Client)(nil)

// ClientConfig describes how to reach one Kodi instance.
type ClientConfig struct {
	Host     string
	Port     int
	SSL      bool
	Username string
	Password string
	Timeout  time.Duration

	// RequestsPerSecond throttles outbound calls; 0 disables throttling.
	RequestsPerSecond float64
	Burst             int
}

// Client talks JSON-RPC over HTTP to Kodi.
type Client struct {
	endpoint   string
	id         string
	username   string
	password   string
	httpClient *http.Client
	limiter    *rate.Limiter
	seq        atomic.Uint64
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      uint64 `json:"id"`
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcErrorBody   `json:"error"`
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewClient creates a client for the given instance.
func NewClient(cfg ClientConfig) *Client {
	proto := "http"
	if cfg.SSL {
		proto = "https"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hostPort := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	c := &Client{
		endpoint: fmt.Sprintf("%s://%s/jsonrpc", proto, hostPort),
		id:       hostPort,
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// ID returns host:port.
func (c *Client) ID() string {
	return c.id
}

// Call invokes method with params and returns the raw result.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	start := time.Now()
	result, err := c.call(ctx, method, params)
	outcome := "ok"
	if err != nil {
		outcome = "unavailable"
		if IsApplicationError(err) {
			outcome = "app_error"
		}
	}
	metrics.RecordRPC(method, outcome, time.Since(start))
	return result, err
}

func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", ErrUnavailable, err)
		}
	}

	reqID := c.seq.Add(1)
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: reqID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request failed: %w", ErrUnavailable, method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s returned status %d: %s", ErrUnavailable, method, resp.StatusCode, string(snippet))
	}

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s response: %w", ErrUnavailable, method, err)
	}
	if decoded.Error != nil {
		return nil, &RPCError{Method: method, Code: decoded.Error.Code, Message: decoded.Error.Message}
	}
	return decoded.Result, nil
}

// Ping checks that Kodi answers JSONRPC.Ping.
func Ping(ctx context.Context, gw Gateway) error {
	raw, err := gw.Call(ctx, "JSONRPC.Ping", nil)
	if err != nil {
		return err
	}
	var pong string
	if err := json.Unmarshal(raw, &pong); err != nil || pong != "pong" {
		return fmt.Errorf("%w: unexpected ping answer %s", ErrUnavailable, string(raw))
	}
	return nil
}
