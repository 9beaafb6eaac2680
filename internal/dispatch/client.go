// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// UserAgent is sent with every request.
	UserAgent = "relaychat/0.1.0"
)

// sharedHTTPClient has no overall timeout: completion and failure are left to
// the transport and the caller's context.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// =============================================================================
// CLIENT
// =============================================================================

// Client posts JSON to endpoints under a base URL.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for baseURL. A nil logger disables logging.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: sharedHTTPClient,
		logger:     logger,
	}
}

// WithHTTPClient replaces the HTTP client (tests, custom transports).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// SetBaseURL swaps the base URL. Requests already in flight keep the old one.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
}

// BaseURL returns the current base URL.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// PostJSON sends reqBody as JSON to path and decodes a success response into
// respBody. It returns the request id used for log correlation.
func (c *Client) PostJSON(ctx context.Context, path string, reqBody, respBody any) (string, error) {
	requestID := uuid.NewString()

	base := c.BaseURL()
	if base == "" {
		return requestID, &RequestError{Path: path, Err: ErrNoBaseURL}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return requestID, &RequestError{Path: path, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bytes.NewReader(payload))
	if err != nil {
		return requestID, &RequestError{Path: path, Err: err}
	}
	c.setHeaders(req, requestID)

	log := c.logger.With(zap.String("path", path), zap.String("request_id", requestID))
	log.Debug("sending request", zap.Int("bytes", len(payload)))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return requestID, &RequestError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	log.Info("response received",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	// Any non-success status is a uniform failure.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
		return requestID, &RequestError{Path: path, Status: resp.StatusCode, Err: errors.New("response was not ok")}
	}

	body, err := readResponse(resp)
	if err != nil {
		return requestID, &RequestError{Path: path, Status: resp.StatusCode, Err: err}
	}
	if err := json.Unmarshal(body, respBody); err != nil {
		return requestID, &RequestError{Path: path, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return requestID, nil
}

// setHeaders sets the JSON headers for a request.
func (c *Client) setHeaders(req *http.Request, requestID string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Request-ID", requestID)
}

// readResponse reads the response body with size limits to prevent memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
