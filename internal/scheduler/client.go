// Package scheduler forwards schedule requests to the external scheduler API.
package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// BasePath is the upstream prefix every schedule request is sent under.
const BasePath = "/api/v1/schedules"

// ErrUnavailable is returned when the upstream cannot be reached.
var ErrUnavailable = errors.New("scheduler unavailable")

// DefaultForwardHeaders are relayed when Config.ForwardHeaders is empty.
var DefaultForwardHeaders = []string{
	"Authorization", "Cookie", "Content-Type", "Accept", "Accept-Language", "X-Request-Id",
}

type Config struct {
	BaseURL        string
	Timeout        time.Duration
	ForwardHeaders []string
}

// Response is the upstream reply, relayed to the caller as is.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

type Client struct {
	baseURL        string
	forwardHeaders []string
	httpClient     *http.Client
	logger         hclog.Logger
}

func NewClient(cfg Config, logger hclog.Logger) *Client {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	allowed := cfg.ForwardHeaders
	if len(allowed) == 0 {
		allowed = DefaultForwardHeaders
	}
	headers := make([]string, 0, len(allowed))
	for _, h := range allowed {
		headers = append(headers, http.CanonicalHeaderKey(strings.TrimSpace(h)))
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		forwardHeaders: headers,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("scheduler"),
	}
}

// Forward sends a request to BasePath+suffix. Only allow-listed inbound
// headers are relayed. Non-2xx upstream replies are not errors.
func (c *Client) Forward(ctx context.Context, method, suffix string, query url.Values, inbound http.Header, body []byte) (*Response, error) {
	target := c.baseURL + BasePath + suffix
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for _, name := range c.forwardHeaders {
		for _, v := range inbound.Values(name) {
			req.Header.Add(name, v)
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("upstream request failed", "method", method, "url", target, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	c.logger.Debug("upstream responded", "method", method, "url", target, "status", resp.StatusCode)
	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        respBody,
	}, nil
}
