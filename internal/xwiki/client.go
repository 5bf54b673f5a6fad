// Package xwiki fetches and decodes documents from the XWiki REST API.
package xwiki

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"xwikireport/internal/config"
	"xwikireport/internal/logger"
)

// ErrBodyTooLarge indicates a response larger than the configured limit.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// Fetcher retrieves the raw content of a wiki resource.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// StatusError reports a non-200 response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Client is an authenticated Fetcher for one wiki instance.
type Client struct {
	httpClient *http.Client
	base       *url.URL
	username   string
	password   string
	userAgent  string
	maxBody    int64
}

// NewClient builds a client from the xwiki configuration section.
//
// When InsecureSkipVerify is set, certificate verification is disabled on
// this client's own transport only.
func NewClient(cfg config.XWikiConfig, log *logger.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		log.Debug("tls certificate verification disabled for wiki client", "host", base.Host)
	}

	timeout := cfg.GetTimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	maxBodyKb := cfg.MaxBodyKb
	if maxBodyKb <= 0 {
		maxBodyKb = 4096
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		base:      base,
		username:  cfg.Username,
		password:  cfg.Password,
		userAgent: cfg.UserAgent,
		maxBody:   int64(maxBodyKb) * 1024,
	}, nil
}

// HTTPClient returns the underlying client so that other wiki calls share
// its transport and timeout.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Resolve turns a possibly relative href into an absolute URL against the
// wiki base URL.
func (c *Client) Resolve(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}

	if ref.IsAbs() {
		return ref.String(), nil
	}

	return c.base.ResolveReference(ref).String(), nil
}

// Fetch performs an authenticated GET and returns the body.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	target, err := c.Resolve(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/xml")

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBody))

		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: %s (%d KB)", ErrBodyTooLarge, target, c.maxBody/1024)
	}

	return body, nil
}
