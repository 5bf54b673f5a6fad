// Package publish uploads the consolidated report to a wiki page.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"xwikireport/internal/config"
	"xwikireport/internal/logger"
)

// Publishing errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrMissingPageURL       = errors.New("publish page url is empty")
)

// ArchiveLayout is appended to a published report's file name.
const ArchiveLayout = "2006_01_02_15_04_05"

// Publisher replaces the content of one wiki page with an HTML report.
type Publisher struct {
	httpClient *http.Client
	pageURL    string
	token      string
	logger     *logger.Logger
	now        func() time.Time
}

// NewPublisher creates a publisher. httpClient should be the wiki client's
// own client so TLS settings stay scoped to the wiki.
func NewPublisher(cfg config.PublishConfig, httpClient *http.Client, log *logger.Logger) *Publisher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Publisher{
		httpClient: httpClient,
		pageURL:    cfg.PageURL,
		token:      cfg.Token,
		logger:     log,
		now:        time.Now,
	}
}

// Wrap embeds raw HTML in the wiki's html macro.
func Wrap(html []byte) []byte {
	var buf bytes.Buffer

	buf.Grow(len(html) + 17)
	buf.WriteString("{{html}}")
	buf.Write(html)
	buf.WriteString("{{/html}}")

	return buf.Bytes()
}

// Publish uploads the report at path and, once the wiki accepts it, renames
// the file with a time suffix so the next run writes a fresh report. It
// returns the archived path.
func (p *Publisher) Publish(ctx context.Context, path string) (string, error) {
	if p.pageURL == "" {
		return "", ErrMissingPageURL
	}

	html, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read report: %w", err)
	}

	if err := p.put(ctx, Wrap(html)); err != nil {
		return "", err
	}

	p.logger.Info("report published", "page", p.pageURL, "bytes", len(html))

	archived := ArchivePath(path, p.now())
	if err := os.Rename(path, archived); err != nil {
		return "", fmt.Errorf("failed to archive published report: %w", err)
	}

	return archived, nil
}

func (p *Publisher) put(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, p.pageURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "text/plain")

	if p.token != "" {
		req.Header.Set("Authorization", authorization(p.token))
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		p.logger.Error("publish rejected", "page", p.pageURL, "status", resp.StatusCode)

		return fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return nil
}

// authorization accepts either a bare token or a full header value.
func authorization(token string) string {
	if strings.Contains(strings.TrimSpace(token), " ") {
		return strings.TrimSpace(token)
	}

	return "Bearer " + strings.TrimSpace(token)
}

// ArchivePath inserts a time suffix before the extension.
func ArchivePath(path string, at time.Time) string {
	ext := filepath.Ext(path)

	return strings.TrimSuffix(path, ext) + "_" + at.Format(ArchiveLayout) + ext
}
