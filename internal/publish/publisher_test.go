package publish

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xwikireport/internal/config"
	"xwikireport/internal/logger"
)

func writeReport(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "articles_in_all_spaces_as_of_2026_10_15.html")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestPublish(t *testing.T) {
	var (
		gotMethod, gotAuth, gotType, gotBody string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	path := writeReport(t, "<h1>All</h1>")

	p := NewPublisher(config.PublishConfig{PageURL: srv.URL + "/rest/pages/Inventory", Token: "abc"}, srv.Client(), logger.Discard())
	p.now = func() time.Time { return time.Date(2026, 10, 15, 13, 14, 15, 0, time.UTC) }

	archived, err := p.Publish(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "text/plain", gotType)
	assert.Equal(t, "{{html}}<h1>All</h1>{{/html}}", gotBody)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "articles_in_all_spaces_as_of_2026_10_15_2026_10_15_13_14_15.html"), archived)
	assert.NoFileExists(t, path)
	assert.FileExists(t, archived)
}

func TestPublish_RejectedKeepsReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	path := writeReport(t, "<h1>All</h1>")

	p := NewPublisher(config.PublishConfig{PageURL: srv.URL, Token: "Token xyz"}, nil, logger.Discard())

	_, err := p.Publish(context.Background(), path)
	require.ErrorIs(t, err, ErrUnexpectedStatusCode)
	assert.FileExists(t, path)
}

func TestPublish_MissingPageURL(t *testing.T) {
	p := NewPublisher(config.PublishConfig{}, nil, logger.Discard())

	_, err := p.Publish(context.Background(), "unused.html")
	assert.ErrorIs(t, err, ErrMissingPageURL)
}

func TestAuthorization(t *testing.T) {
	assert.Equal(t, "Bearer abc", authorization("abc"))
	assert.Equal(t, "Bearer abc", authorization(" Bearer abc "))
	assert.Equal(t, "Basic dXNlcg==", authorization("Basic dXNlcg=="))
}

func TestArchivePath(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, "out/report_2026_01_02_03_04_05.html", ArchivePath("out/report.html", at))
	assert.Equal(t, "out.d/report_2026_01_02_03_04_05", ArchivePath("out.d/report", at))
}
