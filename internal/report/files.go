package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"xwikireport/internal/models"
)

// StampLayout is the date stamp used in file names and per-space headings.
const StampLayout = "2006_01_02"

// File errors.
var (
	ErrExists              = errors.New("output file already exists")
	ErrMalformedCheckpoint = errors.New("malformed checkpoint")
)

// Stamp returns the UTC date stamp for at.
func Stamp(at time.Time) string {
	return at.UTC().Format(StampLayout)
}

func fileLabel(label string) string {
	return strings.ReplaceAll(strings.TrimSpace(label), " ", "_")
}

// CheckpointName is the JSON checkpoint file name for a space.
func CheckpointName(label string, at time.Time) string {
	return fmt.Sprintf("articles_in_%s_space_as_of_%s.json", fileLabel(label), Stamp(at))
}

// ParseCheckpointName recovers the space label and date from a checkpoint
// file name produced by CheckpointName.
func ParseCheckpointName(name string) (label string, at time.Time, ok bool) {
	base := filepath.Base(name)

	rest, found := strings.CutPrefix(base, "articles_in_")
	if !found {
		return "", time.Time{}, false
	}

	rest, found = strings.CutSuffix(rest, ".json")
	if !found {
		return "", time.Time{}, false
	}

	i := strings.LastIndex(rest, "_space_as_of_")
	if i <= 0 {
		return "", time.Time{}, false
	}

	at, err := time.Parse(StampLayout, rest[i+len("_space_as_of_"):])
	if err != nil {
		return "", time.Time{}, false
	}

	return strings.ReplaceAll(rest[:i], "_", " "), at, true
}

// MarkdownName is the Markdown report file name for a space.
func MarkdownName(label string, at time.Time) string {
	return fmt.Sprintf("articles_in_%s_as_of_%s.md", fileLabel(label), Stamp(at))
}

// IsMarkdownReport reports whether name is a Markdown report produced by
// MarkdownName. Such files are write-once and never rewritten.
func IsMarkdownReport(name string) bool {
	rest, found := strings.CutPrefix(filepath.Base(name), "articles_in_")
	if !found {
		return false
	}

	rest, found = strings.CutSuffix(rest, ".md")
	if !found {
		return false
	}

	i := strings.LastIndex(rest, "_as_of_")
	if i <= 0 {
		return false
	}

	_, err := time.Parse(StampLayout, rest[i+len("_as_of_"):])

	return err == nil
}

// HTMLName is the HTML report file name for a space.
func HTMLName(label string, at time.Time) string {
	return fmt.Sprintf("articles_in_%s_as_of_%s.html", fileLabel(label), Stamp(at))
}

// ConsolidatedName is the all-spaces HTML report file name.
func ConsolidatedName(at time.Time) string {
	return fmt.Sprintf("articles_in_all_spaces_as_of_%s.html", Stamp(at))
}

// WriteOnce creates path and writes data to it. An existing file is left
// untouched and reported as ErrExists.
func WriteOnce(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}

		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)

		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)

		return fmt.Errorf("close %s: %w", path, err)
	}

	return nil
}

// EncodeCheckpoint serializes records as a JSON array of [title, record]
// pairs, in order.
func EncodeCheckpoint(records []models.ArticleRecord) ([]byte, error) {
	pairs := make([][2]any, 0, len(records))
	for _, r := range records {
		pairs = append(pairs, [2]any{r.Title, r})
	}

	data, err := json.MarshalIndent(pairs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint: %w", err)
	}

	return data, nil
}

// DecodeCheckpoint parses a checkpoint produced by EncodeCheckpoint.
func DecodeCheckpoint(data []byte) ([]models.ArticleRecord, error) {
	var pairs [][]json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCheckpoint, err)
	}

	records := make([]models.ArticleRecord, 0, len(pairs))

	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: entry %d has %d elements", ErrMalformedCheckpoint, i, len(pair))
		}

		var rec models.ArticleRecord
		if err := json.Unmarshal(pair[0], &rec.Title); err != nil {
			return nil, fmt.Errorf("%w: entry %d title: %w", ErrMalformedCheckpoint, i, err)
		}

		if err := json.Unmarshal(pair[1], &rec); err != nil {
			return nil, fmt.Errorf("%w: entry %d record: %w", ErrMalformedCheckpoint, i, err)
		}

		records = append(records, rec)
	}

	return records, nil
}

// SaveCheckpoint writes the checkpoint to path exactly once.
func SaveCheckpoint(path string, records []models.ArticleRecord) error {
	data, err := EncodeCheckpoint(records)
	if err != nil {
		return err
	}

	return WriteOnce(path, data)
}

// LoadCheckpoint reads a checkpoint written by SaveCheckpoint.
func LoadCheckpoint(path string) ([]models.ArticleRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	records, err := DecodeCheckpoint(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return records, nil
}
