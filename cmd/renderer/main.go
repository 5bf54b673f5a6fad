// Package main provides the renderer command: it rebuilds Markdown and HTML
// reports from existing JSON checkpoints and re-aligns Markdown tables.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"xwikireport/internal/report"
)

type renderCommand struct {
	OutputDir    string `long:"output-dir" short:"o" description:"Directory for reports (default: next to each checkpoint)"`
	Label        string `long:"label" description:"Space label (default: taken from the checkpoint file name)"`
	Consolidated bool   `long:"consolidated" description:"Also render the all-spaces report from every checkpoint given"`
	Args         struct {
		Checkpoints []string `positional-arg-name:"checkpoint" required:"1"`
	} `positional-args:"yes"`
}

type tablesCommand struct {
	Path  string `long:"path" short:"p" default:"." description:"File or directory to format"`
	Write bool   `long:"write" short:"w" description:"Write changes to files (default: dry-run)"`
}

func main() {
	parser := flags.NewParser(nil, flags.Default)

	if _, err := parser.AddCommand("render", "Render reports from checkpoints",
		"Rebuild the Markdown and HTML reports of each JSON checkpoint. Existing reports are kept.",
		&renderCommand{}); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}

	if _, err := parser.AddCommand("tables", "Align Markdown tables",
		"Re-align every pipe table in Markdown files by display width. Dated reports written by the reporter are left untouched.",
		&tablesCommand{}); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}

	// flags.Default prints parse and command errors itself.
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				return
			}

			os.Exit(2)
		}

		os.Exit(1)
	}
}

// Execute implements flags.Commander.
func (c *renderCommand) Execute([]string) error {
	if c.Label != "" && len(c.Args.Checkpoints) > 1 {
		return errors.New("--label needs exactly one checkpoint")
	}

	var sections []report.Section

	var latest time.Time

	failed := 0

	for _, path := range c.Args.Checkpoints {
		section, at, err := c.renderOne(path)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", path, err)

			failed++

			continue
		}

		sections = append(sections, section)

		if at.After(latest) {
			latest = at
		}
	}

	if c.Consolidated && len(sections) > 0 {
		dir := c.OutputDir
		if dir == "" {
			dir = filepath.Dir(c.Args.Checkpoints[0])
		}

		data, err := report.ConsolidatedHTML(sections, latest)
		if err != nil {
			return err
		}

		writeReport(filepath.Join(dir, report.ConsolidatedName(latest)), data)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checkpoints failed", failed, len(c.Args.Checkpoints))
	}

	return nil
}

func (c *renderCommand) renderOne(path string) (report.Section, time.Time, error) {
	label, at, ok := report.ParseCheckpointName(path)
	if !ok {
		at = time.Now()
	}

	if c.Label != "" {
		label = c.Label
	}

	if label == "" {
		return report.Section{}, at, errors.New("cannot derive the space label from the file name, use --label")
	}

	records, err := report.LoadCheckpoint(path)
	if err != nil {
		return report.Section{}, at, err
	}

	fmt.Printf("📂 %s: %d articles in %s\n", path, len(records), label)

	dir := c.OutputDir
	if dir == "" {
		dir = filepath.Dir(path)
	}

	writeReport(filepath.Join(dir, report.MarkdownName(label, at)), report.Markdown(label, records, nil, at))

	html, err := report.HTML(label, records, nil, at)
	if err != nil {
		return report.Section{}, at, err
	}

	writeReport(filepath.Join(dir, report.HTMLName(label, at)), html)

	return report.Section{Label: label, Records: records}, at, nil
}

func writeReport(path string, data []byte) {
	err := report.WriteOnce(path, data)

	switch {
	case err == nil:
		fmt.Printf("  ✅ Created: %s\n", path)
	case errors.Is(err, report.ErrExists):
		fmt.Printf("  ⏭️  Already exists: %s\n", path)
	default:
		fmt.Printf("  ❌ %v\n", err)
	}
}

// Execute implements flags.Commander.
func (c *tablesCommand) Execute([]string) error {
	fmt.Printf("📂 Scanning path: %s\n", c.Path)

	if c.Write {
		fmt.Println("✍️  Write mode ENABLED (files will be modified)")
	} else {
		fmt.Println("👀 Dry-run mode (no changes will be written)")
	}

	count, changed, failed, kept := 0, 0, 0, 0

	err := filepath.WalkDir(c.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			fmt.Printf("❌ Error accessing path %s: %v\n", path, err)

			failed++

			return nil
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && d.Name() != "." {
				return filepath.SkipDir
			}

			return nil
		}

		if strings.ToLower(filepath.Ext(path)) != ".md" {
			return nil
		}

		if report.IsMarkdownReport(path) {
			kept++

			return nil
		}

		count++

		wasChanged, procErr := formatFile(path, c.Write)

		switch {
		case procErr != nil:
			fmt.Printf("❌ Failed to process %s: %v\n", path, procErr)

			failed++
		case wasChanged && c.Write:
			changed++

			fmt.Printf("✅ Formatted: %s\n", path)
		case wasChanged:
			changed++

			fmt.Printf("📝 Would format: %s\n", path)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", c.Path, err)
	}

	fmt.Println("\n----------------------------------------------------------------")
	fmt.Printf("📈 Summary:\n")
	fmt.Printf("  Scanned: %d files\n", count)
	fmt.Printf("  Changed: %d files\n", changed)
	fmt.Printf("  Reports left untouched: %d\n", kept)
	fmt.Printf("  Errors:  %d\n", failed)

	if failed > 0 {
		return fmt.Errorf("%d files failed", failed)
	}

	if changed > 0 && !c.Write {
		return errors.New("tables need formatting, run with --write to apply changes")
	}

	return nil
}

func formatFile(path string, write bool) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	formatted := report.FormatTables(string(content))
	if formatted == string(content) {
		return false, nil
	}

	if write {
		info, err := os.Stat(path)
		if err != nil {
			return false, err
		}

		if err := os.WriteFile(path, []byte(formatted), info.Mode().Perm()); err != nil {
			return false, err
		}
	}

	return true, nil
}
