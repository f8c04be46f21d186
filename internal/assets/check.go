package assets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// PageResult is the outcome of checking one page.
type PageResult struct {
	Page       Page
	MissingDir string
	Missing    []Asset
	Present    int
	DirMissing bool
}

// OK reports whether the page has everything it needs.
func (r PageResult) OK() bool {
	return !r.DirMissing && len(r.Missing) == 0
}

// Message describes the problem with the page, or is empty when it is OK.
func (r PageResult) Message() string {
	switch {
	case r.DirMissing:
		return fmt.Sprintf("%s: directory not found: %s", r.Page.Name, r.MissingDir)
	case len(r.Missing) == 1:
		return fmt.Sprintf("%s: 1 asset missing", r.Page.Name)
	case len(r.Missing) > 1:
		return fmt.Sprintf("%s: %d assets missing", r.Page.Name, len(r.Missing))
	}
	return ""
}

// Check verifies every page of m against baseDir. A page whose directory, or
// any directory its assets live in, is missing stops there and reports
// DirMissing. Otherwise each absent file is listed in Missing and the rest of
// the page is still checked.
func Check(baseDir string, m *Manifest) []PageResult {
	results := make([]PageResult, 0, len(m.Pages))
	for _, p := range m.Pages {
		results = append(results, checkPage(baseDir, p))
	}
	return results
}

func checkPage(baseDir string, p Page) PageResult {
	result := PageResult{Page: p}

	for _, dir := range pageDirs(p) {
		path := filepath.Join(baseDir, dir)
		if !isDir(path) {
			result.DirMissing = true
			result.MissingDir = path
			slog.Warn("Asset directory not found", "page", p.Name, "dir", path)
			return result
		}
	}

	for _, a := range p.Assets {
		dir := p.Dir
		if a.Dir != "" {
			dir = a.Dir
		}
		path := filepath.Join(baseDir, dir, a.File)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			result.Missing = append(result.Missing, a)
			slog.Warn("Asset not found", "page", p.Name, "kind", a.Kind, "file", a.File)
			continue
		}
		result.Present++
	}
	return result
}

// pageDirs returns the page directory followed by any distinct asset
// directories in first-seen order.
func pageDirs(p Page) []string {
	dirs := []string{p.Dir}
	seen := map[string]bool{p.Dir: true}
	for _, a := range p.Assets {
		if a.Dir == "" || seen[a.Dir] {
			continue
		}
		seen[a.Dir] = true
		dirs = append(dirs, a.Dir)
	}
	return dirs
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Summary totals a set of page results.
type Summary struct {
	Pages       int
	PagesOK     int
	DirsMissing int
	Present     int
	Missing     int
}

// Summarize totals results.
func Summarize(results []PageResult) Summary {
	s := Summary{Pages: len(results)}
	for _, r := range results {
		if r.OK() {
			s.PagesOK++
		}
		if r.DirMissing {
			s.DirsMissing++
		}
		s.Present += r.Present
		s.Missing += len(r.Missing)
	}
	return s
}
