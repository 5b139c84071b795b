package retrieval

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
)

// defaultExcludes are directory names skipped during corpus traversal.
var defaultExcludes = []string{
	".git",
	"node_modules",
	"vendor",
	".idea",
	".vscode",
}

// LoadCorpus reads all files under dir matching the include patterns (and not
// matching the exclude patterns) and returns them as documents. Titles come
// from the first markdown H1 when present, the filename otherwise.
func LoadCorpus(dir string, include, exclude []string) ([]Document, error) {
	var docs []Document

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			for _, excl := range defaultExcludes {
				if strings.EqualFold(d.Name(), excl) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if !matchesInclude(rel, include) || matchesExclude(rel, exclude) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", rel, err)
		}
		text := string(content)
		if strings.TrimSpace(text) == "" {
			return nil
		}

		docs = append(docs, Document{
			ID:      filepath.ToSlash(rel),
			Title:   documentTitle(rel, text),
			Path:    filepath.ToSlash(rel),
			Content: text,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking corpus dir: %w", err)
	}

	return docs, nil
}

// IndexCorpus loads dir into the store, optionally showing a progress bar.
// Returns the number of indexed documents.
func IndexCorpus(ctx context.Context, store *Store, dir string, include, exclude []string, showProgress bool) (int, error) {
	docs, err := LoadCorpus(dir, include, exclude)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(int64(len(docs)), "indexing corpus")
	}

	// Add one at a time so the bar tracks embedding progress.
	for _, doc := range docs {
		if err := store.Add(ctx, []Document{doc}); err != nil {
			return 0, fmt.Errorf("indexing %s: %w", doc.Path, err)
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	return len(docs), nil
}

// documentTitle extracts a display title: the first H1 heading for markdown,
// the base filename otherwise.
func documentTitle(relPath, content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}
	return filepath.Base(relPath)
}

// matchesInclude returns true if the given relative path matches any of the
// include patterns. If patterns is empty, everything is included.
func matchesInclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(relPath, patterns)
}

// matchesExclude returns true if the given relative path matches any of the
// exclude patterns. If patterns is empty, nothing is excluded.
func matchesExclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	return matchesAny(relPath, patterns)
}

// matchesAny checks if relPath matches any of the given glob patterns.
// It uses doublestar for ** support.
func matchesAny(relPath string, patterns []string) bool {
	// Normalize to forward slashes for consistent matching.
	normalized := filepath.ToSlash(relPath)

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)

		if matched, err := doublestar.PathMatch(pattern, normalized); err == nil && matched {
			return true
		}

		// Also try matching against just the filename.
		base := filepath.Base(normalized)
		if matched, err := doublestar.PathMatch(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}
