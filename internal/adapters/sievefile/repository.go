package sievefile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"

	"github.com/kekzl/mailcow-ai-filter/internal/sieve"
)

// Repository persists generated filters as .sieve script files and reads
// folder names back out of an existing script.
type Repository struct {
	logger *zap.Logger
}

// NewRepository creates a new sieve file repository
func NewRepository(logger *zap.Logger) *Repository {
	return &Repository{logger: logger}
}

// Save serializes the filter and writes it to path, creating parent
// directories as needed. Returns the absolute path of the written file.
func (r *Repository) Save(ctx context.Context, filter *sieve.Filter, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("output path is empty")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	script := filter.Script()
	if err := os.WriteFile(absPath, []byte(script), 0o644); err != nil {
		return "", fmt.Errorf("writing sieve script: %w", err)
	}

	r.logger.Info("Wrote sieve script",
		zap.String("path", absPath),
		zap.Int("rules", len(filter.Rules)),
		zap.Int("bytes", len(script)))
	return absPath, nil
}

var fileintoRe = regexp.MustCompile(`fileinto\s+"((?:[^"\\]|\\.)*)"`)

// ExistingReader reads folder names referenced by an already deployed
// sieve script. A missing script is not an error; it just yields no hints.
type ExistingReader struct {
	path   string
	logger *zap.Logger
}

// NewExistingReader creates a new reader over the script at path
func NewExistingReader(path string, logger *zap.Logger) *ExistingReader {
	return &ExistingReader{path: path, logger: logger}
}

// ExistingFolders returns the distinct fileinto targets of the script, in
// first-appearance order.
func (e *ExistingReader) ExistingFolders(ctx context.Context) ([]string, error) {
	if e.path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading existing sieve script: %w", err)
	}

	seen := make(map[string]bool)
	var folders []string
	for _, match := range fileintoRe.FindAllStringSubmatch(string(data), -1) {
		folder := match[1]
		if folder != "" && !seen[folder] {
			seen[folder] = true
			folders = append(folders, folder)
		}
	}
	return folders, nil
}
