package sievefile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kekzl/mailcow-ai-filter/internal/sieve"
)

func testFilter(t *testing.T) *sieve.Filter {
	t.Helper()
	rule, err := sieve.NewRule("File Amazon", "",
		[]sieve.Condition{sieve.SenderDomainIs("amazon.de")},
		sieve.CombAny,
		[]sieve.Action{sieve.FileInto("Shopping/Amazon"), sieve.Stop()},
		0.9)
	require.NoError(t, err)

	return sieve.NewFilter("Generated Filters", "", []sieve.Rule{rule},
		time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func TestSaveWritesScript(t *testing.T) {
	repo := NewRepository(zap.NewNop())
	path := filepath.Join(t.TempDir(), "out", "filter.sieve")

	savedPath, err := repo.Save(context.Background(), testFilter(t), path)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(savedPath))

	data, err := os.ReadFile(savedPath)
	require.NoError(t, err)
	assert.Equal(t, testFilter(t).Script(), string(data))
}

func TestSaveEmptyPath(t *testing.T) {
	repo := NewRepository(zap.NewNop())
	_, err := repo.Save(context.Background(), testFilter(t), "")
	assert.Error(t, err)
}

func TestExistingFoldersFromScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "existing.sieve")
	script := `require ["fileinto", "envelope"];

if address :domain :is "from" "github.com" {
    fileinto "Dev/GitHub";
    stop;
}
if header :contains "subject" "invoice" {
    fileinto "Finance";
}
if header :contains "subject" "receipt" {
    fileinto "Finance";
}
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))

	reader := NewExistingReader(path, zap.NewNop())
	folders, err := reader.ExistingFolders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Dev/GitHub", "Finance"}, folders, "distinct targets in first-appearance order")
}

func TestExistingFoldersMissingFile(t *testing.T) {
	reader := NewExistingReader(filepath.Join(t.TempDir(), "nope.sieve"), zap.NewNop())
	folders, err := reader.ExistingFolders(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, folders)
}

func TestExistingFoldersEmptyPath(t *testing.T) {
	reader := NewExistingReader("", zap.NewNop())
	folders, err := reader.ExistingFolders(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, folders)
}

func TestSaveRoundTripsThroughExistingReader(t *testing.T) {
	repo := NewRepository(zap.NewNop())
	path := filepath.Join(t.TempDir(), "filter.sieve")

	savedPath, err := repo.Save(context.Background(), testFilter(t), path)
	require.NoError(t, err)

	reader := NewExistingReader(savedPath, zap.NewNop())
	folders, err := reader.ExistingFolders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Shopping/Amazon"}, folders)
}
