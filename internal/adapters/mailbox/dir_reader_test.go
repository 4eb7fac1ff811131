package mailbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeEML(t *testing.T, root, relPath, from, subject, date, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	content := fmt.Sprintf("From: %s\r\nSubject: %s\r\n", from, subject)
	if date != "" {
		content += fmt.Sprintf("Date: %s\r\n", date)
	}
	content += "\r\n" + body
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReadMessagesParsesAndSortsNewestFirst(t *testing.T) {
	root := t.TempDir()
	writeEML(t, root, "INBOX/old.eml", "a@x.com", "old message",
		"Mon, 02 Jun 2025 10:00:00 +0000", "first body")
	writeEML(t, root, "INBOX/new.eml", "Shop <order@amazon.de>", "new message",
		"Tue, 03 Jun 2025 10:00:00 +0000", "second body")

	reader := NewDirReader(root, zap.NewNop())
	messages, err := reader.ReadMessages(context.Background(), "INBOX", 0, time.Time{})
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "new message", messages[0].Subject)
	assert.Equal(t, "Shop <order@amazon.de>", messages[0].From)
	assert.Equal(t, "second body", messages[0].Body)
	assert.Equal(t, "INBOX", messages[0].Folder)
	assert.Equal(t, "old message", messages[1].Subject)
}

func TestReadMessagesHonorsMax(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		writeEML(t, root, fmt.Sprintf("INBOX/m%d.eml", i), "a@x.com",
			fmt.Sprintf("message %d", i),
			fmt.Sprintf("0%d Jun 2025 10:00:00 +0000", i+1), "body")
	}

	reader := NewDirReader(root, zap.NewNop())
	messages, err := reader.ReadMessages(context.Background(), "INBOX", 2, time.Time{})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "message 4", messages[0].Subject, "newest messages win the cap")
	assert.Equal(t, "message 3", messages[1].Subject)
}

func TestReadMessagesSinceFilter(t *testing.T) {
	root := t.TempDir()
	writeEML(t, root, "INBOX/old.eml", "a@x.com", "too old",
		"Mon, 02 Jun 2025 10:00:00 +0000", "body")
	writeEML(t, root, "INBOX/new.eml", "a@x.com", "recent",
		"Mon, 09 Jun 2025 10:00:00 +0000", "body")

	reader := NewDirReader(root, zap.NewNop())
	since := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	messages, err := reader.ReadMessages(context.Background(), "INBOX", 0, since)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "recent", messages[0].Subject)
}

func TestReadMessagesSkipsNonEMLAndBrokenFiles(t *testing.T) {
	root := t.TempDir()
	writeEML(t, root, "INBOX/good.eml", "a@x.com", "good",
		"Mon, 02 Jun 2025 10:00:00 +0000", "body")
	require.NoError(t, os.WriteFile(filepath.Join(root, "INBOX", "notes.txt"), []byte("not mail"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "INBOX", "broken.eml"), []byte("not a header"), 0o644))

	reader := NewDirReader(root, zap.NewNop())
	messages, err := reader.ReadMessages(context.Background(), "INBOX", 0, time.Time{})
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "good", messages[0].Subject)
}

func TestReadMessagesWholeTreeAndSubfolders(t *testing.T) {
	root := t.TempDir()
	writeEML(t, root, "INBOX/a.eml", "a@x.com", "inbox mail",
		"Mon, 02 Jun 2025 10:00:00 +0000", "body")
	writeEML(t, root, "Archive/2025/b.eml", "b@x.com", "archived mail",
		"Mon, 02 Jun 2025 11:00:00 +0000", "body")

	reader := NewDirReader(root, zap.NewNop())
	messages, err := reader.ReadMessages(context.Background(), "", 0, time.Time{})
	require.NoError(t, err)
	require.Len(t, messages, 2)

	folders := []string{messages[0].Folder, messages[1].Folder}
	assert.Contains(t, folders, "INBOX")
	assert.Contains(t, folders, "Archive/2025")
}

func TestReadMessagesMissingFolder(t *testing.T) {
	reader := NewDirReader(t.TempDir(), zap.NewNop())
	_, err := reader.ReadMessages(context.Background(), "NoSuchFolder", 0, time.Time{})
	assert.Error(t, err)
}
