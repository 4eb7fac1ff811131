package mailbox

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kekzl/mailcow-ai-filter/internal/core"
)

// DirReader is an implementation of the MailboxReader interface over a
// directory tree of RFC 5322 .eml files. The first path segment below the
// root names the folder, matching a maildir-style export.
type DirReader struct {
	root   string
	logger *zap.Logger
}

// NewDirReader creates a new directory mailbox reader
func NewDirReader(root string, logger *zap.Logger) *DirReader {
	return &DirReader{
		root:   root,
		logger: logger,
	}
}

// ReadMessages returns up to max messages from the named folder, newest
// first by Date header, optionally restricted to messages after since.
// An empty folder name reads the whole tree.
func (r *DirReader) ReadMessages(ctx context.Context, folder string, max int, since time.Time) ([]core.RawMessage, error) {
	base := r.root
	if folder != "" {
		base = filepath.Join(r.root, filepath.FromSlash(folder))
	}
	if _, err := os.Stat(base); err != nil {
		return nil, fmt.Errorf("mailbox folder %q: %w", folder, err)
	}

	var messages []core.RawMessage
	err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".eml") {
			return nil
		}

		msg, err := r.readOne(path)
		if err != nil {
			r.logger.Warn("Skipping unreadable message file",
				zap.String("path", path),
				zap.Error(err))
			return nil
		}
		if !since.IsZero() && !msg.Date.After(since) {
			return nil
		}
		messages = append(messages, msg)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking mailbox directory: %w", err)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Date.After(messages[j].Date)
	})
	if max > 0 && len(messages) > max {
		messages = messages[:max]
	}
	return messages, nil
}

// readOne parses a single .eml file into a raw message
func (r *DirReader) readOne(path string) (core.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.RawMessage{}, err
	}
	defer f.Close()

	msg, err := mail.ReadMessage(f)
	if err != nil {
		return core.RawMessage{}, fmt.Errorf("parsing message: %w", err)
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return core.RawMessage{}, fmt.Errorf("reading body: %w", err)
	}

	date, err := msg.Header.Date()
	if err != nil {
		date = time.Time{}
	}

	return core.RawMessage{
		From:    msg.Header.Get("From"),
		Subject: msg.Header.Get("Subject"),
		Folder:  r.folderOf(path),
		Body:    string(body),
		Date:    date,
	}, nil
}

// folderOf derives the folder name from the file's path below the root
func (r *DirReader) folderOf(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return ""
	}
	dir := filepath.Dir(rel)
	if dir == "." {
		return ""
	}
	return filepath.ToSlash(dir)
}
