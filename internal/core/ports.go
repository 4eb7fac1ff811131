package core

import (
	"context"
	"time"
)

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// Complete sends a prompt and returns the raw model response text
	Complete(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the underlying model
	ModelName() string

	// Ping verifies the LLM service is reachable
	Ping(ctx context.Context) error
}

// EmbeddingClient defines the interface for text embedding services
type EmbeddingClient interface {
	// Embed maps each text to a fixed-length vector; vectors are returned
	// in input order
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the name of the underlying embedding model
	ModelName() string

	// Ping verifies the embedding service is reachable
	Ping(ctx context.Context) error
}

// EmbeddingCache defines the interface for caching embedding vectors across
// runs. Embeddings are deterministic for a fixed provider/model, so cached
// vectors are keyed by a hash of model name and input text.
type EmbeddingCache interface {
	// Get retrieves a cached vector, or ErrCacheMiss
	Get(ctx context.Context, key string) ([]float32, error)

	// Set stores a vector under the given key
	Set(ctx context.Context, key string, vector []float32, ttl time.Duration) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error

	// Close releases any resources held by the cache
	Close() error
}

// RawMessage represents one raw mail message as read from the mailbox
type RawMessage struct {
	From    string
	Subject string
	Folder  string
	Body    string
	Date    time.Time
}

// MailboxReader defines the interface for sampling raw messages from a
// mailbox. Implemented outside the core pipeline.
type MailboxReader interface {
	// ReadMessages returns up to max messages from the named folder,
	// optionally restricted to messages received after since
	ReadMessages(ctx context.Context, folder string, max int, since time.Time) ([]RawMessage, error)
}

// ExistingFilterReader optionally supplies folder names already targeted by
// the user's current filters, so the labeler can keep naming conventions.
// Advisory only; a nil reader changes nothing.
type ExistingFilterReader interface {
	// ExistingFolders returns folder paths referenced by existing rules
	ExistingFolders(ctx context.Context) ([]string, error)
}
