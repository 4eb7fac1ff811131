package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/kekzl/mailcow-ai-filter/internal/core"
)

// MySQLCache is a MySQL implementation of the EmbeddingCache interface,
// for deployments that already run a MySQL or MariaDB instance.
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMySQLCache creates a new MySQL embedding cache from a DSN like
// "user:pass@tcp(host:3306)/dbname?parseTime=true".
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach MySQL server: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS embedding_cache (
			cache_key VARCHAR(64) PRIMARY KEY,
			vector MEDIUMBLOB NOT NULL,
			created_at TIMESTAMP NULL,
			expires_at TIMESTAMP NULL,
			INDEX idx_embedding_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}
	return cache, nil
}

// Get retrieves a cached vector, or ErrCacheMiss
func (c *MySQLCache) Get(ctx context.Context, key string) ([]float32, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx, `
		SELECT vector
		FROM embedding_cache
		WHERE cache_key = ? AND expires_at > NOW()
	`, key).Scan(&blob)

	if err == sql.ErrNoRows {
		return nil, core.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	vector, err := decodeVector(blob)
	if err != nil {
		return nil, fmt.Errorf("corrupt cache entry for key %s: %w", key, err)
	}
	return vector, nil
}

// Set stores a vector under the given key
func (c *MySQLCache) Set(ctx context.Context, key string, vector []float32, ttl time.Duration) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO embedding_cache (cache_key, vector, created_at, expires_at)
		VALUES (?, ?, NOW(), ?)
		ON DUPLICATE KEY UPDATE vector = VALUES(vector), expires_at = VALUES(expires_at)
	`, key, encodeVector(vector), time.Now().Add(ttl))

	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM embedding_cache
		WHERE expires_at <= NOW()
	`)
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else if rowsAffected > 0 {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}
	return nil
}

// Close stops the background cleanup task and closes the connection pool
func (c *MySQLCache) Close() error {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	return c.db.Close()
}

// startCleanupTask starts a background task to clean up expired entries
func (c *MySQLCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}
