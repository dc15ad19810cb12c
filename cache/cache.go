package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Cache is a small TTL cache over badger, used to keep repeated live
// searches from hammering the upstream APIs. Values are JSON-encoded; badger
// expires entries itself so there is no sweeper to run.
type Cache struct {
	db  *badger.DB
	log *zap.SugaredLogger
}

// Open opens a cache at path. An empty path opens an in-memory cache, which
// is what tests use.
func Open(path string, log *zap.SugaredLogger) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	// Badger's own logger is too chatty for a cache; failures surface
	// through the operations instead.
	opts = opts.WithLogger(nil)

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache at %q: %w", path, err)
	}
	return &Cache{db: bdb, log: log}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get unmarshals the cached value for key into out. The bool reports a hit.
func (c *Cache) Get(key string, out any) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key for ttl.
func (c *Cache) Set(key string, value any, ttl time.Duration) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %q: %w", key, err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), body).WithTTL(ttl))
	})
	if err != nil {
		return fmt.Errorf("failed to write cache key %q: %w", key, err)
	}
	return nil
}

// Remember returns the cached value for key, or runs fetch and caches its
// result for ttl. Cache failures degrade to calling fetch; a broken cache
// must never break a search.
func (c *Cache) Remember(key string, ttl time.Duration, out any, fetch func() (any, error)) error {
	hit, err := c.Get(key, out)
	if err != nil {
		c.log.Warnw("Cache read failed, fetching fresh", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return nil
	}

	fresh, err := fetch()
	if err != nil {
		return err
	}

	if err := c.Set(key, fresh, ttl); err != nil {
		c.log.Warnw("Cache write failed", zap.String("key", key), zap.Error(err))
	}

	// Round-trip through JSON so cold and warm paths return identical shapes.
	body, err := json.Marshal(fresh)
	if err != nil {
		return fmt.Errorf("failed to encode fetched value for %q: %w", key, err)
	}
	return json.Unmarshal(body, out)
}
