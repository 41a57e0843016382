package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-dashboard-api/internal/config"
)

// CacheError is always non-fatal: a failing cache degrades reads to
// "fetch fresh", it never blocks a read or write path.
type CacheError struct {
	Op  string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error in %s: %v", e.Op, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// Cache is a TTL key-value store with prefix invalidation.
type Cache interface {
	Get(key string, target any) (bool, error)
	Set(key string, value any, ttl time.Duration) error
	Delete(keys ...string) error
	DeletePrefix(prefix string) error
	Ping() error
	Close() error
}

// BadgerCache implements Cache on an embedded badger store. Entries use
// badger's native TTL support; expired keys simply miss.
type BadgerCache struct {
	db *badger.DB
}

func NewBadgerCache(cfg config.Cache) (*BadgerCache, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &CacheError{Op: "open", Err: err}
	}

	return &BadgerCache{db: db}, nil
}

func (c *BadgerCache) Get(key string, target any) (bool, error) {
	var data []byte

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, &CacheError{Op: "get", Err: err}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return false, &CacheError{Op: "get", Err: err}
	}

	return true, nil
}

func (c *BadgerCache) Set(key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &CacheError{Op: "set", Err: err}
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return &CacheError{Op: "set", Err: err}
	}

	return nil
}

func (c *BadgerCache) Delete(keys ...string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &CacheError{Op: "delete", Err: err}
	}

	return nil
}

// DeletePrefix removes every key under the given prefix; used by webhook
// invalidation where the exact sub-scoped keys are not known.
func (c *BadgerCache) DeletePrefix(prefix string) error {
	keys := make([][]byte, 0)

	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return &CacheError{Op: "delete_prefix", Err: err}
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &CacheError{Op: "delete_prefix", Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"prefix": prefix,
		"keys":   len(keys),
	}).Debug("cache: prefix invalidated")

	return nil
}

func (c *BadgerCache) Ping() error {
	if c.db.IsClosed() {
		return &CacheError{Op: "ping", Err: fmt.Errorf("store is closed")}
	}
	return nil
}

func (c *BadgerCache) Close() error {
	return c.db.Close()
}
