package chart

import (
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Cache keeps rendered chart bytes for a limited time.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenCache opens a badger cache in dir, or in memory when dir is empty.
func OpenCache(dir string, ttl time.Duration) (*Cache, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.
		WithLogger(log.WithField("component", "chart-cache")).
		WithLoggingLevel(badger.WARNING).
		WithNumVersionsToKeep(1).
		WithMemTableSize(8 << 20).
		WithValueLogFileSize(16 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open chart cache")
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Close releases the cache.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key identifies a chart rendering: name, filter text and the run that
// produced the data. A new run therefore never hits old entries.
func Key(name, filters, runID string) []byte {
	h := xxhash.New()
	_, _ = h.WriteString(name)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(filters)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(runID)

	key := make([]byte, 0, len("chart/")+8)
	key = append(key, "chart/"...)
	return binary.BigEndian.AppendUint64(key, h.Sum64())
}

// Get returns the cached bytes for key.
func (c *Cache) Get(key []byte) ([]byte, bool, error) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "read chart cache")
	}
	return out, true, nil
}

// Put stores data under key until the TTL runs out.
func (c *Cache) Put(key, data []byte) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key, data)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
	return errors.Wrap(err, "write chart cache")
}

// GetOrRender returns the cached chart for key, rendering and storing it on
// a miss. Cache failures are logged and never fail the request.
func (c *Cache) GetOrRender(key []byte, render func() ([]byte, error)) ([]byte, error) {
	if c != nil {
		if data, ok, err := c.Get(key); err != nil {
			log.WithError(err).Warn("chart cache read failed")
		} else if ok {
			return data, nil
		}
	}

	data, err := render()
	if err != nil {
		return nil, err
	}

	if c != nil {
		if err := c.Put(key, data); err != nil {
			log.WithError(err).Warn("chart cache write failed")
		}
	}
	return data, nil
}
