// Package catalog provides persistent disk-based point storage using
// BadgerDB.
//
// The catalog is the durable side of the system: points are written and
// deleted here, while all analysis runs against an immutable in-memory
// snapshot taken with Snapshot. Snapshots never observe later writes.
//
// Key Structure:
//   - Points: 0x01 + label -> JSON(space.Point)
//
// Example:
//
//	cat, err := catalog.Open(catalog.Options{Dir: "/path/to/data"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer cat.Close()
//
//	err = cat.Put(space.Point{
//		Label:       "LOVE",
//		Coordinates: geometry.Vec4{0.92, 0.45, 0.15, 0.70},
//		Provenance:  "emotions",
//	})
//
//	store, err := cat.Snapshot()
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/orneryd/vanir/pkg/space"
)

// prefixPoint keys point records. Single-byte prefix keeps keys compact and
// leaves room for future record kinds.
const prefixPoint = byte(0x01)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("catalog: closed")

	// ErrNotFound is returned by Get and Delete for an absent label.
	ErrNotFound = errors.New("catalog: point not found")
)

// Options configures Open.
type Options struct {
	// Dir is the data directory. Created if missing.
	Dir string

	// InMemory keeps all data in RAM, lost on Close. For testing.
	InMemory bool

	// SyncWrites forces fsync after each write. Slower but safer.
	SyncWrites bool
}

// Catalog is a persistent point store backed by BadgerDB. Thread-safe.
type Catalog struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) a catalog at opts.Dir.
func Open(opts Options) (*Catalog, error) {
	badgerOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true).WithDir("").WithValueDir("")
	}
	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}
	// Quiet by default; badger's own logger is chatty at INFO.
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %q: %w", opts.Dir, err)
	}
	return &Catalog{db: db}, nil
}

// Put writes or overwrites one point. The point is validated the same way
// the in-memory builder validates it.
func (c *Catalog) Put(p space.Point) error {
	if err := p.Validate(); err != nil {
		return err
	}
	value, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("catalog: encode %q: %w", p.Label, err)
	}
	return c.withUpdate(func(txn *badger.Txn) error {
		return txn.Set(pointKey(p.Label), value)
	})
}

// Get reads one point by label. Returns ErrNotFound for an absent label.
func (c *Catalog) Get(label string) (space.Point, error) {
	var p space.Point
	err := c.withView(func(txn *badger.Txn) error {
		item, err := txn.Get(pointKey(label))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %q", ErrNotFound, label)
		}
		if err != nil {
			return fmt.Errorf("catalog: get %q: %w", label, err)
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &p)
		})
	})
	if err != nil {
		return space.Point{}, err
	}
	return p, nil
}

// Delete removes one point. Returns ErrNotFound for an absent label.
func (c *Catalog) Delete(label string) error {
	return c.withUpdate(func(txn *badger.Txn) error {
		key := pointKey(label)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %q", ErrNotFound, label)
		} else if err != nil {
			return fmt.Errorf("catalog: delete %q: %w", label, err)
		}
		return txn.Delete(key)
	})
}

// List returns every stored point in key (lexicographic label) order.
func (c *Catalog) List() ([]space.Point, error) {
	var points []space.Point
	err := c.withView(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{prefixPoint}
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var p space.Point
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &p)
			})
			if err != nil {
				return fmt.Errorf("catalog: decode %q: %w", it.Item().Key()[1:], err)
			}
			points = append(points, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}

// Count returns the number of stored points.
func (c *Catalog) Count() (int, error) {
	var count int
	err := c.withView(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte{prefixPoint}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Snapshot materializes the current contents as an immutable in-memory
// store. Later catalog writes do not affect the returned store.
func (c *Catalog) Snapshot() (*space.PointStore, error) {
	points, err := c.List()
	if err != nil {
		return nil, err
	}
	b := space.NewBuilder()
	for _, p := range points {
		b.Add(p.Label, p.Coordinates, p.Provenance)
	}
	return b.Build()
}

// ImportStore writes every point of an in-memory store into the catalog,
// overwriting points that share a label. Returns the number written.
func (c *Catalog) ImportStore(store *space.PointStore) (int, error) {
	var n int
	var firstErr error
	store.Each(func(p space.Point) {
		if firstErr != nil {
			return
		}
		if err := c.Put(p); err != nil {
			firstErr = err
			return
		}
		n++
	})
	return n, firstErr
}

// Close releases the underlying database. Idempotent.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("catalog: close: %w", err)
	}
	return nil
}

func (c *Catalog) ensureOpen() error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return nil
}

func (c *Catalog) withView(fn func(txn *badger.Txn) error) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	return c.db.View(fn)
}

func (c *Catalog) withUpdate(fn func(txn *badger.Txn) error) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	return c.db.Update(fn)
}

func pointKey(label string) []byte {
	key := make([]byte, 0, len(label)+1)
	key = append(key, prefixPoint)
	return append(key, label...)
}
