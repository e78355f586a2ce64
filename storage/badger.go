package storage

import (
	"errors"
	"fmt"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/achu-1612/offcache/log"
)

// make sure Badger implements the Store interface
var _ Store = (*Badger)(nil)

// BadgerOptions configures a Badger store.
type BadgerOptions struct {
	// Path is the database directory. An empty path opens an in-memory database.
	Path string

	SupressLog bool
	DebugLogs  bool
}

// Badger is a Store backed by an embedded BadgerDB database.
type Badger struct {
	db *badgerdb.DB
	l  log.Logger
}

// badgerLogger routes badger's internal logging through our logger.
type badgerLogger struct {
	l log.Logger
}

func (b *badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Errorf(strings.TrimSuffix(format, "\n"), args...)
}

func (b *badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warnf(strings.TrimSuffix(format, "\n"), args...)
}

func (b *badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debugf(strings.TrimSuffix(format, "\n"), args...)
}

func (b *badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debugf(strings.TrimSuffix(format, "\n"), args...)
}

// OpenBadger opens (or creates) a BadgerDB database.
func OpenBadger(opt BadgerOptions) (*Badger, error) {
	l := log.New("badger-store", opt.SupressLog, opt.DebugLogs)

	opts := badgerdb.DefaultOptions(opt.Path)
	if opt.Path == "" {
		opts = opts.WithInMemory(true)
	}

	opts = opts.WithLogger(&badgerLogger{l: l})

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	return &Badger{db: db, l: l}, nil
}

// Get returns the value stored under key.
func (b *Badger) Get(key string) ([]byte, error) {
	var value []byte

	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)

		return err
	})

	switch {
	case errors.Is(err, badgerdb.ErrKeyNotFound):
		return nil, ErrNotFound
	case errors.Is(err, badgerdb.ErrDBClosed):
		return nil, ErrClosed
	case err != nil:
		return nil, fmt.Errorf("get key '%s': %w", key, err)
	}

	return value, nil
}

// Set stores value under key.
func (b *Badger) Set(key string, value []byte) error {
	err := b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), value)
	})

	if errors.Is(err, badgerdb.ErrDBClosed) {
		return ErrClosed
	}

	if err != nil {
		return fmt.Errorf("set key '%s': %w", key, err)
	}

	return nil
}

// Delete removes key.
func (b *Badger) Delete(key string) error {
	err := b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(key))
	})

	if errors.Is(err, badgerdb.ErrDBClosed) {
		return ErrClosed
	}

	if err != nil {
		return fmt.Errorf("delete key '%s': %w", key, err)
	}

	return nil
}

// Keys returns the keys starting with prefix. Badger iterates in key order.
func (b *Badger) Keys(prefix string) ([]string, error) {
	keys := make([]string, 0)

	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}

		return nil
	})

	if errors.Is(err, badgerdb.ErrDBClosed) {
		return nil, ErrClosed
	}

	if err != nil {
		return nil, fmt.Errorf("list keys '%s*': %w", prefix, err)
	}

	return keys, nil
}

// Close closes the database.
func (b *Badger) Close() error {
	if b.db.IsClosed() {
		return nil
	}

	return b.db.Close()
}
