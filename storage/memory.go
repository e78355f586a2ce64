package storage

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/achu-1612/offcache/log"
)

const (
	// defaultSyncInterval is the default interval for disk sync of the store data.
	defaultSyncInterval = 5 * time.Minute

	snapshotFile = "offcache.gob"
)

// make sure Memory implements the Store interface
var _ Store = (*Memory)(nil)

// MemoryOptions configures a Memory store.
type MemoryOptions struct {
	// QuotaBytes caps the sum of key and value sizes. Zero means unlimited.
	QuotaBytes int

	// SyncFolderPath enables gob snapshots of the store into this folder.
	SyncFolderPath string

	// SyncInterval is the period between two snapshots. Defaults to 5 minutes.
	SyncInterval time.Duration

	SupressLog bool
	DebugLogs  bool
}

// Memory is a map-backed Store with an optional quota, the way a browser's
// local storage behaves, and optional periodic snapshots to disk.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
	size  int
	quota int

	closed bool

	syncFolderPath string
	syncInterval   time.Duration
	cancel         context.CancelFunc
	wg             sync.WaitGroup

	l log.Logger
}

// NewMemory returns a new Memory store. When a sync folder is configured, the
// last snapshot is loaded and a background goroutine keeps writing new ones
// until ctx is done or the store is closed.
func NewMemory(ctx context.Context, opt MemoryOptions) (*Memory, error) {
	m := &Memory{
		items:          make(map[string][]byte),
		quota:          opt.QuotaBytes,
		syncFolderPath: opt.SyncFolderPath,
		syncInterval:   opt.SyncInterval,
		l:              log.New("memory-store", opt.SupressLog, opt.DebugLogs),
	}

	if m.syncFolderPath == "" {
		return m, nil
	}

	if err := os.MkdirAll(m.syncFolderPath, os.ModePerm); err != nil {
		return nil, fmt.Errorf("creating sync folder: %w", err)
	}

	if m.syncInterval == 0 {
		m.syncInterval = defaultSyncInterval

		m.l.Warnf("no sync interval provided, using default interval: %s", m.syncInterval)
	}

	if err := m.load(); err != nil {
		if !os.IsNotExist(err) {
			m.l.Errorf("loading store from file: %v", err)
		}
	} else {
		m.l.Debugf("store data loaded from folder: %s keys: %d", m.syncFolderPath, m.Len())
	}

	ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)

	go m.diskSync(ctx)

	return m, nil
}

// Len returns the number of keys in the store.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.items)
}

// Size returns the number of bytes accounted against the quota.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.size
}

// Get returns a copy of the value stored under key.
func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	v, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

// Set stores a copy of value under key.
func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	newSize := m.size + len(key) + len(value)
	if old, ok := m.items[key]; ok {
		newSize -= len(key) + len(old)
	}

	if m.quota > 0 && newSize > m.quota {
		return fmt.Errorf("set key '%s': %w (%d > %d bytes)", key, ErrQuotaExceeded, newSize, m.quota)
	}

	v := make([]byte, len(value))
	copy(v, value)

	m.items[key] = v
	m.size = newSize

	return nil
}

// Delete removes key from the store.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if old, ok := m.items[key]; ok {
		m.size -= len(key) + len(old)

		delete(m.items, key)
	}

	return nil
}

// Keys returns the sorted keys starting with prefix.
func (m *Memory) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	keys := make([]string, 0)

	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	return keys, nil
}

// Close stops the disk sync process, writes a final snapshot and releases the store.
func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()

		return nil
	}
	m.mu.Unlock()

	var err error

	if m.cancel != nil {
		m.cancel()
		m.wg.Wait()

		err = m.Dump()
	}

	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	return err
}

// diskSync is a background process that saves the store data to disk at regular intervals.
func (m *Memory) diskSync(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.Dump(); err != nil {
				m.l.Errorf("saving store data to file: %v", err)
			}

		case <-ctx.Done():
			return
		}
	}
}

func (m *Memory) snapshotPath() string {
	return filepath.Join(m.syncFolderPath, snapshotFile)
}

// Dump writes the store's items to the snapshot file, overwriting the previous one.
// The snapshot is written to a temporary file first so a crash never leaves a torn file.
func (m *Memory) Dump() error {
	if m.syncFolderPath == "" {
		return nil
	}

	tmp := m.snapshotPath() + ".tmp"

	fp, err := os.Create(filepath.Clean(tmp))
	if err != nil {
		return fmt.Errorf("store dump: %w", err)
	}

	m.mu.RLock()
	err = gob.NewEncoder(fp).Encode(&m.items)
	keys := len(m.items)
	m.mu.RUnlock()

	if cerr := fp.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return fmt.Errorf("store dump: %w", err)
	}

	if err := os.Rename(tmp, m.snapshotPath()); err != nil {
		return fmt.Errorf("store dump: %w", err)
	}

	m.l.Debugf("store data saved to file: %s keys: %d", m.snapshotPath(), keys)

	return nil
}

// load reads the snapshot file into the store.
func (m *Memory) load() error {
	fp, err := os.Open(filepath.Clean(m.snapshotPath()))
	if err != nil {
		return err
	}

	defer func() {
		if err := fp.Close(); err != nil {
			m.l.Errorf("closing file %s: %v", m.snapshotPath(), err)
		}
	}()

	items := map[string][]byte{}

	if err := gob.NewDecoder(fp).Decode(&items); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range items {
		m.items[k] = v
		m.size += len(k) + len(v)
	}

	return nil
}
