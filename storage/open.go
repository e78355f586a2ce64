package storage

import (
	"context"
	"fmt"
)

// Options selects and configures a Store backend.
type Options struct {
	Backend Backend

	// Path is the badger directory, the sqlite file, or the memory snapshot folder.
	Path string

	// QuotaBytes applies to the memory backend only.
	QuotaBytes int

	SupressLog bool
	DebugLogs  bool
}

// Open returns the Store described by opt.
func Open(ctx context.Context, opt Options) (Store, error) {
	switch opt.Backend {
	case BackendMemory, "":
		return NewMemory(ctx, MemoryOptions{
			QuotaBytes:     opt.QuotaBytes,
			SyncFolderPath: opt.Path,
			SupressLog:     opt.SupressLog,
			DebugLogs:      opt.DebugLogs,
		})

	case BackendBadger:
		return OpenBadger(BadgerOptions{
			Path:       opt.Path,
			SupressLog: opt.SupressLog,
			DebugLogs:  opt.DebugLogs,
		})

	case BackendSQLite:
		return OpenSQLite(opt.Path)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", opt.Backend)
	}
}
