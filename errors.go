package offcache

import "errors"

var (
	// ErrNoCachedDataOffline is returned by FetchWithFallback when the network is
	// unreachable and no fresh entry exists for the key. The fetch is never attempted.
	ErrNoCachedDataOffline = errors.New("no cached data available offline")

	// ErrFetchFailed wraps the fetch error when no cached fallback exists.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrStoreWrite marks a rejected write to the persistent store.
	ErrStoreWrite = errors.New("store write failed")

	// ErrStoreRead marks a failed read or decode from the persistent store.
	ErrStoreRead = errors.New("store read failed")

	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = errors.New("cache closed")

	// ErrNoReplayer is reported by Sync when actions are queued but no Replayer was set.
	// The queue is kept.
	ErrNoReplayer = errors.New("no replayer configured")

	// ErrInvalidQueueKey is returned by New when the queue key falls under the
	// namespace, where ClearAll would delete it.
	ErrInvalidQueueKey = errors.New("queue key must not live under the cache namespace")

	errCorruptQueue = errors.New("decoding queue")
)

// permanentError marks a replay failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent wraps err so that Sync drops the action to the dead letter hook
// instead of retrying it on the next reconnect.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError

	return errors.As(err, &p)
}
