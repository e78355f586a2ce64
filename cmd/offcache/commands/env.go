package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/achu-1612/offcache"
	"github.com/achu-1612/offcache/client"
	"github.com/achu-1612/offcache/metrics"
	"github.com/achu-1612/offcache/network"
	"github.com/achu-1612/offcache/storage"
)

// env is everything a command needs, built from cfg.
type env struct {
	store   storage.Store
	monitor network.Monitor
	prober  *network.Prober
	cache   offcache.Cache
	api     *client.Client
}

// newEnv opens the configured store and wires the cache to it. Unless
// --offline is given, reachability comes from one probe of the backend.
// A non-nil reg receives the cache metrics.
func newEnv(ctx context.Context, reg prometheus.Registerer) (*env, error) {
	e := &env{}

	store, err := storage.Open(ctx, storage.Options{
		Backend:    cfg.Storage.Backend,
		Path:       cfg.Storage.Path,
		QuotaBytes: cfg.Storage.QuotaBytes,
		SupressLog: cfg.Logging.Quiet,
		DebugLogs:  cfg.Logging.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Storage.Backend, err)
	}

	e.store = store

	e.api = client.New(client.Options{
		BaseURL:    cfg.APIURL,
		Timeout:    cfg.APITimeout,
		Local:      cfg.Local,
		Username:   cfg.Auth.Username,
		Password:   cfg.Auth.Password,
		SupressLog: cfg.Logging.Quiet,
		DebugLogs:  cfg.Logging.Debug,
	})

	switch {
	case flags.offline:
		e.monitor = network.NewManual(false)

	case !cfg.OfflineMode:
		e.monitor = network.NewManual(true)

	default:
		e.prober = network.NewProber(network.ProberOptions{
			URL:        cfg.Probe.URL,
			Interval:   cfg.Probe.Interval,
			Timeout:    cfg.Probe.Timeout,
			SupressLog: cfg.Logging.Quiet,
			DebugLogs:  cfg.Logging.Debug,
		})

		e.prober.Check(ctx)
		e.monitor = e.prober
	}

	c, err := offcache.New(ctx, offcache.Options{
		Store:           store,
		Monitor:         e.monitor,
		Replayer:        client.NewReplayer(e.api),
		DefaultDuration: cfg.CacheDuration,
		Metrics:         metrics.New(reg),
		OnDeadLetter: func(a offcache.PendingAction, err error) {
			fmt.Fprintf(rootCmd.ErrOrStderr(), "dropped action %s after %d attempts: %v\n", a.ID, a.Attempts, err)
		},
		SupressLog: cfg.Logging.Quiet,
		DebugLogs:  cfg.Logging.Debug,
	})
	if err != nil {
		_ = store.Close()

		return nil, err
	}

	e.cache = c

	return e, nil
}

// students returns the offline-aware student client.
func (e *env) students() *client.Students {
	return client.NewStudents(e.api, e.cache, cfg.CacheDuration)
}

// Close closes the cache, then the store.
func (e *env) Close() error {
	return errors.Join(e.cache.Close(), e.store.Close())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
