package offcache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/achu-1612/offcache/eviction"
	"github.com/achu-1612/offcache/mocks"
	"github.com/achu-1612/offcache/network"
	"github.com/achu-1612/offcache/storage"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = f.now.Add(d)
}

type student struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestStore(t *testing.T) *storage.Memory {
	t.Helper()

	s, err := storage.NewMemory(context.Background(), storage.MemoryOptions{SupressLog: true})
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func newTestCache(t *testing.T, opt Options) *cache {
	t.Helper()

	opt.SupressLog = true

	c, err := New(context.Background(), opt)
	require.NoError(t, err)

	t.Cleanup(func() { _ = c.Close() })

	return c.(*cache)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opt     Options
		wantErr bool
		errIs   error
	}{
		{name: "defaults", opt: Options{}},
		{name: "custom namespace", opt: Options{Namespace: "app_", QueueKey: "app_actions"}, wantErr: true, errIs: ErrInvalidQueueKey},
		{name: "queue key outside namespace", opt: Options{Namespace: "app_", QueueKey: "actions"}},
		{name: "queue key under default namespace", opt: Options{QueueKey: DefaultNamespace + "queue"}, wantErr: true, errIs: ErrInvalidQueueKey},
		{name: "lru front cache", opt: Options{EvictionPolicy: eviction.PolicyLRU, MemoryCacheSize: 10}},
		{name: "unknown eviction policy", opt: Options{EvictionPolicy: "arc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opt.SupressLog = true

			c, err := New(context.Background(), tt.opt)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}

				if tt.errIs != nil && !errors.Is(err, tt.errIs) {
					t.Fatalf("expected %v, got %v", tt.errIs, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			defer c.Close()

			if !c.IsOnline() {
				t.Error("expected the default monitor to report online")
			}
		})
	}
}

func TestPutGet(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{name: "string", data: "value", want: `"value"`},
		{name: "number", data: 42, want: `42`},
		{name: "struct", data: student{ID: "s1", Name: "Asha"}, want: `{"id":"s1","name":"Asha"}`},
		{name: "list", data: []student{{ID: "s1", Name: "Asha"}}, want: `[{"id":"s1","name":"Asha"}]`},
		{name: "raw json", data: json.RawMessage(`{"count":3}`), want: `{"count":3}`},
	}

	c := newTestCache(t, Options{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Put(tt.name, tt.data, time.Hour); got != OutcomeOK {
				t.Fatalf("expected outcome ok, got %s", got)
			}

			raw, ok := c.Get(tt.name)
			if !ok {
				t.Fatalf("expected key %s to be present", tt.name)
			}

			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestPutOverwrites(t *testing.T) {
	c := newTestCache(t, Options{})

	c.Put("k", "v1", time.Hour)
	c.Put("k", "v2", time.Hour)

	raw, ok := c.Get("k")
	require.True(t, ok)
	assert.JSONEq(t, `"v2"`, string(raw))
}

func TestPutEntryFormat(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t)

	c := newTestCache(t, Options{Store: store, Now: clock.Now})

	c.Put("students:all", []string{"a"}, 0)

	b, err := store.Get(DefaultNamespace + "students:all")
	require.NoError(t, err)

	entry := CacheEntry{}
	require.NoError(t, json.Unmarshal(b, &entry))

	assert.Equal(t, "students:all", entry.Key)
	assert.Equal(t, clock.Now().UnixMilli(), entry.Timestamp)
	assert.Equal(t, clock.Now().Add(DefaultDuration).UnixMilli(), entry.Expiry)
	assert.JSONEq(t, `["a"]`, string(entry.Data))
}

func TestExpiry(t *testing.T) {
	tests := []struct {
		name    string
		ttl     time.Duration
		advance time.Duration
		present bool
	}{
		{name: "fresh", ttl: time.Hour, advance: 59 * time.Minute, present: true},
		{name: "expiry boundary is stale", ttl: time.Hour, advance: time.Hour, present: false},
		{name: "past expiry", ttl: time.Minute, advance: time.Hour, present: false},
		{name: "default duration", ttl: 0, advance: 23 * time.Hour, present: true},
		{name: "default duration elapsed", ttl: 0, advance: 24 * time.Hour, present: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			store := newTestStore(t)

			c := newTestCache(t, Options{Store: store, Now: clock.Now})

			c.Put("k", "v", tt.ttl)
			clock.Advance(tt.advance)

			if _, ok := c.Get("k"); ok != tt.present {
				t.Fatalf("expected present=%t, got %t", tt.present, ok)
			}

			_, err := store.Get(DefaultNamespace + "k")

			if tt.present {
				assert.NoError(t, err)

				return
			}

			// the stale entry is evicted on discovery, and rediscovering it is a no-op
			assert.ErrorIs(t, err, storage.ErrNotFound)

			_, ok := c.Get("k")
			assert.False(t, ok)
		})
	}
}

func TestExpiryWithFrontCache(t *testing.T) {
	for _, policy := range []eviction.Policy{eviction.PolicyLRU, eviction.PolicyLFU} {
		t.Run(string(policy), func(t *testing.T) {
			clock := newFakeClock()
			store := newTestStore(t)

			c := newTestCache(t, Options{
				Store:           store,
				Now:             clock.Now,
				EvictionPolicy:  policy,
				MemoryCacheSize: 2,
			})

			c.Put("k1", 1, time.Minute)
			c.Put("k2", 2, time.Hour)
			c.Put("k3", 3, time.Hour)

			for _, k := range []string{"k1", "k2", "k3"} {
				if _, ok := c.Get(k); !ok {
					t.Errorf("expected %s to be present", k)
				}
			}

			clock.Advance(2 * time.Minute)

			if _, ok := c.Get("k1"); ok {
				t.Error("expected k1 to be expired")
			}

			if _, ok := c.Get("k2"); !ok {
				t.Error("expected k2 to be present")
			}

			_, err := store.Get(DefaultNamespace + "k1")
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}

func TestRemove(t *testing.T) {
	c := newTestCache(t, Options{EvictionPolicy: eviction.PolicyLRU, MemoryCacheSize: 4})

	c.Put("k", "v", time.Hour)

	assert.Equal(t, OutcomeOK, c.Remove("k"))

	_, ok := c.Get("k")
	assert.False(t, ok)

	// removing a missing key is not a failure
	assert.Equal(t, OutcomeOK, c.Remove("missing"))
}

func TestClearAll(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("theme", []byte("dark")))

	c := newTestCache(t, Options{Store: store, EvictionPolicy: eviction.PolicyLRU, MemoryCacheSize: 4})

	c.Put("students:all", []string{"a", "b"}, time.Hour)
	c.Put("students:1", "a", time.Hour)
	c.QueueAction(map[string]string{"op": "register"})

	assert.Equal(t, OutcomeOK, c.ClearAll())

	for _, k := range []string{"students:all", "students:1"} {
		if _, ok := c.Get(k); ok {
			t.Errorf("expected %s to be cleared", k)
		}
	}

	keys, err := store.Keys(DefaultNamespace)
	require.NoError(t, err)
	assert.Empty(t, keys)

	b, err := store.Get("theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", string(b))

	assert.Len(t, c.ListQueuedActions(), 1)
}

func TestSharedStoreNamespaces(t *testing.T) {
	store := newTestStore(t)

	a := newTestCache(t, Options{Store: store, Namespace: "a_", QueueKey: "queue_a"})
	b := newTestCache(t, Options{Store: store, Namespace: "b_", QueueKey: "queue_b"})

	a.Put("k", "from a", time.Hour)
	b.Put("k", "from b", time.Hour)

	a.ClearAll()

	_, ok := a.Get("k")
	assert.False(t, ok)

	raw, ok := b.Get("k")
	require.True(t, ok)
	assert.JSONEq(t, `"from b"`, string(raw))
}

func TestStoreFailures(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name   string
		expect func(m *mocks.MockStore)
		run    func(t *testing.T, c Cache)
	}{
		{
			name: "put rejected",
			expect: func(m *mocks.MockStore) {
				m.EXPECT().Set(DefaultNamespace+"k", gomock.Any()).Return(storage.ErrQuotaExceeded)
			},
			run: func(t *testing.T, c Cache) {
				assert.Equal(t, OutcomeDegraded, c.Put("k", "v", time.Hour))
			},
		},
		{
			name: "get failure is a miss",
			expect: func(m *mocks.MockStore) {
				m.EXPECT().Get(DefaultNamespace+"k").Return(nil, errBoom)
			},
			run: func(t *testing.T, c Cache) {
				_, ok := c.Get("k")
				assert.False(t, ok)
			},
		},
		{
			name: "corrupt entry is a miss",
			expect: func(m *mocks.MockStore) {
				m.EXPECT().Get(DefaultNamespace+"k").Return([]byte("{not json"), nil)
			},
			run: func(t *testing.T, c Cache) {
				_, ok := c.Get("k")
				assert.False(t, ok)
			},
		},
		{
			name: "remove failure",
			expect: func(m *mocks.MockStore) {
				m.EXPECT().Delete(DefaultNamespace+"k").Return(errBoom)
			},
			run: func(t *testing.T, c Cache) {
				assert.Equal(t, OutcomeDegraded, c.Remove("k"))
			},
		},
		{
			name: "clear cannot list keys",
			expect: func(m *mocks.MockStore) {
				m.EXPECT().Keys(DefaultNamespace).Return(nil, errBoom)
			},
			run: func(t *testing.T, c Cache) {
				assert.Equal(t, OutcomeDegraded, c.ClearAll())
			},
		},
		{
			name: "clear keeps going past a failed delete",
			expect: func(m *mocks.MockStore) {
				m.EXPECT().Keys(DefaultNamespace).Return([]string{DefaultNamespace + "a", DefaultNamespace + "b"}, nil)
				m.EXPECT().Delete(DefaultNamespace+"a").Return(errBoom)
				m.EXPECT().Delete(DefaultNamespace+"b").Return(nil)
			},
			run: func(t *testing.T, c Cache) {
				assert.Equal(t, OutcomeDegraded, c.ClearAll())
			},
		},
		{
			name: "queue write rejected",
			expect: func(m *mocks.MockStore) {
				m.EXPECT().Set(DefaultQueueKey, gomock.Any()).Return(storage.ErrQuotaExceeded)
			},
			run: func(t *testing.T, c Cache) {
				action, outcome := c.QueueAction("payload")
				assert.Equal(t, OutcomeDegraded, outcome)
				assert.NotEmpty(t, action.ID)
			},
		},
		{
			name: "clear queue failure",
			expect: func(m *mocks.MockStore) {
				m.EXPECT().Delete(DefaultQueueKey).Return(errBoom)
			},
			run: func(t *testing.T, c Cache) {
				assert.Equal(t, OutcomeDegraded, c.ClearQueuedActions())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			m := mocks.NewMockStore(ctrl)
			m.EXPECT().Get(DefaultQueueKey).Return(nil, storage.ErrNotFound).AnyTimes()

			tt.expect(m)

			c := newTestCache(t, Options{Store: m})

			tt.run(t, c)
		})
	}
}

func TestCorruptQueueIsReplaced(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set(DefaultQueueKey, []byte("garbage")))

	c := newTestCache(t, Options{Store: store})

	assert.Empty(t, c.ListQueuedActions())

	_, outcome := c.QueueAction("payload")
	assert.Equal(t, OutcomeOK, outcome)
	assert.Len(t, c.ListQueuedActions(), 1)
}

// flakyStore fails the next failGets reads.
type flakyStore struct {
	storage.Store

	mu       sync.Mutex
	failGets int
}

func (s *flakyStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failGets > 0 {
		s.failGets--

		return nil, errors.New("i/o error")
	}

	return s.Store.Get(key)
}

func (s *flakyStore) failNextGet() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failGets++
}

func TestUnreadableQueueIsKept(t *testing.T) {
	store := &flakyStore{Store: newTestStore(t)}
	c := newTestCache(t, Options{Store: store})

	queuePayloads(t, c, "a", "b")

	store.failNextGet()

	_, outcome := c.QueueAction("c")
	assert.Equal(t, OutcomeDegraded, outcome)

	assert.Equal(t, []string{"a", "b"}, remaining(t, c))

	_, outcome = c.QueueAction("c")
	require.Equal(t, OutcomeOK, outcome)

	assert.Equal(t, []string{"a", "b", "c"}, remaining(t, c))
}

func TestQuotaKeepsPreviousValue(t *testing.T) {
	store, err := storage.NewMemory(context.Background(), storage.MemoryOptions{QuotaBytes: 256, SupressLog: true})
	require.NoError(t, err)

	defer store.Close()

	c := newTestCache(t, Options{Store: store, EvictionPolicy: eviction.PolicyLRU, MemoryCacheSize: 4})

	require.Equal(t, OutcomeOK, c.Put("k", "small", time.Hour))
	assert.Equal(t, OutcomeDegraded, c.Put("k", strings.Repeat("x", 1024), time.Hour))

	raw, ok := c.Get("k")
	require.True(t, ok)
	assert.JSONEq(t, `"small"`, string(raw))
}

func TestFetchWithFallback(t *testing.T) {
	errDown := errors.New("backend down")

	tests := []struct {
		name       string
		online     bool
		cached     any
		fetchValue any
		fetchErr   error
		wantCalled bool
		wantSource Source
		wantData   string
		wantErr    error
		wantCached string
	}{
		{
			name:       "offline with fresh entry",
			online:     false,
			cached:     []string{"a"},
			wantCalled: false,
			wantSource: SourceCache,
			wantData:   `["a"]`,
			wantCached: `["a"]`,
		},
		{
			name:       "offline without entry",
			online:     false,
			wantCalled: false,
			wantErr:    ErrNoCachedDataOffline,
		},
		{
			name:       "online success refreshes cache",
			online:     true,
			cached:     []string{"old"},
			fetchValue: []string{"new"},
			wantCalled: true,
			wantSource: SourceNetwork,
			wantData:   `["new"]`,
			wantCached: `["new"]`,
		},
		{
			name:       "online failure serves stale entry",
			online:     true,
			cached:     []string{"old"},
			fetchErr:   errDown,
			wantCalled: true,
			wantSource: SourceStaleCache,
			wantData:   `["old"]`,
			wantCached: `["old"]`,
		},
		{
			name:       "online failure without entry",
			online:     true,
			fetchErr:   errDown,
			wantCalled: true,
			wantErr:    errDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := network.NewManual(tt.online)
			c := newTestCache(t, Options{Monitor: monitor})

			if tt.cached != nil {
				c.Put("students:all", tt.cached, time.Hour)
			}

			called := false

			res, err := c.FetchWithFallback(context.Background(), "students:all", func(context.Context) (any, error) {
				called = true

				return tt.fetchValue, tt.fetchErr
			}, time.Hour)

			assert.Equal(t, tt.wantCalled, called)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)

				if tt.fetchErr != nil {
					assert.ErrorIs(t, err, ErrFetchFailed)
				}

				_, ok := c.Get("students:all")
				assert.False(t, ok)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, res.Source)
			assert.JSONEq(t, tt.wantData, string(res.Data))
			assert.Equal(t, tt.wantSource == SourceStaleCache, res.Degraded())

			if res.Degraded() {
				assert.ErrorIs(t, res.Err, errDown)
			}

			raw, ok := c.Get("students:all")
			require.True(t, ok)
			assert.JSONEq(t, tt.wantCached, string(raw))
		})
	}
}

func TestFetchWithFallbackOfflineExpired(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, Options{Monitor: network.NewManual(false), Now: clock.Now})

	c.Put("students:count", 3, time.Minute)
	clock.Advance(time.Minute)

	_, err := c.FetchWithFallback(context.Background(), "students:count", func(context.Context) (any, error) {
		t.Fatal("fetch must not run offline")

		return nil, nil
	}, 0)

	assert.ErrorIs(t, err, ErrNoCachedDataOffline)
}

func TestFetchWithFallbackFollowsMonitor(t *testing.T) {
	monitor := network.NewManual(true)
	c := newTestCache(t, Options{Monitor: monitor})

	fetches := 0
	fetch := func(context.Context) (any, error) {
		fetches++

		return fetches, nil
	}

	res, err := c.FetchWithFallback(context.Background(), "n", fetch, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, SourceNetwork, res.Source)

	monitor.SetOnline(false)
	assert.False(t, c.IsOnline())

	res, err = c.FetchWithFallback(context.Background(), "n", fetch, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, res.Source)
	assert.JSONEq(t, `1`, string(res.Data))
	assert.Equal(t, 1, fetches)
}

func TestClose(t *testing.T) {
	monitor := network.NewManual(true)

	c, err := New(context.Background(), Options{Monitor: monitor, SupressLog: true})
	require.NoError(t, err)

	assert.Equal(t, 1, monitor.Subscribers())

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.Equal(t, 0, monitor.Subscribers())

	assert.Equal(t, OutcomeFailed, c.Put("k", "v", time.Hour))
	assert.Equal(t, OutcomeFailed, c.Remove("k"))
	assert.Equal(t, OutcomeFailed, c.ClearAll())
	assert.Equal(t, OutcomeFailed, c.ClearQueuedActions())
	assert.Empty(t, c.ListQueuedActions())

	_, ok := c.Get("k")
	assert.False(t, ok)

	_, err = c.FetchWithFallback(context.Background(), "k", func(context.Context) (any, error) { return 1, nil }, 0)
	assert.ErrorIs(t, err, ErrClosed)

	assert.ErrorIs(t, c.Sync(context.Background()).Err, ErrClosed)

	// transitions after close are ignored
	monitor.SetOnline(false)
	assert.True(t, c.IsOnline())
}

func TestCloseLeavesProvidedStoreOpen(t *testing.T) {
	store := newTestStore(t)

	c, err := New(context.Background(), Options{Store: store, SupressLog: true})
	require.NoError(t, err)

	c.Put("k", "v", time.Hour)
	require.NoError(t, c.Close())

	_, err = store.Get(DefaultNamespace + "k")
	assert.NoError(t, err)
}

func TestCacheSurvivesRestart(t *testing.T) {
	store := newTestStore(t)
	clock := newFakeClock()

	c, err := New(context.Background(), Options{Store: store, Now: clock.Now, SupressLog: true})
	require.NoError(t, err)

	c.Put("students:1", student{ID: "1", Name: "Asha"}, time.Hour)
	c.QueueAction(map[string]string{"op": "delete", "id": "2"})
	require.NoError(t, c.Close())

	c = newTestCache(t, Options{Store: store, Now: clock.Now})

	s, ok := GetAs[student](c, "students:1")
	require.True(t, ok)
	assert.Equal(t, "Asha", s.Name)
	assert.Len(t, c.ListQueuedActions(), 1)
}
