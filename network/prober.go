package network

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/achu-1612/offcache/log"
)

const (
	defaultProbeInterval = 15 * time.Second
	defaultProbeTimeout  = 5 * time.Second
)

// make sure Prober implements the Monitor interface
var _ Monitor = (*Prober)(nil)

// ProberOptions configures a Prober.
type ProberOptions struct {
	// URL is requested on every probe. Any response below 500 counts as reachable.
	URL string

	// Interval between two probes. Defaults to 15s.
	Interval time.Duration

	// Timeout of a single probe. Defaults to 5s.
	Timeout time.Duration

	// Initial is the state reported before the first probe completes.
	Initial bool

	Client *http.Client

	SupressLog bool
	DebugLogs  bool
}

// Prober is a Monitor that derives connectivity from periodic HTTP requests
// and publishes the transitions it observes.
type Prober struct {
	*Manual

	url      string
	interval time.Duration
	client   *http.Client

	wg sync.WaitGroup
	l  log.Logger
}

// NewProber returns a Prober. Call Start to begin probing.
func NewProber(opt ProberOptions) *Prober {
	p := &Prober{
		Manual:   NewManual(opt.Initial),
		url:      opt.URL,
		interval: opt.Interval,
		client:   opt.Client,
		l:        log.New("prober", opt.SupressLog, opt.DebugLogs),
	}

	if p.interval <= 0 {
		p.interval = defaultProbeInterval
	}

	if p.client == nil {
		timeout := opt.Timeout
		if timeout <= 0 {
			timeout = defaultProbeTimeout
		}

		p.client = &http.Client{Timeout: timeout}
	}

	return p
}

// Check runs one probe, publishes the result and returns it.
func (p *Prober) Check(ctx context.Context) bool {
	online := p.probe(ctx)

	// a probe cut short by cancellation says nothing about the network
	if ctx.Err() != nil {
		return p.Online()
	}

	p.SetOnline(online)

	return online
}

func (p *Prober) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.l.Errorf("building probe request for %s: %v", p.url, err)

		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.l.Debugf("probe %s failed: %v", p.url, err)

		return false
	}

	_ = resp.Body.Close()

	return resp.StatusCode < http.StatusInternalServerError
}

// Start probes immediately and then every interval until ctx is done.
func (p *Prober) Start(ctx context.Context) {
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.Check(ctx)

		for {
			select {
			case <-ticker.C:
				p.Check(ctx)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// Wait blocks until the probing goroutine started by Start has returned.
func (p *Prober) Wait() {
	p.wg.Wait()
}
