package fetch

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// HTTPProber checks that link destinations respond. It implements
// checks.LinkProber. Results are cached per URL for the prober's lifetime,
// so create one prober per run.
type HTTPProber struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	retries   int

	mu    sync.Mutex
	cache map[string]error
}

// NewHTTPProber creates a prober that gives each attempt timeout and
// retries a failed probe once.
func NewHTTPProber(client *http.Client, timeout time.Duration) *HTTPProber {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPProber{
		client:    client,
		userAgent: DefaultUserAgent,
		timeout:   timeout,
		retries:   1,
		cache:     make(map[string]error),
	}
}

// Probe sends HEAD, falling back to GET when the server rejects HEAD.
// Any status below 400 counts as reachable.
func (p *HTTPProber) Probe(ctx context.Context, rawURL string) error {
	p.mu.Lock()
	if err, ok := p.cache[rawURL]; ok {
		p.mu.Unlock()
		return err
	}
	p.mu.Unlock()

	var err error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if err = p.probeOnce(ctx, rawURL); err == nil || ctx.Err() != nil {
			break
		}
	}

	p.mu.Lock()
	p.cache[rawURL] = err
	p.mu.Unlock()
	return err
}

func (p *HTTPProber) probeOnce(ctx context.Context, rawURL string) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	status, err := p.request(ctx, http.MethodHead, rawURL)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = p.request(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, rawURL, status)
	}
	return nil
}

func (p *HTTPProber) request(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to probe %s: %w", rawURL, err)
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}
