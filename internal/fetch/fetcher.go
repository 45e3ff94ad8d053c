package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/nao1215/pageaudit/internal/checks"
	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

// DefaultUserAgent identifies the auditor to the sites it fetches.
const DefaultUserAgent = "Mozilla/5.0 (compatible; pageaudit/1.0; +https://github.com/nao1215/pageaudit)"

var (
	// ErrUnexpectedStatus is returned when a page responds with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrUnsupportedScheme is returned for targets that are neither http(s) nor files.
	ErrUnsupportedScheme = errors.New("unsupported scheme")
)

// Fetcher captures snapshots.
type Fetcher struct {
	client      *http.Client
	closer      io.Closer
	userAgent   string
	maxBodySize int64
	maxAssets   int
	headers     map[string]string
	cookie      string
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize limits how many bytes are read from a page or asset.
// Default is 10MB.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithMaxAssets limits how many images are downloaded per page. Zero
// disables asset capture.
func WithMaxAssets(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxAssets = n
		}
	}
}

// WithHeaders adds request headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithCookie sets the Cookie header of every request.
func WithCookie(cookie string) Option {
	return func(f *Fetcher) {
		f.cookie = cookie
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a Fetcher using a direct HTTP client with the given timeout.
func NewFetcher(timeout time.Duration, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: timeout},
		userAgent:   DefaultUserAgent,
		maxBodySize: 10 * 1024 * 1024,
		maxAssets:   20,
		headers:     make(map[string]string),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Client returns the HTTP client used for requests.
func (f *Fetcher) Client() *http.Client {
	return f.client
}

// Close releases the proxy client, if any.
func (f *Fetcher) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// Fetch captures target, which is an http(s) URL, a file:// URL or a path
// to a local HTML file. A target without a scheme that is not an existing
// file is fetched over https.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*model.Snapshot, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("%w: empty target", model.ErrInvalidInput)
	}

	if path, ok := localPath(target); ok {
		return f.fetchFile(ctx, path)
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	}
	switch u.Scheme {
	case "":
		u, err = url.Parse("https://" + target)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
		}
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}

	body, finalURL, err := f.get(ctx, u.String())
	if err != nil {
		return nil, err
	}

	snapshot, err := capture(finalURL, string(body))
	if err != nil {
		return nil, err
	}
	f.collectAssets(ctx, snapshot, func(ctx context.Context, src string) ([]byte, error) {
		resolved, err := dom.Resolve(snapshot.URL, src)
		if err != nil {
			return nil, err
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, resolved.Scheme)
		}
		data, _, err := f.get(ctx, resolved.String())
		return data, err
	})
	return snapshot, nil
}

func (f *Fetcher) fetchFile(ctx context.Context, path string) (*model.Snapshot, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	body, err := readLimited(abs, f.maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}

	snapshot, err := capture((&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), string(body))
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(abs)
	f.collectAssets(ctx, snapshot, func(_ context.Context, src string) ([]byte, error) {
		if strings.Contains(src, "://") || filepath.IsAbs(src) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, src)
		}
		return readLimited(filepath.Join(dir, filepath.FromSlash(src)), f.maxBodySize)
	})
	return snapshot, nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	f.decorate(req)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read body of %s: %w", target, err)
	}
	return body, resp.Request.URL.String(), nil
}

func (f *Fetcher) decorate(req *http.Request) {
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}
}

// collectAssets downloads referenced images until maxAssets is reached.
// Images that cannot be loaded are skipped; the check treats them as
// having no metadata.
func (f *Fetcher) collectAssets(ctx context.Context, snapshot *model.Snapshot, load func(context.Context, string) ([]byte, error)) {
	if f.maxAssets == 0 {
		return
	}
	doc, err := dom.ParseString(snapshot.Markup)
	if err != nil {
		return
	}

	for _, img := range doc.All("img[src]") {
		if len(snapshot.Assets) >= f.maxAssets {
			return
		}
		src := strings.TrimSpace(dom.Attr(img, "src"))
		if src == "" || strings.HasPrefix(src, "data:") {
			continue
		}
		if _, seen := snapshot.Assets[src]; seen {
			continue
		}
		data, err := load(ctx, src)
		if err != nil {
			f.logger.Debug("skipping asset", "src", src, "error", err)
			continue
		}
		if snapshot.Assets == nil {
			snapshot.Assets = make(map[string][]byte)
		}
		snapshot.Assets[src] = data
	}
}

// capture parses markup into a snapshot. Each element with an inline style
// gets an element record keyed by its positional selector.
func capture(pageURL, markup string) (*model.Snapshot, error) {
	doc, err := dom.ParseString(markup)
	if err != nil {
		return nil, err
	}

	snapshot := &model.Snapshot{
		URL:        pageURL,
		Markup:     markup,
		Elements:   make(map[string]model.ElementRecord),
		CapturedAt: time.Now().UTC(),
	}

	dom.Walk(doc.Body(), func(n *html.Node) {
		style := dom.Attr(n, "style")
		if strings.TrimSpace(style) == "" {
			return
		}
		selector := dom.SelectorOf(n)
		if selector == "" {
			return
		}
		snapshot.Elements[selector] = model.ElementRecord{
			Selector: selector,
			Tag:      n.Data,
			Styles:   checks.ParseDeclarations(style),
		}
	})

	return snapshot, nil
}

// localPath reports whether target names a local file.
func localPath(target string) (string, bool) {
	if strings.HasPrefix(target, "file://") {
		u, err := url.Parse(target)
		if err != nil {
			return "", false
		}
		return filepath.FromSlash(u.Path), true
	}
	if strings.Contains(target, "://") {
		return "", false
	}
	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		return "", false
	}
	return target, true
}

func readLimited(path string, limit int64) ([]byte, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, limit))
}
