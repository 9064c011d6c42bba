package share

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"shareplay/internal/logging"
	"shareplay/internal/metrics"
)

const (
	// DefaultTimeout bounds a single listing fetch attempt.
	DefaultTimeout = 15 * time.Second
	// DefaultImageTimeout bounds artist image downloads. A slow image host
	// must not stall folder resolution.
	DefaultImageTimeout = 5 * time.Second
	// DefaultMaxRetries is how many times a retryable request is reissued.
	DefaultMaxRetries = 2
	// DefaultListingTTL is how long a fetched listing page is reused.
	DefaultListingTTL = 60 * time.Second

	baseBackoff = 500 * time.Millisecond
	maxBackoff  = 5 * time.Second

	maxListingBytes = 8 << 20
	maxImageBytes   = 20 << 20
)

// The share service returns different markup to clients it does not
// recognize as browsers, so requests carry a browser-realistic identity.
const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	acceptHTML     = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	acceptImage    = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.9"
)

// Config holds share client settings.
type Config struct {
	BaseURL      string        // share service origin, e.g. https://share.example.com
	Timeout      time.Duration // per-attempt listing fetch timeout
	ImageTimeout time.Duration // per-attempt image fetch timeout
	MaxRetries   int           // additional attempts after the first
	ListingTTL   time.Duration // listing cache lifetime, 0 disables caching
}

// DefaultConfig returns the default share client configuration for a
// service origin.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		Timeout:      DefaultTimeout,
		ImageTimeout: DefaultImageTimeout,
		MaxRetries:   DefaultMaxRetries,
		ListingTTL:   DefaultListingTTL,
	}
}

// Client fetches folder listings, images, and file bytes from the remote
// share service. It retries throttling and server-side failures with
// exponential backoff and keeps a short-lived listing cache so repeated
// resolutions of the same folder do not hammer the service.
type Client struct {
	config   Config
	client   *http.Client
	listings *cache.Cache
}

// NewClient creates a share client. The underlying HTTP client carries no
// global timeout; each operation bounds its own attempts so long-lived
// byte streams stay open as long as the caller's context allows.
func NewClient(config Config) *Client {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.ImageTimeout <= 0 {
		config.ImageTimeout = DefaultImageTimeout
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}

	c := &Client{
		config: config,
		client: &http.Client{},
	}
	if config.ListingTTL > 0 {
		c.listings = cache.New(config.ListingTTL, 2*config.ListingTTL)
	}
	return c
}

// FolderURL returns the public listing page URL for a folder id.
func (c *Client) FolderURL(folderID string) string {
	return c.config.BaseURL + "/folders/" + folderID
}

// FileURL returns the direct byte URL for a file id.
func (c *Client) FileURL(fileID string) string {
	return c.config.BaseURL + "/files/" + fileID
}

// FetchListing fetches a folder's listing page and returns its HTML.
// Listings are served from the TTL cache when fresh. Non-2xx responses and
// exhausted retries surface as a *Error with status detail.
func (c *Client) FetchListing(ctx context.Context, folderID string) (string, error) {
	if c.listings != nil {
		if cached, found := c.listings.Get(folderID); found {
			metrics.ListingCacheHits.Inc()
			logging.Debug("Listing cache hit for folder %s", folderID)
			return cached.(string), nil
		}
		metrics.ListingCacheMisses.Inc()
	}

	body, _, err := c.doGet(ctx, "listing", c.FolderURL(folderID), acceptHTML, c.config.Timeout, maxListingBytes)
	if err != nil {
		return "", err
	}

	page := string(body)
	if c.listings != nil {
		c.listings.Set(folderID, page, cache.DefaultExpiration)
	}
	return page, nil
}

// FetchImage downloads an image and returns its bytes and content type.
// Image fetches use the short image timeout; callers treat failures as
// best-effort and fall back to the remote URL.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	body, header, err := c.doGet(ctx, "image", imageURL, acceptImage, c.config.ImageTimeout, maxImageBytes)
	if err != nil {
		return nil, "", err
	}
	return body, header.Get("Content-Type"), nil
}

// Stream opens a byte stream for a file. rangeHeader is forwarded verbatim
// when non-empty so the service can answer with partial content. The caller
// owns the response body. No retries: a broken stream is the caller's
// problem to re-request at the right offset.
func (c *Client) Stream(ctx context.Context, fileID, rangeHeader string) (*http.Response, error) {
	rawURL := c.FileURL(fileID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		metrics.ShareRequestsTotal.WithLabelValues("stream", "error").Inc()
		return nil, &Error{Operation: "stream", URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", acceptLanguage)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.ShareRequestsTotal.WithLabelValues("stream", "error").Inc()
		return nil, &Error{Operation: "stream", URL: rawURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drainAndClose(resp.Body)
		metrics.ShareRequestsTotal.WithLabelValues("stream", "error").Inc()
		return nil, &Error{Operation: "stream", URL: rawURL, StatusCode: resp.StatusCode}
	}

	metrics.ShareRequestsTotal.WithLabelValues("stream", "success").Inc()
	return resp, nil
}

// CachedListings returns how many listing pages are currently cached.
func (c *Client) CachedListings() int {
	if c.listings == nil {
		return 0
	}
	return c.listings.ItemCount()
}

// FlushListings drops all cached listing pages, forcing the next fetch of
// each folder to hit the service.
func (c *Client) FlushListings() {
	if c.listings != nil {
		c.listings.Flush()
	}
}

// doGet performs a GET with retries. Transport errors and retryable
// statuses back off exponentially; permanent failures return immediately.
func (c *Client) doGet(ctx context.Context, operation, rawURL, accept string, timeout time.Duration, maxBytes int64) ([]byte, http.Header, error) {
	start := time.Now()
	defer func() {
		metrics.ShareRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	var lastErr *Error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt - 1)
			logging.Debug("Retrying share %s request in %v (attempt %d/%d): %v",
				operation, delay, attempt, c.config.MaxRetries, lastErr)
			metrics.ShareRequestRetries.WithLabelValues(operation).Inc()
			select {
			case <-ctx.Done():
				metrics.ShareRequestsTotal.WithLabelValues(operation, "error").Inc()
				return nil, nil, &Error{Operation: operation, URL: rawURL, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		body, header, reqErr := c.attempt(ctx, operation, rawURL, accept, timeout, maxBytes)
		if reqErr == nil {
			metrics.ShareRequestsTotal.WithLabelValues(operation, "success").Inc()
			return body, header, nil
		}
		lastErr = reqErr
		if !reqErr.IsRetryable() {
			break
		}
	}

	metrics.ShareRequestsTotal.WithLabelValues(operation, "error").Inc()
	logging.Warn("Share %s request gave up: %v", operation, lastErr)
	return nil, nil, lastErr
}

// attempt issues one GET bounded by timeout and reads at most maxBytes of
// the response.
func (c *Client) attempt(ctx context.Context, operation, rawURL, accept string, timeout time.Duration, maxBytes int64) ([]byte, http.Header, *Error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, &Error{Operation: operation, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, &Error{Operation: operation, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return nil, nil, &Error{Operation: operation, URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, nil, &Error{Operation: operation, URL: rawURL, Err: err}
	}
	return body, resp.Header, nil
}

// backoffDelay doubles from the base per prior attempt, capped at maxBackoff.
func backoffDelay(attempt int) time.Duration {
	delay := baseBackoff << uint(attempt)
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}

func drainAndClose(body io.ReadCloser) {
	io.Copy(io.Discard, io.LimitReader(body, 4096)) //nolint:errcheck
	body.Close()
}
