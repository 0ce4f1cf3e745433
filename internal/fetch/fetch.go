package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/goreadable/internal/cache"
)

// ErrUnsupportedContentType is returned for responses that are not HTML.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// ErrBodyTooLarge is returned when a response exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// ErrDisallowed is returned when robots.txt forbids fetching the page.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// RobotsChecker decides whether a URL may be fetched.
type RobotsChecker interface {
	Allowed(ctx context.Context, u *url.URL) (bool, error)
}

// Page is a fetched HTML document.
type Page struct {
	Body        []byte
	ContentType string
	// FinalURL is the URL after redirects. It is the base for relative links.
	FinalURL *url.URL
	// FromCache is true when the body was served from the page cache.
	FromCache bool
}

// Client wraps http.Client and provides timeouts and limited retry on transient errors.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Optional on-disk cache for page bodies and headers.
	Cache *cache.PageCache
	// If true, bypass cache entirely and fetch fresh (no conditional headers),
	// but still save the latest response to cache.
	BypassCache bool
	// MaxBodyBytes caps the response size. Zero means unlimited.
	MaxBodyBytes int64

	// RedirectMaxHops caps redirect following to avoid loops. Zero means default (5).
	RedirectMaxHops int

	// Robots, when set, is consulted before every page request.
	Robots RobotsChecker

	Logger *zerolog.Logger
}

type statusError struct{ code int }

func (e *statusError) Error() string {
	if e.code >= 500 {
		return fmt.Sprintf("server error: %d", e.code)
	}
	return fmt.Sprintf("unexpected status: %d", e.code)
}

type response struct {
	body        []byte
	contentType string
	etag        string
	lastMod     string
	status      int
	finalURL    *url.URL
}

func (c *Client) log() zerolog.Logger {
	if c.Logger != nil {
		return *c.Logger
	}
	return zerolog.Nop()
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get issues a GET with context, user-agent, and bounded retry for transient errors.
func (c *Client) Get(ctx context.Context, rawURL string) (Page, error) {
	log := c.log()
	if c.Robots != nil {
		u, err := url.Parse(rawURL)
		if err != nil {
			return Page{}, fmt.Errorf("parse url: %w", err)
		}
		ok, err := c.Robots.Allowed(ctx, u)
		if err != nil {
			return Page{}, fmt.Errorf("robots.txt: %w", err)
		}
		if !ok {
			return Page{}, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
	}
	// If cache exists, attempt conditional request
	var etag, lastMod string
	var cached *cache.PageEntry
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			cached = meta
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		resp, err := c.tryOnce(ctx, rawURL, etag, lastMod)
		if err == nil {
			if resp.status == http.StatusNotModified && c.Cache != nil && cached != nil {
				if body, err := c.Cache.LoadBody(ctx, rawURL); err == nil {
					log.Debug().Str("url", rawURL).Msg("not modified; using cached page")
					return Page{Body: body, ContentType: cached.ContentType, FinalURL: parseOr(cached.FinalURL, resp.finalURL), FromCache: true}, nil
				}
			}
			if c.Cache != nil && resp.status == http.StatusOK {
				entry := cache.PageEntry{URL: rawURL, FinalURL: resp.finalURL.String(), ContentType: resp.contentType, ETag: resp.etag, LastModified: resp.lastMod}
				if err := c.Cache.Save(ctx, entry, resp.body); err != nil {
					log.Warn().Err(err).Str("url", rawURL).Msg("cache save failed")
				}
			}
			return Page{Body: resp.body, ContentType: resp.contentType, FinalURL: resp.finalURL}, nil
		}
		if !isTransient(err) || i == attempts-1 {
			return Page{}, err
		}
		lastErr = err
		log.Debug().Err(err).Int("attempt", i+1).Str("url", rawURL).Msg("retrying")
		select {
		case <-ctx.Done():
			return Page{}, ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return Page{}, lastErr
}

func (c *Client) tryOnce(ctx context.Context, rawURL string, etag string, lastMod string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("new request: %w", err)
	}
	// Reject non-HTTP(S) schemes early
	if !isHTTPScheme(req.URL) {
		return response{}, fmt.Errorf("unsupported URL scheme: %q", req.URL.String())
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	httpClient := c.getHTTPClient()
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	out := response{
		contentType: resp.Header.Get("Content-Type"),
		etag:        resp.Header.Get("ETag"),
		lastMod:     resp.Header.Get("Last-Modified"),
		status:      resp.StatusCode,
		finalURL:    resp.Request.URL,
	}
	if resp.StatusCode == http.StatusNotModified {
		// 304: no body expected
		return out, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return response{status: resp.StatusCode}, &statusError{code: resp.StatusCode}
	}
	if !isAllowedHTMLContentType(out.contentType) {
		return response{status: resp.StatusCode}, fmt.Errorf("%w: %s", ErrUnsupportedContentType, out.contentType)
	}
	var r io.Reader = resp.Body
	if c.MaxBodyBytes > 0 {
		r = io.LimitReader(resp.Body, c.MaxBodyBytes+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return response{status: resp.StatusCode}, fmt.Errorf("read body: %w", err)
	}
	if c.MaxBodyBytes > 0 && int64(len(b)) > c.MaxBodyBytes {
		return response{status: resp.StatusCode}, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, c.MaxBodyBytes)
	}
	out.body = b
	return out, nil
}

// isTransient treats HTTP 5xx and context deadline as transient.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *statusError
	return errors.As(err, &se) && se.code >= 500
}

func parseOr(raw string, fallback *url.URL) *url.URL {
	if u, err := url.Parse(raw); err == nil && raw != "" {
		return u
	}
	return fallback
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		// Only allow http/https during redirects
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	// allow text/html variants and application/xhtml+xml
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
