package fetch

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Checker probes recommendation URLs for reachability. It is safe for concurrent use.
type Checker struct {
	client    *http.Client
	userAgent string
	deep      bool
	logger    *zap.Logger
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithDeepCheck makes the checker also read the page and reject products marked out of stock.
func WithDeepCheck(deep bool) CheckerOption {
	return func(c *Checker) { c.deep = deep }
}

// WithCheckerLogger sets the logger.
func WithCheckerLogger(logger *zap.Logger) CheckerOption {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChecker creates a Checker whose requests time out after timeout.
// Redirects are not followed: a 3xx response already counts as reachable.
func NewChecker(timeout time.Duration, opts ...CheckerOption) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Checker{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: DefaultUserAgent,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check sends a HEAD request, falling back to GET when the server rejects HEAD.
// Any 2xx or 3xx status is available; errors and timeouts are not.
func (c *Checker) Check(ctx context.Context, rawURL string) bool {
	if rawURL == "" {
		return false
	}

	status, err := c.probe(ctx, http.MethodHead, rawURL)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = c.probe(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		c.logger.Warn("availability probe failed", zap.String("url", rawURL), zap.Error(err))
		return false
	}
	if status < 200 || status >= 400 {
		c.logger.Warn("url unavailable", zap.String("url", rawURL), zap.Int("status", status))
		return false
	}

	if c.deep && status < 300 {
		return c.inStock(ctx, rawURL)
	}
	return true
}

func (c *Checker) probe(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, &Error{URL: rawURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, &Error{URL: rawURL, Message: "HTTP request failed", Cause: err}
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// inStock reads the page and looks for availability markers. A page that cannot be read
// or parsed keeps the reachability verdict.
func (c *Checker) inStock(ctx context.Context, rawURL string) bool {
	result, err := URL(ctx, rawURL, &Options{Client: c.client, UserAgent: c.userAgent})
	if err != nil {
		c.logger.Debug("deep availability check skipped", zap.String("url", rawURL), zap.Error(err))
		return true
	}
	available, marker, err := PageAvailability(result.HTML)
	if err != nil {
		return true
	}
	if !available {
		c.logger.Warn("product marked unavailable", zap.String("url", rawURL), zap.String("marker", marker))
	}
	return available
}
