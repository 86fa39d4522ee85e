package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/Skywind5487/tnfsh-timetable-core/pkg/config"
	appErrors "github.com/Skywind5487/tnfsh-timetable-core/pkg/errors"
)

// Observer receives upstream request telemetry.
type Observer interface {
	ObserveUpstreamFetch(duration time.Duration, success bool)
}

// Client wraps HTTP access to the course site. The site has served several
// encodings over the years (utf-8, utf-8-sig, utf-16, utf-16-le), so every
// response body goes through charset detection before parsing.
type Client struct {
	http     *http.Client
	baseURL  string
	ua       string
	logger   *zap.Logger
	observer Observer
}

// New constructs an upstream client.
func New(cfg config.UpstreamConfig, logger *zap.Logger, observer Observer) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  cfg.BaseURL,
		ua:       cfg.UserAgent,
		logger:   logger,
		observer: observer,
	}
}

// ResolveURL joins a page-relative path onto the configured base URL.
func (c *Client) ResolveURL(rel string) string {
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") {
		return rel
	}
	return strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(rel, "/")
}

// Backoff builds the exponential retry policy shared by the crawlers:
// attempts total tries, waits growing from initial to max.
func Backoff(initial, max time.Duration, attempts uint64) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = max
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	if attempts == 0 {
		return b
	}
	return backoff.WithMaxRetries(b, attempts-1)
}

// Document fetches url and parses the response into a goquery document.
// Transport errors and timeouts are retried under the supplied policy;
// non-200 responses and malformed bodies surface immediately.
func (c *Client) Document(ctx context.Context, url string, policy backoff.BackOff) (*goquery.Document, error) {
	var doc *goquery.Document

	op := func() error {
		start := time.Now()
		err := c.fetchOnce(ctx, url, &doc)
		if c.observer != nil {
			c.observer.ObserveUpstreamFetch(time.Since(start), err == nil)
		}
		return err
	}

	if policy == nil {
		policy = Backoff(time.Second, 10*time.Second, 3)
	}
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		var appErr *appErrors.Error
		if ok := asAppError(err, &appErr); ok {
			return nil, appErr
		}
		return nil, appErrors.ErrFetch.Withf("upstream fetch failed for %s", url).Because(err)
	}
	return doc, nil
}

func (c *Client) fetchOnce(ctx context.Context, url string, out **goquery.Document) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", c.ua)

	res, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		c.logger.Warn("upstream request failed, will retry", zap.String("url", url), zap.Error(err))
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		c.logger.Error("upstream returned error status", zap.String("url", url), zap.Int("status", res.StatusCode))
		return backoff.Permanent(appErrors.ErrUpstream.Because(
			fmt.Errorf("unexpected status %d %s", res.StatusCode, res.Status)))
	}

	reader, err := charset.NewReader(res.Body, res.Header.Get("Content-Type"))
	if err != nil {
		reader = res.Body
	}

	d, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return backoff.Permanent(appErrors.ErrFetch.With("malformed upstream page").Because(err))
	}
	*out = d
	return nil
}

func asAppError(err error, target **appErrors.Error) bool {
	e := appErrors.Convert(err)
	if e != nil && e.Code != appErrors.ErrInternal.Code {
		*target = e
		return true
	}
	return false
}
