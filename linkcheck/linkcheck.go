// Package linkcheck probes external links. All probes are started at once
// and the caller waits for every one of them to finish or time out.
package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"lea/config"
	"lea/misc"
)

// Result of a single probe. Err is set when no response was received, Status
// is meaningful otherwise.
type Result struct {
	URL    string
	Status int
	Err    error
}

var errTooManyRedirects = errors.New("too many redirects")

// Checker issues probes with configured limits.
type Checker struct {
	client    *http.Client
	userAgent string
	log       *zap.Logger
}

func New(cfg *config.LinkCheckConfig, log *zap.Logger) *Checker {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = cfg.ConnectTimeout

	maxRedirects := cfg.MaxRedirects
	ua := cfg.UserAgent
	if ua == "" {
		ua = misc.GetDisplayName()
	}
	return &Checker{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("stopped after %d redirects: %w", maxRedirects, errTooManyRedirects)
				}
				return nil
			},
		},
		userAgent: ua,
		log:       log.Named("linkcheck"),
	}
}

// Probe checks all urls concurrently. Results are returned in the order of
// urls, each probe is tried exactly once.
func (c *Checker) Probe(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))
	start := time.Now()

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Go(func() {
			results[i] = c.probe(ctx, u)
		})
	}
	wg.Wait()

	c.log.Debug("Links checked", zap.Int("count", len(urls)), zap.Duration("elapsed", time.Since(start)))
	return results
}

func (c *Checker) probe(ctx context.Context, u string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Result{URL: u, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	// only interested in status, do not pull the whole resource
	req.Header.Set("Range", "bytes=0-0")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("Link probe failed", zap.String("url", u), zap.Error(err))
		return Result{URL: u, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	c.log.Debug("Link probed", zap.String("url", u), zap.Int("status", resp.StatusCode))
	return Result{URL: u, Status: resp.StatusCode}
}
