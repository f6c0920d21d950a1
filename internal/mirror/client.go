// Package mirror keeps a best-effort copy of dataset files in a remote
// document store reached over HTTP.
//
// The remote exposes a flat collection:
//
//	GET    {base}/files        list all files (JSON array)
//	PUT    {base}/files/{id}   upsert one file
//	DELETE {base}/files/{id}   remove one file
//
// Requests are paced and retried on transient failures. A circuit breaker
// sits outside the retry loop; while it is open calls fail immediately.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pump-selector/internal/fetcher"
	"github.com/sells-group/pump-selector/internal/metrics"
	"github.com/sells-group/pump-selector/internal/model"
	"github.com/sells-group/pump-selector/internal/resilience"
)

// ErrDisabled is returned when no mirror base URL is configured.
var ErrDisabled = eris.New("mirror: not configured")

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	RatePerSec float64
	Timeout    time.Duration
	Retry      resilience.RetryConfig
	Circuit    resilience.CircuitBreakerConfig
	Recorder   metrics.Recorder
	HTTPClient *http.Client
}

// Client talks to the remote mirror.
type Client struct {
	base    *url.URL
	token   string
	http    *http.Client
	limiter *pacer
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
	rec     metrics.Recorder
}

// New creates a Client. An empty BaseURL returns ErrDisabled.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, ErrDisabled
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, eris.Wrap(err, "mirror: parse base url")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, eris.Errorf("mirror: unsupported scheme %q", base.Scheme)
	}

	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.Nop{}
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	retry := opts.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("mirror", base.Host)
	}
	circuit := opts.Circuit
	if circuit.ShouldTrip == nil {
		circuit.ShouldTrip = resilience.IsTransient
	}
	if circuit.OnStateChange == nil {
		circuit.OnStateChange = func(from, to resilience.CircuitState) {
			zap.L().Warn("mirror: circuit state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}
	}

	burst := max(1, int(opts.RatePerSec))
	return &Client{
		base:    base,
		token:   opts.Token,
		http:    hc,
		limiter: newPacer(opts.RatePerSec, burst),
		retry:   retry,
		breaker: resilience.NewCircuitBreaker(circuit),
		rec:     opts.Recorder,
	}, nil
}

// Push upserts f on the mirror.
func (c *Client) Push(ctx context.Context, f *model.DatasetFile) error {
	body, err := json.Marshal(f)
	if err != nil {
		return eris.Wrap(err, "mirror: encode file")
	}
	_, err = c.call(ctx, http.MethodPut, c.fileURL(f.ID), body)
	c.rec.ObserveMirror("push", err)
	return eris.Wrapf(err, "mirror: push %s", f.ID)
}

// Delete removes a file from the mirror. A file already absent is not an
// error.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodDelete, c.fileURL(id), nil)
	c.rec.ObserveMirror("delete", err)
	return eris.Wrapf(err, "mirror: delete %s", id)
}

// List returns every file held by the mirror.
func (c *Client) List(ctx context.Context) ([]model.DatasetFile, error) {
	body, err := c.call(ctx, http.MethodGet, c.base.JoinPath("files").String(), nil)
	if err == nil {
		var files []model.DatasetFile
		files, err = fetcher.CollectJSONArray[model.DatasetFile](ctx, bytes.NewReader(body))
		c.rec.ObserveMirror("list", err)
		return files, eris.Wrap(err, "mirror: list")
	}
	c.rec.ObserveMirror("list", err)
	return nil, eris.Wrap(err, "mirror: list")
}

// Breaker exposes the circuit state for diagnostics.
func (c *Client) Breaker() resilience.CircuitState {
	return c.breaker.State()
}

func (c *Client) fileURL(id string) string {
	return c.base.JoinPath("files", id).String()
}

// call sends one logical request through the breaker and retry policy and
// returns the response body.
func (c *Client) call(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	return resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) ([]byte, error) {
		return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
			return c.once(ctx, method, target, body)
		})
	})
}

func (c *Client) once(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "rate limiter wait")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, eris.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read response")
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.limiter.speedUp()
		return payload, nil
	case method == http.MethodDelete && resp.StatusCode == http.StatusNotFound:
		return payload, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		c.limiter.backOff()
	}

	statusErr := eris.Errorf("%s %s: status %d", method, req.URL.Path, resp.StatusCode)
	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		te := resilience.NewTransientError(statusErr, resp.StatusCode)
		te.RetryAfter = resilience.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		return nil, te
	}
	return nil, statusErr
}
