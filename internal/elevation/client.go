// Package elevation fetches terrain heights from an Open-Meteo compatible
// elevation API.
package elevation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/signalsfoundry/route-link-planner/internal/logging"
	"github.com/signalsfoundry/route-link-planner/model"
)

const (
	// DefaultBaseURL is the public Open-Meteo endpoint.
	DefaultBaseURL = "https://api.open-meteo.com"
	// DefaultChunkSize is the maximum number of coordinates per upstream
	// request accepted by Open-Meteo.
	DefaultChunkSize = 100

	defaultMaxRetries = 3
	defaultTimeout    = 10 * time.Second
	elevationPath     = "/v1/elevation"
	maxErrorBody      = 512
)

// Result labels passed to a Recorder.
const (
	ResultOK    = "ok"
	ResultRetry = "retry"
	ResultError = "error"
)

// Recorder observes upstream request outcomes.
type Recorder interface {
	ObserveElevationRequest(result string, d time.Duration)
}

// StatusError reports a non-200 upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("elevation api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("elevation api returned %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed when repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ErrLengthMismatch is returned when the upstream answers with a different
// number of elevations than coordinates requested.
var ErrLengthMismatch = errors.New("elevation api returned wrong number of values")

// Client implements core.ElevationSource over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	chunkSize  int
	maxRetries int
	newBackOff func() backoff.BackOff
	recorder   Recorder
	log        logging.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithChunkSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithMaxRetries sets how many times a failed chunk is retried. Zero
// disables retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackOff overrides the retry schedule.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *Client) {
		if fn != nil {
			c.newBackOff = fn
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient builds a client for baseURL, which defaults to DefaultBaseURL
// when empty.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("elevation: invalid base url %q", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		chunkSize:  DefaultChunkSize,
		maxRetries: defaultMaxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
		log: logging.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Elevations returns one height in metres per coordinate, in input order.
// A null upstream value is returned as NaN.
func (c *Client) Elevations(ctx context.Context, pts []model.Coordinate) ([]float64, error) {
	out := make([]float64, 0, len(pts))
	for lo := 0; lo < len(pts); lo += c.chunkSize {
		hi := min(lo+c.chunkSize, len(pts))
		chunk, err := c.fetchChunk(ctx, pts[lo:hi])
		if err != nil {
			return nil, fmt.Errorf("elevation chunk %d-%d: %w", lo, hi-1, err)
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func (c *Client) fetchChunk(ctx context.Context, pts []model.Coordinate) ([]float64, error) {
	attempt := 0
	op := func() ([]float64, error) {
		attempt++
		start := time.Now()
		vals, err := c.fetchOnce(ctx, pts)
		switch {
		case err == nil:
			c.observe(ResultOK, start)
			return vals, nil
		case isRetryable(err) && attempt <= c.maxRetries:
			c.observe(ResultRetry, start)
			c.log.Warn(ctx, "elevation request failed; retrying",
				logging.Int("attempt", attempt),
				logging.Int("points", len(pts)),
				logging.Err(err),
			)
			return nil, err
		default:
			c.observe(ResultError, start)
			return nil, backoff.Permanent(err)
		}
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
	)
}

type elevationResponse struct {
	Elevation []*float64 `json:"elevation"`
}

func (c *Client) fetchOnce(ctx context.Context, pts []model.Coordinate) ([]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(pts), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded elevationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode elevation response: %w", err)
	}
	if len(decoded.Elevation) != len(pts) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(decoded.Elevation), len(pts))
	}
	out := make([]float64, len(pts))
	for i, v := range decoded.Elevation {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out, nil
}

func (c *Client) requestURL(pts []model.Coordinate) string {
	lats := make([]string, len(pts))
	lngs := make([]string, len(pts))
	for i, p := range pts {
		lats[i] = strconv.FormatFloat(p.Lat, 'f', 6, 64)
		lngs[i] = strconv.FormatFloat(p.Lng, 'f', 6, 64)
	}
	q := url.Values{}
	q.Set("latitude", strings.Join(lats, ","))
	q.Set("longitude", strings.Join(lngs, ","))
	return c.baseURL + elevationPath + "?" + q.Encode()
}

func (c *Client) observe(result string, start time.Time) {
	if c.recorder != nil {
		c.recorder.ObserveElevationRequest(result, time.Since(start))
	}
}

// isRetryable treats transport failures, 429 and 5xx as transient. Context
// cancellation and malformed responses are not retried.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	var ue *url.Error
	return errors.As(err, &ue)
}
