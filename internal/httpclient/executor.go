package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/padelhub/storefront/internal/rate"
)

var (
	// ErrTransport marks failures where no HTTP response was received.
	ErrTransport = errors.New("transport failure")
	// ErrDecode marks 2xx responses whose body is not the expected JSON.
	ErrDecode = errors.New("decode failed")
)

// StatusError is returned for non-2xx responses when no error handler is set.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// Backoff returns the retry sleep duration for the given attempt number.
func Backoff(attempt int) time.Duration {
	switch attempt {
	case 0:
		return 100 * time.Millisecond
	case 1:
		return 250 * time.Millisecond
	default:
		return 500 * time.Millisecond
	}
}

// Request describes one outbound call. It is rebuilt for every attempt so the
// body is always re-sent in full.
type Request struct {
	Method   string
	URL      string
	Header   http.Header
	Body     []byte
	Endpoint string
}

// Observer receives the outcome of every attempt. status is 0 when no
// response was received.
type Observer func(endpoint string, status int, elapsed time.Duration)

// Executor handles rate-limited HTTP execution with JSON decoding.
type Executor struct {
	logger       *zap.Logger
	rateMgr      *rate.Manager
	http         *http.Client
	retryMax     int
	tag          string
	errorHandler func(status int, body []byte) error
	observe      Observer
}

// New creates an Executor. errorHandler is called on non-2xx responses to
// produce a caller-specific error; if nil a *StatusError is returned. 5xx
// responses and transport failures are retried up to retryMax times.
func New(
	logger *zap.Logger,
	rateMgr *rate.Manager,
	httpClient *http.Client,
	retryMax int,
	tag string,
	errorHandler func(status int, body []byte) error,
) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if retryMax < 0 {
		retryMax = 0
	}
	return &Executor{
		logger:       logger,
		rateMgr:      rateMgr,
		http:         httpClient,
		retryMax:     retryMax,
		tag:          tag,
		errorHandler: errorHandler,
	}
}

// WithObserver registers o and returns e.
func (e *Executor) WithObserver(o Observer) *Executor {
	e.observe = o
	return e
}

// DoJSON executes req with rate limiting and retries, then JSON-decodes the
// response into out. rateLimitKey scopes the rate limiter.
func (e *Executor) DoJSON(ctx context.Context, req Request, rateLimitKey string, out any) error {
	if e.rateMgr != nil {
		if err := e.rateMgr.Wait(ctx, rateLimitKey); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= e.retryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(Backoff(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		httpReq, err := e.build(ctx, req)
		if err != nil {
			return err
		}

		start := time.Now()
		resp, err := e.http.Do(httpReq)
		if err != nil {
			e.record(req, 0, time.Since(start))
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			lastErr = fmt.Errorf("%w: %v", ErrTransport, err)
			e.logger.Warn(e.tag+".http_failed",
				zap.String("endpoint", req.Endpoint),
				zap.String("url", req.URL),
				zap.Error(err),
				zap.Int("attempt", attempt))
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		elapsed := time.Since(start)
		e.record(req, resp.StatusCode, elapsed)

		if readErr != nil {
			lastErr = fmt.Errorf("%w: read body: %v", ErrTransport, readErr)
			continue
		}

		if resp.StatusCode >= 500 {
			e.logger.Warn(e.tag+".server_error",
				zap.Int("status", resp.StatusCode),
				zap.String("endpoint", req.Endpoint),
				zap.Duration("latency", elapsed),
				zap.Int("attempt", attempt))
			lastErr = e.statusError(resp.StatusCode, body)
			continue
		}

		if resp.StatusCode >= 400 {
			e.logger.Info(e.tag+".client_error",
				zap.Int("status", resp.StatusCode),
				zap.String("endpoint", req.Endpoint))
			return e.statusError(resp.StatusCode, body)
		}

		if out != nil && len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, out); err != nil {
				e.logger.Warn(e.tag+".decode_failed",
					zap.Error(err),
					zap.String("endpoint", req.Endpoint),
					zap.Int("body_bytes", len(body)))
				return fmt.Errorf("%w: %v", ErrDecode, err)
			}
		}

		e.logger.Debug(e.tag+".http_success",
			zap.String("endpoint", req.Endpoint),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", elapsed))

		return nil
	}

	return fmt.Errorf("%s request failed after %d attempts: %w", e.tag, e.retryMax+1, lastErr)
}

func (e *Executor) build(ctx context.Context, req Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

func (e *Executor) statusError(status int, body []byte) error {
	if e.errorHandler != nil {
		return e.errorHandler(status, body)
	}
	return &StatusError{Status: status, Body: body}
}

func (e *Executor) record(req Request, status int, elapsed time.Duration) {
	if e.observe != nil {
		e.observe(req.Endpoint, status, elapsed)
	}
}
