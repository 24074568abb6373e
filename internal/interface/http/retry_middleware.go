package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/codify/internal/infra/config"
)

const (
	maxReplayBody  = 1 << 20
	maxReplayDelay = 2 * time.Second
)

var errReplayBodyTooLarge = errors.New("request body too large to replay")

// replayer re-runs POSTs whose upstream dependency failed transiently. The
// weather provider and the LLM recover within seconds, so a short capped
// backoff is enough.
type replayer struct {
	next     http.Handler
	attempts int
	base     time.Duration
	skip     map[string]struct{}
	logger   *slog.Logger
}

// withRetry wraps handler with replays of 502/503/504 responses. Paths in
// cfg.Exclude are never replayed.
func withRetry(handler http.Handler, cfg config.RetryConfig, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return handler
	}
	skip := make(map[string]struct{}, len(cfg.Exclude))
	for _, path := range cfg.Exclude {
		skip[path] = struct{}{}
	}
	return &replayer{next: handler, attempts: cfg.MaxAttempts, base: cfg.BaseBackoff, skip: skip, logger: logger}
}

func (p *replayer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !p.replayable(r) {
		p.next.ServeHTTP(w, r)
		return
	}
	body, err := bufferBody(r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errReplayBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSONError(w, status, "invalid_request", err.Error())
		return
	}

	for attempt := 1; ; attempt++ {
		resp := newBufferedResponse()
		p.next.ServeHTTP(resp, withBody(r, body))
		if !resp.transient() || attempt == p.attempts {
			resp.flushTo(w)
			return
		}

		id := resp.header.Get(requestIDHeader)
		p.logger.Warn("upstream unavailable, replaying request", "request_id", id, "path", r.URL.Path, "status", resp.status, "attempt", attempt)
		if id != "" {
			r.Header.Set(requestIDHeader, id)
		}
		if !waitOrDone(r, p.delay(attempt)) {
			writeJSONError(w, http.StatusServiceUnavailable, "request_cancelled", "request cancelled while retrying")
			return
		}
	}
}

func (p *replayer) replayable(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	_, skipped := p.skip[r.URL.Path]
	return !skipped
}

// delay doubles the base backoff after every failed attempt, capped.
func (p *replayer) delay(attempt int) time.Duration {
	d := p.base << (attempt - 1)
	if d <= 0 || d > maxReplayDelay {
		return maxReplayDelay
	}
	return d
}

func bufferBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxReplayBody+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxReplayBody {
		return nil, errReplayBodyTooLarge
	}
	return data, nil
}

func withBody(r *http.Request, body []byte) *http.Request {
	clone := r.Clone(r.Context())
	clone.Body = io.NopCloser(bytes.NewReader(body))
	clone.ContentLength = int64(len(body))
	return clone
}

func waitOrDone(r *http.Request, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-r.Context().Done():
		return false
	case <-timer.C:
		return true
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]map[string]string{
		"error": {"code": code, "message": message},
	})
}

// bufferedResponse holds one attempt's response until it is known to be final.
type bufferedResponse struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header)}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

// Flush is a no-op; the body is released by flushTo.
func (b *bufferedResponse) Flush() {}

func (b *bufferedResponse) transient() bool {
	switch b.status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (b *bufferedResponse) flushTo(w http.ResponseWriter) {
	dst := w.Header()
	for k, v := range b.header {
		dst[k] = append([]string(nil), v...)
	}
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = b.body.WriteTo(w)
}
