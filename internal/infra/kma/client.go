package kma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yanqian/codify/internal/domain/forecast"
)

const (
	resultOK     = "00"
	resultNoData = "03"
)

var errCircuitOpen = errors.New("kma circuit breaker open")

// BreakerConfig tunes the circuit breaker in front of each endpoint.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// Config is shared by the short- and mid-range clients.
type Config struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
	Breaker    BreakerConfig
}

// client performs a GET against one data.go.kr endpoint and unwraps the
// common response envelope.
type client struct {
	name       string
	baseURL    string
	serviceKey string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

func newClient(name, defaultURL string, cfg Config, logger *slog.Logger) (*client, error) {
	key := strings.TrimSpace(cfg.ServiceKey)
	if key == "" {
		return nil, fmt.Errorf("%s: service key missing", name)
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	threshold := cfg.Breaker.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	logger = logger.With("component", "kma."+name)
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: max(cfg.Breaker.MaxRequests, 1),
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("kma circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	if settings.Timeout <= 0 {
		settings.Timeout = time.Minute
	}
	return &client{
		name:       name,
		baseURL:    strings.TrimRight(base, "/"),
		serviceKey: key,
		httpClient: &http.Client{Timeout: timeout},
		circuit:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
	}, nil
}

// fetchItems returns the raw body.items.item payload. A "no data" answer is
// reported as forecast.ErrNoData and does not count against the breaker.
func (c *client) fetchItems(ctx context.Context, params url.Values) (json.RawMessage, error) {
	result, err := c.circuit.Execute(func() (interface{}, error) {
		return c.do(ctx, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %v", errCircuitOpen, c.name, err)
		}
		return nil, err
	}
	items, _ := result.(json.RawMessage)
	if len(items) == 0 {
		return nil, forecast.ErrNoData
	}
	return items, nil
}

func (c *client) do(ctx context.Context, params url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(params), nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", c.name, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%s request error: status=%d body=%s", c.name, resp.StatusCode, string(payload))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", c.name, err)
	}
	return decodeEnvelope(c.name, body)
}

// endpoint appends the service key verbatim when it is already URL encoded,
// as data.go.kr hands out encoded keys.
func (c *client) endpoint(params url.Values) string {
	key := c.serviceKey
	if !strings.Contains(key, "%") {
		key = url.QueryEscape(key)
	}
	return fmt.Sprintf("%s?serviceKey=%s&%s", c.baseURL, key, params.Encode())
}

type envelope struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			Items      json.RawMessage `json:"items"`
			TotalCount int             `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

// decodeEnvelope returns nil items for a no-data answer.
func decodeEnvelope(name string, body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return nil, fmt.Errorf("%s returned a non-JSON response: %s", name, truncate(trimmed, 256))
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", name, err)
	}
	header := env.Response.Header
	switch header.ResultCode {
	case resultOK:
	case resultNoData:
		return nil, nil
	default:
		return nil, fmt.Errorf("%s api error: code=%s msg=%s", name, header.ResultCode, header.ResultMsg)
	}

	items := bytes.TrimSpace(env.Response.Body.Items)
	if len(items) == 0 || items[0] != '{' {
		// An empty result is sent as "items": "".
		return nil, nil
	}
	var wrapper struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(items, &wrapper); err != nil {
		return nil, fmt.Errorf("decode %s items: %w", name, err)
	}
	item := bytes.TrimSpace(wrapper.Item)
	switch {
	case len(item) == 0 || string(item) == "null":
		return nil, nil
	case item[0] == '{':
		item = append(append([]byte{'['}, item...), ']')
	}
	return json.RawMessage(item), nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}

// flexValue accepts fcstValue as either a JSON string or number.
type flexValue string

func (f *flexValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexValue(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	*f = flexValue(data)
	return nil
}
