package kma

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/yanqian/codify/internal/domain/forecast"
)

const (
	defaultMidTaURL = "http://apis.data.go.kr/1360000/MidFcstInfoService/getMidTa"
	midFirstDay     = 3
	midLastDay      = 10
)

// MidTaClient fetches mid-range temperature forecasts per region id.
type MidTaClient struct {
	*client
}

// NewMidTaClient builds the mid-range temperature client.
func NewMidTaClient(cfg Config, logger *slog.Logger) (*MidTaClient, error) {
	c, err := newClient("midta", defaultMidTaURL, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &MidTaClient{client: c}, nil
}

// Fetch implements forecast.Provider for region keys. The day-offset columns
// (taMin3..taMax10) are flattened into TMN/TMX items dated from the issue day.
func (c *MidTaClient) Fetch(ctx context.Context, q forecast.Query) ([]forecast.Item, error) {
	if q.Key.Kind != forecast.KeyRegion || q.Key.Value == "" {
		return nil, fmt.Errorf("mid-range forecast needs a region key, got %q", q.Key.String())
	}
	params := url.Values{}
	params.Set("pageNo", "1")
	params.Set("numOfRows", "10")
	params.Set("dataType", "JSON")
	params.Set("regId", q.Key.Value)
	params.Set("tmFc", q.Window.IssueStamp())

	raw, err := c.fetchItems(ctx, params)
	if err != nil {
		return nil, err
	}
	var rows []map[string]flexValue
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode midta items: %w", err)
	}

	issue := q.Window.IssueTime
	var out []forecast.Item
	for _, row := range rows {
		for day := midFirstDay; day <= midLastDay; day++ {
			date := forecast.DateID(issue.AddDate(0, 0, day))
			if v := row[fmt.Sprintf("taMin%d", day)]; v != "" {
				out = append(out, forecast.Item{Category: forecast.CategoryMinTemp, Date: date, Value: string(v)})
			}
			if v := row[fmt.Sprintf("taMax%d", day)]; v != "" {
				out = append(out, forecast.Item{Category: forecast.CategoryMaxTemp, Date: date, Value: string(v)})
			}
		}
	}
	if len(out) == 0 {
		return nil, forecast.ErrNoData
	}
	c.logger.Debug("mid-range forecast fetched", "regId", q.Key.Value, "tmFc", q.Window.IssueStamp(), "items", len(out))
	return out, nil
}

var _ forecast.Provider = (*MidTaClient)(nil)
