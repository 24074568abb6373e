package kma

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/yanqian/codify/internal/domain/forecast"
)

const defaultVillageURL = "http://apis.data.go.kr/1360000/VilageFcstInfoService_2.0/getVilageFcst"

// VillageClient fetches the short-range grid forecast.
type VillageClient struct {
	*client
}

// NewVillageClient builds the short-range forecast client.
func NewVillageClient(cfg Config, logger *slog.Logger) (*VillageClient, error) {
	c, err := newClient("village", defaultVillageURL, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &VillageClient{client: c}, nil
}

type villageItem struct {
	Category  string    `json:"category"`
	FcstDate  string    `json:"fcstDate"`
	FcstTime  string    `json:"fcstTime"`
	FcstValue flexValue `json:"fcstValue"`
}

// Fetch implements forecast.Provider for grid keys.
func (c *VillageClient) Fetch(ctx context.Context, q forecast.Query) ([]forecast.Item, error) {
	cell, ok := q.Key.Grid()
	if !ok {
		return nil, fmt.Errorf("village forecast needs a grid key, got %q", q.Key.String())
	}
	params := url.Values{}
	params.Set("pageNo", "1")
	params.Set("numOfRows", "1000")
	params.Set("dataType", "JSON")
	params.Set("base_date", q.Window.IssueDate())
	params.Set("base_time", q.Window.BaseTime())
	params.Set("nx", strconv.Itoa(cell.X))
	params.Set("ny", strconv.Itoa(cell.Y))

	raw, err := c.fetchItems(ctx, params)
	if err != nil {
		return nil, err
	}
	var items []villageItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode village items: %w", err)
	}
	out := make([]forecast.Item, 0, len(items))
	for _, it := range items {
		out = append(out, forecast.Item{
			Category: it.Category,
			Date:     it.FcstDate,
			Time:     it.FcstTime,
			Value:    string(it.FcstValue),
		})
	}
	c.logger.Debug("village forecast fetched", "nx", cell.X, "ny", cell.Y, "base", q.Window.IssueStamp(), "items", len(out))
	return out, nil
}

var _ forecast.Provider = (*VillageClient)(nil)
