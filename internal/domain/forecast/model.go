package forecast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yanqian/codify/internal/domain/region"
)

var (
	// ErrDuplicateRecord is returned by Cache.Insert when (date, key) already exists.
	ErrDuplicateRecord = errors.New("forecast: record already exists")
	// ErrNoData covers every "forecast not available yet" condition.
	ErrNoData = errors.New("forecast: no data yet")
)

// KeyKind distinguishes region ids from grid cells.
type KeyKind string

const (
	KeyRegion KeyKind = "region"
	KeyGrid   KeyKind = "grid"
)

// CacheKey addresses a forecast either by region id or by grid cell.
type CacheKey struct {
	Kind  KeyKind
	Value string
}

// RegionKey builds a key for a mid-range forecast region id.
func RegionKey(id string) CacheKey {
	return CacheKey{Kind: KeyRegion, Value: id}
}

// GridKey builds a key for a grid cell.
func GridKey(cell region.GridCell) CacheKey {
	return CacheKey{Kind: KeyGrid, Value: fmt.Sprintf("%d:%d", cell.X, cell.Y)}
}

func (k CacheKey) String() string {
	return string(k.Kind) + ":" + k.Value
}

// Grid returns the grid cell encoded in a grid key.
func (k CacheKey) Grid() (region.GridCell, bool) {
	if k.Kind != KeyGrid {
		return region.GridCell{}, false
	}
	var cell region.GridCell
	if _, err := fmt.Sscanf(strings.Replace(k.Value, ":", " ", 1), "%d %d", &cell.X, &cell.Y); err != nil {
		return region.GridCell{}, false
	}
	return cell, true
}

// DailyWeatherRecord is the cached daily summary for one (date, key).
type DailyWeatherRecord struct {
	DateID                string    `json:"dateId"`
	Key                   string    `json:"key"`
	Region                string    `json:"region,omitempty"`
	MinTemp               *float64  `json:"minTemp,omitempty"`
	MaxTemp               *float64  `json:"maxTemp,omitempty"`
	PrecipitationSeverity int       `json:"precipitationSeverity"`
	IssuedAt              time.Time `json:"issuedAt"`
	FetchedAt             time.Time `json:"fetchedAt"`
}

// Item is one flat provider tuple.
type Item struct {
	Category string
	Date     string
	Time     string
	Value    string
}

// Query is what a provider needs to fetch one forecast.
type Query struct {
	Key    CacheKey
	Window Window
}

// Provider performs the outbound forecast request.
type Provider interface {
	Fetch(ctx context.Context, q Query) ([]Item, error)
}

// Cache persists daily records keyed by (date id, key).
type Cache interface {
	Get(ctx context.Context, dateID, key string) (DailyWeatherRecord, bool, error)
	// Insert fails with ErrDuplicateRecord when the pair already exists.
	Insert(ctx context.Context, rec DailyWeatherRecord) error
	// UpsertAll writes every record in one transaction.
	UpsertAll(ctx context.Context, recs []DailyWeatherRecord) error
}

// Source labels where a lookup result came from.
type Source string

const (
	SourceCache              Source = "cache"
	SourceProvider           Source = "provider"
	SourceCacheAfterConflict Source = "cache_after_conflict"
	SourceUnavailable        Source = "unavailable"
)

// Outcome describes a single lookup.
type Outcome struct {
	Source Source `json:"source"`
	Detail string `json:"detail,omitempty"`
}

// Target is a lookup key plus cache aliases checked before fetching.
type Target struct {
	Key     CacheKey
	Aliases []CacheKey
	Label   string
}

// DateID formats a calendar date as the cache date id.
func DateID(t time.Time) string {
	return t.Format("20060102")
}
