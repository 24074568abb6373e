package recommendation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/codify/internal/domain/forecast"
	"github.com/yanqian/codify/internal/domain/outfit"
	"github.com/yanqian/codify/internal/domain/region"
	"github.com/yanqian/codify/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/codify/pkg/errors"
	"github.com/yanqian/codify/pkg/util"
)

const insufficientWardrobeMessage = "옷장에 상의 또는 하의가 충분하지 않습니다."

// Service recommends outfits.
type Service interface {
	Recommend(ctx context.Context, req Request) (Response, error)
}

// ChatClient is the LLM used for reranking.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// WardrobeRepository loads a user's garments.
type WardrobeRepository interface {
	ListItems(ctx context.Context, userID int64) ([]outfit.Item, error)
}

// Cache stores reranked picks keyed by a content hash.
type Cache interface {
	Get(ctx context.Context, key string) ([]CachedPick, bool, error)
	Put(ctx context.Context, key string, picks []CachedPick) error
	Delete(ctx context.Context, key string) error
}

// Forecaster provides daily weather.
type Forecaster interface {
	Daily(ctx context.Context, place forecast.Place, target time.Time) forecast.Daily
	Today() time.Time
}

// TokenCounter estimates prompt sizes.
type TokenCounter interface {
	Count(text string) int
}

type service struct {
	cfg        Config
	resolver   *region.Resolver
	forecaster Forecaster
	wardrobe   WardrobeRepository
	cache      Cache
	chat       ChatClient
	tokens     TokenCounter
	logger     *slog.Logger
	timezone   *time.Location
}

// NewService wires the recommendation pipeline. chat, cache and forecaster
// may be nil; the pipeline then skips the corresponding step.
func NewService(cfg Config, resolver *region.Resolver, forecaster Forecaster, wardrobe WardrobeRepository, cache Cache, chat ChatClient, tokens TokenCounter, logger *slog.Logger) Service {
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 10
	}
	if cfg.DefaultCount <= 0 {
		cfg.DefaultCount = 1
	}
	return &service{
		cfg:        cfg,
		resolver:   resolver,
		forecaster: forecaster,
		wardrobe:   wardrobe,
		cache:      cache,
		chat:       chat,
		tokens:     tokens,
		logger:     logger.With("component", "recommendation.service"),
		timezone:   util.KST,
	}
}

type stage int

const (
	stageResolveWeather stage = iota
	stageLoadWardrobe
	stageGenerateCandidates
	stageCacheLookup
	stageRerank
	stageStoreCache
	stageFallback
	stageDone
)

func (s stage) String() string {
	switch s {
	case stageResolveWeather:
		return "resolve_weather"
	case stageLoadWardrobe:
		return "load_wardrobe"
	case stageGenerateCandidates:
		return "generate_candidates"
	case stageCacheLookup:
		return "cache_lookup"
	case stageRerank:
		return "rerank"
	case stageStoreCache:
		return "store_cache"
	case stageFallback:
		return "fallback"
	case stageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// run carries per-request state between stages.
type run struct {
	req        Request
	count      int
	target     time.Time
	weather    *WeatherSummary
	items      []outfit.Item
	candidates []outfit.Candidate
	cacheKey   string
	picks      []CachedPick
	resp       Response
}

func (s *service) Recommend(ctx context.Context, req Request) (Response, error) {
	r, err := s.newRun(req)
	if err != nil {
		return Response{}, err
	}

	next := stageResolveWeather
	for next != stageDone {
		current := next
		switch current {
		case stageResolveWeather:
			next = s.resolveWeather(ctx, r)
		case stageLoadWardrobe:
			next, err = s.loadWardrobe(ctx, r)
		case stageGenerateCandidates:
			next = s.generateCandidates(r)
		case stageCacheLookup:
			next = s.lookupCache(ctx, r)
		case stageRerank:
			next = s.rerank(ctx, r)
		case stageStoreCache:
			next = s.storeCache(ctx, r)
		case stageFallback:
			next = s.fallback(r)
		default:
			return Response{}, fmt.Errorf("recommendation: unknown stage %s", current)
		}
		if err != nil {
			return Response{}, err
		}
		s.logger.Debug("recommendation stage finished", "stage", current.String(), "next", next.String())
	}
	if r.resp.Outfits == nil {
		r.resp.Outfits = []Outfit{}
	}
	return r.resp, nil
}

func (s *service) newRun(req Request) (*run, error) {
	count := req.Count
	switch {
	case count < 0:
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "count must be positive", nil)
	case count == 0:
		count = s.cfg.DefaultCount
	case count > s.cfg.CandidateLimit:
		count = s.cfg.CandidateLimit
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "lat and lon must be provided together", nil)
	}

	var target time.Time
	if date := strings.TrimSpace(req.Date); date != "" {
		parsed, err := util.ParseDate(date, s.timezone)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "date must be formatted as YYYY-MM-DD", err)
		}
		target = parsed
	}
	return &run{req: req, count: count, target: target, resp: Response{Status: StatusOK}}, nil
}

func (s *service) loadWardrobe(ctx context.Context, r *run) (stage, error) {
	if len(r.req.Items) > 0 {
		r.items = withIDs(r.req.Items)
		return stageGenerateCandidates, nil
	}
	if s.wardrobe == nil {
		return stageGenerateCandidates, nil
	}
	items, err := s.wardrobe.ListItems(ctx, r.req.UserID)
	if err != nil {
		return stageDone, apperrors.Wrap(apperrors.CodeWardrobeError, "failed to load wardrobe", err)
	}
	r.items = items
	return stageGenerateCandidates, nil
}

func (s *service) generateCandidates(r *run) stage {
	pool := r.items
	if r.weather != nil && len(r.weather.Seasons) > 0 {
		pool = outfit.FilterBySeason(pool, r.weather.Seasons)
	}
	tops, bottoms := outfit.Split(pool)
	if len(tops) == 0 || len(bottoms) == 0 {
		r.resp.Status = StatusInsufficientWardrobe
		r.resp.Message = insufficientWardrobeMessage
		return stageDone
	}
	r.candidates = outfit.Rank(tops, bottoms, s.cfg.CandidateLimit)
	return stageCacheLookup
}

func (s *service) fallback(r *run) stage {
	n := min(r.count, len(r.candidates))
	outfits := make([]Outfit, 0, n)
	for _, c := range r.candidates[:n] {
		outfits = append(outfits, fromCandidate(c))
	}
	s.finish(r, outfits, MethodRuleBased)
	return stageDone
}

func (s *service) finish(r *run, outfits []Outfit, method Method) {
	r.resp.Status = StatusOK
	r.resp.Method = method
	r.resp.Outfits = outfits
	if len(outfits) > 0 {
		r.resp.Reasoning = outfits[0].Reasoning
	}
}

func fromCandidate(c outfit.Candidate) Outfit {
	return Outfit{
		Top:              c.Top,
		Bottom:           c.Bottom,
		Score:            round2(c.Score),
		Reasons:          c.Reasons,
		Reasoning:        strings.Join(c.Reasons, ", "),
		StyleDescription: outfit.StyleDescription(c.Top, c.Bottom),
	}
}

// withIDs gives request-supplied items without an id one derived from their
// content, so equal garments keep the same id across requests and different
// garments never share one.
func withIDs(items []outfit.Item) []outfit.Item {
	out := make([]outfit.Item, len(items))
	seen := make(map[string]int, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			id := "item-" + itemDigest(item)[:12]
			seen[id]++
			if n := seen[id]; n > 1 {
				id = fmt.Sprintf("%s-%d", id, n)
			}
			item.ID = id
		}
		out[i] = item
	}
	return out
}
