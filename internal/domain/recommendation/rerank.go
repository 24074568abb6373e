package recommendation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/yanqian/codify/internal/domain/outfit"
	"github.com/yanqian/codify/internal/infra/llm/chatgpt"
	"github.com/yanqian/codify/pkg/metrics"
)

const maxStyleTags = 3

func (s *service) lookupCache(ctx context.Context, r *run) stage {
	if s.chat == nil {
		return stageFallback
	}
	r.cacheKey = cacheKey(r.candidates, r.count, requestContext(r))
	if s.cache == nil {
		return stageRerank
	}

	picks, ok, err := s.cache.Get(ctx, r.cacheKey)
	if err != nil {
		s.logger.Warn("recommendation cache read failed", "error", err)
		return stageRerank
	}
	if !ok {
		return stageRerank
	}

	outfits, missing := rebuild(picks, indexItems(r.items))
	if missing != "" {
		s.logger.Info("discarding cached recommendation with unknown item", "key", r.cacheKey, "itemId", missing)
		if err := s.cache.Delete(ctx, r.cacheKey); err != nil {
			s.logger.Warn("recommendation cache delete failed", "error", err)
		}
		return stageRerank
	}
	s.finish(r, outfits, MethodLLM)
	r.resp.Cached = true
	return stageDone
}

func (s *service) rerank(ctx context.Context, r *run) stage {
	candidates := r.candidates
	user := s.buildUserPrompt(r, candidates)
	system := s.buildSystemPrompt()
	if s.tokens != nil && s.cfg.MaxPromptTokens > 0 {
		for len(candidates) > r.count && s.tokens.Count(system)+s.tokens.Count(user) > s.cfg.MaxPromptTokens {
			candidates = candidates[:len(candidates)-1]
			user = s.buildUserPrompt(r, candidates)
		}
	}

	completion, err := s.chat.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatgpt.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		s.logger.Warn("llm rerank failed, using rule-based ranking", "error", err)
		return stageFallback
	}

	picks, err := parsePicks(completion.Content())
	if err == nil {
		picks = keepCandidatePairs(picks, candidates)
		if len(picks) == 0 {
			err = errNoPicks
		}
	}
	if err != nil {
		s.logger.Warn("llm rerank output unusable, using rule-based ranking", "error", err)
		return stageFallback
	}

	picks = topUp(picks, r.candidates, r.count)
	outfits, _ := rebuild(picks, indexItems(r.items))
	r.picks = picks
	s.finish(r, outfits, MethodLLM)
	r.resp.TokenUsage = metrics.NewTokenUsage(completion.Usage.PromptTokens, completion.Usage.CompletionTokens, completion.Usage.TotalTokens)
	s.logger.Info("llm rerank completed", "outfits", len(outfits), "totalTokens", completion.Usage.TotalTokens)
	return stageStoreCache
}

func (s *service) storeCache(ctx context.Context, r *run) stage {
	if s.cache == nil || r.cacheKey == "" || len(r.picks) == 0 {
		return stageDone
	}
	if err := s.cache.Put(ctx, r.cacheKey, r.picks); err != nil {
		s.logger.Warn("recommendation cache write failed", "error", err)
	}
	return stageDone
}

func (s *service) buildSystemPrompt() string {
	base := strings.TrimSpace(s.cfg.Prompt)
	if base == "" {
		base = "You are a personal stylist who picks outfits from the user's own wardrobe."
	}
	enforcer := " Respond ONLY with a valid minified JSON array of objects shaped {\"top_id\":string,\"bottom_id\":string,\"score\":number,\"reasoning\":string,\"style_description\":string}. Use only the candidate pairs provided, score between 0 and 1, best first. Write reasoning in Korean. Never return plain text or other fields."
	return base + enforcer
}

type itemSummary struct {
	ID        string   `json:"id"`
	Category  string   `json:"cat"`
	Color     string   `json:"col"`
	Style     []string `json:"style,omitempty"`
	Formality float64  `json:"form"`
}

type pairSummary struct {
	TopID    string  `json:"top_id"`
	BottomID string  `json:"bottom_id"`
	Score    float64 `json:"score"`
}

func (s *service) buildUserPrompt(r *run, candidates []outfit.Candidate) string {
	seen := make(map[string]struct{})
	var items []itemSummary
	pairs := make([]pairSummary, 0, len(candidates))
	for _, c := range candidates {
		for _, item := range []outfit.Item{c.Top, c.Bottom} {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			items = append(items, summarizeItem(item))
		}
		pairs = append(pairs, pairSummary{TopID: c.Top.ID, BottomID: c.Bottom.ID, Score: round2(c.Score)})
	}
	payload, err := json.Marshal(struct {
		Items []itemSummary `json:"items"`
		Pairs []pairSummary `json:"candidates"`
	}{Items: items, Pairs: pairs})
	if err != nil {
		payload = []byte("{}")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pick the best %d outfit(s) from these candidates: %s\n", r.count, payload)
	if r.weather != nil {
		fmt.Fprintf(&b, "Weather: %s, precipitation %s.\n", r.weather.Text, r.weather.Precipitation)
	} else {
		b.WriteString("Weather: unknown.\n")
	}
	if msg := strings.TrimSpace(r.req.Message); msg != "" {
		fmt.Fprintf(&b, "Occasion (TPO): %s\n", msg)
	}
	return b.String()
}

func summarizeItem(item outfit.Item) itemSummary {
	style := item.StyleTags
	if len(style) > maxStyleTags {
		style = style[:maxStyleTags]
	}
	return itemSummary{
		ID:        item.ID,
		Category:  item.Category,
		Color:     item.ColorPrimary,
		Style:     style,
		Formality: math.Round(item.FormalityOrDefault()*100) / 100,
	}
}

type pairKey struct{ top, bottom string }

// keepCandidatePairs drops picks that do not name a candidate pair and
// duplicate pairs, preserving the model's order.
func keepCandidatePairs(picks []CachedPick, candidates []outfit.Candidate) []CachedPick {
	allowed := make(map[pairKey]struct{}, len(candidates))
	for _, c := range candidates {
		allowed[pairKey{c.Top.ID, c.Bottom.ID}] = struct{}{}
	}
	seen := make(map[pairKey]struct{})
	out := make([]CachedPick, 0, len(picks))
	for _, p := range picks {
		k := pairKey{p.TopID, p.BottomID}
		if _, ok := allowed[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}

// topUp trims picks to count and fills any shortfall from the scored
// candidates.
func topUp(picks []CachedPick, candidates []outfit.Candidate, count int) []CachedPick {
	if len(picks) > count {
		return picks[:count]
	}
	seen := make(map[pairKey]struct{}, len(picks))
	for _, p := range picks {
		seen[pairKey{p.TopID, p.BottomID}] = struct{}{}
	}
	for _, c := range candidates {
		if len(picks) >= count {
			break
		}
		k := pairKey{c.Top.ID, c.Bottom.ID}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		picks = append(picks, CachedPick{
			TopID:            c.Top.ID,
			BottomID:         c.Bottom.ID,
			Score:            round2(c.Score),
			Reasoning:        strings.Join(c.Reasons, ", "),
			StyleDescription: outfit.StyleDescription(c.Top, c.Bottom),
		})
	}
	return picks
}

func indexItems(items []outfit.Item) map[string]outfit.Item {
	out := make(map[string]outfit.Item, len(items))
	for _, item := range items {
		out[item.ID] = item
	}
	return out
}

// rebuild turns picks back into outfits. It returns the first unknown item id
// when a pick no longer resolves.
func rebuild(picks []CachedPick, items map[string]outfit.Item) ([]Outfit, string) {
	outfits := make([]Outfit, 0, len(picks))
	for _, p := range picks {
		top, ok := items[p.TopID]
		if !ok {
			return nil, p.TopID
		}
		bottom, ok := items[p.BottomID]
		if !ok {
			return nil, p.BottomID
		}
		_, reasons := outfit.Score(top, bottom)
		desc := p.StyleDescription
		if desc == "" {
			desc = outfit.StyleDescription(top, bottom)
		}
		reasoning := p.Reasoning
		if reasoning == "" {
			reasoning = strings.Join(reasons, ", ")
		}
		outfits = append(outfits, Outfit{
			Top:              top,
			Bottom:           bottom,
			Score:            p.Score,
			Reasons:          reasons,
			Reasoning:        reasoning,
			StyleDescription: desc,
		})
	}
	return outfits, ""
}
