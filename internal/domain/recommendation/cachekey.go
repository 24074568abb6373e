package recommendation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/yanqian/codify/internal/domain/outfit"
)

// cacheKey hashes the candidate set, the requested count and the request
// context, so equal inputs map to equal keys regardless of candidate order.
func cacheKey(candidates []outfit.Candidate, count int, contextText string) string {
	tops := make(map[string]struct{})
	bottoms := make(map[string]struct{})
	for _, c := range candidates {
		tops[c.Top.ID] = struct{}{}
		bottoms[c.Bottom.ID] = struct{}{}
	}

	h := sha256.New()
	fmt.Fprintf(h, "tops=%s\n", strings.Join(sortedKeys(tops), ","))
	fmt.Fprintf(h, "bottoms=%s\n", strings.Join(sortedKeys(bottoms), ","))
	fmt.Fprintf(h, "count=%d\n", count)
	fmt.Fprintf(h, "context=%s\n", contextDigest(contextText))
	return "rec:" + hex.EncodeToString(h.Sum(nil))
}

func contextDigest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// requestContext is the part of the request that changes the LLM answer
// beyond the candidate set. Inline wardrobes add their item contents, since
// their ids are not owned by any stored wardrobe.
func requestContext(r *run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "user=%d|", r.req.UserID)
	if len(r.req.Items) > 0 {
		digests := make([]string, 0, len(r.items))
		for _, item := range r.items {
			digests = append(digests, item.ID+"="+itemDigest(item))
		}
		sort.Strings(digests)
		b.WriteString(strings.Join(digests, ","))
		b.WriteString("|")
	}
	if r.weather != nil {
		b.WriteString(r.weather.Text)
		b.WriteString("|")
		b.WriteString(r.weather.Precipitation)
	}
	b.WriteString("|")
	b.WriteString(strings.TrimSpace(r.req.Message))
	return b.String()
}

// itemDigest hashes the fields that describe a garment, ignoring its id.
func itemDigest(item outfit.Item) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s\n", item.Slot, strings.TrimSpace(item.Category), strings.TrimSpace(item.Name), normalizeTag(item.ColorPrimary))
	fmt.Fprintf(h, "style=%s\n", strings.Join(normalizedTags(item.StyleTags), ","))
	fmt.Fprintf(h, "season=%s\n", strings.Join(normalizedTags(item.SeasonTags), ","))
	if item.Formality != nil {
		fmt.Fprintf(h, "formality=%.2f\n", *item.Formality)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func normalizedTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = normalizeTag(t); t != "" {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

func normalizeTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
