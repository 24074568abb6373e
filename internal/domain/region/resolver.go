package region

import (
	"fmt"
	"strings"
)

// Resolver maps free-text place names to forecast regions. It holds only
// read-only tables, so one instance can be shared across requests.
type Resolver struct {
	cityToProvince map[string]string
	aliases        map[string]string
	ambiguous      map[string]ambiguity
	regionIDs      map[string]string
	locations      []Location
	gridByRegion   map[string]GridCell
}

// NewResolver builds a resolver over the built-in Korean region tables.
func NewResolver() *Resolver {
	return newResolver(defaultCityToProvince, defaultAliases, defaultAmbiguous, defaultForecastRegionIDs, defaultLocations)
}

func newResolver(cities, aliases map[string]string, ambiguous map[string]ambiguity, ids map[string]string, locations []Location) *Resolver {
	grids := make(map[string]GridCell, len(locations))
	for _, loc := range locations {
		if _, ok := grids[loc.Canonical]; !ok {
			grids[loc.Canonical] = loc.Grid
		}
	}
	return &Resolver{
		cityToProvince: cities,
		aliases:        aliases,
		ambiguous:      ambiguous,
		regionIDs:      ids,
		locations:      locations,
		gridByRegion:   grids,
	}
}

// Resolve normalizes text to a canonical region.
func (r *Resolver) Resolve(text string) Region {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return Region{}
	}
	canonical := r.canonicalize(raw)
	if amb, ok := r.ambiguous[canonical]; ok {
		return Region{
			RawText:             raw,
			Canonical:           canonical,
			NeedsDisambiguation: true,
			ClarifyingQuestion:  amb.question,
		}
	}
	return r.lookup(raw, canonical)
}

// ResolveWithAnswer re-runs resolution after the user answered a clarifying
// question. Unmatched answers return the ambiguous result again.
func (r *Resolver) ResolveWithAnswer(text, answer string) Region {
	base := r.Resolve(text)
	if !base.NeedsDisambiguation {
		return base
	}
	reply := strings.TrimSpace(answer)
	if reply == "" {
		return base
	}
	amb := r.ambiguous[base.Canonical]
	for _, c := range amb.choices {
		for _, kw := range c.keywords {
			if strings.Contains(reply, kw) {
				return r.lookup(base.RawText, c.canonical)
			}
		}
	}
	return base
}

// Locations exposes the representative locations, e.g. for bulk refreshes.
func (r *Resolver) Locations() []Location {
	out := make([]Location, len(r.locations))
	copy(out, r.locations)
	return out
}

func (r *Resolver) canonicalize(raw string) string {
	name := raw
	if province, ok := r.cityToProvince[name]; ok {
		name = province
	}
	if alias, ok := r.aliases[name]; ok {
		name = alias
	}
	return name
}

func (r *Resolver) lookup(raw, canonical string) Region {
	id, ok := r.regionIDs[canonical]
	if !ok {
		return Region{
			RawText:     raw,
			Canonical:   canonical,
			Unsupported: true,
			Message:     fmt.Sprintf("'%s' 지역은 지원하지 않습니다. 도/시 단위로 입력해주세요.", raw),
		}
	}
	out := Region{RawText: raw, Canonical: canonical, ForecastRegionID: id}
	if grid, ok := r.gridByRegion[canonical]; ok {
		g := grid
		out.Grid = &g
	}
	return out
}
