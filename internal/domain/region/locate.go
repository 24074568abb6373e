package region

import "math"

const (
	minLat = 33.0
	maxLat = 39.5
	minLon = 124.0
	maxLon = 132.0
)

// NormalizeCoordinates swaps lat and lon when only the transposed pair falls
// inside the Korean peninsula box. Callers should log every swap.
func NormalizeCoordinates(lat, lon float64) (float64, float64, bool) {
	if inKorea(lat, lon) {
		return lat, lon, false
	}
	if inKorea(lon, lat) {
		return lon, lat, true
	}
	return lat, lon, false
}

func inKorea(lat, lon float64) bool {
	return lat >= minLat && lat <= maxLat && lon >= minLon && lon <= maxLon
}

// Nearest returns the known location closest to the coordinate.
func (r *Resolver) Nearest(lat, lon float64) Location {
	var (
		best     Location
		bestDist = math.Inf(1)
	)
	for _, loc := range r.locations {
		if d := haversineKm(lat, lon, loc.Lat, loc.Lon); d < bestDist {
			best, bestDist = loc, d
		}
	}
	return best
}

// Locate normalizes the coordinate, finds the nearest known location and
// projects it onto the grid, falling back to the location's precomputed cell
// when the projection leaves the grid.
func (r *Resolver) Locate(lat, lon float64) Placement {
	nlat, nlon, swapped := NormalizeCoordinates(lat, lon)
	nearest := r.Nearest(nlat, nlon)
	grid := ToGrid(nlat, nlon)
	fallback := false
	if !grid.InBounds() {
		grid = nearest.Grid
		fallback = true
	}
	return Placement{
		Lat:      nlat,
		Lon:      nlon,
		Swapped:  swapped,
		Nearest:  nearest,
		Grid:     grid,
		Fallback: fallback,
	}
}

// RegionFor resolves a known location to its forecast region.
func (r *Resolver) RegionFor(loc Location) Region {
	return r.lookup(loc.Name, loc.Canonical)
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const rad = math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
