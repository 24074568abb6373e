package region

import "math"

// Lambert conformal conic parameters of the KMA 5km forecast grid.
const (
	earthRadiusKm = 6371.00877
	gridSpacingKm = 5.0
	stdParallel1  = 30.0
	stdParallel2  = 60.0
	originLon     = 126.0
	originLat     = 38.0
	originX       = 43.0
	originY       = 136.0

	maxGridX = 149
	maxGridY = 253
)

// ToGrid projects latitude/longitude onto the forecast grid.
func ToGrid(lat, lon float64) GridCell {
	const degrad = math.Pi / 180.0

	re := earthRadiusKm / gridSpacingKm
	slat1 := stdParallel1 * degrad
	slat2 := stdParallel2 * degrad
	olon := originLon * degrad
	olat := originLat * degrad

	sn := math.Tan(math.Pi*0.25+slat2*0.5) / math.Tan(math.Pi*0.25+slat1*0.5)
	sn = math.Log(math.Cos(slat1)/math.Cos(slat2)) / math.Log(sn)
	sf := math.Tan(math.Pi*0.25 + slat1*0.5)
	sf = math.Pow(sf, sn) * math.Cos(slat1) / sn
	ro := math.Tan(math.Pi*0.25 + olat*0.5)
	ro = re * sf / math.Pow(ro, sn)

	ra := math.Tan(math.Pi*0.25 + lat*degrad*0.5)
	ra = re * sf / math.Pow(ra, sn)
	theta := lon*degrad - olon
	if theta > math.Pi {
		theta -= 2.0 * math.Pi
	}
	if theta < -math.Pi {
		theta += 2.0 * math.Pi
	}
	theta *= sn

	return GridCell{
		X: int(math.Floor(ra*math.Sin(theta) + originX + 0.5)),
		Y: int(math.Floor(ro - ra*math.Cos(theta) + originY + 0.5)),
	}
}

// InBounds reports whether the cell lies on the provider's grid.
func (g GridCell) InBounds() bool {
	return g.X >= 1 && g.X <= maxGridX && g.Y >= 1 && g.Y <= maxGridY
}
