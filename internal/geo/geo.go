package geo

import (
	"math"

	"wikiexplorer/internal/model"
)

const earthRadiusMeters = 6371000.0

// MinSpanDegrees is the smallest span FitRegion produces on either axis.
const MinSpanDegrees = 0.01

// regionPadding widens the bounding box so edge markers are not clipped.
const regionPadding = 1.5

// DistanceMeters returns the great-circle distance between a and b using the
// haversine formula.
func DistanceMeters(a, b model.Geo) float64 {
	lat1 := a.Lat * math.Pi / 180.0
	lon1 := a.Lon * math.Pi / 180.0
	lat2 := b.Lat * math.Pi / 180.0
	lon2 := b.Lon * math.Pi / 180.0

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	hSin := math.Sin(dLat / 2)
	hSin *= hSin

	vSin := math.Sin(dLon / 2)
	vSin *= vSin

	h := hSin + math.Cos(lat1)*math.Cos(lat2)*vSin

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// FitRegion returns a viewport enclosing every point. The span on each axis is
// max(MinSpanDegrees, 1.5 × extent). ok is false when points is empty.
func FitRegion(points []model.Geo) (model.Region, bool) {
	if len(points) == 0 {
		return model.Region{}, false
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLon, maxLon := points[0].Lon, points[0].Lon
	for _, p := range points[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLon = math.Min(minLon, p.Lon)
		maxLon = math.Max(maxLon, p.Lon)
	}

	return model.Region{
		Center: model.Geo{
			Lat: (minLat + maxLat) / 2,
			Lon: (minLon + maxLon) / 2,
		},
		LatDelta: math.Max(MinSpanDegrees, (maxLat-minLat)*regionPadding),
		LonDelta: math.Max(MinSpanDegrees, (maxLon-minLon)*regionPadding),
	}, true
}

// Pan moves center by the given fractions of the region span. Latitude is
// clamped to the poles and longitude wrapped into [-180, 180).
func Pan(center model.Geo, span model.Region, latFraction, lonFraction float64) model.Geo {
	lat := center.Lat + span.LatDelta*latFraction
	lat = math.Max(-90, math.Min(90, lat))

	lon := center.Lon + span.LonDelta*lonFraction
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return model.Geo{Lat: lat, Lon: lon - 180}
}
