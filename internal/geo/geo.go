// Package geo holds the planar and great-circle helpers used by the delivery simulation.
package geo

import (
	"math"
	"time"

	"shopflow-tracking/internal/domain"
)

const earthRadiusKm = 6371.0

// Lerp interpolates linearly between from and to. Progress is not clamped.
func Lerp(from, to domain.LatLng, progress float64) domain.LatLng {
	return domain.LatLng{
		Lat: from.Lat + (to.Lat-from.Lat)*progress,
		Lng: from.Lng + (to.Lng-from.Lng)*progress,
	}
}

// Progress returns the elapsed fraction of the [start, deadline] window at now,
// clamped to [0, 1]. An empty or inverted window counts as complete.
func Progress(start, deadline, now time.Time) float64 {
	window := deadline.Sub(start)
	if window <= 0 {
		return 1
	}
	p := float64(now.Sub(start)) / float64(window)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// HaversineKm returns the great-circle distance between a and b.
func HaversineKm(a, b domain.LatLng) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
