package geo

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"shopflow-tracking/internal/domain"
)

// kmPerDegreeLat is the approximate length of one degree of latitude.
const kmPerDegreeLat = 111.32

// Geocoder resolves a free-text shipping address to a destination.
type Geocoder interface {
	Locate(ctx context.Context, address string) (domain.LatLng, error)
}

// JitterGeocoder places destinations at a bounded offset from the store,
// derived from a hash of the address. The same address always maps to the
// same point; no real lookup takes place.
type JitterGeocoder struct {
	origin   domain.LatLng
	radiusKm float64
}

// NewJitterGeocoder returns a geocoder anchored at origin. Offsets stay within radiusKm.
func NewJitterGeocoder(origin domain.LatLng, radiusKm float64) *JitterGeocoder {
	if radiusKm <= 0 {
		radiusKm = 5
	}
	return &JitterGeocoder{origin: origin, radiusKm: radiusKm}
}

// Locate implements Geocoder.
func (g *JitterGeocoder) Locate(_ context.Context, address string) (domain.LatLng, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(address))))
	sum := h.Sum64()

	// low 32 bits pick the bearing, high 32 bits the distance
	angle := float64(uint32(sum)) / math.MaxUint32 * 2 * math.Pi
	dist := g.radiusKm * (0.2 + 0.8*float64(uint32(sum>>32))/math.MaxUint32)

	dLat := dist * math.Cos(angle) / kmPerDegreeLat
	dLng := dist * math.Sin(angle) / (kmPerDegreeLat * math.Max(math.Cos(toRad(g.origin.Lat)), 0.01))

	return domain.LatLng{Lat: g.origin.Lat + dLat, Lng: g.origin.Lng + dLng}, nil
}

var _ Geocoder = (*JitterGeocoder)(nil)
