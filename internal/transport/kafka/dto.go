package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LocationDTO is a rider GPS fix as published on the locations topic.
type LocationDTO struct {
	OrderID    string    `json:"order_id"`
	Lat        *float64  `json:"lat"`
	Lng        *float64  `json:"lng"`
	RecordedAt time.Time `json:"recorded_at,omitempty"`
}

// Location is a validated GPS fix. A zero RecordedAt means "now".
type Location struct {
	OrderID    string
	Lat        float64
	Lng        float64
	RecordedAt time.Time
}

var (
	errEmptyOrderID  = errors.New("empty order_id")
	errMissingLatLng = errors.New("missing lat/lng")
)

// ToLocation validates the DTO shape. Coordinate ranges are checked by the
// service. Shape errors are permanent.
func (d LocationDTO) ToLocation() (Location, error) {
	id := strings.TrimSpace(d.OrderID)
	if id == "" {
		return Location{}, Permanent(errEmptyOrderID)
	}
	if d.Lat == nil || d.Lng == nil {
		return Location{}, Permanent(fmt.Errorf("order %s: %w", id, errMissingLatLng))
	}
	return Location{OrderID: id, Lat: *d.Lat, Lng: *d.Lng, RecordedAt: d.RecordedAt}, nil
}

func decodeLocation(payload []byte) (Location, error) {
	var dto LocationDTO
	if err := json.Unmarshal(payload, &dto); err != nil {
		return Location{}, Permanent(fmt.Errorf("decode location: %w", err))
	}
	return dto.ToLocation()
}
