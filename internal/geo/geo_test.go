package geo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shopflow-tracking/internal/domain"
)

func TestLerp_Midpoint(t *testing.T) {
	got := Lerp(domain.LatLng{}, domain.LatLng{Lat: 10, Lng: 10}, 0.5)
	require.InDelta(t, 5.0, got.Lat, 1e-9)
	require.InDelta(t, 5.0, got.Lng, 1e-9)
}

func TestProgress(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	deadline := start.Add(10 * time.Minute)

	tests := []struct {
		name string
		now  time.Time
		want float64
	}{
		{"before start", start.Add(-time.Minute), 0},
		{"at start", start, 0},
		{"half way", start.Add(5 * time.Minute), 0.5},
		{"at deadline", deadline, 1},
		{"past deadline", deadline.Add(time.Hour), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, Progress(start, deadline, tt.now), 1e-9)
		})
	}

	require.Equal(t, 1.0, Progress(start, start, start), "empty window is complete")
}

func TestHaversineKm(t *testing.T) {
	require.Zero(t, HaversineKm(domain.LatLng{Lat: 23.78, Lng: 90.28}, domain.LatLng{Lat: 23.78, Lng: 90.28}))

	// one degree of latitude along a meridian
	require.InDelta(t, 111.19, HaversineKm(domain.LatLng{Lat: 0, Lng: 0}, domain.LatLng{Lat: 1, Lng: 0}), 0.05)
}

func TestJitterGeocoder_DeterministicAndBounded(t *testing.T) {
	origin := domain.LatLng{Lat: 23.78, Lng: 90.28}
	g := NewJitterGeocoder(origin, 5)

	a, err := g.Locate(context.Background(), "Dhaka")
	require.NoError(t, err)
	b, err := g.Locate(context.Background(), "  dhaka ")
	require.NoError(t, err)
	require.Equal(t, a, b)

	for _, addr := range []string{"Dhaka", "Gulshan 2, Road 90", "Mirpur 10", "Banani"} {
		p, err := g.Locate(context.Background(), addr)
		require.NoError(t, err)
		d := HaversineKm(origin, p)
		require.LessOrEqual(t, d, 5.1, addr)
		require.Greater(t, d, 0.0, addr)
	}
}
