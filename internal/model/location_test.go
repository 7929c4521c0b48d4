package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewportFor_DefaultUntilBothResolved(t *testing.T) {
	mumbai := &ResolvedLocation{Latitude: 19.076, Longitude: 72.8777}

	assert.Equal(t, DefaultViewport, ViewportFor(nil, nil))
	assert.Equal(t, DefaultViewport, ViewportFor(mumbai, nil))
	assert.Equal(t, DefaultViewport, ViewportFor(nil, mumbai))
}

func TestViewportFor_MidpointAndSpan(t *testing.T) {
	testCases := []struct {
		name     string
		from, to ResolvedLocation
		want     Viewport
	}{
		{
			name: "mumbai to delhi",
			from: ResolvedLocation{Latitude: 19.076, Longitude: 72.8777},
			to:   ResolvedLocation{Latitude: 28.7041, Longitude: 77.1025},
			want: Viewport{CenterLat: 23.89005, CenterLng: 74.9901, LatSpan: 14.44215, LngSpan: 6.3372},
		},
		{
			name: "order does not matter",
			from: ResolvedLocation{Latitude: 28.7041, Longitude: 77.1025},
			to:   ResolvedLocation{Latitude: 19.076, Longitude: 72.8777},
			want: Viewport{CenterLat: 23.89005, CenterLng: 74.9901, LatSpan: 14.44215, LngSpan: 6.3372},
		},
		{
			name: "same point",
			from: ResolvedLocation{Latitude: 10, Longitude: -20},
			to:   ResolvedLocation{Latitude: 10, Longitude: -20},
			want: Viewport{CenterLat: 10, CenterLng: -20},
		},
		{
			name: "across the equator",
			from: ResolvedLocation{Latitude: -4, Longitude: 10},
			to:   ResolvedLocation{Latitude: 6, Longitude: 12},
			want: Viewport{CenterLat: 1, CenterLng: 11, LatSpan: 15, LngSpan: 3},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ViewportFor(&tc.from, &tc.to)
			assert.InDelta(t, tc.want.CenterLat, got.CenterLat, 1e-9)
			assert.InDelta(t, tc.want.CenterLng, got.CenterLng, 1e-9)
			assert.InDelta(t, tc.want.LatSpan, got.LatSpan, 1e-9)
			assert.InDelta(t, tc.want.LngSpan, got.LngSpan, 1e-9)
		})
	}
}

func TestViewportFor_Idempotent(t *testing.T) {
	from := &ResolvedLocation{Latitude: 12.9716, Longitude: 77.5946}
	to := &ResolvedLocation{Latitude: 13.0827, Longitude: 80.2707}

	first := ViewportFor(from, to)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ViewportFor(from, to))
	}
}
