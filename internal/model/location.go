package model

// ResolvedLocation is a geocoded address. It is never persisted.
type ResolvedLocation struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formattedAddress"`
}

// Viewport is the visible map region.
type Viewport struct {
	CenterLat float64 `json:"centerLat"`
	CenterLng float64 `json:"centerLng"`
	LatSpan   float64 `json:"latSpan"`
	LngSpan   float64 `json:"lngSpan"`
}

// viewportPadding widens the span so both markers sit inside the map.
const viewportPadding = 1.5

// DefaultViewport is shown until both ends of a load are resolved.
var DefaultViewport = Viewport{
	CenterLat: 20.5937,
	CenterLng: 78.9629,
	LatSpan:   0.0922,
	LngSpan:   0.0421,
}

// ViewportFor derives the region framing both locations. It falls back to
// DefaultViewport while either side is unresolved.
func ViewportFor(from, to *ResolvedLocation) Viewport {
	if from == nil || to == nil {
		return DefaultViewport
	}
	return Viewport{
		CenterLat: (from.Latitude + to.Latitude) / 2,
		CenterLng: (from.Longitude + to.Longitude) / 2,
		LatSpan:   abs(from.Latitude-to.Latitude) * viewportPadding,
		LngSpan:   abs(from.Longitude-to.Longitude) * viewportPadding,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
