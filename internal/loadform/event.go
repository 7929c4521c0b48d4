package loadform

import "loadboard/internal/model"

// EventType identifies what changed in the form.
type EventType string

const (
	EventFieldState       EventType = "field_state"
	EventLocationResolved EventType = "location_resolved"
	EventGeocodeFailed    EventType = "geocode_failed"
	EventViewport         EventType = "viewport"
	EventSubmitState      EventType = "submit_state"
)

// Event is pushed to the form's listener.
type Event struct {
	Type     EventType               `json:"type"`
	Field    Field                   `json:"field,omitempty"`
	State    ResolveState            `json:"state,omitempty"`
	Location *model.ResolvedLocation `json:"location,omitempty"`
	Viewport *model.Viewport         `json:"viewport,omitempty"`
	Submit   SubmitState             `json:"submit,omitempty"`
	LoadID   string                  `json:"loadId,omitempty"`
	Error    string                  `json:"error,omitempty"`
}
