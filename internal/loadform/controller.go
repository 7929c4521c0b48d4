// Package loadform keeps an editable load, its two geocoded endpoints and
// the derived map viewport in sync while the admin types.
package loadform

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"loadboard/internal/geocode"
	"loadboard/internal/model"

	"github.com/rs/zerolog"
)

// DefaultDebounce is how long an address must stay unchanged before it is geocoded.
const DefaultDebounce = 500 * time.Millisecond

var (
	ErrClosed           = errors.New("load form is closed")
	ErrSubmitInProgress = errors.New("load form is already submitting")
	ErrUnknownField     = errors.New("unknown load form field")
)

// Field names a form input.
type Field string

const (
	FieldCurrentLocation     Field = "currentLocation"
	FieldDestinationLocation Field = "destinationLocation"
	FieldWeight              Field = "weight"
	FieldLength              Field = "length"
	FieldPhone               Field = "phone"
	FieldEmail               Field = "email"
)

// IsAddress reports whether the field is geocoded.
func (f Field) IsAddress() bool {
	return f == FieldCurrentLocation || f == FieldDestinationLocation
}

// ResolveState tracks one address field.
type ResolveState string

const (
	ResolveIdle      ResolveState = "idle"
	ResolvePending   ResolveState = "pending"
	ResolveResolving ResolveState = "resolving"
	ResolveResolved  ResolveState = "resolved"
	ResolveFailed    ResolveState = "failed"
)

// SubmitState tracks the save of the form.
type SubmitState string

const (
	SubmitIdle       SubmitState = "idle"
	SubmitSubmitting SubmitState = "submitting"
	SubmitDone       SubmitState = "done"
	SubmitFailed     SubmitState = "failed"
)

// Store is the part of the record store the form writes to.
type Store interface {
	Create(ctx context.Context, fields model.LoadFields) (string, error)
	Update(ctx context.Context, id string, patch model.LoadPatch) error
}

// Options tune a Controller.
type Options struct {
	Debounce time.Duration
	// Listener receives every state change. It is called without the
	// controller lock held, but calls are serialized.
	Listener func(Event)
	Logger   zerolog.Logger
}

type addressState struct {
	state    ResolveState
	timer    *time.Timer
	gen      uint64
	location *model.ResolvedLocation
}

// Controller is one open load form. It is safe for concurrent use.
type Controller struct {
	geocoder geocode.Gateway
	store    Store
	debounce time.Duration
	listener func(Event)
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	emitMu sync.Mutex
	sent   map[string]uint64 // last transition sent per field, and for the viewport

	mu          sync.Mutex
	closed      bool
	loadID      string
	draft       model.LoadDraft
	addresses   map[Field]*addressState
	submitState SubmitState
	seq         uint64
}

// New opens a form. A non-nil existing load puts the form in edit mode.
func New(geocoder geocode.Gateway, store Store, existing *model.Load, opts Options) *Controller {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		geocoder: geocoder,
		store:    store,
		debounce: debounce,
		listener: opts.Listener,
		log:      opts.Logger.With().Str("component", "loadform").Logger(),
		ctx:      ctx,
		cancel:   cancel,
		draft:    model.DraftFromLoad(existing),
		addresses: map[Field]*addressState{
			FieldCurrentLocation:     {state: ResolveIdle},
			FieldDestinationLocation: {state: ResolveIdle},
		},
		submitState: SubmitIdle,
		sent:        map[string]uint64{},
	}
	if existing != nil {
		c.loadID = existing.ID
	}
	return c
}

// UpdateField stores the raw text right away. Address fields additionally
// restart their own debounce timer; the other address field is untouched.
func (c *Controller) UpdateField(field Field, value string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err := c.setDraft(field, value); err != nil {
		c.mu.Unlock()
		return err
	}
	if !field.IsAddress() {
		c.mu.Unlock()
		return nil
	}

	a := c.addresses[field]
	a.gen++
	gen := a.gen
	if a.timer != nil {
		a.timer.Stop()
	}
	a.state = ResolvePending
	a.timer = time.AfterFunc(c.debounce, func() {
		c.resolve(field, value, gen)
	})
	seq := c.nextSeq()
	c.mu.Unlock()

	c.emitOrdered(string(field), seq, Event{Type: EventFieldState, Field: field, State: ResolvePending})
	return nil
}

func (c *Controller) setDraft(field Field, value string) error {
	switch field {
	case FieldCurrentLocation:
		c.draft.CurrentLocation = value
	case FieldDestinationLocation:
		c.draft.DestinationLocation = value
	case FieldWeight:
		c.draft.Weight = value
	case FieldLength:
		c.draft.Length = value
	case FieldPhone:
		c.draft.Phone = value
	case FieldEmail:
		c.draft.Email = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// live reports whether a result for (field, gen) may still be applied.
// Callers hold c.mu.
func (c *Controller) live(field Field, gen uint64) bool {
	return !c.closed && c.addresses[field].gen == gen
}

func (c *Controller) resolve(field Field, text string, gen uint64) {
	c.mu.Lock()
	if !c.live(field, gen) {
		c.mu.Unlock()
		return
	}
	c.addresses[field].state = ResolveResolving
	seq := c.nextSeq()
	c.mu.Unlock()
	c.emitOrdered(string(field), seq, Event{Type: EventFieldState, Field: field, State: ResolveResolving})

	loc, err := c.geocoder.Resolve(c.ctx, text)

	c.mu.Lock()
	if !c.live(field, gen) {
		c.mu.Unlock()
		c.log.Debug().Str("field", string(field)).Msg("dropping stale geocode result")
		return
	}
	a := c.addresses[field]
	if err != nil {
		// The previous location, if any, stays on the map.
		a.state = ResolveFailed
		seq = c.nextSeq()
		c.mu.Unlock()
		c.log.Warn().Err(err).Str("field", string(field)).Msg("failed to find location on map")
		c.emitOrdered(string(field), seq, Event{Type: EventGeocodeFailed, Field: field, State: ResolveFailed, Error: err.Error()})
		return
	}
	a.state = ResolveResolved
	a.location = loc
	vp := c.viewportLocked()
	seq = c.nextSeq()
	c.mu.Unlock()

	c.emitOrdered(string(field), seq, Event{Type: EventLocationResolved, Field: field, State: ResolveResolved, Location: loc})
	c.emitOrdered(viewportKey, seq, Event{Type: EventViewport, Viewport: &vp})
}

// nextSeq numbers a state transition. Callers hold c.mu.
func (c *Controller) nextSeq() uint64 {
	c.seq++
	return c.seq
}

func (c *Controller) viewportLocked() model.Viewport {
	return model.ViewportFor(
		c.addresses[FieldCurrentLocation].location,
		c.addresses[FieldDestinationLocation].location,
	)
}

// Viewport returns the current map region.
func (c *Controller) Viewport() model.Viewport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewportLocked()
}

// Location returns the resolved location of an address field, or nil.
func (c *Controller) Location(field Field) *model.ResolvedLocation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.addresses[field]; ok && a.location != nil {
		loc := *a.location
		return &loc
	}
	return nil
}

// State returns the resolve state of an address field.
func (c *Controller) State(field Field) ResolveState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.addresses[field]; ok {
		return a.state
	}
	return ResolveIdle
}

// Draft returns a copy of the raw form text.
func (c *Controller) Draft() model.LoadDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// LoadID is empty until the form edits or has created a load.
func (c *Controller) LoadID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadID
}

func (c *Controller) SubmitState() SubmitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitState
}

// Submit validates the draft and writes it: Update when the form has a load
// id, Create otherwise. Dismissing the form on success is up to the caller.
func (c *Controller) Submit(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	if c.submitState == SubmitSubmitting {
		c.mu.Unlock()
		return "", ErrSubmitInProgress
	}
	c.submitState = SubmitSubmitting
	draft := c.draft
	id := c.loadID
	c.mu.Unlock()
	c.emit(Event{Type: EventSubmitState, Submit: SubmitSubmitting})

	id, err := c.write(ctx, id, draft)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return id, err
	}
	if err != nil {
		c.submitState = SubmitFailed
		c.mu.Unlock()
		c.log.Error().Err(err).Msg("failed to save load")
		c.emit(Event{Type: EventSubmitState, Submit: SubmitFailed, Error: err.Error()})
		return "", err
	}
	c.submitState = SubmitDone
	c.loadID = id
	c.mu.Unlock()

	c.log.Info().Str("load_id", id).Msg("load saved")
	c.emit(Event{Type: EventSubmitState, Submit: SubmitDone, LoadID: id})
	return id, nil
}

func (c *Controller) write(ctx context.Context, id string, draft model.LoadDraft) (string, error) {
	fields, err := draft.Fields()
	if err != nil {
		return "", err
	}
	if id != "" {
		if err := c.store.Update(ctx, id, fields.Patch()); err != nil {
			return "", fmt.Errorf("failed to update load: %w", err)
		}
		return id, nil
	}
	newID, err := c.store.Create(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("failed to create load: %w", err)
	}
	return newID, nil
}

// Close tears the form down. Pending timers are stopped, in-flight geocode
// calls are cancelled, and results that still arrive are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for _, a := range c.addresses {
		if a.timer != nil {
			a.timer.Stop()
		}
	}
	c.mu.Unlock()
	c.cancel()
}

func (c *Controller) emit(ev Event) {
	if c.listener == nil {
		return
	}
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	c.listener(ev)
}

const viewportKey = "viewport"

// emitOrdered sends ev unless a later transition for key has already been
// sent, so the listener never sees a field or the viewport go backwards.
func (c *Controller) emitOrdered(key string, seq uint64, ev Event) {
	if c.listener == nil {
		return
	}
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	if seq <= c.sent[key] {
		return
	}
	c.sent[key] = seq
	c.listener(ev)
}
