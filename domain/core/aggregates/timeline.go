package aggregates

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"tripgraph/domain/config"
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/validators"
	"tripgraph/domain/core/valueobjects"
	"tripgraph/domain/events"
	pkgerrors "tripgraph/pkg/errors"
)

// TimelineState tracks whether a mutation is in progress
type TimelineState string

const (
	StateIdle     TimelineState = "idle"
	StateMutating TimelineState = "mutating"
)

// Option configures a Timeline
type Option func(*Timeline)

// WithRand injects the color source
func WithRand(rng *rand.Rand) Option {
	return func(t *Timeline) { t.rng = rng }
}

// WithClock injects the creation-time source
func WithClock(now func() time.Time) Option {
	return func(t *Timeline) { t.now = now }
}

// WithID names the timeline; used as aggregate id on domain events
func WithID(id string) Option {
	return func(t *Timeline) { t.id = id }
}

// Timeline is the aggregate root for one trip: the ordered event sequence
// plus the edges between events. Every mutation applies the sequence change
// and the edge repair together before returning.
type Timeline struct {
	id          string
	cfg         *config.DomainConfig
	validator   *validators.EventValidator
	events      []*entities.Event
	index       map[string]int
	edges       []entities.Edge
	severed     map[edgeEnds]struct{}
	nextLocalID int
	rng         *rand.Rand
	now         func() time.Time
	state       TimelineState
	version     int
	pending     []events.DomainEvent
}

// NewTimeline creates an empty timeline
func NewTimeline(cfg *config.DomainConfig, opts ...Option) *Timeline {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	t := &Timeline{
		id:      "default",
		cfg:     cfg,
		events:  []*entities.Event{},
		index:   make(map[string]int),
		edges:   []entities.Edge{},
		severed: make(map[edgeEnds]struct{}),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
		state:   StateIdle,
		pending: []events.DomainEvent{},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.validator = validators.NewEventValidator(cfg)
	return t
}

// ID returns the timeline identifier
func (t *Timeline) ID() string { return t.id }

// Mode returns the edge strategy
func (t *Timeline) Mode() config.ChainMode { return t.cfg.ChainMode }

// State returns idle or mutating
func (t *Timeline) State() TimelineState { return t.state }

// Version increments on every successful mutation
func (t *Timeline) Version() int { return t.version }

// Len returns the number of events
func (t *Timeline) Len() int { return len(t.events) }

// Events returns copies of the events in sequence order
func (t *Timeline) Events() []*entities.Event {
	out := make([]*entities.Event, len(t.events))
	for i, e := range t.events {
		out[i] = e.Clone()
	}
	return out
}

// Edges returns the current edge set. In derived mode this is the chain
// over the sequence; in explicit mode it is the stored edge state.
func (t *Timeline) Edges() []entities.Edge {
	if t.cfg.ChainMode == config.ChainModeDerived {
		return entities.ChainEdges(t.events)
	}
	out := make([]entities.Edge, len(t.edges))
	copy(out, t.edges)
	return out
}

// Get returns a copy of the event with the given id
func (t *Timeline) Get(id string) (*entities.Event, error) {
	i, ok := t.index[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("event %s", id))
	}
	return t.events[i].Clone(), nil
}

// IndexOf returns the position of id in the sequence, or -1
func (t *Timeline) IndexOf(id string) int {
	if i, ok := t.index[id]; ok {
		return i
	}
	return -1
}

// Contains reports whether id is in the sequence
func (t *Timeline) Contains(id string) bool {
	_, ok := t.index[id]
	return ok
}

// Load replaces the sequence with records from the store, ordered by
// createdAt ascending with ties broken by id. Field values are not
// validated; duplicate or empty ids are rejected.
func (t *Timeline) Load(records []*entities.Event) error {
	if err := t.begin(); err != nil {
		return err
	}
	defer t.end()

	seen := make(map[string]struct{}, len(records))
	loaded := make([]*entities.Event, 0, len(records))
	for _, r := range records {
		if r == nil || r.ID().IsZero() {
			return pkgerrors.NewValidationError("event id cannot be empty")
		}
		if _, dup := seen[r.ID().String()]; dup {
			return pkgerrors.NewValidationError(fmt.Sprintf("duplicate event id %s", r.ID()))
		}
		seen[r.ID().String()] = struct{}{}
		loaded = append(loaded, r.Clone())
	}

	entities.SortByCreation(loaded)

	t.events = loaded
	t.reindex()

	if t.cfg.ChainMode == config.ChainModeExplicit {
		for ends := range t.severed {
			if !t.Contains(ends.source) || !t.Contains(ends.target) {
				delete(t.severed, ends)
			}
		}
		var edges []entities.Edge
		known := make(map[string]struct{}, len(t.events))
		for _, e := range entities.ChainEdges(t.events) {
			if _, cut := t.severed[endsOf(e)]; cut {
				continue
			}
			known[e.ID] = struct{}{}
			edges = append(edges, e)
		}
		for _, e := range t.edges {
			if e.Kind != entities.EdgeKindManual {
				continue
			}
			if !t.Contains(e.Source) || !t.Contains(e.Target) {
				continue
			}
			if _, dup := known[e.ID]; dup {
				continue
			}
			known[e.ID] = struct{}{}
			edges = append(edges, e)
		}
		if edges == nil {
			edges = []entities.Edge{}
		}
		t.edges = edges
	} else {
		t.edges = []entities.Edge{}
	}

	t.version++
	t.addEvent(events.NewTimelineLoaded(t.id, t.version, len(t.events), len(t.Edges()), t.now()))
	return nil
}

// Append adds a new event at the end of the sequence. The event is placed
// one horizontal step right of the previous last event, or at the origin
// when the timeline is empty.
func (t *Timeline) Append(draft entities.EventDraft) (*entities.Event, error) {
	if err := t.begin(); err != nil {
		return nil, err
	}
	defer t.end()

	if len(t.events) >= t.cfg.MaxEventsPerTimeline {
		return nil, pkgerrors.NewValidationError("timeline is full").
			WithDetails(map[string]interface{}{"max": t.cfg.MaxEventsPerTimeline})
	}

	id, err := t.resolveID(draft.ID)
	if err != nil {
		return nil, err
	}

	title := draft.Title
	if strings.TrimSpace(title) == "" {
		title = t.cfg.DefaultTitle
	}

	position := t.nextPosition()
	if draft.Position != nil {
		position = *draft.Position
	}

	if err := t.validator.Validate(validators.EventFields{
		Title:       title,
		Description: draft.Description,
		Position:    position,
		Color:       draft.Color,
	}); err != nil {
		return nil, err
	}

	color := valueobjects.RandomColor(t.rng)
	if draft.Color != "" {
		color, err = valueobjects.ParseColor(draft.Color)
		if err != nil {
			return nil, pkgerrors.NewValidationError(err.Error())
		}
	}

	createdAt := draft.CreatedAt
	if createdAt.IsZero() {
		createdAt = t.now()
	}

	event, err := entities.NewEvent(id, title, draft.Description, position, color, createdAt, t.cfg)
	if err != nil {
		return nil, err
	}

	var last *entities.Event
	if n := len(t.events); n > 0 {
		last = t.events[n-1]
	}

	t.events = append(t.events, event)
	t.index[id.String()] = len(t.events) - 1
	t.version++
	t.addEvent(events.NewTimelineEventAdded(t.id, t.version, id, position, t.now()))

	if t.cfg.ChainMode == config.ChainModeExplicit && last != nil {
		t.storeEdge(entities.NewEdge(last.ID(), id, entities.EdgeKindChain))
	}

	return event.Clone(), nil
}

// RenameTitle replaces the title of one event. Edges are untouched.
func (t *Timeline) RenameTitle(id, title string) error {
	if err := t.begin(); err != nil {
		return err
	}
	defer t.end()

	i, ok := t.index[id]
	if !ok {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("event %s", id))
	}

	if err := t.validator.ValidateTitle(title); err != nil {
		return err
	}

	event := t.events[i]
	oldTitle := event.Title()
	if err := event.Rename(title, t.cfg); err != nil {
		return err
	}

	t.version++
	t.addEvent(events.NewTimelineEventRenamed(t.id, t.version, event.ID(), oldTitle, event.Title(), t.now()))
	return nil
}

// RemoveByID removes one event, keeping the relative order of the rest.
// In explicit mode every edge touching the event is dropped and, when the
// event had both a predecessor and a successor, one bridge edge
// predecessor -> successor is added unless it already exists.
func (t *Timeline) RemoveByID(id string) error {
	if err := t.begin(); err != nil {
		return err
	}
	defer t.end()

	i, ok := t.index[id]
	if !ok {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("event %s", id))
	}

	n := len(t.events)
	removed := t.events[i]
	var pred, succ *entities.Event
	if i > 0 && i < n-1 {
		pred, succ = t.events[i-1], t.events[i+1]
	}

	t.events = append(t.events[:i:i], t.events[i+1:]...)
	t.reindex()
	t.version++
	t.addEvent(events.NewTimelineEventRemoved(t.id, t.version, removed.ID(), i, t.now()))

	if t.cfg.ChainMode != config.ChainModeExplicit {
		return nil
	}

	kept := t.edges[:0:0]
	for _, e := range t.edges {
		if e.Touches(removed.ID()) {
			t.addEvent(events.NewTimelineEdgeRemoved(t.id, t.version, e.ID, t.now()))
			continue
		}
		kept = append(kept, e)
	}
	t.edges = kept

	if pred != nil && succ != nil {
		t.storeEdge(entities.NewEdge(pred.ID(), succ.ID(), entities.EdgeKindBridge))
	}
	return nil
}

// Reassign replaces a provisional id with the id assigned by the store.
// Edge endpoints, and therefore edge ids, follow the new id.
func (t *Timeline) Reassign(oldID, newID string) error {
	if err := t.begin(); err != nil {
		return err
	}
	defer t.end()

	i, ok := t.index[oldID]
	if !ok {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("event %s", oldID))
	}
	if oldID == newID {
		return nil
	}
	if _, taken := t.index[newID]; taken {
		return pkgerrors.NewConflictError(fmt.Sprintf("event %s already exists", newID))
	}
	to, err := valueobjects.NewEventIDFromString(newID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	from := t.events[i].ID()
	t.events[i] = t.events[i].WithID(to)
	t.reindex()
	for k, e := range t.edges {
		if e.Touches(from) {
			t.edges[k] = e.Rekey(from, to)
		}
	}
	for ends := range t.severed {
		if ends.source == oldID || ends.target == oldID {
			delete(t.severed, ends)
			t.severed[ends.rekey(oldID, newID)] = struct{}{}
		}
	}

	t.version++
	t.addEvent(events.NewTimelineEventReassigned(t.id, t.version, from, to, t.now()))
	return nil
}

// Connect adds a manual edge source -> target. Only explicit mode stores
// manual edges.
func (t *Timeline) Connect(source, target string) (entities.Edge, error) {
	if err := t.begin(); err != nil {
		return entities.Edge{}, err
	}
	defer t.end()

	if t.cfg.ChainMode != config.ChainModeExplicit {
		return entities.Edge{}, pkgerrors.NewValidationError("manual connections require explicit chain mode")
	}
	si, ok := t.index[source]
	if !ok {
		return entities.Edge{}, pkgerrors.NewNotFoundError(fmt.Sprintf("event %s", source))
	}
	ti, ok := t.index[target]
	if !ok {
		return entities.Edge{}, pkgerrors.NewNotFoundError(fmt.Sprintf("event %s", target))
	}
	if source == target && !t.cfg.AllowSelfConnections {
		return entities.Edge{}, pkgerrors.NewValidationError("cannot connect an event to itself")
	}

	edge := entities.NewEdge(t.events[si].ID(), t.events[ti].ID(), entities.EdgeKindManual)
	if t.hasEdge(edge.ID) {
		return entities.Edge{}, pkgerrors.NewConflictError(fmt.Sprintf("edge %s already exists", edge.ID))
	}

	t.version++
	t.storeEdge(edge)
	return edge, nil
}

// Disconnect removes one stored edge. A removed chain or bridge edge is
// not re-seeded by later loads while both its endpoints exist.
func (t *Timeline) Disconnect(edgeID string) error {
	if err := t.begin(); err != nil {
		return err
	}
	defer t.end()

	if t.cfg.ChainMode != config.ChainModeExplicit {
		return pkgerrors.NewValidationError("edges are derived from the sequence in derived chain mode")
	}
	for i, e := range t.edges {
		if e.ID == edgeID {
			if e.Kind != entities.EdgeKindManual {
				t.severed[endsOf(e)] = struct{}{}
			}
			t.edges = append(t.edges[:i:i], t.edges[i+1:]...)
			t.version++
			t.addEvent(events.NewTimelineEdgeRemoved(t.id, t.version, edgeID, t.now()))
			return nil
		}
	}
	return pkgerrors.NewNotFoundError(fmt.Sprintf("edge %s", edgeID))
}

// Validate checks the structural invariants of the timeline
func (t *Timeline) Validate() error {
	if len(t.index) != len(t.events) {
		return pkgerrors.NewInternalError("event index out of sync")
	}
	for i, e := range t.events {
		if t.index[e.ID().String()] != i {
			return pkgerrors.NewInternalError(fmt.Sprintf("event %s indexed at wrong position", e.ID()))
		}
	}
	seen := make(map[string]struct{}, len(t.edges))
	for _, e := range t.Edges() {
		if !t.Contains(e.Source) || !t.Contains(e.Target) {
			return pkgerrors.NewInternalError(fmt.Sprintf("edge %s has a dangling endpoint", e.ID))
		}
		if _, dup := seen[e.ID]; dup {
			return pkgerrors.NewInternalError(fmt.Sprintf("edge %s stored twice", e.ID))
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// GetUncommittedEvents returns domain events recorded since the last commit
func (t *Timeline) GetUncommittedEvents() []events.DomainEvent {
	return t.pending
}

// MarkEventsAsCommitted clears recorded domain events
func (t *Timeline) MarkEventsAsCommitted() {
	t.pending = []events.DomainEvent{}
}

func (t *Timeline) begin() error {
	if t.state == StateMutating {
		return pkgerrors.NewConflictError("timeline is already being mutated")
	}
	t.state = StateMutating
	return nil
}

func (t *Timeline) end() {
	t.state = StateIdle
}

func (t *Timeline) reindex() {
	t.index = make(map[string]int, len(t.events))
	for i, e := range t.events {
		t.index[e.ID().String()] = i
	}
}

func (t *Timeline) nextPosition() valueobjects.Position {
	if n := len(t.events); n > 0 {
		return t.events[n-1].Position().Offset(t.cfg.HorizontalStep, 0)
	}
	return valueobjects.Position{X: t.cfg.OriginX, Y: t.cfg.OriginY}
}

func (t *Timeline) resolveID(requested string) (valueobjects.EventID, error) {
	if strings.TrimSpace(requested) != "" {
		id, err := valueobjects.NewEventIDFromString(requested)
		if err != nil {
			return valueobjects.EventID{}, pkgerrors.NewValidationError(err.Error())
		}
		if t.Contains(id.String()) {
			return valueobjects.EventID{}, pkgerrors.NewConflictError(fmt.Sprintf("event %s already exists", id))
		}
		return id, nil
	}
	for {
		t.nextLocalID++
		candidate := fmt.Sprintf("%s%d", t.cfg.ProvisionalIDPrefix, t.nextLocalID)
		if !t.Contains(candidate) {
			return valueobjects.MustEventID(candidate), nil
		}
	}
}

func (t *Timeline) hasEdge(edgeID string) bool {
	for _, e := range t.edges {
		if e.ID == edgeID {
			return true
		}
	}
	return false
}

func (t *Timeline) storeEdge(edge entities.Edge) {
	if t.hasEdge(edge.ID) {
		return
	}
	delete(t.severed, endsOf(edge))
	t.edges = append(t.edges, edge)
	t.addEvent(events.NewTimelineEdgeAdded(t.id, t.version, edge.ID, string(edge.Kind), t.now()))
}

// edgeEnds identifies an edge by its endpoints
type edgeEnds struct {
	source, target string
}

func endsOf(e entities.Edge) edgeEnds {
	return edgeEnds{source: e.Source, target: e.Target}
}

func (e edgeEnds) rekey(oldID, newID string) edgeEnds {
	if e.source == oldID {
		e.source = newID
	}
	if e.target == oldID {
		e.target = newID
	}
	return e
}

func (t *Timeline) addEvent(event events.DomainEvent) {
	t.pending = append(t.pending, event)
}
