package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"tripgraph/application/ports"
	"tripgraph/domain/config"
	"tripgraph/domain/core/aggregates"
	"tripgraph/domain/core/entities"
	domainservices "tripgraph/domain/services"
	pkgerrors "tripgraph/pkg/errors"
)

// ServiceOption configures a TimelineService
type ServiceOption func(*TimelineService)

// WithSyncMetrics records store call outcomes
func WithSyncMetrics(m ports.SyncMetrics) ServiceOption {
	return func(s *TimelineService) { s.metrics = m }
}

// WithCallTimeout bounds each store call made by the outbox worker
func WithCallTimeout(d time.Duration) ServiceOption {
	return func(s *TimelineService) { s.callTimeout = d }
}

// TimelineService is one planning session over one trip. Mutations apply to
// the local timeline first and return immediately; the matching store calls
// run afterwards on a single ordered worker. A failed store call is logged
// and counted but the local change stays; Refresh reloads from the store.
type TimelineService struct {
	mu       sync.Mutex
	timeline *aggregates.Timeline
	// bumped under mu by every committed change, store id adoption included
	mutations uint64

	gateway     ports.EventGateway
	metrics     ports.SyncMetrics
	logger      *zap.Logger
	callTimeout time.Duration

	outbox *syncOutbox

	// owned by the worker
	remoteIDs     map[string]string
	failedCreates map[string]struct{}

	reconcile chan struct{}
}

// NewTimelineService starts a session. A nil gateway runs the session
// offline: mutations stay local and nothing is sent to a store.
func NewTimelineService(
	timeline *aggregates.Timeline,
	gateway ports.EventGateway,
	logger *zap.Logger,
	opts ...ServiceOption,
) *TimelineService {
	s := &TimelineService{
		timeline:      timeline,
		gateway:       gateway,
		metrics:       noopMetrics{},
		logger:        logger,
		callTimeout:   10 * time.Second,
		outbox:        newSyncOutbox(),
		remoteIDs:     make(map[string]string),
		failedCreates: make(map[string]struct{}),
		reconcile:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	if gateway != nil {
		go s.syncLoop()
	} else {
		close(s.outbox.stopped)
	}
	return s
}

// Mode returns the edge strategy of the underlying timeline
func (s *TimelineService) Mode() config.ChainMode {
	return s.timeline.Mode()
}

// Load replaces the session state with the store's current events. The
// snapshot is discarded with a Conflict when the session changed while it
// was being fetched, since it may predate that change.
func (s *TimelineService) Load(ctx context.Context) error {
	if s.gateway == nil {
		return nil
	}

	s.mu.Lock()
	seen := s.mutations
	s.mu.Unlock()

	fetched, err := s.gateway.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch events: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mutations != seen {
		return pkgerrors.NewConflictError("timeline changed while fetching from the store")
	}
	if n := s.outbox.pending(); n > 0 {
		return pkgerrors.NewConflictError(fmt.Sprintf("%d store writes still pending", n))
	}
	if err := s.timeline.Load(fetched); err != nil {
		return err
	}
	s.commit()

	s.logger.Info("Timeline loaded",
		zap.Int("events", s.timeline.Len()),
		zap.String("mode", string(s.timeline.Mode())),
	)
	return nil
}

// Refresh waits for queued writes and then reloads from the store
func (s *TimelineService) Refresh(ctx context.Context) error {
	if err := s.Flush(ctx); err != nil {
		return err
	}
	return s.Load(ctx)
}

// Append adds an event to the end of the timeline
func (s *TimelineService) Append(ctx context.Context, draft entities.EventDraft) (*entities.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.timeline.Append(draft)
	if err != nil {
		return nil, err
	}
	s.commit()

	s.enqueue(syncOp{kind: syncCreate, eventID: event.ID().String(), event: event})
	return event, nil
}

// Rename changes the title of one event
func (s *TimelineService) Rename(ctx context.Context, id, title string) (*entities.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.timeline.RenameTitle(id, title); err != nil {
		return nil, err
	}
	s.commit()

	event, err := s.timeline.Get(id)
	if err != nil {
		return nil, err
	}
	s.enqueue(syncOp{kind: syncRename, eventID: id, title: event.Title()})
	return event, nil
}

// Remove deletes one event and repairs the edges around it
func (s *TimelineService) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.timeline.RemoveByID(id); err != nil {
		return err
	}
	s.commit()

	s.enqueue(syncOp{kind: syncRemove, eventID: id})
	return nil
}

// Connect draws a manual edge. Edges are session state and are not stored.
func (s *TimelineService) Connect(source, target string) (entities.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edge, err := s.timeline.Connect(source, target)
	if err != nil {
		return entities.Edge{}, err
	}
	s.commit()
	return edge, nil
}

// Disconnect removes one edge
func (s *TimelineService) Disconnect(edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.timeline.Disconnect(edgeID); err != nil {
		return err
	}
	s.commit()
	return nil
}

// Events returns the sequence
func (s *TimelineService) Events() []*entities.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Events()
}

// Graph returns the render model for the current state
func (s *TimelineService) Graph() domainservices.RenderModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domainservices.RenderTimeline(s.timeline)
}

// Pending returns the number of store calls not yet completed
func (s *TimelineService) Pending() int {
	return s.outbox.pending()
}

// Flush waits until every queued store call has completed
func (s *TimelineService) Flush(ctx context.Context) error {
	return s.outbox.drain(ctx)
}

// Close stops accepting store calls and waits for queued ones to finish
func (s *TimelineService) Close() {
	s.outbox.close()
	<-s.outbox.stopped
}

// RunReconciler reloads from the store every interval and after a failed
// store call, until ctx is done. A zero interval reconciles only on failure.
func (s *TimelineService) RunReconciler(ctx context.Context, interval time.Duration) {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
		case <-s.reconcile:
		}
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("Reconcile skipped", zap.Error(err))
		}
	}
}

func (s *TimelineService) enqueue(op syncOp) {
	if s.gateway == nil {
		return
	}
	op.enqueuedAt = time.Now()
	if !s.outbox.push(op) {
		s.logger.Warn("Session closed, store call dropped",
			zap.String("op", string(op.kind)),
			zap.String("eventID", op.eventID),
		)
		return
	}
	s.metrics.SetPending(s.outbox.pending())
}

// commit logs and clears the domain events of the last mutation.
// Caller holds s.mu.
func (s *TimelineService) commit() {
	s.mutations++
	for _, e := range s.timeline.GetUncommittedEvents() {
		s.logger.Debug("Timeline changed",
			zap.String("type", e.GetEventType()),
			zap.Int("version", e.GetVersion()),
		)
	}
	s.timeline.MarkEventsAsCommitted()
}

// syncLoop is the outbox worker
func (s *TimelineService) syncLoop() {
	defer close(s.outbox.stopped)

	for {
		op, ok := s.outbox.next()
		if !ok {
			return
		}
		s.process(op)
		s.outbox.done()
		s.metrics.SetPending(s.outbox.pending())
	}
}

func (s *TimelineService) process(op syncOp) {
	remoteID, skip := s.resolve(op.eventID)
	if skip {
		s.logger.Debug("Skipping store call for event whose create failed",
			zap.String("op", string(op.kind)),
			zap.String("eventID", op.eventID),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.callTimeout)
	defer cancel()

	start := time.Now()
	var err error
	switch op.kind {
	case syncCreate:
		var stored *entities.Event
		stored, err = s.gateway.Create(ctx, op.event)
		if err == nil {
			s.remoteIDs[op.eventID] = stored.ID().String()
			s.adopt(op.eventID, stored.ID().String())
		} else {
			s.failedCreates[op.eventID] = struct{}{}
		}
	case syncRename:
		err = s.gateway.UpdateTitle(ctx, remoteID, op.title)
	case syncRemove:
		err = s.gateway.Remove(ctx, remoteID)
	}
	s.metrics.ObserveSync(string(op.kind), err, time.Since(start))

	if err != nil {
		s.logger.Error("Store call failed; local state kept",
			zap.String("op", string(op.kind)),
			zap.String("eventID", op.eventID),
			zap.Duration("queued", start.Sub(op.enqueuedAt)),
			zap.Error(err),
		)
		s.requestReconcile()
		return
	}

	s.logger.Debug("Store call completed",
		zap.String("op", string(op.kind)),
		zap.String("eventID", remoteID),
		zap.Duration("took", time.Since(start)),
	)
}

// resolve maps a provisional id to its stored id. skip is true when the
// create for a provisional id failed, so the store never knew the event.
func (s *TimelineService) resolve(id string) (remoteID string, skip bool) {
	if _, failed := s.failedCreates[id]; failed {
		return "", true
	}
	if mapped, ok := s.remoteIDs[id]; ok {
		return mapped, false
	}
	return id, false
}

// adopt swaps a provisional id for the stored one in the live timeline
func (s *TimelineService) adopt(localID, remoteID string) {
	if localID == remoteID {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.timeline.Reassign(localID, remoteID); err != nil {
		// the event was removed locally before the store answered
		s.logger.Debug("Provisional id not re-keyed",
			zap.String("localID", localID),
			zap.String("remoteID", remoteID),
			zap.Error(err),
		)
		return
	}
	s.commit()
}

func (s *TimelineService) requestReconcile() {
	select {
	case s.reconcile <- struct{}{}:
	default:
	}
}

type noopMetrics struct{}

func (noopMetrics) ObserveSync(string, error, time.Duration) {}
func (noopMetrics) SetPending(int)                           {}
