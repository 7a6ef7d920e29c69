// Package mocks provides testify mocks of the application ports.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
	"tripgraph/domain/events"
)

// MockEventRepository mocks ports.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) List(ctx context.Context) ([]*entities.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Event), args.Error(1)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id valueobjects.EventID) (*entities.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Event), args.Error(1)
}

func (m *MockEventRepository) Create(ctx context.Context, event *entities.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) UpdateTitle(ctx context.Context, id valueobjects.EventID, title string) error {
	args := m.Called(ctx, id, title)
	return args.Error(0)
}

func (m *MockEventRepository) Delete(ctx context.Context, id valueobjects.EventID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEventGateway mocks ports.EventGateway
type MockEventGateway struct {
	mock.Mock
}

func (m *MockEventGateway) FetchAll(ctx context.Context) ([]*entities.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Event), args.Error(1)
}

func (m *MockEventGateway) Create(ctx context.Context, event *entities.Event) (*entities.Event, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Event), args.Error(1)
}

func (m *MockEventGateway) UpdateTitle(ctx context.Context, id, title string) error {
	args := m.Called(ctx, id, title)
	return args.Error(0)
}

func (m *MockEventGateway) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEventPublisher mocks ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

// RecordingMetrics is a ports.SyncMetrics that remembers what it saw
type RecordingMetrics struct {
	mu       sync.Mutex
	Ops      []string
	Failures []string
}

func (r *RecordingMetrics) ObserveSync(operation string, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Ops = append(r.Ops, operation)
	if err != nil {
		r.Failures = append(r.Failures, operation)
	}
}

func (r *RecordingMetrics) SetPending(int) {}

// Snapshot returns copies of the recorded operations and failures
func (r *RecordingMetrics) Snapshot() (ops, failures []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Ops...), append([]string(nil), r.Failures...)
}
