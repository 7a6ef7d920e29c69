package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tripgraph/application/queries"
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
	pkgerrors "tripgraph/pkg/errors"
	"tripgraph/tests/fixtures"
	"tripgraph/tests/mocks"
)

type stubCache struct {
	items map[string]interface{}
	sets  int
}

func (c *stubCache) Get(_ context.Context, key string) (interface{}, bool) {
	v, ok := c.items[key]
	return v, ok
}

func (c *stubCache) Set(_ context.Context, key string, value interface{}, _ int) error {
	c.items[key] = value
	c.sets++
	return nil
}

func (c *stubCache) Delete(_ context.Context, key string) error {
	delete(c.items, key)
	return nil
}

func (c *stubCache) Clear(context.Context) error { return nil }

func TestListEventsHandler_CachesListing(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockEventRepository)
	repo.On("List", ctx).Return(fixtures.Sequence("a", "b"), nil).Once()
	cache := &stubCache{items: map[string]interface{}{}}

	handler := NewListEventsHandler(repo, cache, 30, zap.NewNop())

	first, err := handler.Handle(ctx, queries.ListEventsQuery{})
	require.NoError(t, err)
	second, err := handler.Handle(ctx, queries.ListEventsQuery{})
	require.NoError(t, err)

	assert.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.sets)
	repo.AssertExpectations(t)
}

// racingRepo rotates the listing generation while List is reading, the way
// a write landing between the read and the cache fill would
type racingRepo struct {
	*mocks.MockEventRepository
	cache  *stubCache
	rotate bool
}

func (r *racingRepo) List(ctx context.Context) ([]*entities.Event, error) {
	if r.rotate {
		r.cache.items[queries.ListEventsGenerationKey] = "after-write"
		r.rotate = false
	}
	return r.MockEventRepository.List(ctx)
}

func TestListEventsHandler_StaleFillIsNotServed(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(mocks.MockEventRepository)
	mockRepo.On("List", ctx).Return(fixtures.Sequence("a"), nil).Once()
	mockRepo.On("List", ctx).Return(fixtures.Sequence("a", "b"), nil).Once()
	cache := &stubCache{items: map[string]interface{}{}}
	repo := &racingRepo{MockEventRepository: mockRepo, cache: cache, rotate: true}

	handler := NewListEventsHandler(repo, cache, 30, zap.NewNop())

	stale, err := handler.Handle(ctx, queries.ListEventsQuery{})
	require.NoError(t, err)
	assert.Len(t, stale, 1)

	fresh, err := handler.Handle(ctx, queries.ListEventsQuery{})
	require.NoError(t, err)
	assert.Len(t, fresh, 2, "listing cached under an old generation is refetched")
	mockRepo.AssertExpectations(t)
}

func TestListEventsHandler_NoCacheWhenTTLZero(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockEventRepository)
	repo.On("List", ctx).Return(fixtures.Sequence("a"), nil).Twice()

	handler := NewListEventsHandler(repo, &stubCache{items: map[string]interface{}{}}, 0, zap.NewNop())
	_, err := handler.Handle(ctx, queries.ListEventsQuery{})
	require.NoError(t, err)
	_, err = handler.Handle(ctx, queries.ListEventsQuery{})
	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestGetEventHandler(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockEventRepository)
	ev := fixtures.NewEventBuilder().WithID("e1").Build()
	repo.On("GetByID", ctx, valueobjects.MustEventID("e1")).Return(ev, nil)
	repo.On("GetByID", ctx, valueobjects.MustEventID("e2")).Return(nil, pkgerrors.NewNotFoundError("event e2"))

	handler := NewGetEventHandler(repo, zap.NewNop())

	got, err := handler.Handle(ctx, queries.GetEventQuery{EventID: "e1"})
	require.NoError(t, err)
	assert.Equal(t, "e1", got.ID().String())

	_, err = handler.Handle(ctx, queries.GetEventQuery{EventID: "e2"})
	assert.True(t, pkgerrors.IsNotFound(err))

	assert.True(t, pkgerrors.IsValidation(queries.GetEventQuery{}.Validate()))
}
