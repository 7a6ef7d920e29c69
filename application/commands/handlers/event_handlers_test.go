package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tripgraph/application/commands"
	"tripgraph/application/queries"
	"tripgraph/domain/config"
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
	pkgerrors "tripgraph/pkg/errors"
	"tripgraph/tests/mocks"
)

type mapCache struct{ items map[string]interface{} }

func newMapCache() *mapCache { return &mapCache{items: map[string]interface{}{}} }

func (c *mapCache) Get(_ context.Context, key string) (interface{}, bool) {
	v, ok := c.items[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ int) error {
	c.items[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	delete(c.items, key)
	return nil
}

func (c *mapCache) Clear(context.Context) error {
	c.items = map[string]interface{}{}
	return nil
}

func TestCreateEventHandler_Handle_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mocks.MockEventRepository)
	publisher := new(mocks.MockEventPublisher)
	cache := newMapCache()
	require.NoError(t, cache.Set(ctx, queries.ListEventsCacheKey, []*entities.Event{}, 60))

	at := time.Date(2026, 4, 5, 6, 7, 8, 0, time.UTC)
	cmd := commands.CreateEventCommand{
		EventID:   "0b7c1f2e-0000-4000-8000-000000000001",
		Title:     "Ferry",
		X:         200,
		Y:         50,
		Color:     "#0A0B0C",
		CreatedAt: at,
	}

	repo.On("Create", ctx, mock.MatchedBy(func(e *entities.Event) bool {
		return e.ID().String() == cmd.EventID &&
			e.Title() == "Ferry" &&
			e.Color() == "#0a0b0c" &&
			e.Position() == valueobjects.Position{X: 200, Y: 50} &&
			e.CreatedAt().Equal(at)
	})).Return(nil)
	publisher.On("Publish", ctx, mock.Anything).Return(nil)

	handler := NewCreateEventHandler(repo, publisher, cache, config.DefaultDomainConfig(), zap.NewNop())

	// Act
	err := handler.Handle(ctx, cmd)

	// Assert
	require.NoError(t, err)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
	_, cached := cache.Get(ctx, queries.ListEventsCacheKey)
	assert.False(t, cached, "list cache is invalidated")
	token, ok := cache.Get(ctx, queries.ListEventsGenerationKey)
	require.True(t, ok)
	assert.NotEmpty(t, token)
}

func TestCreateEventHandler_Handle_DefaultsColorAndTime(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockEventRepository)
	var stored *entities.Event
	repo.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*entities.Event)
	}).Return(nil)

	handler := NewCreateEventHandler(repo, nil, nil, nil, zap.NewNop())

	err := handler.Handle(ctx, commands.CreateEventCommand{EventID: "e1", Title: "Walk"})

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Color().IsValid())
	assert.False(t, stored.CreatedAt().IsZero())
}

func TestCreateEventHandler_Handle_RepositoryFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockEventRepository)
	publisher := new(mocks.MockEventPublisher)
	repo.On("Create", ctx, mock.Anything).Return(pkgerrors.NewDatabaseError("PutItem", errors.New("throttled")))

	handler := NewCreateEventHandler(repo, publisher, nil, nil, zap.NewNop())

	err := handler.Handle(ctx, commands.CreateEventCommand{EventID: "e1", Title: "Walk"})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestRenameEventHandler_Handle(t *testing.T) {
	tests := []struct {
		name     string
		repoErr  error
		wantNF   bool
		wantPubl bool
	}{
		{name: "success", wantPubl: true},
		{name: "not found", repoErr: pkgerrors.NewNotFoundError("event e1"), wantNF: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := new(mocks.MockEventRepository)
			publisher := new(mocks.MockEventPublisher)
			repo.On("UpdateTitle", ctx, valueobjects.MustEventID("e1"), "Beach").Return(tt.repoErr)
			if tt.wantPubl {
				publisher.On("Publish", ctx, mock.Anything).Return(errors.New("bus down"))
			}

			handler := NewRenameEventHandler(repo, publisher, nil, zap.NewNop())
			err := handler.Handle(ctx, commands.RenameEventCommand{EventID: "e1", Title: "  Beach "})

			if tt.wantNF {
				assert.True(t, pkgerrors.IsNotFound(err))
			} else {
				// a failed publish does not fail the command
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestDeleteEventHandler_Handle_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockEventRepository)
	repo.On("Delete", ctx, valueobjects.MustEventID("gone")).Return(pkgerrors.NewNotFoundError("event gone"))

	handler := NewDeleteEventHandler(repo, nil, nil, zap.NewNop())
	err := handler.Handle(ctx, commands.DeleteEventCommand{EventID: "gone"})

	assert.True(t, pkgerrors.IsNotFound(err))
	repo.AssertExpectations(t)
}

func TestCommandValidation(t *testing.T) {
	assert.True(t, pkgerrors.IsValidation(commands.CreateEventCommand{EventID: "x", Title: " "}.Validate()))
	assert.True(t, pkgerrors.IsValidation(commands.CreateEventCommand{EventID: "x", Title: "ok", Color: "#abc"}.Validate()))
	assert.NoError(t, commands.CreateEventCommand{EventID: "x", Title: "ok"}.Validate())
	assert.True(t, pkgerrors.IsValidation(commands.RenameEventCommand{EventID: "x"}.Validate()))
	assert.True(t, pkgerrors.IsValidation(commands.DeleteEventCommand{}.Validate()))
}
