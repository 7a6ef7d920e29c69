package bus

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Query is a read request. Queries never change stored events.
type Query interface {
	Validate() error
}

// QueryHandler answers one query type
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// QueryHandlerFunc lets a plain function serve as a QueryHandler
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

// Handle implements QueryHandler
func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// Middleware wraps a query handler
type Middleware func(next QueryHandler) QueryHandler

// QueryBus routes queries by their concrete type
type QueryBus struct {
	mu          sync.RWMutex
	handlers    map[reflect.Type]QueryHandler
	middlewares []Middleware
}

// NewQueryBus creates a bus. Middlewares apply to handlers registered
// afterwards, the first one outermost.
func NewQueryBus(middlewares ...Middleware) *QueryBus {
	return &QueryBus{
		handlers:    make(map[reflect.Type]QueryHandler),
		middlewares: middlewares,
	}
}

// Register binds handler to the type of sample
func (b *QueryBus) Register(sample Query, handler QueryHandler) error {
	t := reflect.TypeOf(sample)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.handlers[t]; taken {
		return fmt.Errorf("query type %s already has a handler", t.Name())
	}
	for i := len(b.middlewares) - 1; i >= 0; i-- {
		handler = b.middlewares[i](handler)
	}
	b.handlers[t] = handler
	return nil
}

// Ask validates query and returns its handler's result
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	b.mu.RLock()
	handler, ok := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no handler for query %T", query)
	}

	result, err := handler.Handle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %T: %w", query, err)
	}
	return result, nil
}

// LoggingMiddleware logs each query at debug level and failures at warn
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			start := time.Now()
			result, err := next.Handle(ctx, query)

			fields := []zap.Field{
				zap.String("type", reflect.TypeOf(query).Name()),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.Warn("Query failed", append(fields, zap.Error(err))...)
			} else {
				logger.Debug("Query answered", fields...)
			}
			return result, err
		})
	}
}
