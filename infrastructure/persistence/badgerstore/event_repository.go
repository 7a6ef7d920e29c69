// Package badgerstore stores events in an embedded Badger database. With an empty
// directory the database lives in memory, which is how development and tests
// run the events API without AWS.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"tripgraph/application/ports"
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
	pkgerrors "tripgraph/pkg/errors"
)

var eventPrefix = []byte("event/")

func eventKey(id string) []byte {
	return append(append([]byte{}, eventPrefix...), id...)
}

// Open opens a Badger database at dir, or in memory when dir is empty
func Open(dir string, logger *zap.Logger) (*badger.DB, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", dir, err)
	}
	logger.Info("Opened badger event store",
		zap.String("dir", dir),
		zap.Bool("inMemory", dir == ""),
	)
	return db, nil
}

// EventRepository implements ports.EventRepository on Badger
type EventRepository struct {
	db     *badger.DB
	logger *zap.Logger
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *badger.DB, logger *zap.Logger) ports.EventRepository {
	return &EventRepository{db: db, logger: logger}
}

// List returns all events ordered by creation
func (r *EventRepository) List(ctx context.Context) ([]*entities.Event, error) {
	var result []*entities.Event

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = eventPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			err := item.Value(func(val []byte) error {
				event := &entities.Event{}
				if err := json.Unmarshal(val, event); err != nil {
					r.logger.Warn("Skipping unreadable event",
						zap.ByteString("key", item.Key()),
						zap.Error(err),
					)
					return nil
				}
				result = append(result, event)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list events", err)
	}

	entities.SortByCreation(result)
	return result, nil
}

// GetByID retrieves one event
func (r *EventRepository) GetByID(ctx context.Context, id valueobjects.EventID) (*entities.Event, error) {
	event := &entities.Event{}
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(eventKey(id.String()))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, event)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, pkgerrors.NewNotFoundError("event")
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get event", err)
	}
	return event, nil
}

// Create stores a new event; the id must not exist yet
func (r *EventRepository) Create(ctx context.Context, event *entities.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		key := eventKey(event.ID().String())
		if _, err := txn.Get(key); err == nil {
			return pkgerrors.NewConflictError(fmt.Sprintf("event %s already exists", event.ID()))
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return r.storeError("create event", err)
	}

	r.logger.Info("Saved event",
		zap.String("eventID", event.ID().String()),
		zap.String("title", event.Title()),
	)
	return nil
}

// UpdateTitle changes the title of an existing event
func (r *EventRepository) UpdateTitle(ctx context.Context, id valueobjects.EventID, title string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		key := eventKey(id.String())
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		stored := &entities.Event{}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, stored)
		}); err != nil {
			return err
		}

		renamed := entities.ReconstructEvent(
			stored.ID(), title, stored.Description(),
			stored.Position(), stored.Color(), stored.CreatedAt(),
		)
		data, err := json.Marshal(renamed)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return r.storeError("update event title", err)
	}

	r.logger.Info("Renamed event", zap.String("eventID", id.String()))
	return nil
}

// Delete removes an existing event
func (r *EventRepository) Delete(ctx context.Context, id valueobjects.EventID) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		key := eventKey(id.String())
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return r.storeError("delete event", err)
	}

	r.logger.Info("Deleted event", zap.String("eventID", id.String()))
	return nil
}

func (r *EventRepository) storeError(op string, err error) error {
	if pkgerrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return pkgerrors.NewNotFoundError("event")
	}
	r.logger.Error("Badger operation failed", zap.String("operation", op), zap.Error(err))
	return pkgerrors.NewDatabaseError(op, err)
}
