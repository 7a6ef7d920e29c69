package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"tripgraph/application/ports"
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
	pkgerrors "tripgraph/pkg/errors"
	"tripgraph/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	entityTypeEvent = "EVENT"
	metadataSK      = "METADATA"
)

// API is the subset of the DynamoDB client the repository uses
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// EventRepository implements ports.EventRepository on a single DynamoDB table
type EventRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(client API, tableName string, logger *zap.Logger) ports.EventRepository {
	return &EventRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// eventItem represents the DynamoDB item structure for an event
type eventItem struct {
	PK          string  `dynamodbav:"PK"`
	SK          string  `dynamodbav:"SK"`
	EntityType  string  `dynamodbav:"EntityType"`
	EventID     string  `dynamodbav:"EventID"`
	Title       string  `dynamodbav:"Title"`
	Description string  `dynamodbav:"Description"`
	X           float64 `dynamodbav:"X"`
	Y           float64 `dynamodbav:"Y"`
	Color       string  `dynamodbav:"Color"`
	CreatedAt   string  `dynamodbav:"CreatedAt"`
}

func eventPK(id string) string {
	return fmt.Sprintf("EVENT#%s", id)
}

func itemKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: eventPK(id)},
		"SK": &types.AttributeValueMemberS{Value: metadataSK},
	}
}

func toItem(event *entities.Event) eventItem {
	return eventItem{
		PK:          eventPK(event.ID().String()),
		SK:          metadataSK,
		EntityType:  entityTypeEvent,
		EventID:     event.ID().String(),
		Title:       event.Title(),
		Description: event.Description(),
		X:           event.Position().X,
		Y:           event.Position().Y,
		Color:       event.Color().String(),
		CreatedAt:   utils.FormatTimestamp(event.CreatedAt()),
	}
}

func (item eventItem) toEvent() (*entities.Event, error) {
	id, err := valueobjects.NewEventIDFromString(item.EventID)
	if err != nil {
		return nil, err
	}
	createdAt, err := utils.ParseTimestamp(item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("event %s has invalid CreatedAt: %w", item.EventID, err)
	}
	return entities.ReconstructEvent(
		id,
		item.Title,
		item.Description,
		valueobjects.Position{X: item.X, Y: item.Y},
		valueobjects.Color(item.Color),
		createdAt,
	), nil
}

// List scans every event item and orders them by creation
func (r *EventRepository) List(ctx context.Context) ([]*entities.Event, error) {
	filt := expression.Name("EntityType").Equal(expression.Value(entityTypeEvent))
	expr, err := expression.NewBuilder().WithFilter(filt).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scan expression: %w", err)
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		ConsistentRead:            aws.Bool(true),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var result []*entities.Event
	for {
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			r.logger.Error("Failed to scan events", zap.Error(err))
			return nil, pkgerrors.NewDatabaseError("list events", err)
		}

		var items []eventItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal events: %w", err)
		}
		for _, item := range items {
			event, err := item.toEvent()
			if err != nil {
				r.logger.Warn("Skipping unreadable event item",
					zap.String("eventID", item.EventID),
					zap.Error(err),
				)
				continue
			}
			result = append(result, event)
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	entities.SortByCreation(result)

	r.logger.Debug("Listed events", zap.Int("count", len(result)))
	return result, nil
}

// GetByID retrieves one event
func (r *EventRepository) GetByID(ctx context.Context, id valueobjects.EventID) (*entities.Event, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            itemKey(id.String()),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get event", err)
	}
	if len(out.Item) == 0 {
		return nil, pkgerrors.NewNotFoundError("event")
	}

	var item eventItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return item.toEvent()
}

// Create stores a new event, refusing to overwrite an existing id
func (r *EventRepository) Create(ctx context.Context, event *entities.Event) error {
	av, err := attributevalue.MarshalMap(toItem(event))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return pkgerrors.NewConflictError(fmt.Sprintf("event %s already exists", event.ID()))
		}
		r.logger.Error("Failed to save event to DynamoDB",
			zap.Error(err),
			zap.String("eventID", event.ID().String()),
		)
		return pkgerrors.NewDatabaseError("create event", err)
	}

	r.logger.Info("Saved event",
		zap.String("eventID", event.ID().String()),
		zap.String("title", event.Title()),
	)
	return nil
}

// UpdateTitle changes the title of an existing event
func (r *EventRepository) UpdateTitle(ctx context.Context, id valueobjects.EventID, title string) error {
	update := expression.Set(expression.Name("Title"), expression.Value(title))
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       itemKey(id.String()),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return pkgerrors.NewNotFoundError("event")
		}
		return pkgerrors.NewDatabaseError("update event title", err)
	}

	r.logger.Info("Renamed event", zap.String("eventID", id.String()))
	return nil
}

// Delete removes an existing event
func (r *EventRepository) Delete(ctx context.Context, id valueobjects.EventID) error {
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      itemKey(id.String()),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return pkgerrors.NewNotFoundError("event")
		}
		return pkgerrors.NewDatabaseError("delete event", err)
	}

	r.logger.Info("Deleted event", zap.String("eventID", id.String()))
	return nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
