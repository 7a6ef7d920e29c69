package di

import (
	"context"
	"fmt"
	"net/http"

	"tripgraph/application/commands"
	"tripgraph/application/commands/bus"
	commandhandlers "tripgraph/application/commands/handlers"
	"tripgraph/application/ports"
	"tripgraph/application/queries"
	querybus "tripgraph/application/queries/bus"
	queryhandlers "tripgraph/application/queries/handlers"
	domainconfig "tripgraph/domain/config"
	"tripgraph/infrastructure/config"
	"tripgraph/infrastructure/messaging"
	"tripgraph/infrastructure/messaging/eventbridge"
	"tripgraph/infrastructure/persistence/badgerstore"
	"tripgraph/infrastructure/persistence/dynamodb"
	"tripgraph/interfaces/http/rest"
	"tripgraph/pkg/auth"
	pkgerrors "tripgraph/pkg/errors"
	"tripgraph/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// ProvideDomainConfig selects the business rules for the environment
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	domainCfg := domainconfig.LoadDomainConfig(cfg.Environment)
	if err := domainCfg.Validate(); err != nil {
		return nil, err
	}
	return domainCfg, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideEventRepository opens the configured store
func ProvideEventRepository(
	cfg *config.Config,
	client *awsdynamodb.Client,
	logger *zap.Logger,
) (ports.EventRepository, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreDynamoDB:
		logger.Info("Using DynamoDB event store", zap.String("table", cfg.DynamoDBTable))
		return dynamodb.NewEventRepository(client, cfg.DynamoDBTable, logger), func() {}, nil

	case config.StoreBadger:
		db, err := badgerstore.Open(cfg.BadgerDir, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using badger event store", zap.String("dir", cfg.BadgerDir))
		cleanup := func() {
			if err := db.Close(); err != nil {
				logger.Warn("Failed to close badger", zap.Error(err))
			}
		}
		return badgerstore.NewEventRepository(db, logger), cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// ProvideEventPublisher publishes to EventBridge through a retrying outbox,
// or only logs when no bus is configured
func ProvideEventPublisher(
	ctx context.Context,
	cfg *config.Config,
	client *awseventbridge.Client,
	logger *zap.Logger,
) (ports.EventPublisher, func()) {
	if cfg.EventBusName == "" {
		return messaging.NewLogPublisher(logger), func() {}
	}

	outbox := messaging.NewOutboxPublisher(eventbridge.NewPublisher(client, cfg.EventBusName, logger), logger)
	outbox.Start(ctx)
	return outbox, outbox.Stop
}

// ProvideListingCache creates the listing cache and its stop function
func ProvideListingCache() (ports.Cache, func()) {
	cache := NewListingCache()
	return cache, cache.Stop
}

// ProvideCollector creates the Prometheus collector, or nil when disabled
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector()
}

// ProvideMetrics creates the CloudWatch recorder; it is inert unless enabled
func ProvideMetrics(cfg *config.Config, client *awscloudwatch.Client, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("TripGraph/%s", cfg.Environment)
	if !cfg.EnableCloudWatch {
		return observability.NewMetrics(namespace, nil, logger)
	}
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideTracer creates the X-Ray tracer. Lambda traces at the platform.
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("tripgraph-api", cfg.EnableTracing && !cfg.IsLambda)
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// CommandHandlerAdapter adapts specific command handlers to the generic interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) error
}

// Handle implements bus.CommandHandler
func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) error {
	return a.handler(ctx, cmd)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	repo ports.EventRepository,
	publisher ports.EventPublisher,
	cache ports.Cache,
	domainCfg *domainconfig.DomainConfig,
	metrics *observability.Metrics,
	collector *observability.Collector,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	recorders := []bus.CommandRecorder{metrics}
	if collector != nil {
		recorders = append(recorders, collector)
	}
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger), bus.MetricsMiddleware(recorders...))

	createHandler := commandhandlers.NewCreateEventHandler(repo, publisher, cache, domainCfg, logger)
	if err := commandBus.Register(commands.CreateEventCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			createCmd, ok := cmd.(commands.CreateEventCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return createHandler.Handle(ctx, createCmd)
		},
	}); err != nil {
		return nil, err
	}

	renameHandler := commandhandlers.NewRenameEventHandler(repo, publisher, cache, logger)
	if err := commandBus.Register(commands.RenameEventCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			renameCmd, ok := cmd.(commands.RenameEventCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return renameHandler.Handle(ctx, renameCmd)
		},
	}); err != nil {
		return nil, err
	}

	deleteHandler := commandhandlers.NewDeleteEventHandler(repo, publisher, cache, logger)
	if err := commandBus.Register(commands.DeleteEventCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			deleteCmd, ok := cmd.(commands.DeleteEventCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return deleteHandler.Handle(ctx, deleteCmd)
		},
	}); err != nil {
		return nil, err
	}

	return commandBus, nil
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

// Handle implements querybus.QueryHandler
func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	repo ports.EventRepository,
	cache ports.Cache,
	cfg *config.Config,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(querybus.LoggingMiddleware(logger))

	listHandler := queryhandlers.NewListEventsHandler(repo, cache, cfg.ListingCacheTTL(), logger)
	if err := queryBus.Register(queries.ListEventsQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			listQuery, ok := query.(queries.ListEventsQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return listHandler.Handle(ctx, listQuery)
		},
	}); err != nil {
		return nil, err
	}

	getHandler := queryhandlers.NewGetEventHandler(repo, logger)
	if err := queryBus.Register(queries.GetEventQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			getQuery, ok := query.(queries.GetEventQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getHandler.Handle(ctx, getQuery)
		},
	}); err != nil {
		return nil, err
	}

	return queryBus, nil
}

// ProvideRouter builds the HTTP handler for the events API
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	collector *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (http.Handler, func(), error) {
	opts := []rest.RouterOption{rest.WithTracer(tracer)}
	if collector != nil {
		opts = append(opts, rest.WithCollector(collector))
	}

	if cfg.AuthEnabled() {
		validator, err := auth.NewJWTValidator(cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, rest.WithAuthentication(validator))
	} else {
		logger.Warn("JWT_SECRET not set, /events is unauthenticated")
	}

	cleanup := func() {}
	if cfg.RateLimitPerMinute > 0 {
		limiter := auth.NewIPRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
		opts = append(opts, rest.WithRateLimiter(limiter))
		cleanup = limiter.Stop
	}

	router := rest.NewRouter(commandBus, queryBus, errorHandler, cfg, logger, opts...)
	return router.Setup(), cleanup, nil
}
