package integration

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"tripgraph/application/services"
	domainconfig "tripgraph/domain/config"
	"tripgraph/domain/core/aggregates"
	"tripgraph/domain/core/entities"
	"tripgraph/infrastructure/config"
	"tripgraph/infrastructure/di"
	"tripgraph/infrastructure/gateway"
	"tripgraph/pkg/observability"
	"tripgraph/tests/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startAPI(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Environment:   "test",
		StoreBackend:  config.StoreBadger,
		AWSRegion:     "us-west-2",
		LogLevel:      "error",
		EnableMetrics: true,
	}
	container, cleanup, err := di.InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(container.Handler)
	t.Cleanup(func() {
		srv.Close()
		cleanup()
	})
	return srv
}

func newPlanner(t *testing.T, apiURL string, mode domainconfig.ChainMode, opts ...services.ServiceOption) *services.TimelineService {
	t.Helper()
	pc := config.DefaultPlannerConfig()
	pc.APIURL = apiURL
	pc.ChainMode = string(mode)
	pc.RequestTimeout = 2 * time.Second

	gw, err := gateway.NewHTTPGateway(pc, observability.NewTracer("tripctl", false), zap.NewNop())
	require.NoError(t, err)

	svc := services.NewTimelineService(aggregates.NewTimeline(pc.DomainConfig()), gw, zap.NewNop(), opts...)
	t.Cleanup(svc.Close)
	require.NoError(t, svc.Load(context.Background()))
	return svc
}

func flush(t *testing.T, svc *services.TimelineService) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Flush(ctx))
}

func ids(evts []*entities.Event) []string {
	out := make([]string, len(evts))
	for i, e := range evts {
		out[i] = e.ID().String()
	}
	return out
}

func TestPlannerSync_ChangesSurviveReload(t *testing.T) {
	api := startAPI(t)
	ctx := context.Background()
	metrics := &mocks.RecordingMetrics{}

	planner := newPlanner(t, api.URL, domainconfig.ChainModeExplicit, services.WithSyncMetrics(metrics))
	for _, title := range []string{"Airport", "Hotel", "Museum", "Dinner"} {
		_, err := planner.Append(ctx, entities.EventDraft{Title: title})
		require.NoError(t, err)
	}
	flush(t, planner)

	seq := ids(planner.Events())
	require.Len(t, seq, 4)
	for _, id := range seq {
		assert.NotContains(t, id, "local-")
	}

	require.NoError(t, planner.Remove(ctx, seq[1]))
	_, err := planner.Rename(ctx, seq[2], "Gallery")
	require.NoError(t, err)
	flush(t, planner)

	model := planner.Graph()
	require.Len(t, model.Edges, 2)
	assert.Equal(t, seq[0], model.Edges[0].Source)
	assert.Equal(t, seq[2], model.Edges[0].Target)

	ops, failures := metrics.Snapshot()
	assert.Empty(t, failures)
	assert.Equal(t, []string{"create", "create", "create", "create", "remove", "rename"}, ops)

	fresh := newPlanner(t, api.URL, domainconfig.ChainModeDerived)
	assert.Equal(t, []string{seq[0], seq[2], seq[3]}, ids(fresh.Events()))
	reloaded := fresh.Graph()
	require.Len(t, reloaded.Nodes, 3)
	assert.Equal(t, "Gallery", reloaded.Nodes[1].Data.Label)
	assert.Equal(t, model.Edges[0].ID, reloaded.Edges[0].ID)
}

func TestPlannerSync_StoreDownKeepsLocalChanges(t *testing.T) {
	api := startAPI(t)
	ctx := context.Background()
	metrics := &mocks.RecordingMetrics{}

	planner := newPlanner(t, api.URL, domainconfig.ChainModeExplicit, services.WithSyncMetrics(metrics))
	api.Close()

	added, err := planner.Append(ctx, entities.EventDraft{Title: "Offline"})
	require.NoError(t, err)
	flush(t, planner)

	require.Len(t, planner.Events(), 1)
	assert.Equal(t, added.ID(), planner.Events()[0].ID())

	_, failures := metrics.Snapshot()
	assert.Equal(t, []string{"create"}, failures)

	assert.Error(t, planner.Refresh(ctx))
	assert.Len(t, planner.Events(), 1)
}
