package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func TestMetrics_RecordCommandExecution(t *testing.T) {
	cw := &fakeCloudWatch{}
	m := NewMetrics("TripGraph", cw, zap.NewNop())

	m.RecordCommandExecution(context.Background(), "CreateEventCommand", 12*time.Millisecond, errors.New("x"))

	require.Len(t, cw.inputs, 1)
	in := cw.inputs[0]
	assert.Equal(t, "TripGraph", aws.ToString(in.Namespace))
	require.Len(t, in.MetricData, 2)
	assert.Equal(t, 12.0, aws.ToFloat64(in.MetricData[0].Value))
	assert.Equal(t, "failure", aws.ToString(in.MetricData[0].Dimensions[1].Value))
}

func TestMetrics_NilClientIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordCommandExecution(context.Background(), "X", time.Second, nil)
	NewMetrics("ns", nil, zap.NewNop()).RecordCommandExecution(context.Background(), "X", time.Second, nil)
}

func TestCollector_SyncMetrics(t *testing.T) {
	c := NewCollector()

	c.ObserveSync("create", nil, time.Millisecond)
	c.ObserveSync("create", errors.New("down"), time.Millisecond)
	c.SetPending(4)

	body := scrape(t, c)
	assert.Contains(t, body, `tripgraph_sync_operations_total{operation="create",result="success"} 1`)
	assert.Contains(t, body, `tripgraph_sync_operations_total{operation="create",result="failure"} 1`)
	assert.Contains(t, body, "tripgraph_sync_pending 4")
}

func TestCollector_HTTPMiddlewareUsesRoutePattern(t *testing.T) {
	c := NewCollector()
	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events/abc", nil))

	assert.Contains(t, scrape(t, c), `tripgraph_http_requests_total{method="GET",route="/events/{id}",status="404"} 1`)
}

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
