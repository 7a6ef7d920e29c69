package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"tripgraph/infrastructure/config"
	"tripgraph/infrastructure/di"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventsAPI(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Environment:  "test",
		StoreBackend: config.StoreBadger,
		AWSRegion:    "us-west-2",
		LogLevel:     "error",
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

func execute(t *testing.T, api *httptest.Server, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	base := []string{
		"--config", filepath.Join(t.TempDir(), "tripctl.yaml"),
		"--api-url", api.URL,
		"--mode", "explicit",
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(append(base, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTripctl_AddRenameRemove(t *testing.T) {
	api := newEventsAPI(t)

	out, err := execute(t, api, "add", "Lisbon")
	require.NoError(t, err)
	var first struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.Equal(t, "Lisbon", first.Title)
	assert.NotContains(t, first.ID, "local-")

	out, err = execute(t, api, "add", "Porto")
	require.NoError(t, err)
	var second struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &second))

	out, err = execute(t, api, "graph")
	require.NoError(t, err)
	var model struct {
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
		Edges []struct {
			Source string `json:"source"`
			Target string `json:"target"`
		} `json:"edges"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &model))
	require.Len(t, model.Nodes, 2)
	require.Len(t, model.Edges, 1)
	assert.Equal(t, first.ID, model.Edges[0].Source)
	assert.Equal(t, second.ID, model.Edges[0].Target)

	_, err = execute(t, api, "rename", first.ID, "Lisboa")
	require.NoError(t, err)

	out, err = execute(t, api, "list")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Lisboa"`)

	_, err = execute(t, api, "remove", second.ID)
	require.NoError(t, err)

	_, err = execute(t, api, "rename", second.ID, "gone")
	assert.Error(t, err)
}

func TestTripctl_RejectsUnknownMode(t *testing.T) {
	api := newEventsAPI(t)
	_, err := execute(t, api, "--mode", "spiral", "graph")
	assert.Error(t, err)
}

func TestSyncFailures(t *testing.T) {
	f := &syncFailures{}
	f.ObserveSync("create", nil, time.Millisecond)
	assert.NoError(t, f.Err())

	f.ObserveSync("remove", errors.New("boom"), time.Millisecond)
	assert.EqualError(t, f.Err(), "1 store call(s) failed: [remove]")
}
