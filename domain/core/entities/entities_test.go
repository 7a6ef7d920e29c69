package entities

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripgraph/domain/config"
	"tripgraph/domain/core/valueobjects"
	pkgerrors "tripgraph/pkg/errors"
)

var created = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func TestNewEventValidation(t *testing.T) {
	id := valueobjects.MustEventID("e1")
	pos := valueobjects.Position{X: 50, Y: 50}

	tests := []struct {
		name    string
		id      valueobjects.EventID
		title   string
		color   valueobjects.Color
		at      time.Time
		wantErr bool
	}{
		{name: "valid", id: id, title: "Museum", color: "#aabbcc", at: created},
		{name: "missing id", title: "Museum", color: "#aabbcc", at: created, wantErr: true},
		{name: "blank title", id: id, title: "  ", color: "#aabbcc", at: created, wantErr: true},
		{name: "long title", id: id, title: strings.Repeat("x", 201), color: "#aabbcc", at: created, wantErr: true},
		{name: "bad color", id: id, title: "Museum", color: "red", at: created, wantErr: true},
		{name: "missing createdAt", id: id, title: "Museum", color: "#aabbcc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := NewEvent(tt.id, tt.title, "", pos, tt.color, tt.at, config.DefaultDomainConfig())
			if tt.wantErr {
				assert.True(t, pkgerrors.IsValidation(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.title, ev.Title())
		})
	}
}

func TestEventJSONShape(t *testing.T) {
	ev := ReconstructEvent(valueobjects.MustEventID("abc"), "Train", "to Lyon",
		valueobjects.Position{X: 200, Y: 50}, "#0a0b0c", created)

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "abc",
		"title": "Train",
		"description": "to Lyon",
		"position": {"x": 200, "y": 50},
		"color": "#0a0b0c",
		"createdAt": "2026-05-04T12:00:00Z"
	}`, string(data))

	var back Event
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ev.ID(), back.ID())
	assert.True(t, ev.CreatedAt().Equal(back.CreatedAt()))
}

func TestChainEdges(t *testing.T) {
	mk := func(id string) *Event {
		return ReconstructEvent(valueobjects.MustEventID(id), id, "", valueobjects.Position{}, "#000000", created)
	}

	assert.Empty(t, ChainEdges(nil))
	assert.Empty(t, ChainEdges([]*Event{mk("a")}))

	edges := ChainEdges([]*Event{mk("a"), mk("b"), mk("c")})
	require.Len(t, edges, 2)
	assert.Equal(t, Edge{
		ID:        "e-a-b",
		Source:    "a",
		Target:    "b",
		Type:      "default",
		MarkerEnd: EdgeMarker{Type: "arrowclosed"},
		Kind:      EdgeKindChain,
	}, edges[0])
	assert.Equal(t, "e-b-c", edges[1].ID)
}

func TestEdgeID_DistinctPairsNeverCollide(t *testing.T) {
	id := valueobjects.MustEventID
	tests := []struct {
		name        string
		source, tgt string
		want        string
	}{
		{name: "plain", source: "a", tgt: "b", want: "e-a-b"},
		{name: "dashed target", source: "a", tgt: "b-c", want: "e-a-b-c"},
		{name: "dashed source", source: "a-b", tgt: "c", want: "e3-a-b-c"},
		{name: "provisional source", source: "local-1", tgt: "srv", want: "e7-local-1-srv"},
	}
	seen := map[string]string{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EdgeID(id(tt.source), id(tt.tgt))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, EdgeID(id(tt.source), id(tt.tgt)))
		})
		pair := tt.source + " -> " + tt.tgt
		if other, dup := seen[tt.want]; dup {
			t.Fatalf("%s and %s share id %s", pair, other, tt.want)
		}
		seen[tt.want] = pair
	}
}

func TestEdgeRekey(t *testing.T) {
	e := NewEdge(valueobjects.MustEventID("local-1"), valueobjects.MustEventID("b"), EdgeKindChain)

	got := e.Rekey(valueobjects.MustEventID("local-1"), valueobjects.MustEventID("srv"))

	assert.Equal(t, "e-srv-b", got.ID)
	assert.Equal(t, "srv", got.Source)
	assert.True(t, got.Touches(valueobjects.MustEventID("b")))
	assert.False(t, got.Touches(valueobjects.MustEventID("local-1")))
}
