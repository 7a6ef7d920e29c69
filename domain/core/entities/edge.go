package entities

import (
	"strconv"
	"strings"

	"tripgraph/domain/core/valueobjects"
)

// EdgeKind records why an edge exists
type EdgeKind string

const (
	// EdgeKindChain links two adjacent events of the sequence
	EdgeKindChain EdgeKind = "chain"
	// EdgeKindBridge was added to close the gap left by a removed event
	EdgeKindBridge EdgeKind = "bridge"
	// EdgeKindManual was drawn by the user
	EdgeKindManual EdgeKind = "manual"
)

const (
	// EdgeTypeDefault is the renderer's edge type
	EdgeTypeDefault = "default"
	// MarkerArrowClosed is the arrow head drawn at the target
	MarkerArrowClosed = "arrowclosed"
)

// EdgeMarker describes an edge end marker
type EdgeMarker struct {
	Type string `json:"type"`
}

// EdgeStyle carries optional stroke hints
type EdgeStyle struct {
	Stroke          string  `json:"stroke,omitempty"`
	StrokeWidth     float64 `json:"strokeWidth,omitempty"`
	StrokeDasharray string  `json:"strokeDasharray,omitempty"`
}

// Edge is a directed connection between two events
type Edge struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	Target    string     `json:"target"`
	Type      string     `json:"type"`
	MarkerEnd EdgeMarker `json:"markerEnd"`
	Style     *EdgeStyle `json:"style,omitempty"`
	Kind      EdgeKind   `json:"kind"`
}

// EdgeID returns the deterministic id of the edge source -> target.
// Sources without '-' give e-<source>-<target>, which splits at the first
// '-' after the prefix. Other sources carry their length,
// e<len>-<source>-<target>, so distinct pairs never share an id.
func EdgeID(source, target valueobjects.EventID) string {
	return edgeID(source.String(), target.String())
}

func edgeID(source, target string) string {
	if !strings.Contains(source, "-") {
		return "e-" + source + "-" + target
	}
	return "e" + strconv.Itoa(len(source)) + "-" + source + "-" + target
}

// NewEdge builds an edge with the default render hints
func NewEdge(source, target valueobjects.EventID, kind EdgeKind) Edge {
	edge := Edge{
		ID:        EdgeID(source, target),
		Source:    source.String(),
		Target:    target.String(),
		Type:      EdgeTypeDefault,
		MarkerEnd: EdgeMarker{Type: MarkerArrowClosed},
		Kind:      kind,
	}
	if kind == EdgeKindManual {
		edge.Style = &EdgeStyle{StrokeDasharray: "5 5"}
	}
	return edge
}

// Touches reports whether the edge starts or ends at id
func (e Edge) Touches(id valueobjects.EventID) bool {
	return e.Source == id.String() || e.Target == id.String()
}

// Rekey rewrites any endpoint equal to oldID and recomputes the edge id
func (e Edge) Rekey(oldID, newID valueobjects.EventID) Edge {
	if e.Source == oldID.String() {
		e.Source = newID.String()
	}
	if e.Target == oldID.String() {
		e.Target = newID.String()
	}
	e.ID = edgeID(e.Source, e.Target)
	return e
}

// ChainEdges returns one chain edge per adjacent pair, in sequence order
func ChainEdges(events []*Event) []Edge {
	if len(events) < 2 {
		return []Edge{}
	}
	edges := make([]Edge, 0, len(events)-1)
	for i := 0; i < len(events)-1; i++ {
		edges = append(edges, NewEdge(events[i].ID(), events[i+1].ID(), EdgeKindChain))
	}
	return edges
}
