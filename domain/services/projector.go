package services

import (
	"tripgraph/domain/core/aggregates"
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
)

// NodeTypeEvent is the renderer's custom node type for trip events
const NodeTypeEvent = "eventNode"

// NodeData is the payload drawn inside a node
type NodeData struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Node is one event as the renderer sees it
type Node struct {
	ID       string                `json:"id"`
	Type     string                `json:"type"`
	Data     NodeData              `json:"data"`
	Position valueobjects.Position `json:"position"`
}

// RenderModel is the node-and-edge view of a timeline
type RenderModel struct {
	Nodes []Node          `json:"nodes"`
	Edges []entities.Edge `json:"edges"`
}

// Project maps a sequence to its render model: one node per event and one
// chain edge per adjacent pair. The input is never modified.
func Project(sequence []*entities.Event) RenderModel {
	return Render(sequence, entities.ChainEdges(sequence))
}

// Render builds the render model from a sequence and an explicit edge set.
// Edges keep the order they are given in.
func Render(sequence []*entities.Event, edges []entities.Edge) RenderModel {
	nodes := make([]Node, 0, len(sequence))
	for _, e := range sequence {
		nodes = append(nodes, NodeFor(e))
	}
	out := make([]entities.Edge, len(edges))
	copy(out, edges)
	return RenderModel{Nodes: nodes, Edges: out}
}

// RenderTimeline renders the timeline with its current edge set
func RenderTimeline(t *aggregates.Timeline) RenderModel {
	return Render(t.Events(), t.Edges())
}

// NodeFor maps a single event to a node
func NodeFor(e *entities.Event) Node {
	return Node{
		ID:   e.ID().String(),
		Type: NodeTypeEvent,
		Data: NodeData{
			Label: e.Title(),
			Color: e.Color().String(),
		},
		Position: e.Position(),
	}
}
