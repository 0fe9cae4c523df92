package service

import (
	"context"

	"github.com/meshmind/meshmind/internal/model"
	"github.com/meshmind/meshmind/internal/repo"
)

// Visualization caps keep graph payloads bounded for large documents.
const (
	maxGraphNodes    = 100
	maxGraphEdges    = 500
	nodeSizePerHit   = 5
	minimumNodeCount = 1
)

type GraphService struct {
	docs  *repo.DocumentRepo
	graph *repo.GraphRepo
}

type GraphView struct {
	DocumentID string            `json:"document_id"`
	Nodes      []model.GraphNode `json:"nodes"`
	Edges      []model.GraphEdge `json:"edges"`
	NodeTotal  int               `json:"node_total"`
	EdgeTotal  int               `json:"edge_total"`
}

func NewGraphService(docs *repo.DocumentRepo, graph *repo.GraphRepo) *GraphService {
	return &GraphService{docs: docs, graph: graph}
}

// Get returns the visualization shape of a document's knowledge graph.
// Edges whose endpoints fell outside the node cap are dropped.
func (s *GraphService) Get(ctx context.Context, userID, docID string) (*GraphView, error) {
	if _, err := s.docs.Get(ctx, userID, docID); err != nil {
		return nil, err
	}
	entities, err := s.graph.ListEntities(ctx, userID, docID, maxGraphNodes)
	if err != nil {
		return nil, err
	}
	relations, err := s.graph.ListRelations(ctx, userID, docID, maxGraphEdges)
	if err != nil {
		return nil, err
	}

	nodes := make([]model.GraphNode, 0, len(entities))
	included := make(map[string]bool, len(entities))
	for _, entity := range entities {
		mentions := len(entity.Mentions)
		if mentions < minimumNodeCount {
			mentions = minimumNodeCount
		}
		included[entity.ID] = true
		nodes = append(nodes, model.GraphNode{
			ID:       entity.ID,
			Label:    entity.Name,
			Type:     entity.Type,
			Mentions: entity.Mentions,
			Size:     nodeSizePerHit * mentions,
		})
	}

	edges := make([]model.GraphEdge, 0, len(relations))
	for _, rel := range relations {
		if !included[rel.SourceID] || !included[rel.TargetID] {
			continue
		}
		edges = append(edges, model.GraphEdge{
			Source:  rel.SourceID,
			Target:  rel.TargetID,
			Label:   rel.Type,
			Context: rel.Context,
		})
	}

	return &GraphView{
		DocumentID: docID,
		Nodes:      nodes,
		Edges:      edges,
		NodeTotal:  len(nodes),
		EdgeTotal:  len(edges),
	}, nil
}
