package graph

import (
	"context"
	"sync"
)

// edgeKey identifies an edge by its endpoints and type. One edge per
// key is the invariant the memory store enforces.
type edgeKey struct {
	fromID string
	toID   string
	kind   EdgeType
}

// MemoryStore is an in-memory Store. It backs dry-run ingestion and
// tests, and mirrors the idempotence semantics of the Neo4j store:
// upserts merge properties, edge creation is create-if-absent.
//
// Safe for concurrent use, though the check-then-create caveat on the
// Store interface still applies to interleaved EdgeExists/CreateEdge
// pairs from separate writers.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]map[string]map[string]any // label -> id -> flattened props
	edges map[edgeKey]map[string]any
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: make(map[string]map[string]map[string]any),
		edges: make(map[edgeKey]map[string]any),
	}
}

// InitSchema is a no-op; the memory store has no constraints to create.
func (s *MemoryStore) InitSchema(ctx context.Context) error {
	return nil
}

// UpsertNode inserts the node or merges its flattened properties over
// the existing ones. New values win on key collisions.
func (s *MemoryStore) UpsertNode(ctx context.Context, node Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(node)
	return nil
}

// UpsertNodes upserts nodes in batches of batchSize. The memory store
// has no transactions, so batching only governs lock granularity.
func (s *MemoryStore) UpsertNodes(ctx context.Context, nodes []Node, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = len(nodes)
	}
	written := 0
	for start := 0; start < len(nodes); start += batchSize {
		end := start + batchSize
		if end > len(nodes) {
			end = len(nodes)
		}
		s.mu.Lock()
		for _, node := range nodes[start:end] {
			s.upsertLocked(node)
			written++
		}
		s.mu.Unlock()
	}
	return written, nil
}

func (s *MemoryStore) upsertLocked(node Node) {
	byID, found := s.nodes[node.Label]
	if !found {
		byID = make(map[string]map[string]any)
		s.nodes[node.Label] = byID
	}
	existing, found := byID[node.ID]
	if !found {
		existing = make(map[string]any)
		byID[node.ID] = existing
	}
	for key, value := range node.flatProps() {
		existing[key] = value
	}
}

// GetNode returns a copy of the node's flattened properties, or nil
// when the node does not exist.
func (s *MemoryStore) GetNode(ctx context.Context, label, id string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	props, found := s.nodes[label][id]
	if !found {
		return nil, nil
	}
	return copyProps(props), nil
}

// NodeIDs returns the set of ids carrying the given label.
func (s *MemoryStore) NodeIDs(ctx context.Context, label string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[string]bool, len(s.nodes[label]))
	for id := range s.nodes[label] {
		ids[id] = true
	}
	return ids, nil
}

// SourceCredits returns section id -> source-credit text for every USC
// section node with a non-empty source_credit property.
func (s *MemoryStore) SourceCredits(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	credits := make(map[string]string)
	for id, props := range s.nodes[LabelUSCSection] {
		if credit, ok := props["source_credit"].(string); ok && credit != "" {
			credits[id] = credit
		}
	}
	return credits, nil
}

// EdgeExists reports whether an edge of the given type connects the pair.
func (s *MemoryStore) EdgeExists(ctx context.Context, fromID, toID string, edgeType EdgeType) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, found := s.edges[edgeKey{fromID: fromID, toID: toID, kind: edgeType}]
	return found, nil
}

// CreateEdge creates the edge unless one of the same type already
// connects the pair. Returns true when a new edge was written.
func (s *MemoryStore) CreateEdge(ctx context.Context, edge Edge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := edgeKey{fromID: edge.FromID, toID: edge.ToID, kind: edge.Type}
	if _, found := s.edges[key]; found {
		return false, nil
	}
	s.edges[key] = FlattenProps(edge.Props)
	return true, nil
}

// EnactingLaw returns the Public Law linked to the section by an ENACTS
// edge, or nil when none is linked.
func (s *MemoryStore) EnactingLaw(ctx context.Context, sectionID string) (*LawLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for key, edgeProps := range s.edges {
		if key.kind != EdgeEnacts || key.toID != sectionID {
			continue
		}
		return &LawLink{
			Type: EdgeEnacts,
			Law:  copyProps(s.nodes[LabelPublicLaw][key.fromID]),
			Edge: copyProps(edgeProps),
		}, nil
	}
	return nil, nil
}

// Amendments returns every Public Law linked to the section by an
// AMENDS edge, in unspecified order.
func (s *MemoryStore) Amendments(ctx context.Context, sectionID string) ([]LawLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var links []LawLink
	for key, edgeProps := range s.edges {
		if key.kind != EdgeAmends || key.toID != sectionID {
			continue
		}
		links = append(links, LawLink{
			Type: EdgeAmends,
			Law:  copyProps(s.nodes[LabelPublicLaw][key.fromID]),
			Edge: copyProps(edgeProps),
		})
	}
	return links, nil
}

// Stats returns node counts by label and edge counts by type.
func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		Nodes: make(map[string]int, len(s.nodes)),
		Edges: make(map[string]int),
	}
	for label, byID := range s.nodes {
		stats.Nodes[label] = len(byID)
	}
	for key := range s.edges {
		stats.Edges[string(key.kind)]++
	}
	return stats, nil
}

// Close is a no-op.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

func copyProps(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	duplicate := make(map[string]any, len(props))
	for key, value := range props {
		duplicate[key] = value
	}
	return duplicate
}
