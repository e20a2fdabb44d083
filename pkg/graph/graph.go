// Package graph persists the legislative citation graph: labeled nodes
// keyed by canonical citation strings and typed, directed edges between
// them. Two implementations share one Store interface: a Neo4j-backed
// store for real ingestion and an in-memory store for dry runs and
// tests.
package graph

import (
	"context"
)

// Node labels persisted in the graph.
const (
	LabelUSCSection = "USCSection"
	LabelPublicLaw  = "PublicLaw"
	LabelBill       = "Bill"
)

// EdgeType classifies a directed relationship between two nodes.
type EdgeType string

const (
	// EdgeEnacts links a Public Law to the section it originally created.
	EdgeEnacts EdgeType = "ENACTS"
	// EdgeAmends links a Public Law to a section it modified.
	EdgeAmends EdgeType = "AMENDS"
)

// RoleForPosition maps a law's position within a section's source
// credit to its relationship type. The first statute cited in a
// section's history is the one that created it; every later citation
// is an amendment.
func RoleForPosition(position int) EdgeType {
	if position == 0 {
		return EdgeEnacts
	}
	return EdgeAmends
}

// Node is a labeled graph node. ID is the canonical citation string and
// doubles as the node's primary key. Props may contain nested maps;
// they are flattened with the {parent}_{child} convention at write time.
type Node struct {
	Label string         `json:"label"`
	ID    string         `json:"id"`
	Props map[string]any `json:"props,omitempty"`
}

// Edge is a directed, typed relationship. At most one edge of a given
// type may exist between an ordered pair of nodes; enforcing that is
// the write path's job, not the store engine's.
type Edge struct {
	Type   EdgeType       `json:"type"`
	FromID string         `json:"from_id"`
	ToID   string         `json:"to_id"`
	Props  map[string]any `json:"props,omitempty"`
}

// LawLink is a Public Law node together with the edge that connects it
// to a queried section.
type LawLink struct {
	Type EdgeType       `json:"type"`
	Law  map[string]any `json:"law"`
	Edge map[string]any `json:"edge,omitempty"`
}

// Stats holds node counts by label and edge counts by type.
type Stats struct {
	Nodes map[string]int `json:"nodes"`
	Edges map[string]int `json:"edges"`
}

// Store is the node/edge persistence interface the ingestion pipeline
// writes through. All writes are idempotent: upserting an existing node
// merges new properties over old ones (new values win), and CreateEdge
// refuses to duplicate an existing edge.
//
// The EdgeExists/CreateEdge sequence is check-then-create and therefore
// only safe under a single writer; concurrent ingestion of the same
// node pair could create duplicate edges.
type Store interface {
	// InitSchema creates uniqueness constraints and indexes. Safe to
	// call more than once.
	InitSchema(ctx context.Context) error

	// UpsertNode inserts the node or merges its properties over an
	// existing node with the same label and id.
	UpsertNode(ctx context.Context, node Node) error

	// UpsertNodes upserts nodes in batches of batchSize. Each batch is
	// independently idempotent: after a mid-run failure, retrying the
	// whole input re-applies committed batches harmlessly. Returns the
	// number of nodes written before any error.
	UpsertNodes(ctx context.Context, nodes []Node, batchSize int) (int, error)

	// GetNode returns the flattened properties of a node, or nil when
	// no node with that label and id exists.
	GetNode(ctx context.Context, label, id string) (map[string]any, error)

	// NodeIDs returns the set of ids carrying the given label.
	NodeIDs(ctx context.Context, label string) (map[string]bool, error)

	// SourceCredits returns section id -> source-credit text for every
	// stored USC section with a non-empty credit.
	SourceCredits(ctx context.Context) (map[string]string, error)

	// EdgeExists reports whether an edge of the given type already
	// connects the ordered node pair.
	EdgeExists(ctx context.Context, fromID, toID string, edgeType EdgeType) (bool, error)

	// CreateEdge creates the edge unless one of the same type already
	// connects the pair. Returns true when a new edge was written.
	CreateEdge(ctx context.Context, edge Edge) (bool, error)

	// EnactingLaw returns the Public Law that created the section, or
	// nil when none is linked.
	EnactingLaw(ctx context.Context, sectionID string) (*LawLink, error)

	// Amendments returns every Public Law linked to the section by an
	// AMENDS edge.
	Amendments(ctx context.Context, sectionID string) ([]LawLink, error)

	// Stats returns live node and edge counts.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases the store's resources.
	Close(ctx context.Context) error
}
