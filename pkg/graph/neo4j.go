package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jConfig holds connection settings for a Neo4j store.
type Neo4jConfig struct {
	// URI is the bolt/neo4j connection string, e.g. "bolt://localhost:7687".
	URI string

	// Username and Password authenticate against the database.
	Username string
	Password string
}

// DefaultNeo4jConfig returns settings for a local unclustered instance.
func DefaultNeo4jConfig() Neo4jConfig {
	return Neo4jConfig{
		URI:      "bolt://localhost:7687",
		Username: "neo4j",
		Password: "neo4j",
	}
}

// Neo4jStore is a Store backed by a Neo4j database. Node upserts use
// MERGE on the id key so re-ingestion converges instead of duplicating,
// and edge creation is guarded by an existence check.
//
// Cypher cannot parameterize labels or relationship types, so queries
// interpolate them. Every interpolated value comes from the fixed label
// and EdgeType constants in this package, never from input text.
type Neo4jStore struct {
	driver neo4j.DriverWithContext
}

// NewNeo4jStore connects to Neo4j and verifies the connection.
func NewNeo4jStore(ctx context.Context, config Neo4jConfig) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(config.URI, neo4j.BasicAuth(config.Username, config.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("connecting to neo4j at %s: %w", config.URI, err)
	}
	return &Neo4jStore{driver: driver}, nil
}

// schemaStatements are idempotent; IF NOT EXISTS makes InitSchema safe
// to run on every startup.
var schemaStatements = []string{
	"CREATE CONSTRAINT usc_section_id IF NOT EXISTS FOR (n:" + LabelUSCSection + ") REQUIRE n.id IS UNIQUE",
	"CREATE CONSTRAINT public_law_id IF NOT EXISTS FOR (n:" + LabelPublicLaw + ") REQUIRE n.id IS UNIQUE",
	"CREATE CONSTRAINT bill_id IF NOT EXISTS FOR (n:" + LabelBill + ") REQUIRE n.id IS UNIQUE",
	"CREATE INDEX usc_section_title IF NOT EXISTS FOR (n:" + LabelUSCSection + ") ON (n.title)",
	"CREATE INDEX public_law_congress IF NOT EXISTS FOR (n:" + LabelPublicLaw + ") ON (n.congress)",
}

// InitSchema creates uniqueness constraints and indexes.
func (s *Neo4jStore) InitSchema(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, statement := range schemaStatements {
			if _, err := tx.Run(ctx, statement, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("initializing graph schema: %w", err)
	}
	return nil
}

// UpsertNode merges the node on its id and layers its flattened
// properties over any existing ones.
func (s *Neo4jStore) UpsertNode(ctx context.Context, node Node) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := fmt.Sprintf("MERGE (n:%s {id: $id}) SET n += $props", node.Label)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]any{
			"id":    node.ID,
			"props": node.flatProps(),
		})
	})
	if err != nil {
		return fmt.Errorf("upserting %s node %s: %w", node.Label, node.ID, err)
	}
	return nil
}

// UpsertNodes upserts nodes label by label with UNWIND, committing one
// transaction per batch of batchSize. A failure mid-run leaves earlier
// batches committed; re-running the same input converges to the same
// graph. Returns the number of nodes written before any error.
func (s *Neo4jStore) UpsertNodes(ctx context.Context, nodes []Node, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	written := 0
	for start := 0; start < len(nodes); start += batchSize {
		end := start + batchSize
		if end > len(nodes) {
			end = len(nodes)
		}
		batch := nodes[start:end]

		// UNWIND requires one label per statement, so a mixed batch is
		// grouped by label before running.
		byLabel := make(map[string][]map[string]any)
		for _, node := range batch {
			byLabel[node.Label] = append(byLabel[node.Label], map[string]any{
				"id":    node.ID,
				"props": node.flatProps(),
			})
		}

		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			for label, rows := range byLabel {
				query := fmt.Sprintf("UNWIND $rows AS row MERGE (n:%s {id: row.id}) SET n += row.props", label)
				if _, err := tx.Run(ctx, query, map[string]any{"rows": rows}); err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
		if err != nil {
			return written, fmt.Errorf("upserting node batch at offset %d: %w", start, err)
		}
		written += len(batch)
	}
	return written, nil
}

// GetNode returns the node's properties, or nil when it does not exist.
func (s *Neo4jStore) GetNode(ctx context.Context, label, id string) (map[string]any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := fmt.Sprintf("MATCH (n:%s {id: $id}) RETURN n", label)
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		return records.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s node %s: %w", label, id, err)
	}

	records := result.([]*neo4j.Record)
	if len(records) == 0 {
		return nil, nil
	}
	nodeValue, _ := records[0].Get("n")
	return nodeValue.(neo4j.Node).Props, nil
}

// NodeIDs returns the set of ids carrying the given label.
func (s *Neo4jStore) NodeIDs(ctx context.Context, label string) (map[string]bool, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := fmt.Sprintf("MATCH (n:%s) RETURN n.id AS id", label)
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		return records.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s ids: %w", label, err)
	}

	ids := make(map[string]bool)
	for _, record := range result.([]*neo4j.Record) {
		if value, found := record.Get("id"); found {
			if id, ok := value.(string); ok {
				ids[id] = true
			}
		}
	}
	return ids, nil
}

// SourceCredits returns section id -> source-credit text for every USC
// section with a non-empty credit.
func (s *Neo4jStore) SourceCredits(ctx context.Context) (map[string]string, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := "MATCH (n:" + LabelUSCSection + ") WHERE n.source_credit IS NOT NULL AND n.source_credit <> '' " +
		"RETURN n.id AS id, n.source_credit AS credit"
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		return records.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("listing source credits: %w", err)
	}

	credits := make(map[string]string)
	for _, record := range result.([]*neo4j.Record) {
		idValue, _ := record.Get("id")
		creditValue, _ := record.Get("credit")
		id, okID := idValue.(string)
		credit, okCredit := creditValue.(string)
		if okID && okCredit {
			credits[id] = credit
		}
	}
	return credits, nil
}

// EdgeExists reports whether an edge of the given type connects the pair.
func (s *Neo4jStore) EdgeExists(ctx context.Context, fromID, toID string, edgeType EdgeType) (bool, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := fmt.Sprintf(
		"MATCH (from {id: $fromID})-[r:%s]->(to {id: $toID}) RETURN count(r) AS count",
		edgeType,
	)
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]any{"fromID": fromID, "toID": toID})
		if err != nil {
			return nil, err
		}
		record, err := records.Single(ctx)
		if err != nil {
			return nil, err
		}
		count, _ := record.Get("count")
		return count, nil
	})
	if err != nil {
		return false, fmt.Errorf("checking %s edge %s -> %s: %w", edgeType, fromID, toID, err)
	}
	return result.(int64) > 0, nil
}

// CreateEdge creates the edge unless one of the same type already
// connects the pair. Returns true when a new edge was written.
func (s *Neo4jStore) CreateEdge(ctx context.Context, edge Edge) (bool, error) {
	exists, err := s.EdgeExists(ctx, edge.FromID, edge.ToID, edge.Type)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := fmt.Sprintf(
		"MATCH (from {id: $fromID}) MATCH (to {id: $toID}) CREATE (from)-[r:%s]->(to) SET r = $props",
		edge.Type,
	)
	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]any{
			"fromID": edge.FromID,
			"toID":   edge.ToID,
			"props":  FlattenProps(edge.Props),
		})
	})
	if err != nil {
		return false, fmt.Errorf("creating %s edge %s -> %s: %w", edge.Type, edge.FromID, edge.ToID, err)
	}
	return true, nil
}

// EnactingLaw returns the Public Law that created the section, or nil
// when none is linked.
func (s *Neo4jStore) EnactingLaw(ctx context.Context, sectionID string) (*LawLink, error) {
	links, err := s.lawLinks(ctx, sectionID, EdgeEnacts)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}
	return &links[0], nil
}

// Amendments returns every Public Law linked to the section by an
// AMENDS edge.
func (s *Neo4jStore) Amendments(ctx context.Context, sectionID string) ([]LawLink, error) {
	return s.lawLinks(ctx, sectionID, EdgeAmends)
}

func (s *Neo4jStore) lawLinks(ctx context.Context, sectionID string, edgeType EdgeType) ([]LawLink, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := fmt.Sprintf(
		"MATCH (law:%s)-[r:%s]->(section:%s {id: $sectionID}) RETURN law, r ORDER BY law.id",
		LabelPublicLaw, edgeType, LabelUSCSection,
	)
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]any{"sectionID": sectionID})
		if err != nil {
			return nil, err
		}
		return records.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("querying %s laws for %s: %w", edgeType, sectionID, err)
	}

	var links []LawLink
	for _, record := range result.([]*neo4j.Record) {
		lawValue, _ := record.Get("law")
		edgeValue, _ := record.Get("r")
		links = append(links, LawLink{
			Type: edgeType,
			Law:  lawValue.(neo4j.Node).Props,
			Edge: edgeValue.(neo4j.Relationship).Props,
		})
	}
	return links, nil
}

// Stats returns node counts by label and edge counts by type.
func (s *Neo4jStore) Stats(ctx context.Context) (*Stats, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	stats := &Stats{Nodes: make(map[string]int), Edges: make(map[string]int)}

	_, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, label := range []string{LabelUSCSection, LabelPublicLaw, LabelBill} {
			records, err := tx.Run(ctx, fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS count", label), nil)
			if err != nil {
				return nil, err
			}
			record, err := records.Single(ctx)
			if err != nil {
				return nil, err
			}
			count, _ := record.Get("count")
			if total := count.(int64); total > 0 {
				stats.Nodes[label] = int(total)
			}
		}
		for _, edgeType := range []EdgeType{EdgeEnacts, EdgeAmends} {
			records, err := tx.Run(ctx, fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r) AS count", edgeType), nil)
			if err != nil {
				return nil, err
			}
			record, err := records.Single(ctx)
			if err != nil {
				return nil, err
			}
			count, _ := record.Get("count")
			if total := count.(int64); total > 0 {
				stats.Edges[string(edgeType)] = int(total)
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting graph stats: %w", err)
	}
	return stats, nil
}

// Close shuts down the underlying driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
