// Package ingest orchestrates the pipeline that builds the citation
// graph: load U.S. Code sections into the store, extract Public Law
// history from their source credits, and link laws to sections with
// ENACTS and AMENDS edges. Every step is idempotent, so re-running the
// pipeline over the same inputs converges instead of duplicating.
package ingest

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/elcontad0r/legislative-intelligence/pkg/congress"
	"github.com/elcontad0r/legislative-intelligence/pkg/graph"
	"github.com/elcontad0r/legislative-intelligence/pkg/sourcecredit"
	"github.com/elcontad0r/legislative-intelligence/pkg/uscxml"
)

// DefaultBatchSize is the node batch size used when the caller passes
// zero.
const DefaultBatchSize = 500

// LawSource fetches Public Laws from an upstream API. Satisfied by
// *congress.Client.
type LawSource interface {
	GetLaws(ctx context.Context, congressNumber int) ([]congress.PublicLaw, error)
}

// Pipeline runs ingestion steps against a graph store. Each Pipeline
// carries a run id that is stamped onto the edges it creates, so a
// graph can be traced back to the runs that built it.
type Pipeline struct {
	store  graph.Store
	parser *sourcecredit.Extractor
	runID  string
	logger *log.Logger
}

// NewPipeline creates a Pipeline writing to the given store. A nil
// logger silences progress output.
func NewPipeline(store graph.Store, logger *log.Logger) *Pipeline {
	return &Pipeline{
		store:  store,
		parser: sourcecredit.NewExtractor(),
		runID:  uuid.NewString(),
		logger: logger,
	}
}

// RunID returns the identifier stamped onto edges created by this
// pipeline instance.
func (p *Pipeline) RunID() string {
	return p.runID
}

// IngestStats reports the outcome of a section-loading step.
type IngestStats struct {
	RunID             string `json:"run_id"`
	SectionsParsed    int    `json:"sections_parsed"`
	SectionsUpserted  int    `json:"sections_upserted"`
	WithSourceCredits int    `json:"with_source_credits"`
}

// IngestTitleFile parses one USLM title file and upserts its sections.
func (p *Pipeline) IngestTitleFile(ctx context.Context, path string, batchSize int) (*IngestStats, error) {
	sections, err := uscxml.ParseTitleFile(path)
	if err != nil {
		return nil, err
	}
	return p.ingestSections(ctx, sections, batchSize)
}

// IngestDirectory parses every USLM title file in a directory and
// upserts their sections.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string, batchSize int) (*IngestStats, error) {
	sections, err := uscxml.ParseDirectory(dir)
	if err != nil {
		return nil, err
	}
	return p.ingestSections(ctx, sections, batchSize)
}

func (p *Pipeline) ingestSections(ctx context.Context, sections []uscxml.Section, batchSize int) (*IngestStats, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	stats := &IngestStats{RunID: p.runID, SectionsParsed: len(sections)}
	nodes := make([]graph.Node, 0, len(sections))
	for _, section := range sections {
		nodes = append(nodes, section.Node())
		if section.SourceCredit != "" {
			stats.WithSourceCredits++
		}
	}

	written, err := p.store.UpsertNodes(ctx, nodes, batchSize)
	stats.SectionsUpserted = written
	if err != nil {
		return stats, fmt.Errorf("upserting sections: %w", err)
	}

	p.logf("ingested %d sections (%d with source credits)", stats.SectionsUpserted, stats.WithSourceCredits)
	return stats, nil
}

// LinkStats reports the outcome of a linking step.
type LinkStats struct {
	RunID            string `json:"run_id"`
	SectionsScanned  int    `json:"sections_scanned"`
	LawsExtracted    int    `json:"laws_extracted"`
	UniqueLaws       int    `json:"unique_laws"`
	LawNodesUpserted int    `json:"law_nodes_upserted"`
	EnactsCreated    int    `json:"enacts_created"`
	AmendsCreated    int    `json:"amends_created"`
	EdgesSkipped     int    `json:"edges_skipped"`
	DryRun           bool   `json:"dry_run"`
}

// Link reads the source credit of every stored section, extracts and
// merges the Public Laws they cite, upserts one PublicLaw node per
// unique law, and connects laws to sections. The first law in a
// section's credit gets an ENACTS edge, every later one an AMENDS
// edge. Existing edges are skipped, so Link is safe to re-run.
//
// With dryRun set, nothing is written; the stats report what a real
// run would do, except that EdgesSkipped stays zero because no
// existence checks are made.
func (p *Pipeline) Link(ctx context.Context, dryRun bool) (*LinkStats, error) {
	credits, err := p.store.SourceCredits(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading source credits: %w", err)
	}

	stats := &LinkStats{RunID: p.runID, SectionsScanned: len(credits), DryRun: dryRun}

	var extracted []*sourcecredit.ExtractedPublicLaw
	for _, sectionID := range sortedKeys(credits) {
		records := p.parser.Extract(credits[sectionID], sectionID)
		stats.LawsExtracted += len(records)
		extracted = append(extracted, records...)
	}

	merged := sourcecredit.Merge(extracted)
	stats.UniqueLaws = len(merged)

	lawNodes := make([]graph.Node, 0, len(merged))
	for _, canonicalID := range sortedKeys(merged) {
		lawNodes = append(lawNodes, lawNode(merged[canonicalID]))
	}
	edges := p.PlanEdges(merged)

	if dryRun {
		for _, edge := range edges {
			countEdge(stats, edge.Type)
		}
		p.logf("dry run: %d laws, %d edges planned", len(lawNodes), len(edges))
		return stats, nil
	}

	written, err := p.store.UpsertNodes(ctx, lawNodes, DefaultBatchSize)
	stats.LawNodesUpserted = written
	if err != nil {
		return stats, fmt.Errorf("upserting law nodes: %w", err)
	}

	for _, edge := range edges {
		created, err := p.store.CreateEdge(ctx, edge)
		if err != nil {
			return stats, fmt.Errorf("linking %s to %s: %w", edge.FromID, edge.ToID, err)
		}
		if !created {
			stats.EdgesSkipped++
			continue
		}
		countEdge(stats, edge.Type)
	}

	p.logf("linked %d laws: %d ENACTS, %d AMENDS, %d skipped",
		stats.UniqueLaws, stats.EnactsCreated, stats.AmendsCreated, stats.EdgesSkipped)
	return stats, nil
}

// PlanEdges computes the edges a set of merged laws implies, in
// deterministic order (by law id, then section id). Each law points at
// each section that cites it; the edge type follows the law's position
// within that section's credit.
func (p *Pipeline) PlanEdges(merged map[string]*sourcecredit.ExtractedPublicLaw) []graph.Edge {
	var edges []graph.Edge
	for _, canonicalID := range sortedKeys(merged) {
		record := merged[canonicalID]
		for _, sectionID := range sortedKeys(record.PositionInSource) {
			position := record.PositionInSource[sectionID]
			edges = append(edges, graph.Edge{
				Type:   graph.RoleForPosition(position),
				FromID: canonicalID,
				ToID:   sectionID,
				Props: map[string]any{
					"source":   "usc_source_credit",
					"position": position,
					"run_id":   p.runID,
				},
			})
		}
	}
	return edges
}

// EnrichStats reports the outcome of an enrichment step.
type EnrichStats struct {
	RunID        string `json:"run_id"`
	LawsFetched  int    `json:"laws_fetched"`
	LawsMatched  int    `json:"laws_matched"`
	LawsEnriched int    `json:"laws_enriched"`
}

// Enrich fetches every Public Law of a Congress from the upstream API
// and layers titles, enactment dates, and originating bills onto the
// matching law nodes already in the graph. Laws the graph has never
// seen are left out; enrichment decorates the citation graph, it does
// not grow it.
func (p *Pipeline) Enrich(ctx context.Context, source LawSource, congressNumber int) (*EnrichStats, error) {
	laws, err := source.GetLaws(ctx, congressNumber)
	if err != nil {
		return nil, fmt.Errorf("fetching laws for congress %d: %w", congressNumber, err)
	}

	known, err := p.store.NodeIDs(ctx, graph.LabelPublicLaw)
	if err != nil {
		return nil, fmt.Errorf("listing known laws: %w", err)
	}

	stats := &EnrichStats{RunID: p.runID, LawsFetched: len(laws)}
	for _, law := range laws {
		if !known[law.CanonicalID] {
			continue
		}
		stats.LawsMatched++
		if err := p.store.UpsertNode(ctx, law.Node()); err != nil {
			return stats, fmt.Errorf("enriching %s: %w", law.CanonicalID, err)
		}
		stats.LawsEnriched++
	}

	p.logf("enriched %d of %d laws from congress %d", stats.LawsEnriched, stats.LawsFetched, congressNumber)
	return stats, nil
}

// lawNode builds the PublicLaw node for a merged extraction record.
func lawNode(record *sourcecredit.ExtractedPublicLaw) graph.Node {
	props := map[string]any{
		"congress":   record.Congress,
		"law_number": record.LawNumber,
		"source":     "usc_source_credit",
	}
	if record.EnactedDate != nil {
		props["enacted_date"] = record.EnactedDate
	}
	if record.StatutesAtLarge != "" {
		props["statutes_at_large"] = record.StatutesAtLarge
	}
	return graph.Node{Label: graph.LabelPublicLaw, ID: record.CanonicalID, Props: props}
}

func countEdge(stats *LinkStats, edgeType graph.EdgeType) {
	switch edgeType {
	case graph.EdgeEnacts:
		stats.EnactsCreated++
	case graph.EdgeAmends:
		stats.AmendsCreated++
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}
