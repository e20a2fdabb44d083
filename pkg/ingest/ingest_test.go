package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/elcontad0r/legislative-intelligence/pkg/congress"
	"github.com/elcontad0r/legislative-intelligence/pkg/graph"
	"github.com/elcontad0r/legislative-intelligence/pkg/types"
)

const title42Fixture = `<?xml version="1.0" encoding="UTF-8"?>
<uscDoc xmlns="http://xml.house.gov/schemas/uslm/1.0">
  <main>
    <title identifier="/us/usc/t42">
      <heading>The Public Health and Welfare</heading>
      <chapter identifier="/us/usc/t42/ch7" number="7">
        <heading>Social Security</heading>
        <section identifier="/us/usc/t42/s1395">
          <heading>Prohibition against any Federal interference</heading>
          <content><p>Nothing in this subchapter shall be construed.</p></content>
          <sourceCredit>(Pub. L. 89-97, title I, July 30, 1965, 79 Stat. 291;
          Pub. L. 111-148, Mar. 23, 2010, 124 Stat. 119.)</sourceCredit>
        </section>
        <section identifier="/us/usc/t42/s1395x">
          <heading>Definitions</heading>
          <content><p>For purposes of this subchapter.</p></content>
          <sourceCredit>(Pub. L. 89-97, title I, July 30, 1965, 79 Stat. 313;
          Pub. L. 92-603, Oct. 30, 1972, 86 Stat. 1329.)</sourceCredit>
        </section>
        <section identifier="/us/usc/t42/s1396">
          <heading>Appropriations</heading>
          <content><p>No credit recorded for this one.</p></content>
        </section>
      </chapter>
    </title>
  </main>
</uscDoc>`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "usc42.xml")
	if err := os.WriteFile(path, []byte(title42Fixture), 0o644); err != nil {
		t.Fatalf("Writing fixture failed: %v", err)
	}
	return path
}

func TestIngestTitleFile(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	pipeline := NewPipeline(store, nil)

	stats, err := pipeline.IngestTitleFile(ctx, writeFixture(t), 2)
	if err != nil {
		t.Fatalf("IngestTitleFile failed: %v", err)
	}
	if stats.SectionsParsed != 3 || stats.SectionsUpserted != 3 {
		t.Errorf("Expected 3 sections parsed and upserted, got %+v", stats)
	}
	if stats.WithSourceCredits != 2 {
		t.Errorf("Expected 2 sections with credits, got %d", stats.WithSourceCredits)
	}

	props, err := store.GetNode(ctx, graph.LabelUSCSection, "42 USC 1395")
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if props == nil {
		t.Fatal("Expected 42 USC 1395 in the store")
	}
	if props["chapter_number"] != "7" {
		t.Errorf("Expected flattened chapter number, got %v", props["chapter_number"])
	}
}

func TestLinkBuildsEnactsAndAmends(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	pipeline := NewPipeline(store, nil)

	if _, err := pipeline.IngestTitleFile(ctx, writeFixture(t), 0); err != nil {
		t.Fatalf("IngestTitleFile failed: %v", err)
	}

	stats, err := pipeline.Link(ctx, false)
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	if stats.SectionsScanned != 2 {
		t.Errorf("Expected 2 sections scanned, got %d", stats.SectionsScanned)
	}
	if stats.LawsExtracted != 4 {
		t.Errorf("Expected 4 law occurrences, got %d", stats.LawsExtracted)
	}
	if stats.UniqueLaws != 3 || stats.LawNodesUpserted != 3 {
		t.Errorf("Expected 3 unique laws, got %+v", stats)
	}
	// 89-97 enacts both sections; 111-148 and 92-603 each amend one.
	if stats.EnactsCreated != 2 || stats.AmendsCreated != 2 {
		t.Errorf("Expected 2 ENACTS and 2 AMENDS, got %+v", stats)
	}

	enacting, err := store.EnactingLaw(ctx, "42 USC 1395")
	if err != nil {
		t.Fatalf("EnactingLaw failed: %v", err)
	}
	if enacting == nil || enacting.Law["id"] != "Pub. L. 89-97" {
		t.Errorf("Expected Pub. L. 89-97 to enact 42 USC 1395, got %+v", enacting)
	}

	amendments, err := store.Amendments(ctx, "42 USC 1395")
	if err != nil {
		t.Fatalf("Amendments failed: %v", err)
	}
	if len(amendments) != 1 || amendments[0].Law["id"] != "Pub. L. 111-148" {
		t.Errorf("Expected one amendment by Pub. L. 111-148, got %+v", amendments)
	}

	// Merged law nodes carry the date and Stat citation from the first
	// section that supplied them.
	lawProps, err := store.GetNode(ctx, graph.LabelPublicLaw, "Pub. L. 89-97")
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if lawProps["enacted_date"] != "1965-07-30" {
		t.Errorf("Expected ISO enacted date, got %v", lawProps["enacted_date"])
	}
	if lawProps["statutes_at_large"] != "79 Stat. 291" {
		t.Errorf("Expected Stat citation, got %v", lawProps["statutes_at_large"])
	}

	// Edges carry provenance.
	if enacting.Edge["source"] != "usc_source_credit" {
		t.Errorf("Expected edge source, got %v", enacting.Edge["source"])
	}
	if enacting.Edge["run_id"] != pipeline.RunID() {
		t.Errorf("Expected run id %q on edge, got %v", pipeline.RunID(), enacting.Edge["run_id"])
	}
}

func TestLinkIdempotent(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	pipeline := NewPipeline(store, nil)

	if _, err := pipeline.IngestTitleFile(ctx, writeFixture(t), 0); err != nil {
		t.Fatalf("IngestTitleFile failed: %v", err)
	}
	if _, err := pipeline.Link(ctx, false); err != nil {
		t.Fatalf("First link failed: %v", err)
	}
	before, _ := store.Stats(ctx)

	rerun, err := pipeline.Link(ctx, false)
	if err != nil {
		t.Fatalf("Second link failed: %v", err)
	}
	if rerun.EnactsCreated != 0 || rerun.AmendsCreated != 0 {
		t.Errorf("Expected no new edges on re-run, got %+v", rerun)
	}
	if rerun.EdgesSkipped != 4 {
		t.Errorf("Expected 4 edges skipped on re-run, got %d", rerun.EdgesSkipped)
	}

	after, _ := store.Stats(ctx)
	if after.Nodes[graph.LabelPublicLaw] != before.Nodes[graph.LabelPublicLaw] {
		t.Errorf("Law count changed across re-run: %v -> %v", before.Nodes, after.Nodes)
	}
	for edgeType, count := range before.Edges {
		if after.Edges[edgeType] != count {
			t.Errorf("%s count changed across re-run: %d -> %d", edgeType, count, after.Edges[edgeType])
		}
	}
}

func TestLinkDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	pipeline := NewPipeline(store, nil)

	if _, err := pipeline.IngestTitleFile(ctx, writeFixture(t), 0); err != nil {
		t.Fatalf("IngestTitleFile failed: %v", err)
	}

	stats, err := pipeline.Link(ctx, true)
	if err != nil {
		t.Fatalf("Dry-run link failed: %v", err)
	}
	if stats.UniqueLaws != 3 {
		t.Errorf("Expected 3 unique laws planned, got %d", stats.UniqueLaws)
	}
	if stats.EnactsCreated != 2 || stats.AmendsCreated != 2 {
		t.Errorf("Expected planned edge counts, got %+v", stats)
	}
	if stats.LawNodesUpserted != 0 {
		t.Errorf("Expected no law nodes written, got %d", stats.LawNodesUpserted)
	}

	graphStats, _ := store.Stats(ctx)
	if graphStats.Nodes[graph.LabelPublicLaw] != 0 || len(graphStats.Edges) != 0 {
		t.Errorf("Expected untouched graph after dry run, got %+v", graphStats)
	}
}

// fakeLawSource serves canned laws for Enrich tests.
type fakeLawSource struct {
	laws []congress.PublicLaw
}

func (fake *fakeLawSource) GetLaws(ctx context.Context, congressNumber int) ([]congress.PublicLaw, error) {
	return fake.laws, nil
}

func TestEnrichOnlyTouchesKnownLaws(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	pipeline := NewPipeline(store, nil)

	if _, err := pipeline.IngestTitleFile(ctx, writeFixture(t), 0); err != nil {
		t.Fatalf("IngestTitleFile failed: %v", err)
	}
	if _, err := pipeline.Link(ctx, false); err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	march23 := types.Date{Year: 2010, Month: 3, Day: 23}
	source := &fakeLawSource{laws: []congress.PublicLaw{
		{
			Congress: 111, LawNumber: 148, CanonicalID: "Pub. L. 111-148",
			Title:       "Patient Protection and Affordable Care Act",
			BillID:      "HR 3590 (111th)",
			EnactedDate: &march23,
		},
		{
			Congress: 111, LawNumber: 3, CanonicalID: "Pub. L. 111-3",
			Title: "Children's Health Insurance Program Reauthorization Act of 2009",
		},
	}}

	stats, err := pipeline.Enrich(ctx, source, 111)
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}
	if stats.LawsFetched != 2 || stats.LawsMatched != 1 || stats.LawsEnriched != 1 {
		t.Errorf("Expected 1 of 2 laws enriched, got %+v", stats)
	}

	props, err := store.GetNode(ctx, graph.LabelPublicLaw, "Pub. L. 111-148")
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if props["title"] != "Patient Protection and Affordable Care Act" {
		t.Errorf("Expected enriched title, got %v", props["title"])
	}
	if props["bill_id"] != "HR 3590 (111th)" {
		t.Errorf("Expected originating bill, got %v", props["bill_id"])
	}
	// Facts extracted from source credits survive enrichment.
	if props["statutes_at_large"] != "124 Stat. 119" {
		t.Errorf("Expected Stat citation retained, got %v", props["statutes_at_large"])
	}

	// The unmatched law is not added to the graph.
	if unknown, _ := store.GetNode(ctx, graph.LabelPublicLaw, "Pub. L. 111-3"); unknown != nil {
		t.Errorf("Expected Pub. L. 111-3 to stay out of the graph, got %v", unknown)
	}
}
