package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/elcontad0r/legislative-intelligence/pkg/citation"
	"github.com/elcontad0r/legislative-intelligence/pkg/config"
	"github.com/elcontad0r/legislative-intelligence/pkg/congress"
	"github.com/elcontad0r/legislative-intelligence/pkg/graph"
	"github.com/elcontad0r/legislative-intelligence/pkg/ingest"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "legis",
		Short: "Legislative citation graph builder",
		Long: `Legis builds a citation graph of U.S. federal legislation.

It parses U.S. Code title XML into section nodes, extracts each
section's Public Law history from its source credits, and links laws
to the sections they enacted or amended in a Neo4j graph:

  (PublicLaw)-[:ENACTS]->(USCSection)
  (PublicLaw)-[:AMENDS]->(USCSection)

Connection settings come from the environment (or a .env file):
NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD, CONGRESS_GOV_API_KEY.`,
		Version: version,
	}

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(linkCmd())
	rootCmd.AddCommand(enrichCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore connects to Neo4j using environment configuration.
func openStore(ctx context.Context) (graph.Store, error) {
	settings := config.Load()
	store, err := graph.NewNeo4jStore(ctx, settings.Neo4j)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create graph constraints and indexes",
		Long: `Create the uniqueness constraints and indexes the graph relies on.
Safe to run more than once.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			if err := store.InitSchema(ctx); err != nil {
				return err
			}
			fmt.Println("Graph schema initialized")
			return nil
		},
	}
}

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load U.S. Code sections from USLM XML",
		Long: `Parse USLM XML and upsert one USCSection node per section.

Accepts a single title file or a directory of usc*.xml files, as
downloaded from https://uscode.house.gov/download/download.shtml.

Example:
  legis ingest --source usc42.xml
  legis ingest --source ./usc_xml/ --batch-size 1000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")
			batchSize, _ := cmd.Flags().GetInt("batch-size")

			if source == "" {
				return fmt.Errorf("--source flag is required")
			}
			info, err := os.Stat(source)
			if os.IsNotExist(err) {
				return fmt.Errorf("source not found: %s", source)
			}
			if err != nil {
				return fmt.Errorf("failed to stat source: %w", err)
			}

			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			pipeline := ingest.NewPipeline(store, log.New(os.Stderr, "", log.LstdFlags))

			fmt.Printf("Ingesting U.S. Code sections from: %s\n", source)
			startTime := time.Now()

			var stats *ingest.IngestStats
			if info.IsDir() {
				stats, err = pipeline.IngestDirectory(ctx, source, batchSize)
			} else {
				stats, err = pipeline.IngestTitleFile(ctx, source, batchSize)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Done in %s\n", time.Since(startTime).Round(time.Millisecond))
			fmt.Printf("  Sections parsed:      %d\n", stats.SectionsParsed)
			fmt.Printf("  Sections upserted:    %d\n", stats.SectionsUpserted)
			fmt.Printf("  With source credits:  %d\n", stats.WithSourceCredits)
			return nil
		},
	}

	cmd.Flags().String("source", "", "USLM XML file or directory (required)")
	cmd.Flags().Int("batch-size", ingest.DefaultBatchSize, "Nodes per write transaction")
	return cmd
}

func linkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link Public Laws to the sections they enacted or amended",
		Long: `Extract Public Law citations from stored section source credits,
upsert one PublicLaw node per unique law, and create ENACTS/AMENDS
edges. The first law in a section's credit enacted the section; every
later one amended it. Existing edges are left alone, so link can be
re-run after each ingest.

Example:
  legis link
  legis link --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			pipeline := ingest.NewPipeline(store, log.New(os.Stderr, "", log.LstdFlags))

			startTime := time.Now()
			stats, err := pipeline.Link(ctx, dryRun)
			if err != nil {
				return err
			}

			if dryRun {
				fmt.Println("Dry run; nothing written")
			}
			fmt.Printf("Done in %s\n", time.Since(startTime).Round(time.Millisecond))
			fmt.Printf("  Sections scanned:   %d\n", stats.SectionsScanned)
			fmt.Printf("  Law citations:      %d\n", stats.LawsExtracted)
			fmt.Printf("  Unique laws:        %d\n", stats.UniqueLaws)
			fmt.Printf("  Law nodes upserted: %d\n", stats.LawNodesUpserted)
			fmt.Printf("  ENACTS created:     %d\n", stats.EnactsCreated)
			fmt.Printf("  AMENDS created:     %d\n", stats.AmendsCreated)
			fmt.Printf("  Edges skipped:      %d\n", stats.EdgesSkipped)
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Plan without writing")
	return cmd
}

func enrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich Public Law nodes from the Congress.gov API",
		Long: `Fetch the public laws of a Congress from api.congress.gov and add
titles, enactment dates, and originating bills to the matching law
nodes. Requires CONGRESS_GOV_API_KEY.

Example:
  legis enrich --congress 117`,
		RunE: func(cmd *cobra.Command, args []string) error {
			congressNumber, _ := cmd.Flags().GetInt("congress")
			if congressNumber <= 0 {
				return fmt.Errorf("--congress flag is required")
			}

			settings := config.Load()
			client, err := congress.NewClient(congress.DefaultConfig(settings.CongressGovAPIKey))
			if err != nil {
				return err
			}
			defer client.Close()

			ctx := cmd.Context()
			store, err := graph.NewNeo4jStore(ctx, settings.Neo4j)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			pipeline := ingest.NewPipeline(store, log.New(os.Stderr, "", log.LstdFlags))

			fmt.Printf("Enriching laws from the %dth Congress\n", congressNumber)
			startTime := time.Now()
			stats, err := pipeline.Enrich(ctx, client, congressNumber)
			if err != nil {
				return err
			}

			fmt.Printf("Done in %s\n", time.Since(startTime).Round(time.Millisecond))
			fmt.Printf("  Laws fetched:  %d\n", stats.LawsFetched)
			fmt.Printf("  Laws matched:  %d\n", stats.LawsMatched)
			fmt.Printf("  Laws enriched: %d\n", stats.LawsEnriched)
			return nil
		},
	}

	cmd.Flags().Int("congress", 0, "Congress number, e.g. 117 (required)")
	return cmd
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [text]",
		Short: "Parse legal citations from text",
		Long: `Parse a text fragment and print the citations found in it, with
their canonical forms. Reads standard input when no argument is given.

Recognizes U.S. Code, Public Law, bill, C.F.R., Federal Register, and
Statutes at Large citations.

Example:
  legis parse "42 U.S.C. 1395x(a)(1) as amended by Pub. L. 111-148"
  echo "Section 1862 of title 42" | legis parse --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			var text string
			if len(args) > 0 {
				text = args[0]
			} else {
				input, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("reading standard input: %w", err)
				}
				text = string(input)
			}

			parsed := citation.NewParser().Parse(text)

			if asJSON {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(parsed)
			}

			if len(parsed) == 0 {
				fmt.Println("No citations found")
				return nil
			}
			for _, cite := range parsed {
				fmt.Printf("%-18s %-24s %q\n", cite.Family, cite.Canonical, cite.Original)
			}
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Emit JSON")
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show graph node and edge counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			stats, err := store.Stats(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(stats)
			}

			fmt.Println("Nodes:")
			for label, count := range stats.Nodes {
				fmt.Printf("  %-12s %d\n", label, count)
			}
			fmt.Println("Edges:")
			for edgeType, count := range stats.Edges {
				fmt.Printf("  %-12s %d\n", edgeType, count)
			}
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Emit JSON")
	return cmd
}
