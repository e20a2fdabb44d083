// Package config loads runtime configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/elcontad0r/legislative-intelligence/pkg/graph"
)

// Config holds the settings the CLI needs to reach Neo4j and the
// Congress.gov API.
type Config struct {
	Neo4j             graph.Neo4jConfig
	CongressGovAPIKey string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; a missing file is
// not an error. Unset Neo4j variables fall back to local defaults; the
// Congress.gov key has no default and stays empty when unset.
func Load() Config {
	// Ignore the error: the .env file is a development convenience and
	// production deployments set real environment variables.
	_ = godotenv.Load()

	neo4jConfig := graph.DefaultNeo4jConfig()
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		neo4jConfig.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		neo4jConfig.Username = user
	}
	if password := os.Getenv("NEO4J_PASSWORD"); password != "" {
		neo4jConfig.Password = password
	}

	return Config{
		Neo4j:             neo4jConfig,
		CongressGovAPIKey: os.Getenv("CONGRESS_GOV_API_KEY"),
	}
}
