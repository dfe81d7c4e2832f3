// Package main implements the catalog loader: it reads an OEM parts catalog
// CSV and merges it into the Neo4j graph the API reads from.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/AutoEstimateAI/autoestimate-mvp/engine/catalog"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/domain"
	"github.com/AutoEstimateAI/autoestimate-mvp/pkg/fn"
)

func main() {
	var (
		catalogPath = flag.String("catalog", "data/oem_catalog.csv", "OEM catalog CSV to load")
		neo4jURL    = flag.String("neo4j-url", envOr("NEO4J_URL", "neo4j://localhost:7687"), "Neo4j bolt URL")
		neo4jUser   = flag.String("neo4j-user", envOr("NEO4J_USER", "neo4j"), "Neo4j user")
		neo4jPass   = flag.String("neo4j-pass", envOr("NEO4J_PASS", "password"), "Neo4j password")
		batchSize   = flag.Int("batch", 200, "entries per write transaction")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(*catalogPath, *neo4jURL, *neo4jUser, *neo4jPass, *batchSize, logger); err != nil {
		logger.Error("catalog load failed", "err", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(catalogPath, url, user, pass string, batchSize int, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver, err := neo4j.NewDriverWithContext(url, neo4j.BasicAuth(user, pass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer driver.Close(ctx)

	src := catalog.NewGraphSource(driver)

	parse := fn.TracedStage("loader.parse", func(_ context.Context, path string) fn.Result[[]domain.CatalogEntry] {
		return fn.FromPair(catalog.LoadCSVFile(path))
	})
	save := fn.TracedStage("loader.save", func(ctx context.Context, entries []domain.CatalogEntry) fn.Result[[]domain.CatalogEntry] {
		for _, batch := range fn.Chunk(entries, batchSize) {
			if err := src.SaveEntries(ctx, batch); err != nil {
				return fn.Err[[]domain.CatalogEntry](err)
			}
		}
		return fn.Ok(entries)
	})

	entries, err := fn.Then(parse, save)(ctx, catalogPath).Unwrap()
	if err != nil {
		return err
	}

	makes := fn.Unique(fn.Map(entries, func(e domain.CatalogEntry) string { return e.Make }))
	for _, mk := range makes {
		n, err := src.CountParts(ctx, mk)
		if err != nil {
			logger.Warn("count parts", "make", mk, "err", err)
			continue
		}
		logger.Info("catalog make loaded", "make", mk, "parts", n)
	}

	logger.Info("catalog load complete", "entries", len(entries), "makes", len(makes))
	return nil
}
