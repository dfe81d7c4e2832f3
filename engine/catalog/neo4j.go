package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/AutoEstimateAI/autoestimate-mvp/engine/domain"
	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// GraphSource serves catalog entries from a Neo4j graph shaped as
// (:Make {id})-[:SELLS]->(:Part {description, price}). It backs deployments
// where the catalog is refreshed by an external loader while estimates read
// one snapshot per request.
type GraphSource struct {
	driver neo4j.DriverWithContext
}

// NewGraphSource creates a GraphSource on an existing driver.
func NewGraphSource(driver neo4j.DriverWithContext) *GraphSource {
	return &GraphSource{driver: driver}
}

// EntriesByMake implements Source with a single read query, so the returned
// slice is one consistent snapshot of the make's rows.
func (g *GraphSource) EntriesByMake(ctx context.Context, mk string) ([]domain.CatalogEntry, error) {
	sess := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer sess.Close(ctx)

	cypher := `MATCH (m:Make {id: $make})-[:SELLS]->(p:Part) RETURN p`
	result, err := sess.Run(ctx, cypher, map[string]any{"make": makeID(mk)})
	if err != nil {
		return nil, err
	}

	var entries []domain.CatalogEntry
	for result.Next(ctx) {
		node, _, err := neo4j.GetRecordValue[dbtype.Node](result.Record(), "p")
		if err != nil {
			return nil, err
		}
		entries = append(entries, entryFromProps(mk, node.Props))
	}
	return entries, result.Err()
}

// SaveEntries merges catalog entries into the graph in one transaction.
// Part node IDs are derived deterministically from make and description so
// repeated loads are idempotent.
func (g *GraphSource) SaveEntries(ctx context.Context, entries []domain.CatalogEntry) error {
	sess := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, e := range entries {
			mk := makeID(e.Make)
			partID := uuid.NewSHA1(uuid.NameSpaceURL, []byte(mk+"|"+strings.ToLower(e.Description))).String()
			cypher := `MERGE (m:Make {id: $make}) SET m.name = $makeName
			           MERGE (p:Part {id: $id})
			           SET p.description = $description, p.price = $price
			           MERGE (m)-[:SELLS]->(p)`
			if _, err := tx.Run(ctx, cypher, map[string]any{
				"make":        mk,
				"makeName":    strings.TrimSpace(e.Make),
				"id":          partID,
				"description": e.Description,
				"price":       e.Price,
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// CountParts returns the number of Part nodes for a make.
func (g *GraphSource) CountParts(ctx context.Context, mk string) (int64, error) {
	sess := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer sess.Close(ctx)

	cypher := `MATCH (:Make {id: $make})-[:SELLS]->(p:Part) RETURN count(p) AS n`
	result, err := sess.Run(ctx, cypher, map[string]any{"make": makeID(mk)})
	if err != nil {
		return 0, err
	}
	if !result.Next(ctx) {
		return 0, fmt.Errorf("catalog: no count row for make %s", mk)
	}
	n, _ := result.Record().Get("n")
	count, ok := n.(int64)
	if !ok {
		return 0, fmt.Errorf("catalog: unexpected count type %T", n)
	}
	return count, nil
}

func makeID(mk string) string {
	return strings.ToUpper(strings.TrimSpace(mk))
}

func entryFromProps(mk string, props map[string]any) domain.CatalogEntry {
	e := domain.CatalogEntry{Make: makeID(mk)}
	if s, ok := props["description"].(string); ok {
		e.Description = s
	}
	switch v := props["price"].(type) {
	case float64:
		e.Price = v
	case int64:
		e.Price = float64(v)
	}
	return e
}
