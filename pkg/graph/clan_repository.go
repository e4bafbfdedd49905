package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/keizu/pkg/models"
	"github.com/Ramsey-B/keizu/pkg/tracing"
)

// ClanRepository stores clans as (:Clan) nodes with HAS_SUB_CLAN edges.
type ClanRepository struct {
	client *Client
	logger ectologger.Logger
}

func NewClanRepository(client *Client, logger ectologger.Logger) *ClanRepository {
	return &ClanRepository{
		client: client,
		logger: logger,
	}
}

func (r *ClanRepository) FindByID(ctx context.Context, id string) (*models.Clan, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.ClanRepository.FindByID")
	defer span.End()

	return r.findOne(ctx, `MATCH (c:Clan {identifier: $id}) RETURN c LIMIT 1`, map[string]any{"id": id})
}

func (r *ClanRepository) FindByName(ctx context.Context, name string) (*models.Clan, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.ClanRepository.FindByName")
	defer span.End()

	cypher := `
		MATCH (c:Clan)
		WHERE $name IN c.clanNameValues
		RETURN c ORDER BY c.identifier LIMIT 1
	`
	return r.findOne(ctx, cypher, map[string]any{"name": name})
}

func (r *ClanRepository) Save(ctx context.Context, clan *models.Clan) error {
	ctx, span := tracing.StartSpan(ctx, "graph.ClanRepository.Save")
	defer span.End()

	props, err := clanProps(clan)
	if err != nil {
		return err
	}

	cypher := `
		MERGE (c:Clan {identifier: $id})
		SET c += $props
	`
	if err := r.client.write(ctx, cypher, map[string]any{"id": clan.ID, "props": props}); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("clan_id", clan.ID).Error("Failed to save clan in graph")
		return fmt.Errorf("failed to save clan %s: %w", clan.ID, err)
	}

	return nil
}

func (r *ClanRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.ClanRepository.Delete")
	defer span.End()

	if err := r.client.write(ctx, `MATCH (c:Clan {identifier: $id}) DETACH DELETE c`, map[string]any{"id": id}); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("clan_id", id).Error("Failed to delete clan in graph")
		return fmt.Errorf("failed to delete clan %s: %w", id, err)
	}

	return nil
}

func (r *ClanRepository) CreateSubClanEdge(ctx context.Context, parentID, subClanID string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.ClanRepository.CreateSubClanEdge")
	defer span.End()

	cypher := `
		MATCH (p:Clan {identifier: $parentId}), (s:Clan {identifier: $subClanId})
		MERGE (p)-[:HAS_SUB_CLAN]->(s)
		RETURN p.identifier AS parentId
	`

	_, err := r.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{"parentId": parentID, "subClanId": subClanID})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, errNoMatch
		}
		return result.Consume(ctx)
	})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"parent_clan_id": parentID,
			"sub_clan_id":    subClanID,
		}).Error("Failed to create HAS_SUB_CLAN edge in graph")
		return fmt.Errorf("failed to create HAS_SUB_CLAN edge %s->%s: %w", parentID, subClanID, err)
	}

	return nil
}

func (r *ClanRepository) findOne(ctx context.Context, cypher string, params map[string]any) (*models.Clan, error) {
	result, err := r.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}

		if result.Next(ctx) {
			return clanFromProps(nodeProps(result.Record(), "c"))
		}
		return nil, result.Err()
	})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to read clan from graph")
		return nil, fmt.Errorf("failed to read clan: %w", err)
	}

	if result == nil {
		return nil, nil
	}
	return result.(*models.Clan), nil
}
