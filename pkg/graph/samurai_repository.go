package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/keizu/pkg/models"
	"github.com/Ramsey-B/keizu/pkg/tracing"
)

// errNoMatch reports a write whose MATCH clause bound nothing.
var errNoMatch = errors.New("no matching nodes")

const samuraiWithClan = `
	OPTIONAL MATCH (s)-[:BELONGS_TO]->(c:Clan)
	RETURN s, c.identifier AS clanId
`

// SamuraiRepository stores samurai as (:Samurai:Human) nodes with PARENT_OF and BELONGS_TO edges.
type SamuraiRepository struct {
	client *Client
	logger ectologger.Logger
}

func NewSamuraiRepository(client *Client, logger ectologger.Logger) *SamuraiRepository {
	return &SamuraiRepository{
		client: client,
		logger: logger,
	}
}

func (r *SamuraiRepository) FindByID(ctx context.Context, id string) (*models.Samurai, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.SamuraiRepository.FindByID")
	defer span.End()

	cypher := `MATCH (s:Samurai {identifier: $id})` + samuraiWithClan + `LIMIT 1`
	return r.findOne(ctx, cypher, map[string]any{"id": id})
}

func (r *SamuraiRepository) FindByName(ctx context.Context, givenName, familyName string) (*models.Samurai, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.SamuraiRepository.FindByName")
	defer span.End()

	cypher := `
		MATCH (s:Samurai)
		WHERE $givenName IN s.givenNameValues AND $familyName IN s.familyNameValues
		WITH s ORDER BY s.identifier LIMIT 1
	` + samuraiWithClan
	return r.findOne(ctx, cypher, map[string]any{"givenName": givenName, "familyName": familyName})
}

func (r *SamuraiRepository) FindDirectChildren(ctx context.Context, id string) ([]models.Offspring, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.SamuraiRepository.FindDirectChildren")
	defer span.End()

	cypher := `
		MATCH (:Samurai {identifier: $id})-[r:PARENT_OF]->(s:Samurai)
		OPTIONAL MATCH (s)-[:BELONGS_TO]->(c:Clan)
		RETURN s, r.type AS type, c.identifier AS clanId
		ORDER BY s.birthDate, s.identifier, r.type
	`

	result, err := r.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}

		children := []models.Offspring{}
		for result.Next(ctx) {
			record := result.Record()
			child, err := samuraiFromProps(nodeProps(record, "s"), recordString(record, "clanId"))
			if err != nil {
				return nil, err
			}
			children = append(children, models.Offspring{
				Samurai:          child,
				RelationshipType: recordString(record, "type"),
			})
		}
		return children, result.Err()
	})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("samurai_id", id).Error("Failed to load children from graph")
		return nil, fmt.Errorf("failed to load children of %s: %w", id, err)
	}

	return result.([]models.Offspring), nil
}

func (r *SamuraiRepository) CreateEdge(ctx context.Context, parentID, childID, relationshipType string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.SamuraiRepository.CreateEdge")
	defer span.End()

	cypher := `
		MATCH (p:Samurai {identifier: $parentId}), (c:Samurai {identifier: $childId})
		MERGE (p)-[:PARENT_OF {type: $type}]->(c)
		RETURN p.identifier AS parentId
	`

	_, err := r.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"parentId": parentID,
			"childId":  childID,
			"type":     relationshipType,
		})
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
			"parent_id": parentID,
			"child_id":  childID,
		}).Error("Failed to create PARENT_OF edge in graph")
		return fmt.Errorf("failed to create PARENT_OF edge %s->%s: %w", parentID, childID, err)
	}

	return nil
}

func (r *SamuraiRepository) Save(ctx context.Context, samurai *models.Samurai) error {
	ctx, span := tracing.StartSpan(ctx, "graph.SamuraiRepository.Save")
	defer span.End()

	props, err := samuraiProps(samurai)
	if err != nil {
		return err
	}

	cypher := `
		MERGE (s:Samurai:Human {identifier: $id})
		SET s += $props
	`
	if err := r.client.write(ctx, cypher, map[string]any{"id": samurai.ID, "props": props}); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("samurai_id", samurai.ID).Error("Failed to save samurai in graph")
		return fmt.Errorf("failed to save samurai %s: %w", samurai.ID, err)
	}

	return nil
}

func (r *SamuraiRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.SamuraiRepository.Delete")
	defer span.End()

	if err := r.client.write(ctx, `MATCH (s:Samurai {identifier: $id}) DETACH DELETE s`, map[string]any{"id": id}); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("samurai_id", id).Error("Failed to delete samurai in graph")
		return fmt.Errorf("failed to delete samurai %s: %w", id, err)
	}

	return nil
}

func (r *SamuraiRepository) SearchByNickName(ctx context.Context, nickName string) ([]*models.Samurai, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.SamuraiRepository.SearchByNickName")
	defer span.End()

	cypher := `
		MATCH (s:Samurai)
		WHERE any(v IN s.nickNameValues WHERE toLower(v) CONTAINS toLower($nickName))
	` + samuraiWithClan + `ORDER BY s.identifier`

	result, err := r.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{"nickName": nickName})
		if err != nil {
			return nil, err
		}

		found := []*models.Samurai{}
		for result.Next(ctx) {
			record := result.Record()
			s, err := samuraiFromProps(nodeProps(record, "s"), recordString(record, "clanId"))
			if err != nil {
				return nil, err
			}
			found = append(found, s)
		}
		return found, result.Err()
	})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to search samurai in graph")
		return nil, fmt.Errorf("failed to search samurai by nickname: %w", err)
	}

	return result.([]*models.Samurai), nil
}

func (r *SamuraiRepository) AssignClan(ctx context.Context, samuraiID, clanID string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.SamuraiRepository.AssignClan")
	defer span.End()

	params := map[string]any{"samuraiId": samuraiID, "clanId": clanID}

	_, err := r.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (:Samurai {identifier: $samuraiId})-[old:BELONGS_TO]->(:Clan)
			DELETE old
		`, params)
		if err != nil {
			return nil, err
		}
		if _, err := result.Consume(ctx); err != nil {
			return nil, err
		}

		result, err = tx.Run(ctx, `
			MATCH (s:Samurai {identifier: $samuraiId}), (c:Clan {identifier: $clanId})
			MERGE (s)-[:BELONGS_TO]->(c)
			RETURN s.identifier AS samuraiId
		`, params)
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
			"samurai_id": samuraiID,
			"clan_id":    clanID,
		}).Error("Failed to assign clan in graph")
		return fmt.Errorf("failed to assign samurai %s to clan %s: %w", samuraiID, clanID, err)
	}

	return nil
}

func (r *SamuraiRepository) findOne(ctx context.Context, cypher string, params map[string]any) (*models.Samurai, error) {
	result, err := r.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}

		if result.Next(ctx) {
			record := result.Record()
			return samuraiFromProps(nodeProps(record, "s"), recordString(record, "clanId"))
		}
		return nil, result.Err()
	})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to read samurai from graph")
		return nil, fmt.Errorf("failed to read samurai: %w", err)
	}

	if result == nil {
		return nil, nil
	}
	return result.(*models.Samurai), nil
}
