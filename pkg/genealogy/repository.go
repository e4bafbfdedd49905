// Package genealogy holds the samurai and clan services: name resolution across localized clan
// names, relationship classification, and cycle-safe descendant tree reconstruction.
package genealogy

import (
	"context"

	"github.com/Ramsey-B/keizu/pkg/models"
)

// PersonRepository stores samurai and their PARENT_OF and BELONGS_TO edges.
// Lookup misses return (nil, nil).
type PersonRepository interface {
	FindByID(ctx context.Context, id string) (*models.Samurai, error)
	// FindByName returns a samurai whose given names contain givenName and whose family names
	// contain familyName, in any language.
	FindByName(ctx context.Context, givenName, familyName string) (*models.Samurai, error)
	// FindDirectChildren returns the children of id with the label of each PARENT_OF edge, in a
	// repeatable order. A samurai with no children yields an empty slice.
	FindDirectChildren(ctx context.Context, id string) ([]models.Offspring, error)
	// CreateEdge merges a PARENT_OF edge. Repeating the same (parent, child, type) is a no-op.
	CreateEdge(ctx context.Context, parentID, childID, relationshipType string) error
	Save(ctx context.Context, samurai *models.Samurai) error
	// Delete removes the samurai and detaches every edge touching it.
	Delete(ctx context.Context, id string) error
	SearchByNickName(ctx context.Context, nickName string) ([]*models.Samurai, error)
	// AssignClan replaces the samurai's BELONGS_TO edge.
	AssignClan(ctx context.Context, samuraiID, clanID string) error
}

// ClanRepository stores clans and their HAS_SUB_CLAN edges. Lookup misses return (nil, nil).
type ClanRepository interface {
	FindByID(ctx context.Context, id string) (*models.Clan, error)
	// FindByName returns the clan using name under any language.
	FindByName(ctx context.Context, name string) (*models.Clan, error)
	Save(ctx context.Context, clan *models.Clan) error
	Delete(ctx context.Context, id string) error
	CreateSubClanEdge(ctx context.Context, parentID, subClanID string) error
}

// EventEmitter publishes genealogy change events.
type EventEmitter interface {
	EmitSamuraiCreated(ctx context.Context, samurai *models.Samurai) error
	EmitSamuraiDeleted(ctx context.Context, samuraiID string) error
	EmitRelationshipCreated(ctx context.Context, relationshipType, fromID, toID string, properties map[string]any) error
	EmitClanCreated(ctx context.Context, clan *models.Clan) error
	EmitClanUpdated(ctx context.Context, clan *models.Clan) error
}

// Relationship edge labels as stored in the graph.
const (
	EdgeParentOf   = "PARENT_OF"
	EdgeBelongsTo  = "BELONGS_TO"
	EdgeHasSubClan = "HAS_SUB_CLAN"
)
