package genealogy

import (
	"context"

	"github.com/Gobusters/ectologger"

	genealogyerrors "github.com/Ramsey-B/keizu/pkg/errors"
	"github.com/Ramsey-B/keizu/pkg/metrics"
	"github.com/Ramsey-B/keizu/pkg/models"
	"github.com/Ramsey-B/keizu/pkg/tracing"
)

// TreeBuilder reconstructs the descendant tree of a samurai from PARENT_OF edges.
//
// Traversal is depth-first pre-order. Each samurai appears at most once per tree: a child that was
// already materialized (a cycle or a second path to the same descendant) is skipped without error,
// so the first path found keeps it.
type TreeBuilder struct {
	logger ectologger.Logger
	people PersonRepository
	// MaxNodes bounds the size of a single tree. Zero means unlimited.
	MaxNodes int
}

func NewTreeBuilder(logger ectologger.Logger, people PersonRepository, maxNodes int) *TreeBuilder {
	return &TreeBuilder{
		logger:   logger,
		people:   people,
		MaxNodes: maxNodes,
	}
}

// treeBuild is the state of one Build call. Concurrent builds never share it.
type treeBuild struct {
	visited map[string]struct{}
	pruned  int
}

// Build returns the tree rooted at rootID. The root carries no relationship type.
func (b *TreeBuilder) Build(ctx context.Context, rootID string) (*models.TreeNode, error) {
	ctx, span := tracing.StartSpan(ctx, "genealogy.TreeBuilder.Build")
	defer span.End()

	log := b.logger.WithContext(ctx).WithField("root_id", rootID)

	root, err := b.people.FindByID(ctx, rootID)
	if err != nil {
		metrics.TreeBuildsTotal.WithLabelValues(metrics.StatusError).Inc()
		return nil, genealogyerrors.NewInternalError("failed to load samurai %s: %v", rootID, err)
	}
	if root == nil {
		metrics.TreeBuildsTotal.WithLabelValues(metrics.StatusNotFound).Inc()
		return nil, genealogyerrors.NewNotFoundError("samurai %s not found", rootID)
	}

	state := &treeBuild{visited: map[string]struct{}{root.ID: {}}}
	node := models.NewTreeNode(root)

	if err := b.expand(ctx, state, node); err != nil {
		metrics.TreeBuildsTotal.WithLabelValues(metrics.StatusError).Inc()
		return nil, err
	}

	metrics.TreeBuildsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	metrics.TreeNodes.Observe(float64(len(state.visited)))
	metrics.TreePrunedEdgesTotal.Add(float64(state.pruned))

	log.WithFields(map[string]any{
		"nodes":        len(state.visited),
		"pruned_edges": state.pruned,
	}).Debug("Built descendant tree")

	return node, nil
}

func (b *TreeBuilder) expand(ctx context.Context, state *treeBuild, node *models.TreeNode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	children, err := b.people.FindDirectChildren(ctx, node.ID)
	if err != nil {
		return genealogyerrors.NewInternalError("failed to load children of %s: %v", node.ID, err)
	}

	for _, child := range children {
		if child.Samurai == nil {
			continue
		}
		if _, seen := state.visited[child.Samurai.ID]; seen {
			state.pruned++
			continue
		}
		if b.MaxNodes > 0 && len(state.visited) >= b.MaxNodes {
			return genealogyerrors.NewValidationError("descendant tree exceeds %d samurai", b.MaxNodes)
		}
		state.visited[child.Samurai.ID] = struct{}{}

		childNode := models.NewTreeNode(child.Samurai)
		childNode.RelationshipTypeWithParent = child.RelationshipType
		node.Children = append(node.Children, childNode)

		if err := b.expand(ctx, state, childNode); err != nil {
			return err
		}
	}

	return nil
}
