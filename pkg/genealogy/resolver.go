package genealogy

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	genealogyerrors "github.com/Ramsey-B/keizu/pkg/errors"
	"github.com/Ramsey-B/keizu/pkg/metrics"
	"github.com/Ramsey-B/keizu/pkg/models"
	"github.com/Ramsey-B/keizu/pkg/normalizers"
	"github.com/Ramsey-B/keizu/pkg/tracing"
)

// NameResolver maps a set of localized clan names onto a single clan, reusing an existing clan
// when any of the names is already taken.
type NameResolver struct {
	logger ectologger.Logger
	clans  ClanRepository
}

func NewNameResolver(logger ectologger.Logger, clans ClanRepository) *NameResolver {
	return &NameResolver{
		logger: logger,
		clans:  clans,
	}
}

// ResolveOrCreateClan returns the clan owning any of names, or creates one.
//
// Names are probed in order and the first clan found wins. Its name set is overlaid with names
// (new languages added, matching languages overwritten, nothing removed) and saved only when that
// changes it. The find and the create are not atomic.
func (r *NameResolver) ResolveOrCreateClan(ctx context.Context, names models.Localized) (*models.Clan, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "genealogy.NameResolver.ResolveOrCreateClan")
	defer span.End()

	names = normalizers.Localized(names)
	if names.IsEmpty() {
		return nil, false, genealogyerrors.NewValidationError("clan name must contain at least one value")
	}

	log := r.logger.WithContext(ctx).WithField("clan_names", names.Values())

	existing, err := r.findFirst(ctx, names)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		clan := &models.Clan{
			ID:   uuid.New().String(),
			Name: names.Clone(),
		}
		if err := r.clans.Save(ctx, clan); err != nil {
			return nil, false, genealogyerrors.NewInternalError("failed to save clan: %v", err)
		}
		metrics.ClanResolutionsTotal.WithLabelValues(metrics.OutcomeCreated).Inc()
		log.WithField("clan_id", clan.ID).Debug("Created clan")
		return clan, true, nil
	}

	merged := existing.Name.Merge(names)
	if merged.Equal(existing.Name) {
		metrics.ClanResolutionsTotal.WithLabelValues(metrics.OutcomeMatched).Inc()
		log.WithField("clan_id", existing.ID).Debug("Resolved existing clan")
		return existing, false, nil
	}

	existing.Name = merged
	if err := r.clans.Save(ctx, existing); err != nil {
		return nil, false, genealogyerrors.NewInternalError("failed to save clan: %v", err)
	}
	metrics.ClanResolutionsTotal.WithLabelValues(metrics.OutcomeMerged).Inc()
	log.WithField("clan_id", existing.ID).Debug("Merged clan names")

	return existing, false, nil
}

// ClanNameExists reports whether any clan uses name under any language.
func (r *NameResolver) ClanNameExists(ctx context.Context, name string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "genealogy.NameResolver.ClanNameExists")
	defer span.End()

	name = normalizers.Name(name)
	if name == "" {
		return false, genealogyerrors.NewValidationError("clan name must not be empty")
	}

	clan, err := r.clans.FindByName(ctx, name)
	if err != nil {
		return false, genealogyerrors.NewInternalError("failed to look up clan name: %v", err)
	}

	return clan != nil, nil
}

func (r *NameResolver) findFirst(ctx context.Context, names models.Localized) (*models.Clan, error) {
	for _, t := range names {
		clan, err := r.clans.FindByName(ctx, t.Value)
		if err != nil {
			return nil, genealogyerrors.NewInternalError("failed to look up clan %q: %v", t.Value, err)
		}
		if clan != nil {
			return clan, nil
		}
	}
	return nil, nil
}

// ownerOtherThan returns a clan other than clanID that already uses one of names.
func ownerOtherThan(ctx context.Context, clans ClanRepository, clanID string, names models.Localized) (*models.Clan, string, error) {
	for _, t := range names {
		clan, err := clans.FindByName(ctx, t.Value)
		if err != nil {
			return nil, "", fmt.Errorf("failed to look up clan %q: %w", t.Value, err)
		}
		if clan != nil && clan.ID != clanID {
			return clan, t.Value, nil
		}
	}
	return nil, "", nil
}
