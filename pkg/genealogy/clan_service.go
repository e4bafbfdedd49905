package genealogy

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	genealogyerrors "github.com/Ramsey-B/keizu/pkg/errors"
	"github.com/Ramsey-B/keizu/pkg/models"
	"github.com/Ramsey-B/keizu/pkg/normalizers"
	"github.com/Ramsey-B/keizu/pkg/tracing"
)

// ClanService manages clans and the sub-clan hierarchy.
type ClanService struct {
	logger   ectologger.Logger
	clans    ClanRepository
	resolver *NameResolver
	emitter  EventEmitter
}

// NewClanService creates a clan service. emitter may be nil.
func NewClanService(logger ectologger.Logger, clans ClanRepository, resolver *NameResolver, emitter EventEmitter) *ClanService {
	return &ClanService{
		logger:   logger,
		clans:    clans,
		resolver: resolver,
		emitter:  emitter,
	}
}

// CreateOrGetClan resolves names to an existing clan, merging new names into it, or creates one.
func (s *ClanService) CreateOrGetClan(ctx context.Context, names models.Localized) (*models.Clan, error) {
	ctx, span := tracing.StartSpan(ctx, "genealogy.ClanService.CreateOrGetClan")
	defer span.End()

	clan, created, err := s.resolver.ResolveOrCreateClan(ctx, names)
	if err != nil {
		return nil, err
	}
	if created {
		s.emit(ctx, clan, s.emitCreated)
	}

	return clan, nil
}

// CreateClan creates a clan, failing with a conflict when any of names is already used.
func (s *ClanService) CreateClan(ctx context.Context, names models.Localized) (*models.Clan, error) {
	ctx, span := tracing.StartSpan(ctx, "genealogy.ClanService.CreateClan")
	defer span.End()

	names = normalizers.Localized(names)
	if names.IsEmpty() {
		return nil, genealogyerrors.NewValidationError("clan name must contain at least one value")
	}

	owner, name, err := ownerOtherThan(ctx, s.clans, "", names)
	if err != nil {
		return nil, genealogyerrors.NewInternalError("%v", err)
	}
	if owner != nil {
		return nil, genealogyerrors.NewConflictError("clan name %q is already used by clan %s", name, owner.ID)
	}

	clan := &models.Clan{
		ID:   uuid.New().String(),
		Name: names.Clone(),
	}
	if err := s.clans.Save(ctx, clan); err != nil {
		return nil, genealogyerrors.NewInternalError("failed to save clan: %v", err)
	}

	s.logger.WithContext(ctx).WithField("clan_id", clan.ID).Info("Created clan")
	s.emit(ctx, clan, s.emitCreated)

	return clan, nil
}

// GetClan returns a clan by identifier.
func (s *ClanService) GetClan(ctx context.Context, id string) (*models.Clan, error) {
	ctx, span := tracing.StartSpan(ctx, "genealogy.ClanService.GetClan")
	defer span.End()

	return s.findClan(ctx, id)
}

// GetClanByName returns the clan using name in any language.
func (s *ClanService) GetClanByName(ctx context.Context, name string) (*models.Clan, error) {
	ctx, span := tracing.StartSpan(ctx, "genealogy.ClanService.GetClanByName")
	defer span.End()

	name = normalizers.Name(name)
	if name == "" {
		return nil, genealogyerrors.NewValidationError("clan name must not be empty")
	}

	clan, err := s.clans.FindByName(ctx, name)
	if err != nil {
		return nil, genealogyerrors.NewInternalError("failed to look up clan %q: %v", name, err)
	}
	if clan == nil {
		return nil, genealogyerrors.NewNotFoundError("clan %q not found", name)
	}

	return clan, nil
}

// UpdateClanName merges names into the clan's name set. A name owned by another clan is a conflict.
func (s *ClanService) UpdateClanName(ctx context.Context, id string, names models.Localized) (*models.Clan, error) {
	ctx, span := tracing.StartSpan(ctx, "genealogy.ClanService.UpdateClanName")
	defer span.End()

	names = normalizers.Localized(names)
	if names.IsEmpty() {
		return nil, genealogyerrors.NewValidationError("clan name must contain at least one value")
	}

	clan, err := s.findClan(ctx, id)
	if err != nil {
		return nil, err
	}

	owner, name, err := ownerOtherThan(ctx, s.clans, clan.ID, names)
	if err != nil {
		return nil, genealogyerrors.NewInternalError("%v", err)
	}
	if owner != nil {
		return nil, genealogyerrors.NewConflictError("clan name %q is already used by clan %s", name, owner.ID)
	}

	merged := clan.Name.Merge(names)
	if merged.Equal(clan.Name) {
		return clan, nil
	}

	clan.Name = merged
	if err := s.clans.Save(ctx, clan); err != nil {
		return nil, genealogyerrors.NewInternalError("failed to save clan: %v", err)
	}

	s.logger.WithContext(ctx).WithField("clan_id", clan.ID).Info("Updated clan name")
	s.emit(ctx, clan, s.emitUpdated)

	return clan, nil
}

// DeleteClan removes a clan. Members keep existing without a clan.
func (s *ClanService) DeleteClan(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "genealogy.ClanService.DeleteClan")
	defer span.End()

	clan, err := s.findClan(ctx, id)
	if err != nil {
		return err
	}

	if err := s.clans.Delete(ctx, clan.ID); err != nil {
		return genealogyerrors.NewInternalError("failed to delete clan %s: %v", clan.ID, err)
	}

	s.logger.WithContext(ctx).WithField("clan_id", clan.ID).Info("Deleted clan")
	return nil
}

// ClanNameExists reports whether any clan uses name under any language.
func (s *ClanService) ClanNameExists(ctx context.Context, name string) (bool, error) {
	return s.resolver.ClanNameExists(ctx, name)
}

// LinkSubClan records parentID HAS_SUB_CLAN subClanID. Repeating the link is a no-op.
func (s *ClanService) LinkSubClan(ctx context.Context, parentID, subClanID string) error {
	ctx, span := tracing.StartSpan(ctx, "genealogy.ClanService.LinkSubClan")
	defer span.End()

	if parentID == subClanID {
		return genealogyerrors.NewValidationError("a clan cannot be its own sub-clan")
	}

	parent, err := s.findClan(ctx, parentID)
	if err != nil {
		return err
	}
	sub, err := s.findClan(ctx, subClanID)
	if err != nil {
		return err
	}

	if err := s.clans.CreateSubClanEdge(ctx, parent.ID, sub.ID); err != nil {
		return genealogyerrors.NewInternalError("failed to link clan %s to %s: %v", parent.ID, sub.ID, err)
	}

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"parent_clan_id": parent.ID,
		"sub_clan_id":    sub.ID,
	})
	log.Debug("Linked sub-clan")

	if s.emitter != nil {
		if err := s.emitter.EmitRelationshipCreated(ctx, EdgeHasSubClan, parent.ID, sub.ID, nil); err != nil {
			log.WithError(err).Warn("Failed to emit relationship.created event")
		}
	}

	return nil
}

func (s *ClanService) findClan(ctx context.Context, id string) (*models.Clan, error) {
	if id == "" {
		return nil, genealogyerrors.NewValidationError("clan identifier must not be empty")
	}

	clan, err := s.clans.FindByID(ctx, id)
	if err != nil {
		return nil, genealogyerrors.NewInternalError("failed to load clan %s: %v", id, err)
	}
	if clan == nil {
		return nil, genealogyerrors.NewNotFoundError("clan %s not found", id)
	}

	return clan, nil
}

func (s *ClanService) emitCreated(ctx context.Context, clan *models.Clan) error {
	return s.emitter.EmitClanCreated(ctx, clan)
}

func (s *ClanService) emitUpdated(ctx context.Context, clan *models.Clan) error {
	return s.emitter.EmitClanUpdated(ctx, clan)
}

func (s *ClanService) emit(ctx context.Context, clan *models.Clan, fn func(context.Context, *models.Clan) error) {
	if s.emitter == nil {
		return
	}
	if err := fn(ctx, clan); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("clan_id", clan.ID).Warn("Failed to emit clan event")
	}
}
