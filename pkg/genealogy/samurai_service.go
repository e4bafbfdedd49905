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

// SamuraiService creates, links and reads samurai.
type SamuraiService struct {
	logger   ectologger.Logger
	people   PersonRepository
	clans    ClanRepository
	resolver *NameResolver
	trees    *TreeBuilder
	emitter  EventEmitter
}

// NewSamuraiService creates a samurai service. emitter may be nil.
func NewSamuraiService(
	logger ectologger.Logger,
	people PersonRepository,
	clans ClanRepository,
	resolver *NameResolver,
	trees *TreeBuilder,
	emitter EventEmitter,
) *SamuraiService {
	return &SamuraiService{
		logger:   logger,
		people:   people,
		clans:    clans,
		resolver: resolver,
		trees:    trees,
		emitter:  emitter,
	}
}

// CreatePerson validates and stores a new samurai, attaches it to a clan and optionally links it
// to a parent.
//
// The clan is resolved from the requested clan name, or from the family name when none is given.
// A samurai whose given and family names match an existing samurai in any shared language, or in
// any combination when the names share no language, is a conflict. A failure after the samurai was
// saved removes it again.
func (s *SamuraiService) CreatePerson(ctx context.Context, req models.CreateSamuraiRequest) (*models.Samurai, error) {
	ctx, span := tracing.StartSpan(ctx, "genealogy.SamuraiService.CreatePerson")
	defer span.End()

	req.GivenName = normalizers.Localized(req.GivenName)
	req.FamilyName = normalizers.Localized(req.FamilyName)
	req.NickName = normalizers.Localized(req.NickName)
	req.Uji = normalizers.Localized(req.Uji)
	req.Kabane = normalizers.Localized(req.Kabane)
	req.ClanName = normalizers.Localized(req.ClanName)

	if req.GivenName.IsEmpty() || req.FamilyName.IsEmpty() {
		return nil, genealogyerrors.NewValidationError("given_name and family_name are required")
	}

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"given_name":  req.GivenName.Values(),
		"family_name": req.FamilyName.Values(),
	})

	for _, pair := range namePairs(req.GivenName, req.FamilyName) {
		existing, err := s.people.FindByName(ctx, pair[0], pair[1])
		if err != nil {
			return nil, genealogyerrors.NewInternalError("failed to look up samurai: %v", err)
		}
		if existing != nil {
			log.WithField("existing_id", existing.ID).Debug("Samurai already exists")
			return nil, genealogyerrors.NewConflictError("samurai %s %s already exists", pair[0], pair[1])
		}
	}

	var parent *models.Samurai
	if req.ParentIdentifier != "" {
		var err error
		parent, err = s.findSamurai(ctx, req.ParentIdentifier)
		if err != nil {
			return nil, err
		}
	}

	samurai := &models.Samurai{
		ID:                 uuid.New().String(),
		GivenName:          req.GivenName.Clone(),
		FamilyName:         req.FamilyName.Clone(),
		NickName:           req.NickName.Clone(),
		Sex:                req.Sex,
		BirthDate:          req.BirthDate,
		DeathDate:          req.DeathDate,
		FamilyHead:         req.FamilyHead,
		Uji:                req.Uji.Clone(),
		Kabane:             req.Kabane.Clone(),
		SocialStatus:       req.SocialStatus,
		ClanHeritageStatus: req.ClanHeritageStatus,
	}
	if samurai.NickName.IsEmpty() {
		samurai.NickName = DeriveNickName(samurai.GivenName, samurai.FamilyName)
	}
	if samurai.SocialStatus == "" {
		samurai.SocialStatus = models.SocialStatusSamurai
	}
	if samurai.Sex == "" {
		samurai.Sex = models.BirthSexUnknown
	}

	clanNames := req.ClanName
	if clanNames.IsEmpty() {
		clanNames = req.FamilyName
	}
	clan, created, err := s.resolver.ResolveOrCreateClan(ctx, clanNames)
	if err != nil {
		return nil, err
	}
	if created {
		s.emitClanCreated(ctx, clan)
	}
	samurai.ClanID = clan.ID

	if err := s.people.Save(ctx, samurai); err != nil {
		return nil, genealogyerrors.NewInternalError("failed to save samurai: %v", err)
	}
	log = log.WithFields(map[string]any{"samurai_id": samurai.ID, "clan_id": clan.ID})

	if err := s.people.AssignClan(ctx, samurai.ID, clan.ID); err != nil {
		s.discard(ctx, samurai.ID)
		return nil, genealogyerrors.NewInternalError("failed to assign clan: %v", err)
	}

	var relationshipType string
	if parent != nil {
		relationshipType = DetermineRelationshipType(req.RelationshipType)
		if err := s.people.CreateEdge(ctx, parent.ID, samurai.ID, relationshipType); err != nil {
			s.discard(ctx, samurai.ID)
			return nil, genealogyerrors.NewInternalError("failed to link %s to %s: %v", parent.ID, samurai.ID, err)
		}
	}

	log.Info("Created samurai")

	if s.emitter != nil {
		if err := s.emitter.EmitSamuraiCreated(ctx, samurai); err != nil {
			log.WithError(err).Warn("Failed to emit samurai.created event")
		}
	}
	if parent != nil {
		s.emitParentOf(ctx, parent.ID, samurai.ID, relationshipType)
	}

	return samurai, nil
}

// GetPerson returns a samurai by identifier.
func (s *SamuraiService) GetPerson(ctx context.Context, id string) (*models.Samurai, error) {
	ctx, span := tracing.StartSpan(ctx, "genealogy.SamuraiService.GetPerson")
	defer span.End()

	return s.findSamurai(ctx, id)
}

// DeletePerson removes a samurai and every edge touching it.
func (s *SamuraiService) DeletePerson(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "genealogy.SamuraiService.DeletePerson")
	defer span.End()

	samurai, err := s.findSamurai(ctx, id)
	if err != nil {
		return err
	}

	if err := s.people.Delete(ctx, samurai.ID); err != nil {
		return genealogyerrors.NewInternalError("failed to delete samurai %s: %v", samurai.ID, err)
	}

	log := s.logger.WithContext(ctx).WithField("samurai_id", samurai.ID)
	log.Info("Deleted samurai")

	if s.emitter != nil {
		if err := s.emitter.EmitSamuraiDeleted(ctx, samurai.ID); err != nil {
			log.WithError(err).Warn("Failed to emit samurai.deleted event")
		}
	}

	return nil
}

// LinkParentChild records a PARENT_OF edge. The stored type comes from DetermineRelationshipType.
// Linking the same pair with the same type again leaves a single edge.
func (s *SamuraiService) LinkParentChild(ctx context.Context, parentID, childID, relationshipType string) error {
	ctx, span := tracing.StartSpan(ctx, "genealogy.SamuraiService.LinkParentChild")
	defer span.End()

	if parentID == childID {
		return genealogyerrors.NewValidationError("a samurai cannot be their own parent")
	}

	parent, err := s.findSamurai(ctx, parentID)
	if err != nil {
		return err
	}
	child, err := s.findSamurai(ctx, childID)
	if err != nil {
		return err
	}

	return s.createEdge(ctx, parent.ID, child.ID, DetermineRelationshipType(relationshipType))
}

// GetDescendantTree returns the descendant tree rooted at rootID.
func (s *SamuraiService) GetDescendantTree(ctx context.Context, rootID string) (*models.TreeNode, error) {
	ctx, span := tracing.StartSpan(ctx, "genealogy.SamuraiService.GetDescendantTree")
	defer span.End()

	return s.trees.Build(ctx, rootID)
}

// SearchByNickName returns samurai whose nickname contains nickName in any language, ignoring case.
func (s *SamuraiService) SearchByNickName(ctx context.Context, nickName string) ([]*models.Samurai, error) {
	ctx, span := tracing.StartSpan(ctx, "genealogy.SamuraiService.SearchByNickName")
	defer span.End()

	nickName = normalizers.SearchTerm(nickName)
	if nickName == "" {
		return nil, genealogyerrors.NewValidationError("nickname must not be empty")
	}

	results, err := s.people.SearchByNickName(ctx, nickName)
	if err != nil {
		return nil, genealogyerrors.NewInternalError("failed to search samurai: %v", err)
	}
	if results == nil {
		results = []*models.Samurai{}
	}

	return results, nil
}

// AddSamuraiToClan moves a samurai into the clan named clanName, creating the clan when no clan uses
// that name. A new clan takes the language of the family name entry equal to clanName, or the first
// family name language.
func (s *SamuraiService) AddSamuraiToClan(ctx context.Context, samuraiID, clanName string) (*models.Samurai, error) {
	ctx, span := tracing.StartSpan(ctx, "genealogy.SamuraiService.AddSamuraiToClan")
	defer span.End()

	clanName = normalizers.Name(clanName)
	if clanName == "" {
		return nil, genealogyerrors.NewValidationError("clan name must not be empty")
	}

	samurai, err := s.findSamurai(ctx, samuraiID)
	if err != nil {
		return nil, err
	}

	clan, err := s.clans.FindByName(ctx, clanName)
	if err != nil {
		return nil, genealogyerrors.NewInternalError("failed to look up clan %q: %v", clanName, err)
	}

	if clan == nil {
		lang, ok := samurai.FamilyName.LangOf(clanName)
		if !ok {
			lang = defaultLanguage
			if langs := samurai.FamilyName.Langs(); len(langs) > 0 {
				lang = langs[0]
			}
		}
		clan = &models.Clan{
			ID:   uuid.New().String(),
			Name: models.NewLocalized(lang, clanName),
		}
		if err := s.clans.Save(ctx, clan); err != nil {
			return nil, genealogyerrors.NewInternalError("failed to save clan: %v", err)
		}
		s.emitClanCreated(ctx, clan)
	}

	if err := s.people.AssignClan(ctx, samurai.ID, clan.ID); err != nil {
		return nil, genealogyerrors.NewInternalError("failed to assign clan: %v", err)
	}
	samurai.ClanID = clan.ID

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"samurai_id": samurai.ID,
		"clan_id":    clan.ID,
	}).Info("Assigned samurai to clan")

	return samurai, nil
}

// defaultLanguage names a clan when the samurai has no family name languages to borrow from.
const defaultLanguage = "en"

func (s *SamuraiService) findSamurai(ctx context.Context, id string) (*models.Samurai, error) {
	if id == "" {
		return nil, genealogyerrors.NewValidationError("samurai identifier must not be empty")
	}

	samurai, err := s.people.FindByID(ctx, id)
	if err != nil {
		return nil, genealogyerrors.NewInternalError("failed to load samurai %s: %v", id, err)
	}
	if samurai == nil {
		return nil, genealogyerrors.NewNotFoundError("samurai %s not found", id)
	}

	return samurai, nil
}

func (s *SamuraiService) createEdge(ctx context.Context, parentID, childID, relationshipType string) error {
	if err := s.people.CreateEdge(ctx, parentID, childID, relationshipType); err != nil {
		return genealogyerrors.NewInternalError("failed to link %s to %s: %v", parentID, childID, err)
	}

	s.emitParentOf(ctx, parentID, childID, relationshipType)
	return nil
}

func (s *SamuraiService) emitParentOf(ctx context.Context, parentID, childID, relationshipType string) {
	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"parent_id":         parentID,
		"child_id":          childID,
		"relationship_type": relationshipType,
	})
	log.Debug("Linked parent and child")

	if s.emitter != nil {
		props := map[string]any{"type": relationshipType}
		if err := s.emitter.EmitRelationshipCreated(ctx, EdgeParentOf, parentID, childID, props); err != nil {
			log.WithError(err).Warn("Failed to emit relationship.created event")
		}
	}
}

// discard removes a samurai whose creation failed after it was saved, so a retry is not a conflict.
func (s *SamuraiService) discard(ctx context.Context, id string) {
	if err := s.people.Delete(ctx, id); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("samurai_id", id).Error("Failed to remove partially created samurai")
	}
}

// namePairs returns the (given, family) pairs that identify a person: one per language both names
// share, or every cross pair when they share none.
func namePairs(givenName, familyName models.Localized) [][2]string {
	var pairs [][2]string
	for _, given := range givenName {
		if family, ok := familyName.Get(given.Lang); ok {
			pairs = append(pairs, [2]string{given.Value, family})
		}
	}
	if len(pairs) > 0 {
		return pairs
	}

	for _, given := range givenName {
		for _, family := range familyName {
			pairs = append(pairs, [2]string{given.Value, family.Value})
		}
	}
	return pairs
}

func (s *SamuraiService) emitClanCreated(ctx context.Context, clan *models.Clan) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.EmitClanCreated(ctx, clan); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("clan_id", clan.ID).Warn("Failed to emit clan.created event")
	}
}
