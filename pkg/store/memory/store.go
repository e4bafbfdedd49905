// Package memory is an in-process genealogy store used when no graph database is configured and
// in tests. Edges are kept in insertion order, so child lists are repeatable.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Ramsey-B/keizu/pkg/models"
)

type parentEdge struct {
	parentID         string
	childID          string
	relationshipType string
}

type subClanEdge struct {
	parentID  string
	subClanID string
}

// Store holds samurai, clans and their edges behind a single lock. Records are copied on the way in
// and out.
type Store struct {
	mu sync.RWMutex

	samurai      map[string]*models.Samurai
	samuraiOrder []string
	parentEdges  []parentEdge
	belongsTo    map[string]string

	clans        map[string]*models.Clan
	clanOrder    []string
	subClanEdges []subClanEdge
}

func NewStore() *Store {
	return &Store{
		samurai:   make(map[string]*models.Samurai),
		belongsTo: make(map[string]string),
		clans:     make(map[string]*models.Clan),
	}
}

// Samurai returns the samurai repository view of the store.
func (s *Store) Samurai() *SamuraiRepository {
	return &SamuraiRepository{store: s}
}

// Clans returns the clan repository view of the store.
func (s *Store) Clans() *ClanRepository {
	return &ClanRepository{store: s}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// EdgeCount returns the number of PARENT_OF edges from parentID to childID of any type.
func (s *Store) EdgeCount(parentID, childID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.parentEdges {
		if e.parentID == parentID && e.childID == childID {
			count++
		}
	}
	return count
}

// SubClanIDs returns the sub-clans of parentID in link order.
func (s *Store) SubClanIDs(parentID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, e := range s.subClanEdges {
		if e.parentID == parentID {
			ids = append(ids, e.subClanID)
		}
	}
	return ids
}

// samuraiCopy must be called with the lock held.
func (s *Store) samuraiCopy(id string) *models.Samurai {
	stored, ok := s.samurai[id]
	if !ok {
		return nil
	}
	out := stored.Clone()
	out.ClanID = s.belongsTo[id]
	return out
}

// SamuraiRepository implements genealogy.PersonRepository.
type SamuraiRepository struct {
	store *Store
}

func (r *SamuraiRepository) FindByID(_ context.Context, id string) (*models.Samurai, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.samuraiCopy(id), nil
}

func (r *SamuraiRepository) FindByName(_ context.Context, givenName, familyName string) (*models.Samurai, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, id := range r.store.samuraiOrder {
		stored := r.store.samurai[id]
		if stored.GivenName.Contains(givenName) && stored.FamilyName.Contains(familyName) {
			return r.store.samuraiCopy(id), nil
		}
	}
	return nil, nil
}

func (r *SamuraiRepository) FindDirectChildren(_ context.Context, id string) ([]models.Offspring, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	children := []models.Offspring{}
	for _, e := range r.store.parentEdges {
		if e.parentID != id {
			continue
		}
		child := r.store.samuraiCopy(e.childID)
		if child == nil {
			continue
		}
		children = append(children, models.Offspring{Samurai: child, RelationshipType: e.relationshipType})
	}
	return children, nil
}

func (r *SamuraiRepository) CreateEdge(_ context.Context, parentID, childID, relationshipType string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.samurai[parentID]; !ok {
		return fmt.Errorf("samurai %s does not exist", parentID)
	}
	if _, ok := r.store.samurai[childID]; !ok {
		return fmt.Errorf("samurai %s does not exist", childID)
	}

	edge := parentEdge{parentID: parentID, childID: childID, relationshipType: relationshipType}
	if slices.Contains(r.store.parentEdges, edge) {
		return nil
	}
	r.store.parentEdges = append(r.store.parentEdges, edge)
	return nil
}

func (r *SamuraiRepository) Save(_ context.Context, samurai *models.Samurai) error {
	if samurai == nil || samurai.ID == "" {
		return fmt.Errorf("samurai must have an identifier")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.samurai[samurai.ID]; !ok {
		r.store.samuraiOrder = append(r.store.samuraiOrder, samurai.ID)
	}
	r.store.samurai[samurai.ID] = samurai.Clone()
	return nil
}

func (r *SamuraiRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.samurai, id)
	delete(r.store.belongsTo, id)
	r.store.samuraiOrder = slices.DeleteFunc(r.store.samuraiOrder, func(existing string) bool {
		return existing == id
	})
	r.store.parentEdges = slices.DeleteFunc(r.store.parentEdges, func(e parentEdge) bool {
		return e.parentID == id || e.childID == id
	})
	return nil
}

func (r *SamuraiRepository) SearchByNickName(_ context.Context, nickName string) ([]*models.Samurai, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	needle := strings.ToLower(nickName)
	results := []*models.Samurai{}
	for _, id := range r.store.samuraiOrder {
		for _, value := range r.store.samurai[id].NickName.Values() {
			if strings.Contains(strings.ToLower(value), needle) {
				results = append(results, r.store.samuraiCopy(id))
				break
			}
		}
	}
	return results, nil
}

func (r *SamuraiRepository) AssignClan(_ context.Context, samuraiID, clanID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.samurai[samuraiID]
	if !ok {
		return fmt.Errorf("samurai %s does not exist", samuraiID)
	}
	if _, ok := r.store.clans[clanID]; !ok {
		return fmt.Errorf("clan %s does not exist", clanID)
	}

	r.store.belongsTo[samuraiID] = clanID
	stored.ClanID = clanID
	return nil
}

// ClanRepository implements genealogy.ClanRepository.
type ClanRepository struct {
	store *Store
}

func (r *ClanRepository) FindByID(_ context.Context, id string) (*models.Clan, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.clans[id].Clone(), nil
}

func (r *ClanRepository) FindByName(_ context.Context, name string) (*models.Clan, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, id := range r.store.clanOrder {
		if clan := r.store.clans[id]; clan.Name.Contains(name) {
			return clan.Clone(), nil
		}
	}
	return nil, nil
}

func (r *ClanRepository) Save(_ context.Context, clan *models.Clan) error {
	if clan == nil || clan.ID == "" {
		return fmt.Errorf("clan must have an identifier")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.clans[clan.ID]; !ok {
		r.store.clanOrder = append(r.store.clanOrder, clan.ID)
	}
	r.store.clans[clan.ID] = clan.Clone()
	return nil
}

func (r *ClanRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.clans, id)
	r.store.clanOrder = slices.DeleteFunc(r.store.clanOrder, func(existing string) bool {
		return existing == id
	})
	r.store.subClanEdges = slices.DeleteFunc(r.store.subClanEdges, func(e subClanEdge) bool {
		return e.parentID == id || e.subClanID == id
	})
	for samuraiID, clanID := range r.store.belongsTo {
		if clanID == id {
			delete(r.store.belongsTo, samuraiID)
			r.store.samurai[samuraiID].ClanID = ""
		}
	}
	return nil
}

func (r *ClanRepository) CreateSubClanEdge(_ context.Context, parentID, subClanID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.clans[parentID]; !ok {
		return fmt.Errorf("clan %s does not exist", parentID)
	}
	if _, ok := r.store.clans[subClanID]; !ok {
		return fmt.Errorf("clan %s does not exist", subClanID)
	}

	edge := subClanEdge{parentID: parentID, subClanID: subClanID}
	if slices.Contains(r.store.subClanEdges, edge) {
		return nil
	}
	r.store.subClanEdges = append(r.store.subClanEdges, edge)
	return nil
}
