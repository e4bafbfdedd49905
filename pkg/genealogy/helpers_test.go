package genealogy

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/keizu/pkg/logging"
	"github.com/Ramsey-B/keizu/pkg/models"
	"github.com/Ramsey-B/keizu/pkg/store/memory"
)

type recordedEvent struct {
	kind   string
	id     string
	fromID string
	toID   string
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (f *fakeEmitter) record(e recordedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.err
}

func (f *fakeEmitter) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]string, len(f.events))
	for i, e := range f.events {
		kinds[i] = e.kind
	}
	return kinds
}

func (f *fakeEmitter) EmitSamuraiCreated(_ context.Context, s *models.Samurai) error {
	return f.record(recordedEvent{kind: "samurai.created", id: s.ID})
}

func (f *fakeEmitter) EmitSamuraiDeleted(_ context.Context, id string) error {
	return f.record(recordedEvent{kind: "samurai.deleted", id: id})
}

func (f *fakeEmitter) EmitRelationshipCreated(_ context.Context, relationshipType, fromID, toID string, _ map[string]any) error {
	return f.record(recordedEvent{kind: "relationship.created:" + relationshipType, fromID: fromID, toID: toID})
}

func (f *fakeEmitter) EmitClanCreated(_ context.Context, c *models.Clan) error {
	return f.record(recordedEvent{kind: "clan.created", id: c.ID})
}

func (f *fakeEmitter) EmitClanUpdated(_ context.Context, c *models.Clan) error {
	return f.record(recordedEvent{kind: "clan.updated", id: c.ID})
}

type fixture struct {
	store    *memory.Store
	emitter  *fakeEmitter
	resolver *NameResolver
	trees    *TreeBuilder
	samurai  *SamuraiService
	clans    *ClanService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := logging.Nop()
	store := memory.NewStore()
	emitter := &fakeEmitter{}
	resolver := NewNameResolver(logger, store.Clans())
	trees := NewTreeBuilder(logger, store.Samurai(), 0)

	return &fixture{
		store:    store,
		emitter:  emitter,
		resolver: resolver,
		trees:    trees,
		samurai:  NewSamuraiService(logger, store.Samurai(), store.Clans(), resolver, trees, emitter),
		clans:    NewClanService(logger, store.Clans(), resolver, emitter),
	}
}

// addSamurai stores a samurai directly, bypassing name and clan handling.
func (f *fixture) addSamurai(t *testing.T, id string) *models.Samurai {
	t.Helper()
	s := &models.Samurai{
		ID:         id,
		GivenName:  models.NewLocalized("en", id),
		FamilyName: models.NewLocalized("en", "Test"),
	}
	require.NoError(t, f.store.Samurai().Save(context.Background(), s))
	return s
}

func (f *fixture) link(t *testing.T, parentID, childID, relationshipType string) {
	t.Helper()
	require.NoError(t, f.store.Samurai().CreateEdge(context.Background(), parentID, childID, relationshipType))
}

func createRequest(given, family string) models.CreateSamuraiRequest {
	return models.CreateSamuraiRequest{
		GivenName:  models.NewLocalized("en", given),
		FamilyName: models.NewLocalized("en", family),
	}
}
