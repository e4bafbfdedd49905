package genealogy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	genealogyerrors "github.com/Ramsey-B/keizu/pkg/errors"
	"github.com/Ramsey-B/keizu/pkg/logging"
	"github.com/Ramsey-B/keizu/pkg/models"
)

func TestSamuraiService_CreatePerson(t *testing.T) {
	ctx := context.Background()

	t.Run("creates samurai with derived fields", func(t *testing.T) {
		f := newFixture(t)

		s, err := f.samurai.CreatePerson(ctx, createRequest("Taro", "Yamada"))
		require.NoError(t, err)

		assert.NotEmpty(t, s.ID)
		assert.Equal(t, models.NewLocalized("en", "Taro Yamada"), s.NickName)
		assert.Equal(t, models.SocialStatusSamurai, s.SocialStatus)
		assert.Equal(t, models.BirthSexUnknown, s.Sex)
		require.NotEmpty(t, s.ClanID)

		clan, err := f.clans.GetClan(ctx, s.ClanID)
		require.NoError(t, err)
		assert.Equal(t, models.NewLocalized("en", "Yamada"), clan.Name)

		stored, err := f.samurai.GetPerson(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ClanID, stored.ClanID)

		assert.Equal(t, []string{"clan.created", "samurai.created"}, f.emitter.kinds())
	})

	t.Run("keeps provided nickname", func(t *testing.T) {
		f := newFixture(t)
		req := createRequest("Yoshitsune", "Minamoto")
		req.NickName = models.NewLocalized("en", "Ushiwakamaru")

		s, err := f.samurai.CreatePerson(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, models.NewLocalized("en", "Ushiwakamaru"), s.NickName)
	})

	t.Run("duplicate name is a conflict", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.samurai.CreatePerson(ctx, createRequest("Taro", "Yamada"))
		require.NoError(t, err)

		_, err = f.samurai.CreatePerson(ctx, createRequest("Taro", "Yamada"))
		require.Error(t, err)
		assert.True(t, genealogyerrors.IsConflict(err))
	})

	t.Run("names are normalized before the duplicate check", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.samurai.CreatePerson(ctx, createRequest("  Taro ", "Ｙａｍａｄａ"))
		require.NoError(t, err)
		assert.Equal(t, models.NewLocalized("en", "Taro"), created.GivenName)
		assert.Equal(t, models.NewLocalized("en", "Yamada"), created.FamilyName)

		_, err = f.samurai.CreatePerson(ctx, createRequest("Taro", "Yamada"))
		require.Error(t, err)
		assert.True(t, genealogyerrors.IsConflict(err))
	})

	t.Run("duplicate in another language is a conflict", func(t *testing.T) {
		f := newFixture(t)
		req := models.CreateSamuraiRequest{
			GivenName:  models.NewLocalized("en", "Yoshitsune", "jp", "義経"),
			FamilyName: models.NewLocalized("en", "Minamoto", "jp", "源"),
		}
		_, err := f.samurai.CreatePerson(ctx, req)
		require.NoError(t, err)

		_, err = f.samurai.CreatePerson(ctx, models.CreateSamuraiRequest{
			GivenName:  models.NewLocalized("jp", "義経"),
			FamilyName: models.NewLocalized("jp", "源"),
		})
		require.Error(t, err)
		assert.True(t, genealogyerrors.IsConflict(err))
	})

	t.Run("names without a shared language are still unique", func(t *testing.T) {
		f := newFixture(t)
		req := models.CreateSamuraiRequest{
			GivenName:  models.NewLocalized("en", "Taro"),
			FamilyName: models.NewLocalized("jp", "山田"),
		}

		_, err := f.samurai.CreatePerson(ctx, req)
		require.NoError(t, err)

		_, err = f.samurai.CreatePerson(ctx, req)
		require.Error(t, err)
		assert.True(t, genealogyerrors.IsConflict(err))
	})

	t.Run("same given name in another family is allowed", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.samurai.CreatePerson(ctx, createRequest("Taro", "Yamada"))
		require.NoError(t, err)
		_, err = f.samurai.CreatePerson(ctx, createRequest("Taro", "Sato"))
		require.NoError(t, err)
	})

	t.Run("empty names are invalid", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.samurai.CreatePerson(ctx, models.CreateSamuraiRequest{GivenName: models.NewLocalized("en", "Taro")})
		require.Error(t, err)
		assert.True(t, genealogyerrors.IsValidation(err))
	})

	t.Run("family members share a clan", func(t *testing.T) {
		f := newFixture(t)

		taro, err := f.samurai.CreatePerson(ctx, createRequest("Taro", "Yamada"))
		require.NoError(t, err)
		jiro, err := f.samurai.CreatePerson(ctx, createRequest("Jiro", "Yamada"))
		require.NoError(t, err)

		assert.Equal(t, taro.ClanID, jiro.ClanID)
	})

	t.Run("explicit clan name wins over family name", func(t *testing.T) {
		f := newFixture(t)
		req := createRequest("Takauji", "Ashikaga")
		req.ClanName = models.NewLocalized("en", "Minamoto")

		s, err := f.samurai.CreatePerson(ctx, req)
		require.NoError(t, err)

		clan, err := f.clans.GetClanByName(ctx, "Minamoto")
		require.NoError(t, err)
		assert.Equal(t, clan.ID, s.ClanID)

		exists, err := f.clans.ClanNameExists(ctx, "Ashikaga")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("links to parent", func(t *testing.T) {
		f := newFixture(t)

		parent, err := f.samurai.CreatePerson(ctx, createRequest("Yoshitomo", "Minamoto"))
		require.NoError(t, err)

		req := createRequest("Yoshitsune", "Minamoto")
		req.ParentIdentifier = parent.ID
		child, err := f.samurai.CreatePerson(ctx, req)
		require.NoError(t, err)

		tree, err := f.samurai.GetDescendantTree(ctx, parent.ID)
		require.NoError(t, err)
		require.Len(t, tree.Children, 1)
		assert.Equal(t, child.ID, tree.Children[0].ID)
		assert.Equal(t, "BIOLOGICAL", tree.Children[0].RelationshipTypeWithParent)
	})

	t.Run("missing parent is not found and nothing is saved", func(t *testing.T) {
		f := newFixture(t)

		req := createRequest("Yoshitsune", "Minamoto")
		req.ParentIdentifier = "missing"
		_, err := f.samurai.CreatePerson(ctx, req)
		require.Error(t, err)
		assert.True(t, genealogyerrors.IsNotFound(err))

		_, err = f.samurai.CreatePerson(ctx, createRequest("Yoshitsune", "Minamoto"))
		require.NoError(t, err)
	})

	t.Run("failed parent link removes the samurai", func(t *testing.T) {
		f := newFixture(t)
		parent, err := f.samurai.CreatePerson(ctx, createRequest("Yoshitomo", "Minamoto"))
		require.NoError(t, err)

		people := &failingWrites{PersonRepository: f.store.Samurai(), edgeErr: errors.New("connection reset")}
		svc := NewSamuraiService(logging.Nop(), people, f.store.Clans(), f.resolver, f.trees, f.emitter)

		req := createRequest("Yoshitsune", "Minamoto")
		req.ParentIdentifier = parent.ID
		_, err = svc.CreatePerson(ctx, req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")

		existing, err := f.store.Samurai().FindByName(ctx, "Yoshitsune", "Minamoto")
		require.NoError(t, err)
		assert.Nil(t, existing)
		assert.Equal(t, 1, countKind(f.emitter, "samurai.created"))

		child, err := f.samurai.CreatePerson(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 1, f.store.EdgeCount(parent.ID, child.ID))
	})

	t.Run("failed clan assignment removes the samurai", func(t *testing.T) {
		f := newFixture(t)

		people := &failingWrites{PersonRepository: f.store.Samurai(), assignErr: errors.New("connection reset")}
		svc := NewSamuraiService(logging.Nop(), people, f.store.Clans(), f.resolver, f.trees, f.emitter)

		_, err := svc.CreatePerson(ctx, createRequest("Taro", "Yamada"))
		require.Error(t, err)

		_, err = f.samurai.CreatePerson(ctx, createRequest("Taro", "Yamada"))
		require.NoError(t, err)
	})

	t.Run("samurai event precedes its parent link event", func(t *testing.T) {
		f := newFixture(t)
		parent, err := f.samurai.CreatePerson(ctx, createRequest("Yoshitomo", "Minamoto"))
		require.NoError(t, err)

		req := createRequest("Yoshitsune", "Minamoto")
		req.ParentIdentifier = parent.ID
		_, err = f.samurai.CreatePerson(ctx, req)
		require.NoError(t, err)

		kinds := f.emitter.kinds()
		require.GreaterOrEqual(t, len(kinds), 2)
		assert.Equal(t, []string{"samurai.created", "relationship.created:PARENT_OF"}, kinds[len(kinds)-2:])
	})

	t.Run("event failures do not fail the operation", func(t *testing.T) {
		f := newFixture(t)
		f.emitter.err = errors.New("broker unavailable")

		_, err := f.samurai.CreatePerson(ctx, createRequest("Taro", "Yamada"))
		require.NoError(t, err)
	})
}

func TestSamuraiService_DeletePerson(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes and detaches", func(t *testing.T) {
		f := newFixture(t)
		f.addSamurai(t, "A")
		f.addSamurai(t, "B")
		f.link(t, "A", "B", "BIOLOGICAL")

		require.NoError(t, f.samurai.DeletePerson(ctx, "B"))

		_, err := f.samurai.GetPerson(ctx, "B")
		assert.True(t, genealogyerrors.IsNotFound(err))

		tree, err := f.samurai.GetDescendantTree(ctx, "A")
		require.NoError(t, err)
		assert.Empty(t, tree.Children)
		assert.Equal(t, []string{"samurai.deleted"}, f.emitter.kinds())
	})

	t.Run("missing samurai", func(t *testing.T) {
		f := newFixture(t)

		err := f.samurai.DeletePerson(ctx, "missing")
		require.Error(t, err)
		assert.True(t, genealogyerrors.IsNotFound(err))
	})
}

func TestSamuraiService_LinkParentChild(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent", func(t *testing.T) {
		f := newFixture(t)
		f.addSamurai(t, "A")
		f.addSamurai(t, "B")

		require.NoError(t, f.samurai.LinkParentChild(ctx, "A", "B", ""))
		require.NoError(t, f.samurai.LinkParentChild(ctx, "A", "B", ""))

		assert.Equal(t, 1, f.store.EdgeCount("A", "B"))
	})

	t.Run("classifies requested type", func(t *testing.T) {
		f := newFixture(t)
		f.addSamurai(t, "A")
		f.addSamurai(t, "B")

		require.NoError(t, f.samurai.LinkParentChild(ctx, "A", "B", "step"))

		tree, err := f.samurai.GetDescendantTree(ctx, "A")
		require.NoError(t, err)
		require.Len(t, tree.Children, 1)
		assert.Equal(t, "ADOPTED", tree.Children[0].RelationshipTypeWithParent)
	})

	t.Run("missing endpoints", func(t *testing.T) {
		f := newFixture(t)
		f.addSamurai(t, "A")

		err := f.samurai.LinkParentChild(ctx, "A", "missing", "")
		assert.True(t, genealogyerrors.IsNotFound(err))

		err = f.samurai.LinkParentChild(ctx, "missing", "A", "")
		assert.True(t, genealogyerrors.IsNotFound(err))
	})

	t.Run("self link", func(t *testing.T) {
		f := newFixture(t)
		f.addSamurai(t, "A")

		err := f.samurai.LinkParentChild(ctx, "A", "A", "")
		assert.True(t, genealogyerrors.IsValidation(err))
	})

	t.Run("emits relationship event", func(t *testing.T) {
		f := newFixture(t)
		f.addSamurai(t, "A")
		f.addSamurai(t, "B")

		require.NoError(t, f.samurai.LinkParentChild(ctx, "A", "B", ""))

		require.Len(t, f.emitter.events, 1)
		assert.Equal(t, recordedEvent{kind: "relationship.created:PARENT_OF", fromID: "A", toID: "B"}, f.emitter.events[0])
	})
}

func TestSamuraiService_SearchByNickName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.samurai.CreatePerson(ctx, createRequest("Taro", "Yamada"))
	require.NoError(t, err)
	_, err = f.samurai.CreatePerson(ctx, createRequest("Jiro", "Sato"))
	require.NoError(t, err)

	results, err := f.samurai.SearchByNickName(ctx, "taro")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.NewLocalized("en", "Taro"), results[0].GivenName)

	results, err = f.samurai.SearchByNickName(ctx, "ＴＡＲＯ　ＹＡＭＡＤＡ")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.NewLocalized("en", "Taro"), results[0].GivenName)

	results, err = f.samurai.SearchByNickName(ctx, "Oda")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	_, err = f.samurai.SearchByNickName(ctx, "  ")
	assert.True(t, genealogyerrors.IsValidation(err))
}

func TestSamuraiService_AddSamuraiToClan(t *testing.T) {
	ctx := context.Background()

	t.Run("joins existing clan", func(t *testing.T) {
		f := newFixture(t)
		s, err := f.samurai.CreatePerson(ctx, models.CreateSamuraiRequest{
			GivenName:  models.NewLocalized("en", "Takauji", "jp", "尊氏"),
			FamilyName: models.NewLocalized("en", "Ashikaga", "jp", "足利"),
		})
		require.NoError(t, err)

		clan, err := f.clans.CreateClan(ctx, models.NewLocalized("en", "Nitta"))
		require.NoError(t, err)
		_, err = f.samurai.AddSamuraiToClan(ctx, s.ID, "Nitta")
		require.NoError(t, err)

		moved, err := f.samurai.GetPerson(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, clan.ID, moved.ClanID)
	})

	t.Run("new clan borrows first family language", func(t *testing.T) {
		f := newFixture(t)
		f.addSamurai(t, "A")

		updated, err := f.samurai.AddSamuraiToClan(ctx, "A", "Hojo")
		require.NoError(t, err)

		clan, err := f.clans.GetClan(ctx, updated.ClanID)
		require.NoError(t, err)
		assert.Equal(t, models.NewLocalized("en", "Hojo"), clan.Name)
	})

	t.Run("new clan uses language of matching family name", func(t *testing.T) {
		f := newFixture(t)
		s := &models.Samurai{
			ID:         "A",
			GivenName:  models.NewLocalized("en", "Tokimune"),
			FamilyName: models.NewLocalized("en", "Hojo", "jp", "北条"),
		}
		require.NoError(t, f.store.Samurai().Save(ctx, s))

		updated, err := f.samurai.AddSamuraiToClan(ctx, "A", "北条")
		require.NoError(t, err)

		clan, err := f.clans.GetClan(ctx, updated.ClanID)
		require.NoError(t, err)
		assert.Equal(t, models.NewLocalized("jp", "北条"), clan.Name)
	})

	t.Run("missing samurai", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.samurai.AddSamuraiToClan(ctx, "missing", "Hojo")
		assert.True(t, genealogyerrors.IsNotFound(err))
	})
}

type failingWrites struct {
	PersonRepository
	assignErr error
	edgeErr   error
}

func (f *failingWrites) AssignClan(ctx context.Context, samuraiID, clanID string) error {
	if f.assignErr != nil {
		return f.assignErr
	}
	return f.PersonRepository.AssignClan(ctx, samuraiID, clanID)
}

func (f *failingWrites) CreateEdge(ctx context.Context, parentID, childID, relationshipType string) error {
	if f.edgeErr != nil {
		return f.edgeErr
	}
	return f.PersonRepository.CreateEdge(ctx, parentID, childID, relationshipType)
}

func countKind(e *fakeEmitter, kind string) int {
	count := 0
	for _, k := range e.kinds() {
		if k == kind {
			count++
		}
	}
	return count
}
