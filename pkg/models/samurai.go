package models

import "sort"

// BirthSex is the recorded sex of a person
type BirthSex string

const (
	BirthSexMale    BirthSex = "MALE"
	BirthSexFemale  BirthSex = "FEMALE"
	BirthSexUnknown BirthSex = "UNKNOWN"
)

// SocialStatus is the social class of a person
type SocialStatus string

const (
	SocialStatusSamurai  SocialStatus = "SAMURAI"
	SocialStatusKuge     SocialStatus = "KUGE"
	SocialStatusDaimyo   SocialStatus = "DAIMYO"
	SocialStatusShogun   SocialStatus = "SHOGUN"
	SocialStatusCommoner SocialStatus = "COMMONER"
)

// ClanHeritageStatus describes how a person came to belong to their clan
type ClanHeritageStatus string

const (
	ClanHeritageBirth    ClanHeritageStatus = "BIRTH"
	ClanHeritageAdoption ClanHeritageStatus = "ADOPTION"
	ClanHeritageMarriage ClanHeritageStatus = "MARRIAGE"
	ClanHeritageFounder  ClanHeritageStatus = "FOUNDER"
)

// ParentChildRelationshipType labels a PARENT_OF edge
type ParentChildRelationshipType string

const (
	RelationshipBiological ParentChildRelationshipType = "BIOLOGICAL"
	RelationshipAdopted    ParentChildRelationshipType = "ADOPTED"
)

// Samurai is a person node in the genealogy graph.
type Samurai struct {
	// ID is generated once at creation and never changes.
	ID         string    `json:"identifier"`
	GivenName  Localized `json:"given_name"`
	FamilyName Localized `json:"family_name"`
	NickName   Localized `json:"nick_name,omitempty"`
	Sex        BirthSex  `json:"sex,omitempty"`
	BirthDate  *Date     `json:"birth_date,omitempty"`
	DeathDate  *Date     `json:"death_date,omitempty"`
	FamilyHead bool      `json:"is_family_head"`

	// Uji (氏) and Kabane (八色の姓) describe clan heritage.
	Uji    Localized `json:"uji,omitempty"`
	Kabane Localized `json:"kabane,omitempty"`

	SocialStatus       SocialStatus       `json:"social_status,omitempty"`
	ClanHeritageStatus ClanHeritageStatus `json:"clan_heritage_status,omitempty"`

	// ClanID references the clan the samurai belongs to (BELONGS_TO edge).
	ClanID string `json:"clan_id,omitempty"`
}

// Clone returns a deep copy.
func (s *Samurai) Clone() *Samurai {
	if s == nil {
		return nil
	}
	c := *s
	c.GivenName = s.GivenName.Clone()
	c.FamilyName = s.FamilyName.Clone()
	c.NickName = s.NickName.Clone()
	c.Uji = s.Uji.Clone()
	c.Kabane = s.Kabane.Clone()
	if s.BirthDate != nil {
		d := *s.BirthDate
		c.BirthDate = &d
	}
	if s.DeathDate != nil {
		d := *s.DeathDate
		c.DeathDate = &d
	}
	return &c
}

// Offspring is a direct child of a samurai together with the label of the connecting edge.
type Offspring struct {
	Samurai          *Samurai
	RelationshipType string
}

// CreateSamuraiRequest is the request body for creating a samurai
type CreateSamuraiRequest struct {
	GivenName          Localized          `json:"given_name" validate:"required,min=1"`
	FamilyName         Localized          `json:"family_name" validate:"required,min=1"`
	NickName           Localized          `json:"nick_name,omitempty"`
	Sex                BirthSex           `json:"sex,omitempty" validate:"omitempty,oneof=MALE FEMALE UNKNOWN"`
	BirthDate          *Date              `json:"birth_date,omitempty"`
	DeathDate          *Date              `json:"death_date,omitempty"`
	FamilyHead         bool               `json:"is_family_head"`
	Uji                Localized          `json:"uji,omitempty"`
	Kabane             Localized          `json:"kabane,omitempty"`
	SocialStatus       SocialStatus       `json:"social_status,omitempty" validate:"omitempty,oneof=SAMURAI KUGE DAIMYO SHOGUN COMMONER"`
	ClanHeritageStatus ClanHeritageStatus `json:"clan_heritage_status,omitempty" validate:"omitempty,oneof=BIRTH ADOPTION MARRIAGE FOUNDER"`
	ClanName           Localized          `json:"clan_name,omitempty"`
	ParentIdentifier   string             `json:"parent_identifier,omitempty"`
	RelationshipType   string             `json:"relationship_type,omitempty"`
}

// AddRelationshipRequest is the request body for linking a parent to a child
type AddRelationshipRequest struct {
	ParentIdentifier string `json:"parent_identifier" validate:"required"`
	ChildIdentifier  string `json:"child_identifier" validate:"required"`
	RelationshipType string `json:"relationship_type,omitempty"`
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
