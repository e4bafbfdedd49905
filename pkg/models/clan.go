package models

// Clan is a named grouping of samurai. A clan may be a sub-clan of another (HAS_SUB_CLAN edge).
type Clan struct {
	ID string `json:"identifier"`
	// Name must be unique across every language: no two clans share a value.
	Name Localized `json:"clan_name"`
}

// Clone returns a deep copy.
func (c *Clan) Clone() *Clan {
	if c == nil {
		return nil
	}
	return &Clan{ID: c.ID, Name: c.Name.Clone()}
}

// ClanRequest is the request body for creating, resolving or renaming a clan
type ClanRequest struct {
	ClanName Localized `json:"clan_name" validate:"required,min=1"`
}
