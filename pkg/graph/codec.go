package graph

import (
	"encoding/json"
	"fmt"

	"github.com/Ramsey-B/keizu/pkg/models"
)

// Localized names are stored twice: as a JSON object string under the field name (keeps languages
// and their order) and as a plain list under <field>Values so queries can match a value in any
// language with IN.
const valuesSuffix = "Values"

func setLocalized(props map[string]any, field string, l models.Localized) error {
	if l.IsEmpty() {
		props[field] = nil
		props[field+valuesSuffix] = nil
		return nil
	}

	encoded, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", field, err)
	}

	props[field] = string(encoded)
	props[field+valuesSuffix] = l.Values()
	return nil
}

func getLocalized(props map[string]any, field string) (models.Localized, error) {
	raw, ok := props[field]
	if !ok || raw == nil {
		return nil, nil
	}

	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("property %s is %T, expected a JSON string", field, raw)
	}

	var l models.Localized
	if err := json.Unmarshal([]byte(s), &l); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", field, err)
	}
	return l, nil
}

func getString(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

func getBool(props map[string]any, key string) bool {
	if b, ok := props[key].(bool); ok {
		return b
	}
	return false
}

func dateProp(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func getDate(props map[string]any, key string) (*models.Date, error) {
	s := getString(props, key)
	if s == "" {
		return nil, nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return d, nil
}

// samuraiProps builds the property map of a :Samurai node. Absent optional fields are null so that
// SET += removes stale values.
func samuraiProps(s *models.Samurai) (map[string]any, error) {
	props := map[string]any{
		"identifier":         s.ID,
		"sex":                string(s.Sex),
		"birthDate":          dateProp(s.BirthDate),
		"deathDate":          dateProp(s.DeathDate),
		"isFamilyHead":       s.FamilyHead,
		"socialStatus":       string(s.SocialStatus),
		"clanHeritageStatus": string(s.ClanHeritageStatus),
	}

	localized := []struct {
		field string
		value models.Localized
	}{
		{"givenName", s.GivenName},
		{"familyName", s.FamilyName},
		{"nickName", s.NickName},
		{"uji", s.Uji},
		{"kabane", s.Kabane},
	}
	for _, l := range localized {
		if err := setLocalized(props, l.field, l.value); err != nil {
			return nil, err
		}
	}

	return props, nil
}

func samuraiFromProps(props map[string]any, clanID string) (*models.Samurai, error) {
	s := &models.Samurai{
		ID:                 getString(props, "identifier"),
		Sex:                models.BirthSex(getString(props, "sex")),
		FamilyHead:         getBool(props, "isFamilyHead"),
		SocialStatus:       models.SocialStatus(getString(props, "socialStatus")),
		ClanHeritageStatus: models.ClanHeritageStatus(getString(props, "clanHeritageStatus")),
		ClanID:             clanID,
	}

	var err error
	if s.GivenName, err = getLocalized(props, "givenName"); err != nil {
		return nil, err
	}
	if s.FamilyName, err = getLocalized(props, "familyName"); err != nil {
		return nil, err
	}
	if s.NickName, err = getLocalized(props, "nickName"); err != nil {
		return nil, err
	}
	if s.Uji, err = getLocalized(props, "uji"); err != nil {
		return nil, err
	}
	if s.Kabane, err = getLocalized(props, "kabane"); err != nil {
		return nil, err
	}
	if s.BirthDate, err = getDate(props, "birthDate"); err != nil {
		return nil, err
	}
	if s.DeathDate, err = getDate(props, "deathDate"); err != nil {
		return nil, err
	}

	return s, nil
}

func clanProps(c *models.Clan) (map[string]any, error) {
	props := map[string]any{"identifier": c.ID}
	if err := setLocalized(props, "clanName", c.Name); err != nil {
		return nil, err
	}
	return props, nil
}

func clanFromProps(props map[string]any) (*models.Clan, error) {
	name, err := getLocalized(props, "clanName")
	if err != nil {
		return nil, err
	}
	return &models.Clan{ID: getString(props, "identifier"), Name: name}, nil
}
