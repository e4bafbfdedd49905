package genealogy

import "github.com/Ramsey-B/keizu/pkg/models"

// familyNameFirst lists languages that write the family name before the given name.
var familyNameFirst = map[string]bool{
	"ja": true,
	"jp": true,
	"zh": true,
	"ko": true,
}

// DeriveNickName builds a display name for every language present in both name sets, following
// the given name's language order.
func DeriveNickName(givenName, familyName models.Localized) models.Localized {
	var nick models.Localized
	for _, t := range givenName {
		family, ok := familyName.Get(t.Lang)
		if !ok {
			continue
		}
		if familyNameFirst[t.Lang] {
			nick = nick.Set(t.Lang, family+" "+t.Value)
		} else {
			nick = nick.Set(t.Lang, t.Value+" "+family)
		}
	}
	return nick
}
