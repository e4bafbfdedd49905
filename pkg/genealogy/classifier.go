package genealogy

import "github.com/Ramsey-B/keizu/pkg/models"

// DetermineRelationshipType maps a requested label to a stored PARENT_OF type. An empty request is
// biological; any other value, including "BIOLOGICAL" itself, is recorded as adopted.
func DetermineRelationshipType(requested string) string {
	if requested == "" {
		return string(models.RelationshipBiological)
	}
	return string(models.RelationshipAdopted)
}
