package events

// EventType defines the type of event
type EventType string

const (
	// Samurai events
	EventTypeSamuraiCreated EventType = "samurai.created"
	EventTypeSamuraiDeleted EventType = "samurai.deleted"

	// Clan events
	EventTypeClanCreated EventType = "clan.created"
	EventTypeClanUpdated EventType = "clan.updated"

	// Relationship events
	EventTypeRelationshipCreated EventType = "relationship.created"
)

// Entity types carried on entity events
const (
	EntityTypeSamurai = "samurai"
	EntityTypeClan    = "clan"
)
