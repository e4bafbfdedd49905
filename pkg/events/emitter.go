// Package events publishes genealogy change events
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/keizu/pkg/kafka"
	"github.com/Ramsey-B/keizu/pkg/models"
	"github.com/Ramsey-B/keizu/pkg/tracing"
)

// Publisher is the part of the Kafka producer the emitter uses.
type Publisher interface {
	PublishEntityEvent(ctx context.Context, event *kafka.EntityEvent) error
	PublishRelationshipEvent(ctx context.Context, event *kafka.RelationshipEvent) error
}

// Emitter turns genealogy changes into Kafka events
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

// EmitSamuraiCreated emits a samurai created event
func (e *Emitter) EmitSamuraiCreated(ctx context.Context, samurai *models.Samurai) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitSamuraiCreated")
	defer span.End()

	return e.emitEntity(ctx, EventTypeSamuraiCreated, EntityTypeSamurai, samurai.ID, samurai)
}

// EmitSamuraiDeleted emits a samurai deleted event
func (e *Emitter) EmitSamuraiDeleted(ctx context.Context, samuraiID string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitSamuraiDeleted")
	defer span.End()

	return e.emitEntity(ctx, EventTypeSamuraiDeleted, EntityTypeSamurai, samuraiID, nil)
}

// EmitClanCreated emits a clan created event
func (e *Emitter) EmitClanCreated(ctx context.Context, clan *models.Clan) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitClanCreated")
	defer span.End()

	return e.emitEntity(ctx, EventTypeClanCreated, EntityTypeClan, clan.ID, clan)
}

// EmitClanUpdated emits a clan updated event
func (e *Emitter) EmitClanUpdated(ctx context.Context, clan *models.Clan) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitClanUpdated")
	defer span.End()

	return e.emitEntity(ctx, EventTypeClanUpdated, EntityTypeClan, clan.ID, clan)
}

// EmitRelationshipCreated emits a relationship created event
func (e *Emitter) EmitRelationshipCreated(ctx context.Context, relationshipType, fromID, toID string, properties map[string]any) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRelationshipCreated")
	defer span.End()

	event := &kafka.RelationshipEvent{
		EventType:        string(EventTypeRelationshipCreated),
		RelationshipType: relationshipType,
		FromEntityID:     fromID,
		ToEntityID:       toID,
		Properties:       properties,
	}

	if err := e.publisher.PublishRelationshipEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit relationship.created event")
		return err
	}

	return nil
}

func (e *Emitter) emitEntity(ctx context.Context, eventType EventType, entityType, entityID string, payload any) error {
	event := &kafka.EntityEvent{
		EventType:  string(eventType),
		EntityID:   entityID,
		EntityType: entityType,
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode %s payload: %w", eventType, err)
		}
		event.Data = data
	}

	if err := e.publisher.PublishEntityEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", eventType)
		return err
	}

	return nil
}
