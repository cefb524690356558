package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType is the kind of change an event records.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// EntityKind names the entity an event carries.
type EntityKind string

const (
	KindEscalation  EntityKind = "escalation"
	KindAppointment EntityKind = "appointment"
	KindCheckIn     EntityKind = "checkin"
)

// Event is one committed entity change, fanned out identically over the push
// and pull delivery surfaces. Seq is the global commit cursor; the pair
// (EntityID, UpdatedAt) is the idempotency key clients merge on.
type Event struct {
	Seq        int64           `json:"seq"`
	Name       string          `json:"name"`
	Type       EventType       `json:"type"`
	EntityKind EntityKind      `json:"entity_kind"`
	EntityID   string          `json:"entity_id"`
	Entity     json.RawMessage `json:"entity"`
	UpdatedAt  time.Time       `json:"updated_at"`
	TS         time.Time       `json:"ts"`
}

// EventName builds the wire name the dashboards subscribe to, e.g.
// "escalation:created", "appointment:updated". Check-in creation keeps the
// historical "checkin:new" name.
func EventName(kind EntityKind, typ EventType) string {
	if kind == KindCheckIn && typ == EventCreated {
		return "checkin:new"
	}
	return fmt.Sprintf("%s:%s", kind, typ)
}

// NewEvent builds an unsequenced event for an entity snapshot. The store
// assigns Seq when it commits the event row.
func NewEvent(typ EventType, kind EntityKind, entityID string, entity interface{}, updatedAt time.Time) (*Event, error) {
	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("marshal %s entity: %w", kind, err)
	}
	return &Event{
		Name:       EventName(kind, typ),
		Type:       typ,
		EntityKind: kind,
		EntityID:   entityID,
		Entity:     raw,
		UpdatedAt:  updatedAt,
		TS:         time.Now().UTC(),
	}, nil
}
