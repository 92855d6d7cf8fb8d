package domain

import "time"

// Entity represents a domain entity with a numeric identity.
type Entity interface {
	ID() int64
	CreatedAt() time.Time
	UpdatedAt() *time.Time
	Equals(other Entity) bool
}

// BaseEntity provides common entity functionality.
// updatedAt stays nil until the entity is first edited.
type BaseEntity struct {
	id        int64
	createdAt time.Time
	updatedAt *time.Time
}

// NewBaseEntity creates a new entity with the given ID created at the given instant.
func NewBaseEntity(id int64, createdAt time.Time) BaseEntity {
	return BaseEntity{
		id:        id,
		createdAt: createdAt,
	}
}

// RehydrateBaseEntity recreates an entity from persisted state.
func RehydrateBaseEntity(id int64, createdAt time.Time, updatedAt *time.Time) BaseEntity {
	return BaseEntity{
		id:        id,
		createdAt: createdAt,
		updatedAt: copyTime(updatedAt),
	}
}

func (e BaseEntity) ID() int64            { return e.id }
func (e BaseEntity) CreatedAt() time.Time { return e.createdAt }

// UpdatedAt returns a copy of the last edit instant, or nil if never edited.
func (e BaseEntity) UpdatedAt() *time.Time { return copyTime(e.updatedAt) }

// Touch sets the updatedAt timestamp.
func (e *BaseEntity) Touch(at time.Time) {
	e.updatedAt = &at
}

// Equals checks if two entities have the same identity.
func (e BaseEntity) Equals(other Entity) bool {
	if other == nil {
		return false
	}
	return e.id == other.ID()
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
