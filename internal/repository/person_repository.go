package repository

import (
	"context"

	"stream-notify/internal/domain/entity"
)

// PersonRepository looks up people referenced as notification recipients.
type PersonRepository interface {
	// Get retrieves a person by ID.
	// Returns (nil, nil) if the person is not found.
	Get(ctx context.Context, id int64) (*entity.Person, error)
	// FindByIDs retrieves the people for the given IDs. IDs with no matching
	// person are simply absent from the result map.
	FindByIDs(ctx context.Context, ids []int64) (entity.RecipientIndex, error)
}
