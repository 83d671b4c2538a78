// Package battle provides repository interface and types for battle
// session storage
package battle

import (
	"context"

	"github.com/KirkDiggler/tactics-api/internal/entities"
)

//go:generate mockgen -destination=mock/mock_repository.go -package=battlemock github.com/KirkDiggler/tactics-api/internal/repositories/battle Repository

// CreateInput contains parameters for storing a new battle
type CreateInput struct {
	Battle *entities.Battle
}

// CreateOutput contains the result of storing a new battle
type CreateOutput struct {
	Battle *entities.Battle
}

// GetInput contains parameters for retrieving a battle
type GetInput struct {
	BattleID string
}

// GetOutput contains the result of retrieving a battle
type GetOutput struct {
	Battle *entities.Battle
}

// UpdateInput contains parameters for replacing a stored battle
type UpdateInput struct {
	Battle *entities.Battle
}

// UpdateOutput contains the result of replacing a stored battle
type UpdateOutput struct {
	Battle *entities.Battle
}

// DeleteInput contains parameters for deleting a battle
type DeleteInput struct {
	BattleID string
}

// DeleteOutput contains the result of deleting a battle
type DeleteOutput struct{}

// ListInput contains parameters for listing stored battles
type ListInput struct{}

// ListOutput contains the result of listing stored battles
type ListOutput struct {
	BattleIDs []string
}

// Repository defines the interface for battle storage operations
type Repository interface {
	// Create stores a new battle; the ID must not already exist
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)

	// Get retrieves a battle by ID
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Update replaces an existing battle
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)

	// Delete removes a battle
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)

	// List returns the IDs of all stored battles
	List(ctx context.Context, input ListInput) (*ListOutput, error)
}
