package repositories

import (
	"context"

	"github.com/peepalabs/peepa-server/domain/entities"
)

// MemoryStore is the vector-similarity memory collaborator, an opaque
// key-value-by-similarity service.
type MemoryStore interface {
	// Store persists one piece of text and returns its id.
	Store(ctx context.Context, text string) (string, error)
	// Search returns up to k memories ranked by similarity to text.
	Search(ctx context.Context, text string, k int) ([]entities.MemoryMatch, error)
}

// InteractionRepository appends completed interactions to durable storage.
type InteractionRepository interface {
	Insert(ctx context.Context, interaction *entities.Interaction) error
}
