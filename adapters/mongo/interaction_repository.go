package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/peepalabs/peepa-server/domain/entities"
	"github.com/peepalabs/peepa-server/domain/repositories"
)

// InteractionRepository appends completed interactions to MongoDB.
type InteractionRepository struct {
	collection *mongo.Collection
}

// NewInteractionRepository creates a MongoDB interaction repository.
func NewInteractionRepository(db *mongo.Database) repositories.InteractionRepository {
	return &InteractionRepository{
		collection: db.Collection("interactions"),
	}
}

// Insert implements repositories.InteractionRepository
func (r *InteractionRepository) Insert(ctx context.Context, interaction *entities.Interaction) error {
	if interaction == nil {
		return errors.New("interaction cannot be nil")
	}

	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now()
	}

	doc := bson.M{
		"speaker":    interaction.Speaker,
		"input":      interaction.Input,
		"reply":      interaction.Reply,
		"created_at": interaction.CreatedAt,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}

	// Set the generated ID back to the interaction
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		interaction.ID = oid.Hex()
	}
	return nil
}
