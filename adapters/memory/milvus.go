package memory

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	domain "github.com/peepalabs/peepa-server/domain/entities"
	"github.com/peepalabs/peepa-server/domain/repositories"
)

const (
	fieldID        = "id"
	fieldContent   = "content"
	fieldEmbedding = "embedding"

	maxContentLength = 8192
)

// MilvusMemory implements repositories.MemoryStore over a Milvus collection.
// Texts are embedded on write and on query with the configured text embedder.
type MilvusMemory struct {
	client     client.Client
	embedder   repositories.TextEmbedder
	collection string
	logger     *zap.Logger
}

// NewMilvusMemory connects to Milvus and ensures the collection exists and is
// loaded.
func NewMilvusMemory(
	ctx context.Context,
	address string,
	collection string,
	embedder repositories.TextEmbedder,
	logger *zap.Logger,
) (*MilvusMemory, error) {
	c, err := client.NewClient(ctx, client.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("connect milvus: %w", err)
	}

	m := &MilvusMemory{client: c, embedder: embedder, collection: collection, logger: logger}
	if err := m.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}

	logger.Info("Connected to Milvus memory store",
		zap.String("address", address),
		zap.String("collection", collection))
	return m, nil
}

func (m *MilvusMemory) ensureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}

	if !has {
		schema := entity.NewSchema().WithName(m.collection).
			WithField(entity.NewField().
				WithName(fieldID).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(64).
				WithIsPrimaryKey(true)).
			WithField(entity.NewField().
				WithName(fieldContent).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(maxContentLength)).
			WithField(entity.NewField().
				WithName(fieldEmbedding).
				WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(m.embedder.Dimension())))

		if err := m.client.CreateCollection(ctx, schema, 1); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}

		index, err := entity.NewIndexAUTOINDEX(entity.COSINE)
		if err != nil {
			return fmt.Errorf("build index: %w", err)
		}
		if err := m.client.CreateIndex(ctx, m.collection, fieldEmbedding, index, false); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	if err := m.client.LoadCollection(ctx, m.collection, false); err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	return nil
}

// Store embeds the text and inserts it under a fresh id.
func (m *MilvusMemory) Store(ctx context.Context, text string) (string, error) {
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return "", fmt.Errorf("embed memory: %w", err)
	}

	text = truncateContent(text)
	id := uuid.NewString()

	_, err = m.client.Insert(ctx, m.collection, "",
		entity.NewColumnVarChar(fieldID, []string{id}),
		entity.NewColumnVarChar(fieldContent, []string{text}),
		entity.NewColumnFloatVector(fieldEmbedding, m.embedder.Dimension(), [][]float32{vec}),
	)
	if err != nil {
		return "", fmt.Errorf("insert memory: %w", err)
	}

	m.logger.Debug("Memory stored", zap.String("memoryID", id))
	return id, nil
}

// Search returns up to k memories ranked by cosine similarity to text.
func (m *MilvusMemory) Search(ctx context.Context, text string, k int) ([]domain.MemoryMatch, error) {
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	sp, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, fmt.Errorf("search params: %w", err)
	}

	results, err := m.client.Search(ctx, m.collection, nil, "",
		[]string{fieldContent},
		[]entity.Vector{entity.FloatVector(vec)},
		fieldEmbedding, entity.COSINE, k, sp)
	if err != nil {
		return nil, fmt.Errorf("search memory: %w", err)
	}

	var matches []domain.MemoryMatch
	for _, result := range results {
		contents, ok := result.Fields.GetColumn(fieldContent).(*entity.ColumnVarChar)
		if !ok {
			continue
		}
		for i, content := range contents.Data() {
			if i >= len(result.Scores) {
				break
			}
			matches = append(matches, domain.MemoryMatch{
				Content: content,
				Score:   float64(result.Scores[i]),
			})
		}
	}
	return matches, nil
}

// truncateContent caps the text at the collection's VarChar limit, cutting on
// a rune boundary so no UTF-8 sequence is split.
func truncateContent(text string) string {
	if len(text) <= maxContentLength {
		return text
	}
	cut := maxContentLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// Close releases the Milvus connection.
func (m *MilvusMemory) Close() error {
	return m.client.Close()
}
