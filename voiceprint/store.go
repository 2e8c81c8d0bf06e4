package voiceprint

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"

	"go.uber.org/zap"
)

// TemplateSet holds one speaker's enrolled voice templates. Legacy records
// stored a single vector instead of a list; both shapes unmarshal to a list,
// so the rest of the engine never type-sniffs.
type TemplateSet [][]float32

// UnmarshalJSON accepts either a list of vectors or a legacy single vector.
func (t *TemplateSet) UnmarshalJSON(data []byte) error {
	var multiple [][]float32
	if err := json.Unmarshal(data, &multiple); err == nil {
		*t = multiple
		return nil
	}
	var single []float32
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("template set is neither a vector nor a list of vectors: %w", err)
	}
	*t = TemplateSet{single}
	return nil
}

// Database maps speaker names (case-sensitive) to their templates.
type Database map[string]TemplateSet

// Store persists voiceprints as a human-readable JSON file, rewritten
// wholesale on enrollment. Loads are read-shared; Enroll serializes writers
// internally (single-writer discipline).
type Store struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

// NewStore creates a store backed by the JSON file at path. The file does not
// need to exist yet.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load reads the database. A missing file is an empty database, not an error.
func (s *Store) Load() (Database, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Database{}, nil
		}
		return nil, fmt.Errorf("read voiceprint db: %w", err)
	}

	var db Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("decode voiceprint db: %w", err)
	}
	return db, nil
}

// Enroll sanitizes and unit-normalizes each raw embedding and appends the
// results to the speaker's existing templates. Vectors that degenerate to
// zero norm are stored as zero vectors rather than dropped, so the stored
// count always matches the number of submitted clips.
func (s *Store) Enroll(speaker string, rawEmbeddings [][]float32) error {
	if speaker == "" {
		return fmt.Errorf("speaker name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.Load()
	if err != nil {
		return err
	}

	templates := db[speaker]
	for _, raw := range rawEmbeddings {
		templates = append(templates, Sanitize(raw))
	}
	db[speaker] = templates

	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("encode voiceprint db: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write voiceprint db: %w", err)
	}

	s.logger.Info("Enrolled speaker",
		zap.String("speaker", speaker),
		zap.Int("newClips", len(rawEmbeddings)),
		zap.Int("totalTemplates", len(templates)))
	return nil
}

// Sanitize replaces non-finite components with zero and scales the vector to
// unit length. A vector whose norm is zero after cleanup comes back as all
// zeros.
func Sanitize(raw []float32) []float32 {
	out := make([]float32, len(raw))
	var sum float64
	for i, x := range raw {
		v := float64(x)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		out[i] = float32(v)
		sum += v * v
	}

	norm := math.Sqrt(sum)
	if norm == 0 {
		return out
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / norm)
	}
	return out
}
