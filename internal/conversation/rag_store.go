package conversation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/Lakshya-akoode/my-cn-bot/pkg/logging"
)

// Retriever exposes the similarity-search capability consumed by the oracle.
type Retriever interface {
	Search(ctx context.Context, clinicID, query string, topK int) ([]string, error)
}

// Indexer describes how clinic knowledge is loaded into a retriever.
type Indexer interface {
	AddDocuments(ctx context.Context, clinicID string, contents []string) error
}

// MemoryIndex keeps chunk embeddings in memory and serves cosine-similarity
// retrieval over them.
type MemoryIndex struct {
	embedder Embedder
	logger   *logging.Logger

	mu   sync.RWMutex
	docs map[string][]indexedChunk // keyed by clinicID ("" for global)
}

type indexedChunk struct {
	content   string
	embedding []float32
}

func NewMemoryIndex(embedder Embedder, logger *logging.Logger) *MemoryIndex {
	if embedder == nil {
		panic("conversation: memory index requires an embedder")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MemoryIndex{
		embedder: embedder,
		logger:   logger,
		docs:     make(map[string][]indexedChunk),
	}
}

// AddDocuments embeds and stores the provided chunks for a clinic.
func (s *MemoryIndex) AddDocuments(ctx context.Context, clinicID string, contents []string) error {
	if len(contents) == 0 {
		return nil
	}

	vectors, err := s.embedder.Embed(ctx, contents)
	if err != nil {
		return fmt.Errorf("conversation: embed documents: %w", err)
	}
	if len(vectors) != len(contents) {
		return fmt.Errorf("conversation: embedding count mismatch: %d vectors for %d chunks", len(vectors), len(contents))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, content := range contents {
		s.docs[clinicID] = append(s.docs[clinicID], indexedChunk{
			content:   content,
			embedding: vectors[i],
		})
	}
	s.logger.Info("conversation: indexed knowledge chunks",
		"clinic_id", clinicID, "chunks", len(contents))
	return nil
}

// Search returns up to topK chunks for a clinic (plus global chunks) ranked
// by cosine similarity to the query.
func (s *MemoryIndex) Search(ctx context.Context, clinicID, query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = 4
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("conversation: embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	queryVec := vectors[0]

	s.mu.RLock()
	defer s.mu.RUnlock()
	var candidates []indexedChunk
	candidates = append(candidates, s.docs[clinicID]...)
	if clinicID != "" {
		candidates = append(candidates, s.docs[""]...)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	type scored struct {
		score   float64
		content string
	}
	results := make([]scored, 0, len(candidates))
	for _, doc := range candidates {
		results = append(results, scored{
			score:   cosineSimilarity(queryVec, doc.embedding),
			content: doc.content,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	limit := topK
	if len(results) < limit {
		limit = len(results)
	}
	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = results[i].content
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
