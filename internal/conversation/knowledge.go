package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"
)

const knowledgeKeyPrefix = "kb:docs:"

// KnowledgeRepository persists scraped site content as retrieval chunks,
// keyed by clinic.
type KnowledgeRepository interface {
	AppendDocuments(ctx context.Context, clinicID string, docs []string) error
	GetDocuments(ctx context.Context, clinicID string) ([]string, error)
	ReplaceDocuments(ctx context.Context, clinicID string, docs []string) error
}

// RedisKnowledgeRepository stores chunks in Redis lists so ingestion and the
// API server can share one knowledge base.
type RedisKnowledgeRepository struct {
	client *redis.Client
}

func NewRedisKnowledgeRepository(client *redis.Client) *RedisKnowledgeRepository {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	return &RedisKnowledgeRepository{client: client}
}

func knowledgeKey(clinicID string) string {
	return knowledgeKeyPrefix + clinicID
}

// AppendDocuments pushes new chunks onto the clinic's list.
func (r *RedisKnowledgeRepository) AppendDocuments(ctx context.Context, clinicID string, docs []string) error {
	if len(docs) == 0 {
		return nil
	}
	args := make([]interface{}, len(docs))
	for i, d := range docs {
		args[i] = d
	}
	if err := r.client.RPush(ctx, knowledgeKey(clinicID), args...).Err(); err != nil {
		return fmt.Errorf("conversation: failed to push knowledge: %w", err)
	}
	return nil
}

// GetDocuments retrieves all chunks for the clinic.
func (r *RedisKnowledgeRepository) GetDocuments(ctx context.Context, clinicID string) ([]string, error) {
	docs, err := r.client.LRange(ctx, knowledgeKey(clinicID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to load knowledge: %w", err)
	}
	return docs, nil
}

// ReplaceDocuments atomically overwrites all chunks for the clinic.
func (r *RedisKnowledgeRepository) ReplaceDocuments(ctx context.Context, clinicID string, docs []string) error {
	key := knowledgeKey(clinicID)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(docs) > 0 {
		args := make([]interface{}, len(docs))
		for i, d := range docs {
			args[i] = d
		}
		pipe.RPush(ctx, key, args...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("conversation: failed to replace knowledge: %w", err)
	}
	return nil
}

// FileKnowledgeRepository keeps chunks in a single JSON file. It backs
// single-node deployments that run without Redis.
type FileKnowledgeRepository struct {
	mu   sync.Mutex
	path string
}

func NewFileKnowledgeRepository(path string) *FileKnowledgeRepository {
	return &FileKnowledgeRepository{path: path}
}

func (f *FileKnowledgeRepository) AppendDocuments(ctx context.Context, clinicID string, docs []string) error {
	if len(docs) == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.load()
	if err != nil {
		return err
	}
	all[clinicID] = append(all[clinicID], docs...)
	return f.save(all)
}

func (f *FileKnowledgeRepository) GetDocuments(ctx context.Context, clinicID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.load()
	if err != nil {
		return nil, err
	}
	return all[clinicID], nil
}

func (f *FileKnowledgeRepository) ReplaceDocuments(ctx context.Context, clinicID string, docs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.load()
	if err != nil {
		return err
	}
	all[clinicID] = append([]string(nil), docs...)
	return f.save(all)
}

func (f *FileKnowledgeRepository) load() (map[string][]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string][]string), nil
		}
		return nil, fmt.Errorf("conversation: read knowledge file: %w", err)
	}
	all := make(map[string][]string)
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("conversation: parse knowledge file: %w", err)
	}
	return all, nil
}

func (f *FileKnowledgeRepository) save(all map[string][]string) error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("conversation: create knowledge dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(all, "", "    ")
	if err != nil {
		return fmt.Errorf("conversation: encode knowledge file: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("conversation: write knowledge file: %w", err)
	}
	return nil
}
