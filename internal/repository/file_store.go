package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"retire-rag/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default file names inside the data directory.
const (
	ProfilesFile = "retirement_user_data.json"
	FeedbackFile = "retirement_feedback.json"
	PlansFile    = "retirement_plan_cache.json"
	ChunksFile   = "index_chunks.json"
)

// jsonDoc is a JSON document on disk that is always rewritten whole. Writers
// are serialized so that concurrent read-modify-write cycles do not lose updates.
type jsonDoc[T any] struct {
	path string
	mu   sync.Mutex
}

func newJSONDoc[T any](path string) *jsonDoc[T] {
	return &jsonDoc[T]{path: path}
}

// load returns the zero value when the file does not exist yet.
func (d *jsonDoc[T]) load() (T, error) {
	var v T
	data, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("failed to read %s: %w", d.path, err)
	}
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to decode %s: %w", d.path, err)
	}
	return v, nil
}

func (d *jsonDoc[T]) save(v T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", d.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", d.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", d.path, err)
	}
	return os.Rename(tmp.Name(), d.path)
}

func (d *jsonDoc[T]) read() (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load()
}

func (d *jsonDoc[T]) update(fn func(v *T) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.load()
	if err != nil {
		return err
	}
	if err := fn(&v); err != nil {
		return err
	}
	return d.save(v)
}

type FileProfileRepository struct {
	doc *jsonDoc[[]*models.UserProfile]
}

func NewFileProfileRepository(dataDir string) *FileProfileRepository {
	return &FileProfileRepository{doc: newJSONDoc[[]*models.UserProfile](filepath.Join(dataDir, ProfilesFile))}
}

func (r *FileProfileRepository) Create(_ context.Context, profile *models.UserProfile) error {
	return r.doc.update(func(all *[]*models.UserProfile) error {
		*all = append(*all, profile)
		return nil
	})
}

func (r *FileProfileRepository) List(_ context.Context) ([]*models.UserProfile, error) {
	return r.doc.read()
}

type FileFeedbackRepository struct {
	doc *jsonDoc[[]*models.Feedback]
}

func NewFileFeedbackRepository(dataDir string) *FileFeedbackRepository {
	return &FileFeedbackRepository{doc: newJSONDoc[[]*models.Feedback](filepath.Join(dataDir, FeedbackFile))}
}

func (r *FileFeedbackRepository) Create(_ context.Context, feedback *models.Feedback) error {
	return r.doc.update(func(all *[]*models.Feedback) error {
		*all = append(*all, feedback)
		return nil
	})
}

type FilePlanRepository struct {
	doc    *jsonDoc[map[string]*models.PlanResult]
	logger *zap.Logger
}

func NewFilePlanRepository(dataDir string, logger *zap.Logger) *FilePlanRepository {
	return &FilePlanRepository{
		doc:    newJSONDoc[map[string]*models.PlanResult](filepath.Join(dataDir, PlansFile)),
		logger: logger,
	}
}

func (r *FilePlanRepository) Get(_ context.Context, key string) (*models.PlanResult, bool, error) {
	all, err := r.doc.read()
	if err != nil {
		return nil, false, err
	}
	plan, ok := all[key]
	return plan, ok && plan != nil, nil
}

// Put stores plan under key. An unreadable cache file is replaced rather than
// blocking new entries.
func (r *FilePlanRepository) Put(_ context.Context, key string, plan *models.PlanResult) error {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()

	all, err := r.doc.load()
	if err != nil {
		r.logger.Warn("Plan cache file unreadable, starting a new one", zap.Error(err))
		all = nil
	}
	if all == nil {
		all = make(map[string]*models.PlanResult)
	}
	all[key] = plan
	return r.doc.save(all)
}

func (r *FilePlanRepository) GetByPlanID(_ context.Context, planID uuid.UUID) (*models.PlanResult, error) {
	all, err := r.doc.read()
	if err != nil {
		return nil, err
	}
	for _, plan := range all {
		if plan != nil && plan.PlanID == planID {
			return plan, nil
		}
	}
	return nil, ErrNotFound
}

type chunkFile struct {
	SourceHash string        `json:"source_hash"`
	Chunks     []storedChunk `json:"chunks"`
}

type storedChunk struct {
	models.TextChunk
	Embedding []float32 `json:"embedding"`
}

// FileChunkRepository keeps the chunks of the most recently indexed source document.
type FileChunkRepository struct {
	doc *jsonDoc[chunkFile]
}

func NewFileChunkRepository(dataDir string) *FileChunkRepository {
	return &FileChunkRepository{doc: newJSONDoc[chunkFile](filepath.Join(dataDir, ChunksFile))}
}

func (r *FileChunkRepository) LoadChunks(_ context.Context, sourceHash string) ([]models.TextChunk, [][]float32, error) {
	f, err := r.doc.read()
	if err != nil {
		return nil, nil, err
	}
	if f.SourceHash != sourceHash {
		return nil, nil, nil
	}

	chunks := make([]models.TextChunk, len(f.Chunks))
	vectors := make([][]float32, len(f.Chunks))
	for i, c := range f.Chunks {
		chunks[i] = c.TextChunk
		vectors[i] = c.Embedding
	}
	return chunks, vectors, nil
}

func (r *FileChunkRepository) SaveChunks(_ context.Context, sourceHash string, chunks []models.TextChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk count %d does not match vector count %d", len(chunks), len(vectors))
	}

	f := chunkFile{SourceHash: sourceHash, Chunks: make([]storedChunk, len(chunks))}
	for i := range chunks {
		f.Chunks[i] = storedChunk{TextChunk: chunks[i], Embedding: vectors[i]}
	}

	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	return r.doc.save(f)
}
