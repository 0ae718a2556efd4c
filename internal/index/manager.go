package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"retire-rag/internal/models"

	"go.uber.org/zap"
)

var ErrIndexLoad = errors.New("failed to load index")

type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Embedder turns texts into vectors. The same implementation and model must be
// used when building the index and when embedding queries.
type Embedder interface {
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkStore persists embedded chunks keyed by the hash of the source document.
type ChunkStore interface {
	LoadChunks(ctx context.Context, sourceHash string) ([]models.TextChunk, [][]float32, error)
	SaveChunks(ctx context.Context, sourceHash string, chunks []models.TextChunk, vectors [][]float32) error
}

// Snapshot is an immutable view of a built index. Chunks[i] belongs to vector i.
type Snapshot struct {
	Index      *FlatL2
	Chunks     []models.TextChunk
	SourceHash string
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Chunks)
}

type Options struct {
	SourcePath   string
	SourceName   string
	ChunkSize    int
	ChunkOverlap int
	Dimension    int
	BatchSize    int
	// RetryInterval is how long Ensure answers with the last build error
	// before attempting another build.
	RetryInterval time.Duration
}

// Manager owns the vector index lifecycle. Builds are serialized; readers take
// the current snapshot without locking.
type Manager struct {
	opts     Options
	embedder Embedder
	store    ChunkStore
	splitter *Splitter
	readFile func(string) ([]byte, error)
	now      func() time.Time
	logger   *zap.Logger

	mu       sync.Mutex
	state    atomic.Int32
	snapshot atomic.Pointer[Snapshot]

	// guarded by mu
	lastErr     error
	lastFailure time.Time
}

// NewManager creates a manager in the uninitialized state. store may be nil.
func NewManager(opts Options, embedder Embedder, store ChunkStore, logger *zap.Logger) *Manager {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 30 * time.Second
	}
	if opts.SourceName == "" {
		opts.SourceName = opts.SourcePath
	}
	return &Manager{
		opts:     opts,
		embedder: embedder,
		store:    store,
		splitter: NewSplitter(opts.ChunkSize, opts.ChunkOverlap),
		readFile: os.ReadFile,
		now:      time.Now,
		logger:   logger,
	}
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

// Snapshot returns the published index, or nil before the first successful build.
func (m *Manager) Snapshot() *Snapshot {
	return m.snapshot.Load()
}

// Embedder exposes the embedding function the index was built with.
func (m *Manager) Embedder() Embedder {
	return m.embedder
}

// Ensure returns the published snapshot without locking. Before the first
// successful build it builds the index, unless a build failed within
// RetryInterval, in which case that failure is returned.
func (m *Manager) Ensure(ctx context.Context) (*Snapshot, error) {
	if snap := m.Snapshot(); snap != nil {
		return snap, nil
	}
	if err := m.initialize(ctx, false, true); err != nil {
		return m.Snapshot(), err
	}
	return m.Snapshot(), nil
}

// Initialize builds the index. It is a no-op once ready unless force is set, in
// which case the index and chunk list are replaced together. A failed build
// leaves the previously published snapshot and state untouched.
func (m *Manager) Initialize(ctx context.Context, force bool) error {
	return m.initialize(ctx, force, false)
}

func (m *Manager) initialize(ctx context.Context, force, throttle bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.State()
	if prev == StateReady && !force {
		return nil
	}
	if throttle && m.lastErr != nil && m.now().Sub(m.lastFailure) < m.opts.RetryInterval {
		return m.lastErr
	}

	m.state.Store(int32(StateInitializing))
	m.logger.Info("Initializing index", zap.String("source", m.opts.SourcePath), zap.Bool("force", force))

	snap, err := m.build(ctx)
	if err != nil {
		m.state.Store(int32(prev))
		m.logger.Error("Index initialization failed", zap.Error(err))
		m.lastErr = fmt.Errorf("%w: %v", ErrIndexLoad, err)
		m.lastFailure = m.now()
		return m.lastErr
	}

	m.snapshot.Store(snap)
	m.state.Store(int32(StateReady))
	m.lastErr = nil
	m.logger.Info("Index ready", zap.Int("chunks", snap.Len()), zap.String("source_hash", snap.SourceHash))
	return nil
}

func (m *Manager) build(ctx context.Context) (*Snapshot, error) {
	data, err := m.readFile(m.opts.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read source document: %w", err)
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	if snap := m.loadPersisted(ctx, hash); snap != nil {
		return snap, nil
	}

	texts := m.splitter.Split(string(data))
	chunks := make([]models.TextChunk, len(texts))
	for i, t := range texts {
		chunks[i] = models.TextChunk{
			Content:   t,
			Source:    m.opts.SourceName,
			ChunkID:   i,
			CharCount: length(t),
		}
	}

	vectors, err := m.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	idx := NewFlatL2(m.opts.Dimension)
	if err := idx.Add(vectors); err != nil {
		return nil, err
	}

	if m.store != nil && len(chunks) > 0 {
		if err := m.store.SaveChunks(ctx, hash, chunks, vectors); err != nil {
			m.logger.Warn("Failed to persist index chunks", zap.Error(err))
		}
	}

	return &Snapshot{Index: idx, Chunks: chunks, SourceHash: hash}, nil
}

func (m *Manager) loadPersisted(ctx context.Context, hash string) *Snapshot {
	if m.store == nil {
		return nil
	}
	chunks, vectors, err := m.store.LoadChunks(ctx, hash)
	if err != nil {
		m.logger.Warn("Failed to load persisted index chunks, re-embedding", zap.Error(err))
		return nil
	}
	if len(chunks) == 0 || len(chunks) != len(vectors) {
		return nil
	}
	idx := NewFlatL2(m.opts.Dimension)
	if err := idx.Add(vectors); err != nil {
		m.logger.Warn("Persisted index chunks do not match index dimension, re-embedding", zap.Error(err))
		return nil
	}
	m.logger.Info("Loaded persisted index chunks", zap.Int("chunks", len(chunks)))
	return &Snapshot{Index: idx, Chunks: chunks, SourceHash: hash}
}

func (m *Manager) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += m.opts.BatchSize {
		end := start + m.opts.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := m.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
