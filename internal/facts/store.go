package facts

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

// Store loads the fact document once and serves the cached tree afterwards.
// A document that cannot be read or parsed yields an empty tree.
type Store struct {
	path     string
	rootKey  string
	readFile func(string) ([]byte, error)
	logger   *zap.Logger

	once      sync.Once
	tree      *Tree
	flattened string
}

func NewStore(path, rootKey string, logger *zap.Logger) *Store {
	return &Store{
		path:     path,
		rootKey:  rootKey,
		readFile: os.ReadFile,
		logger:   logger,
	}
}

func (s *Store) Tree() *Tree {
	s.once.Do(s.load)
	return s.tree
}

// Flattened returns the whole tree in Flatten form.
func (s *Store) Flattened() string {
	s.once.Do(s.load)
	return s.flattened
}

func (s *Store) load() {
	s.tree = &Tree{}

	data, err := s.readFile(s.path)
	if err != nil {
		s.logger.Error("Failed to read retirement facts", zap.String("path", s.path), zap.Error(err))
		return
	}
	tree, err := Parse(data, s.rootKey)
	if err != nil {
		s.logger.Error("Failed to load retirement facts", zap.String("path", s.path), zap.Error(err))
		return
	}

	s.tree = tree
	s.flattened = tree.Flatten()
	s.logger.Info("Retirement facts loaded", zap.String("path", s.path), zap.Int("sections", tree.Len()))
}
