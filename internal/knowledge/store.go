package knowledge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/clinrec-advisor/internal/domain"
)

// ErrNoDefaultPath is returned by Current when no knowledge base path is configured.
var ErrNoDefaultPath = errors.New("no knowledge base path configured")

type cacheKey struct {
	path    string
	modTime time.Time
	size    int64
}

// Store keeps decoded knowledge bases for the session. Entries are keyed by
// path, modification time and size, so an edited document is decoded again.
// Analysis results are never stored here.
type Store struct {
	loader      *Loader
	logger      *logrus.Logger
	cache       *lru.Cache[cacheKey, *domain.KnowledgeBase]
	defaultPath string
}

// NewStore creates a knowledge base store holding up to size documents.
func NewStore(logger *logrus.Logger, defaultPath string, size int) (*Store, error) {
	if size <= 0 {
		size = 4
	}
	cache, err := lru.New[cacheKey, *domain.KnowledgeBase](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create knowledge base cache: %w", err)
	}
	return &Store{
		loader:      NewLoader(logger),
		logger:      logger,
		cache:       cache,
		defaultPath: defaultPath,
	}, nil
}

// Load returns the decoded document at path, decoding it on first use.
func (s *Store) Load(path string) (*domain.KnowledgeBase, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve knowledge base path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat knowledge base %s: %w", abs, err)
	}

	key := cacheKey{path: abs, modTime: info.ModTime(), size: info.Size()}
	if kb, ok := s.cache.Get(key); ok {
		s.logger.WithField("path", abs).Debug("Knowledge base cache hit")
		return kb, nil
	}

	kb, err := s.loader.LoadFile(abs)
	if err != nil {
		// a document without the index is returned but not kept
		return kb, err
	}
	s.cache.Add(key, kb)
	return kb, nil
}

// Current returns the configured default knowledge base.
func (s *Store) Current() (*domain.KnowledgeBase, error) {
	if s.defaultPath == "" {
		return nil, ErrNoDefaultPath
	}
	return s.Load(s.defaultPath)
}

// Len returns the number of cached documents.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Purge drops every cached document.
func (s *Store) Purge() {
	s.cache.Purge()
}
