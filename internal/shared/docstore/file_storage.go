package docstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/reshetovitsme/askanon/internal/shared/errors"
	"github.com/samber/oops"
)

// FileStorage implements Store with one JSON file per document
type FileStorage struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStorage creates a new file-based document store rooted at basePath
func NewFileStorage(basePath string) (*FileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create storage directory").Wrap(err)
	}

	return &FileStorage{basePath: basePath}, nil
}

func (s *FileStorage) Add(ctx context.Context, collection string, doc *Document) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if err := s.Set(ctx, collection, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (s *FileStorage) Set(_ context.Context, collection string, doc *Document) error {
	if err := validateDocument(collection, doc); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(collection, doc)
}

func (s *FileStorage) Get(_ context.Context, collection, id string) (*Document, error) {
	if err := validateName("collection", collection); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.read(collection, id)
}

func (s *FileStorage) Delete(_ context.Context, collection, id string) error {
	if err := validateName("collection", collection); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(collection, id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return oops.With("collection", collection, "document_id", id, "context", "failed to delete document").Wrap(err)
	}
	return nil
}

func (s *FileStorage) List(_ context.Context, collection string, q Query) ([]*Document, error) {
	if err := validateQuery(collection, q); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.basePath, collection)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Document{}, nil
		}
		return nil, oops.With("collection", collection, "directory", dir, "context", "failed to read collection directory").Wrap(err)
	}

	var docs []*Document
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}
		if doc.Fields == nil {
			doc.Fields = map[string]any{}
		}

		docs = append(docs, &doc)
	}

	return applyQuery(docs, q), nil
}

func (s *FileStorage) Move(_ context.Context, from, to, id string) error {
	if err := validateName("collection", from); err != nil {
		return err
	}
	if err := validateName("collection", to); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(from, id)
	if err != nil {
		return err
	}
	if err := s.write(to, doc); err != nil {
		return err
	}

	path, err := s.path(from, id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return oops.With("collection", from, "document_id", id, "context", "failed to remove moved document").Wrap(err)
	}
	return nil
}

func (s *FileStorage) Close() error {
	return nil
}

// path rejects IDs that would escape the collection directory
func (s *FileStorage) path(collection, id string) (string, error) {
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return "", oops.With("document_id", id).Wrap(apperrors.ErrNotFound)
	}
	return filepath.Join(s.basePath, collection, id+".json"), nil
}

func (s *FileStorage) read(collection, id string) (*Document, error) {
	path, err := s.path(collection, id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oops.With("collection", collection, "document_id", id).Wrap(apperrors.ErrNotFound)
		}
		return nil, oops.With("collection", collection, "document_id", id, "context", "failed to read document").Wrap(err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, oops.With("collection", collection, "document_id", id, "context", "failed to unmarshal document").Wrap(err)
	}
	if doc.Fields == nil {
		doc.Fields = map[string]any{}
	}
	return &doc, nil
}

func (s *FileStorage) write(collection string, doc *Document) error {
	path, err := s.path(collection, doc.ID)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return oops.With("collection_dir", dir, "context", "failed to create collection directory").Wrap(err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return oops.With("collection", collection, "document_id", doc.ID, "context", "failed to marshal document").Wrap(err)
	}

	return os.WriteFile(path, data, 0644)
}
