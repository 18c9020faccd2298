package store

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xhad/coverletter/internal/types"
	"github.com/xhad/coverletter/pkg/logger"
)

const (
	indexFile    = "index.gob"
	indexVersion = 1
)

var errIndexNotFound = errors.New("index not found")

// snapshot is the on-disk form of an Index.
type snapshot struct {
	Version   int
	Name      string
	Dimension int
	Chunks    []string
	Vectors   [][]float32
}

type FileStoreConfig struct {
	Path string
}

// FileStore keeps one index per name under Path/<name>/index.gob.
type FileStore struct {
	config  FileStoreConfig
	builder builder
	logger  *zap.Logger
}

func NewFileStore(config FileStoreConfig, splitter types.Splitter, embedder types.Embedder, log *zap.Logger) (*FileStore, error) {
	if config.Path == "" {
		config.Path = "vector_indices"
	}
	b, err := newBuilder(splitter, embedder)
	if err != nil {
		return nil, err
	}
	return &FileStore{config: config, builder: b, logger: logger.OrNop(log)}, nil
}

// Dir is the directory holding the index called name.
func (s *FileStore) Dir(name string) string {
	return filepath.Join(s.config.Path, name)
}

// LoadOrBuild returns the persisted index for name, or builds it from text and
// persists it. An unreadable index is logged and rebuilt.
func (s *FileStore) LoadOrBuild(ctx context.Context, text, name string) (types.Index, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	log := s.logger.With(zap.String(logger.FieldCollection, name), zap.String("path", s.Dir(name)))

	ix, err := s.load(name)
	if err == nil {
		log.Debug("loaded index", zap.Int("chunks", ix.Len()))
		return ix, nil
	}
	if !errors.Is(err, errIndexNotFound) {
		log.Warn("failed to load index, rebuilding", zap.Error(err))
	}

	chunks, vectors, err := s.builder.chunkAndEmbed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("build index %q: %w", name, err)
	}
	ix, err = NewIndex(name, chunks, vectors)
	if err != nil {
		return nil, fmt.Errorf("build index %q: %w", name, err)
	}
	if err := s.save(ix); err != nil {
		return nil, fmt.Errorf("save index %q: %w", name, err)
	}

	log.Info("built index", zap.Int("chunks", ix.Len()), zap.Int("dimension", ix.Dimension()))
	return ix, nil
}

// Remove deletes the persisted index so the next LoadOrBuild rebuilds it.
func (s *FileStore) Remove(_ context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.RemoveAll(s.Dir(name)); err != nil {
		return fmt.Errorf("remove index %q: %w", name, err)
	}
	return nil
}

func (s *FileStore) load(name string) (*Index, error) {
	f, err := os.Open(filepath.Join(s.Dir(name), indexFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errIndexNotFound
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrCorruptIndex, err)
	}
	if snap.Version != indexVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrCorruptIndex, snap.Version, indexVersion)
	}

	ix, err := NewIndex(name, snap.Chunks, snap.Vectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	if ix.Len() > 0 && ix.Dimension() != snap.Dimension {
		return nil, fmt.Errorf("%w: dimension %d, header says %d", ErrCorruptIndex, ix.Dimension(), snap.Dimension)
	}
	return ix, nil
}

// save writes to a temp file and renames it so readers never see a partial index.
func (s *FileStore) save(ix *Index) error {
	dir := s.Dir(ix.Name())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, indexFile+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	snap := snapshot{
		Version:   indexVersion,
		Name:      ix.Name(),
		Dimension: ix.Dimension(),
		Chunks:    ix.chunks,
		Vectors:   ix.vectors,
	}
	if err := gob.NewEncoder(tmp).Encode(&snap); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, indexFile))
}
