package store

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"pilotpredict/internal/models"
)

// FileStore keeps <kind>.gob artifacts and <kind>.json manifests in one
// directory and caches decoded models. Cached models are never mutated.
type FileStore struct {
	dir    string
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[models.Kind]*models.TrainedModel
	// writeMu serializes Save so version numbers are allocated in order.
	writeMu sync.Mutex
}

func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create model dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dir: dir, logger: logger, cache: map[models.Kind]*models.TrainedModel{}}, nil
}

func (s *FileStore) artifactPath(kind models.Kind) string {
	return filepath.Join(s.dir, string(kind)+".gob")
}

func (s *FileStore) manifestPath(kind models.Kind) string {
	return filepath.Join(s.dir, string(kind)+".json")
}

func (s *FileStore) Load(ctx context.Context, kind models.Kind) (*models.TrainedModel, bool, error) {
	s.mu.RLock()
	m, ok := s.cache[kind]
	s.mu.RUnlock()
	if ok {
		return m, true, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	f, err := os.Open(s.artifactPath(kind))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: open %s: %w", kind, err)
	}
	defer f.Close()

	var tm models.TrainedModel
	if err := gob.NewDecoder(f).Decode(&tm); err != nil {
		return nil, false, fmt.Errorf("store: decode %s: %w", kind, err)
	}
	if tm.Regressor == nil || tm.Scaler == nil {
		return nil, false, fmt.Errorf("store: decode %s: incomplete artifact", kind)
	}

	s.mu.Lock()
	// another goroutine may have loaded or saved meanwhile
	if cur, ok := s.cache[kind]; ok {
		s.mu.Unlock()
		return cur, true, nil
	}
	s.cache[kind] = &tm
	s.mu.Unlock()
	s.logger.Info("model loaded", zap.String("kind", string(kind)), zap.Int("version", tm.Version), zap.String("regressor", tm.Regressor.Name()))
	return &tm, true, nil
}

// Save assigns the next version and atomically replaces the artifact. The
// previous artifact and cache entry survive any failure.
func (s *FileStore) Save(ctx context.Context, kind models.Kind, m *models.TrainedModel) error {
	if m == nil || m.Regressor == nil || m.Scaler == nil {
		return ErrNilModel
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	prev, _, err := s.Load(ctx, kind)
	if err != nil {
		s.logger.Warn("previous model unreadable, restarting versions", zap.String("kind", string(kind)), zap.Error(err))
	}
	m.Kind = kind
	m.Version = 1
	if prev != nil {
		m.Version = prev.Version + 1
	}

	if err := writeAtomic(s.artifactPath(kind), func(f *os.File) error {
		return gob.NewEncoder(f).Encode(m)
	}); err != nil {
		return fmt.Errorf("store: write %s: %w", kind, err)
	}
	mf, err := json.MarshalIndent(manifestOf(m), "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode manifest %s: %w", kind, err)
	}
	if err := writeAtomic(s.manifestPath(kind), func(f *os.File) error {
		_, err := f.Write(mf)
		return err
	}); err != nil {
		s.logger.Warn("manifest write failed", zap.String("kind", string(kind)), zap.Error(err))
	}

	s.mu.Lock()
	s.cache[kind] = m
	s.mu.Unlock()
	s.logger.Info("model saved", zap.String("kind", string(kind)), zap.Int("version", m.Version), zap.Int("samples", m.Samples), zap.Float64("train_r2", m.TrainR2))
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]Manifest, error) {
	var out []Manifest
	for _, k := range models.Kinds() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := os.ReadFile(s.manifestPath(k))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("store: read manifest %s: %w", k, err)
		}
		var mf Manifest
		if err := json.Unmarshal(b, &mf); err != nil {
			return nil, fmt.Errorf("store: decode manifest %s: %w", k, err)
		}
		out = append(out, mf)
	}
	return out, nil
}

// writeAtomic writes through a temp file in the target directory, fsyncs and
// renames it over path.
func writeAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			tmp.Close()
			os.Remove(name)
		}
	}()
	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(name, path); err != nil {
		return err
	}
	ok = true
	return nil
}
