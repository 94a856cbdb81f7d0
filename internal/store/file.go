package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go-jobradar/internal/models"
)

const (
	DefaultPath      = "ui/jobs.json"
	DefaultGlobalVar = "window.JOBS_DATA"
)

// FileStore keeps the result set in a JSON file and mirrors it into a .js file
// next to it for the static front end.
type FileStore struct {
	Path      string
	GlobalVar string
}

func NewFileStore(path, globalVar string) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	if globalVar == "" {
		globalVar = DefaultGlobalVar
	}
	return &FileStore{Path: path, GlobalVar: globalVar}
}

// MirrorPath is Path with its extension replaced by .js.
func (s *FileStore) MirrorPath() string {
	return strings.TrimSuffix(s.Path, filepath.Ext(s.Path)) + ".js"
}

// Load returns nil, nil when the file does not exist yet.
func (s *FileStore) Load(ctx context.Context) ([]models.Job, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	jobs, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return jobs, nil
}

// Save writes both files from the same encoded buffer.
func (s *FileStore) Save(ctx context.Context, jobs []models.Job) error {
	data, err := Encode(jobs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := writeAtomic(s.Path, data); err != nil {
		return err
	}
	return writeAtomic(s.MirrorPath(), ScriptWrap(s.GlobalVar, data))
}

// WriteFiles exports jobs to a JSON file and its .js mirror without going through
// a FileStore load.
func WriteFiles(path, globalVar string, jobs []models.Job) error {
	return NewFileStore(path, globalVar).Save(context.Background(), jobs)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
