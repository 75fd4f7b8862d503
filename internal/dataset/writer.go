package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/danielpatrickdp/geomboard/internal/config"
)

// DatasetDir is the instance subdirectory of a config-set directory.
const DatasetDir = "dataset"

// #region writer
// Writer writes one config-set directory:
//
//	<root>/<config_id>/<config_id>.json
//	<root>/<config_id>/dataset/<config_instance_id>.json
//
// Files are written to a temporary name and linked into place, so a file is
// either complete or absent and an existing file is never replaced.
type Writer struct {
	dir string

	mu      sync.Mutex
	written int
}

// NewWriter creates the directory layout and writes the parameter copy. It
// fails with ErrExists when root already holds a config set with the same id;
// each run starts a fresh directory and never resumes or replaces one.
func NewWriter(root string, params *config.Params) (*Writer, error) {
	dir := filepath.Join(root, params.ConfigID)
	if err := os.MkdirAll(filepath.Join(dir, DatasetDir), 0o755); err != nil {
		return nil, fmt.Errorf("create dataset dir: %w", err)
	}
	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	if err := writeNew(filepath.Join(dir, params.ConfigID+".json"), data); err != nil {
		if errors.Is(err, ErrExists) {
			return nil, fmt.Errorf("config set %s already exists in %s, choose another output root or config_id: %w",
				params.ConfigID, root, err)
		}
		return nil, fmt.Errorf("write params: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir is the config-set directory.
func (w *Writer) Dir() string { return w.dir }

// Write stores one instance. Safe for concurrent use.
func (w *Writer) Write(in Instance) error {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal instance %s: %w", in.ID, err)
	}
	if err := writeNew(filepath.Join(w.dir, DatasetDir, in.ID+".json"), data); err != nil {
		return fmt.Errorf("write instance %s: %w", in.ID, err)
	}
	w.mu.Lock()
	w.written++
	w.mu.Unlock()
	return nil
}

// Written is the number of instances written so far.
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

func writeNew(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Link(tmpName, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", filepath.Base(path), ErrExists)
		}
		return err
	}
	return nil
}

// #endregion writer

// #region load
// Load reads one instance file.
func Load(path string) (Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Instance{}, fmt.Errorf("read instance: %w", err)
	}
	var in Instance
	if err := json.Unmarshal(data, &in); err != nil {
		return Instance{}, fmt.Errorf("decode instance %s: %w", filepath.Base(path), err)
	}
	return in, nil
}

// LoadDir reads every instance in a config-set directory (or directly in its
// dataset subdirectory), ordered by file name.
func LoadDir(dir string) ([]Instance, error) {
	if fi, err := os.Stat(filepath.Join(dir, DatasetDir)); err == nil && fi.IsDir() {
		dir = filepath.Join(dir, DatasetDir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dataset dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]Instance, 0, len(names))
	for _, n := range names {
		in, err := Load(filepath.Join(dir, n))
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

// LoadParams reads the parameter copy of a config-set directory.
func LoadParams(dir string) (*config.Params, error) {
	return config.Load(filepath.Join(dir, filepath.Base(filepath.Clean(dir))+".json"))
}

// #endregion load
