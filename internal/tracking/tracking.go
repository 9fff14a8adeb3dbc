// Package tracking records experiment runs on the local filesystem:
// <root>/<experiment>/<run-id>/{params.yaml,meta.yaml,artifacts/}.
package tracking

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	StatusRunning  = "RUNNING"
	StatusFinished = "FINISHED"
	StatusFailed   = "FAILED"

	paramsFile   = "params.yaml"
	metaFile     = "meta.yaml"
	artifactsDir = "artifacts"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type FileStore struct {
	root string
	now  func() time.Time
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root, now: time.Now}
}

type Meta struct {
	RunID      string    `yaml:"run_id"`
	Experiment string    `yaml:"experiment"`
	Status     string    `yaml:"status"`
	StartTime  time.Time `yaml:"start_time"`
	EndTime    time.Time `yaml:"end_time,omitempty"`

	// Dir is where the run lives; filled in when the run is read back.
	Dir string `yaml:"-"`
}

type Run struct {
	dir string
	now func() time.Time

	mu     sync.Mutex
	meta   Meta
	params map[string]any
}

func (s *FileStore) experimentDir(experiment string) string {
	if experiment == "" {
		experiment = "default"
	}
	return filepath.Join(s.root, unsafeName.ReplaceAllString(experiment, "_"))
}

// Start creates a fresh run directory under experiment and marks it running.
func (s *FileStore) Start(experiment string) (*Run, error) {
	if experiment == "" {
		experiment = "default"
	}
	id := uuid.NewString()
	dir := filepath.Join(s.experimentDir(experiment), id)

	if err := os.MkdirAll(filepath.Join(dir, artifactsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}

	r := &Run{
		dir:    dir,
		now:    s.now,
		params: make(map[string]any),
		meta: Meta{
			RunID:      id,
			Experiment: experiment,
			Status:     StatusRunning,
			StartTime:  s.now().UTC(),
		},
	}
	if err := r.writeYAML(metaFile, r.meta); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Run) ID() string  { return r.meta.RunID }
func (r *Run) Dir() string { return r.dir }

// LogParams merges params into the run's params.yaml.
func (r *Run) LogParams(params map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, v := range params {
		r.params[k] = v
	}
	return r.writeYAML(paramsFile, r.params)
}

// LogArtifact stores data under artifacts/name, replacing any previous content.
func (r *Run) LogArtifact(name string, data []byte) error {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	if err := os.WriteFile(filepath.Join(r.dir, artifactsDir, base), data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", base, err)
	}
	return nil
}

// End records the final status; a non-nil runErr marks the run failed.
func (r *Run) End(runErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.meta.Status = StatusFinished
	if runErr != nil {
		r.meta.Status = StatusFailed
	}
	r.meta.EndTime = r.now().UTC()
	return r.writeYAML(metaFile, r.meta)
}

func (r *Run) writeYAML(name string, v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(r.dir, name), out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Runs lists the recorded runs of experiment, newest first. Directories
// without a meta.yaml are ignored; an unknown experiment has no runs.
func (s *FileStore) Runs(experiment string) ([]Meta, error) {
	entries, err := os.ReadDir(s.experimentDir(experiment))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	var runs []Meta
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m, err := ReadMeta(filepath.Join(s.experimentDir(experiment), e.Name()))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		runs = append(runs, m)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].StartTime.After(runs[j].StartTime) })
	return runs, nil
}

// ReadMeta loads meta.yaml from a run directory.
func ReadMeta(dir string) (Meta, error) {
	m := Meta{Dir: dir}
	raw, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("parse %s: %w", metaFile, err)
	}
	return m, nil
}
