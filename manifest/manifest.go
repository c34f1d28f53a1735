// Package manifest handles lexem.toml project configuration.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/lexem/pkg/interval"
	"github.com/chazu/lexem/vm"
)

// FileName is the manifest file Load reads.
const FileName = "lexem.toml"

// ErrInvalid wraps every validation failure reported by Load.
var ErrInvalid = errors.New("invalid manifest")

var validate = validator.New()

// Manifest represents a lexem.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Memory  Memory  `toml:"memory"`
	Log     Log     `toml:"log"`

	// Dir is the directory containing the lexem.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name" validate:"required"`
	Version string `toml:"version"`
}

// Memory sizes the heap and the interval pool. Zero sizes select the
// defaults, except interval-pool-size, where 0 disables pooling and an
// absent key selects the default.
type Memory struct {
	InitialCells     int   `toml:"initial-cells" validate:"gte=0"`
	GCQueueCapacity  int   `toml:"gc-queue-capacity" validate:"gte=0"`
	IntervalPoolSize *int  `toml:"interval-pool-size" validate:"omitempty,gte=0"`
	Metrics          *bool `toml:"metrics"`
}

// Log configures the commonlog backend. Negative verbosity silences it.
type Log struct {
	Verbosity int    `toml:"verbosity" validate:"gte=-4,lte=4"`
	Path      string `toml:"path"`
}

// Default returns the manifest used when a project has no lexem.toml.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

// Load parses a lexem.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if err := validate.Struct(&m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	return &m, nil
}

// FindAndLoad walks up from startDir to find a lexem.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) applyDefaults() {
	if m.Memory.InitialCells == 0 {
		m.Memory.InitialCells = vm.DefaultInitialCells
	}
	if m.Memory.GCQueueCapacity == 0 {
		m.Memory.GCQueueCapacity = vm.DefaultGCQueueCapacity
	}
	if m.Memory.IntervalPoolSize == nil {
		size := interval.DefaultPoolCapacity
		m.Memory.IntervalPoolSize = &size
	}
	if m.Memory.Metrics == nil {
		enabled := true
		m.Memory.Metrics = &enabled
	}
}

// MetricsEnabled reports the [memory] metrics switch.
func (m *Manifest) MetricsEnabled() bool {
	return m.Memory.Metrics == nil || *m.Memory.Metrics
}

// PoolCapacity returns the interval pool capacity Apply installs.
func (m *Manifest) PoolCapacity() int {
	if m.Memory.IntervalPoolSize == nil {
		return interval.DefaultPoolCapacity
	}
	return *m.Memory.IntervalPoolSize
}

// LogPath returns the absolute log file path, or nil for stderr.
func (m *Manifest) LogPath() *string {
	if m.Log.Path == "" {
		return nil
	}
	path := m.Log.Path
	if !filepath.IsAbs(path) && m.Dir != "" {
		path = filepath.Join(m.Dir, path)
	}
	return &path
}

// HeapOptions returns the options for heaps created by this project.
func (m *Manifest) HeapOptions() vm.HeapOptions {
	return vm.HeapOptions{
		InitialCells:    m.Memory.InitialCells,
		GCQueueCapacity: m.Memory.GCQueueCapacity,
		Metrics:         m.MetricsEnabled(),
	}
}

// Apply installs the process-wide settings: the log backend, the interval
// pool capacity and the heap metrics switch.
func (m *Manifest) Apply() {
	commonlog.Configure(m.Log.Verbosity, m.LogPath())
	interval.SetPoolCapacity(m.PoolCapacity())
	vm.SetMetricsEnabled(m.MetricsEnabled())
}
