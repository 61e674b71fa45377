package registry

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"
)

// Suite is one runnable test mode and the gtest binary behind it
type Suite struct {
	Mode        string
	Binary      string
	Description string
	Timeout     time.Duration // per-test timeout, 0 means the run default
}

// BuiltinSuites are the modes available without any configuration, in usage order
var BuiltinSuites = []Suite{
	{Mode: "cts", Binary: "cros_nnapi_cts"},
	{Mode: "vts10", Binary: "cros_nnapi_vts_1_0"},
	{Mode: "vts11", Binary: "cros_nnapi_vts_1_1"},
	{Mode: "vts12", Binary: "cros_nnapi_vts_1_2"},
	{Mode: "vts13", Binary: "cros_nnapi_vts_1_3"},
}

// SuiteConfig is a suite entry of the overrides file
type SuiteConfig struct {
	Mode        string         `yaml:"mode"`
	Binary      string         `yaml:"binary"`
	Description string         `yaml:"description,omitempty"`
	Timeout     *time.Duration `yaml:"timeout,omitempty"`
}

// SuitesConfig is the root of the overrides file
type SuitesConfig struct {
	Suites []SuiteConfig `yaml:"suites"`
}

// Config contains registry configuration
type Config struct {
	Log            log.Logger
	SuitesFile     string // optional YAML overrides
	DefaultTimeout time.Duration
}

// Registry resolves mode names to suites
type Registry struct {
	config Config
	suites []Suite
	mu     sync.RWMutex
}

// NewRegistry creates a registry holding the built-in suites, with any
// overrides from cfg.SuitesFile applied on top.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	r := &Registry{config: cfg}
	for _, s := range BuiltinSuites {
		s.Description = describe(s)
		s.Timeout = cfg.DefaultTimeout
		r.suites = append(r.suites, s)
	}

	if cfg.SuitesFile != "" {
		if err := r.loadOverrides(cfg.SuitesFile); err != nil {
			return nil, fmt.Errorf("failed to load suites: %w", err)
		}
	}

	cfg.Log.Debug("Registry loaded", "len(suites)", len(r.suites))
	return r, nil
}

func describe(s Suite) string {
	return fmt.Sprintf("Runs the %s tests", s.Binary)
}

func (r *Registry) loadOverrides(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := loadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, sc := range cfg.Suites {
		if sc.Mode == "" {
			return fmt.Errorf("suite without mode")
		}
		idx := r.indexOf(sc.Mode)
		if idx < 0 {
			return fmt.Errorf("unknown mode %q", sc.Mode)
		}

		s := &r.suites[idx]
		if sc.Binary != "" {
			s.Binary = sc.Binary
			s.Description = describe(*s)
		}
		if sc.Description != "" {
			s.Description = sc.Description
		}
		if sc.Timeout != nil {
			if *sc.Timeout <= 0 {
				return fmt.Errorf("suite %s: timeout must be positive", sc.Mode)
			}
			s.Timeout = *sc.Timeout
		}
		r.config.Log.Debug("Suite overridden", "mode", s.Mode, "binary", s.Binary, "timeout", s.Timeout)
	}
	return nil
}

func (r *Registry) indexOf(mode string) int {
	for i, s := range r.suites {
		if s.Mode == mode {
			return i
		}
	}
	return -1
}

// Lookup returns the suite for mode
func (r *Registry) Lookup(mode string) (Suite, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(mode)
	if idx < 0 {
		return Suite{}, false
	}
	return r.suites[idx], true
}

// Suites returns every suite in usage order
func (r *Registry) Suites() []Suite {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Suite, len(r.suites))
	copy(out, r.suites)
	return out
}

// GetConfig returns the registry configuration
func (r *Registry) GetConfig() Config {
	return r.config
}

func loadConfig(path string) (*SuitesConfig, error) {
	log.Debug("Reading suites file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg SuitesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return &cfg, nil
}
