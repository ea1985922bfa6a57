// Package manifest handles dunder.toml class-hierarchy declarations.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/chazu/dunder/vm"
)

// FileName is the manifest file looked up in a directory.
const FileName = "dunder.toml"

// Manifest represents a dunder.toml file.
type Manifest struct {
	Project Project       `toml:"project"`
	Runtime RuntimeConfig `toml:"runtime"`
	Include []string      `toml:"include"`
	Classes []ClassDecl   `toml:"class"`

	// Dir is the directory containing the dunder.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// RuntimeConfig configures the runtime a manifest is built into.
type RuntimeConfig struct {
	Log          int  `toml:"log"`           // commonlog verbosity
	CompactLimit *int `toml:"compact-limit"` // shared key table size per class
	Debug        bool `toml:"debug"`         // log slot updates and construction
	Sweep        bool `toml:"sweep"`         // sweep dead classes after Build
}

// ClassDecl declares one class.
type ClassDecl struct {
	Name      string            `toml:"name"`
	Bases     []string          `toml:"bases"`
	Metaclass string            `toml:"metaclass"`
	Slots     *[]string         `toml:"slots"`
	Doc       string            `toml:"doc"`
	Hash      string            `toml:"hash"`
	Attrs     map[string]any    `toml:"attrs"`
	Methods   map[string]string `toml:"methods"`
	Keywords  map[string]any    `toml:"keywords"`
}

// Load parses a dunder.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes manifest text and validates its class declarations.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, err
	}
	for _, key := range md.Undecoded() {
		if !freeform(key) {
			return nil, fmt.Errorf("unknown key %q", key.String())
		}
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// freeform reports whether key lies inside a class's attrs or keywords
// table, whose nested tables are values rather than manifest keys.
func freeform(key toml.Key) bool {
	return len(key) >= 2 && key[0] == "class" && (key[1] == "attrs" || key[1] == "keywords")
}

// FindAndLoad walks up from startDir to find a dunder.toml file,
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
			return nil, nil
		}
		dir = parent
	}
}

// VMConfig returns the runtime configuration the manifest asks for,
// starting from the environment-driven defaults.
func (m *Manifest) VMConfig() *vm.Config {
	cfg := vm.DefaultConfig()
	if m.Runtime.CompactLimit != nil {
		cfg.CompactLimit = *m.Runtime.CompactLimit
	}
	if m.Runtime.Debug {
		cfg.Debug = true
	}
	return cfg
}

// Verbosity returns the log verbosity. DUNDER_LOG overrides the manifest.
func (m *Manifest) Verbosity() int {
	if s := os.Getenv("DUNDER_LOG"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return m.Runtime.Log
}

// NewRuntime creates a runtime configured by the manifest and builds its
// classes into it.
func (m *Manifest) NewRuntime() (*vm.Runtime, []*vm.Class, error) {
	rt, err := vm.New(m.VMConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("creating runtime: %w", err)
	}
	classes, err := m.Build(rt)
	if err != nil {
		return nil, nil, err
	}
	return rt, classes, nil
}

func (m *Manifest) validate() error {
	seen := make(map[string]bool, len(m.Classes))
	for i, decl := range m.Classes {
		if err := validateClassName(decl.Name); err != nil {
			return fmt.Errorf("class #%d: %w", i+1, err)
		}
		if seen[decl.Name] {
			return fmt.Errorf("class %s declared twice", decl.Name)
		}
		seen[decl.Name] = true
		if decl.Hash != "" && decl.Hash != "none" {
			return fmt.Errorf("class %s: hash must be \"none\", not %q", decl.Name, decl.Hash)
		}
		for name, spec := range decl.Methods {
			if _, err := parseBehavior(spec); err != nil {
				return fmt.Errorf("class %s: method %s: %w", decl.Name, name, err)
			}
		}
	}
	return nil
}
