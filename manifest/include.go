package manifest

import (
	"fmt"
	"path/filepath"
)

// ResolveIncludes loads every manifest m includes, transitively, and returns
// them in load order: an included manifest comes before the manifests that
// include it. m itself is last. Include paths are relative to the including
// manifest's directory.
func (m *Manifest) ResolveIncludes() ([]*Manifest, error) {
	r := &includeResolver{
		state: make(map[string]int),
	}
	if err := r.visit(m); err != nil {
		return nil, err
	}
	return r.order, nil
}

const (
	unvisited = iota
	visiting
	visited
)

type includeResolver struct {
	state map[string]int
	order []*Manifest
}

func (r *includeResolver) visit(m *Manifest) error {
	key := m.Dir
	switch r.state[key] {
	case visiting:
		return fmt.Errorf("include cycle through %s", key)
	case visited:
		return nil
	}
	r.state[key] = visiting

	for _, inc := range m.Include {
		path := inc
		if !filepath.IsAbs(path) {
			path = filepath.Join(m.Dir, path)
		}
		sub, err := Load(path)
		if err != nil {
			return fmt.Errorf("resolving include %q: %w", inc, err)
		}
		if err := r.visit(sub); err != nil {
			return err
		}
	}

	r.state[key] = visited
	r.order = append(r.order, m)
	return nil
}
