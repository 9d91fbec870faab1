package sequence

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Provider holds validated sequence definitions, registered in code or
// loaded from a YAML file.
type Provider struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewProvider returns an empty Provider.
func NewProvider() *Provider {
	return &Provider{defs: make(map[string]*Definition)}
}

// Add validates and stores a definition. Re-adding a name replaces the
// previous definition; running sessions keep their recorded answers but
// resolve questions against the new definition.
func (p *Provider) Add(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.defs[def.Name] = &def
	p.mu.Unlock()
	return nil
}

// Get returns the definition by name, or nil.
func (p *Provider) Get(name string) *Definition {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.defs[name]
}

// Names lists registered definition names sorted alphabetically.
func (p *Provider) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.defs))
	for name := range p.defs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type definitionsFile struct {
	Sequences []Definition `yaml:"sequences"`
}

// LoadFile reads sequence definitions from a YAML file and adds them all.
// The file format is a top-level "sequences" list of definitions.
func (p *Provider) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read sequence definitions: %w", err)
	}
	var file definitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse sequence definitions: %w", err)
	}
	for _, def := range file.Sequences {
		if err := p.Add(def); err != nil {
			return 0, err
		}
	}
	return len(file.Sequences), nil
}
