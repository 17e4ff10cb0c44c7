package skill

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Provider resolves skill names to templates. Implementations must return a
// usable template for any name: unknown skills get a synthesized baseline
// rather than an error, matching the get-or-generate contract of the content
// subsystem.
type Provider interface {
	Template(ctx context.Context, name string) (*Template, error)
}

// Baseline values for synthesized templates of never-before-seen skills.
const (
	BaselineCost     = 5
	BaselineMaxLevel = 3
)

// Library is a Provider backed by YAML templates loaded from a content
// directory. Synthesized templates are cached so repeated lookups of the same
// unknown name stay stable within a process.
// All methods are safe for concurrent use.
type Library struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewLibrary creates a Library from the already-parsed templates.
//
// Precondition: every template must pass Validate.
// Postcondition: Returns a non-nil Library; duplicate names return an error.
func NewLibrary(templates []*Template) (*Library, error) {
	lib := &Library{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if _, exists := lib.templates[t.Name]; exists {
			return nil, fmt.Errorf("duplicate skill template %q", t.Name)
		}
		lib.templates[t.Name] = t
	}
	return lib, nil
}

// LoadLibrary reads all *.yaml files in dir and returns a Library.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns the Library or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadLibrary(dir string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading skills dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading skill file %q: %w", path, err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return NewLibrary(templates)
}

// LoadTemplateFromBytes parses a single skill template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing skill template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// Template returns the template for name, synthesizing a baseline attack
// template when the library has no entry.
//
// Precondition: name must be non-empty.
// Postcondition: Returns a non-nil Template; error only on empty name.
func (l *Library) Template(_ context.Context, name string) (*Template, error) {
	if name == "" {
		return nil, fmt.Errorf("skill name must not be empty")
	}

	l.mu.RLock()
	tmpl, ok := l.templates[name]
	l.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if tmpl, ok := l.templates[name]; ok {
		return tmpl, nil
	}
	tmpl = &Template{
		Name:        name,
		Description: fmt.Sprintf("An unrecorded technique known as %s.", name),
		Role:        RoleAttack,
		Cost:        BaselineCost,
		MaxLevel:    BaselineMaxLevel,
	}
	l.templates[name] = tmpl
	return tmpl, nil
}

// Count returns the number of templates currently held, synthesized included.
func (l *Library) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.templates)
}

// Has reports whether a template is currently held for name. Synthesized
// templates count once they have been looked up through Template.
func (l *Library) Has(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.templates[name]
	return ok
}

// InferRole returns the majority role among the named skills, resolved via p.
// Ties break toward the earliest skill in the list. When skills is empty the
// fallback role is returned.
//
// Precondition: p must not be nil; fallback must be a valid role.
// Postcondition: Returns a valid role string.
func InferRole(ctx context.Context, p Provider, skills []Known, fallback string) string {
	if len(skills) == 0 {
		return fallback
	}

	counts := make(map[string]int)
	order := make([]string, 0, len(skills))
	for _, k := range skills {
		tmpl, err := p.Template(ctx, k.Name)
		if err != nil {
			continue
		}
		if counts[tmpl.Role] == 0 {
			order = append(order, tmpl.Role)
		}
		counts[tmpl.Role]++
	}
	if len(order) == 0 {
		return fallback
	}

	best := order[0]
	for _, role := range order[1:] {
		if counts[role] > counts[best] {
			best = role
		}
	}
	return best
}
