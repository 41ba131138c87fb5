package rounds

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no search path holds the requested round.
var ErrNotFound = errors.New("round not found")

var extensions = []string{".json", ".yaml", ".yml"}

// Loader finds round files by name in its search paths and caches them.
type Loader struct {
	cache       sync.Map
	validator   *Validator
	searchPaths []string
}

func NewLoader(searchPaths []string) (*Loader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &Loader{
		validator:   validator,
		searchPaths: searchPaths,
	}, nil
}

// Load returns the round called name. "default" resolves to Default()
// unless a file of that name exists.
func (l *Loader) Load(name string) (Round, error) {
	if cached, ok := l.cache.Load(name); ok {
		return cached.(Round), nil
	}

	if strings.ContainsAny(name, `/\`) || name == ".." {
		return Round{}, fmt.Errorf("invalid round name %q", name)
	}

	for _, searchPath := range l.searchPaths {
		for _, ext := range extensions {
			fullPath := filepath.Join(searchPath, name+ext)
			round, err := l.LoadFile(fullPath)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return Round{}, err
			}
			if round.Name != name {
				return Round{}, fmt.Errorf("%s declares round %q, want %q", fullPath, round.Name, name)
			}
			l.cache.Store(name, round)
			return round, nil
		}
	}

	if name == "default" {
		return Default(), nil
	}

	return Round{}, fmt.Errorf("%w: %s (searched in: %v)", ErrNotFound, name, l.searchPaths)
}

// LoadFile reads, validates and decodes a single round file.
func (l *Loader) LoadFile(path string) (Round, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Round{}, err
	}

	round, err := l.Parse(data, filepath.Ext(path))
	if err != nil {
		return Round{}, fmt.Errorf("%s: %w", path, err)
	}
	return round, nil
}

// Parse decodes a JSON or YAML document, selected by ext.
func (l *Loader) Parse(data []byte, ext string) (Round, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		converted, err := yamlToJSON(data)
		if err != nil {
			return Round{}, err
		}
		data = converted
	case ".json", "":
	default:
		return Round{}, fmt.Errorf("unsupported round file extension %q", ext)
	}

	if err := l.validator.ValidateRound(data); err != nil {
		return Round{}, err
	}

	var round Round
	if err := json.Unmarshal(data, &round); err != nil {
		return Round{}, fmt.Errorf("failed to unmarshal round: %w", err)
	}

	if err := round.Check(); err != nil {
		return Round{}, err
	}

	return round, nil
}

// List returns the names of every round file in the search paths.
func (l *Loader) List() ([]string, error) {
	seen := make(map[string]bool)
	names := make([]string, 0)

	for _, searchPath := range l.searchPaths {
		entries, err := os.ReadDir(searchPath)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", searchPath, err)
		}
		for _, e := range entries {
			ext := filepath.Ext(e.Name())
			if e.IsDir() || !isRoundExt(ext) {
				continue
			}
			name := strings.TrimSuffix(e.Name(), ext)
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	return names, nil
}

func (l *Loader) ClearCache() {
	l.cache.Range(func(key, value interface{}) bool {
		l.cache.Delete(key)
		return true
	})
}

func isRoundExt(ext string) bool {
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML: %w", err)
	}
	return out, nil
}
