package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-vigil/internal/domain"
)

// semverPattern matches the document versions we accept: major, or
// major.minor, or major.minor.patch.
var semverPattern = regexp.MustCompile(`^\d+(\.\d+){0,2}$`)

// CompiledWorkflow is a workflow document compiled into its executable
// form. Instances are cached and shared across runs; callers must
// treat the graph as immutable.
type CompiledWorkflow struct {
	// Name is the workflow's metadata name.
	Name string
	// Description is the workflow's metadata description.
	Description string
	// Graph is the compiled workflow graph with typed node configs.
	Graph domain.Graph
}

// WorkflowLoader parses, validates, and compiles workflow documents,
// caching compiled workflows by content hash so repeated test runs of
// an unchanged workflow skip recompilation.
type WorkflowLoader struct {
	// validator performs struct field validation on parsed documents.
	validator *validator.Validate
	// cache stores compiled workflows indexed by SHA256 hash of the
	// normalized document. Cached workflows must not be mutated.
	cache map[string]*CompiledWorkflow
	// cacheMu provides thread-safe access to the cache map.
	cacheMu sync.RWMutex
	// sf prevents duplicate compilation when multiple goroutines
	// request the same workflow simultaneously.
	sf singleflight.Group
}

// NewWorkflowLoader creates a loader with an empty cache and the
// document validators registered.
func NewWorkflowLoader() (*WorkflowLoader, error) {
	v := validator.New()
	if err := v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
		return semverPattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &WorkflowLoader{
		validator: v,
		cache:     make(map[string]*CompiledWorkflow),
	}, nil
}

// LoadFromFile loads and compiles a workflow from a YAML file.
// The returned workflow may be a shared cached instance; callers must
// not mutate it.
func (wl *WorkflowLoader) LoadFromFile(ctx context.Context, path string) (*CompiledWorkflow, error) {
	// Clean the path to prevent directory traversal.
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return wl.load(ctx, data)
}

// LoadFromReader loads and compiles a workflow from any reader.
// The returned workflow may be a shared cached instance; callers must
// not mutate it.
func (wl *WorkflowLoader) LoadFromReader(ctx context.Context, r io.Reader) (*CompiledWorkflow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return wl.load(ctx, data)
}

// LoadFromYAML loads and compiles a workflow from YAML bytes.
// The returned workflow may be a shared cached instance; callers must
// not mutate it.
func (wl *WorkflowLoader) LoadFromYAML(ctx context.Context, data []byte) (*CompiledWorkflow, error) {
	return wl.load(ctx, data)
}

// load parses, hashes, validates, and compiles a document, using
// singleflight so concurrent loads of the same bytes compile once.
func (wl *WorkflowLoader) load(_ context.Context, data []byte) (*CompiledWorkflow, error) {
	// Parse first so the hash covers the normalized document rather
	// than formatting-sensitive raw bytes.
	config, err := wl.parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	hash, err := wl.configHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := wl.sf.Do(hash, func() (any, error) {
		// Re-check the cache inside singleflight to close the race
		// between the cache lookup and group execution.
		if workflow, ok := wl.cached(hash); ok {
			return workflow, nil
		}

		if err := wl.validator.Struct(config); err != nil {
			return nil, fmt.Errorf("document validation failed: %w", err)
		}

		workflow, err := wl.compile(config)
		if err != nil {
			return nil, err
		}

		wl.store(hash, workflow)
		return workflow, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CompiledWorkflow), nil
}

// parseYAML unmarshals a document using strict decoding so unknown
// fields fail loudly instead of being silently dropped.
func (wl *WorkflowLoader) parseYAML(data []byte) (*WorkflowConfig, error) {
	var config WorkflowConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Strict mode, fail on unknown fields.

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &config, nil
}

// configHash returns the SHA256 hex digest of the normalized document.
func (wl *WorkflowLoader) configHash(config *WorkflowConfig) (string, error) {
	normalized, err := yaml.Marshal(config)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(normalized)
	return hex.EncodeToString(sum[:]), nil
}

// compile turns a validated document into a CompiledWorkflow with
// typed node configs. Kind-specific config problems surface here as
// decode errors; deeper semantic checks belong to the graph validator.
func (wl *WorkflowLoader) compile(config *WorkflowConfig) (*CompiledWorkflow, error) {
	nodes := make([]domain.Node, 0, len(config.Nodes))
	for _, doc := range config.Nodes {
		kind := domain.NodeKind(doc.Kind)
		nodeConfig, err := DecodeNodeConfig(kind, doc.Config)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", doc.ID, err)
		}
		nodes = append(nodes, domain.Node{
			ID:     doc.ID,
			Kind:   kind,
			Config: nodeConfig,
		})
	}

	edges := make([]domain.Edge, 0, len(config.Edges))
	for _, doc := range config.Edges {
		edges = append(edges, domain.Edge{
			Source:     doc.Source,
			Target:     doc.Target,
			SourcePort: doc.SourcePort,
		})
	}

	return &CompiledWorkflow{
		Name:        config.Metadata.Name,
		Description: config.Metadata.Description,
		Graph:       domain.Graph{Nodes: nodes, Edges: edges},
	}, nil
}

func (wl *WorkflowLoader) cached(hash string) (*CompiledWorkflow, bool) {
	wl.cacheMu.RLock()
	defer wl.cacheMu.RUnlock()
	workflow, ok := wl.cache[hash]
	return workflow, ok
}

func (wl *WorkflowLoader) store(hash string, workflow *CompiledWorkflow) {
	wl.cacheMu.Lock()
	defer wl.cacheMu.Unlock()
	wl.cache[hash] = workflow
}

// CacheSize returns the number of compiled workflows currently cached.
func (wl *WorkflowLoader) CacheSize() int {
	wl.cacheMu.RLock()
	defer wl.cacheMu.RUnlock()
	return len(wl.cache)
}
