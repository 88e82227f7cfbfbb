package application

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ahrav/go-vigil/infrastructure/handlers"
	"github.com/ahrav/go-vigil/internal/domain"
	"github.com/ahrav/go-vigil/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.HandlerRegistry = (*DefaultHandlerRegistry)(nil)

// DefaultHandlerRegistry implements ports.HandlerRegistry with the
// built-in handler set pre-registered, one factory per node kind.
// It injects the detection client into the kinds that need it and
// supports registering additional custom kinds.
type DefaultHandlerRegistry struct {
	// factories maps node kinds to their factory functions.
	factories map[domain.NodeKind]ports.HandlerFactory
	// mu protects concurrent access to the factories map.
	mu sync.RWMutex
	// detection is injected into algorithm handlers.
	detection ports.DetectionClient
}

// NewDefaultHandlerRegistry creates a registry with every built-in node
// kind pre-registered. The detection client backs algorithm nodes; it
// must not be nil when the compiled graphs contain any.
func NewDefaultHandlerRegistry(detection ports.DetectionClient) *DefaultHandlerRegistry {
	registry := &DefaultHandlerRegistry{
		factories: make(map[domain.NodeKind]ports.HandlerFactory),
		detection: detection,
	}
	registry.registerBuiltinFactories()
	return registry
}

// registerBuiltinFactories registers the standard handler for each of
// the supported node kinds.
func (r *DefaultHandlerRegistry) registerBuiltinFactories() {
	// Capture the current client to avoid data races.
	client := r.detection

	r.factories[domain.KindVideoSource] = func(node domain.Node) (ports.NodeHandler, error) {
		return handlers.CreateVideoSourceHandler(node.ID, node.Config)
	}
	r.factories[domain.KindAlgorithm] = func(node domain.Node) (ports.NodeHandler, error) {
		return handlers.CreateAlgorithmHandler(node.ID, node.Config, client)
	}
	r.factories[domain.KindCondition] = func(node domain.Node) (ports.NodeHandler, error) {
		return handlers.CreateConditionHandler(node.ID, node.Config)
	}
	r.factories[domain.KindFunction] = func(node domain.Node) (ports.NodeHandler, error) {
		return handlers.CreateFunctionHandler(node.ID, node.Config)
	}
	r.factories[domain.KindRoiFilter] = func(node domain.Node) (ports.NodeHandler, error) {
		return handlers.CreateRoiFilterHandler(node.ID, node.Config)
	}
	r.factories[domain.KindAlert] = func(node domain.Node) (ports.NodeHandler, error) {
		return handlers.CreateAlertHandler(node.ID, node.Config)
	}
	r.factories[domain.KindRecord] = func(node domain.Node) (ports.NodeHandler, error) {
		return handlers.CreateRecordHandler(node.ID, node.Config)
	}
}

// RegisterFactory associates a node kind with a handler factory,
// replacing any existing registration for that kind.
func (r *DefaultHandlerRegistry) RegisterFactory(kind domain.NodeKind, factory ports.HandlerFactory) error {
	if kind == "" {
		return fmt.Errorf("node kind cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory for kind %q cannot be nil", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
	return nil
}

// CreateHandler builds the handler for one node using the factory
// registered for its kind.
func (r *DefaultHandlerRegistry) CreateHandler(node domain.Node) (ports.NodeHandler, error) {
	r.mu.RLock()
	factory, exists := r.factories[node.Kind]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("no handler registered for node kind %q (supported: %v)",
			node.Kind, r.SupportedKinds())
	}

	handler, err := factory(node)
	if err != nil {
		return nil, fmt.Errorf("creating %s handler for node %q: %w", node.Kind, node.ID, err)
	}
	return handler, nil
}

// SupportedKinds returns the kinds with registered factories, sorted
// for stable error messages.
func (r *DefaultHandlerRegistry) SupportedKinds() []domain.NodeKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.NodeKind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// CompileHandlers instantiates one handler per graph node. It is called
// after validation, so configuration errors here indicate a registry
// misconfiguration rather than a user error.
func CompileHandlers(registry ports.HandlerRegistry, graph domain.Graph) (map[string]ports.NodeHandler, error) {
	compiled := make(map[string]ports.NodeHandler, len(graph.Nodes))
	for _, node := range graph.Nodes {
		handler, err := registry.CreateHandler(node)
		if err != nil {
			return nil, err
		}
		compiled[node.ID] = handler
	}
	return compiled, nil
}
