// Package ports defines the interfaces that connect the execution
// engine's application core to its infrastructure adapters, following
// hexagonal architecture. The application layer depends only on these
// interfaces, never on concrete infrastructure.
package ports

import (
	"context"

	"github.com/ahrav/go-vigil/internal/domain"
)

// ExecutionState is the read-only view of a run the executor hands to a
// node handler: the run input plus the outputs of the node's upstream
// neighbors, resolved by following the node's incoming followed edges.
type ExecutionState interface {
	// Input returns the run's input frame.
	Input() domain.RunInput

	// Upstream returns the node's upstream contributions in incoming
	// edge declaration order. Payloads are clones; mutating them does
	// not affect earlier results.
	Upstream() []domain.Upstream
}

// NodeHandler executes one node of a workflow graph. One implementation
// exists per node kind; instances are bound to a specific node and its
// validated configuration when the graph is compiled, freshly per run.
//
// An instance may carry state scoped to its own node, such as an
// alert's trigger window, but never state about other nodes; that lives
// in the ExecutionState. Execute is called from a single goroutine per
// run.
type NodeHandler interface {
	// Name returns the id of the node this handler is bound to.
	Name() string

	// Kind returns the node kind this handler implements.
	Kind() domain.NodeKind

	// Execute runs the node against the given state and returns its
	// output payload. A returned error marks the node failed and halts
	// the run; remaining nodes are reported as skipped.
	//
	// The context carries the caller's timeout and cancellation.
	// Handlers performing external calls must respect it.
	Execute(ctx context.Context, state ExecutionState) (domain.Payload, error)

	// Validate checks the handler's configuration without executing.
	// It returns nil if the configuration is valid.
	Validate() error
}

// HandlerFactory creates a handler for one node from its typed,
// validated configuration. Factories capture the infrastructure
// collaborators they need, such as the detection client, at
// registration time.
type HandlerFactory func(node domain.Node) (NodeHandler, error)

// HandlerRegistry creates node handlers by kind. The registry decouples
// graph compilation from concrete handler implementations and supports
// registering custom kinds alongside the built-in set.
type HandlerRegistry interface {
	// RegisterFactory associates a node kind with a handler factory.
	// Registering a kind twice replaces the earlier factory.
	RegisterFactory(kind domain.NodeKind, factory HandlerFactory) error

	// CreateHandler builds the handler for one node using the factory
	// registered for its kind.
	CreateHandler(node domain.Node) (NodeHandler, error)

	// SupportedKinds returns the kinds with registered factories.
	SupportedKinds() []domain.NodeKind
}
