package application

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-vigil/internal/domain"
)

// WorkflowConfig is the serialized form of a workflow as the visual
// editor emits it. The loader decodes this document, validates it, and
// compiles it into a domain.Graph with typed per-kind node configs.
type WorkflowConfig struct {
	// Version specifies the document schema version using semantic
	// versioning to keep older editor payloads loadable.
	Version string `yaml:"version" json:"version" validate:"required,semver"`
	// Metadata carries descriptive information about the workflow.
	Metadata WorkflowMetadata `yaml:"metadata" json:"metadata" validate:"required"`
	// Nodes lists the workflow's nodes in editor declaration order.
	// Order matters: the execution order resolver breaks ties by it.
	Nodes []NodeDocument `yaml:"nodes" json:"nodes" validate:"required,min=1,dive"`
	// Edges lists the directed connections between nodes.
	Edges []EdgeDocument `yaml:"edges" json:"edges" validate:"dive"`
}

// WorkflowMetadata provides descriptive information about a workflow
// for organization and discovery.
type WorkflowMetadata struct {
	// Name is the human-readable workflow identifier.
	Name string `yaml:"name" json:"name" validate:"required,min=1,max=255"`
	// Description explains the workflow's purpose.
	Description string `yaml:"description,omitempty" json:"description,omitempty" validate:"max=1000"`
	// Tags enable filtering and grouping of workflows.
	Tags []string `yaml:"tags,omitempty" json:"tags,omitempty" validate:"max=20,dive,min=1,max=50"`
	// Labels are arbitrary key-value pairs for external integrations.
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty" validate:"max=50"`
}

// NodeDocument is the serialized form of one node. Its config is kept
// as raw YAML here and decoded into the kind-specific config type
// during compilation.
type NodeDocument struct {
	// ID uniquely identifies the node within the workflow.
	ID string `yaml:"id" json:"id" validate:"required,min=1,max=100"`
	// Kind selects the node's behavior and config schema.
	Kind string `yaml:"kind" json:"kind" validate:"required,oneof=videoSource algorithm condition function roiFilter alert record"`
	// Config contains kind-specific configuration as flexible YAML
	// validated against the kind's config type at compile time.
	Config yaml.Node `yaml:"config,omitempty" json:"-"`
}

// EdgeDocument is the serialized form of one edge.
type EdgeDocument struct {
	// Source is the upstream node id.
	Source string `yaml:"source" json:"source" validate:"required"`
	// Target is the downstream node id.
	Target string `yaml:"target" json:"target" validate:"required"`
	// SourcePort names the output port on the source node; condition
	// nodes emit on "yes" or "no", other kinds leave it empty.
	SourcePort string `yaml:"source_port,omitempty" json:"source_port,omitempty"`
}

// DecodeNodeConfig decodes a node document's raw config into the typed
// config for its kind. An absent config decodes to the kind's zero
// config, leaving required-field enforcement to graph validation.
func DecodeNodeConfig(kind domain.NodeKind, raw yaml.Node) (domain.NodeConfig, error) {
	decode := func(out any) error {
		if raw.IsZero() {
			return nil
		}
		if err := raw.Decode(out); err != nil {
			return fmt.Errorf("decoding %s config: %w", kind, err)
		}
		return nil
	}

	switch kind {
	case domain.KindVideoSource:
		var cfg domain.VideoSourceConfig
		if err := decode(&cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	case domain.KindAlgorithm:
		var cfg domain.AlgorithmConfig
		if err := decode(&cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	case domain.KindCondition:
		var cfg domain.ConditionConfig
		if err := decode(&cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	case domain.KindFunction:
		var cfg domain.FunctionConfig
		if err := decode(&cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	case domain.KindRoiFilter:
		var cfg domain.RoiFilterConfig
		if err := decode(&cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	case domain.KindAlert:
		var cfg domain.AlertConfig
		if err := decode(&cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	case domain.KindRecord:
		var cfg domain.RecordConfig
		if err := decode(&cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownNodeKind, kind)
}
