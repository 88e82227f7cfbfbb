package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors for graph and execution operations.
var (
	// ErrUnknownNodeKind indicates a node kind outside the supported set.
	ErrUnknownNodeKind = errors.New("unknown node kind")

	// ErrMissingConfig indicates a node without a decoded configuration.
	ErrMissingConfig = errors.New("node configuration missing")

	// ErrConfigKindMismatch indicates a node whose configuration type
	// does not match its declared kind.
	ErrConfigKindMismatch = errors.New("node configuration does not match node kind")
)

// ValidationIssueCode identifies a class of graph validation failure.
// Codes are stable identifiers consumed by the editor to highlight the
// offending nodes and edges.
type ValidationIssueCode string

// Graph validation issue codes.
const (
	// IssueMissingVideoSource: the graph has no video source node.
	IssueMissingVideoSource ValidationIssueCode = "MissingVideoSource"

	// IssueMissingAlgorithm: the graph has no algorithm node.
	IssueMissingAlgorithm ValidationIssueCode = "MissingAlgorithm"

	// IssueCycleDetected: the graph contains a directed cycle.
	IssueCycleDetected ValidationIssueCode = "CycleDetected"

	// IssueDanglingEdge: an edge references a nonexistent node id.
	IssueDanglingEdge ValidationIssueCode = "DanglingEdge"

	// IssueDuplicateNodeID: two nodes share an id.
	IssueDuplicateNodeID ValidationIssueCode = "DuplicateNodeID"

	// IssueUnknownNodeKind: a node declares an unsupported kind.
	IssueUnknownNodeKind ValidationIssueCode = "UnknownNodeKind"

	// IssueInvalidConfig: a node's kind-specific configuration is invalid.
	IssueInvalidConfig ValidationIssueCode = "InvalidConfig"

	// IssueUnresolvableAlgorithm: an algorithm node references an
	// identifier the catalog cannot resolve.
	IssueUnresolvableAlgorithm ValidationIssueCode = "UnresolvableAlgorithm"

	// IssueInvalidConditionPort: an edge leaving a condition node names
	// a port other than "yes" or "no".
	IssueInvalidConditionPort ValidationIssueCode = "InvalidConditionPort"

	// IssueConditionPortConflict: a condition node has more than one
	// outgoing edge on the same port.
	IssueConditionPortConflict ValidationIssueCode = "ConditionPortConflict"

	// IssueFunctionArity: a function node's incoming detection inputs
	// do not match its metric's arity.
	IssueFunctionArity ValidationIssueCode = "FunctionArity"
)

// ValidationIssue is a single problem found during graph validation.
type ValidationIssue struct {
	// Code classifies the problem.
	Code ValidationIssueCode `json:"code"`

	// NodeID names the offending node, when the problem is node-scoped.
	NodeID string `json:"node_id,omitempty"`

	// Message is a human-readable description of the problem.
	Message string `json:"message"`
}

func (i ValidationIssue) String() string {
	if i.NodeID != "" {
		return fmt.Sprintf("%s (node %q): %s", i.Code, i.NodeID, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Code, i.Message)
}

// ValidationError reports that a graph is structurally invalid. It is
// raised before any node executes and carries every issue found, so the
// editor can surface all problems in one pass rather than one at a time.
type ValidationError struct {
	// Entity names what failed validation, typically the workflow name.
	Entity string

	// Issues lists every validation problem found.
	Issues []ValidationIssue
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("graph validation failed for %s: %s", e.Entity, e.Issues[0])
	}
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return fmt.Sprintf("graph validation failed for %s with %d issues: %s",
		e.Entity, len(e.Issues), strings.Join(msgs, "; "))
}

// HasCode reports whether any issue carries the given code.
func (e *ValidationError) HasCode(code ValidationIssueCode) bool {
	for _, issue := range e.Issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

// NewValidationError creates a ValidationError for the given entity.
func NewValidationError(entity string, issues []ValidationIssue) *ValidationError {
	return &ValidationError{Entity: entity, Issues: issues}
}
