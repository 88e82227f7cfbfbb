package handlers

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-vigil/internal/domain"
	"github.com/ahrav/go-vigil/internal/ports"
)

var _ ports.NodeHandler = (*AlertHandler)(nil)

// AlertHandler decides whether an alert would fire and why. No
// notification is delivered in test mode; the handler records the
// decision so report readers see exactly what production would do.
//
// The upstream signal is positive when any followed input is active:
// detection-bearing nodes contribute a positive sample when they hold
// at least one detection, functions contribute their comparison
// outcome, and a condition contributes a positive sample simply by
// being followed, since reaching the alert means the branch was taken.
//
// With a trigger window enabled the signal feeds the rolling window and
// the window decides; a single-image run seeds exactly one sample. With
// the window disabled the signal alone decides. A trigger inside the
// cooldown of a previous one is recorded as suppressed.
//
// The window and cooldown state live on the handler instance, which the
// engine creates fresh per compiled run. In a long-lived deployment the
// same instance observes one sample per analyzed frame.
type AlertHandler struct {
	// name is the id of the node this handler is bound to.
	name string
	// config contains the validated configuration parameters.
	config domain.AlertConfig
	// window gates triggering when the config enables it, nil otherwise.
	window *domain.TriggerWindow
	// cooldown suppresses re-triggering after a trigger.
	cooldown *domain.CooldownTracker
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// NewAlertHandler creates an alert handler with validated configuration.
func NewAlertHandler(id string, config domain.AlertConfig) (*AlertHandler, error) {
	if id == "" {
		return nil, ErrEmptyNodeID
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	var window *domain.TriggerWindow
	if config.Window != nil && config.Window.Enabled {
		window = domain.NewTriggerWindow(*config.Window)
	}

	return &AlertHandler{
		name:     id,
		config:   config,
		window:   window,
		cooldown: domain.NewCooldownTracker(time.Duration(config.CooldownSeconds) * time.Second),
		tracer:   otel.Tracer("alert-handler"),
	}, nil
}

// Name returns the id of the node this handler is bound to.
func (alh *AlertHandler) Name() string { return alh.name }

// Kind returns the node kind this handler implements.
func (alh *AlertHandler) Kind() domain.NodeKind { return domain.KindAlert }

// Execute evaluates the alert decision for this run.
func (alh *AlertHandler) Execute(ctx context.Context, state ports.ExecutionState) (domain.Payload, error) {
	_, span := alh.tracer.Start(ctx, "AlertHandler.Execute",
		trace.WithAttributes(
			attribute.String("node.kind", string(domain.KindAlert)),
			attribute.String("node.id", alh.name),
			attribute.Bool("alert.window_enabled", alh.window != nil),
			attribute.Int("alert.cooldown_seconds", alh.config.CooldownSeconds),
		),
	)
	defer span.End()

	signal := false
	for _, u := range state.Upstream() {
		if upstreamActivation(u) {
			signal = true
			break
		}
	}

	triggered := signal
	reason := "no upstream signal"
	if signal {
		reason = "upstream signal active"
	}

	if alh.window != nil {
		alh.window.Observe(signal)
		triggered = alh.window.Triggered()
		if triggered {
			reason = fmt.Sprintf("trigger window satisfied (%s)", alh.config.Window.Mode)
		} else {
			reason = fmt.Sprintf("trigger window not satisfied (%s)", alh.config.Window.Mode)
		}
	}

	suppressed := false
	now := time.Now()
	if triggered {
		if alh.cooldown.Allow(now) {
			alh.cooldown.MarkTriggered(now)
		} else {
			triggered = false
			suppressed = true
			reason = fmt.Sprintf("suppressed by %ds cooldown", alh.config.CooldownSeconds)
		}
	}

	span.SetAttributes(
		attribute.Bool("alert.signal", signal),
		attribute.Bool("alert.triggered", triggered),
		attribute.Bool("alert.suppressed", suppressed),
	)

	return domain.Payload{
		Alert: &domain.AlertOutcome{
			Triggered:  triggered,
			Suppressed: suppressed,
			Reason:     reason,
		},
	}, nil
}

// upstreamActivation reports whether one followed upstream contribution
// counts as a positive alert signal.
func upstreamActivation(u domain.Upstream) bool {
	switch u.Kind {
	case domain.KindVideoSource:
		return true
	case domain.KindAlgorithm, domain.KindRoiFilter:
		return u.Payload.DetectionCount > 0
	case domain.KindCondition:
		// A followed condition edge means its port was taken.
		return true
	case domain.KindFunction:
		return u.Payload.Function != nil && u.Payload.Function.Met
	case domain.KindAlert:
		return u.Payload.Alert != nil && u.Payload.Alert.Triggered
	case domain.KindRecord:
		return u.Payload.Recording != nil && u.Payload.Recording.Requested
	}
	return false
}

// Validate verifies the handler is properly configured without executing.
func (alh *AlertHandler) Validate() error {
	if err := validate.Struct(alh.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// CreateAlertHandler builds an alert handler from an untyped node
// configuration. It is the factory the handler registry registers for
// the alert kind.
func CreateAlertHandler(id string, config domain.NodeConfig) (ports.NodeHandler, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: alert node %q", domain.ErrMissingConfig, id)
	}
	cfg, ok := config.(domain.AlertConfig)
	if !ok {
		return nil, fmt.Errorf("%w: alert node %q got %T", domain.ErrConfigKindMismatch, id, config)
	}
	return NewAlertHandler(id, cfg)
}
