package api

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/moonangle/internal/imagemeta"
	"github.com/signalsfoundry/moonangle/internal/logging"
	"github.com/signalsfoundry/moonangle/model"
)

// Engine is the monitor surface the service exposes. *monitor.Monitor
// satisfies it.
type Engine interface {
	ID() string
	Body() model.Body
	Config() model.MonitorConfig
	Reconfigure(func(*model.MonitorConfig, *model.Body) error) (model.MonitorConfig, model.Body, error)
	Snapshot() model.MonitorState
	Evaluate(ctx context.Context) (model.MonitorState, error)
	Validate(ctx context.Context) []string
	Watching() bool
	String() string
}

// MonitorService implements MonitorServiceServer on top of an Engine.
type MonitorService struct {
	engine Engine
	log    logging.Logger
}

// NewMonitorService returns a service bound to engine.
func NewMonitorService(engine Engine, log logging.Logger) *MonitorService {
	if log == nil {
		log = logging.Noop()
	}
	return &MonitorService{engine: engine, log: log}
}

var _ MonitorServiceServer = (*MonitorService)(nil)

// GetState returns the last committed state without recomputing it.
func (s *MonitorService) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.encode(stateFields(s.engine.Snapshot(), s.engine.Watching()))
}

// Evaluate recomputes the state now. A missing target or observer maps to
// FailedPrecondition.
func (s *MonitorService) Evaluate(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	state, err := s.engine.Evaluate(ctx)
	if err != nil {
		s.logger(ctx).Warn(ctx, "evaluation failed", logging.Err(err))
		return nil, ToStatusError(err)
	}
	return s.encode(stateFields(state, s.engine.Watching()))
}

// GetConfig returns the active configuration record and reference body.
func (s *MonitorService) GetConfig(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.encode(s.configFields(s.engine.Config(), s.engine.Body()))
}

// Configure applies a partial update. Values are clamped, not rejected;
// unknown keys, wrong types and unparseable names are InvalidArgument and
// leave the configuration untouched.
func (s *MonitorService) Configure(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	applied, body, err := s.engine.Reconfigure(func(cfg *model.MonitorConfig, body *model.Body) error {
		for key, v := range req.GetFields() {
			if err := applyConfigField(cfg, body, key, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, ToStatusError(err)
	}

	s.logger(ctx).Info(ctx, "monitor reconfigured",
		logging.String("body", body.String()),
		logging.Float("separation_limit", applied.SeparationLimit),
		logging.String("operator", applied.ComparisonOperator.String()),
		logging.Bool("lorentzian", applied.LorentzianEnabled),
		logging.Int("lorentzian_width_days", applied.LorentzianWidthDays),
	)
	return s.encode(s.configFields(applied, body))
}

func applyConfigField(cfg *model.MonitorConfig, body *model.Body, key string, v *structpb.Value) error {
	var err error
	switch key {
	case "separationLimit":
		cfg.SeparationLimit, err = numberField(key, v)
	case "comparisonOperator":
		var name string
		if name, err = stringField(key, v); err == nil {
			cfg.ComparisonOperator, err = model.ParseComparisonOperator(name)
		}
	case "lorentzianEnabled":
		cfg.LorentzianEnabled, err = boolField(key, v)
	case "lorentzianWidthDays":
		var days float64
		if days, err = numberField(key, v); err == nil {
			cfg.LorentzianWidthDays = int(model.ClampLorentzianWidthDays(days))
		}
	case "body":
		var name string
		if name, err = stringField(key, v); err == nil {
			*body, err = model.ParseBody(name)
		}
	default:
		err = fmt.Errorf("%w: unknown field %q", ErrInvalidArgument, key)
	}
	return err
}

// Validate lists the issues that currently prevent a meaningful evaluation.
func (s *MonitorService) Validate(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	issues := s.engine.Validate(ctx)
	return s.encode(map[string]interface{}{
		"valid":  len(issues) == 0,
		"issues": stringList(issues),
	})
}

// Patterns lists the filename tokens and, once a separation has been
// computed, their current values.
func (s *MonitorService) Patterns(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	patterns := make([]interface{}, 0, 2)
	for _, p := range imagemeta.Patterns() {
		patterns = append(patterns, map[string]interface{}{
			"key":         p.Key,
			"description": p.Description,
			"category":    p.Category,
		})
	}

	values := map[string]interface{}{}
	if state := s.engine.Snapshot(); state.Evaluated && state.TargetAttached && len(state.Issues) == 0 {
		tokens := imagemeta.Annotation{
			SunSeparation:  state.SunSeparation,
			MoonSeparation: state.MoonSeparation,
		}.Tokens()
		for k, v := range tokens {
			values[k] = v
		}
	}

	return s.encode(map[string]interface{}{
		"patterns": patterns,
		"values":   values,
	})
}

func (s *MonitorService) configFields(cfg model.MonitorConfig, body model.Body) map[string]interface{} {
	return map[string]interface{}{
		"body":                body.String(),
		"separationLimit":     cfg.SeparationLimit,
		"comparisonOperator":  cfg.ComparisonOperator.String(),
		"lorentzianEnabled":   cfg.LorentzianEnabled,
		"lorentzianWidthDays": float64(cfg.LorentzianWidthDays),
		"summary":             s.engine.String(),
	}
}

func (s *MonitorService) encode(fields map[string]interface{}) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, ToStatusError(fmt.Errorf("encode response: %w", err))
	}
	return out, nil
}

func (s *MonitorService) logger(ctx context.Context) logging.Logger {
	if l := logging.LoggerFromContext(ctx); l != nil {
		return l
	}
	return s.log
}

func stateFields(state model.MonitorState, watching bool) map[string]interface{} {
	fields := map[string]interface{}{
		"monitorId":        state.MonitorID,
		"body":             state.Body.String(),
		"watching":         watching,
		"targetAttached":   state.TargetAttached,
		"evaluated":        state.Evaluated,
		"satisfied":        state.Satisfied,
		"shouldContinue":   state.ShouldContinue(),
		"operator":         state.Operator.String(),
		"effectiveLimit":   state.EffectiveLimit,
		"actualSeparation": state.ActualSeparation,
		"sunSeparation":    state.SunSeparation,
		"moonSeparation":   state.MoonSeparation,
		"issues":           stringList(state.Issues),
	}
	if state.TargetAttached {
		fields["target"] = map[string]interface{}{
			"raHours": state.Target.RAHours,
			"decDeg":  state.Target.DecDeg,
			"epoch":   state.Target.Epoch.String(),
		}
	}
	if !state.EvaluatedAt.IsZero() {
		fields["evaluatedAt"] = state.EvaluatedAt.UTC().Format(time.RFC3339Nano)
	}
	return fields
}

func stringList(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func numberField(key string, v *structpb.Value) (float64, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidArgument, key)
	}
	return n.NumberValue, nil
}

func stringField(key string, v *structpb.Value) (string, error) {
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArgument, key)
	}
	return s.StringValue, nil
}

func boolField(key string, v *structpb.Value) (bool, error) {
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("%w: %s must be a bool", ErrInvalidArgument, key)
	}
	return b.BoolValue, nil
}
