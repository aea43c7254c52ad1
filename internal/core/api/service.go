// Package api provides the gRPC validation service.
package api

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/checkpoint/internal/core/metrics"
	"github.com/solatis/checkpoint/internal/core/schemafile"
	"github.com/solatis/checkpoint/internal/rules"
)

// Request and response field names.
const (
	FieldSchema    = "schema"
	FieldRecord    = "record"
	FieldPassed    = "passed"
	FieldErrors    = "errors"
	FieldValidated = "validated"
	FieldRunID     = "run_id"
	FieldFields    = "fields"
)

// ValidationService validates records against the schemas of one schema file.
// Thin orchestration layer delegating to the rules and schemafile packages.
type ValidationService struct {
	schemas *schemafile.Set
	metrics *metrics.Collector
	timeout time.Duration
	logger  *zap.Logger
}

// NewValidationService creates a service. collector may be nil; a zero
// timeout leaves request deadlines to the caller.
func NewValidationService(schemas *schemafile.Set, collector *metrics.Collector, timeout time.Duration, logger *zap.Logger) (*ValidationService, error) {
	if schemas == nil {
		return nil, fmt.Errorf("schemas cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationService{
		schemas: schemas,
		metrics: collector,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Validate runs the named schema over the request record.
//
// Request:  {"schema": "<name>", "record": {...}}
// Response: {"passed": bool, "errors": {field: [msg]}, "validated": {...}, "run_id": "<uuid>"}
func (s *ValidationService) Validate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	entry, err := s.schemaFor(req)
	if err != nil {
		return nil, err
	}

	var record map[string]any
	if v, ok := req.GetFields()[FieldRecord]; ok {
		switch kind := v.GetKind().(type) {
		case *structpb.Value_StructValue:
			record = kind.StructValue.AsMap()
		case *structpb.Value_NullValue:
		default:
			return nil, status.Error(codes.InvalidArgument, "record must be an object")
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := entry.Validator.Validate(ctx, record)
	if s.metrics != nil {
		s.metrics.ObserveValidation(entry.Name, result, err, time.Since(start))
	}
	if err != nil {
		s.logger.Warn("validation error", zap.String("schema", entry.Name), zap.Error(err))
		return nil, toStatus(err)
	}

	resp, err := structpb.NewStruct(resultFields(result))
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("failed to encode result: %v", err))
	}
	return resp, nil
}

// Describe returns per-field rule statistics of the named schema.
//
// Request:  {"schema": "<name>"}
// Response: {"schema": "<name>", "fields": {field: {cheap, medium, expensive, optional, rule_types}}}
func (s *ValidationService) Describe(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	entry, err := s.schemaFor(req)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any, entry.Schema.Len())
	for field, st := range entry.Schema.Stats() {
		ruleTypes := make([]any, len(st.RuleTypes))
		for i, name := range st.RuleTypes {
			ruleTypes[i] = name
		}
		fields[field] = map[string]any{
			"cheap":      st.Cheap,
			"medium":     st.Medium,
			"expensive":  st.Expensive,
			"optional":   st.Optional,
			"rule_types": ruleTypes,
		}
	}

	resp, err := structpb.NewStruct(map[string]any{
		FieldSchema: entry.Name,
		FieldFields: fields,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("failed to encode stats: %v", err))
	}
	return resp, nil
}

// Schemas lists the served schema names.
func (s *ValidationService) Schemas() []string { return s.schemas.Names() }

func (s *ValidationService) schemaFor(req *structpb.Struct) (*schemafile.Entry, error) {
	name := req.GetFields()[FieldSchema].GetStringValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "schema is required")
	}
	entry, err := s.schemas.Get(name)
	if err != nil {
		return nil, toStatus(err)
	}
	return entry, nil
}

// resultFields converts a result into structpb-compatible values.
func resultFields(r *rules.Result) map[string]any {
	errs := r.Errors()
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	errMap := make(map[string]any, len(errs))
	for _, f := range fields {
		msgs := make([]any, len(errs[f]))
		for i, m := range errs[f] {
			msgs[i] = m
		}
		errMap[f] = msgs
	}

	return map[string]any{
		FieldPassed:    r.Passes(),
		FieldErrors:    errMap,
		FieldValidated: r.Validated(),
		FieldRunID:     r.RunID().String(),
	}
}
