package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

/*
 * gRPC bindings.
 *
 * The service exchanges google.protobuf.Struct messages, so no generated
 * code is needed: the descriptor below is what protoc-gen-go-grpc would emit
 * for
 *
 *	service ValidationService {
 *	  rpc Validate(google.protobuf.Struct) returns (google.protobuf.Struct);
 *	  rpc Describe(google.protobuf.Struct) returns (google.protobuf.Struct);
 *	}
 */

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "checkpoint.v1.ValidationService"

const (
	validateMethod = "/" + ServiceName + "/Validate"
	describeMethod = "/" + ServiceName + "/Describe"
)

// ValidationServer is the server API for ValidationService.
type ValidationServer interface {
	Validate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Describe(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var _ ValidationServer = (*ValidationService)(nil)

// RegisterValidationServer registers srv on s.
func RegisterValidationServer(s grpc.ServiceRegistrar, srv ValidationServer) {
	s.RegisterService(&validationServiceDesc, srv)
}

var validationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ValidationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Validate", Handler: validateHandler},
		{MethodName: "Describe", Handler: describeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "checkpoint/v1/validation.proto",
}

func validateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ValidationServer).Validate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: validateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ValidationServer).Validate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func describeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ValidationServer).Describe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: describeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ValidationServer).Describe(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ValidationClient calls a remote ValidationService.
type ValidationClient struct {
	cc grpc.ClientConnInterface
}

// NewValidationClient creates a client over cc.
func NewValidationClient(cc grpc.ClientConnInterface) *ValidationClient {
	return &ValidationClient{cc: cc}
}

// Validate validates record against the named schema.
func (c *ValidationClient) Validate(ctx context.Context, schema string, record map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{FieldSchema: schema, FieldRecord: record})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, validateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Describe returns rule statistics for the named schema.
func (c *ValidationClient) Describe(ctx context.Context, schema string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{FieldSchema: schema})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, describeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
