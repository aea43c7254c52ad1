package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/checkpoint/internal/core/schemafile"
	"github.com/solatis/checkpoint/internal/rules"
	"github.com/solatis/checkpoint/internal/types"
)

// toStatus maps engine errors onto gRPC status codes.
// Unknown schemas map to NOT_FOUND.
// Oversized or too-deep records map to INVALID_ARGUMENT.
// Lookup store failures map to UNAVAILABLE.
// Strict lookups without a store map to FAILED_PRECONDITION.
// Context timeouts map to DEADLINE_EXCEEDED.
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, schemafile.ErrUnknownSchema):
		code = codes.NotFound
	case errors.Is(err, types.ErrPathTooDeep), errors.Is(err, types.ErrRecordTooLarge):
		code = codes.InvalidArgument
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, rules.ErrLookupFailed):
		code = codes.Unavailable
	case errors.Is(err, rules.ErrProviderMissing):
		code = codes.FailedPrecondition
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}
