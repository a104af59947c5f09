package api

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/moonangle/model"
)

// ErrInvalidArgument is used for malformed request payloads.
var ErrInvalidArgument = errors.New("invalid argument")

// ToStatusError maps monitor errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, model.ErrNoTarget),
		errors.Is(err, model.ErrObserverUnknown):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, model.ErrUnknownOperator),
		errors.Is(err, model.ErrUnknownBody):
		return status.Error(codes.InvalidArgument, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
