package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errorCodes maps service sentinels to status codes. The status message is
// the sentinel's text so clients can tell sentinels sharing a code apart.
var errorCodes = []struct {
	err  error
	code codes.Code
}{
	{common.ErrorNotFound, codes.NotFound},
	{common.ErrorForbidden, codes.PermissionDenied},
	{common.ErrorUnauthorized, codes.Unauthenticated},
	{common.ErrorInvalidCredentials, codes.Unauthenticated},
	{common.ErrorDuplicateUsername, codes.AlreadyExists},
	{common.ErrorInvalidParent, codes.InvalidArgument},
	{common.ErrorInvalidName, codes.InvalidArgument},
	{common.ErrorValidation, codes.InvalidArgument},
	{common.ErrorCycleDetected, codes.FailedPrecondition},
	{common.ErrorIO, codes.Unavailable},
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return status.Error(e.code, e.err.Error())
		}
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, common.ErrorInternal.Error())
}
