package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrUnavailable means the server could not be reached in time.
var ErrUnavailable = errors.New("server unavailable")

func hasMessage(st *status.Status, sentinel error) bool {
	return strings.HasPrefix(st.Message(), sentinel.Error())
}

// mapError converts a gRPC status into the matching common sentinel.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.PermissionDenied:
		return common.ErrorForbidden
	case codes.Unauthenticated:
		if hasMessage(st, common.ErrorInvalidCredentials) {
			return common.ErrorInvalidCredentials
		}
		return common.ErrorUnauthorized
	case codes.AlreadyExists:
		return common.ErrorDuplicateUsername
	case codes.InvalidArgument:
		switch {
		case hasMessage(st, common.ErrorInvalidParent):
			return common.ErrorInvalidParent
		case hasMessage(st, common.ErrorInvalidName):
			return common.ErrorInvalidName
		}
		return fmt.Errorf("%w: %s", common.ErrorValidation, st.Message())
	case codes.FailedPrecondition:
		return common.ErrorCycleDetected
	case codes.Unavailable:
		if hasMessage(st, common.ErrorIO) {
			return common.ErrorIO
		}
		return ErrUnavailable
	case codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.Internal:
		return common.ErrorInternal
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
