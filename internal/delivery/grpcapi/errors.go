package grpcapi

import (
	"errors"
	"log/slog"

	"github.com/LavaJover/shvark-escrow-service/internal/delivery/grpcapi/mappers"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func codeFor(err error) codes.Code {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return codes.InvalidArgument
	case errors.Is(err, domain.ErrUnauthorized):
		return codes.PermissionDenied
	case errors.Is(err, domain.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return codes.Aborted
	case errors.Is(err, domain.ErrInsufficientFunds):
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

func toStatus(method string, err error) error {
	return statusFor(method, err).Err()
}

// toEscrowStatus carries the escrow as the failed call left it in the status details.
func toEscrowStatus(method string, err error, e *domain.Escrow, f mappers.AmountFormatter) error {
	st := statusFor(method, err)
	if e == nil {
		return st.Err()
	}
	detail, derr := mappers.ToEscrowStruct(e, f)
	if derr != nil {
		return st.Err()
	}
	withDetail, derr := st.WithDetails(detail)
	if derr != nil {
		slog.Warn("failed to attach escrow to grpc status", "method", method, "error", derr)
		return st.Err()
	}
	return withDetail.Err()
}

func statusFor(method string, err error) *status.Status {
	code := codeFor(err)
	if code == codes.Internal {
		slog.Error("grpc call failed", "method", method, "error", err)
		if !errors.Is(err, domain.ErrLedgerInvariant) {
			return status.New(code, "internal error")
		}
	}
	return status.New(code, err.Error())
}
