// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

const internalMessage = "internal server error"

// Map converts repo/infra errors into status errors.
// Errors that already carry a status pass through untouched; anything
// unrecognised becomes Internal with a fixed message so store details
// never reach the client.
func Map(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return status.Error(codes.AlreadyExists, "record already exists")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		return status.Error(codes.Internal, internalMessage)
	}
}

// InvalidArgument creates an InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// NotFound reports a referenced entity that does not exist.
func NotFound(msg string) error {
	return status.Error(codes.NotFound, msg)
}

// AlreadyExists creates an AlreadyExists error.
func AlreadyExists(msg string) error {
	return status.Error(codes.AlreadyExists, msg)
}

// Unauthenticated reports a credential mismatch.
func Unauthenticated(msg string) error {
	return status.Error(codes.Unauthenticated, msg)
}

// PermissionDenied reports a caller that is not allowed to act on a resource.
func PermissionDenied(msg string) error {
	return status.Error(codes.PermissionDenied, msg)
}

// Internal reports an unexpected failure without leaking its cause.
func Internal() error {
	return status.Error(codes.Internal, internalMessage)
}

// Code returns the status code of err after mapping.
func Code(err error) codes.Code {
	return status.Code(Map(err))
}

// Message returns the client-safe message for err.
func Message(err error) string {
	st, _ := status.FromError(Map(err))
	return st.Message()
}

// HTTPStatus translates err into the HTTP status a handler should answer with.
func HTTPStatus(err error) int {
	switch Code(err) {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.OutOfRange, codes.FailedPrecondition:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		return 499 // client closed request
	default:
		return http.StatusInternalServerError
	}
}
