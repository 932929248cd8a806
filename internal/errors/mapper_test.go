package errors_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/tinderito/internal/errors"
)

func TestMap(t *testing.T) {
	cases := []struct {
		name string
		in   error
		code codes.Code
		http int
	}{
		{"record not found", fmt.Errorf("find: %w", gorm.ErrRecordNotFound), codes.NotFound, http.StatusNotFound},
		{"duplicate key", gorm.ErrDuplicatedKey, codes.AlreadyExists, http.StatusConflict},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded, http.StatusGatewayTimeout},
		{"canceled", context.Canceled, codes.Canceled, 499},
		{"unknown", errors.New("dial tcp 10.0.0.1:3306: connection refused"), codes.Internal, http.StatusInternalServerError},
		{"validation", svcErr.InvalidArgument("userId is required"), codes.InvalidArgument, http.StatusBadRequest},
		{"auth", svcErr.Unauthenticated("wrong password"), codes.Unauthenticated, http.StatusUnauthorized},
		{"forbidden", svcErr.PermissionDenied("not a member"), codes.PermissionDenied, http.StatusForbidden},
		{"conflict", svcErr.AlreadyExists("username already taken"), codes.AlreadyExists, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, svcErr.Code(tc.in))
			assert.Equal(t, tc.http, svcErr.HTTPStatus(tc.in))
		})
	}
}

func TestMapDoesNotLeakInternalDetail(t *testing.T) {
	err := errors.New("pq: password authentication failed for user root")
	assert.Equal(t, "internal server error", svcErr.Message(err))
	assert.NotContains(t, svcErr.Map(err).Error(), "password authentication")
}

func TestMapKeepsStatusMessage(t *testing.T) {
	assert.Equal(t, "username already taken", svcErr.Message(svcErr.AlreadyExists("username already taken")))
	assert.Nil(t, svcErr.Map(nil))
}
