package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/artisanmarket/inventory/internal/pkg/errors"
)

func TestWithGRPCErrorHandling_TransientError(t *testing.T) {
	tests := []struct {
		name    string
		code    codes.Code
		message string
	}{
		{name: "ResourceExhausted", code: codes.ResourceExhausted, message: "quota exceeded"},
		{name: "FailedPrecondition", code: codes.FailedPrecondition, message: "resource locked"},
		{name: "Aborted", code: codes.Aborted, message: "transaction aborted"},
		{name: "DeadlineExceeded", code: codes.DeadlineExceeded, message: "deadline exceeded"},
		{name: "Unavailable", code: codes.Unavailable, message: "service unavailable"},
		{name: "Internal", code: codes.Internal, message: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := WithGRPCErrorHandling()
			activity := func(ctx context.Context, input []byte) ([]byte, error) {
				return nil, status.Error(tt.code, tt.message)
			}

			_, err := middleware(activity)(context.Background(), []byte{})

			assert.Error(t, err)
			customErr, ok := err.(*errors.CustomError)
			assert.True(t, ok)
			assert.True(t, customErr.IsTransient())
		})
	}
}

func TestWithGRPCErrorHandling_PermanentError(t *testing.T) {
	tests := []struct {
		name    string
		code    codes.Code
		message string
	}{
		{name: "InvalidArgument", code: codes.InvalidArgument, message: "invalid input"},
		{name: "NotFound", code: codes.NotFound, message: "resource not found"},
		{name: "AlreadyExists", code: codes.AlreadyExists, message: "resource already exists"},
		{name: "PermissionDenied", code: codes.PermissionDenied, message: "permission denied"},
		{name: "Unauthenticated", code: codes.Unauthenticated, message: "unauthenticated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := WithGRPCErrorHandling()
			activity := func(ctx context.Context, input []byte) ([]byte, error) {
				return nil, status.Error(tt.code, tt.message)
			}

			_, err := middleware(activity)(context.Background(), []byte{})

			assert.Error(t, err)
			customErr, ok := err.(*errors.CustomError)
			assert.True(t, ok)
			assert.True(t, customErr.IsPermanent())
		})
	}
}

func TestWithGRPCErrorHandling_DomainErrorPassesThrough(t *testing.T) {
	middleware := WithGRPCErrorHandling()
	domainErr := errors.NewInsufficientStockError("prod-1", 20, 10)
	activity := func(ctx context.Context, input []byte) ([]byte, error) {
		return nil, domainErr
	}

	_, err := middleware(activity)(context.Background(), []byte{})

	assert.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInsufficientStock))
}

func TestWithGRPCErrorHandling_Success(t *testing.T) {
	middleware := WithGRPCErrorHandling()
	activity := func(ctx context.Context, input []byte) ([]byte, error) {
		return []byte(`{"ok":true}`), nil
	}

	output, err := middleware(activity)(context.Background(), []byte{})

	assert.NoError(t, err)
	assert.Equal(t, []byte(`{"ok":true}`), output)
}

func TestIsTransientGRPCError(t *testing.T) {
	assert.True(t, IsTransientGRPCError(status.Error(codes.Unavailable, "down")))
	assert.False(t, IsTransientGRPCError(status.Error(codes.NotFound, "missing")))
	assert.False(t, IsTransientGRPCError(nil))
}
