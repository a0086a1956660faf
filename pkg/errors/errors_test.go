package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeRoleMismatch, status: http.StatusForbidden, publicMsg: "role mismatch", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", retryable: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeDuplicateParticipation, status: http.StatusConflict, publicMsg: "vendor already participates in this order", detailsOK: true},
		{code: CodeCapacityExceeded, status: http.StatusConflict, publicMsg: "order capacity exceeded", detailsOK: true},
		{code: CodeTimeout, status: http.StatusGatewayTimeout, publicMsg: "operation timed out", retryable: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "too many requests", retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeForbidden, "no entry"))
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestWrapStoreClassifiesFailures(t *testing.T) {
	if WrapStore(nil, "noop") != nil {
		t.Fatalf("nil error should stay nil")
	}

	typed := New(CodeNotFound, "order not found")
	if got := WrapStore(typed, "load order"); got != error(typed) {
		t.Fatalf("typed errors must pass through unchanged")
	}

	timeout := WrapStore(fmt.Errorf("query: %w", context.DeadlineExceeded), "load order")
	if !IsCode(timeout, CodeTimeout) {
		t.Fatalf("expected timeout code, got %v", timeout)
	}
	if !stdErrors.Is(timeout, context.DeadlineExceeded) {
		t.Fatalf("timeout should preserve the cause")
	}

	transport := WrapStore(stdErrors.New("connection refused"), "load order")
	if !IsCode(transport, CodeDependency) {
		t.Fatalf("expected dependency code, got %v", transport)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(New(CodeDependency, "db down")) {
		t.Fatalf("dependency errors are retryable")
	}
	if !IsRetryable(New(CodeConflict, "version moved")) {
		t.Fatalf("conflicts are retryable")
	}
	if IsRetryable(New(CodeCapacityExceeded, "full")) {
		t.Fatalf("capacity errors are not retryable")
	}
	if IsRetryable(stdErrors.New("plain")) {
		t.Fatalf("untyped errors are not retryable")
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(fmt.Errorf("query: %w", context.DeadlineExceeded), "load order"); got == nil || got.Code() != CodeTimeout {
		t.Fatalf("expected timeout for deadline, got %v", got)
	}
	if got := FromContext(context.Canceled, "load order"); got == nil || got.Message() != "load order: canceled" {
		t.Fatalf("expected canceled timeout, got %v", got)
	}
	if got := FromContext(stdErrors.New("boom"), "load order"); got != nil {
		t.Fatalf("expected nil for plain error, got %v", got)
	}
}
