package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("driver exploded")
	err := Wrap(CodeDependency, cause, "load order")

	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %q", err.Code())
	}
	if err.Unwrap() != cause {
		t.Fatalf("expected cause to be preserved")
	}
	if got := err.Error(); got != "DEPENDENCY_ERROR: load order" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestAsFindsTypedError(t *testing.T) {
	t.Parallel()

	inner := New(CodeStateConflict, "already delivered")
	wrapped := fmt.Errorf("transition: %w", inner)

	typed := As(wrapped)
	if typed == nil || typed.Code() != CodeStateConflict {
		t.Fatalf("expected typed state conflict, got %v", typed)
	}
	if !HasCode(wrapped, CodeStateConflict) {
		t.Fatalf("HasCode should match through wrapping")
	}
	if HasCode(wrapped, CodeNotFound) {
		t.Fatalf("HasCode matched the wrong code")
	}
}

func TestMetadataForUnknownCode(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes must map to 500, got %d", meta.HTTPStatus)
	}
}

func TestWithDetails(t *testing.T) {
	t.Parallel()

	err := New(CodeConflict, "insufficient stock").WithDetails(map[string]any{"product_id": "abc"})
	details, ok := err.Details().(map[string]any)
	if !ok || details["product_id"] != "abc" {
		t.Fatalf("details not carried: %v", err.Details())
	}
}
