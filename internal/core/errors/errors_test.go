package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsCode(t *testing.T) {
	err := New(CodeTimeout, "analysis budget exceeded")
	if !IsCode(err, CodeTimeout) {
		t.Error("Expected CodeTimeout")
	}
	if IsCode(err, CodeParseFailure) {
		t.Error("Did not expect CodeParseFailure")
	}
	if IsCode(errors.New("plain"), CodeTimeout) {
		t.Error("Plain errors should not match any code")
	}
}

func TestWrapUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := Wrap(inner, CodeCacheUnavailable, "sqlite tier write failed")

	if !errors.Is(err, inner) {
		t.Error("Expected wrapped error to unwrap to inner")
	}
	if !IsCode(err, CodeCacheUnavailable) {
		t.Error("Expected CodeCacheUnavailable")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if !IsCode(wrapped, CodeCacheUnavailable) {
		t.Error("Expected code to survive further wrapping")
	}
}

func TestAddContext(t *testing.T) {
	err := New(CodeUnsupportedLanguage, "no grammar")
	err = AddContext(err, CtxPath, "main.zig")

	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatal("Expected DomainError")
	}
	if de.Context[CtxPath] != "main.zig" {
		t.Errorf("Expected path context, got %v", de.Context[CtxPath])
	}

	plain := AddContext(errors.New("boom"), CtxOperation, "parse")
	if !IsCode(plain, CodeInternal) {
		t.Error("Expected plain errors to be promoted to INTERNAL_ERROR")
	}
}
