package models

import (
	"errors"
	"testing"
	"time"
)

func TestValidationErrorsIs(t *testing.T) {
	validation := &ValidationErrors{}
	validation.Add("key", ErrMissingKey)

	err := validation.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected errors.Is to match ErrMissingKey, got %v", err)
	}
}

func TestValidationErrorsNestedFields(t *testing.T) {
	nested := &ValidationErrors{}
	nested.AddMessage("key", "reference key is required")

	validation := &ValidationErrors{}
	validation.Add("request", nested)

	list, ok := validation.Err().(*ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors type, got %T", validation.Err())
	}
	if len(list.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(list.Errors))
	}
	if list.Errors[0].Field != "request.key" {
		t.Fatalf("expected field request.key, got %q", list.Errors[0].Field)
	}
}

func TestValidateChronoItem(t *testing.T) {
	err := ValidateChronoItem(ChronoItem{})
	if !errors.Is(err, ErrMissingKey) || !errors.Is(err, ErrMissingTimestamp) {
		t.Fatalf("expected both key and timestamp errors, got %v", err)
	}

	ok := ChronoItem{Key: "a", Timestamp: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := ValidateChronoItem(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
