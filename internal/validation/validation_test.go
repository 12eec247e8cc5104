package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/momentics/hioload-alloc/api"
)

type sample struct {
	Partitions int `validate:"gte=1,lte=64"`
	Max        int `validate:"gtefield=Partitions"`
}

func TestStructAcceptsValid(t *testing.T) {
	if err := Struct(sample{Partitions: 2, Max: 4}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStructReportsEveryField(t *testing.T) {
	err := Struct(sample{Partitions: 0, Max: -1})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("error does not wrap ErrInvalidArgument: %v", err)
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Code != api.ErrCodeConfiguration {
		t.Fatalf("expected configuration *api.Error, got %v", err)
	}
	fields, _ := apiErr.Context["fields"].(string)
	if !strings.Contains(fields, "sample.Partitions failed gte") {
		t.Errorf("fields = %q, missing Partitions", fields)
	}
	if !strings.Contains(fields, "sample.Max failed gtefield") {
		t.Errorf("fields = %q, missing Max", fields)
	}
}
