// File: internal/validation/validation.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Struct-tag validation for configuration types.

package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/momentics/hioload-alloc/api"
)

var validate = validator.New()

// Struct validates cfg against its `validate` tags. Violations are reported
// as a single configuration error listing every offending field.
func Struct(cfg any) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return api.NewError(api.ErrCodeConfiguration, "invalid configuration").Wrap(err)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Namespace()+" failed "+fe.Tag())
	}
	return api.NewError(api.ErrCodeConfiguration, "invalid configuration").
		WithContext("fields", strings.Join(fields, "; ")).
		Wrap(api.ErrInvalidArgument)
}
