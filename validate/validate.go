// Package validate runs self-validating values. A value opts in by
// implementing HasValidate or HasValidateWithContext; failures are wrapped
// with errors.ErrValidation so callers can classify them uniformly.
package validate

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/amp-labs/effort-economics/errors"
	"github.com/amp-labs/effort-economics/logger"
)

// HasValidate is implemented by values that can validate themselves.
type HasValidate interface {
	Validate() error
}

// HasValidateWithContext is implemented by values whose validation needs a
// context, e.g. for an injected clock or cancellation.
type HasValidateWithContext interface {
	Validate(ctx context.Context) error
}

// Validate validates value if it implements one of the interfaces above.
// Nil values and values implementing neither pass. A failure is returned
// wrapped with errors.ErrValidation; the original error stays reachable
// through errors.Is / errors.As.
func Validate(ctx context.Context, value any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	err := validateInternal(ctx, value)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrValidation, err)
	}

	return nil
}

func validateInternal(ctx context.Context, value any) error {
	if isNilish(value) {
		return nil
	}

	start := time.Now()

	var err error

	switch v := value.(type) {
	case HasValidate:
		err = v.Validate()
	case HasValidateWithContext:
		err = v.Validate(ctx)
	default:
		validationsTotal.WithLabelValues("false", "false").Inc()

		logger.Get(ctx).Warn("Validate called on unsupported type",
			"type", fmt.Sprintf("%T", v))

		return nil
	}

	hasError := strconv.FormatBool(err != nil)

	validationsTotal.WithLabelValues("true", hasError).Inc()
	validationTime.WithLabelValues(fmt.Sprintf("%T", value), hasError).
		Observe(float64(time.Since(start).Microseconds()) / 1000.0) //nolint:mnd

	return err
}

func isNilish(value any) bool {
	if value == nil {
		return true
	}

	rv := reflect.ValueOf(value)

	switch rv.Kind() { //nolint:exhaustive
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
