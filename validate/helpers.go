package validate

import "context"

// Func adapts a plain function to HasValidate.
//
//	err := validate.Validate(ctx, validate.Func(func() error {
//	    return validators.ValidateConsent(consent)
//	}))
func Func(f func() error) HasValidate {
	return &validateFunc{f: f}
}

// FuncWithContext adapts a context-aware function to HasValidateWithContext.
func FuncWithContext(f func(ctx context.Context) error) HasValidateWithContext {
	return &validateFuncWithContext{f: f}
}

type validateFunc struct {
	f func() error
}

func (v *validateFunc) Validate() error {
	if v.f == nil {
		return nil
	}

	return v.f()
}

type validateFuncWithContext struct {
	f func(ctx context.Context) error
}

func (v *validateFuncWithContext) Validate(ctx context.Context) error {
	if v.f == nil {
		return nil
	}

	return v.f(ctx)
}
