// Package errors holds error values and helpers shared by every package in
// the module. Domain errors live next to the code that returns them.
package errors

import "errors"

var (
	ErrNotImplemented = errors.New("not implemented")
	ErrValidation     = errors.New("validation failed")
)

// Collection is a thread-unsafe utility for accumulating multiple errors,
// e.g. every missing field of a form step.
type Collection struct {
	errors []error
}

// Add appends an error to the collection. Nil errors are ignored.
func (c *Collection) Add(err error) {
	if err != nil {
		c.errors = append(c.errors, err)
	}
}

// HasError returns true if the collection contains at least one error.
func (c *Collection) HasError() bool {
	return len(c.errors) > 0
}

// Len returns the number of collected errors.
func (c *Collection) Len() int {
	return len(c.errors)
}

// First returns the first collected error, or nil.
func (c *Collection) First() error {
	if len(c.errors) == 0 {
		return nil
	}

	return c.errors[0]
}

// GetError returns nil for an empty collection, the error itself for a
// single entry, or an errors.Join of all entries.
func (c *Collection) GetError() error {
	switch len(c.errors) {
	case 0:
		return nil
	case 1:
		return c.errors[0]
	default:
		return errors.Join(c.errors...)
	}
}
