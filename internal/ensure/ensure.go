// Package ensure checks that loosely typed arguments are the records a query expects.
package ensure

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/waikato-ufdl/simple-teams/internal/models"
)

// ErrTypeMismatch matches every *TypeMismatchError.
var ErrTypeMismatch = errors.New("type mismatch")

// TypeMismatchError names the expected and the actual kind of a value.
type TypeMismatchError struct {
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("expected %s but got %s instead", e.Expected, e.Actual)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// Model returns value as a *T. Both T and a non-nil *T are accepted.
func Model[T any](value interface{}) (*T, error) {
	switch v := value.(type) {
	case *T:
		if v != nil {
			return v, nil
		}
	case T:
		return &v, nil
	}

	return nil, &TypeMismatchError{
		Expected: kindOf(reflect.TypeOf((*T)(nil)).Elem()),
		Actual:   kindOfValue(value),
	}
}

// User checks that value is a user. The anonymous principal is accepted only
// when allowAnonymous is set.
func User(value interface{}, allowAnonymous bool) error {
	if allowAnonymous && isAnonymous(value) {
		return nil
	}

	_, err := Model[models.User](value)
	return err
}

func isAnonymous(value interface{}) bool {
	switch v := value.(type) {
	case models.AnonymousUser:
		return true
	case *models.AnonymousUser:
		return v != nil
	}
	return false
}

func kindOfValue(value interface{}) string {
	if value == nil {
		return "nil"
	}

	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return "nil " + kindOf(v.Type().Elem())
	}
	return kindOf(v.Type())
}

func kindOf(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
