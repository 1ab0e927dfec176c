package persist

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrNotAddressable = errors.New("persist: instance is not a non-nil struct pointer")
	ErrInstanceType   = errors.New("persist: instance type mismatch")
	ErrValueType      = errors.New("persist: value not assignable to member")
)

// Accessor reads and writes one member on a live instance.
type Accessor interface {
	Get(instance any) (any, error)
	Set(instance any, value any) error
}

// Field is one entry of a type's descriptor table, before kind resolution.
type Field struct {
	Name     string
	Accessor Accessor
}

// Member is a resolved, kept member of one Target.
type Member struct {
	Name     string
	Kind     Kind
	Width    int
	Accessor Accessor
	// Type is the dynamic type seen at discovery; decoded values are
	// converted back to it.
	Type reflect.Type
}

func newMember(f Field, k Kind, t reflect.Type) Member {
	return Member{Name: f.Name, Kind: k, Width: k.Width(), Accessor: f.Accessor, Type: t}
}

type fieldAccessor struct {
	owner reflect.Type
	index []int
}

func (a fieldAccessor) field(instance any) (reflect.Value, error) {
	rv := reflect.ValueOf(instance)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, ErrNotAddressable
	}
	if rv.Elem().Type() != a.owner {
		return reflect.Value{}, fmt.Errorf("%w: got %s want %s", ErrInstanceType, rv.Elem().Type(), a.owner)
	}
	return rv.Elem().FieldByIndex(a.index), nil
}

func (a fieldAccessor) Get(instance any) (any, error) {
	fv, err := a.field(instance)
	if err != nil {
		return nil, err
	}
	return fv.Interface(), nil
}

func (a fieldAccessor) Set(instance any, value any) error {
	fv, err := a.field(instance)
	if err != nil {
		return err
	}
	if value == nil {
		return fmt.Errorf("%w: nil", ErrValueType)
	}
	in := reflect.ValueOf(value)
	switch {
	case fv.Kind() == reflect.Interface:
		if !in.Type().Implements(fv.Type()) {
			return fmt.Errorf("%w: %s into %s", ErrValueType, in.Type(), fv.Type())
		}
		fv.Set(in)
	case in.Type() == fv.Type():
		fv.Set(in)
	case in.Kind() == fv.Kind():
		fv.Set(in.Convert(fv.Type()))
	default:
		return fmt.Errorf("%w: %s into %s", ErrValueType, in.Type(), fv.Type())
	}
	return nil
}

type propertyAccessor[T any] struct {
	get func(T) any
	set func(T, any) error
}

func (a propertyAccessor[T]) Get(instance any) (any, error) {
	obj, ok := instance.(T)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrInstanceType, instance)
	}
	return a.get(obj), nil
}

func (a propertyAccessor[T]) Set(instance any, value any) error {
	obj, ok := instance.(T)
	if !ok {
		return fmt.Errorf("%w: %T", ErrInstanceType, instance)
	}
	return a.set(obj, value)
}

// Property declares a getter/setter backed member for instances of type T.
func Property[T any](name string, get func(T) any, set func(T, any) error) Field {
	return Field{Name: name, Accessor: propertyAccessor[T]{get: get, set: set}}
}
