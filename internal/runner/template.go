package runner

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
)

// ExpandTemplates walks the struct (or slice) pointed to by in and expands ${VAR} references
// in place.
//
// string, *string and []string fields are expanded only when they carry a `template` tag
// (`template:"-"` opts out). map[string]string fields are always expanded. Nested structs,
// *struct, []struct and []*struct are explored without a tag. Nil values and unexported
// fields are left alone.
func ExpandTemplates[T any](in *T, variables map[string]string) error {
	if in == nil {
		return nil
	}
	v := reflect.ValueOf(in).Elem()
	switch v.Kind() {
	case reflect.Struct:
		return expandStruct(v, variables)
	case reflect.Slice:
		return expandSlice(v, variables)
	default:
		return fmt.Errorf("ExpandTemplates expects *struct or *[]struct; got *%s", v.Type())
	}
}

func expandSlice(v reflect.Value, variables map[string]string) error {
	if v.IsNil() {
		return nil
	}
	for i := 0; i < v.Len(); i++ {
		el := v.Index(i)
		switch {
		case el.Kind() == reflect.String:
			if err := expandString(el, variables); err != nil {
				return err
			}
		case el.Kind() == reflect.Struct:
			if err := expandStruct(el, variables); err != nil {
				return err
			}
		case el.Kind() == reflect.Ptr && el.Type().Elem().Kind() == reflect.Struct:
			if el.IsNil() {
				continue
			}
			if err := expandStruct(el.Elem(), variables); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

func expandStruct(v reflect.Value, variables map[string]string) error {
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("expandStruct expects struct; got %s", v.Kind())
	}
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}
		if err := expandField(v.Field(i), sf, variables); err != nil {
			return fmt.Errorf("%s: %w", sf.Name, err)
		}
	}
	return nil
}

func expandField(field reflect.Value, sf reflect.StructField, variables map[string]string) error {
	tag, hasTemplate := sf.Tag.Lookup("template")
	templated := hasTemplate && tag != "-"

	switch field.Kind() {
	case reflect.String:
		if !templated {
			return nil
		}
		return expandString(field, variables)

	case reflect.Ptr:
		if field.IsNil() {
			return nil
		}
		elem := field.Elem()
		switch elem.Kind() {
		case reflect.String:
			if !templated {
				return nil
			}
			// Replace the pointer so values shared with the caller are not modified.
			expanded, err := Expand(elem.String(), variables)
			if err != nil {
				return err
			}
			ptr := reflect.New(elem.Type())
			ptr.Elem().SetString(expanded)
			field.Set(ptr)
			return nil
		case reflect.Struct:
			return expandStruct(elem, variables)
		default:
			return nil
		}

	case reflect.Map:
		if field.IsNil() || field.Type().Key().Kind() != reflect.String || field.Type().Elem().Kind() != reflect.String {
			return nil
		}
		expanded, err := ExpandMap(field.Interface().(map[string]string), variables)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(expanded))
		return nil

	case reflect.Struct:
		return expandStruct(field, variables)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String && !templated {
			return nil
		}
		return expandSlice(field, variables)

	default:
		return nil
	}
}

func expandString(v reflect.Value, variables map[string]string) error {
	expanded, err := Expand(v.String(), variables)
	if err != nil {
		return err
	}
	v.SetString(expanded)
	return nil
}

// Expand replaces ${VAR} and $VAR references in value. ${VAR:-default} falls back to
// default when VAR is not defined. Every undefined reference without a default is reported.
func Expand(value string, variables map[string]string) (string, error) {
	var errs error

	result := os.Expand(value, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if val, ok := variables[name]; ok {
			return val
		}
		if hasFallback {
			return fallback
		}
		errs = errors.Join(errs, fmt.Errorf("variable %q is not defined (build variables are always available, others must be passed with --allowed-env)", name))
		return ""
	})

	if errs != nil {
		return "", errs
	}

	return result, nil
}

// ExpandMap expands all values in a map[string]string.
func ExpandMap(values map[string]string, variables map[string]string) (map[string]string, error) {
	if values == nil {
		return nil, nil
	}

	result := make(map[string]string, len(values))
	var errs error

	for k, v := range values {
		expanded, err := Expand(v, variables)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", k, err))
			continue
		}
		result[k] = expanded
	}

	if errs != nil {
		return nil, errs
	}

	return result, nil
}
