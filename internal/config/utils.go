package config

import (
	"reflect"
	"strings"
)

// GetBoolValue reads the boolean at a dot-separated field path such as
// "Logger.JSONFormat". Unset pointers, missing fields and non-boolean
// values yield defaultValue.
func GetBoolValue(cfg interface{}, fieldPath string, defaultValue bool) bool {
	val, ok := lookupField(reflect.ValueOf(cfg), fieldPath)
	if !ok {
		return defaultValue
	}

	switch {
	case val.Kind() == reflect.Ptr && !val.IsNil() && val.Elem().Kind() == reflect.Bool:
		return val.Elem().Bool()
	case val.Kind() == reflect.Bool:
		return val.Bool()
	}
	return defaultValue
}

// lookupField walks nested structs, dereferencing pointers on the way.
func lookupField(val reflect.Value, fieldPath string) (reflect.Value, bool) {
	for _, name := range strings.Split(fieldPath, ".") {
		for val.Kind() == reflect.Ptr || val.Kind() == reflect.Interface {
			if val.IsNil() {
				return reflect.Value{}, false
			}
			val = val.Elem()
		}
		if val.Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		if val = val.FieldByName(name); !val.IsValid() {
			return reflect.Value{}, false
		}
	}
	return val, true
}

// SetThen returns value unless it is the zero value of T.
func SetThen[T any](value T, defaultValue T) T {
	if reflect.ValueOf(&value).Elem().IsZero() {
		return defaultValue
	}
	return value
}
