package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

var columnCache sync.Map // reflect.Type -> []fieldColumn

type fieldColumn struct {
	index int
	name  string
}

// Columns returns the db-tagged columns of a struct type in field order.
func Columns(model any) ([]string, error) {
	fields, _, err := modelFields(model)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.name)
	}
	return out, nil
}

// InsertModels starts a multi-row insert whose columns come from the db tags
// of T. Chain OnConflict/DoUpdate to turn it into an upsert.
func InsertModels[T any](table string, models []T) (*InsertBuilder, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("insert models are required")
	}

	fields, _, err := modelFields(models[0])
	if err != nil {
		return nil, err
	}

	b := InsertInto(table)
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, f.name)
	}
	b.Columns(cols...)

	for i := range models {
		value := reflect.ValueOf(models[i])
		for value.Kind() == reflect.Pointer {
			if value.IsNil() {
				return nil, fmt.Errorf("model %d cannot be nil", i)
			}
			value = value.Elem()
		}
		row := make([]any, 0, len(fields))
		for _, f := range fields {
			row = append(row, value.Field(f.index).Interface())
		}
		b.Values(row...)
	}
	return b, nil
}

func modelFields(model any) ([]fieldColumn, reflect.Type, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct")
	}

	typ := value.Type()
	if cached, ok := columnCache.Load(typ); ok {
		return cached.([]fieldColumn), typ, nil
	}

	fields := make([]fieldColumn, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		col := strings.TrimSpace(strings.Split(field.Tag.Get("db"), ",")[0])
		if col == "" || col == "-" {
			continue
		}
		fields = append(fields, fieldColumn{index: i, name: col})
	}
	if len(fields) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}

	columnCache.Store(typ, fields)
	return fields, typ, nil
}
