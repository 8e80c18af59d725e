package stage

import (
	"reflect"
	"strings"
)

var stageBaseType = reflect.TypeOf(StageBase{})

// FieldValues flattens a stage model into json-name -> value. Booleans are
// "true" when set and "" otherwise so an unchecked box never counts as input.
// StageBase keys are left out.
func FieldValues(rec Record) map[string]string {
	out := map[string]string{}
	walkFields(reflect.ValueOf(rec).Elem(), func(name string, v reflect.Value) {
		switch v.Kind() {
		case reflect.String:
			out[name] = v.String()
		case reflect.Bool:
			if v.Bool() {
				out[name] = "true"
			} else {
				out[name] = ""
			}
		}
	})
	return out
}

// AssignFieldValues writes the given keys back onto a stage model. Keys the
// model does not have are ignored.
func AssignFieldValues(rec Record, values map[string]string) {
	walkFields(reflect.ValueOf(rec).Elem(), func(name string, v reflect.Value) {
		val, ok := values[name]
		if !ok || !v.CanSet() {
			return
		}
		switch v.Kind() {
		case reflect.String:
			v.SetString(val)
		case reflect.Bool:
			v.SetBool(val == "true")
		}
	})
}

// FieldNames returns the json names of a stage's data fields in declaration
// order.
func FieldNames(s Stage) []string {
	rec := NewRecord(s)
	if rec == nil {
		return nil
	}
	var out []string
	walkFields(reflect.ValueOf(rec).Elem(), func(name string, _ reflect.Value) {
		out = append(out, name)
	})
	return out
}

func walkFields(v reflect.Value, fn func(name string, field reflect.Value)) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous {
			if sf.Type == stageBaseType {
				continue
			}
			if sf.Type.Kind() == reflect.Struct {
				walkFields(v.Field(i), fn)
			}
			continue
		}
		name := jsonName(sf)
		if name == "" {
			continue
		}
		fn(name, v.Field(i))
	}
}

func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	name := strings.SplitN(tag, ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return sf.Name
	}
	return name
}
