// internal/capability/capability.go

// Package capability parses the typed setting lists used in the preferences
// file: comma separated "name=value|type" items such as
// "acceptInsecureCerts=true|System.Boolean,pageLoadStrategy=eager".
package capability

import (
	"fmt"
	"strconv"
	"strings"
)

// Setting is one parsed list item.
type Setting struct {
	Name  string
	Value interface{}
}

type converter func(string) (interface{}, error)

var converters = map[string]converter{
	"string": func(s string) (interface{}, error) { return s, nil },
	"bool":   func(s string) (interface{}, error) { return strconv.ParseBool(s) },
	"int": func(s string) (interface{}, error) {
		return strconv.Atoi(s)
	},
	"int32": func(s string) (interface{}, error) {
		v, err := strconv.ParseInt(s, 10, 32)
		return int32(v), err
	},
	"int64": func(s string) (interface{}, error) {
		return strconv.ParseInt(s, 10, 64)
	},
	"float32": func(s string) (interface{}, error) {
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	},
	"float64": func(s string) (interface{}, error) {
		return strconv.ParseFloat(s, 64)
	},
}

// typeAliases maps accepted type names onto converters keys
var typeAliases = map[string]string{
	"":               "string",
	"string":         "string",
	"system.string":  "string",
	"bool":           "bool",
	"boolean":        "bool",
	"system.boolean": "bool",
	"int":            "int",
	"int32":          "int32",
	"system.int32":   "int32",
	"int64":          "int64",
	"long":           "int64",
	"system.int64":   "int64",
	"float32":        "float32",
	"float":          "float32",
	"single":         "float32",
	"system.single":  "float32",
	"float64":        "float64",
	"double":         "float64",
	"system.double":  "float64",
}

// Convert turns value into the Go value for typeName.
func Convert(value, typeName string) (interface{}, error) {
	key, ok := typeAliases[strings.ToLower(strings.TrimSpace(typeName))]
	if !ok {
		return nil, fmt.Errorf("unsupported type %q", typeName)
	}
	return converters[key](value)
}

// ParseItem parses a single "name=value|type" item. The type is optional.
func ParseItem(item string) (Setting, error) {
	item = strings.TrimSpace(item)

	name, rest, found := strings.Cut(item, "=")
	name = strings.TrimSpace(name)
	if !found || name == "" {
		return Setting{}, fmt.Errorf("capability %q: expected name=value|type", item)
	}

	value, typeName, _ := strings.Cut(rest, "|")
	converted, err := Convert(strings.TrimSpace(value), typeName)
	if err != nil {
		return Setting{}, fmt.Errorf("capability %q: %w", item, err)
	}

	return Setting{Name: name, Value: converted}, nil
}

// ParseList parses a comma separated list of items. Blank items are skipped;
// the first malformed item stops parsing.
func ParseList(list string) ([]Setting, error) {
	var settings []Setting
	for _, item := range SplitList(list) {
		setting, err := ParseItem(item)
		if err != nil {
			return nil, err
		}
		settings = append(settings, setting)
	}
	return settings, nil
}

// ToMap collects settings by name; later items win.
func ToMap(settings []Setting) map[string]interface{} {
	m := make(map[string]interface{}, len(settings))
	for _, s := range settings {
		m[s.Name] = s.Value
	}
	return m
}

// SplitList splits a comma separated list, trimming blanks and dropping empty entries.
func SplitList(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
