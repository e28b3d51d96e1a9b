// Package render formats version and run summary output for the mpimg CLI.
//
// Format selection:
//   - If the target is a TTY, default to table
//   - Otherwise default to json
//   - --format always overrides the default
//   - Invalid formats are errors
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
// The empty string is returned as-is so the caller can pick a default.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer writes values in one format.
type Renderer struct {
	format Format
	out    io.Writer
}

// NewRenderer creates a renderer on f. An empty format picks table for a
// terminal and json otherwise.
func NewRenderer(format string, f *os.File) (*Renderer, error) {
	parsed, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if parsed == "" {
		if isTTY(f) {
			parsed = FormatTable
		} else {
			parsed = FormatJSON
		}
	}
	return &Renderer{format: parsed, out: f}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, out io.Writer) *Renderer {
	return &Renderer{format: format, out: out}
}

// Format returns the selected format.
func (r *Renderer) Format() Format { return r.format }

// Render outputs the data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		return r.renderTable(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// renderTable prints one "key: value" row per field. Nested structs and
// maps are flattened with dotted keys; map keys are sorted.
// A slice of structs prints as columns instead, one row per element.
func (r *Renderer) renderTable(data any) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	if v := reflect.ValueOf(data); v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Struct {
		writeColumns(w, v)
	} else {
		writeRows(w, "", v)
	}
	return w.Flush()
}

func writeColumns(w io.Writer, v reflect.Value) {
	t := v.Type().Elem()
	var fields []int
	var header []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, skip := fieldName(f)
		if skip {
			continue
		}
		fields = append(fields, i)
		header = append(header, strings.ToUpper(name))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	row := make([]string, len(fields))
	for i := 0; i < v.Len(); i++ {
		for j, idx := range fields {
			row[j] = fmt.Sprint(v.Index(i).Field(idx).Interface())
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}

func writeRows(w io.Writer, prefix string, v reflect.Value) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			fmt.Fprintf(w, "%s:\t\n", prefix)
			return
		}
		v = v.Elem()
	}

	switch {
	case v.Kind() == reflect.Struct && !isTime(v):
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, skip := fieldName(f)
			if skip {
				continue
			}
			writeRows(w, join(prefix, name), v.Field(i))
		}
	case v.Kind() == reflect.Map:
		if v.Len() == 0 {
			fmt.Fprintf(w, "%s:\t{}\n", prefix)
			return
		}
		keys := v.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return strings.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
		})
		for _, k := range keys {
			writeRows(w, join(prefix, fmt.Sprint(k.Interface())), v.MapIndex(k))
		}
	case v.Kind() == reflect.Slice || v.Kind() == reflect.Array:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = fmt.Sprint(v.Index(i).Interface())
		}
		fmt.Fprintf(w, "%s:\t%s\n", prefix, strings.Join(parts, ", "))
	default:
		fmt.Fprintf(w, "%s:\t%v\n", prefix, v.Interface())
	}
}

func fieldName(f reflect.StructField) (name string, skip bool) {
	if tag := f.Tag.Get("json"); tag != "" {
		name, _, _ = strings.Cut(tag, ",")
		if name == "-" {
			return "", true
		}
		if name != "" {
			return name, false
		}
	}
	return strings.ToLower(f.Name), false
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func isTime(v reflect.Value) bool {
	return v.Type().String() == "time.Time"
}

// isTTY returns true if f is a terminal.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
