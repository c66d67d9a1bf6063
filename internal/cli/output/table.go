package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// Tabler is implemented by values that render themselves as a table.
type Tabler interface {
	Table() *Table
}

// TableFormatter formats data as an aligned text table.
//
// Structs render as FIELD/VALUE rows; nested structs are flattened into
// dotted field names. Slices of structs render one row per element.
type TableFormatter struct {
	NoHeaders bool
}

// Format formats data as a table, falling back to JSON for shapes that
// have no tabular form.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}

	switch d := data.(type) {
	case Tabler:
		return d.Table().RenderWithOptions(w, f.NoHeaders)
	case *Table:
		return d.RenderWithOptions(w, f.NoHeaders)
	case Table:
		return d.RenderWithOptions(w, f.NoHeaders)
	}

	table, err := toTable(data)
	if err != nil {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}
	return table.RenderWithOptions(w, f.NoHeaders)
}

func toTable(data any) (*Table, error) {
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return &Table{}, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		t := &Table{Headers: []string{"FIELD", "VALUE"}}
		appendStructRows(t, "", v)
		return t, nil
	case reflect.Map:
		return mapToTable(v), nil
	case reflect.Slice, reflect.Array:
		return sliceToTable(v)
	default:
		return nil, fmt.Errorf("unsupported type: %s", v.Kind())
	}
}

// appendStructRows adds one row per exported field of v, recursing into
// nested structs with a dotted prefix.
func appendStructRows(t *Table, prefix string, v reflect.Value) {
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		name, ok := fieldName(field)
		if !ok {
			continue
		}
		name = prefix + name

		fv := v.Field(i)
		if nested, ok := nestedStruct(fv); ok {
			appendStructRows(t, name+".", nested)
			continue
		}
		t.AddRow(name, formatValue(fv))
	}
}

// nestedStruct reports whether v is a (non-nil pointer to a) struct that
// should be flattened.
func nestedStruct(v reflect.Value) (reflect.Value, bool) {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct || v.Type() == reflect.TypeOf(time.Time{}) {
		return reflect.Value{}, false
	}
	return v, true
}

func sliceToTable(v reflect.Value) (*Table, error) {
	elemType := v.Type().Elem()
	if elemType.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}
	if elemType.Kind() != reflect.Struct {
		t := &Table{Headers: []string{"VALUE"}}
		for i := 0; i < v.Len(); i++ {
			t.AddRow(formatValue(v.Index(i)))
		}
		return t, nil
	}

	t := &Table{}
	var indices []int
	for i := 0; i < elemType.NumField(); i++ {
		name, ok := fieldName(elemType.Field(i))
		if !ok {
			continue
		}
		t.Headers = append(t.Headers, strings.ToUpper(toSnakeCase(name)))
		indices = append(indices, i)
	}

	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		if elem.Kind() == reflect.Ptr {
			if elem.IsNil() {
				continue
			}
			elem = elem.Elem()
		}
		row := make([]string, 0, len(indices))
		for _, idx := range indices {
			row = append(row, formatValue(elem.Field(idx)))
		}
		t.AddRow(row...)
	}
	return t, nil
}

func mapToTable(v reflect.Value) *Table {
	t := &Table{Headers: []string{"KEY", "VALUE"}}
	iter := v.MapRange()
	for iter.Next() {
		t.AddRow(formatValue(iter.Key()), formatValue(iter.Value()))
	}
	sort.Slice(t.Rows, func(i, j int) bool { return t.Rows[i][0] < t.Rows[j][0] })
	return t
}

// fieldName returns the display name of a struct field: the table tag, else
// the json tag, else the Go name. ok is false for skipped fields.
func fieldName(field reflect.StructField) (string, bool) {
	if !field.IsExported() {
		return "", false
	}
	for _, key := range []string{"table", "json"} {
		tag := field.Tag.Get(key)
		if tag == "-" {
			return "", false
		}
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			return name, true
		}
	}
	return field.Name, true
}

// formatValue formats a reflect.Value for display.
func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return "-"
	}

	if v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "-"
		}
		v = v.Elem()
	}

	if t, ok := v.Interface().(time.Time); ok {
		if t.IsZero() {
			return "-"
		}
		return t.Local().Format("2006-01-02 15:04:05")
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return orDash(s.String())
	}

	switch v.Kind() {
	case reflect.String:
		return orDash(v.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", v.Uint())
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%g", v.Float())
	case reflect.Bool:
		return fmt.Sprintf("%t", v.Bool())
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// toSnakeCase converts camelCase to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteByte('_')
		}
		result.WriteRune(r)
	}
	return result.String()
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}
