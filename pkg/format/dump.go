package format

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

const indent = "        "

// Recursion replaces a map, slice or pointer that contains itself.
const Recursion = "*RECURSION*"

// Dump renders v for humans. Maps, slices and structs use a bracketed
// layout with one "[key] => value" row per element, keys sorted:
//
//	Array
//	(
//	    [password] => xxxxxx...
//	    [username] => bob
//	)
//
// Scalars render as their plain value; nil renders as "" and booleans as
// "1" or "". A value reached again while it is still being dumped renders
// as Recursion.
func Dump(v any) string {
	var b strings.Builder
	d := dumper{b: &b, active: make(map[visit]struct{})}
	d.dump(reflect.ValueOf(v), "")
	return b.String()
}

// DumpBody is Dump without the top-level "Array" or "Object" header.
func DumpBody(v any) string {
	out := Dump(v)
	if i := strings.IndexByte(out, '\n'); i >= 0 && strings.HasPrefix(out[i:], "\n(") {
		return out[i:]
	}
	return out
}

// visit identifies a map, slice or pointer on the current dump path.
type visit struct {
	ptr uintptr
	typ reflect.Type
}

type dumper struct {
	b      *strings.Builder
	active map[visit]struct{}
}

func (d *dumper) dump(v reflect.Value, pad string) {
	if !v.IsValid() {
		return
	}
	b := d.b

	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer:
		if !v.IsNil() && v.Pointer() != 0 {
			key := visit{ptr: v.Pointer(), typ: v.Type()}
			if _, ok := d.active[key]; ok {
				b.WriteString(Recursion)
				return
			}
			d.active[key] = struct{}{}
			defer delete(d.active, key)
		}
	}

	if v.CanInterface() {
		switch x := v.Interface().(type) {
		case error:
			if isNilPointer(v) {
				return
			}
			b.WriteString(x.Error())
			return
		case fmt.Stringer:
			if isNilPointer(v) {
				return
			}
			b.WriteString(x.String())
			return
		case []byte:
			b.Write(x)
			return
		}
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return
		}
		d.dump(v.Elem(), pad)

	case reflect.Map:
		keys := v.MapKeys()
		rows := make([]row, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, row{key: scalar(k), value: v.MapIndex(k)})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].key < rows[j].key })
		d.writeBlock("Array", rows, pad)

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			d.writeBlock("Array", nil, pad)
			return
		}
		rows := make([]row, v.Len())
		for i := range rows {
			rows[i] = row{key: strconv.Itoa(i), value: v.Index(i)}
		}
		d.writeBlock("Array", rows, pad)

	case reflect.Struct:
		t := v.Type()
		rows := make([]row, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			rows = append(rows, row{key: t.Field(i).Name, value: v.Field(i)})
		}
		d.writeBlock(t.String()+" Object", rows, pad)

	default:
		b.WriteString(scalar(v))
	}
}

type row struct {
	key   string
	value reflect.Value
}

func (d *dumper) writeBlock(header string, rows []row, pad string) {
	b := d.b
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(pad)
	b.WriteString("(\n")
	for _, r := range rows {
		b.WriteString(pad)
		b.WriteString("    [")
		b.WriteString(r.key)
		b.WriteString("] => ")
		d.dump(r.value, pad+indent)
		b.WriteString("\n")
	}
	b.WriteString(pad)
	b.WriteString(")\n")
}

func scalar(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return "1"
		}
		return ""
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return ""
		}
		return scalar(v.Elem())
	}
	if v.CanInterface() {
		return fmt.Sprint(v.Interface())
	}
	return v.String()
}

func isNilPointer(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}
