// Package cyclicjson encodes object graphs that may contain shared or
// cyclic pointer references into plain JSON. During encoding, every pointer
// to a struct that occurs more than once in the graph is tagged with a
// numeric "$id" member at its first occurrence; every later occurrence is
// replaced by a {"$ref": id} marker. Acyclic graphs encode to ordinary JSON
// with no markers at all, so the package doubles as a general marshaller for
// request payloads.
//
// Markers always point backward: an id is assigned when the object is first
// written, so Unmarshal resolves references in a single pass.
package cyclicjson

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

const (
	idField  = "$id"
	refField = "$ref"
)

var marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// Marshal encodes v as JSON, tagging repeated pointer identity so shared and
// cyclic references survive the round-trip.
func Marshal(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)

	s := &scanner{seen: make(map[uintptr]int)}
	s.scan(rv)
	shared := make(map[uintptr]bool, len(s.seen))
	for p, n := range s.seen {
		if n > 1 {
			shared[p] = true
		}
	}

	var e jx.Encoder
	enc := &encoder{e: &e, shared: shared, ids: make(map[uintptr]int), next: 1}
	if err := enc.value(rv); err != nil {
		return nil, err
	}
	out := make([]byte, len(e.Bytes()))
	copy(out, e.Bytes())
	return out, nil
}

// scanner counts pointer-to-struct occurrences so the encoder knows which
// objects need identity tags. It must visit at least every value the encoder
// will visit.
type scanner struct {
	seen map[uintptr]int
}

func (s *scanner) scan(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	if _, ok := asMarshaler(v); ok {
		return
	}
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return
		}
		if v.Elem().Kind() == reflect.Struct {
			p := v.Pointer()
			s.seen[p]++
			if s.seen[p] > 1 {
				return
			}
		}
		s.scan(v.Elem())
	case reflect.Interface:
		if !v.IsNil() {
			s.scan(v.Elem())
		}
	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			if name, _ := fieldName(f); name == "-" {
				continue
			}
			s.scan(v.Field(i))
		}
	case reflect.Slice, reflect.Array:
		for i := range v.Len() {
			s.scan(v.Index(i))
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			s.scan(iter.Value())
		}
	default:
	}
}

type encoder struct {
	e      *jx.Encoder
	shared map[uintptr]bool
	ids    map[uintptr]int
	next   int
}

func (enc *encoder) value(v reflect.Value) error {
	if !v.IsValid() {
		enc.e.Null()
		return nil
	}
	if m, ok := asMarshaler(v); ok {
		raw, err := m.MarshalJSON()
		if err != nil {
			return errors.Wrapf(err, "marshal %s", v.Type())
		}
		enc.e.Raw(raw)
		return nil
	}

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			enc.e.Null()
			return nil
		}
		if v.Elem().Kind() == reflect.Struct {
			p := v.Pointer()
			if id, ok := enc.ids[p]; ok {
				enc.e.ObjStart()
				enc.e.FieldStart(refField)
				enc.e.Int(id)
				enc.e.ObjEnd()
				return nil
			}
			id := 0
			if enc.shared[p] {
				id = enc.next
				enc.next++
				enc.ids[p] = id
			}
			return enc.object(v.Elem(), id)
		}
		return enc.value(v.Elem())
	case reflect.Interface:
		if v.IsNil() {
			enc.e.Null()
			return nil
		}
		return enc.value(v.Elem())
	case reflect.Struct:
		return enc.object(v, 0)
	case reflect.Slice:
		if v.IsNil() {
			enc.e.Null()
			return nil
		}
		return enc.array(v)
	case reflect.Array:
		return enc.array(v)
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return errors.Errorf("unsupported map key type %s", v.Type().Key())
		}
		if v.IsNil() {
			enc.e.Null()
			return nil
		}
		keys := make([]string, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			keys = append(keys, iter.Key().String())
		}
		sort.Strings(keys)
		enc.e.ObjStart()
		for _, k := range keys {
			enc.e.FieldStart(k)
			kv := reflect.ValueOf(k).Convert(v.Type().Key())
			if err := enc.value(v.MapIndex(kv)); err != nil {
				return err
			}
		}
		enc.e.ObjEnd()
		return nil
	case reflect.String:
		enc.e.Str(v.String())
	case reflect.Bool:
		enc.e.Bool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		enc.e.Int64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		enc.e.UInt64(v.Uint())
	case reflect.Float32, reflect.Float64:
		enc.e.Float64(v.Float())
	default:
		return errors.Errorf("unsupported kind %s", v.Kind())
	}
	return nil
}

func (enc *encoder) array(v reflect.Value) error {
	enc.e.ArrStart()
	for i := range v.Len() {
		if err := enc.value(v.Index(i)); err != nil {
			return err
		}
	}
	enc.e.ArrEnd()
	return nil
}

func (enc *encoder) object(v reflect.Value, id int) error {
	enc.e.ObjStart()
	if id != 0 {
		enc.e.FieldStart(idField)
		enc.e.Int(id)
	}
	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, omitempty := fieldName(f)
		if name == "-" {
			continue
		}
		fv := v.Field(i)
		if omitempty && isEmpty(fv) {
			continue
		}
		enc.e.FieldStart(name)
		if err := enc.value(fv); err != nil {
			return err
		}
	}
	enc.e.ObjEnd()
	return nil
}

// fieldName resolves the JSON member name for a struct field from its json
// tag, falling back to the field name. A "-" name means the field is skipped.
func fieldName(f reflect.StructField) (name string, omitempty bool) {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name, false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = f.Name
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	default:
		return false
	}
}

func asMarshaler(v reflect.Value) (json.Marshaler, bool) {
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return nil, false
	}
	if v.Kind() == reflect.Interface {
		return nil, false
	}
	if v.Type().Implements(marshalerType) {
		return v.Interface().(json.Marshaler), true
	}
	if v.CanAddr() && reflect.PtrTo(v.Type()).Implements(marshalerType) {
		return v.Addr().Interface().(json.Marshaler), true
	}
	return nil, false
}
