package cyclicjson

import (
	"encoding/json"
	"reflect"
	"sort"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

var unmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()

// Unmarshal decodes data produced by Marshal into v, resolving "$ref"
// markers so shared and cyclic references point at the same reconstructed
// objects. v must be a non-nil pointer.
func Unmarshal(data []byte, v any) error {
	d := jx.DecodeBytes(data)
	tree, err := parseValue(d)
	if err != nil {
		return errors.Wrap(err, "parse")
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("target must be a non-nil pointer")
	}
	dec := &decoder{refs: make(map[int]reflect.Value)}
	return dec.assign(tree, rv.Elem())
}

// parseValue reads one JSON value into a generic tree: map[string]any,
// []any, string, float64, bool or nil.
func parseValue(d *jx.Decoder) (any, error) {
	switch d.Next() {
	case jx.Object:
		obj := make(map[string]any)
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			val, err := parseValue(d)
			if err != nil {
				return err
			}
			obj[key] = val
			return nil
		}); err != nil {
			return nil, err
		}
		return obj, nil
	case jx.Array:
		arr := []any{}
		if err := d.Arr(func(d *jx.Decoder) error {
			val, err := parseValue(d)
			if err != nil {
				return err
			}
			arr = append(arr, val)
			return nil
		}); err != nil {
			return nil, err
		}
		return arr, nil
	case jx.String:
		return d.Str()
	case jx.Number:
		return d.Float64()
	case jx.Bool:
		return d.Bool()
	case jx.Null:
		return nil, d.Null()
	default:
		return nil, errors.New("invalid JSON value")
	}
}

type decoder struct {
	refs map[int]reflect.Value
}

func (dec *decoder) assign(node any, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Ptr:
		if node == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		if m, ok := node.(map[string]any); ok {
			if id, ok := markerID(m, refField); ok {
				target, ok := dec.refs[id]
				if !ok {
					return errors.Errorf("unresolved $ref %d", id)
				}
				if !target.Type().AssignableTo(dst.Type()) {
					return errors.Errorf("$ref %d has type %s, want %s", id, target.Type(), dst.Type())
				}
				dst.Set(target)
				return nil
			}
		}
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		if m, ok := node.(map[string]any); ok {
			// Register before descending so cycles resolve.
			if id, ok := markerID(m, idField); ok {
				dec.refs[id] = dst
			}
		}
		return dec.assign(node, dst.Elem())
	case reflect.Interface:
		if node == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		nv := reflect.ValueOf(node)
		if !nv.Type().AssignableTo(dst.Type()) {
			return errors.Errorf("cannot assign %s to %s", nv.Type(), dst.Type())
		}
		dst.Set(nv)
		return nil
	}

	if u, ok := asUnmarshaler(dst); ok {
		raw, err := encodeNode(node)
		if err != nil {
			return err
		}
		if err := u.UnmarshalJSON(raw); err != nil {
			return errors.Wrapf(err, "unmarshal %s", dst.Type())
		}
		return nil
	}

	switch dst.Kind() {
	case reflect.Struct:
		if node == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		m, ok := node.(map[string]any)
		if !ok {
			return errors.Errorf("expected object for %s", dst.Type())
		}
		t := dst.Type()
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, _ := fieldName(f)
			if name == "-" {
				continue
			}
			val, ok := m[name]
			if !ok {
				continue
			}
			if err := dec.assign(val, dst.Field(i)); err != nil {
				return errors.Wrapf(err, "field %s", name)
			}
		}
		return nil
	case reflect.Slice:
		if node == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		arr, ok := node.([]any)
		if !ok {
			return errors.Errorf("expected array for %s", dst.Type())
		}
		out := reflect.MakeSlice(dst.Type(), len(arr), len(arr))
		for i, elem := range arr {
			if err := dec.assign(elem, out.Index(i)); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil
	case reflect.Map:
		if node == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		m, ok := node.(map[string]any)
		if !ok {
			return errors.Errorf("expected object for %s", dst.Type())
		}
		if dst.Type().Key().Kind() != reflect.String {
			return errors.Errorf("unsupported map key type %s", dst.Type().Key())
		}
		out := reflect.MakeMapWithSize(dst.Type(), len(m))
		for k, v := range m {
			ev := reflect.New(dst.Type().Elem()).Elem()
			if err := dec.assign(v, ev); err != nil {
				return errors.Wrapf(err, "key %s", k)
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(dst.Type().Key()), ev)
		}
		dst.Set(out)
		return nil
	case reflect.String:
		s, ok := node.(string)
		if !ok {
			return errors.Errorf("expected string for %s", dst.Type())
		}
		dst.SetString(s)
		return nil
	case reflect.Bool:
		b, ok := node.(bool)
		if !ok {
			return errors.Errorf("expected bool for %s", dst.Type())
		}
		dst.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f, ok := node.(float64)
		if !ok {
			return errors.Errorf("expected number for %s", dst.Type())
		}
		dst.SetInt(int64(f))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f, ok := node.(float64)
		if !ok {
			return errors.Errorf("expected number for %s", dst.Type())
		}
		dst.SetUint(uint64(f))
		return nil
	case reflect.Float32, reflect.Float64:
		f, ok := node.(float64)
		if !ok {
			return errors.Errorf("expected number for %s", dst.Type())
		}
		dst.SetFloat(f)
		return nil
	default:
		return errors.Errorf("unsupported kind %s", dst.Kind())
	}
}

// encodeNode turns a generic tree back into JSON bytes, for delegating to
// json.Unmarshaler implementations.
func encodeNode(node any) ([]byte, error) {
	var e jx.Encoder
	if err := writeNode(&e, node); err != nil {
		return nil, err
	}
	out := make([]byte, len(e.Bytes()))
	copy(out, e.Bytes())
	return out, nil
}

func writeNode(e *jx.Encoder, node any) error {
	switch n := node.(type) {
	case nil:
		e.Null()
	case string:
		e.Str(n)
	case bool:
		e.Bool(n)
	case float64:
		e.Float64(n)
	case []any:
		e.ArrStart()
		for _, elem := range n {
			if err := writeNode(e, elem); err != nil {
				return err
			}
		}
		e.ArrEnd()
	case map[string]any:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		e.ObjStart()
		for _, k := range keys {
			e.FieldStart(k)
			if err := writeNode(e, n[k]); err != nil {
				return err
			}
		}
		e.ObjEnd()
	default:
		return errors.Errorf("unsupported node type %T", node)
	}
	return nil
}

func markerID(m map[string]any, key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func asUnmarshaler(dst reflect.Value) (json.Unmarshaler, bool) {
	if dst.Type().Implements(unmarshalerType) && dst.Kind() != reflect.Ptr {
		return dst.Interface().(json.Unmarshaler), true
	}
	if dst.CanAddr() && reflect.PtrTo(dst.Type()).Implements(unmarshalerType) {
		return dst.Addr().Interface().(json.Unmarshaler), true
	}
	return nil, false
}
