// Package abi serializes Integrity verifier inputs.
//
// ABI structures are converted to a Value tree by a single traversal driven
// by their struct schema: the json tag of each field names it and the
// declaration order fixes its position. Felts become scalars, slices become
// arrays and structs become objects with ordered fields. The tree renders to
// deterministic JSON and can be parsed and decoded back into the structures.
package abi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrUnsupportedType is returned by Encode and Decode for types outside
	// the ABI: anything other than Felt, slices and structs of those.
	ErrUnsupportedType = errors.New("unsupported ABI type")
	// ErrSchema is returned when a value tree does not match the target
	// structure.
	ErrSchema = errors.New("ABI schema mismatch")
)

// Kind is the kind of a Value.
type Kind uint8

const (
	KindFelt Kind = iota + 1
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindFelt:
		return "felt"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "invalid"
}

// Value is a node of a serialized ABI tree.
type Value struct {
	Kind   Kind
	Felt   Felt    // KindFelt
	Elems  []Value // KindArray
	Fields []Field // KindObject, in schema order
}

// Field is a named member of an object Value.
type Field struct {
	Name  string
	Value Value
}

// Get returns the field called name of an object.
func (v Value) Get(name string) (Value, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

var feltType = reflect.TypeOf(Felt{})

type schemaField struct {
	name  string
	index int
}

var schemaCache sync.Map // reflect.Type -> []schemaField

func schemaOf(t reflect.Type) ([]schemaField, error) {
	if cached, ok := schemaCache.Load(t); ok {
		return cached.([]schemaField), nil
	}
	fields := make([]schemaField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return nil, fmt.Errorf("%w: %s.%s has no json name", ErrUnsupportedType, t.Name(), sf.Name)
		}
		fields = append(fields, schemaField{name: name, index: i})
	}
	schemaCache.Store(t, fields)
	return fields, nil
}

// Encode converts an ABI structure into a value tree. Nil slices encode as
// empty arrays.
func Encode(v any) (Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return Value{}, fmt.Errorf("%w: nil", ErrUnsupportedType)
	}
	return encode(rv, "$")
}

func encode(rv reflect.Value, path string) (Value, error) {
	if rv.Type() == feltType {
		return Value{Kind: KindFelt, Felt: rv.Interface().(Felt)}, nil
	}
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Value{}, fmt.Errorf("%w: nil pointer at %s", ErrUnsupportedType, path)
		}
		return encode(rv.Elem(), path)
	case reflect.Slice:
		elems := make([]Value, rv.Len())
		for i := range elems {
			e, err := encode(rv.Index(i), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return Value{}, err
			}
			elems[i] = e
		}
		return Value{Kind: KindArray, Elems: elems}, nil
	case reflect.Struct:
		schema, err := schemaOf(rv.Type())
		if err != nil {
			return Value{}, err
		}
		fields := make([]Field, len(schema))
		for i, sf := range schema {
			fv, err := encode(rv.Field(sf.index), path+"."+sf.name)
			if err != nil {
				return Value{}, err
			}
			fields[i] = Field{Name: sf.name, Value: fv}
		}
		return Value{Kind: KindObject, Fields: fields}, nil
	}
	return Value{}, fmt.Errorf("%w: %s at %s", ErrUnsupportedType, rv.Type(), path)
}

// MarshalJSON renders the tree. The output depends only on the tree: felts
// are hex strings and object fields keep their order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) write(buf *bytes.Buffer) error {
	switch v.Kind {
	case KindFelt:
		buf.WriteString(strconv.Quote(v.Felt.Hex()))
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.Elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.write(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, f := range v.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(f.Name)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := f.Value.write(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: value of kind %d", ErrSchema, v.Kind)
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseValue parses JSON into a value tree, keeping the order of object keys.
// Felts may be hex strings, decimal strings or JSON integers.
func ParseValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("%w: trailing data after value", ErrSchema)
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("%w: %w", ErrSchema, err)
	}
	switch t := tok.(type) {
	case string:
		f, err := ParseFelt(t)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindFelt, Felt: f}, nil
	case json.Number:
		f, err := ParseFelt(t.String())
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindFelt, Felt: f}, nil
	case json.Delim:
		switch t {
		case '[':
			elems := []Value{}
			for dec.More() {
				e, err := parseValue(dec)
				if err != nil {
					return Value{}, err
				}
				elems = append(elems, e)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("%w: %w", ErrSchema, err)
			}
			return Value{Kind: KindArray, Elems: elems}, nil
		case '{':
			fields := []Field{}
			for dec.More() {
				key, err := dec.Token()
				if err != nil {
					return Value{}, fmt.Errorf("%w: %w", ErrSchema, err)
				}
				fv, err := parseValue(dec)
				if err != nil {
					return Value{}, err
				}
				fields = append(fields, Field{Name: key.(string), Value: fv})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("%w: %w", ErrSchema, err)
			}
			return Value{Kind: KindObject, Fields: fields}, nil
		}
	}
	return Value{}, fmt.Errorf("%w: unexpected token %v", ErrSchema, tok)
}

// Decode fills the ABI structure pointed to by out from v. Objects must carry
// exactly the schema's fields, in schema order.
func Decode(v Value, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: decode target must be a non-nil pointer, got %T", ErrUnsupportedType, out)
	}
	return decode(v, rv.Elem(), "$")
}

func decode(v Value, rv reflect.Value, path string) error {
	if rv.Type() == feltType {
		if v.Kind != KindFelt {
			return fmt.Errorf("%w: %s: want felt, got %s", ErrSchema, path, v.Kind)
		}
		rv.Set(reflect.ValueOf(v.Felt))
		return nil
	}
	switch rv.Kind() {
	case reflect.Slice:
		if v.Kind != KindArray {
			return fmt.Errorf("%w: %s: want array, got %s", ErrSchema, path, v.Kind)
		}
		s := reflect.MakeSlice(rv.Type(), len(v.Elems), len(v.Elems))
		for i, e := range v.Elems {
			if err := decode(e, s.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		rv.Set(s)
		return nil
	case reflect.Struct:
		if v.Kind != KindObject {
			return fmt.Errorf("%w: %s: want object, got %s", ErrSchema, path, v.Kind)
		}
		schema, err := schemaOf(rv.Type())
		if err != nil {
			return err
		}
		if len(v.Fields) != len(schema) {
			return fmt.Errorf("%w: %s: want %d fields, got %d", ErrSchema, path, len(schema), len(v.Fields))
		}
		for i, sf := range schema {
			if v.Fields[i].Name != sf.name {
				return fmt.Errorf("%w: %s: field %d is %q, want %q", ErrSchema, path, i, v.Fields[i].Name, sf.name)
			}
			if err := decode(v.Fields[i].Value, rv.Field(sf.index), path+"."+sf.name); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %s at %s", ErrUnsupportedType, rv.Type(), path)
}

// Marshal encodes v and renders it as JSON.
func Marshal(v any) ([]byte, error) {
	val, err := Encode(v)
	if err != nil {
		return nil, err
	}
	return val.MarshalJSON()
}

// Unmarshal parses data and decodes it into out.
func Unmarshal(data []byte, out any) error {
	v, err := ParseValue(data)
	if err != nil {
		return err
	}
	return Decode(v, out)
}
