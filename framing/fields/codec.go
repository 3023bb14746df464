package fields

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// SpecError reports a malformed "field" struct tag discovered while
// building the codec for a type. It is a programmer error, not a wire
// error, and is only ever produced while parsing struct tags.
type SpecError struct {
	msg string
}

func (e SpecError) Error() string {
	return e.msg
}

func specErrorf(format string, a ...interface{}) SpecError {
	return SpecError{fmt.Sprintf(format, a...)}
}

// Decode decodes v, which must be a pointer to a struct whose fields
// carry "field" tags, from the decoder's underlying reader.
func (d *Decoder) Decode(v interface{}) error {
	t := reflect.TypeOf(v)
	value := reflect.ValueOf(v)
	if t.Kind() == reflect.Ptr {
		if value.IsNil() {
			return errors.New("fields: nil pointer passed to Decode")
		}
		t = t.Elem()
		value = reflect.Indirect(value)
	}
	if t.Kind() != reflect.Struct {
		return specErrorf("fields: unsupported type %v", reflect.TypeOf(v))
	}
	if err := d.decodeStruct(value); err != nil {
		return err
	}
	if !d.IsClean() {
		panic(specErrorf("fields: struct %v is not byte-aligned", t))
	}
	return nil
}

// Encode encodes v, which must be a struct or pointer to struct whose
// fields carry "field" tags, to the encoder's underlying writer.
func (e *Encoder) Encode(v interface{}) error {
	t := reflect.TypeOf(v)
	value := reflect.ValueOf(v)
	if t.Kind() == reflect.Ptr {
		if value.IsNil() {
			return errors.New("fields: nil pointer passed to Encode")
		}
		t = t.Elem()
		value = reflect.Indirect(value)
	}
	if t.Kind() != reflect.Struct {
		return specErrorf("fields: unsupported type %v", reflect.TypeOf(v))
	}
	if err := e.encodeStruct(value); err != nil {
		return err
	}
	if !e.IsClean() {
		panic(specErrorf("fields: struct %v is not byte-aligned", t))
	}
	return nil
}

func (d *Decoder) decodeStruct(v reflect.Value) (err error) {
	si, err := parseStruct(v.Type())
	if err != nil {
		return err
	}

	for i, fi := range si {
		if fi == nil {
			continue
		}
		if err = fi.decode(d, v.Field(i), fi); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeStruct(v reflect.Value) (err error) {
	si, err := parseStruct(v.Type())
	if err != nil {
		return err
	}

	for i, fi := range si {
		if fi == nil {
			continue
		}
		if err = fi.encode(e, v.Field(i), fi); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) decodeSlice(v reflect.Value, fi *fieldInfo) (err error) {
	n, err := d.ReadBits(fi.lenbits)
	if err != nil {
		return err
	}
	v.SetLen(0)
	out := v
	for i := 0; i < int(n); i++ {
		elem := reflect.New(fi.elemIndirectType)
		if err = fi.decodeElem(d, reflect.Indirect(elem), nil); err != nil {
			return err
		}
		out = reflect.Append(out, reflect.Indirect(elem))
	}
	v.Set(out)
	return nil
}

func (e *Encoder) encodeSlice(v reflect.Value, fi *fieldInfo) (err error) {
	n := uint32(v.Len())
	if err = e.WriteBits(fi.lenbits, n); err != nil {
		return err
	}
	for i := 0; i < int(n); i++ {
		if err = fi.encodeElem(e, v.Index(i), nil); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) decodeUint(v reflect.Value, fi *fieldInfo) (err error) {
	n, err := d.ReadBits(fi.bits)
	if err != nil {
		return err
	}
	v.SetUint(uint64(n))
	return nil
}

func (e *Encoder) encodeUint(v reflect.Value, fi *fieldInfo) (err error) {
	return e.WriteBits(fi.bits, uint32(v.Uint()))
}
