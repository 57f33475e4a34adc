// Package json is the module's JSON codec. It wraps jsoniter in its
// standard-library compatible mode and fills `default` struct tags before
// every encode and decode.
package json

import (
	"io"
	"reflect"

	"github.com/creasty/defaults"
	jsoniter "github.com/json-iterator/go"
)

var api = jsoniter.ConfigCompatibleWithStandardLibrary

// Encoder fills defaults on each value before encoding it.
type Encoder struct {
	*jsoniter.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{Encoder: api.NewEncoder(w)}
}

func (e *Encoder) Encode(v any) error {
	if err := setDefaults(v); err != nil {
		return err
	}
	return e.Encoder.Encode(v)
}

// Decoder fills defaults on the target before decoding into it, so fields
// absent from the input keep their default.
type Decoder struct {
	*jsoniter.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{Decoder: api.NewDecoder(r)}
}

func (d *Decoder) Decode(v any) error {
	if err := setDefaults(v); err != nil {
		return err
	}
	return d.Decoder.Decode(v)
}

func Marshal(v any) ([]byte, error) {
	if err := setDefaults(v); err != nil {
		return nil, err
	}
	return api.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	if err := setDefaults(v); err != nil {
		return nil, err
	}
	return api.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	if err := setDefaults(v); err != nil {
		return err
	}
	return api.Unmarshal(data, v)
}

// setDefaults only touches struct pointers; maps, slices and scalars pass
// through untouched.
func setDefaults(v any) error {
	if !isStructPtr(v) {
		return nil
	}
	return defaults.Set(v)
}

func isStructPtr(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct
}
