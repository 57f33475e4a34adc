package sheet

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

// Field is one key/value pair of a Record. Readers store a string, or nil
// for a missing cell; writers accept any value WriteValue does.
type Field struct {
	Key   string
	Value any
}

// Record is an ordered row snapshot.
type Record []Field

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// String returns the value under key as a string, "" when missing or nil.
func (r Record) String(key string) string {
	v, _ := r.Get(key)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// Keys returns the keys in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// Set replaces the value under key or appends a new field.
func (r *Record) Set(key string, value any) {
	for i := range *r {
		if (*r)[i].Key == key {
			(*r)[i].Value = value
			return
		}
	}
	*r = append(*r, Field{Key: key, Value: value})
}

// MarshalJSON encodes the record as an object, keeping field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	stream := jsoniter.NewStream(jsoniter.ConfigCompatibleWithStandardLibrary, &buf, 256)
	stream.WriteObjectStart()
	for i, f := range r {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(f.Key)
		stream.WriteVal(f.Value)
	}
	stream.WriteObjectEnd()
	if err := stream.Flush(); err != nil {
		return nil, err
	}
	if stream.Error != nil {
		return nil, stream.Error
	}
	return buf.Bytes(), nil
}
