package model

import (
	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v5"
)

// Encode serializes v with msgpack and compresses the result with snappy.
// Every Store write passes its record through this so record sizes stay
// comparable across backends that charge per byte.
func Encode(v any) ([]byte, error) {
	buf, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, buf), nil
}

// Decode is the inverse of Encode.
func Decode(buf []byte, v any) error {
	raw, err := snappy.Decode(nil, buf)
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(raw, v)
}
