package main

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Serialization here is deliberately manual and dumb: fixed-size values
// written little-endian, slices and strings prefixed by their length. I want
// the byte layout of a recorded run to be fully specified by this file and
// nothing else. encoding/gob or any reflection-based format would tie the
// bytes to details I don't control, and InputVersion would have to change
// whenever a library changes its mind.

func Serialize(w io.Writer, data any) {
	err := binary.Write(w, binary.LittleEndian, data)
	Check(err)
}

func Deserialize(r io.Reader, data any) {
	err := binary.Read(r, binary.LittleEndian, data)
	Check(err)
}

func SerializeString(w io.Writer, s string) {
	Serialize(w, int64(len(s)))
	_, err := w.Write([]byte(s))
	Check(err)
}

func DeserializeString(r io.Reader, s *string) {
	var n int64
	Deserialize(r, &n)
	data := make([]byte, n)
	_, err := io.ReadFull(r, data)
	Check(err)
	*s = string(data)
}

func SerializeSlice[T any](w io.Writer, s []T) {
	Serialize(w, int64(len(s)))
	for i := range s {
		Serialize(w, s[i])
	}
}

func DeserializeSlice[T any](r io.Reader, s *[]T) {
	var n int64
	Deserialize(r, &n)
	*s = make([]T, n)
	for i := range *s {
		Deserialize(r, &(*s)[i])
	}
}

func Zip(data []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	Check(err)
	Check(w.Close())
	return buf.Bytes()
}

func Unzip(data []byte) []byte {
	r, err := gzip.NewReader(bytes.NewReader(data))
	Check(err)
	out, err := io.ReadAll(r)
	Check(err)
	Check(r.Close())
	return out
}
