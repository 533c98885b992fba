// Package wire holds the binary primitives shared by the record format and
// the value codecs: unsigned varints, big-endian u16, and sized
// (varint-length-prefixed) strings and byte blobs.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Reader is the input side of the wire primitives. *bytes.Reader satisfies it.
type Reader interface {
	io.Reader
	io.ByteReader
}

// maxSizedLen bounds a single sized string/blob; guards against absurd sizes
// in corrupt input before allocating.
const maxSizedLen = 1 << 30

// WriteUint16 writes v as 2 bytes big-endian.
func WriteUint16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// ReadUint16 reads 2 bytes big-endian.
func ReadUint16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// WriteUvarint writes v in the encoding/binary unsigned varint encoding.
func WriteUvarint(w io.Writer, v uint64) error {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(b[:], v)
	_, err := w.Write(b[:n])
	return err
}

// ReadUvarint reads an unsigned varint.
func ReadUvarint(r io.ByteReader) (uint64, error) {
	return binary.ReadUvarint(r)
}

// WriteBytes writes a sized blob: uvarint length followed by the raw bytes.
func WriteBytes(w io.Writer, b []byte) error {
	if err := WriteUvarint(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadBytes reads a sized blob written by WriteBytes.
func ReadBytes(r Reader) ([]byte, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if n > maxSizedLen {
		return nil, fmt.Errorf("sized value too large: %d bytes", n)
	}
	b := make([]byte, int(n))
	if _, err := io.ReadFull(r, b); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return b, nil
}

// WriteString writes a sized UTF-8 string.
func WriteString(w io.Writer, s string) error {
	if err := WriteUvarint(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadString reads a sized UTF-8 string written by WriteString.
func ReadString(r Reader) (string, error) {
	b, err := ReadBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
