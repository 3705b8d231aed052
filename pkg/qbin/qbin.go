// Package qbin implements a compact binary container for QUBO problems.
//
// A file is a fixed 32-byte little-endian header followed by the upper
// triangle of the coefficient matrix as int32 values in row-major order.
// Files are memory-mappable and never carry runtime settings.
package qbin

import (
	"encoding/binary"
	"errors"
)

// Format constants must never change.
const (
	// Magic is the file magic, "QUBO".
	Magic = "QUBO"

	// CurrentMajor changes only with breaking format changes.
	CurrentMajor uint16 = 1
	// CurrentMinor changes when optional fields are added.
	CurrentMinor uint16 = 0

	// HeaderSize is the encoded size of Header.
	HeaderSize = 32

	payloadAlign = 8
	valueBytes   = 4
)

var (
	ErrInvalidMagic     = errors.New("invalid QUBO container magic")
	ErrUnsupportedMajor = errors.New("unsupported QUBO container major version")
	ErrCorruptFile      = errors.New("corrupt QUBO container")
)

// Header is the fixed file header.
type Header struct {
	Magic         [4]byte
	Major         uint16
	Minor         uint16
	Flags         uint32
	Size          uint32
	PayloadOffset uint32
	ValueCount    uint32
	FileSize      uint64
}

func (h *Header) Valid() bool {
	return string(h.Magic[:]) == Magic
}

func (h *Header) Compatible() bool {
	return h.Major == CurrentMajor
}

// triangle is the number of stored values for n variables.
func triangle(n uint64) uint64 {
	return n * (n + 1) / 2
}

func encodeHeader(dst []byte, h Header) bool {
	if len(dst) < HeaderSize {
		return false
	}
	le := binary.LittleEndian
	copy(dst[0:4], h.Magic[:])
	le.PutUint16(dst[4:6], h.Major)
	le.PutUint16(dst[6:8], h.Minor)
	le.PutUint32(dst[8:12], h.Flags)
	le.PutUint32(dst[12:16], h.Size)
	le.PutUint32(dst[16:20], h.PayloadOffset)
	le.PutUint32(dst[20:24], h.ValueCount)
	le.PutUint64(dst[24:32], h.FileSize)
	return true
}

func decodeHeader(src []byte) (Header, bool) {
	if len(src) < HeaderSize {
		return Header{}, false
	}
	le := binary.LittleEndian
	var h Header
	copy(h.Magic[:], src[0:4])
	h.Major = le.Uint16(src[4:6])
	h.Minor = le.Uint16(src[6:8])
	h.Flags = le.Uint32(src[8:12])
	h.Size = le.Uint32(src[12:16])
	h.PayloadOffset = le.Uint32(src[16:20])
	h.ValueCount = le.Uint32(src[20:24])
	h.FileSize = le.Uint64(src[24:32])
	return h, true
}
