// Package codec implements the low-level byte packing used by the table
// header, field descriptors, and fixed-width record bodies: little- and
// big-endian integers, packed dates, and padded field names.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// OverflowError reports a value that does not fit in its destination.
type OverflowError struct {
	What string
	Max  int
	Got  int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%s overflow: max %d, got %d", e.What, e.Max, e.Got)
}

// PutUint16LE packs v into 2 bytes, little-endian.
func PutUint16LE(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

// Uint16LE unpacks a little-endian uint16.
func Uint16LE(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

// PutUint32LE packs v into 4 bytes, little-endian.
func PutUint32LE(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// Uint32LE unpacks a little-endian uint32.
func Uint32LE(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// PutUint32BE packs v into 4 bytes, big-endian (used by VFP memo headers).
func PutUint32BE(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// Uint32BE unpacks a big-endian uint32.
func Uint32BE(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// PutUint16BE packs v into 2 bytes, big-endian.
func PutUint16BE(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

// Uint16BE unpacks a big-endian uint16.
func Uint16BE(b []byte) uint16 { return binary.BigEndian.Uint16(b) }

// PutInt32LE packs a little-endian int32 (type I fields).
func PutInt32LE(v int32) []byte { return PutUint32LE(uint32(v)) }

// Int32LE unpacks a little-endian int32.
func Int32LE(b []byte) int32 { return int32(Uint32LE(b)) }

// PutInt64LE packs a little-endian int64 (type Y currency, scaled x10000).
func PutInt64LE(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}

// Int64LE unpacks a little-endian int64.
func Int64LE(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) }

// PutFloat64LE packs an IEEE-754 double, little-endian (type B fields).
func PutFloat64LE(v float64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return b
}

// Float64LE unpacks a little-endian IEEE-754 double.
func Float64LE(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// PackHeaderDate packs a calendar date into the header's 3-byte
// (year-1900, month, day) form used at header offset 1..3 and in field
// descriptor update stamps.
func PackHeaderDate(year, month, day int) [3]byte {
	return [3]byte{byte(year - 1900), byte(month), byte(day)}
}

// UnpackHeaderDate is the inverse of PackHeaderDate, adding 1900 to the
// stored year byte.
func UnpackHeaderDate(b [3]byte) (year, month, day int) {
	return 1900 + int(b[0]), int(b[1]), int(b[2])
}

const maxFieldName = 10

// PackFieldName upper-cases and NUL-pads name into an 11-byte frame.
// Names longer than 10 bytes overflow.
func PackFieldName(name string) ([11]byte, error) {
	var out [11]byte
	if len(name) > maxFieldName {
		return out, &OverflowError{What: "field name", Max: maxFieldName, Got: len(name)}
	}
	upper := strings.ToUpper(name)
	copy(out[:], upper)
	return out, nil
}

// UnpackFieldName reads a NUL-terminated name and lower-cases it.
func UnpackFieldName(b []byte) string {
	n := len(b)
	for i, c := range b {
		if c == 0 {
			n = i
			break
		}
	}
	return strings.ToLower(string(b[:n]))
}

// PadRight right-pads s with spaces to exactly n bytes, or truncates to n
// when s is longer than n (callers that must not silently truncate check
// length before calling).
func PadRight(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

// PadLeft left-pads s with spaces to exactly n bytes.
func PadLeft(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return strings.Repeat(" ", n-len(s)) + s
}
