// Package header models the 32-byte table header, the field-descriptor
// array that follows it, and the trailing "extra" region, as a mutable
// byte buffer with typed accessors. Grounded on the teacher's
// DbfHeader/parseDbfHeader/writeDbfHeader (data4.go, write4.go,
// create4.go), generalized to cover VFP (version 0x30) creation, which
// the teacher's D4Create never implemented.
package header

import (
	"fmt"
	"time"

	"github.com/mkfoss/xbase/pkg/core/codec"
	"github.com/mkfoss/xbase/pkg/core/fieldtype"
	"github.com/mkfoss/xbase/pkg/core/xerr"
)

// Version bytes (spec §6).
const (
	VersionDBaseIII     byte = 0x03
	VersionDBaseIIIMemo byte = 0x83
	VersionVisualFoxPro byte = 0x30
	VersionFoxProMemo   byte = 0xF5
)

const (
	yesMemoMask byte = 0x80
	noMemoMask  byte = 0x7F
)

// Dialect is the table's on-disk family, derived from the version byte.
type Dialect int

const (
	DialectDBaseIII Dialect = iota
	DialectFoxPro
	DialectVisualFoxPro
)

func (d Dialect) FieldTypeDialect() fieldtype.Dialect {
	switch d {
	case DialectVisualFoxPro:
		return fieldtype.VisualFoxPro
	case DialectFoxPro:
		return fieldtype.FoxPro
	default:
		return fieldtype.DBaseIII
	}
}

// Descriptor is one 32-byte field descriptor.
type Descriptor struct {
	Name     string
	Type     byte
	Start    uint32 // VFP explicit start; dBase III computes sequentially
	Length   byte
	Decimals byte
	Flags    byte
}

const descriptorSize = 32
const headerSize = 32

// Header is the mutable 32-byte table header plus its field descriptors
// and extra region.
type Header struct {
	Version      byte
	LastUpdated  [3]byte // (year-1900, month, day)
	RecordCount  uint32
	HeaderLength uint16 // start-of-records offset
	RecordLength uint16
	Codepage     byte
	Fields       []Descriptor
	Extra        []byte // bytes between the 0x0D terminator and start-of-records
}

// Dialect derives the version family from Version.
func (h *Header) Dialect() Dialect {
	switch h.Version &^ yesMemoMask {
	case VersionVisualFoxPro &^ yesMemoMask:
		return DialectVisualFoxPro
	case VersionFoxProMemo &^ yesMemoMask:
		return DialectFoxPro
	default:
		return DialectDBaseIII
	}
}

// HasMemo reports whether the version byte's memo bit is set.
func (h *Header) HasMemo() bool { return h.Version&yesMemoMask != 0 || h.Version == VersionFoxProMemo }

// SetMemoBit flips the version byte's memo indicator on or off, per
// spec §6 (_yesMemoMask OR, _noMemoMask AND).
func (h *Header) SetMemoBit(on bool) {
	if on {
		h.Version |= yesMemoMask
		if h.Version&noMemoMask == (VersionDBaseIII &^ yesMemoMask) {
			h.Version = VersionDBaseIIIMemo
		}
	} else {
		h.Version &= noMemoMask
	}
}

// LastUpdatedTime returns LastUpdated as a time.Time (UTC, midnight).
func (h *Header) LastUpdatedTime() time.Time {
	y, m, d := codec.UnpackHeaderDate(h.LastUpdated)
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// Touch stamps LastUpdated with t's date. The table engine calls it only
// when Create writes a new header; appends, record writes, packs and
// field mutations leave LastUpdated unchanged.
func (h *Header) Touch(t time.Time) {
	h.LastUpdated = codec.PackHeaderDate(t.Year(), int(t.Month()), t.Day())
}

// RecomputeRecordLength sets RecordLength from the current Fields slice
// (1 delete-flag byte plus the sum of field lengths), per the setter
// contract in spec §4.6.
func (h *Header) RecomputeRecordLength() {
	total := 1
	for _, f := range h.Fields {
		total += int(f.Length)
	}
	h.RecordLength = uint16(total)
}

// RecomputeHeaderLength sets HeaderLength (start-of-records offset) from
// the current Fields slice and Extra region: 32 + 32*n + 1 (terminator)
// + len(Extra).
func (h *Header) RecomputeHeaderLength() {
	h.HeaderLength = uint16(headerSize + descriptorSize*len(h.Fields) + 1 + len(h.Extra))
}

// Encode serializes the header, field descriptors, terminator, and
// extra region into one buffer ready to be written at file offset 0.
func (h *Header) Encode() []byte {
	buf := make([]byte, h.HeaderLength)
	buf[0] = h.Version
	copy(buf[1:4], h.LastUpdated[:])
	copy(buf[4:8], codec.PutUint32LE(h.RecordCount))
	copy(buf[8:10], codec.PutUint16LE(h.HeaderLength))
	copy(buf[10:12], codec.PutUint16LE(h.RecordLength))
	buf[29] = h.Codepage

	off := headerSize
	for _, f := range h.Fields {
		encodeDescriptor(buf[off:off+descriptorSize], f, h.Dialect())
		off += descriptorSize
	}
	buf[off] = 0x0D
	off++
	copy(buf[off:], h.Extra)
	return buf
}

func encodeDescriptor(dst []byte, f Descriptor, dialect Dialect) {
	nameBuf, _ := codec.PackFieldName(f.Name)
	copy(dst[0:11], nameBuf[:])
	dst[11] = f.Type
	if dialect == DialectVisualFoxPro {
		copy(dst[12:16], codec.PutUint32LE(f.Start))
	}
	dst[16] = f.Length
	dst[17] = f.Decimals
	dst[18] = f.Flags
}

// Decode parses a header (and its field descriptors/extra region) from
// raw file bytes beginning at offset 0.
func Decode(raw []byte) (*Header, error) {
	if len(raw) < headerSize {
		return nil, xerr.NewDbfError("header.Decode", "file too short for a table header")
	}
	h := &Header{
		Version:      raw[0],
		RecordCount:  codec.Uint32LE(raw[4:8]),
		HeaderLength: codec.Uint16LE(raw[8:10]),
		RecordLength: codec.Uint16LE(raw[10:12]),
		Codepage:     raw[29],
	}
	copy(h.LastUpdated[:], raw[1:4])

	if !validVersion(h.Version) {
		return nil, xerr.NewDbfError("header.Decode", fmt.Sprintf("unsupported version byte 0x%02X", h.Version))
	}
	if h.HeaderLength < headerSize+1 {
		return nil, xerr.NewDbfError("header.Decode", "header length too small")
	}
	if int(h.HeaderLength) > len(raw) {
		return nil, xerr.NewDbfError("header.Decode", "header length exceeds file size")
	}

	dialect := h.Dialect()
	off := headerSize
	for off+descriptorSize <= len(raw) && raw[off] != 0x0D {
		d := decodeDescriptor(raw[off:off+descriptorSize], dialect)
		h.Fields = append(h.Fields, d)
		off += descriptorSize
	}
	if off >= len(raw) || raw[off] != 0x0D {
		return nil, xerr.NewDbfError("header.Decode", "missing field descriptor terminator")
	}
	off++

	if int(h.HeaderLength) > off {
		h.Extra = append([]byte{}, raw[off:h.HeaderLength]...)
	}

	if dialect != DialectVisualFoxPro {
		assignSequentialStarts(h.Fields)
	}
	return h, nil
}

func validVersion(v byte) bool {
	switch v {
	case VersionDBaseIII, VersionDBaseIIIMemo, VersionVisualFoxPro, VersionFoxProMemo:
		return true
	}
	return v&noMemoMask == (VersionVisualFoxPro &^ yesMemoMask)
}

func decodeDescriptor(raw []byte, dialect Dialect) Descriptor {
	d := Descriptor{
		Name:     codec.UnpackFieldName(raw[0:11]),
		Type:     raw[11],
		Length:   raw[16],
		Decimals: raw[17],
		Flags:    raw[18],
	}
	if dialect == DialectVisualFoxPro {
		d.Start = codec.Uint32LE(raw[12:16])
	}
	return d
}

func assignSequentialStarts(fields []Descriptor) {
	start := uint32(1)
	for i := range fields {
		fields[i].Start = start
		start += uint32(fields[i].Length)
	}
}

// StartOfRecords is the computed data-start offset: 32 + 32*n + 1,
// before accounting for any extra region (spec §3). Callers that need
// the true on-disk offset should use HeaderLength, which includes Extra.
func StartOfRecords(fieldCount int) int {
	return headerSize + descriptorSize*fieldCount + 1
}

// New builds a fresh header for field specs under dialect, with
// RecordCount 0 and no extra region except the VFP convention of 263
// zero bytes (spec §6).
func New(fields []Descriptor, dialect Dialect, codepage byte, hasMemo bool) *Header {
	h := &Header{Fields: fields, Codepage: codepage}
	switch dialect {
	case DialectVisualFoxPro:
		h.Version = VersionVisualFoxPro
		h.Extra = make([]byte, 263)
		h.SetMemoBit(hasMemo)
	case DialectFoxPro:
		// FoxPro 2's own memo byte is 0xF5; without a memo it is
		// byte-identical to dBase III plus (0x03) — FoxPro 2 never had a
		// distinct no-memo version byte, so SetMemoBit's generic OR-mask
		// doesn't apply here.
		if hasMemo {
			h.Version = VersionFoxProMemo
		} else {
			h.Version = VersionDBaseIII
		}
	default:
		h.Version = VersionDBaseIII
		h.SetMemoBit(hasMemo)
	}
	h.RecomputeRecordLength()
	h.RecomputeHeaderLength()
	return h
}
