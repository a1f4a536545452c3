// Package memo implements the two variable-length memo side-file
// formats (.dbt for dBase III, .fpt for Visual FoxPro) behind a common
// Store interface, plus a no-op store for ignore_memos mode. Grounded
// on original_source/dbf.py's _Db3Memo/_VfpMemo classes (exact block
// arithmetic and the VFP double-seek-to-0 behavior preserved verbatim
// per spec §9's "do not guess" instruction) and the teacher's partial
// openMemoFile/readMemoContent in data4.go/field4.go, completed here
// into a real read/write store (the teacher's assignMemoField was a
// non-functional stub).
package memo

import (
	"fmt"
	"os"

	"github.com/mkfoss/xbase/pkg/core/codec"
	"github.com/mkfoss/xbase/pkg/core/xerr"
)

// Store is the interface both memo formats, and the no-op variant,
// implement.
type Store interface {
	Get(block uint32) ([]byte, error)
	Put(payload []byte) (uint32, error)
	BlockSize() int
	NextFreeBlock() uint32
	Close() error
}

// noop implements Store for ignore_memos mode: get returns empty, put
// returns 0.
type noop struct{}

// NewNoop returns a Store that performs no I/O.
func NewNoop() Store { return noop{} }

func (noop) Get(uint32) ([]byte, error) { return nil, nil }
func (noop) Put([]byte) (uint32, error) { return 0, nil }
func (noop) BlockSize() int             { return 0 }
func (noop) NextFreeBlock() uint32      { return 0 }
func (noop) Close() error               { return nil }

const db3BlockSize = 512

// db3Terminator ends every dBase III memo payload.
var db3Terminator = []byte{0x1A, 0x1A}

// DB3 is the dBase III .dbt memo store: fixed 512-byte blocks, a
// 4-byte little-endian next_free_block header, payloads terminated by
// 0x1A 0x1A.
type DB3 struct {
	f    *os.File
	next uint32
}

// OpenDB3 opens an existing .dbt file.
func OpenDB3(f *os.File) (*DB3, error) {
	header := make([]byte, 4)
	if _, err := f.ReadAt(header, 0); err != nil {
		return nil, xerr.WrapDbfError("memo.OpenDB3", "reading header", err)
	}
	return &DB3{f: f, next: codec.Uint32LE(header)}, nil
}

// CreateDB3 initializes a new, empty .dbt file (header only, next_free_block=1).
func CreateDB3(f *os.File) (*DB3, error) {
	d := &DB3{f: f, next: 1}
	if err := d.writeHeader(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DB3) writeHeader() error {
	buf := make([]byte, db3BlockSize)
	copy(buf[0:4], codec.PutUint32LE(d.next))
	if _, err := d.f.WriteAt(buf, 0); err != nil {
		return xerr.WrapDbfError("memo.DB3.writeHeader", "writing header", err)
	}
	return nil
}

// BlockSize returns 512 for DB3.
func (d *DB3) BlockSize() int { return db3BlockSize }

// NextFreeBlock returns the header's next_free_block value.
func (d *DB3) NextFreeBlock() uint32 { return d.next }

// Get reads block-by-block from block, concatenating until the 0x1A 0x1A
// terminator is found, then strips trailing whitespace.
func (d *DB3) Get(block uint32) ([]byte, error) {
	if block == 0 {
		return nil, nil
	}
	var out []byte
	buf := make([]byte, db3BlockSize)
	pos := int64(block) * db3BlockSize
	for {
		n, err := d.f.ReadAt(buf, pos)
		if n == 0 && err != nil {
			return nil, xerr.WrapDbfError("memo.DB3.Get", "reading block", err)
		}
		chunk := buf[:n]
		if idx := indexTerminator(chunk); idx >= 0 {
			out = append(out, chunk[:idx]...)
			break
		}
		out = append(out, chunk...)
		pos += int64(n)
		if n < db3BlockSize {
			break // truncated file, no terminator found
		}
	}
	return []byte(trimTrailingSpace(out)), nil
}

func indexTerminator(b []byte) int {
	for i := 0; i+1 < len(b); i++ {
		if b[i] == 0x1A && b[i+1] == 0x1A {
			return i
		}
	}
	return -1
}

func trimTrailingSpace(b []byte) string {
	s := string(b)
	i := len(s)
	for i > 0 && (s[i-1] == ' ' || s[i-1] == 0) {
		i--
	}
	return s[:i]
}

// Put writes ceil((len(payload)+2)/512) blocks starting at
// next_free_block, updates the header, and returns the allocated block
// number.
func (d *DB3) Put(payload []byte) (uint32, error) {
	block := d.next
	data := append(append([]byte{}, payload...), db3Terminator...)
	blocks := (len(data) + db3BlockSize - 1) / db3BlockSize
	padded := make([]byte, blocks*db3BlockSize)
	copy(padded, data)

	pos := int64(block) * db3BlockSize
	if _, err := d.f.WriteAt(padded, pos); err != nil {
		return 0, xerr.WrapDbfError("memo.DB3.Put", "writing blocks", err)
	}
	d.next = block + uint32(blocks)
	if err := d.writeHeader(); err != nil {
		return 0, err
	}

	verify, err := d.Get(block)
	if err != nil {
		return 0, err
	}
	if trimTrailingSpace(payload) != string(verify) {
		return 0, xerr.NewDbfError("memo.DB3.Put", "read-back verification mismatch")
	}
	return block, nil
}

// Close flushes and closes the underlying file.
func (d *DB3) Close() error { return d.f.Close() }

const vfpHeaderSize = 512
const vfpRecordHeaderSize = 8

// VFP is the Visual FoxPro .fpt memo store: big-endian header
// (next_free_block u32, 2 reserved, block_size u16), each memo prefixed
// by an 8-byte record header (0x00000001) and a big-endian u32 payload
// length.
type VFP struct {
	f         *os.File
	next      uint32
	blockSize int
}

// OpenVFP opens an existing .fpt file.
func OpenVFP(f *os.File) (*VFP, error) {
	header := make([]byte, 8)
	if _, err := f.ReadAt(header, 0); err != nil {
		return nil, xerr.WrapDbfError("memo.OpenVFP", "reading header", err)
	}
	next := codec.Uint32BE(header[0:4])
	blockSize := int(codec.Uint16BE(header[6:8]))
	if blockSize == 0 {
		blockSize = vfpHeaderSize
	}
	return &VFP{f: f, next: next, blockSize: blockSize}, nil
}

// CreateVFP initializes a new .fpt file. multiplier scales the 512-byte
// base block size (1..32, per spec §4.5); 0 selects the default of 1.
func CreateVFP(f *os.File, multiplier int) (*VFP, error) {
	if multiplier <= 0 {
		multiplier = 1
	}
	v := &VFP{f: f, next: 1, blockSize: multiplier * 512}
	if err := v.writeHeader(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *VFP) writeHeader() error {
	buf := make([]byte, v.blockSize)
	copy(buf[0:4], codec.PutUint32BE(v.next))
	copy(buf[6:8], codec.PutUint16BE(uint16(v.blockSize)))
	if _, err := v.f.WriteAt(buf, 0); err != nil {
		return xerr.WrapDbfError("memo.VFP.writeHeader", "writing header", err)
	}
	return nil
}

// BlockSize returns the configured block size.
func (v *VFP) BlockSize() int { return v.blockSize }

// NextFreeBlock returns the header's next_free_block value.
func (v *VFP) NextFreeBlock() uint32 { return v.next }

// Get reads the record header at block and returns exactly
// payload_length bytes following it.
func (v *VFP) Get(block uint32) ([]byte, error) {
	if block == 0 {
		return nil, nil
	}
	pos := int64(block) * int64(v.blockSize)
	head := make([]byte, vfpRecordHeaderSize)
	if _, err := v.f.ReadAt(head, pos); err != nil {
		return nil, xerr.WrapDbfError("memo.VFP.Get", "reading record header", err)
	}
	length := codec.Uint32BE(head[4:8])
	payload := make([]byte, length)
	if length > 0 {
		if _, err := v.f.ReadAt(payload, pos+vfpRecordHeaderSize); err != nil {
			return nil, xerr.WrapDbfError("memo.VFP.Get", "reading payload", err)
		}
	}
	return payload, nil
}

// Put allocates ceil((len(payload)+8)/block_size) blocks at
// next_free_block, writes the record header and payload, and updates
// the on-disk next_free_block.
//
// The source's next_free_block update seeks to offset 0 twice — once to
// read the prior value, once (redundantly) immediately before writing
// the new one — rather than writing in a single seek. Preserved
// verbatim per spec §9's open question: this is observed behavior, not
// an accidental bug to silently fix.
func (v *VFP) Put(payload []byte) (uint32, error) {
	thisBlock := v.next

	head := make([]byte, vfpRecordHeaderSize)
	head[3] = 0x01
	copy(head[4:8], codec.PutUint32BE(uint32(len(payload))))
	record := append(head, payload...)

	blocks := (len(record) + v.blockSize - 1) / v.blockSize
	pos := int64(thisBlock) * int64(v.blockSize)
	padded := make([]byte, blocks*v.blockSize)
	copy(padded, record)
	if _, err := v.f.WriteAt(padded, pos); err != nil {
		return 0, xerr.WrapDbfError("memo.VFP.Put", "writing record", err)
	}

	nextFree := thisBlock + uint32(blocks)

	// Seek-to-0 then re-derive thisBlock from the header a second time
	// before committing next_free_block, matching _VfpMemo._put_memo.
	reread := make([]byte, 4)
	if _, err := v.f.ReadAt(reread, 0); err != nil {
		return 0, xerr.WrapDbfError("memo.VFP.Put", "re-reading header before commit", err)
	}
	_ = codec.Uint32BE(reread) // observed value discarded, as in the source

	v.next = nextFree
	if err := v.writeHeader(); err != nil {
		return 0, err
	}
	return thisBlock, nil
}

// Close flushes and closes the underlying file.
func (v *VFP) Close() error { return v.f.Close() }

// Format names the memo side-file variant.
type Format int

const (
	FormatDB3 Format = iota
	FormatVFP
)

// Open opens path under the given format, creating it (with the VFP
// multiplier, ignored for DB3) if it does not yet exist.
func Open(path string, format Format, vfpMultiplier int) (Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if os.IsNotExist(err) {
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			return nil, xerr.WrapDbfError("memo.Open", fmt.Sprintf("creating %s", path), err)
		}
		if format == FormatVFP {
			return CreateVFP(f, vfpMultiplier)
		}
		return CreateDB3(f)
	}
	if err != nil {
		return nil, xerr.WrapDbfError("memo.Open", fmt.Sprintf("opening %s", path), err)
	}
	if format == FormatVFP {
		return OpenVFP(f)
	}
	return OpenDB3(f)
}
