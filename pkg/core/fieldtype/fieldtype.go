// Package fieldtype is the per-column-type-code registry: for each
// single-byte type code it holds spec-string parsing, a blank value,
// byte decode/encode, and an optional host-class override. Grounded on
// the teacher's Field4/assign*Field family (field4.go) and spec §4.4;
// the dynamic host-class hook is re-architected per spec §9 into the
// HostClasses configuration struct rather than a runtime class-injection
// call.
package fieldtype

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mkfoss/xbase/pkg/core/charset"
	"github.com/mkfoss/xbase/pkg/core/codec"
	"github.com/mkfoss/xbase/pkg/core/logic"
	"github.com/mkfoss/xbase/pkg/core/temporal"
	"github.com/mkfoss/xbase/pkg/core/xerr"
)

// Dialect selects which type codes are available at create/add time.
type Dialect int

const (
	Generic Dialect = iota
	DBaseIII
	FoxPro
	VisualFoxPro
)

// Memo is the minimal interface the registry needs from a memo store;
// implemented by pkg/core/memo.Store.
type Memo interface {
	Get(block uint32) ([]byte, error)
	Put(payload []byte) (uint32, error)
}

// Spec is the resolved (length, decimals) for one field, plus the raw
// type code and the dialect it was created under — enough context for
// Decode/Encode.
type Spec struct {
	Type     byte
	Length   int
	Decimals int
	Dialect  Dialect
}

// HostClasses lets a caller override the Go type a field decodes into
// for text, numeric, and currency columns (spec §9's host-class hook).
// Zero values select the defaults: string, float64 (or int64 when
// decimals==0), and Currency.
type HostClasses struct {
	Text     func([]byte, charset.Codepage) (any, error)
	Number   func(raw string, decimals int) (any, error)
	Currency func(raw int64) (any, error)
}

// Currency is the default host type for column Y: a fixed-point value
// scaled by 10000, matching the on-disk encoding exactly.
type Currency int64

// Float64 returns the currency amount as a float64.
func (c Currency) Float64() float64 { return float64(c) / 10000.0 }

// Entry is one row of the field-type registry.
type Entry struct {
	Code        byte
	Dialects    []Dialect
	InitSpec    func(args string) (length, decimals int, err error)
	Blank       func(spec Spec) []byte
	Decode      func(raw []byte, spec Spec, memo Memo, cp charset.Codepage, hc HostClasses) (any, error)
	Encode      func(value any, spec Spec, memo Memo, cp charset.Codepage) ([]byte, error)
}

var registry = map[byte]*Entry{}

func register(e *Entry) { registry[e.Code] = e }

// Lookup returns the registry entry for code, restricted to availability
// under dialect.
func Lookup(code byte, dialect Dialect) (*Entry, error) {
	e, ok := registry[code]
	if !ok {
		return nil, xerr.NewDbfError("fieldtype.Lookup", fmt.Sprintf("unknown type code %q", string(code)))
	}
	for _, d := range e.Dialects {
		if d == dialect {
			return e, nil
		}
	}
	return nil, xerr.NewDbfError("fieldtype.Lookup", fmt.Sprintf("type code %q not available in this dialect", string(code)))
}

var fieldSpecRE = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]{0,9})\s+([A-Za-z])(?:\(([0-9]+)(?:,\s*([0-9]+))?\))?$`)

// ParseFieldSpec parses one "name TYPE[(args)]" clause of the create/
// add-fields grammar (spec §6).
func ParseFieldSpec(clause string, dialect Dialect) (name string, spec Spec, err error) {
	m := fieldSpecRE.FindStringSubmatch(strings.TrimSpace(clause))
	if m == nil {
		return "", Spec{}, xerr.NewDbfError("ParseFieldSpec", fmt.Sprintf("malformed field spec %q", clause))
	}
	name = strings.ToLower(m[1])
	code := strings.ToUpper(m[2])[0]
	entry, lookupErr := Lookup(code, dialect)
	if lookupErr != nil {
		return "", Spec{}, lookupErr
	}
	length, decimals, initErr := entry.InitSpec(argsOf(m))
	if initErr != nil {
		return "", Spec{}, initErr
	}
	return name, Spec{Type: code, Length: length, Decimals: decimals, Dialect: dialect}, nil
}

func argsOf(m []string) string {
	if m[3] == "" {
		return ""
	}
	if m[4] == "" {
		return m[3]
	}
	return m[3] + "," + m[4]
}

func parseLenDec(args string) (length, decimals int, err error) {
	if args == "" {
		return 0, 0, nil
	}
	parts := strings.Split(args, ",")
	length, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, xerr.NewDbfError("parseLenDec", fmt.Sprintf("bad length in %q", args))
	}
	if len(parts) > 1 {
		decimals, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, xerr.NewDbfError("parseLenDec", fmt.Sprintf("bad decimals in %q", args))
		}
	}
	return length, decimals, nil
}

func init() {
	registerChar()
	registerNumeric()
	registerFloat()
	registerLogical()
	registerDate()
	registerMemo()
	registerInteger()
	registerDouble()
	registerCurrency()
	registerDateTime()
	registerNullFlags()
}

func registerChar() {
	register(&Entry{
		Code:     'C',
		Dialects: []Dialect{Generic, DBaseIII, FoxPro, VisualFoxPro},
		InitSpec: func(args string) (int, int, error) {
			length, _, err := parseLenDec(args)
			if err != nil {
				return 0, 0, err
			}
			if length < 1 || length > 254 {
				return 0, 0, &xerr.DataOverflowError{Kind: "string length", Max: 254, Got: length}
			}
			return length, 0, nil
		},
		Blank: func(spec Spec) []byte { return []byte(strings.Repeat(" ", spec.Length)) },
		Decode: func(raw []byte, spec Spec, memo Memo, cp charset.Codepage, hc HostClasses) (any, error) {
			trimmed := strings.TrimRight(string(raw), " ")
			decoded, err := cp.Decode([]byte(trimmed))
			if err != nil {
				return nil, err
			}
			if hc.Text != nil {
				return hc.Text([]byte(decoded), cp)
			}
			return decoded, nil
		},
		Encode: func(value any, spec Spec, memo Memo, cp charset.Codepage) ([]byte, error) {
			s, ok := value.(string)
			if !ok {
				s = fmt.Sprint(value)
			}
			encoded, err := cp.Encode(s)
			if err != nil {
				return nil, err
			}
			if len(encoded) > spec.Length {
				return nil, &xerr.DataOverflowError{Kind: "string", Max: spec.Length, Got: len(encoded)}
			}
			return []byte(codec.PadRight(string(encoded), spec.Length)), nil
		},
	})
}

func registerNumericLike(code byte, dialects []Dialect) *Entry {
	return &Entry{
		Code:     code,
		Dialects: dialects,
		InitSpec: func(args string) (int, int, error) {
			length, decimals, err := parseLenDec(args)
			if err != nil {
				return 0, 0, err
			}
			if length < 1 || length > 20 {
				return 0, 0, &xerr.DataOverflowError{Kind: "numeric length", Max: 20, Got: length}
			}
			if decimals < 0 || decimals > length-2 {
				return 0, 0, &xerr.DataOverflowError{Kind: "numeric decimals", Max: length - 2, Got: decimals}
			}
			return length, decimals, nil
		},
		Blank: func(spec Spec) []byte { return []byte(strings.Repeat(" ", spec.Length)) },
		Decode: func(raw []byte, spec Spec, memo Memo, cp charset.Codepage, hc HostClasses) (any, error) {
			s := strings.TrimSpace(string(raw))
			if s == "" || strings.HasPrefix(s, "*") {
				return nil, nil
			}
			if hc.Number != nil {
				return hc.Number(s, spec.Decimals)
			}
			if spec.Decimals == 0 {
				iv, err := strconv.ParseInt(s, 10, 64)
				if err != nil {
					return nil, xerr.WrapDbfError("numeric.Decode", "invalid digits", err)
				}
				return iv, nil
			}
			fv, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, xerr.WrapDbfError("numeric.Decode", "invalid digits", err)
			}
			return fv, nil
		},
		Encode: func(value any, spec Spec, memo Memo, cp charset.Codepage) ([]byte, error) {
			f, err := toFloat(value)
			if err != nil {
				return nil, err
			}
			formatted := strconv.FormatFloat(f, 'f', spec.Decimals, 64)
			if len(formatted) > spec.Length {
				// VFP numeric overflow sentinel: a leading '*' fill.
				return []byte(strings.Repeat("*", spec.Length)), nil
			}
			return []byte(codec.PadLeft(formatted, spec.Length)), nil
		},
	}
}

func registerNumeric() {
	register(registerNumericLike('N', []Dialect{Generic, DBaseIII, FoxPro, VisualFoxPro}))
}

func registerFloat() {
	e := registerNumericLike('F', []Dialect{FoxPro, VisualFoxPro})
	e.InitSpec = func(args string) (int, int, error) {
		length, decimals, err := parseLenDec(args)
		if err != nil {
			return 0, 0, err
		}
		if length < 1 || length > 20 {
			return 0, 0, &xerr.DataOverflowError{Kind: "float length", Max: 20, Got: length}
		}
		return length, decimals, nil
	}
	register(e)
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case Currency:
		return v.Float64(), nil
	default:
		return 0, xerr.NewDbfError("toFloat", fmt.Sprintf("cannot coerce %T to a number", value))
	}
}

func registerLogical() {
	register(&Entry{
		Code:     'L',
		Dialects: []Dialect{Generic, DBaseIII, FoxPro, VisualFoxPro},
		InitSpec: func(string) (int, int, error) { return 1, 0, nil },
		Blank:    func(Spec) []byte { return []byte{'?'} },
		Decode: func(raw []byte, spec Spec, memo Memo, cp charset.Codepage, hc HostClasses) (any, error) {
			return logic.FromByte(raw[0]), nil
		},
		Encode: func(value any, spec Spec, memo Memo, cp charset.Codepage) ([]byte, error) {
			switch v := value.(type) {
			case logic.Value:
				return []byte{v.Byte()}, nil
			case bool:
				if v {
					return []byte{'T'}, nil
				}
				return []byte{'F'}, nil
			case string:
				lv, err := logic.Parse(v)
				if err != nil {
					return nil, err
				}
				return []byte{lv.Byte()}, nil
			default:
				return nil, xerr.NewDbfError("logical.Encode", fmt.Sprintf("cannot coerce %T to logical", value))
			}
		},
	})
}

func registerDate() {
	register(&Entry{
		Code:     'D',
		Dialects: []Dialect{Generic, DBaseIII, FoxPro, VisualFoxPro},
		InitSpec: func(string) (int, int, error) { return 8, 0, nil },
		Blank:    func(Spec) []byte { return []byte(strings.Repeat(" ", 8)) },
		Decode: func(raw []byte, spec Spec, memo Memo, cp charset.Codepage, hc HostClasses) (any, error) {
			d, err := temporal.DateFromYMD(string(raw))
			if err != nil {
				return nil, xerr.WrapDbfError("date.Decode", "invalid date bytes", err)
			}
			return d, nil
		},
		Encode: func(value any, spec Spec, memo Memo, cp charset.Codepage) ([]byte, error) {
			switch v := value.(type) {
			case temporal.Date:
				return []byte(v.YMD()), nil
			case string:
				d, err := temporal.DateFromYMD(v)
				if err != nil {
					return nil, xerr.WrapDbfError("date.Encode", "invalid date string", err)
				}
				return []byte(d.YMD()), nil
			default:
				return nil, xerr.NewDbfError("date.Encode", fmt.Sprintf("cannot coerce %T to a date", value))
			}
		},
	})
}

func registerInteger() {
	register(&Entry{
		Code:     'I',
		Dialects: []Dialect{VisualFoxPro},
		InitSpec: func(string) (int, int, error) { return 4, 0, nil },
		Blank:    func(Spec) []byte { return make([]byte, 4) },
		Decode: func(raw []byte, spec Spec, memo Memo, cp charset.Codepage, hc HostClasses) (any, error) {
			return int64(codec.Int32LE(raw)), nil
		},
		Encode: func(value any, spec Spec, memo Memo, cp charset.Codepage) ([]byte, error) {
			iv, err := toInt64(value)
			if err != nil {
				return nil, err
			}
			if iv > math.MaxInt32 || iv < math.MinInt32 {
				return nil, &xerr.DataOverflowError{Kind: "integer", Max: math.MaxInt32, Got: iv}
			}
			return codec.PutInt32LE(int32(iv)), nil
		},
	})
}

func registerDouble() {
	register(&Entry{
		Code:     'B',
		Dialects: []Dialect{VisualFoxPro},
		InitSpec: func(string) (int, int, error) { return 8, 0, nil },
		Blank:    func(Spec) []byte { return make([]byte, 8) },
		Decode: func(raw []byte, spec Spec, memo Memo, cp charset.Codepage, hc HostClasses) (any, error) {
			return codec.Float64LE(raw), nil
		},
		Encode: func(value any, spec Spec, memo Memo, cp charset.Codepage) ([]byte, error) {
			f, err := toFloat(value)
			if err != nil {
				return nil, err
			}
			return codec.PutFloat64LE(f), nil
		},
	})
}

const currencyMax = math.MaxInt64 / 10000

func registerCurrency() {
	register(&Entry{
		Code:     'Y',
		Dialects: []Dialect{VisualFoxPro},
		InitSpec: func(string) (int, int, error) { return 8, 4, nil },
		Blank:    func(Spec) []byte { return make([]byte, 8) },
		Decode: func(raw []byte, spec Spec, memo Memo, cp charset.Codepage, hc HostClasses) (any, error) {
			scaled := codec.Int64LE(raw)
			if hc.Currency != nil {
				return hc.Currency(scaled)
			}
			return Currency(scaled), nil
		},
		Encode: func(value any, spec Spec, memo Memo, cp charset.Codepage) ([]byte, error) {
			var scaled int64
			switch v := value.(type) {
			case Currency:
				scaled = int64(v)
			case float64:
				scaled = int64(v * 10000)
			case int64:
				scaled = v * 10000
			default:
				return nil, xerr.NewDbfError("currency.Encode", fmt.Sprintf("cannot coerce %T to currency", value))
			}
			if scaled > currencyMax || scaled < -currencyMax {
				return nil, &xerr.DataOverflowError{Kind: "currency", Max: currencyMax, Got: scaled}
			}
			return codec.PutInt64LE(scaled), nil
		},
	})
}

func registerDateTime() {
	register(&Entry{
		Code:     'T',
		Dialects: []Dialect{VisualFoxPro},
		InitSpec: func(string) (int, int, error) { return 8, 0, nil },
		Blank:    func(Spec) []byte { return make([]byte, 8) },
		Decode: func(raw []byte, spec Spec, memo Memo, cp charset.Codepage, hc HostClasses) (any, error) {
			julian := codec.Uint32LE(raw[0:4])
			msec := codec.Uint32LE(raw[4:8])
			return temporal.DateTimeFromJulian(julian, msec), nil
		},
		Encode: func(value any, spec Spec, memo Memo, cp charset.Codepage) ([]byte, error) {
			dt, ok := value.(temporal.DateTime)
			if !ok {
				return nil, xerr.NewDbfError("datetime.Encode", fmt.Sprintf("cannot coerce %T to datetime", value))
			}
			julian, msec := dt.ToJulian()
			out := make([]byte, 8)
			copy(out[0:4], codec.PutUint32LE(julian))
			copy(out[4:8], codec.PutUint32LE(msec))
			return out, nil
		},
	})
}

func registerMemo() {
	for _, code := range []byte{'M', 'G', 'P'} {
		code := code
		register(&Entry{
			Code:     code,
			Dialects: []Dialect{Generic, DBaseIII, FoxPro, VisualFoxPro},
			InitSpec: func(string) (int, int, error) { return 10, 0, nil }, // 10-byte ASCII block number in every dialect; a field of length 4 is read and written as a binary u32
			Blank:    func(spec Spec) []byte { return []byte(strings.Repeat(" ", spec.Length)) },
			Decode: func(raw []byte, spec Spec, memo Memo, cp charset.Codepage, hc HostClasses) (any, error) {
				block, ok := memoBlockOf(raw)
				if !ok || block == 0 || memo == nil {
					return "", nil
				}
				payload, err := memo.Get(block)
				if err != nil {
					return nil, err
				}
				decoded, err := cp.Decode(payload)
				if err != nil {
					return nil, err
				}
				return decoded, nil
			},
			Encode: func(value any, spec Spec, memo Memo, cp charset.Codepage) ([]byte, error) {
				s, _ := value.(string)
				if s == "" || memo == nil {
					return blockBytes(0, spec), nil
				}
				payload, err := cp.Encode(s)
				if err != nil {
					return nil, err
				}
				block, err := memo.Put(payload)
				if err != nil {
					return nil, err
				}
				return blockBytes(block, spec), nil
			},
		})
	}
}

func memoBlockOf(raw []byte) (uint32, bool) {
	if len(raw) == 4 {
		return codec.Uint32LE(raw), true
	}
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func blockBytes(block uint32, spec Spec) []byte {
	if spec.Length == 4 {
		return codec.PutUint32LE(block)
	}
	if block == 0 {
		return []byte(strings.Repeat(" ", spec.Length))
	}
	return []byte(codec.PadLeft(strconv.FormatUint(uint64(block), 10), spec.Length))
}

func registerNullFlags() {
	register(&Entry{
		Code:     '0',
		Dialects: []Dialect{VisualFoxPro},
		InitSpec: func(args string) (int, int, error) {
			length, _, err := parseLenDec(args)
			if err != nil || length < 1 {
				return 1, 0, nil
			}
			return length, 0, nil
		},
		Blank: func(spec Spec) []byte { return make([]byte, spec.Length) },
		Decode: func(raw []byte, spec Spec, memo Memo, cp charset.Codepage, hc HostClasses) (any, error) {
			return nil, nil // null-flag bytes carry no independent value
		},
		Encode: func(value any, spec Spec, memo Memo, cp charset.Codepage) ([]byte, error) {
			return make([]byte, spec.Length), nil
		},
	})
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	default:
		return 0, xerr.NewDbfError("toInt64", fmt.Sprintf("cannot coerce %T to an integer", value))
	}
}

// DialectTypeCodes lists the type codes available under d, for field-spec
// validation and documentation.
func DialectTypeCodes(d Dialect) []byte {
	var out []byte
	for code, e := range registry {
		for _, dd := range e.Dialects {
			if dd == d {
				out = append(out, code)
				break
			}
		}
	}
	return out
}
