package stream

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// DefaultMaxDepth is the default bound for nested objects in a read stream
const DefaultMaxDepth = 10_000

// ReaderOption configures a Reader
type ReaderOption func(r *Reader)

// WithMaxDepth bounds how deeply objects may be nested while reading.
// Values <= 0 select DefaultMaxDepth.
func WithMaxDepth(depth int) ReaderOption {
	return func(r *Reader) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// Reader decodes a stream produced by a Writer. A Reader is used for exactly
// one message and is not safe for concurrent use.
type Reader struct {
	serializer TypeSerializer
	version    int
	flags      Flags

	tokens      []string
	pos         int
	stringTable []string

	// seen-object table, 0-based slot -> object (nil while reserved)
	objects []any
	filled  []bool

	// number of objects currently being read
	depth    int
	maxDepth int
}

// NewReader creates a Reader for the given type serializer
func NewReader(serializer TypeSerializer, opts ...ReaderOption) *Reader {
	r := &Reader{serializer: serializer, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PrepareToRead resets the reader and parses the header and string table of
// encoded. Version and flags are validated before anything else is read.
func (r *Reader) PrepareToRead(encoded string) error {
	if err := r.prepareHeader(encoded); err != nil {
		return err
	}

	if r.flags&FlagElideTypeNames != 0 {
		if _, ok := r.serializer.(TypeIDResolver); !ok {
			return fmt.Errorf("%w: type serializer cannot resolve elided type names", ErrSerialization)
		}
	}

	Logger.Debugf("prepared stream v%d (flags %#x) with %d strings and %d payload tokens",
		r.version, int(r.flags), len(r.stringTable), r.Remaining())

	return nil
}

// prepareHeader resets the reader and reads version, flags and string table
func (r *Reader) prepareHeader(encoded string) error {
	r.objects = r.objects[:0]
	r.filled = r.filled[:0]
	r.stringTable = nil
	r.pos = 0
	r.depth = 0
	r.version = 0
	r.flags = 0

	tokens, err := splitTokens(encoded)
	if err != nil {
		return err
	}
	r.tokens = tokens

	// version
	version, err := r.readDecimal("version", math.MinInt32, math.MaxInt32)
	if err != nil {
		return err
	}
	if version < MinVersion || version > MaxVersion {
		return &IncompatibleVersionError{Version: int(version)}
	}
	r.version = int(version)

	// flags
	flags, err := r.readDecimal("flags", math.MinInt32, math.MaxInt32)
	if err != nil {
		return err
	}
	if Flags(flags)&^ValidFlagsMask != 0 {
		return &IncompatibleFlagsError{Flags: Flags(flags)}
	}
	r.flags = Flags(flags)

	// string table
	size, err := r.readDecimal("string table size", 0, math.MaxInt32)
	if err != nil {
		return err
	}
	if int(size) > r.Remaining() {
		return r.malformed(fmt.Sprintf("string table size %d exceeds the %d remaining tokens", size, r.Remaining()))
	}
	r.stringTable = make([]string, size)
	for i := range r.stringTable {
		s, err := unescape(r.tokens[r.pos])
		if err != nil {
			return r.malformed(fmt.Sprintf("string table entry %d: %v", i+1, err))
		}
		r.stringTable[i] = s
		r.pos++
	}

	return nil
}

// Version returns the protocol version of the stream being read
func (r *Reader) Version() int {
	return r.version
}

// HasFlags reports whether all given flags are set
func (r *Reader) HasFlags(flags Flags) bool {
	return r.flags&flags == flags
}

// Remaining returns the number of unread tokens
func (r *Reader) Remaining() int {
	return len(r.tokens) - r.pos
}

// Position returns the index of the next token to be read
func (r *Reader) Position() int {
	return r.pos
}

// --------------------------------------------------------------------------
// Primitives
// --------------------------------------------------------------------------

func (r *Reader) ReadBool() (bool, error) {
	token, err := r.next("boolean")
	if err != nil {
		return false, err
	}
	switch token {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, r.malformedAt(r.pos-1, fmt.Sprintf("invalid boolean %q", token))
	}
}

func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.readDecimal("byte", math.MinInt8, math.MaxInt8)
	return int8(v), err
}

func (r *Reader) ReadChar() (uint16, error) {
	v, err := r.readDecimal("char", 0, math.MaxUint16)
	return uint16(v), err
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.readDecimal("short", math.MinInt16, math.MaxInt16)
	return int16(v), err
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.readDecimal("int", math.MinInt32, math.MaxInt32)
	return int32(v), err
}

// ReadInt64 reads a long using the long encoding of the stream version
func (r *Reader) ReadInt64() (int64, error) {
	if r.version <= longPairMaxVersion {
		high, err := r.ReadFloat64()
		if err != nil {
			return 0, err
		}
		low, err := r.ReadFloat64()
		if err != nil {
			return 0, err
		}
		return JoinLong(high, low)
	}

	token, err := r.next("long")
	if err != nil {
		return 0, err
	}
	return DecodeLong(token)
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.readFloat("float", 32)
	return float32(v), err
}

func (r *Reader) ReadFloat64() (float64, error) {
	return r.readFloat("double", 64)
}

// ReadString reads a string index and resolves it through the string table.
// A null string (index 0) is returned as "", use ReadNullableString to tell
// them apart.
func (r *Reader) ReadString() (string, error) {
	s, err := r.ReadNullableString()
	if err != nil || s == nil {
		return "", err
	}
	return *s, nil
}

// ReadNullableString reads a string index, index 0 yields nil
func (r *Reader) ReadNullableString() (*string, error) {
	idx, err := r.readDecimal("string index", 0, int64(len(r.stringTable)))
	if err != nil {
		return nil, err
	}
	if idx == 0 {
		return nil, nil
	}
	s := r.stringTable[idx-1]
	return &s, nil
}

// ReadRPCToken reads the RPC token of a stream with FlagRPCTokenIncluded
func (r *Reader) ReadRPCToken() (string, error) {
	if !r.HasFlags(FlagRPCTokenIncluded) {
		return "", fmt.Errorf("%w: stream flags do not include an RPC token", ErrSerialization)
	}
	return r.ReadString()
}

// --------------------------------------------------------------------------
// Objects
// --------------------------------------------------------------------------

// ReadObject reads the next object. Backreferences resolve to the object
// already reconstructed in their slot, including objects whose fields are
// still being read.
func (r *Reader) ReadObject() (any, error) {
	start := r.pos
	token, err := r.readDecimal("object", math.MinInt32, math.MaxInt32)
	if err != nil {
		return nil, err
	}

	// backreference
	if token < 0 {
		slot := int(-token - 1)
		if slot >= len(r.objects) || !r.filled[slot] {
			return nil, r.malformedAt(start, fmt.Sprintf("backreference to unpopulated slot %d (%d slots known)", slot, len(r.objects)))
		}
		return r.objects[slot], nil
	}

	// null object
	if token == 0 {
		return nil, nil
	}

	if int(token) > len(r.stringTable) {
		return nil, r.malformedAt(start, fmt.Sprintf("type name index %d exceeds string table size %d", token, len(r.stringTable)))
	}
	signature := r.stringTable[token-1]
	if r.HasFlags(FlagElideTypeNames) {
		resolved, ok := r.serializer.(TypeIDResolver).SignatureForID(signature)
		if !ok {
			return nil, &UnknownTypeError{Signature: signature}
		}
		signature = resolved
	}

	if r.depth >= r.maxDepth {
		return nil, r.malformedAt(start, fmt.Sprintf("objects nested deeper than %d levels", r.maxDepth))
	}
	r.depth++
	defer func() { r.depth-- }()

	// reserve the slot before the fields are read
	slot := len(r.objects)
	r.objects = append(r.objects, nil)
	r.filled = append(r.filled, false)

	instance, err := r.serializer.Instantiate(r, signature)
	if err != nil {
		r.objects = r.objects[:slot]
		r.filled = r.filled[:slot]
		return nil, err
	}
	r.objects[slot] = instance
	r.filled[slot] = true

	if err := r.serializer.Deserialize(r, instance, signature); err != nil {
		return nil, fmt.Errorf("failed to deserialize %s: %w", signature, err)
	}

	return instance, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// next returns the next token or a malformed stream error if none is left
func (r *Reader) next(kind string) (string, error) {
	if r.pos >= len(r.tokens) {
		return "", r.malformed(fmt.Sprintf("unexpected end of stream while reading %s", kind))
	}
	token := r.tokens[r.pos]
	r.pos++
	return token, nil
}

// readDecimal reads a base 10 integer token within [min, max]
func (r *Reader) readDecimal(kind string, min, max int64) (int64, error) {
	token, err := r.next(kind)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil || v < min || v > max {
		return 0, r.malformedAt(r.pos-1, fmt.Sprintf("invalid %s %q", kind, token))
	}
	return v, nil
}

// readFloat reads a decimal float token. Only the spellings written by the
// Writer are accepted: plain or exponent decimals, NaN and (-)Infinity.
func (r *Reader) readFloat(kind string, bitSize int) (float64, error) {
	token, err := r.next(kind)
	if err != nil {
		return 0, err
	}
	switch token {
	case "NaN":
		return math.NaN(), nil
	case "Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	if !isDecimalFloat(token) {
		return 0, r.malformedAt(r.pos-1, fmt.Sprintf("invalid %s %q", kind, token))
	}
	v, err := strconv.ParseFloat(token, bitSize)
	if errors.Is(err, strconv.ErrRange) {
		return 0, &NumericRangeError{Token: token, Kind: kind}
	}
	if err != nil {
		return 0, r.malformedAt(r.pos-1, fmt.Sprintf("invalid %s %q", kind, token))
	}
	return v, nil
}

// isDecimalFloat rejects the forms strconv accepts but the Writer never
// emits (inf, nan, hex floats, digit separators)
func isDecimalFloat(token string) bool {
	if token == "" {
		return false
	}
	for i := 0; i < len(token); i++ {
		switch c := token[i]; {
		case c >= '0' && c <= '9', c == '.', c == '-', c == '+', c == 'e', c == 'E':
		default:
			return false
		}
	}
	return true
}

func (r *Reader) malformed(reason string) error {
	return r.malformedAt(r.pos, reason)
}

func (r *Reader) malformedAt(pos int, reason string) error {
	return &MalformedStreamError{Position: pos, Reason: reason}
}
