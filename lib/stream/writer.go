package stream

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// WriterOption configures a Writer
type WriterOption func(w *Writer)

// WithVersion sets the protocol version of the stream (default Version)
func WithVersion(version int) WriterOption {
	return func(w *Writer) {
		w.version = version
	}
}

// WithFlags sets the header flags of the stream
func WithFlags(flags Flags) WriterOption {
	return func(w *Writer) {
		w.flags = flags
	}
}

// Writer encodes primitives and object graphs into a single stream.
// A Writer is used for exactly one message and is not safe for concurrent use.
type Writer struct {
	serializer TypeSerializer
	version    int
	flags      Flags

	// string table (1-based on the wire, 0 is the null string)
	stringTable []string
	stringIndex map[string]int

	// seen-object table, identity -> 0-based slot
	objects     map[identityKey]int
	objectCount int

	payload    strings.Builder
	tokenWrote bool
}

// NewWriter creates a Writer for the given type serializer. It fails if the
// requested version or flags cannot be written by this implementation.
func NewWriter(serializer TypeSerializer, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		serializer: serializer,
		version:    Version,
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.version < MinVersion || w.version > MaxVersion {
		return nil, &IncompatibleVersionError{Version: w.version}
	}
	if w.flags&^ValidFlagsMask != 0 {
		return nil, &IncompatibleFlagsError{Flags: w.flags}
	}
	if w.flags&FlagElideTypeNames != 0 {
		if _, ok := serializer.(TypeIDResolver); !ok {
			return nil, fmt.Errorf("%w: type serializer cannot elide type names", ErrSerialization)
		}
	}

	w.PrepareToWrite()
	return w, nil
}

// PrepareToWrite resets all per-message state of the writer
func (w *Writer) PrepareToWrite() {
	w.stringTable = w.stringTable[:0]
	w.stringIndex = make(map[string]int)
	w.objects = make(map[identityKey]int)
	w.objectCount = 0
	w.payload.Reset()
	w.tokenWrote = false
}

// Version returns the protocol version of the stream
func (w *Writer) Version() int {
	return w.version
}

// HasFlags reports whether all given flags are set
func (w *Writer) HasFlags(flags Flags) bool {
	return w.flags&flags == flags
}

// --------------------------------------------------------------------------
// Primitives
// --------------------------------------------------------------------------

func (w *Writer) WriteBool(v bool) {
	if v {
		w.append("1")
	} else {
		w.append("0")
	}
}

func (w *Writer) WriteInt8(v int8) {
	w.append(strconv.FormatInt(int64(v), 10))
}

// WriteChar writes a UTF-16 code unit as a number, never as a literal character
func (w *Writer) WriteChar(v uint16) {
	w.append(strconv.FormatUint(uint64(v), 10))
}

func (w *Writer) WriteInt16(v int16) {
	w.append(strconv.FormatInt(int64(v), 10))
}

func (w *Writer) WriteInt32(v int32) {
	w.append(strconv.FormatInt(int64(v), 10))
}

// WriteInt64 writes v using the long encoding of the stream version
func (w *Writer) WriteInt64(v int64) {
	if w.version <= longPairMaxVersion {
		high, low := SplitLong(v)
		w.WriteFloat64(high)
		w.WriteFloat64(low)
		return
	}
	w.append(EncodeLong(v))
}

func (w *Writer) WriteFloat32(v float32) {
	w.append(formatFloat(float64(v), 32))
}

func (w *Writer) WriteFloat64(v float64) {
	w.append(formatDouble(v))
}

// WriteString adds s to the string table (if needed) and writes its index
func (w *Writer) WriteString(s string) {
	w.WriteInt32(int32(w.addString(s)))
}

// WriteNullableString writes index 0 for nil, otherwise behaves like WriteString
func (w *Writer) WriteNullableString(s *string) {
	if s == nil {
		w.WriteInt32(0)
		return
	}
	w.WriteString(*s)
}

// WriteRPCToken writes the RPC token. It must be the first payload item and
// requires FlagRPCTokenIncluded.
func (w *Writer) WriteRPCToken(token string) error {
	if !w.HasFlags(FlagRPCTokenIncluded) {
		return fmt.Errorf("%w: stream flags do not include an RPC token", ErrSerialization)
	}
	if w.tokenWrote || w.payload.Len() > 0 {
		return fmt.Errorf("%w: the RPC token must be the first payload item", ErrSerialization)
	}
	w.tokenWrote = true
	w.WriteString(token)
	return nil
}

// --------------------------------------------------------------------------
// Objects
// --------------------------------------------------------------------------

// WriteObject writes an object graph rooted at instance. Objects already
// written to this stream are emitted as backreferences, which makes cyclic
// graphs terminate. If the type of instance is unknown, an *UnknownTypeError
// is returned before any token for the instance is written.
func (w *Writer) WriteObject(instance any) error {
	if isNil(instance) {
		w.WriteInt32(0)
		return nil
	}

	key, tracked := identityOf(instance)
	if tracked {
		if slot, seen := w.objects[key]; seen {
			w.WriteInt32(int32(-(slot + 1)))
			return nil
		}
	}

	signature, err := w.serializer.SignatureOf(instance)
	if err != nil {
		return err
	}

	typeName := signature
	if w.HasFlags(FlagElideTypeNames) {
		id, ok := w.serializer.(TypeIDResolver).TypeID(signature)
		if !ok {
			return &UnknownTypeError{Signature: signature}
		}
		typeName = id
	}

	// record the identity before the fields, recursive references to the
	// same instance become backreferences
	if tracked {
		w.objects[key] = w.objectCount
	}
	w.objectCount++

	w.WriteString(typeName)
	if err := w.serializer.Serialize(w, instance, signature); err != nil {
		return fmt.Errorf("failed to serialize %s: %w", signature, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Finalization
// --------------------------------------------------------------------------

// String assembles the complete stream: header, string table and payload
func (w *Writer) String() string {
	var sb strings.Builder
	sb.Grow(w.payload.Len() + 16*len(w.stringTable) + 16)

	writeToken := func(token string) {
		sb.WriteString(token)
		sb.WriteByte(Separator)
	}

	writeToken(strconv.Itoa(w.version))
	writeToken(strconv.Itoa(int(w.flags)))
	writeToken(strconv.Itoa(len(w.stringTable)))
	for _, s := range w.stringTable {
		writeToken(escape(s))
	}
	sb.WriteString(w.payload.String())

	return sb.String()
}

// Bytes returns String() as a byte slice
func (w *Writer) Bytes() []byte {
	return []byte(w.String())
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// append adds a single payload token
func (w *Writer) append(token string) {
	w.payload.WriteString(token)
	w.payload.WriteByte(Separator)
}

// addString returns the 1-based index of s, inserting it on first use
func (w *Writer) addString(s string) int {
	if idx, ok := w.stringIndex[s]; ok {
		return idx
	}
	w.stringTable = append(w.stringTable, s)
	idx := len(w.stringTable)
	w.stringIndex[s] = idx
	return idx
}

// formatDouble formats a float64 as the shortest decimal that parses back to
// the same value
func formatDouble(v float64) string {
	return formatFloat(v, 64)
}

func formatFloat(v float64, bitSize int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(v, 'g', -1, bitSize)
}
