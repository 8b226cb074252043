package stream

import (
	"errors"
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"reflect"
	"strings"
)

var Logger = logger.GetLogger("stream")

// --------------------------------------------------------------------------
// Protocol Constants
// --------------------------------------------------------------------------

const (
	// Version is the protocol version written by default
	Version = 7
	// MinVersion is the oldest protocol version a reader accepts
	MinVersion = 5
	// MaxVersion is the newest protocol version a reader accepts
	MaxVersion = 8

	// longPairMaxVersion is the last version encoding longs as a pair of doubles
	longPairMaxVersion = 5
)

// Flags is the bitmask carried in the stream header
type Flags int

const (
	// FlagElideTypeNames replaces type signatures with short registry type ids
	FlagElideTypeNames Flags = 1 << 0
	// FlagRPCTokenIncluded marks streams whose first payload item is an RPC token
	FlagRPCTokenIncluded Flags = 1 << 1

	// ValidFlagsMask contains every flag bit known to this implementation
	ValidFlagsMask = FlagElideTypeNames | FlagRPCTokenIncluded
)

const (
	// Separator terminates every token of a stream
	Separator = '|'

	escapeChar = '\\'
)

// --------------------------------------------------------------------------
// Type Serializer Contract
// --------------------------------------------------------------------------

// TypeSerializer maps type signatures to the operations needed to move
// instances across the wire. Implementations must be safe for concurrent
// read-only use since one instance is shared by all streams.
type TypeSerializer interface {
	// SignatureOf returns the wire signature for the concrete type of instance.
	// It returns an *UnknownTypeError if the type is not known.
	SignatureOf(instance any) (signature string, err error)

	// Instantiate creates a new, not yet populated instance for the signature.
	// It must not read from the stream, except for immutable value types whose
	// content cannot reference other objects.
	Instantiate(r *Reader, signature string) (instance any, err error)

	// Deserialize populates the instance by reading its fields from r, in the
	// order used by Serialize.
	Deserialize(r *Reader, instance any, signature string) error

	// Serialize writes the fields of instance to w.
	Serialize(w *Writer, instance any, signature string) error
}

// TypeIDResolver is implemented by type serializers supporting FlagElideTypeNames
type TypeIDResolver interface {
	// TypeID returns the short id for a signature
	TypeID(signature string) (id string, ok bool)
	// SignatureForID resolves a short id back into the signature
	SignatureForID(id string) (signature string, ok bool)
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

// ErrSerialization is wrapped by every error produced by this package
var ErrSerialization = errors.New("serialization error")

// IncompatibleVersionError is returned when a stream version is not supported
type IncompatibleVersionError struct {
	Version int
}

func (e *IncompatibleVersionError) Error() string {
	return fmt.Sprintf("incompatible stream version %d (supported %d..%d)", e.Version, MinVersion, MaxVersion)
}

func (e *IncompatibleVersionError) Unwrap() error { return ErrSerialization }

// IncompatibleFlagsError is returned when a stream carries unknown flag bits
type IncompatibleFlagsError struct {
	Flags Flags
}

func (e *IncompatibleFlagsError) Error() string {
	return fmt.Sprintf("incompatible stream flags %#x (unknown bits %#x)", int(e.Flags), int(e.Flags&^ValidFlagsMask))
}

func (e *IncompatibleFlagsError) Unwrap() error { return ErrSerialization }

// UnknownTypeError is returned when a signature or Go type has no registry entry
type UnknownTypeError struct {
	// Signature is set when reading (or when a signature lookup failed)
	Signature string
	// Type is set when writing an instance of an unregistered Go type
	Type reflect.Type
}

func (e *UnknownTypeError) Error() string {
	if e.Type != nil {
		return fmt.Sprintf("type %s is not serializable: no registry entry", e.Type)
	}
	return fmt.Sprintf("unknown type signature %q", e.Signature)
}

func (e *UnknownTypeError) Unwrap() error { return ErrSerialization }

// MalformedStreamError is returned when the token structure is inconsistent
type MalformedStreamError struct {
	Position int
	Reason   string
}

func (e *MalformedStreamError) Error() string {
	return fmt.Sprintf("malformed stream at token %d: %s", e.Position, e.Reason)
}

func (e *MalformedStreamError) Unwrap() error { return ErrSerialization }

// NumericRangeError is returned when a numeric token cannot be represented exactly
type NumericRangeError struct {
	Token string
	Kind  string
}

func (e *NumericRangeError) Error() string {
	return fmt.Sprintf("token %q is out of range for %s", e.Token, e.Kind)
}

func (e *NumericRangeError) Unwrap() error { return ErrSerialization }

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// escape prepares a string table entry so it never contains a raw separator
func escape(s string) string {
	if !strings.ContainsAny(s, "\\|\x00") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case escapeChar:
			sb.WriteString(`\\`)
		case Separator:
			sb.WriteString(`\!`)
		case 0:
			sb.WriteString(`\0`)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// unescape reverses escape. It fails on dangling or unknown escape sequences.
func unescape(s string) (string, error) {
	if strings.IndexByte(s, escapeChar) < 0 {
		return s, nil
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != escapeChar {
			sb.WriteByte(c)
			continue
		}
		i++
		if i == len(s) {
			return "", fmt.Errorf("dangling escape character")
		}
		switch s[i] {
		case escapeChar:
			sb.WriteByte(escapeChar)
		case '!':
			sb.WriteByte(Separator)
		case '0':
			sb.WriteByte(0)
		default:
			return "", fmt.Errorf("unknown escape sequence \\%c", s[i])
		}
	}
	return sb.String(), nil
}

// splitTokens splits an encoded stream at every separator. Escaped separators
// cannot occur raw, so a plain split is exact. The trailing empty element
// produced by the final separator is dropped.
func splitTokens(encoded string) ([]string, error) {
	if encoded == "" {
		return nil, &MalformedStreamError{Position: 0, Reason: "empty stream"}
	}
	if encoded[len(encoded)-1] != Separator {
		return nil, &MalformedStreamError{Position: 0, Reason: "stream is not terminated by a separator"}
	}
	return strings.Split(encoded[:len(encoded)-1], string(Separator)), nil
}
