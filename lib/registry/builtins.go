package registry

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dRPC/lib/stream"
	"sort"
)

// --------------------------------------------------------------------------
// Built-in Types
// --------------------------------------------------------------------------

// Wire names of the built-in types
const (
	NameString          = "string"
	NameBool            = "bool"
	NameInt32           = "int32"
	NameInt64           = "int64"
	NameFloat64         = "float64"
	NameArrayList       = "list"
	NameStringMap       = "map"
	NameRemoteException = "exception"
)

// ArrayList is an ordered list of objects. It is registered as a pointer so a
// list can be referenced (also by itself) before its elements are read.
type ArrayList []any

// StringMap maps strings to objects. Maps are references in Go, so the
// instance created before the entries are read is the final instance.
type StringMap map[string]any

// RemoteException is the error transported in failed RPC responses
type RemoteException struct {
	// Type names the kind of failure (e.g. "UnknownService")
	Type string
	// Message is the human readable error message
	Message string
	// Cause is the (optional) underlying exception
	Cause *RemoteException
}

// Error implements the error interface
func (e *RemoteException) Error() string {
	msg := e.Message
	if e.Type != "" {
		msg = e.Type + ": " + msg
	}
	if e.Cause != nil {
		msg += " (caused by " + e.Cause.Error() + ")"
	}
	return msg
}

// Unwrap returns the cause, so errors.As can walk the chain
func (e *RemoteException) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// NewRemoteException creates an exception from an error, preserving a
// RemoteException chain if err already is one
func NewRemoteException(kind string, err error) *RemoteException {
	var re *RemoteException
	if errors.As(err, &re) {
		return &RemoteException{Type: kind, Message: re.Message, Cause: re}
	}
	return &RemoteException{Type: kind, Message: err.Error()}
}

// registerBuiltins adds every built-in type to the builder
func registerBuiltins(b *Builder) {
	// Immutable values: the value itself is read in Instantiate, there are
	// no fields left to populate afterward.

	Register(b, NameString, Codec[string]{
		Instantiate: func(r *stream.Reader) (string, error) { return r.ReadString() },
		Serialize:   func(w *stream.Writer, v string) error { w.WriteString(v); return nil },
	})
	Register(b, NameBool, Codec[bool]{
		Instantiate: func(r *stream.Reader) (bool, error) { return r.ReadBool() },
		Serialize:   func(w *stream.Writer, v bool) error { w.WriteBool(v); return nil },
	})
	Register(b, NameInt32, Codec[int32]{
		Instantiate: func(r *stream.Reader) (int32, error) { return r.ReadInt32() },
		Serialize:   func(w *stream.Writer, v int32) error { w.WriteInt32(v); return nil },
	})
	Register(b, NameInt64, Codec[int64]{
		Instantiate: func(r *stream.Reader) (int64, error) { return r.ReadInt64() },
		Serialize:   func(w *stream.Writer, v int64) error { w.WriteInt64(v); return nil },
	})
	Register(b, NameFloat64, Codec[float64]{
		Instantiate: func(r *stream.Reader) (float64, error) { return r.ReadFloat64() },
		Serialize:   func(w *stream.Writer, v float64) error { w.WriteFloat64(v); return nil },
	})

	// Containers

	Register(b, NameArrayList, Codec[*ArrayList]{
		Serialize: func(w *stream.Writer, l *ArrayList) error {
			w.WriteInt32(int32(len(*l)))
			for _, item := range *l {
				if err := w.WriteObject(item); err != nil {
					return err
				}
			}
			return nil
		},
		Deserialize: func(r *stream.Reader, l *ArrayList) error {
			size, err := readSize(r)
			if err != nil {
				return err
			}
			*l = make(ArrayList, 0, size)
			for i := 0; i < size; i++ {
				item, err := r.ReadObject()
				if err != nil {
					return err
				}
				*l = append(*l, item)
			}
			return nil
		},
	})

	Register(b, NameStringMap, Codec[StringMap]{
		Instantiate: func(*stream.Reader) (StringMap, error) { return make(StringMap), nil },
		Serialize: func(w *stream.Writer, m StringMap) error {
			// sorted keys keep the encoding deterministic
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			w.WriteInt32(int32(len(keys)))
			for _, k := range keys {
				w.WriteString(k)
				if err := w.WriteObject(m[k]); err != nil {
					return err
				}
			}
			return nil
		},
		Deserialize: func(r *stream.Reader, m StringMap) error {
			size, err := readSize(r)
			if err != nil {
				return err
			}
			for i := 0; i < size; i++ {
				k, err := r.ReadString()
				if err != nil {
					return err
				}
				v, err := r.ReadObject()
				if err != nil {
					return err
				}
				m[k] = v
			}
			return nil
		},
	})

	Register(b, NameRemoteException, Codec[*RemoteException]{
		Serialize: func(w *stream.Writer, e *RemoteException) error {
			w.WriteString(e.Type)
			w.WriteString(e.Message)
			return w.WriteObject(e.Cause)
		},
		Deserialize: func(r *stream.Reader, e *RemoteException) (err error) {
			if e.Type, err = r.ReadString(); err != nil {
				return err
			}
			if e.Message, err = r.ReadString(); err != nil {
				return err
			}
			if e.Cause, err = ReadObjectAs[*RemoteException](r); err != nil {
				return err
			}
			// Error and Unwrap walk the chain, a backreference must not close it
			for c := e.Cause; c != nil; c = c.Cause {
				if c == e {
					return &stream.MalformedStreamError{Position: r.Position(), Reason: "exception cause chain is cyclic"}
				}
			}
			return nil
		},
	})
}

// readSize reads a container size. Every element needs at least one token,
// so sizes beyond the remaining tokens are rejected before allocating.
func readSize(r *stream.Reader) (int, error) {
	size, err := r.ReadInt32()
	if err != nil {
		return 0, err
	}
	if size < 0 || int(size) > r.Remaining() {
		return 0, fmt.Errorf("%w: invalid container size %d", stream.ErrSerialization, size)
	}
	return int(size), nil
}
