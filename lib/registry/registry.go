package registry

import (
	"fmt"
	"github.com/ValentinKolb/dRPC/lib/stream"
	"github.com/cespare/xxhash/v2"
	"github.com/lni/dragonboat/v4/logger"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

var Logger = logger.GetLogger("registry")

// --------------------------------------------------------------------------
// Type Entries
// --------------------------------------------------------------------------

// InstantiateFunc creates an empty instance. It may only read from the stream
// for immutable values that cannot reference other objects.
type InstantiateFunc func(r *stream.Reader) (any, error)

// DeserializeFunc populates an instance created by the InstantiateFunc
type DeserializeFunc func(r *stream.Reader, instance any) error

// SerializeFunc writes the fields of an instance
type SerializeFunc func(w *stream.Writer, instance any) error

// TypeEntry is the untyped registration of a single Go type
type TypeEntry struct {
	// Name is the wire name of the type
	Name string
	// Type is the dynamic Go type of the instances
	Type reflect.Type
	// Hash is an explicit signature hash. If empty and the builder computes
	// hashes, it is derived from the type layout.
	Hash string

	Instantiate InstantiateFunc
	Deserialize DeserializeFunc
	Serialize   SerializeFunc
}

// Codec is the typed variant of a TypeEntry, used with Register
type Codec[T any] struct {
	// Instantiate is optional for pointer types
	Instantiate func(r *stream.Reader) (T, error)
	// Deserialize is optional for types without fields
	Deserialize func(r *stream.Reader, v T) error
	// Serialize is optional for types without fields
	Serialize func(w *stream.Writer, v T) error
	// Hash overrides the computed signature hash
	Hash string
}

// entry is a built registration with its resolved signature
type entry struct {
	TypeEntry
	signature string
	id        string
}

// --------------------------------------------------------------------------
// Builder
// --------------------------------------------------------------------------

// Builder collects type registrations. It is not safe for concurrent use,
// registries are built once at startup.
type Builder struct {
	entries []TypeEntry
	hashes  bool
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithSignatureHashes derives a signature hash from the Go layout of every
// registered type that has no explicit hash
func (b *Builder) WithSignatureHashes() *Builder {
	b.hashes = true
	return b
}

// WithBuiltins registers the built-in types (see builtins.go)
func (b *Builder) WithBuiltins() *Builder {
	registerBuiltins(b)
	return b
}

// RegisterType adds an untyped registration
func (b *Builder) RegisterType(e TypeEntry) *Builder {
	b.entries = append(b.entries, e)
	return b
}

// Register adds a typed registration for T under the wire name
func Register[T any](b *Builder, name string, c Codec[T]) *Builder {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	e := TypeEntry{
		Name: name,
		Type: typ,
		Hash: c.Hash,
	}

	if c.Instantiate != nil {
		e.Instantiate = func(r *stream.Reader) (any, error) {
			return c.Instantiate(r)
		}
	} else if typ.Kind() == reflect.Pointer {
		elem := typ.Elem()
		e.Instantiate = func(*stream.Reader) (any, error) {
			return reflect.New(elem).Interface(), nil
		}
	}

	if c.Deserialize != nil {
		e.Deserialize = func(r *stream.Reader, instance any) error {
			v, ok := instance.(T)
			if !ok {
				return fmt.Errorf("instance of %T is not a %s", instance, typ)
			}
			return c.Deserialize(r, v)
		}
	}

	if c.Serialize != nil {
		e.Serialize = func(w *stream.Writer, instance any) error {
			v, ok := instance.(T)
			if !ok {
				return fmt.Errorf("instance of %T is not a %s", instance, typ)
			}
			return c.Serialize(w, v)
		}
	}

	return b.RegisterType(e)
}

// Build validates the registrations and returns an immutable registry
func (b *Builder) Build() (*Registry, error) {
	reg := &Registry{
		bySignature: make(map[string]*entry, len(b.entries)),
		byType:      make(map[reflect.Type]*entry, len(b.entries)),
		byID:        make(map[string]*entry, len(b.entries)),
	}

	names := make(map[string]struct{}, len(b.entries))
	for i := range b.entries {
		e := b.entries[i]

		if e.Name == "" || strings.ContainsAny(e.Name, "/|") {
			return nil, fmt.Errorf("invalid type name %q", e.Name)
		}
		if e.Type == nil {
			return nil, fmt.Errorf("type %s: missing Go type", e.Name)
		}
		if e.Instantiate == nil {
			return nil, fmt.Errorf("type %s: missing instantiate function for %s", e.Name, e.Type)
		}
		if _, dup := names[e.Name]; dup {
			return nil, fmt.Errorf("type name %s is registered more than once", e.Name)
		}
		if other, dup := reg.byType[e.Type]; dup {
			return nil, fmt.Errorf("Go type %s is registered as %s and %s", e.Type, other.Name, e.Name)
		}
		names[e.Name] = struct{}{}

		hash := e.Hash
		if hash == "" && b.hashes {
			hash = layoutHash(e.Name, e.Type)
		}
		signature := e.Name
		if hash != "" {
			signature = e.Name + "/" + hash
		}

		built := &entry{TypeEntry: e, signature: signature}
		reg.bySignature[signature] = built
		reg.byType[e.Type] = built
	}

	// ids depend only on the signature, a peer lacking the exact signature
	// cannot resolve the id
	for sig, e := range reg.bySignature {
		e.id = typeID(sig)
		if other, dup := reg.byID[e.id]; dup {
			return nil, fmt.Errorf("type ids of %s and %s collide, rename one of the types", other.signature, sig)
		}
		reg.byID[e.id] = e
	}

	Logger.Debugf("built registry with %d types", len(reg.bySignature))

	return reg, nil
}

// --------------------------------------------------------------------------
// Registry (implements stream.TypeSerializer and stream.TypeIDResolver)
// --------------------------------------------------------------------------

// Registry is an immutable type table. All methods are safe for concurrent use.
type Registry struct {
	bySignature map[string]*entry
	byType      map[reflect.Type]*entry
	byID        map[string]*entry
}

func (reg *Registry) SignatureOf(instance any) (string, error) {
	typ := reflect.TypeOf(instance)
	e, ok := reg.byType[typ]
	if !ok {
		return "", &stream.UnknownTypeError{Type: typ}
	}
	return e.signature, nil
}

func (reg *Registry) Instantiate(r *stream.Reader, signature string) (any, error) {
	e, ok := reg.bySignature[signature]
	if !ok {
		return nil, &stream.UnknownTypeError{Signature: signature}
	}
	return e.Instantiate(r)
}

func (reg *Registry) Deserialize(r *stream.Reader, instance any, signature string) error {
	e, ok := reg.bySignature[signature]
	if !ok {
		return &stream.UnknownTypeError{Signature: signature}
	}
	if e.Deserialize == nil {
		return nil
	}
	return e.Deserialize(r, instance)
}

func (reg *Registry) Serialize(w *stream.Writer, instance any, signature string) error {
	e, ok := reg.bySignature[signature]
	if !ok {
		return &stream.UnknownTypeError{Signature: signature}
	}
	if e.Serialize == nil {
		return nil
	}
	return e.Serialize(w, instance)
}

func (reg *Registry) TypeID(signature string) (string, bool) {
	e, ok := reg.bySignature[signature]
	if !ok {
		return "", false
	}
	return e.id, true
}

func (reg *Registry) SignatureForID(id string) (string, bool) {
	e, ok := reg.byID[id]
	if !ok {
		return "", false
	}
	return e.signature, true
}

// SerializationSignature returns the signature hash of a registered Go type.
// ok is false if the type is unknown, hash is empty if the type has none.
func (reg *Registry) SerializationSignature(typ reflect.Type) (hash string, ok bool) {
	e, ok := reg.byType[typ]
	if !ok {
		return "", false
	}
	_, hash, _ = strings.Cut(e.signature, "/")
	return hash, true
}

// Signatures returns all registered signatures in sorted order
func (reg *Registry) Signatures() []string {
	signatures := make([]string, 0, len(reg.bySignature))
	for sig := range reg.bySignature {
		signatures = append(signatures, sig)
	}
	sort.Strings(signatures)
	return signatures
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ReadObjectAs reads an object and asserts its type. A null object yields
// the zero value of T.
func ReadObjectAs[T any](r *stream.Reader) (T, error) {
	var zero T
	obj, err := r.ReadObject()
	if err != nil || obj == nil {
		return zero, err
	}
	v, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("%w: expected %s, got %T", stream.ErrSerialization, reflect.TypeOf(&zero).Elem(), obj)
	}
	return v, nil
}

// typeID derives the short id used for a signature under FlagElideTypeNames
func typeID(signature string) string {
	return stream.EncodeLong(int64(uint32(xxhash.Sum64String(signature))))
}

// layoutHash hashes the name and the field layout of typ. Renaming, adding,
// removing or retyping a field changes the hash.
func layoutHash(name string, typ reflect.Type) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte(';')

	t := typ
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			sb.WriteString(f.Name)
			sb.WriteByte(':')
			sb.WriteString(f.Type.String())
			sb.WriteByte(';')
		}
	} else {
		sb.WriteString(t.String())
	}

	return strconv.FormatUint(uint64(uint32(xxhash.Sum64String(sb.String()))), 10)
}
