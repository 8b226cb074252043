// Package registry implements the type registry used by the stream package.
// It maps a type signature to the three operations needed to move instances of
// that type across the wire: instantiate, deserialize and serialize.
//
// The package focuses on:
//   - Explicit registration of application types (no code generation)
//   - Immutable registries that are safe for concurrent lookups
//   - Optional signature hashes that reject structurally changed types
//   - Built-in entries for common values and containers
//
// Key Components:
//
//   - Builder: Collects registrations and validates them once in Build.
//
//   - Registry: The immutable result, implements stream.TypeSerializer and
//     stream.TypeIDResolver.
//
//   - Codec: Typed description of how to (de)serialize a Go type T.
//
// Usage:
//
//	b := registry.NewBuilder().WithBuiltins()
//	registry.Register(b, "app.Person", registry.Codec[*Person]{
//	  Serialize: func(w *stream.Writer, p *Person) error {
//	    w.WriteInt32(p.ID)
//	    w.WriteString(p.Name)
//	    return w.WriteObject(p.Friend)
//	  },
//	  Deserialize: func(r *stream.Reader, p *Person) (err error) {
//	    if p.ID, err = r.ReadInt32(); err != nil {
//	      return err
//	    }
//	    if p.Name, err = r.ReadString(); err != nil {
//	      return err
//	    }
//	    p.Friend, err = registry.ReadObjectAs[*Person](r)
//	    return err
//	  },
//	})
//	reg, err := b.Build()
//
// Pointer types get a default Instantiate that allocates a zero value.
package registry
