// Package stream implements the dRPC serialization stream, a compact textual
// encoding for arbitrary object graphs (including cycles and shared references).
//
// The package focuses on:
//   - Protocol constants shared by writer and reader (versions, flags, separator)
//   - Encoding primitives into decimal tokens, 64 bit integers with a codec that
//     does not depend on native 64 bit arithmetic of the consumer
//   - Object graph traversal with identity based backreferences
//   - Rejecting incompatible streams before any payload token is interpreted
//
// Key Components:
//
//   - Writer: Turns values and object graphs into a token stream. Strings are
//     stored once in a string table and referenced by their 1-based index,
//     objects already written in the same stream are emitted as negative
//     backreferences.
//
//   - Reader: Parses an encoded stream back into primitives and objects. A slot
//     in the seen-object table is reserved before an object's fields are read,
//     so self referencing graphs resolve to the object under construction.
//
//   - TypeSerializer: The contract between the generic stream machinery and the
//     per-type logic (see the registry package for the implementation).
//
// Wire Format:
//
//	version|flags|N|string 1|...|string N|payload token|...|
//
// Every token is followed by the separator. String table entries escape the
// separator, so user strings may contain any character.
//
// Thread Safety:
//
//	Writers and readers are single-use and must not be shared between
//	goroutines. The TypeSerializer they use is shared and read-only.
package stream
