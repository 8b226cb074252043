package stream_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ValentinKolb/dRPC/lib/registry"
	"github.com/ValentinKolb/dRPC/lib/stream"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Test types

type person struct {
	ID     int32
	Name   string
	Friend *person
}

type node struct {
	Value int64
	Label *string
	Next  *node
}

// personV2 is person with an additional field
type personV2 struct {
	ID     int32
	Name   string
	Friend *personV2
	Email  string
}

type unregistered struct{}

type marker struct{}

func testRegistry(t *testing.T, hashes bool) *registry.Registry {
	b := registry.NewBuilder().WithBuiltins()
	if hashes {
		b.WithSignatureHashes()
	}

	registry.Register(b, "person", personCodec())

	registry.Register(b, "node", registry.Codec[*node]{
		Serialize: func(w *stream.Writer, n *node) error {
			w.WriteInt64(n.Value)
			w.WriteNullableString(n.Label)
			return w.WriteObject(n.Next)
		},
		Deserialize: func(r *stream.Reader, n *node) (err error) {
			if n.Value, err = r.ReadInt64(); err != nil {
				return err
			}
			if n.Label, err = r.ReadNullableString(); err != nil {
				return err
			}
			n.Next, err = registry.ReadObjectAs[*node](r)
			return err
		},
	})

	reg, err := b.Build()
	require.NoError(t, err)
	return reg
}

func personCodec() registry.Codec[*person] {
	return registry.Codec[*person]{
		Serialize: func(w *stream.Writer, p *person) error {
			w.WriteInt32(p.ID)
			w.WriteString(p.Name)
			return w.WriteObject(p.Friend)
		},
		Deserialize: func(r *stream.Reader, p *person) (err error) {
			if p.ID, err = r.ReadInt32(); err != nil {
				return err
			}
			if p.Name, err = r.ReadString(); err != nil {
				return err
			}
			p.Friend, err = registry.ReadObjectAs[*person](r)
			return err
		},
	}
}

func newWriter(t *testing.T, reg stream.TypeSerializer, opts ...stream.WriterOption) *stream.Writer {
	w, err := stream.NewWriter(reg, opts...)
	require.NoError(t, err)
	return w
}

func newReader(t *testing.T, reg stream.TypeSerializer, encoded string) *stream.Reader {
	r := stream.NewReader(reg)
	require.NoError(t, r.PrepareToRead(encoded))
	return r
}

// -----------------------------------------------------------------------------
// Long codec

func TestLongCodec_Boundaries(t *testing.T) {
	expected := map[int64]string{
		0:             "A",
		1:             "B",
		63:            "_",
		64:            "BA",
		-1:            "P__________",
		math.MinInt64: "IAAAAAAAAAA",
		math.MaxInt64: "H__________",
	}
	for v, enc := range expected {
		require.Equal(t, enc, stream.EncodeLong(v), "encode %d", v)
		dec, err := stream.DecodeLong(enc)
		require.NoError(t, err)
		require.Equal(t, v, dec)
	}

	values := []int64{
		2, -2, 1 << 31, -(1 << 31), 1<<32 - 1, 1 << 32, 1<<53 + 1, -(1<<53 + 1),
		0x123456789abcdef0, -0x123456789abcdef0, math.MinInt64 + 1, math.MaxInt64 - 1,
	}
	for _, v := range values {
		dec, err := stream.DecodeLong(stream.EncodeLong(v))
		require.NoError(t, err)
		require.Equal(t, v, dec)
	}
}

func TestDecodeLong_Invalid(t *testing.T) {
	for _, token := range []string{"", "A*", "QAAAAAAAAAA", "AAAAAAAAAAAA", "-1"} {
		_, err := stream.DecodeLong(token)

		var rangeErr *stream.NumericRangeError
		require.ErrorAs(t, err, &rangeErr, "token %q", token)
		require.ErrorIs(t, err, stream.ErrSerialization)
	}
}

func TestSplitJoinLong(t *testing.T) {
	for _, v := range []int64{0, -1, 1, math.MinInt64, math.MaxInt64, 0x7fffffff00000001, -0x100000000} {
		high, low := stream.SplitLong(v)
		joined, err := stream.JoinLong(high, low)
		require.NoError(t, err)
		require.Equal(t, v, joined)
	}

	_, err := stream.JoinLong(0.5, 0)
	require.Error(t, err)
	_, err = stream.JoinLong(0, 4294967296)
	require.Error(t, err)
	_, err = stream.JoinLong(math.NaN(), 0)
	require.Error(t, err)
	_, err = stream.JoinLong(0, -1)
	require.Error(t, err)
}

// -----------------------------------------------------------------------------
// Primitives

func TestPrimitives_RoundTrip(t *testing.T) {
	for _, version := range []int{stream.MinVersion, 6, stream.Version, stream.MaxVersion} {
		reg := testRegistry(t, false)
		w := newWriter(t, reg, stream.WithVersion(version))

		w.WriteBool(true)
		w.WriteBool(false)
		w.WriteInt8(math.MinInt8)
		w.WriteChar('|')
		w.WriteChar(math.MaxUint16)
		w.WriteInt16(math.MinInt16)
		w.WriteInt32(math.MaxInt32)
		w.WriteInt64(math.MinInt64)
		w.WriteInt64(math.MaxInt64)
		w.WriteInt64(-1)
		w.WriteFloat32(3.25)
		w.WriteFloat64(math.Pi)
		w.WriteFloat64(math.Inf(-1))
		w.WriteFloat64(math.NaN())
		w.WriteString("a|b\\c")
		w.WriteString("")
		w.WriteNullableString(nil)

		r := newReader(t, reg, w.String())
		require.Equal(t, version, r.Version())

		b, err := r.ReadBool()
		require.NoError(t, err)
		require.True(t, b)
		b, err = r.ReadBool()
		require.NoError(t, err)
		require.False(t, b)

		i8, err := r.ReadInt8()
		require.NoError(t, err)
		require.Equal(t, int8(math.MinInt8), i8)

		c, err := r.ReadChar()
		require.NoError(t, err)
		require.Equal(t, uint16('|'), c)
		c, err = r.ReadChar()
		require.NoError(t, err)
		require.Equal(t, uint16(math.MaxUint16), c)

		i16, err := r.ReadInt16()
		require.NoError(t, err)
		require.Equal(t, int16(math.MinInt16), i16)

		i32, err := r.ReadInt32()
		require.NoError(t, err)
		require.Equal(t, int32(math.MaxInt32), i32)

		for _, expected := range []int64{math.MinInt64, math.MaxInt64, -1} {
			i64, err := r.ReadInt64()
			require.NoError(t, err, "version %d", version)
			require.Equal(t, expected, i64, "version %d", version)
		}

		f32, err := r.ReadFloat32()
		require.NoError(t, err)
		require.Equal(t, float32(3.25), f32)

		f64, err := r.ReadFloat64()
		require.NoError(t, err)
		require.Equal(t, math.Pi, f64)
		f64, err = r.ReadFloat64()
		require.NoError(t, err)
		require.True(t, math.IsInf(f64, -1))
		f64, err = r.ReadFloat64()
		require.NoError(t, err)
		require.True(t, math.IsNaN(f64))

		s, err := r.ReadString()
		require.NoError(t, err)
		require.Equal(t, "a|b\\c", s)

		ns, err := r.ReadNullableString()
		require.NoError(t, err)
		require.NotNil(t, ns)
		require.Equal(t, "", *ns)

		ns, err = r.ReadNullableString()
		require.NoError(t, err)
		require.Nil(t, ns)

		require.Equal(t, 0, r.Remaining())
	}
}

func TestReader_TruncatedStream(t *testing.T) {
	reg := testRegistry(t, false)
	r := newReader(t, reg, "7|0|0|")

	_, err := r.ReadInt32()
	var malformed *stream.MalformedStreamError
	require.ErrorAs(t, err, &malformed)
}

func TestReader_OutOfRangeTokens(t *testing.T) {
	reg := testRegistry(t, false)

	r := newReader(t, reg, "7|0|0|128|")
	_, err := r.ReadInt8()
	require.Error(t, err)

	r = newReader(t, reg, "7|0|0|2|")
	_, err = r.ReadBool()
	require.Error(t, err)

	r = newReader(t, reg, "7|0|1|a|2|")
	_, err = r.ReadString()
	require.Error(t, err)

	r = newReader(t, reg, "7|0|0|1e400|")
	_, err = r.ReadFloat64()
	var rangeErr *stream.NumericRangeError
	require.ErrorAs(t, err, &rangeErr)
}

func TestReader_InvalidFloatTokens(t *testing.T) {
	reg := testRegistry(t, false)

	for _, token := range []string{"x", "abc", "inf", "+Inf", "nan", "0x1p-2", "1_000", "", "1.2.3"} {
		r := newReader(t, reg, "7|0|0|"+token+"|")
		_, err := r.ReadFloat64()

		var malformed *stream.MalformedStreamError
		require.ErrorAs(t, err, &malformed, "token %q", token)
	}

	r := newReader(t, reg, "7|0|0|-1.5e-3|")
	v, err := r.ReadFloat64()
	require.NoError(t, err)
	require.Equal(t, -1.5e-3, v)
}

// -----------------------------------------------------------------------------
// Framing

func TestWriter_ExactOutput(t *testing.T) {
	reg := testRegistry(t, false)
	ann := &person{ID: 7, Name: "Ann"}
	ann.Friend = ann

	w := newWriter(t, reg)
	require.NoError(t, w.WriteObject(ann))

	require.Equal(t, "7|0|2|person|Ann|1|7|2|-1|", w.String())
}

func TestStringTable_Dedup(t *testing.T) {
	reg := testRegistry(t, false)
	w := newWriter(t, reg)

	for i := 0; i < 3; i++ {
		w.WriteString("Ann")
	}
	w.WriteString("Bob")
	w.WriteString("Ann")

	summary, err := stream.Inspect(w.String())
	require.NoError(t, err)
	require.Equal(t, []string{"Ann", "Bob"}, summary.StringTable)
	require.Equal(t, []string{"1", "1", "1", "2", "1"}, summary.Payload)
}

func TestStringTable_Escaping(t *testing.T) {
	reg := testRegistry(t, false)
	values := []string{"|", "||", "\\", "\\!", "a\x00b", "|7|0|0|", "ünïcödé"}

	w := newWriter(t, reg)
	for _, v := range values {
		w.WriteString(v)
	}

	r := newReader(t, reg, w.String())
	for _, v := range values {
		s, err := r.ReadString()
		require.NoError(t, err)
		require.Equal(t, v, s)
	}
}

func TestPrepareToRead_VersionRejection(t *testing.T) {
	reg := testRegistry(t, false)

	for _, encoded := range []string{"4|0|0|", "9|0|0|", "-7|0|0|"} {
		err := stream.NewReader(reg).PrepareToRead(encoded)

		var versionErr *stream.IncompatibleVersionError
		require.ErrorAs(t, err, &versionErr, encoded)
	}

	// payload garbage is never looked at
	err := stream.NewReader(reg).PrepareToRead("99|garbage|x|")
	var versionErr *stream.IncompatibleVersionError
	require.ErrorAs(t, err, &versionErr)
	require.Equal(t, 99, versionErr.Version)
}

func TestPrepareToRead_FlagsRejection(t *testing.T) {
	reg := testRegistry(t, false)
	err := stream.NewReader(reg).PrepareToRead("7|4|0|")

	var flagsErr *stream.IncompatibleFlagsError
	require.ErrorAs(t, err, &flagsErr)
	require.Equal(t, stream.Flags(4), flagsErr.Flags)
}

func TestPrepareToRead_Malformed(t *testing.T) {
	reg := testRegistry(t, false)
	for _, encoded := range []string{"", "7|0|0", "7|0|5|a|", "7|0|1|a\\|", "x|0|0|"} {
		err := stream.NewReader(reg).PrepareToRead(encoded)

		var malformed *stream.MalformedStreamError
		require.ErrorAs(t, err, &malformed, encoded)
	}
}

func TestNewWriter_InvalidOptions(t *testing.T) {
	reg := testRegistry(t, false)

	_, err := stream.NewWriter(reg, stream.WithVersion(stream.MaxVersion+1))
	require.Error(t, err)

	_, err = stream.NewWriter(reg, stream.WithFlags(0x10))
	require.Error(t, err)
}

// -----------------------------------------------------------------------------
// Object graphs

func TestObject_SelfReference(t *testing.T) {
	reg := testRegistry(t, true)
	ann := &person{ID: 7, Name: "Ann"}
	ann.Friend = ann

	w := newWriter(t, reg)
	require.NoError(t, w.WriteObject(ann))

	r := newReader(t, reg, w.String())
	obj, err := r.ReadObject()
	require.NoError(t, err)

	decoded, ok := obj.(*person)
	require.True(t, ok)
	require.Equal(t, int32(7), decoded.ID)
	require.Equal(t, "Ann", decoded.Name)
	require.Same(t, decoded, decoded.Friend)
}

func TestObject_SharedReferences(t *testing.T) {
	reg := testRegistry(t, false)
	shared := &person{ID: 1, Name: "Shared"}
	a := &person{ID: 2, Name: "A", Friend: shared}
	b := &person{ID: 3, Name: "B", Friend: shared}
	list := &registry.ArrayList{a, b, shared, a}

	w := newWriter(t, reg)
	require.NoError(t, w.WriteObject(list))

	r := newReader(t, reg, w.String())
	obj, err := r.ReadObject()
	require.NoError(t, err)

	decoded := *obj.(*registry.ArrayList)
	require.Len(t, decoded, 4)

	da := decoded[0].(*person)
	db := decoded[1].(*person)
	require.Same(t, da.Friend, db.Friend)
	require.Same(t, da.Friend, decoded[2])
	require.Same(t, da, decoded[3])
	require.Equal(t, "Shared", da.Friend.Name)
}

func TestObject_Cycle(t *testing.T) {
	reg := testRegistry(t, false)
	label := "head"
	head := &node{Value: math.MinInt64, Label: &label}
	second := &node{Value: math.MaxInt64}
	third := &node{Value: -1}
	head.Next, second.Next, third.Next = second, third, head

	for _, version := range []int{stream.MinVersion, stream.Version} {
		w := newWriter(t, reg, stream.WithVersion(version))
		require.NoError(t, w.WriteObject(head))

		r := newReader(t, reg, w.String())
		obj, err := r.ReadObject()
		require.NoError(t, err)

		dh := obj.(*node)
		require.Equal(t, int64(math.MinInt64), dh.Value)
		require.Equal(t, "head", *dh.Label)
		require.Nil(t, dh.Next.Label)
		require.Equal(t, int64(math.MaxInt64), dh.Next.Value)
		require.Equal(t, int64(-1), dh.Next.Next.Value)
		require.Same(t, dh, dh.Next.Next.Next)
	}
}

func TestObject_SelfContainingList(t *testing.T) {
	reg := testRegistry(t, false)
	list := &registry.ArrayList{"x"}
	*list = append(*list, list)

	w := newWriter(t, reg)
	require.NoError(t, w.WriteObject(list))

	r := newReader(t, reg, w.String())
	obj, err := r.ReadObject()
	require.NoError(t, err)

	decoded := obj.(*registry.ArrayList)
	require.Equal(t, "x", (*decoded)[0])
	require.Same(t, decoded, (*decoded)[1])
}

func TestObject_Null(t *testing.T) {
	reg := testRegistry(t, false)
	var nilPerson *person

	w := newWriter(t, reg)
	require.NoError(t, w.WriteObject(nil))
	require.NoError(t, w.WriteObject(nilPerson))

	r := newReader(t, reg, w.String())
	for i := 0; i < 2; i++ {
		obj, err := r.ReadObject()
		require.NoError(t, err)
		require.Nil(t, obj)
	}
}

func TestObject_Values(t *testing.T) {
	reg := testRegistry(t, false)
	values := []any{"text", "", true, int32(-5), int64(math.MinInt64), 2.5, registry.StringMap{"k": "v", "n": nil}}

	w := newWriter(t, reg)
	for _, v := range values {
		require.NoError(t, w.WriteObject(v))
	}

	r := newReader(t, reg, w.String())
	for _, v := range values {
		obj, err := r.ReadObject()
		require.NoError(t, err)
		require.Equal(t, v, obj)
	}
}

func TestObject_UnknownTypeWrite(t *testing.T) {
	reg := testRegistry(t, false)
	w := newWriter(t, reg)

	err := w.WriteObject(&unregistered{})

	var unknown *stream.UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	require.Contains(t, err.Error(), "unregistered")
	require.Equal(t, "7|0|0|", w.String())
}

func TestObject_UnknownTypeRead(t *testing.T) {
	reg := testRegistry(t, false)
	r := newReader(t, reg, "7|0|1|com.example.Gone/123|1|5|")

	obj, err := r.ReadObject()
	require.Nil(t, obj)

	var unknown *stream.UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "com.example.Gone/123", unknown.Signature)
}

func TestObject_SignatureHashMismatch(t *testing.T) {
	plain := testRegistry(t, false)
	hashed := testRegistry(t, true)

	w := newWriter(t, plain)
	require.NoError(t, w.WriteObject(&person{ID: 1, Name: "A"}))

	r := newReader(t, hashed, w.String())
	_, err := r.ReadObject()

	var unknown *stream.UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "person", unknown.Signature)
}

func TestObject_InvalidBackreference(t *testing.T) {
	reg := testRegistry(t, false)

	for _, encoded := range []string{"7|0|0|-1|", "7|0|1|person|1|1|0|-2|"} {
		r := newReader(t, reg, encoded)
		_, err := r.ReadObject()

		var malformed *stream.MalformedStreamError
		require.True(t, errors.As(err, &malformed), "%s: %v", encoded, err)
	}
}

func TestObject_ElideTypeNames(t *testing.T) {
	reg := testRegistry(t, true)
	ann := &person{ID: 7, Name: "Ann"}
	ann.Friend = ann

	w := newWriter(t, reg, stream.WithFlags(stream.FlagElideTypeNames))
	require.NoError(t, w.WriteObject(ann))

	summary, err := stream.Inspect(w.String())
	require.NoError(t, err)
	for _, s := range summary.StringTable {
		require.NotContains(t, s, "person")
	}

	r := newReader(t, reg, w.String())
	obj, err := r.ReadObject()
	require.NoError(t, err)
	require.Same(t, obj, obj.(*person).Friend)
}

func TestObject_ElideTypeNamesAcrossRegistries(t *testing.T) {
	// the writer knows fewer types than the reader
	b := registry.NewBuilder().WithSignatureHashes()
	registry.Register(b, "person", personCodec())
	small, err := b.Build()
	require.NoError(t, err)

	w := newWriter(t, small, stream.WithFlags(stream.FlagElideTypeNames))
	require.NoError(t, w.WriteObject(&person{ID: 1, Name: "A"}))

	r := newReader(t, testRegistry(t, true), w.String())
	obj, err := r.ReadObject()
	require.NoError(t, err)
	require.Equal(t, &person{ID: 1, Name: "A"}, obj)

	// the reader registers person with a different layout
	b = registry.NewBuilder().WithBuiltins().WithSignatureHashes()
	registry.Register(b, "person", registry.Codec[*personV2]{})
	changed, err := b.Build()
	require.NoError(t, err)

	r = newReader(t, changed, w.String())
	obj, err = r.ReadObject()
	require.Nil(t, obj)

	var unknown *stream.UnknownTypeError
	require.ErrorAs(t, err, &unknown)
}

func TestObject_ZeroSizeValues(t *testing.T) {
	b := registry.NewBuilder().WithBuiltins()
	registry.Register(b, "marker", registry.Codec[*marker]{})
	reg, err := b.Build()
	require.NoError(t, err)

	m := &marker{}
	w := newWriter(t, reg)
	require.NoError(t, w.WriteObject(&registry.ArrayList{&marker{}, &marker{}, m, m}))
	require.Equal(t, "7|0|2|list|marker|1|4|2|2|2|2|", w.String())

	r := newReader(t, reg, w.String())
	obj, err := r.ReadObject()
	require.NoError(t, err)
	list := *obj.(*registry.ArrayList)
	require.Len(t, list, 4)
	for _, item := range list {
		require.IsType(t, &marker{}, item)
	}
}

func TestObject_MaxDepth(t *testing.T) {
	reg := testRegistry(t, false)
	nested := func(depth int) string {
		return "7|0|1|list|" + strings.Repeat("1|1|", depth) + "0|"
	}

	r := stream.NewReader(reg, stream.WithMaxDepth(3))
	require.NoError(t, r.PrepareToRead(nested(3)))
	_, err := r.ReadObject()
	require.NoError(t, err)

	require.NoError(t, r.PrepareToRead(nested(4)))
	_, err = r.ReadObject()
	var malformed *stream.MalformedStreamError
	require.ErrorAs(t, err, &malformed)

	// siblings do not add up, only nesting counts
	r = stream.NewReader(reg, stream.WithMaxDepth(2))
	require.NoError(t, r.PrepareToRead("7|0|1|list|1|3|1|0|1|0|1|0|"))
	obj, err := r.ReadObject()
	require.NoError(t, err)
	require.Len(t, *obj.(*registry.ArrayList), 3)

	r = newReader(t, reg, nested(stream.DefaultMaxDepth+1))
	_, err = r.ReadObject()
	require.ErrorAs(t, err, &malformed)
}

func TestRPCToken(t *testing.T) {
	reg := testRegistry(t, false)

	w := newWriter(t, reg)
	require.Error(t, w.WriteRPCToken("secret"))

	w = newWriter(t, reg, stream.WithFlags(stream.FlagRPCTokenIncluded))
	require.NoError(t, w.WriteRPCToken("secret"))
	require.Error(t, w.WriteRPCToken("again"))
	w.WriteInt32(42)

	r := newReader(t, reg, w.String())
	token, err := r.ReadRPCToken()
	require.NoError(t, err)
	require.Equal(t, "secret", token)

	v, err := r.ReadInt32()
	require.NoError(t, err)
	require.Equal(t, int32(42), v)
}

func TestWriter_PrepareToWriteResets(t *testing.T) {
	reg := testRegistry(t, false)
	p := &person{ID: 1, Name: "A"}

	w := newWriter(t, reg)
	require.NoError(t, w.WriteObject(p))
	first := w.String()

	w.PrepareToWrite()
	require.Equal(t, "7|0|0|", w.String())

	// the object is written in full again, not as a backreference
	require.NoError(t, w.WriteObject(p))
	require.Equal(t, first, w.String())
}
