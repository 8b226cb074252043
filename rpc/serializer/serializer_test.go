package serializer

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ValentinKolb/dRPC/lib/registry"
	"github.com/ValentinKolb/dRPC/lib/stream"
	"github.com/ValentinKolb/dRPC/rpc/common"
)

// testConfs are the stream configurations every test runs with
var testConfs = map[string]common.StreamConf{
	"Default":   {},
	"Version5":  {Version: stream.MinVersion},
	"Version8":  {Version: stream.MaxVersion},
	"ElideType": {ElideTypeNames: true},
}

func newTestSerializer(t testing.TB, conf common.StreamConf) IRPCSerializer {
	s, err := NewStreamSerializer(common.DefaultRegistry(), conf)
	if err != nil {
		t.Fatalf("NewStreamSerializer failed: %v", err)
	}
	return s
}

// testRequests creates a set of requests with different argument shapes
func testRequests() []*common.Request {
	shared := &registry.ArrayList{"shared", int64(-1)}
	return []*common.Request{
		// no arguments
		common.NewRequest("echo", "ping"),

		// primitive arguments
		common.NewRequest("objects", "put", "key|with|separators", int32(7)),

		// nested containers and a null argument
		common.NewRequest("echo", "echo", registry.StringMap{"a": shared, "b": shared}, nil),

		// request with token
		{Service: "objects", Method: "get", Args: []any{"key"}, Token: "token-123"},
	}
}

// TestRequestRoundTrip tests that requests can be serialized and deserialized correctly
func TestRequestRoundTrip(t *testing.T) {
	for name, conf := range testConfs {
		t.Run(name, func(t *testing.T) {
			serializer := newTestSerializer(t, conf)

			for i, req := range testRequests() {
				data, err := serializer.SerializeRequest(req)
				if err != nil {
					t.Errorf("Failed to serialize request %d: %v", i, err)
					continue
				}

				result, err := serializer.DeserializeRequest(data)
				if err != nil {
					t.Errorf("Failed to deserialize request %d: %v", i, err)
					continue
				}

				if !reflect.DeepEqual(req, result) {
					t.Errorf("Request %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v", i, req, result)
				}
			}
		})
	}
}

// TestSharedArgumentIdentity tests that arguments sharing an object still share it after decoding
func TestSharedArgumentIdentity(t *testing.T) {
	serializer := newTestSerializer(t, common.StreamConf{})
	list := &registry.ArrayList{"x"}

	data, err := serializer.SerializeRequest(common.NewRequest("echo", "echo", list, list))
	if err != nil {
		t.Fatalf("Failed to serialize request: %v", err)
	}
	req, err := serializer.DeserializeRequest(data)
	if err != nil {
		t.Fatalf("Failed to deserialize request: %v", err)
	}
	if req.Args[0] != req.Args[1] {
		t.Error("Arguments should reference the same list after decoding")
	}
}

// TestResponseRoundTrip tests values and exceptions
func TestResponseRoundTrip(t *testing.T) {
	responses := []*common.Response{
		common.NewResponse(nil),
		common.NewResponse("value"),
		common.NewResponse(&registry.ArrayList{int32(1), 2.5, true}),
		common.NewErrorResponse(common.ExServiceError, errors.New("something failed")),
		common.NewErrorResponse(common.ExInternal, &registry.RemoteException{Type: "Cause", Message: "root"}),
	}

	for name, conf := range testConfs {
		t.Run(name, func(t *testing.T) {
			serializer := newTestSerializer(t, conf)

			for i, resp := range responses {
				data, err := serializer.SerializeResponse(resp)
				if err != nil {
					t.Errorf("Failed to serialize response %d: %v", i, err)
					continue
				}

				wantPrefix := common.ResponsePrefixOK
				if resp.Err != nil {
					wantPrefix = common.ResponsePrefixEX
				}
				if !strings.HasPrefix(string(data), wantPrefix) {
					t.Errorf("Response %d has no %s prefix: %s", i, wantPrefix, data)
				}

				result, err := serializer.DeserializeResponse(data)
				if err != nil {
					t.Errorf("Failed to deserialize response %d: %v", i, err)
					continue
				}
				if !reflect.DeepEqual(resp, result) {
					t.Errorf("Response %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v", i, resp, result)
				}
			}
		})
	}
}

// TestTokenFlag tests that only requests with a token carry the token flag
func TestTokenFlag(t *testing.T) {
	serializer := newTestSerializer(t, common.StreamConf{})

	for _, token := range []string{"", "secret"} {
		data, err := serializer.SerializeRequest(&common.Request{Service: "echo", Method: "ping", Token: token})
		if err != nil {
			t.Fatalf("Failed to serialize request: %v", err)
		}
		summary, err := stream.Inspect(string(data))
		if err != nil {
			t.Fatalf("Failed to inspect request: %v", err)
		}
		if hasFlag := summary.Flags&stream.FlagRPCTokenIncluded != 0; hasFlag != (token != "") {
			t.Errorf("token %q: unexpected flags %#x", token, int(summary.Flags))
		}
	}
}

// TestInvalidInput tests that invalid input results in an error, never a panic
func TestInvalidInput(t *testing.T) {
	serializer := newTestSerializer(t, common.StreamConf{})

	requests := map[string]string{
		"Empty":            "",
		"Garbage":          "hello world",
		"FutureVersion":    "9|0|0|",
		"UnknownFlags":     "7|8|0|",
		"MissingMethod":    "7|0|1|echo|1|",
		"NegativeArgCount": "7|0|2|echo|ping|1|2|-1|",
		"ArgCountTooLarge": "7|0|2|echo|ping|1|2|1000|",
		"UnknownType":      "7|0|3|echo|ping|nope|1|2|1|3|",
		"TrailingTokens":   "7|0|2|echo|ping|1|2|0|5|",
	}
	for name, input := range requests {
		t.Run("Request"+name, func(t *testing.T) {
			if _, err := serializer.DeserializeRequest([]byte(input)); err == nil {
				t.Errorf("Expected error for %q", input)
			}
		})
	}

	responses := map[string]string{
		"Empty":           "",
		"NoPrefix":        "7|0|0|0|",
		"UnknownPrefix":   "//XX7|0|0|0|",
		"ExceptionIsNull": "//EX7|0|0|0|",
		"ExceptionIsList": "//EX7|0|1|list|1|0|",
		"Truncated":       "//OK7|0|1|list|1|3|",
	}
	for name, input := range responses {
		t.Run("Response"+name, func(t *testing.T) {
			if _, err := serializer.DeserializeResponse([]byte(input)); err == nil {
				t.Errorf("Expected error for %q", input)
			}
		})
	}
}

// TestUnknownArgumentType tests that unregistered argument types are rejected on write
func TestUnknownArgumentType(t *testing.T) {
	serializer := newTestSerializer(t, common.StreamConf{})

	_, err := serializer.SerializeRequest(common.NewRequest("echo", "echo", struct{ A int }{1}))
	var unknown *stream.UnknownTypeError
	if !errors.As(err, &unknown) {
		t.Errorf("Expected UnknownTypeError, got %v", err)
	}
}

// TestInvalidConfig tests that invalid stream configurations are rejected up front
func TestInvalidConfig(t *testing.T) {
	if _, err := NewStreamSerializer(common.DefaultRegistry(), common.StreamConf{Version: 4}); err == nil {
		t.Error("Expected error for unsupported version")
	}
}

// TestRequestEncoding pins the exact wire format of a simple request
func TestRequestEncoding(t *testing.T) {
	serializer := newTestSerializer(t, common.StreamConf{})

	data, err := serializer.SerializeRequest(common.NewRequest("echo", "echo", "hi"))
	if err != nil {
		t.Fatalf("Failed to serialize request: %v", err)
	}
	if want := "7|0|3|echo|string|hi|1|1|1|2|3|"; string(data) != want {
		t.Errorf("Unexpected encoding:\nwant %s\ngot  %s", want, data)
	}
}

// nestedListRequest encodes an echo request whose argument is depth nested
// one element lists
func nestedListRequest(depth int) []byte {
	return []byte("7|0|3|echo|ping|list|1|2|1|" + strings.Repeat("3|1|", depth) + "0|")
}

// TestNestingDepth tests that deeply nested arguments are rejected instead of
// exhausting the stack
func TestNestingDepth(t *testing.T) {
	serializer := newTestSerializer(t, common.StreamConf{})

	if _, err := serializer.DeserializeRequest(nestedListRequest(100)); err != nil {
		t.Fatalf("Failed to deserialize nested request: %v", err)
	}

	_, err := serializer.DeserializeRequest(nestedListRequest(stream.DefaultMaxDepth + 1))
	var malformed *stream.MalformedStreamError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedStreamError, got %v", err)
	}

	limited := newTestSerializer(t, common.StreamConf{MaxDepth: 8})
	if _, err := limited.DeserializeRequest(nestedListRequest(8)); err != nil {
		t.Errorf("Failed to deserialize request at the depth limit: %v", err)
	}
	if _, err := limited.DeserializeRequest(nestedListRequest(9)); !errors.As(err, &malformed) {
		t.Errorf("Expected MalformedStreamError, got %v", err)
	}

	resp := "//OK7|0|1|list|" + strings.Repeat("1|1|", 9) + "0|"
	if _, err := limited.DeserializeResponse([]byte(resp)); !errors.As(err, &malformed) {
		t.Errorf("Expected MalformedStreamError for response, got %v", err)
	}
}
