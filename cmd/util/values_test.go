package util

import (
	"testing"

	"github.com/ValentinKolb/dRPC/lib/registry"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		arg  string
		want any
	}{
		{"null", nil},
		{"true", true},
		{"false", false},
		{"i:-12", int32(-12)},
		{"l:9007199254740993", int64(9007199254740993)},
		{"d:2.5", 2.5},
		{"s:true", "true"},
		{"s:i:1", "i:1"},
		{"hello", "hello"},
		{"http://x", "http://x"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := ParseValue(tt.arg)
			if err != nil {
				t.Fatalf("ParseValue(%q) failed: %v", tt.arg, err)
			}
			if got != tt.want {
				t.Errorf("ParseValue(%q) = %#v, want %#v", tt.arg, got, tt.want)
			}
		})
	}

	for _, arg := range []string{"i:x", "i:3000000000", "l:1.5", "d:abc"} {
		if _, err := ParseValue(arg); err == nil {
			t.Errorf("ParseValue(%q) should fail", arg)
		}
	}

	if _, err := ParseValues([]string{"ok", "i:nope"}); err == nil {
		t.Error("ParseValues should fail on an invalid argument")
	}
}

func TestFormatValue(t *testing.T) {
	shared := registry.StringMap{"b": int64(2), "a": "x"}
	list := &registry.ArrayList{int32(1), 0.5, nil, true, shared, shared}
	*list = append(*list, list)

	want := `[i:1, d:0.5, null, true, {"a": "x", "b": l:2}, {"a": "x", "b": l:2}, <cycle>]`
	if got := FormatValue(list); got != want {
		t.Errorf("FormatValue() = %s, want %s", got, want)
	}

	self := registry.StringMap{}
	self["self"] = self
	if got := FormatValue(self); got != `{"self": <cycle>}` {
		t.Errorf("FormatValue(self map) = %s", got)
	}

	re := &registry.RemoteException{Type: "Internal", Message: "boom"}
	if got := FormatValue(re); got != "exception(Internal: boom)" {
		t.Errorf("FormatValue(exception) = %s", got)
	}
}
