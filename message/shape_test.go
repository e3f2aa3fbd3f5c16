package message

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseShape(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Shape
		ok   bool
	}{
		{"string", `"hello"`, Str("hello"), true},
		{"list", `["a","b"]`, List{"a", "b"}, true},
		{"list skips scalars", `["a",1,true,null,"b"]`, List{"a", "b"}, true},
		{"nested list", `["a",["b",["c"]]]`, List{"a", "b", "c"}, true},
		{"tree", `{"f":["x"],"g":"y"}`, Tree{{"f", List{"x"}}, {"g", Str("y")}}, true},
		{"number", `12`, nil, false},
		{"null", `null`, nil, false},
		{"empty", ``, nil, false},
		{"invalid", `{"a":`, nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseShape(json.RawMessage(tc.raw))
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("expected %#v, got %#v", tc.want, got)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	shape := Tree{
		{"email", List{"required", "invalid"}},
		{"profile", Tree{{"bio", Str("too long")}}},
		{"empty", List{}},
	}
	if got := Join(shape); got != "required, invalid, too long" {
		t.Errorf("unexpected %q", got)
	}
	if got := Join(nil); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestBodyMessage(t *testing.T) {
	if _, ok := BodyMessage([]byte(`{"error":"x"}`)); ok {
		t.Error("expected no message field")
	}
	s, ok := BodyMessage([]byte(`{"message":"m","other":1}`))
	if !ok || s != Str("m") {
		t.Errorf("unexpected %#v %v", s, ok)
	}
}
