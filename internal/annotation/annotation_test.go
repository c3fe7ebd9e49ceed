package annotation

import (
	"errors"
	"testing"
)

func TestDecode_Object(t *testing.T) {
	m, err := Decode([]byte(`{"m1":"ID","m2":"CL"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["m1"] != "ID" || m["m2"] != "CL" {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestDecode_EmptyAndNull(t *testing.T) {
	for _, in := range []string{"", "   ", "null"} {
		m, err := Decode([]byte(in))
		if err != nil {
			t.Fatalf("Decode(%q): unexpected error: %v", in, err)
		}
		if len(m) != 0 {
			t.Errorf("Decode(%q): expected empty map, got %v", in, m)
		}
	}
}

func TestDecode_DropsNonStringValues(t *testing.T) {
	m, err := Decode([]byte(`{"a":"U","b":3,"c":null,"d":{"x":1}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 1 || m["a"] != "U" {
		t.Errorf("expected only a=U, got %v", m)
	}
}

func TestDecode_NonObject(t *testing.T) {
	for _, in := range []string{`[1,2]`, `"U"`, `42`, `{broken`} {
		if _, err := Decode([]byte(in)); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q): expected ErrMalformed, got %v", in, err)
		}
	}
}

func TestEncode_NilIsEmptyObject(t *testing.T) {
	var m Map
	data, err := m.Encode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("expected {}, got %s", data)
	}
}

func TestClone_Independent(t *testing.T) {
	m := Map{"a": "U"}
	c := m.Clone()
	c["a"] = "P"
	if m["a"] != "U" {
		t.Error("clone mutation leaked into original")
	}
	if !m.Equal(Map{"a": "U"}) {
		t.Error("expected original unchanged")
	}
}

func TestIDsAndCounts(t *testing.T) {
	m := Map{"b": "U", "a": "U", "c": "P"}
	ids := m.IDs()
	if len(ids) != 3 || ids[0] != "a" || ids[2] != "c" {
		t.Errorf("unexpected ids: %v", ids)
	}
	counts := m.Counts()
	if counts["U"] != 2 || counts["P"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
