package vocab

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_Valid(t *testing.T) {
	v := Default()
	if err := v.Validate(); err != nil {
		t.Fatalf("default vocabulary invalid: %v", err)
	}
	if v.Default != "U" {
		t.Errorf("expected default tag U, got %q", v.Default)
	}
}

func TestKeymap_Default(t *testing.T) {
	km, err := Default().Keymap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cases := map[string]Action{
		"1": {Kind: ActionTag, Tag: "ID"},
		"2": {Kind: ActionTag, Tag: "CL"},
		"3": {Kind: ActionTag, Tag: "NUM"},
		"4": {Kind: ActionTag, Tag: "P"},
		"5": {Kind: ActionTag, Tag: "U"},
		"s": {Kind: ActionSave},
		"n": {Kind: ActionNext},
		"N": {Kind: ActionPrev},
	}
	for key, want := range cases {
		if got := km[key]; got != want {
			t.Errorf("key %q: expected %+v, got %+v", key, want, got)
		}
	}
	if len(km) != len(cases) {
		t.Errorf("expected %d bindings, got %d", len(cases), len(km))
	}
}

func TestKeymap_CollisionWithFixedKey(t *testing.T) {
	v := &Vocabulary{
		Tags:    []Tag{{ID: "U", Key: "s"}},
		Default: "U",
	}
	if err := v.Validate(); err == nil {
		t.Fatal("expected collision with save key")
	}
}

func TestKeymap_CollisionBetweenTags(t *testing.T) {
	v := &Vocabulary{
		Tags:    []Tag{{ID: "U", Key: "1"}, {ID: "P", Key: "1"}},
		Default: "U",
	}
	_, err := v.Keymap()
	if err == nil || !strings.Contains(err.Error(), "bound to both") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name string
		v    Vocabulary
	}{
		{"empty", Vocabulary{Default: "U"}},
		{"no default", Vocabulary{Tags: []Tag{{ID: "U"}}}},
		{"unknown default", Vocabulary{Tags: []Tag{{ID: "U"}}, Default: "X"}},
		{"duplicate id", Vocabulary{Tags: []Tag{{ID: "U"}, {ID: "U"}}, Default: "U"}},
		{"empty id", Vocabulary{Tags: []Tag{{ID: ""}}, Default: "U"}},
		{"unknown suggestion", Vocabulary{Tags: []Tag{{ID: "U"}}, Default: "U", Suggest: Suggest{Relation: "CL"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.v.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	v := Default()
	if got := v.Normalize("CL"); got != "CL" {
		t.Errorf("expected CL, got %q", got)
	}
	if got := v.Normalize("noun"); got != "U" {
		t.Errorf("expected unknown tag to normalize to U, got %q", got)
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.yaml")
	content := `
tags:
  - id: N
    color: "#0fa"
    key: "1"
  - id: PN
    name: proper noun
    color: "#fa0"
    key: "2"
  - id: U
    color: "#ff0"
default: U
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.Tags) != 3 {
		t.Fatalf("expected 3 tags, got %d", len(v.Tags))
	}
	if v.Tags[0].Name != "N" {
		t.Errorf("expected name to default to id, got %q", v.Tags[0].Name)
	}
	if v.Tags[1].Name != "proper noun" {
		t.Errorf("expected explicit name kept, got %q", v.Tags[1].Name)
	}
	km, _ := v.Keymap()
	if _, ok := km["3"]; ok {
		t.Error("tag without key should not be bound")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
