package vocab

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Tag is one entry of the annotation taxonomy.
type Tag struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Color string `yaml:"color" json:"color"`
	Key   string `yaml:"key" json:"key"`
}

// Suggest maps classifier outcomes onto tag ids.
type Suggest struct {
	Identifier string `yaml:"identifier" json:"identifier"`
	Relation   string `yaml:"relation" json:"relation"`
}

// Vocabulary is the ordered tag set plus the tag assigned to unseen nodes.
type Vocabulary struct {
	Tags    []Tag   `yaml:"tags" json:"tags"`
	Default string  `yaml:"default" json:"default"`
	Suggest Suggest `yaml:"suggest" json:"suggest"`
}

// Fixed key bindings that no tag may reuse.
const (
	KeySave = "s"
	KeyNext = "n"
	KeyPrev = "N"
)

// Action is what a key press does in a session view.
type Action struct {
	Kind ActionKind `json:"kind"`
	Tag  string     `json:"tag,omitempty"`
}

type ActionKind string

const (
	ActionTag  ActionKind = "tag"
	ActionSave ActionKind = "save"
	ActionNext ActionKind = "next"
	ActionPrev ActionKind = "prev"
)

// Default returns the taxonomy the tool shipped with.
func Default() *Vocabulary {
	return &Vocabulary{
		Tags: []Tag{
			{ID: "ID", Name: "ID", Color: "#0fa", Key: "1"},
			{ID: "CL", Name: "CL", Color: "#88f", Key: "2"},
			{ID: "NUM", Name: "NUM", Color: "#fa0", Key: "3"},
			{ID: "P", Name: "P", Color: "#f00", Key: "4"},
			{ID: "U", Name: "U", Color: "#ff0", Key: "5"},
		},
		Default: "U",
		Suggest: Suggest{Identifier: "ID", Relation: "CL"},
	}
}

// Load reads a vocabulary from a YAML file.
func Load(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary %s: %w", path, err)
	}
	defer f.Close()
	v, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

// Parse decodes and validates a YAML vocabulary.
func Parse(r io.Reader) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	for i := range v.Tags {
		if v.Tags[i].Name == "" {
			v.Tags[i].Name = v.Tags[i].ID
		}
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

// Validate checks ids, the default tag, suggestion targets and key bindings.
func (v *Vocabulary) Validate() error {
	if len(v.Tags) == 0 {
		return fmt.Errorf("vocabulary has no tags")
	}
	seen := make(map[string]bool, len(v.Tags))
	for _, t := range v.Tags {
		if t.ID == "" {
			return fmt.Errorf("tag with empty id")
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate tag id %q", t.ID)
		}
		seen[t.ID] = true
	}
	if v.Default == "" {
		return fmt.Errorf("default tag is required")
	}
	if !seen[v.Default] {
		return fmt.Errorf("default tag %q is not in the vocabulary", v.Default)
	}
	for _, s := range []string{v.Suggest.Identifier, v.Suggest.Relation} {
		if s != "" && !seen[s] {
			return fmt.Errorf("suggested tag %q is not in the vocabulary", s)
		}
	}
	_, err := v.Keymap()
	return err
}

// Has reports whether id names a tag in the vocabulary.
func (v *Vocabulary) Has(id string) bool {
	_, ok := v.Lookup(id)
	return ok
}

// Lookup returns the tag with the given id.
func (v *Vocabulary) Lookup(id string) (Tag, bool) {
	for _, t := range v.Tags {
		if t.ID == id {
			return t, true
		}
	}
	return Tag{}, false
}

// Normalize maps unknown tag ids to the default tag.
func (v *Vocabulary) Normalize(id string) string {
	if v.Has(id) {
		return id
	}
	return v.Default
}

// Keymap derives key bindings from the tags plus the fixed save and
// navigation keys. Tags without a key get no binding.
func (v *Vocabulary) Keymap() (map[string]Action, error) {
	km := map[string]Action{
		KeySave: {Kind: ActionSave},
		KeyNext: {Kind: ActionNext},
		KeyPrev: {Kind: ActionPrev},
	}
	for _, t := range v.Tags {
		if t.Key == "" {
			continue
		}
		if existing, ok := km[t.Key]; ok {
			if existing.Kind == ActionTag {
				return nil, fmt.Errorf("key %q bound to both %q and %q", t.Key, existing.Tag, t.ID)
			}
			return nil, fmt.Errorf("key %q of tag %q collides with the %s binding", t.Key, t.ID, existing.Kind)
		}
		km[t.Key] = Action{Kind: ActionTag, Tag: t.ID}
	}
	return km, nil
}
