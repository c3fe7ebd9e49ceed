// Package paragraphs serves short HTML fragments for paragraph-by-paragraph
// review and cuts full documents into such fragments.
package paragraphs

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/formulatag/internal/store"
)

// ErrNotFound is returned when a paragraph ref has no fragment file.
var ErrNotFound = errors.New("paragraph not found")

// ErrEmpty is returned by Random when the library holds no fragments.
var ErrEmpty = errors.New("no paragraphs available")

// Paragraph is one fragment. Ref doubles as the annotation document id.
type Paragraph struct {
	Ref  string
	HTML string
}

// Library is a directory of fragment files.
type Library struct {
	dir string
}

// NewLibrary opens dir, which must exist.
func NewLibrary(dir string) (*Library, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("paragraph directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("paragraph directory %s is not a directory", dir)
	}
	return &Library{dir: dir}, nil
}

// Dir returns the library directory.
func (l *Library) Dir() string { return l.dir }

// List returns the fragment refs in sorted order. Dotfiles are skipped.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("list paragraphs: %w", err)
	}
	var refs []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		refs = append(refs, e.Name())
	}
	sort.Strings(refs)
	return refs, nil
}

// Get reads the fragment named ref.
func (l *Library) Get(ref string) (Paragraph, error) {
	if err := store.ValidateID(ref); err != nil {
		return Paragraph{}, err
	}
	data, err := os.ReadFile(filepath.Join(l.dir, ref))
	if errors.Is(err, os.ErrNotExist) {
		return Paragraph{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return Paragraph{}, fmt.Errorf("read paragraph %s: %w", ref, err)
	}
	return Paragraph{Ref: ref, HTML: string(data)}, nil
}

// Random picks a fragment uniformly.
func (l *Library) Random() (Paragraph, error) {
	refs, err := l.List()
	if err != nil {
		return Paragraph{}, err
	}
	if len(refs) == 0 {
		return Paragraph{}, ErrEmpty
	}
	return l.Get(refs[rand.IntN(len(refs))])
}
