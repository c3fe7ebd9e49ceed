package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/formulatag/internal/doctree"
)

const latexmlPage = `<!DOCTYPE html>
<html><head><title>On Things</title><script>var x = 1;</script></head>
<body>
<div class="ltx_page_main">
  <div class="ltx_para" id="p1">
    <p>Let <math id="m1" display="inline"><semantics><mi>x</mi></semantics></math> be real.</p>
  </div>
  <table class="ltx_equationgroup" id="eg1">
    <tr class="ltx_equation" id="eq1"><td><math id="m2"><mi>y</mi></math></td></tr>
  </table>
  <p><math id="m3"><mi>z</mi></math></p>
</div>
</body></html>`

func TestHTMLParser_TitleAndCandidates(t *testing.T) {
	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(latexmlPage), "1808.02342.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "On Things" {
		t.Errorf("expected title %q, got %q", "On Things", tree.Title)
	}

	cands, err := tree.Candidates()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"m1", "eg1", "eq1", "m2", "m3"}
	if len(cands) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(cands))
	}
	for i, id := range want {
		if cands[i].ID != id {
			t.Errorf("candidate %d: expected %q, got %q", i, id, cands[i].ID)
		}
	}
	if got := cands[3].Enclosing; len(got) != 2 || got[0] != "eg1" {
		t.Errorf("expected m2 enclosed by eg1 and eq1, got %v", got)
	}
}

func TestHTMLParser_FilenameTitleFallback(t *testing.T) {
	tree, err := (&HTMLParser{}).Parse(strings.NewReader(`<p><math id="a"></math></p>`), "para_7.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "para_7" {
		t.Errorf("expected title %q, got %q", "para_7", tree.Title)
	}
	if tree.Root == nil || tree.Root.Element != "body" {
		t.Fatalf("expected body root for fragment, got %+v", tree.Root)
	}
}

func TestHTMLParser_RootClass(t *testing.T) {
	tree, err := (&HTMLParser{RootClass: "ltx_page_main"}).Parse(strings.NewReader(latexmlPage), "doc.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Root == nil || !tree.Root.HasClass("ltx_page_main") {
		t.Fatalf("expected ltx_page_main root, got %+v", tree.Root)
	}
}

func TestHTMLParser_RootClassMissing(t *testing.T) {
	tree, err := (&HTMLParser{RootClass: "ltx_page_main"}).Parse(strings.NewReader(`<p>no main</p>`), "doc.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tree.Candidates(); !errors.Is(err, doctree.ErrNoRoot) {
		t.Errorf("expected ErrNoRoot, got %v", err)
	}
}

func TestHTMLParser_SkipsScripts(t *testing.T) {
	tree, err := (&HTMLParser{}).Parse(strings.NewReader(`<body><script>alert(1)</script><p>hi</p></body>`), "x.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tree.Root.TextContent(); got != "hi" {
		t.Errorf("expected %q, got %q", "hi", got)
	}
}

func TestForFile(t *testing.T) {
	cases := map[string]bool{
		"doc.html": true,
		"doc.HTM":  true,
		"doc.md":   true,
		"doc.pdf":  false,
		"doc":      false,
	}
	for name, ok := range cases {
		_, err := ForFile(name, Options{})
		if (err == nil) != ok {
			t.Errorf("ForFile(%q): expected ok=%v, got err=%v", name, ok, err)
		}
		if IsSupportedExtension(name) != ok {
			t.Errorf("IsSupportedExtension(%q): expected %v", name, ok)
		}
	}
}

func TestForFile_RootClass(t *testing.T) {
	p, err := ForFile("page.md", Options{RootClass: "main"})
	if err != nil {
		t.Fatal(err)
	}
	src := "<div class=\"side\"><math id=\"x\"><mi>x</mi></math></div>\n\n" +
		"<div class=\"main\"><math id=\"y\"><mi>y</mi></math></div>\n"
	tree, err := p.Parse(strings.NewReader(src), "page.md")
	if err != nil {
		t.Fatal(err)
	}
	cands, err := tree.Candidates()
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 1 || cands[0].ID != "y" {
		t.Errorf("candidates = %+v, want only y", cands)
	}
	if IsHTML("page.md") || !IsHTML("page.XHTML") {
		t.Error("IsHTML misclassified an extension")
	}
}
