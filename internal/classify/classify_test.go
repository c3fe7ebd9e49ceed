package classify

import (
	"strings"
	"testing"

	"github.com/dgallion1/formulatag/internal/annotation"
	"github.com/dgallion1/formulatag/internal/doctree"
	"github.com/dgallion1/formulatag/internal/parser"
	"github.com/dgallion1/formulatag/internal/vocab"
)

const page = `<html><body>
<p><math id="rel"><semantics><mrow><mi>x</mi><mo>∈</mo><mi>S</mi></mrow></semantics></math></p>
<p><math id="sum"><semantics><mrow><mi>a</mi><mo>+</mo><mi>b</mi></mrow></semantics></math></p>
<p><math id="ident"><semantics><msub><mi>x</mi><mn>1</mn></msub></semantics></math></p>
<p><math id="num"><semantics><mn>3</mn></semantics></math></p>
<p><math id="bare"><mi>z</mi></math></p>
<table class="ltx_equationgroup" id="eg">
  <tr class="ltx_equation" id="eq1">
    <td><math id="lhs"><semantics><mi>f</mi></semantics></math></td>
    <td><math id="op"><semantics><mo>=</mo></semantics></math></td>
  </tr>
</table>
<table class="ltx_equation" id="eq2">
  <tr><td><math id="plain"><semantics><mrow><mi>g</mi><mo>+</mo><mn>1</mn></mrow></semantics></math></td></tr>
</table>
</body></html>`

func parsePage(t *testing.T) *doctree.DocTree {
	t.Helper()
	tree, err := (&parser.HTMLParser{}).Parse(strings.NewReader(page), "page.html")
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestClassify(t *testing.T) {
	tree := parsePage(t)
	tests := []struct {
		id   string
		want Kind
	}{
		{"rel", Relation},
		{"sum", Identifier},
		{"ident", Identifier},
		{"num", None},
		{"bare", None},
		{"eg", Relation},
		{"eq1", Relation},
		{"eq2", Identifier},
		// Outside a table, a lone operator is not a relation.
		{"op", None},
	}
	for _, tt := range tests {
		n := tree.Find(tt.id)
		if n == nil {
			t.Fatalf("node %q not found", tt.id)
		}
		if got := Classify(n); got != tt.want {
			t.Errorf("Classify(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestClassify_EmptyContainer(t *testing.T) {
	n := &doctree.DocNode{Element: "div", ID: "e", Classes: []string{"ltx_equation"}}
	if got := Classify(n); got != None {
		t.Errorf("Classify(empty) = %v, want none", got)
	}
}

func TestSuggest(t *testing.T) {
	tree := parsePage(t)
	cands, err := tree.Candidates()
	if err != nil {
		t.Fatal(err)
	}
	got := Suggest(cands, vocab.Default())
	want := annotation.Map{
		"rel":   "CL",
		"sum":   "ID",
		"ident": "ID",
		"eg":    "CL",
		"eq2":   "ID",
	}
	if !got.Equal(want) {
		t.Errorf("Suggest = %v, want %v", got, want)
	}
}

func TestSuggest_UnmappedKind(t *testing.T) {
	v := vocab.Default()
	v.Suggest.Relation = ""
	cands := []doctree.Candidate{{ID: "rel", Node: parsePage(t).Find("rel")}}
	if got := Suggest(cands, v); len(got) != 0 {
		t.Errorf("expected no suggestion, got %v", got)
	}
}

func TestSeed(t *testing.T) {
	existing := annotation.Map{"a": "P"}
	got := Seed(existing, annotation.Map{"a": "ID", "b": "CL"})
	if !got.Equal(annotation.Map{"a": "P", "b": "CL"}) {
		t.Errorf("Seed = %v", got)
	}
	if len(existing) != 1 {
		t.Error("Seed modified its input")
	}
	if got := Seed(nil, annotation.Map{"x": "ID"}); got["x"] != "ID" {
		t.Errorf("Seed(nil) = %v", got)
	}
}
