package resolve

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var pathInHintRe = regexp.MustCompile("`([^`\\s]+)`")

// Hint takes the path from a backticked token in the paragraph directly
// above a fenced block, as in "Update `cmd/main.go`:".
type Hint struct{}

func (Hint) Name() Method { return MethodHint }

func (Hint) Resolve(doc *Document, index int) (string, bool) {
	hints := doc.Hints()
	if index < 0 || index >= len(hints) || hints[index] == "" {
		return "", false
	}
	return hints[index], true
}

// Hints returns the preceding-paragraph path for each block, or "" where
// there is none. Fenced blocks are matched to the document's blocks by
// content, in order, since the markdown parser and the line scanner can
// disagree about where fences start.
func (d *Document) Hints() []string {
	if d.parsed {
		return d.hints
	}
	d.parsed = true
	d.hints = make([]string, len(d.Blocks))

	src := []byte(d.Text)
	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	type fenced struct {
		key  string
		hint string
	}
	var found []fenced
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var body strings.Builder
		lines := fcb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			body.Write(seg.Value(src))
		}
		f := fenced{key: bodyKey(body.String())}
		if p, ok := fcb.PreviousSibling().(*ast.Paragraph); ok {
			f.hint = pathFromParagraph(p, src)
		}
		found = append(found, f)
		return ast.WalkSkipChildren, nil
	})

	next := 0
	for i, b := range d.Blocks {
		key := bodyKey(b.Body)
		for j := next; j < len(found); j++ {
			if found[j].key == key {
				d.hints[i] = found[j].hint
				next = j + 1
				break
			}
		}
	}
	return d.hints
}

// pathFromParagraph reads the raw paragraph source so that code spans keep
// their backticks.
func pathFromParagraph(p *ast.Paragraph, src []byte) string {
	var raw strings.Builder
	lines := p.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		raw.Write(seg.Value(src))
	}
	for _, m := range pathInHintRe.FindAllStringSubmatch(raw.String(), -1) {
		if path := normalize(m[1]); looksLikePath(path) {
			return path
		}
	}
	return ""
}

func bodyKey(body string) string {
	return strings.Join(strings.Fields(body), " ")
}
