package fileblocks

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestExtract_SingleBlock(t *testing.T) {
	input := "```python\nprint('hi')\nx = 1\n```\n"
	blocks := Extract(input)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Lang != "python" {
		t.Fatalf("expected lang python, got %q", blocks[0].Lang)
	}
	if blocks[0].Body != "print('hi')\nx = 1" {
		t.Fatalf("unexpected body: %q", blocks[0].Body)
	}
	if !blocks[0].Closed {
		t.Fatal("expected block to be closed")
	}
}

func TestExtract_MultipleBlocks(t *testing.T) {
	input := `Some text before

` + "```yaml" + `
name: test
` + "```" + `

More text

` + "```Go" + `
package main
` + "```" + `
`
	blocks := Extract(input)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Index != 0 || blocks[1].Index != 1 {
		t.Fatalf("unexpected indexes: %d, %d", blocks[0].Index, blocks[1].Index)
	}
	if blocks[1].Lang != "go" {
		t.Fatalf("block 1: expected lowercased lang go, got %q", blocks[1].Lang)
	}
}

func TestExtract_IndentedFence(t *testing.T) {
	input := "1. Run this:\n   ```bash\n   make build\n   ```\n"
	blocks := Extract(input)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Body != "   make build" {
		t.Fatalf("expected untrimmed body, got %q", blocks[0].Body)
	}
}

func TestExtract_NoLanguageTag(t *testing.T) {
	blocks := Extract("```\nplain\n```")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Lang != "" {
		t.Fatalf("expected empty lang, got %q", blocks[0].Lang)
	}
}

func TestExtract_FileAnnotation(t *testing.T) {
	blocks := Extract("```yaml file=.forge/config.yaml\nname: x\n```\n```file=a.txt\nhello\n```")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if got := blocks[0].Attr("file"); got != ".forge/config.yaml" {
		t.Fatalf("expected file attr .forge/config.yaml, got %q", got)
	}
	if blocks[0].Lang != "yaml" {
		t.Fatalf("expected lang yaml, got %q", blocks[0].Lang)
	}
	if blocks[1].Lang != "" {
		t.Fatalf("expected no lang for bare annotation, got %q", blocks[1].Lang)
	}
	if got := blocks[1].Attr("file"); got != "a.txt" {
		t.Fatalf("expected file attr a.txt, got %q", got)
	}
}

func TestExtract_EmptyContent(t *testing.T) {
	blocks := Extract("```yaml\n```\n")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Body != "" || !blocks[0].Empty() {
		t.Fatalf("expected empty body, got %q", blocks[0].Body)
	}
}

func TestExtract_UnclosedBlock_Kept(t *testing.T) {
	blocks := Extract("intro\n```python\ndef f():\n    return 1\n")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block for unclosed fence, got %d", len(blocks))
	}
	if blocks[0].Closed {
		t.Fatal("expected block to be marked unclosed")
	}
	if blocks[0].Body != "def f():\n    return 1" {
		t.Fatalf("unexpected body: %q", blocks[0].Body)
	}
}

func TestExtract_NestedFenceTerminatesBlock(t *testing.T) {
	input := "```markdown\nUse this:\n```python\nprint(1)\n```\n"
	blocks := Extract(input)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Body != "Use this:" || !blocks[0].Closed {
		t.Fatalf("expected block 0 cut at inner fence, got %+v", blocks[0])
	}
	if blocks[0].Lang != "markdown" {
		t.Fatalf("block 0 lang = %q, want markdown", blocks[0].Lang)
	}
	if !blocks[1].Empty() || blocks[1].Closed {
		t.Fatalf("expected trailing fence to open an empty unclosed block, got %+v", blocks[1])
	}
}

func TestExtract_NoFences(t *testing.T) {
	if blocks := Extract("just prose, no code"); len(blocks) != 0 {
		t.Fatalf("expected 0 blocks, got %d", len(blocks))
	}
}

func TestBlocks_Restartable(t *testing.T) {
	seq := Blocks("```a\n1\n```\n```b\n2\n```\n")
	var first, second []string
	for b := range seq {
		first = append(first, b.Lang)
	}
	for b := range seq {
		second = append(second, b.Lang)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second pass differs (-first +second):\n%s", diff)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 blocks, got %v", first)
	}
}

func TestBlocks_EarlyBreak(t *testing.T) {
	n := 0
	for range Blocks("```\na\n```\n```\nb\n```\n```\nc\n```") {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("expected to stop after 2 blocks, got %d", n)
	}
}

func TestRender_RoundTrip(t *testing.T) {
	docs := []string{
		"```python\nprint('hi')\n```",
		"text\n```go file=main.go\npackage main\n\nfunc main() {}\n```\nmore\n```\n```\n",
		"```js\nconsole.log(1)\n\n```\n```yaml\na: 1\n```",
		"```\n  indented\n\ttabbed\n```",
		"```rust\nfn main() {}\n",
	}
	ignore := cmpopts.IgnoreFields(CodeBlock{}, "Closed")
	for _, doc := range docs {
		want := Extract(doc)
		got := Extract(Render(want))
		if diff := cmp.Diff(want, got, ignore); diff != "" {
			t.Fatalf("round trip mismatch for %q (-want +got):\n%s", doc, diff)
		}
	}
}

func TestExtract_CRLF(t *testing.T) {
	blocks := Extract("```python\r\nx = 1\r\n```\r\n")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Lang != "python" {
		t.Fatalf("expected lang python, got %q", blocks[0].Lang)
	}
	if got := Sanitize(blocks[0].Body); got != "x = 1" {
		t.Fatalf("expected sanitized body %q, got %q", "x = 1", got)
	}
}
