package fileblocks

import (
	"iter"
	"slices"
	"strings"
)

// Fence is the marker that opens and closes a fenced region.
const Fence = "```"

// CodeBlock is a single fenced region extracted from model output.
type CodeBlock struct {
	Index  int    // 0-based position among all fenced regions
	Lang   string // first token of the info string, lowercased; may be empty
	Info   string // full info string after the opening marker, trimmed
	Body   string // raw text between the fences
	Closed bool   // false when the input ended before a closing fence
}

// Empty reports whether the body has no non-whitespace content.
func (b CodeBlock) Empty() bool {
	return strings.TrimSpace(b.Body) == ""
}

// Attr returns the value of a key=value attribute in the info string,
// as in "```go file=cmd/main.go".
func (b CodeBlock) Attr(key string) string {
	for _, f := range strings.Fields(b.Info) {
		k, v, ok := strings.Cut(f, "=")
		if ok && k == key {
			return strings.Trim(v, `"'`)
		}
	}
	return ""
}

// isFence reports whether line opens or closes a fenced region and returns
// the info string that follows the marker.
func isFence(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, Fence) {
		return "", false
	}
	return strings.TrimSpace(trimmed[len(Fence):]), true
}

// Blocks returns the fenced regions of text in document order.
// The sequence is computed lazily and every range over it rescans text
// from the start.
//
// Any line that begins with the fence marker after leading whitespace is
// stripped closes an open block, so a fence quoted inside a body ends the
// block early. A fence still open at the end of input yields a block with
// the remaining lines.
func Blocks(text string) iter.Seq[CodeBlock] {
	return func(yield func(CodeBlock) bool) {
		var (
			open  bool
			cur   CodeBlock
			buf   strings.Builder
			lines int
			index int
		)
		for line := range strings.Lines(text) {
			line = strings.TrimSuffix(line, "\n")
			info, fence := isFence(line)

			if open {
				if fence {
					cur.Body = buf.String()
					cur.Closed = true
					if !yield(cur) {
						return
					}
					open = false
					index++
					continue
				}
				if lines > 0 {
					buf.WriteByte('\n')
				}
				buf.WriteString(line)
				lines++
				continue
			}

			if fence {
				open = true
				cur = CodeBlock{Index: index, Info: info, Lang: langOf(info)}
				buf.Reset()
				lines = 0
			}
		}
		if open {
			cur.Body = buf.String()
			yield(cur)
		}
	}
}

// Extract collects every fenced region of text.
func Extract(text string) []CodeBlock {
	return slices.Collect(Blocks(text))
}

// Render joins blocks back into fenced markdown, one region per block.
func Render(blocks []CodeBlock) string {
	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(Fence)
		sb.WriteString(b.Info)
		sb.WriteByte('\n')
		if b.Body != "" {
			sb.WriteString(b.Body)
			sb.WriteByte('\n')
		}
		sb.WriteString(Fence)
	}
	return sb.String()
}

func langOf(info string) string {
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return ""
	}
	tag := fields[0]
	if strings.Contains(tag, "=") {
		// "```file=x.go" carries no language.
		return ""
	}
	return strings.ToLower(tag)
}
