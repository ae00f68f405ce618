package runner

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jorge-barreto/forge/internal/structure"
)

var (
	bulletRe    = regexp.MustCompile(`^\s*(?:[-*•+]|\d+[.)])\s+(.+)$`)
	fileTokenRe = regexp.MustCompile(`^[\w\-./]+$`)
)

// ParseRequirements pulls the bulleted or numbered items out of a
// response. A response with no list yields its non-empty, non-heading
// lines.
func ParseRequirements(text string) []string {
	var items, plain []string
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "```") {
			continue
		}
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
			continue
		}
		plain = append(plain, line)
	}
	if len(items) > 0 {
		return items
	}
	return plain
}

// BulletList renders items as a markdown list.
func BulletList(items []string) string {
	var sb strings.Builder
	for _, it := range items {
		sb.WriteString("- ")
		sb.WriteString(it)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParseFileList returns the files a structure response plans to write,
// relative to the output root. A tree diagram wins; otherwise each line
// contributes its first path-like token.
func ParseFileList(text string) (structure.Tree, []string) {
	tree := structure.Extract(text)
	if len(tree.Files) > 0 {
		return tree, tree.Files
	}
	var files []string
	seen := make(map[string]bool)
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			line = m[1]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		tok := strings.Trim(fields[0], "`*\"'")
		tok = strings.TrimSuffix(tok, ":")
		tok = strings.TrimPrefix(tok, "./")
		if !plannedFile(tok) || seen[tok] {
			continue
		}
		seen[tok] = true
		files = append(files, tok)
	}
	return tree, files
}

func plannedFile(p string) bool {
	if p == "" || strings.HasSuffix(p, "/") || !fileTokenRe.MatchString(p) {
		return false
	}
	if !filepath.IsLocal(p) {
		return false
	}
	base := path.Base(p)
	return strings.Contains(strings.Trim(base, "."), ".")
}
