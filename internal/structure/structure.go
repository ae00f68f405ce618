// Package structure reads directory-tree diagrams such as
//
//	myapp/
//	├── app/
//	│   ├── __init__.py
//	│   └── routes.py
//	└── README.md
//
// out of model responses.
package structure

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jorge-barreto/forge/internal/fileblocks"
)

// DirectoryHint is a directory drawn in a tree diagram, relative to the
// output root.
type DirectoryHint struct {
	Path    string
	Package bool // wants a package marker file
}

// Tree is the parsed diagram. Root is the drawn top-level directory name;
// Dirs and Files are relative to it. Block is the ordinal of the fenced
// region the diagram came from.
type Tree struct {
	Root  string
	Block int
	Dirs  []DirectoryHint
	Files []string
}

// Empty reports whether no diagram was found.
func (t Tree) Empty() bool {
	return t.Root == "" && len(t.Dirs) == 0 && len(t.Files) == 0
}

var treeLangs = map[string]bool{
	"":          true,
	"bash":      true,
	"shell":     true,
	"sh":        true,
	"text":      true,
	"plaintext": true,
	"txt":       true,
	"tree":      true,
}

// Directories that never hold Python packages even in a Python tree.
var nonPackageDirs = map[string]bool{
	"static":       true,
	"templates":    true,
	"docs":         true,
	"assets":       true,
	"public":       true,
	"media":        true,
	"scripts":      true,
	"node_modules": true,
	"venv":         true,
	".venv":        true,
	"tests_data":   true,
}

var (
	rootRe       = regexp.MustCompile(`^([\w.\-]+)/$`)
	connectorRe  = regexp.MustCompile("^([\\s│|]*)(?:[├└][─-]+|[|`]--+)[ \t]*(.*)$")
	identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Extract finds the first fenced tree diagram in text. A diagram is a
// fenced region tagged as plain text or shell whose first non-empty line is
// a bare "name/". No diagram yields an empty Tree.
func Extract(text string) Tree {
	for b := range fileblocks.Blocks(text) {
		if !treeLangs[b.Lang] {
			continue
		}
		if t, ok := parse(b.Body); ok {
			t.Block = b.Index
			return t
		}
	}
	return Tree{}
}

type level struct {
	col  int
	path string
}

func parse(body string) (Tree, bool) {
	lines := strings.Split(body, "\n")
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i == len(lines) {
		return Tree{}, false
	}
	m := rootRe.FindStringSubmatch(strings.TrimSpace(lines[i]))
	if m == nil {
		return Tree{}, false
	}
	t := Tree{Root: m[1]}

	var stack []level
	seen := make(map[string]bool)
	for _, line := range lines[i+1:] {
		line = strings.TrimRight(line, " \t\r")
		cm := connectorRe.FindStringSubmatch(line)
		if cm == nil {
			continue
		}
		name := entryName(cm[2])
		if name == "" {
			continue
		}
		col := utf8.RuneCountInString(line) - utf8.RuneCountInString(cm[2])

		for len(stack) > 0 && stack[len(stack)-1].col >= col {
			stack = stack[:len(stack)-1]
		}
		parent := ""
		if len(stack) > 0 {
			parent = stack[len(stack)-1].path
		}

		isDir := strings.HasSuffix(name, "/")
		rel := path.Join(parent, strings.TrimSuffix(name, "/"))
		if rel == "." || strings.HasPrefix(rel, "..") || path.IsAbs(rel) || seen[rel] {
			continue
		}
		seen[rel] = true
		if isDir {
			t.Dirs = append(t.Dirs, DirectoryHint{Path: rel})
			stack = append(stack, level{col: col, path: rel})
		} else {
			t.Files = append(t.Files, rel)
		}
	}
	markPackages(&t)
	return t, true
}

// entryName returns the drawn name without trailing comments.
func entryName(s string) string {
	if i := strings.Index(s, "#"); i >= 0 {
		s = s[:i]
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], "`*")
}

// markPackages flags directories that look like Python packages when the
// tree contains Python sources.
func markPackages(t *Tree) {
	hasPython := false
	for _, f := range t.Files {
		if strings.HasSuffix(f, ".py") {
			hasPython = true
			break
		}
	}
	if !hasPython {
		return
	}
	for i := range t.Dirs {
		base := path.Base(t.Dirs[i].Path)
		t.Dirs[i].Package = identifierRe.MatchString(base) && !nonPackageDirs[base]
	}
}
