package fileblocks

import (
	"fmt"
	"path"
	"strings"
)

// DefaultExt is used for languages with no known extension.
const DefaultExt = ".txt"

var aliases = map[string]string{
	"py":      "python",
	"python3": "python",
	"js":      "javascript",
	"node":    "javascript",
	"ts":      "typescript",
	"c++":     "cpp",
	"cs":      "csharp",
	"c#":      "csharp",
	"golang":  "go",
	"rs":      "rust",
	"rb":      "ruby",
	"kt":      "kotlin",
	"sh":      "bash",
	"shell":   "bash",
	"yml":     "yaml",
	"md":      "markdown",
	"htm":     "html",
}

var extensions = map[string]string{
	"python":     ".py",
	"javascript": ".js",
	"typescript": ".ts",
	"html":       ".html",
	"css":        ".css",
	"java":       ".java",
	"c":          ".c",
	"cpp":        ".cpp",
	"csharp":     ".cs",
	"go":         ".go",
	"rust":       ".rs",
	"php":        ".php",
	"ruby":       ".rb",
	"swift":      ".swift",
	"kotlin":     ".kt",
	"bash":       ".sh",
	"yaml":       ".yaml",
	"json":       ".json",
	"markdown":   ".md",
	"sql":        ".sql",
	"toml":       ".toml",
}

// Entry-point leaf names used when a target turns out to be a directory.
var entryPoints = map[string]string{
	"python":     "main.py",
	"go":         "main.go",
	"rust":       "main.rs",
	"java":       "Main.java",
	"c":          "main.c",
	"cpp":        "main.cpp",
	"ruby":       "main.rb",
	"javascript": "index.js",
	"typescript": "index.ts",
	"html":       "index.html",
	"css":        "styles.css",
	"php":        "index.php",
}

// Canonical maps a language tag or common alias to its canonical name.
func Canonical(lang string) string {
	if c, ok := aliases[lang]; ok {
		return c
	}
	return lang
}

// Extension returns the file extension for lang, or DefaultExt.
func Extension(lang string) string {
	if ext, ok := extensions[Canonical(lang)]; ok {
		return ext
	}
	return DefaultExt
}

// EntryPoint returns the conventional entry file name for lang.
func EntryPoint(lang string) string {
	if name, ok := entryPoints[Canonical(lang)]; ok {
		return name
	}
	return "index" + Extension(lang)
}

// SyntheticName names a block that no strategy could resolve.
func SyntheticName(index int, lang string) string {
	return fmt.Sprintf("generated_code_%d%s", index+1, Extension(lang))
}

// LangForPath guesses the canonical language of a file from its
// extension. Unknown extensions yield "".
func LangForPath(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return ""
	}
	if ext == ".yml" {
		return "yaml"
	}
	for lang, e := range extensions {
		if e == ext {
			return lang
		}
	}
	return ""
}
