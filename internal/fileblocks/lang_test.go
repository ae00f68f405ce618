package fileblocks

import "testing"

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"python":  ".py",
		"py":      ".py",
		"go":      ".go",
		"golang":  ".go",
		"csharp":  ".cs",
		"kotlin":  ".kt",
		"unknown": ".txt",
		"":        ".txt",
	}
	for lang, want := range cases {
		if got := Extension(lang); got != want {
			t.Fatalf("Extension(%q) = %q, want %q", lang, got, want)
		}
	}
}

func TestEntryPoint(t *testing.T) {
	cases := map[string]string{
		"python":     "main.py",
		"java":       "Main.java",
		"javascript": "index.js",
		"ts":         "index.ts",
		"css":        "styles.css",
		"swift":      "index.swift",
		"":           "index.txt",
	}
	for lang, want := range cases {
		if got := EntryPoint(lang); got != want {
			t.Fatalf("EntryPoint(%q) = %q, want %q", lang, got, want)
		}
	}
}

func TestSyntheticName(t *testing.T) {
	if got := SyntheticName(0, "python"); got != "generated_code_1.py" {
		t.Fatalf("got %q, want generated_code_1.py", got)
	}
	if got := SyntheticName(4, "brainfuck"); got != "generated_code_5.txt" {
		t.Fatalf("got %q, want generated_code_5.txt", got)
	}
}

func TestLangForPath(t *testing.T) {
	cases := map[string]string{
		"app.py":          "python",
		"src/Main.java":   "java",
		"web/index.HTML":  "html",
		"config.yml":      "yaml",
		"Makefile":        "",
		"notes.unknownxx": "",
	}
	for p, want := range cases {
		if got := LangForPath(p); got != want {
			t.Fatalf("LangForPath(%q) = %q, want %q", p, got, want)
		}
	}
}
