package scaffold

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jorge-barreto/forge/internal/config"
	"github.com/jorge-barreto/forge/internal/runner"
	"github.com/jorge-barreto/forge/internal/ux"
)

func TestMain(m *testing.M) {
	ux.Out = io.Discard
	os.Exit(m.Run())
}

func TestInit_CreatesDirectoryStructure(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	paths := []string{
		".forge",
		filepath.Join(".forge", "prompts"),
		filepath.Join(".forge", "config.yaml"),
	}
	for _, stage := range config.StageNames {
		paths = append(paths, filepath.Join(".forge", "prompts", stage+".md"))
	}
	for _, path := range paths {
		full := filepath.Join(dir, path)
		info, err := os.Stat(full)
		if err != nil {
			t.Fatalf("%s not created: %v", path, err)
		}
		if !info.IsDir() && info.Size() == 0 {
			t.Fatalf("%s is empty", path)
		}
	}
}

func TestInit_GeneratedConfigIsValid(t *testing.T) {
	t.Setenv("FORGE_BACKEND", "")
	t.Setenv("FORGE_MODEL", "")
	dir := filepath.Join(t.TempDir(), "my-app")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := Init(dir); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	cfg, err := config.Load(config.Path(dir), dir)
	if err != nil {
		t.Fatalf("config.Load failed on generated config: %v", err)
	}
	if cfg.Name != "my-app" {
		t.Fatalf("Name = %q, want my-app", cfg.Name)
	}
	if len(cfg.Stages) != len(config.StageNames) {
		t.Fatalf("expected %d stage prompts, got %d", len(config.StageNames), len(cfg.Stages))
	}
	def := config.Default()
	if cfg.Temperature != def.Temperature || cfg.MaxTokens != def.MaxTokens || cfg.Output != def.Output {
		t.Fatalf("generated config drifted from defaults: %+v", cfg)
	}
}

func TestInit_PromptsMatchBuiltins(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir); err != nil {
		t.Fatal(err)
	}
	for _, stage := range config.StageNames {
		data, err := os.ReadFile(filepath.Join(dir, ".forge", "prompts", stage+".md"))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != runner.DefaultPrompt(stage) {
			t.Fatalf("%s.md differs from the built-in prompt", stage)
		}
	}
}

func TestInit_FailsIfDirExists(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".forge"), 0755); err != nil {
		t.Fatal(err)
	}

	err := Init(dir)
	if err == nil {
		t.Fatal("expected error when .forge already exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected error containing 'already exists', got: %s", err)
	}
}

func TestInit_AppendsGitignore(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("node_modules/\n.env"), 0644)
	if err := Init(dir); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		t.Fatal(err)
	}
	want := "node_modules/\n.env\n.forge/artifacts/\n"
	if string(data) != want {
		t.Fatalf("got %q, want %q", string(data), want)
	}
}

func TestYamlName(t *testing.T) {
	cases := map[string]string{
		"app":    "app",
		"":       "my-project",
		"a:b":    `"a:b"`,
		"x #tag": `"x #tag"`,
	}
	for in, want := range cases {
		if got := yamlName(in); got != want {
			t.Fatalf("yamlName(%q) = %q, want %q", in, got, want)
		}
	}
}
