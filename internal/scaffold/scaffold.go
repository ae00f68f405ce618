package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jorge-barreto/forge/internal/config"
	"github.com/jorge-barreto/forge/internal/runner"
	"github.com/jorge-barreto/forge/internal/ux"
)

var configTemplate = `name: %s
backend: claude         # claude | gemini
model: sonnet           # claude: opus, sonnet, haiku; gemini: any model id
output: generated_code
temperature: 0.2
max-tokens: 4096
timeout: 10             # minutes per completion
retries: 3
cache-size: 128         # 0 disables the completion cache
workers: 1              # parallel file writes
final-newline: false
carry-history: false    # keep one conversation across stages

resolve:
  strategies: [annotation, explicit]

structure:
  enabled: true
  marker: __init__.py

stages:
  requirements: .forge/prompts/requirements.md
  design: .forge/prompts/design.md
  structure: .forge/prompts/structure.md
  files: .forge/prompts/files.md
`

var gitignoreEntries = []string{".forge/artifacts/", ".env"}

// Init creates a new .forge/ directory with a config file and editable
// copies of the built-in stage prompts.
func Init(targetDir string) error {
	forgeDir := filepath.Join(targetDir, config.Dir)
	if _, err := os.Stat(forgeDir); err == nil {
		return fmt.Errorf("%s directory already exists in %s", config.Dir, targetDir)
	}

	promptsDir := filepath.Join(forgeDir, "prompts")
	if err := os.MkdirAll(promptsDir, 0755); err != nil {
		return fmt.Errorf("creating .forge/prompts: %w", err)
	}

	name := filepath.Base(targetDir)
	if abs, err := filepath.Abs(targetDir); err == nil {
		name = filepath.Base(abs)
	}
	configPath := config.Path(targetDir)
	if err := os.WriteFile(configPath, []byte(fmt.Sprintf(configTemplate, yamlName(name))), 0644); err != nil {
		return fmt.Errorf("writing config.yaml: %w", err)
	}

	for _, stage := range config.StageNames {
		p := filepath.Join(promptsDir, stage+".md")
		if err := os.WriteFile(p, []byte(runner.DefaultPrompt(stage)), 0644); err != nil {
			return fmt.Errorf("writing %s.md: %w", stage, err)
		}
	}

	if err := ensureGitignore(targetDir); err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}

	fmt.Fprintf(ux.Out, "\n%s%s✓ Initialized .forge/ directory%s\n\n", ux.Bold, ux.Green, ux.Reset)
	fmt.Fprintf(ux.Out, "  Created:\n")
	fmt.Fprintf(ux.Out, "    %s.forge/config.yaml%s   workflow configuration\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(ux.Out, "    %s.forge/prompts/*.md%s  stage prompt templates\n\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(ux.Out, "  Next steps:\n")
	fmt.Fprintf(ux.Out, "    1. Edit %s.forge/config.yaml%s to pick a backend and model\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(ux.Out, "    2. Run %sforge run \"<task>\" --dry-run%s to preview\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(ux.Out, "    3. Run %sforge docs naming%s to see how files are named\n\n", ux.Cyan, ux.Reset)

	return nil
}

// ensureGitignore appends the entries forge needs ignored, skipping any
// already present.
func ensureGitignore(targetDir string) error {
	path := filepath.Join(targetDir, ".gitignore")
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	have := make(map[string]bool)
	for line := range strings.Lines(string(existing)) {
		have[strings.TrimSpace(line)] = true
	}
	var add strings.Builder
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		add.WriteByte('\n')
	}
	n := 0
	for _, e := range gitignoreEntries {
		if !have[e] {
			add.WriteString(e + "\n")
			n++
		}
	}
	if n == 0 {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(add.String()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// yamlName quotes name when it would not survive as a plain scalar.
func yamlName(name string) string {
	if name == "" || name == "." || name == "/" {
		return "my-project"
	}
	if strings.ContainsAny(name, ":#'\"{}[],&*!|>%@`") || strings.TrimSpace(name) != name {
		return fmt.Sprintf("%q", name)
	}
	return name
}
