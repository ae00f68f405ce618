package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/forge/internal/fsutil"
)

// EnsureDir creates the artifacts directory structure.
func EnsureDir(artifactsDir string) error {
	dirs := []string{
		artifactsDir,
		filepath.Join(artifactsDir, "prompts"),
		filepath.Join(artifactsDir, "responses"),
		filepath.Join(artifactsDir, "logs"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("creating artifacts dir %s: %w", d, err)
		}
	}
	return nil
}

// PromptPath returns the path for a rendered prompt file.
func PromptPath(artifactsDir string, idx int) string {
	return filepath.Join(artifactsDir, "prompts", fmt.Sprintf("stage-%d.md", idx+1))
}

// ResponsePath returns the path for a raw model response.
func ResponsePath(artifactsDir string, idx int) string {
	return filepath.Join(artifactsDir, "responses", fmt.Sprintf("stage-%d.md", idx+1))
}

// LogPath returns the path for a stage log file.
func LogPath(artifactsDir string, idx int) string {
	return filepath.Join(artifactsDir, "logs", fmt.Sprintf("stage-%d.log", idx+1))
}

// StepPromptPath and StepResponsePath name the artifacts of call n within
// a stage that makes one call per file.
func StepPromptPath(artifactsDir string, idx, n int) string {
	return filepath.Join(artifactsDir, "prompts", fmt.Sprintf("stage-%d-%03d.md", idx+1, n+1))
}

func StepResponsePath(artifactsDir string, idx, n int) string {
	return filepath.Join(artifactsDir, "responses", fmt.Sprintf("stage-%d-%03d.md", idx+1, n+1))
}

// SaveStageOutput writes a stage's parsed output (requirements.md,
// design.md, ...) to the artifacts directory.
func SaveStageOutput(artifactsDir, name, content string) error {
	return fsutil.WriteFileAtomic(filepath.Join(artifactsDir, name), []byte(content), 0644)
}

// LoadStageOutput reads a stage output saved by an earlier run.
// A missing file yields "" and no error.
func LoadStageOutput(artifactsDir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(artifactsDir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// SummaryPath returns the path of the run summary.
func SummaryPath(artifactsDir string) string {
	return filepath.Join(artifactsDir, "summary.md")
}

// WriteSummary writes the run summary.
func WriteSummary(artifactsDir, content string) error {
	return fsutil.WriteFileAtomic(SummaryPath(artifactsDir), []byte(content), 0644)
}
