package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jorge-barreto/forge/internal/fsutil"
)

const (
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

type State struct {
	ID         string    `json:"id"`
	Task       string    `json:"task"`
	StageIndex int       `json:"stage_index"`
	Status     string    `json:"status"` // running, completed, failed, interrupted
	Output     string    `json:"output"`
	Started    time.Time `json:"started"`
}

// New starts a fresh run for task writing into output.
func New(task, output string) *State {
	return &State{
		ID:      uuid.NewString(),
		Task:    task,
		Status:  StatusRunning,
		Output:  output,
		Started: time.Now().UTC(),
	}
}

func statePath(artifactsDir string) string {
	return filepath.Join(artifactsDir, "state.json")
}

// Load reads the state from the artifacts directory. Returns a new state if not found.
func Load(artifactsDir string) (*State, error) {
	path := statePath(artifactsDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &State{Status: StatusRunning}, nil
		}
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Exists reports whether a run has been recorded in artifactsDir.
func Exists(artifactsDir string) bool {
	_, err := os.Stat(statePath(artifactsDir))
	return err == nil
}

// Save writes the state to the artifacts directory.
func (s *State) Save(artifactsDir string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(statePath(artifactsDir), data, 0644)
}

// Advance increments the stage index.
func (s *State) Advance() {
	s.StageIndex++
}

// SetStage sets the stage index directly, for resuming with --from.
func (s *State) SetStage(idx int) {
	s.StageIndex = idx
}
