package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jorge-barreto/forge/internal/fsutil"
)

// StageTime is one attempt at a stage. End is zero while the stage runs or
// when the attempt was cut short.
type StageTime struct {
	Stage string    `json:"stage"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end,omitzero"`
}

// Done reports whether the attempt finished.
func (s StageTime) Done() bool { return !s.End.IsZero() }

// Elapsed is the attempt's duration, or 0 when it never finished.
func (s StageTime) Elapsed() time.Duration {
	if !s.Done() {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Timing is the stopwatch log kept in timing.json. Resumed runs append to
// the log of the run they continue.
type Timing struct {
	mu     sync.Mutex
	Stages []StageTime `json:"stages"`
}

func timingPath(artifactsDir string) string {
	return filepath.Join(artifactsDir, "timing.json")
}

// LoadTiming reads timing.json, or returns an empty log when there is none.
func LoadTiming(artifactsDir string) (*Timing, error) {
	data, err := os.ReadFile(timingPath(artifactsDir))
	if errors.Is(err, fs.ErrNotExist) {
		return &Timing{}, nil
	}
	if err != nil {
		return nil, err
	}
	t := &Timing{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", timingPath(artifactsDir), err)
	}
	return t, nil
}

// Start opens an attempt at stage and returns the function that closes it.
// The returned function reports the elapsed time.
func (t *Timing) Start(stage string) func() time.Duration {
	t.mu.Lock()
	idx := len(t.Stages)
	t.Stages = append(t.Stages, StageTime{Stage: stage, Start: time.Now()})
	t.mu.Unlock()

	return func() time.Duration {
		t.mu.Lock()
		defer t.mu.Unlock()
		if !t.Stages[idx].Done() {
			t.Stages[idx].End = time.Now()
		}
		return t.Stages[idx].Elapsed()
	}
}

// Flush writes the log to disk.
func (t *Timing) Flush(artifactsDir string) error {
	t.mu.Lock()
	data, err := json.MarshalIndent(t, "", "  ")
	t.mu.Unlock()
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(timingPath(artifactsDir), data, 0644)
}

// Latest returns the most recent attempt at stage.
func (t *Timing) Latest(stage string) (StageTime, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.Stages) - 1; i >= 0; i-- {
		if t.Stages[i].Stage == stage {
			return t.Stages[i], true
		}
	}
	return StageTime{}, false
}

// Total sums every finished attempt, retries included.
func (t *Timing) Total() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	var d time.Duration
	for _, s := range t.Stages {
		d += s.Elapsed()
	}
	return d
}

// FormatDuration renders d as "3m 05s".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%dm %02ds", int(d/time.Minute), int(d%time.Minute/time.Second))
}
