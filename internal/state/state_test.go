package state

import (
	"testing"

	"github.com/google/uuid"
)

func TestLoad_NoExistingState(t *testing.T) {
	dir := t.TempDir()
	st, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if st.StageIndex != 0 {
		t.Fatalf("StageIndex = %d, want 0", st.StageIndex)
	}
	if st.Status != "running" {
		t.Fatalf("Status = %q, want running", st.Status)
	}
	if Exists(dir) {
		t.Fatal("Exists = true before any save")
	}
}

func TestNew(t *testing.T) {
	st := New("build a todo app", "/tmp/out")
	if _, err := uuid.Parse(st.ID); err != nil {
		t.Fatalf("ID %q is not a uuid: %v", st.ID, err)
	}
	if st.Task != "build a todo app" || st.Output != "/tmp/out" {
		t.Fatalf("got %+v", st)
	}
	if st.Started.IsZero() {
		t.Fatal("Started not set")
	}
	if other := New("x", ""); other.ID == st.ID {
		t.Fatal("IDs should differ between runs")
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := New("ship it", "out")
	original.StageIndex = 3
	original.Status = StatusCompleted
	if err := original.Save(dir); err != nil {
		t.Fatal(err)
	}
	if !Exists(dir) {
		t.Fatal("Exists = false after save")
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.StageIndex != 3 {
		t.Fatalf("StageIndex = %d, want 3", loaded.StageIndex)
	}
	if loaded.ID != original.ID {
		t.Fatalf("ID = %q, want %q", loaded.ID, original.ID)
	}
	if loaded.Task != "ship it" {
		t.Fatalf("Task = %q", loaded.Task)
	}
	if loaded.Status != "completed" {
		t.Fatalf("Status = %q", loaded.Status)
	}
	if !loaded.Started.Equal(original.Started) {
		t.Fatalf("Started = %v, want %v", loaded.Started, original.Started)
	}
}

func TestAdvance(t *testing.T) {
	s := &State{StageIndex: 2}
	s.Advance()
	if s.StageIndex != 3 {
		t.Fatalf("StageIndex = %d, want 3", s.StageIndex)
	}
}

func TestSetStage(t *testing.T) {
	s := &State{StageIndex: 3}
	s.SetStage(1)
	if s.StageIndex != 1 {
		t.Fatalf("StageIndex = %d, want 1", s.StageIndex)
	}
}
