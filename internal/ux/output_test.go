package ux

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jorge-barreto/forge/internal/generate"
	"github.com/jorge-barreto/forge/internal/resolve"
	"github.com/jorge-barreto/forge/internal/state"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	t.Cleanup(func() { Out = prev })
	return &buf
}

func TestResumeHint(t *testing.T) {
	buf := capture(t)
	ResumeHint(2)
	if !strings.Contains(buf.String(), "forge run --from 3") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestReport(t *testing.T) {
	buf := capture(t)
	Report(&generate.Report{Files: []generate.FileResult{
		{Requested: "app.py", Path: "app.py", Method: resolve.MethodExplicit},
		{Requested: "src", Path: "src/main.py", Method: resolve.MethodExplicit, Redirected: true},
		{Requested: "../x.py", Err: errors.New("path escapes output root")},
	}})
	out := buf.String()
	for _, want := range []string{"✓ app.py", "(explicit)", "redirected from src", "✗ ../x.py", "escapes"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReport_Empty(t *testing.T) {
	buf := capture(t)
	Report(&generate.Report{})
	if !strings.Contains(buf.String(), "(no files)") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestResponse_Indents(t *testing.T) {
	buf := capture(t)
	Response("one\ntwo")
	if buf.String() != "  one\n  two\n" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestRenderStatus(t *testing.T) {
	buf := capture(t)
	dir := t.TempDir()
	if err := state.EnsureDir(dir); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "prompts", "stage-1.md"), []byte("p"), 0644)
	state.WriteSummary(dir, "## Files Created\n- app.py\n")

	st := state.New("todo app", "out")
	st.StageIndex = 1
	RenderStatus(st, dir)

	out := buf.String()
	for _, want := range []string{"todo app", "2/4 (design)", "requirements", "stage-1.md", "- app.py"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderStatus_StageDurations(t *testing.T) {
	buf := capture(t)
	dir := t.TempDir()
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	tm := &state.Timing{Stages: []state.StageTime{
		{Stage: "requirements", Start: start, End: start.Add(65 * time.Second)},
		{Stage: "design", Start: start},
	}}
	if err := tm.Flush(dir); err != nil {
		t.Fatal(err)
	}

	st := state.New("x", "out")
	st.StageIndex = 1
	RenderStatus(st, dir)

	out := buf.String()
	for _, want := range []string{"(1m 05s)", "Elapsed:" + Reset + " 1m 05s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderStatus_Completed(t *testing.T) {
	buf := capture(t)
	st := state.New("x", "out")
	st.StageIndex = 4
	RenderStatus(st, t.TempDir())
	if !strings.Contains(buf.String(), "completed") {
		t.Fatalf("got %q", buf.String())
	}
}
