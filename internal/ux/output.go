package ux

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jorge-barreto/forge/internal/generate"
)

// ANSI color helpers
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

// Out receives all user-facing output.
var Out io.Writer = os.Stdout

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// StageHeader prints a timestamped stage header.
func StageHeader(index, total int, name, desc string) {
	fmt.Fprintf(Out, "\n%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
	if desc != "" {
		desc = ": " + desc
	}
	fmt.Fprintf(Out, "%s[%s]%s  %sStage %d/%d: %s%s%s\n",
		Dim, timestamp(), Reset, Bold, index+1, total, name, desc, Reset)
	fmt.Fprintf(Out, "%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
}

// StageComplete prints a stage completion message.
func StageComplete(index int, duration time.Duration) {
	m := int(duration.Minutes())
	s := int(duration.Seconds()) % 60
	fmt.Fprintf(Out, "%s[%s]%s  %s✓ Stage %d complete (%dm %02ds)%s\n",
		Dim, timestamp(), Reset, Green, index+1, m, s, Reset)
}

// StageFail prints a stage failure message.
func StageFail(index int, name, errMsg string) {
	fmt.Fprintf(Out, "%s[%s]%s  %s✗ Stage %d (%s) failed: %s%s\n",
		Dim, timestamp(), Reset, Red, index+1, name, errMsg, Reset)
}

// StageSkip prints a stage that a resumed run does not repeat.
func StageSkip(index int, name string) {
	fmt.Fprintf(Out, "%s[%s]%s  %s– Stage %d (%s) reused from previous run%s\n",
		Dim, timestamp(), Reset, Dim, index+1, name, Reset)
}

// StagePlan prints one line of a dry-run plan.
func StagePlan(index int, name, desc, prompt string) {
	fmt.Fprintf(Out, "  %s%d%s  %-14s %s\n", Dim, index+1, Reset, name, desc)
	if prompt != "" {
		fmt.Fprintf(Out, "      %sprompt:%s %s\n", Dim, Reset, prompt)
	}
}

// ResumeHint prints a resume command hint.
func ResumeHint(stage int) {
	fmt.Fprintf(Out, "\n%sResume:%s forge run --from %d\n", Yellow, Reset, stage+1)
}

// Planned prints one file from the structure stage's plan.
func Planned(path string) {
	fmt.Fprintf(Out, "  %s·%s %s\n", Dim, Reset, path)
}

// Report prints the per-file outcome of a generation pass.
func Report(rep *generate.Report) {
	for _, d := range rep.Dirs {
		if d.Err != nil {
			fmt.Fprintf(Out, "  %s✗ %s/%s %v\n", Red, d.Path, Reset, d.Err)
		}
	}
	for _, f := range rep.Files {
		if f.Err != nil {
			fmt.Fprintf(Out, "  %s✗ %s%s %v\n", Red, f.Requested, Reset, f.Err)
			continue
		}
		note := string(f.Method)
		if f.Redirected {
			note += ", redirected from " + f.Requested
		}
		fmt.Fprintf(Out, "  %s✓ %s%s %s(%s)%s\n", Green, f.Path, Reset, Dim, note, Reset)
	}
	if len(rep.Files) == 0 {
		fmt.Fprintf(Out, "  %s(no files)%s\n", Dim, Reset)
	}
}

// Response prints a model response, indented under the prompt.
func Response(text string) {
	for line := range strings.Lines(text) {
		fmt.Fprintf(Out, "  %s", line)
	}
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(Out)
	}
}

// Notice prints a dim informational line.
func Notice(format string, args ...any) {
	fmt.Fprintf(Out, "%s%s%s\n", Dim, fmt.Sprintf(format, args...), Reset)
}

// Error prints a top-level error.
func Error(err error) {
	fmt.Fprintf(os.Stderr, "%serror:%s %v\n", Red, Reset, err)
}

// Success prints a final success message.
func Success(total, files int) {
	fmt.Fprintf(Out, "\n%s[%s]%s  %s%s══ All %d stages complete, %d files written ══%s\n\n",
		Dim, timestamp(), Reset, Bold, Green, total, files, Reset)
}
