package ux

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/forge/internal/config"
	"github.com/jorge-barreto/forge/internal/state"
)

// RenderStatus prints the full status display for the last run.
func RenderStatus(st *state.State, artifactsDir string) {
	timing, _ := state.LoadTiming(artifactsDir)
	stages := config.StageNames

	fmt.Fprintf(Out, "%sRun:%s     %s\n", Bold, Reset, st.ID)
	fmt.Fprintf(Out, "%sTask:%s    %s\n", Bold, Reset, st.Task)
	fmt.Fprintf(Out, "%sOutput:%s  %s\n", Bold, Reset, st.Output)
	if st.StageIndex >= len(stages) {
		fmt.Fprintf(Out, "%sState:%s   %s%scompleted%s\n", Bold, Reset, Green, Bold, Reset)
	} else {
		fmt.Fprintf(Out, "%sState:%s   %d/%d (%s) %s\n",
			Bold, Reset, st.StageIndex+1, len(stages), stages[st.StageIndex], st.Status)
	}

	if st.StageIndex > 0 {
		fmt.Fprintf(Out, "\n%sCompleted:%s\n", Bold, Reset)
		for i := 0; i < st.StageIndex && i < len(stages); i++ {
			fmt.Fprintf(Out, "  %s%d%s  %-20s %sdone%s  %s\n",
				Dim, i+1, Reset, stages[i], Green, Reset, findDuration(timing, stages[i]))
		}
	}

	if st.StageIndex < len(stages) {
		fmt.Fprintf(Out, "\n%sRemaining:%s\n", Bold, Reset)
		for i := st.StageIndex; i < len(stages); i++ {
			marker := "  "
			if i == st.StageIndex {
				marker = fmt.Sprintf("%s→%s ", Yellow, Reset)
			}
			fmt.Fprintf(Out, "  %s%s%d%s  %s\n", marker, Dim, i+1, Reset, stages[i])
		}
	}

	if timing != nil && timing.Total() > 0 {
		fmt.Fprintf(Out, "\n%sElapsed:%s %s\n", Bold, Reset, state.FormatDuration(timing.Total()))
	}

	fmt.Fprintf(Out, "\n%sArtifacts:%s\n", Bold, Reset)
	entries, err := os.ReadDir(artifactsDir)
	if err != nil {
		fmt.Fprintf(Out, "  %s(none)%s\n", Dim, Reset)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			subEntries, _ := os.ReadDir(filepath.Join(artifactsDir, e.Name()))
			if len(subEntries) > 0 {
				first := subEntries[0].Name()
				last := subEntries[len(subEntries)-1].Name()
				if first == last {
					fmt.Fprintf(Out, "  %s/%s/%s\n", artifactsDir, e.Name(), first)
				} else {
					fmt.Fprintf(Out, "  %s/%s/%s .. %s\n", artifactsDir, e.Name(), first, last)
				}
			}
		} else {
			fmt.Fprintf(Out, "  %s/%s\n", artifactsDir, e.Name())
		}
	}

	if summary, err := os.ReadFile(state.SummaryPath(artifactsDir)); err == nil {
		fmt.Fprintf(Out, "\n%sLast summary:%s\n", Bold, Reset)
		Response(string(summary))
	}
	fmt.Fprintln(Out)
}

func findDuration(timing *state.Timing, stage string) string {
	if timing == nil {
		return ""
	}
	if s, ok := timing.Latest(stage); ok && s.Done() {
		return fmt.Sprintf("(%s)", state.FormatDuration(s.Elapsed()))
	}
	return ""
}
