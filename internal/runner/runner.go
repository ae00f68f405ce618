package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/jorge-barreto/forge/internal/completion"
	"github.com/jorge-barreto/forge/internal/config"
	"github.com/jorge-barreto/forge/internal/generate"
	"github.com/jorge-barreto/forge/internal/materialize"
	"github.com/jorge-barreto/forge/internal/resolve"
	"github.com/jorge-barreto/forge/internal/state"
	"github.com/jorge-barreto/forge/internal/ux"
)

// Stage outputs saved to the artifacts directory.
const (
	requirementsFile = "requirements.md"
	designFile       = "design.md"
	structureFile    = "structure.txt"
)

// ErrNoFiles is returned when the structure stage plans nothing to write.
var ErrNoFiles = errors.New("no files planned")

// Runner drives the workflow state machine.
type Runner struct {
	Config       *config.Config
	State        *state.State
	ProjectRoot  string
	ArtifactsDir string
	Completer    completion.Completer
	Log          *zap.Logger
	Timing       *state.Timing

	mat    *materialize.Materializer
	chain  *resolve.Chain
	conv   *completion.Conversation
	vars   map[string]string
	files  []string
	report *generate.Report
}

// Report returns the files written by the files stage of this run.
func (r *Runner) Report() *generate.Report {
	return r.report
}

// failAndHint sets the failure status, saves state (warning on error),
// flushes timing, prints a resume hint, and returns the given error.
func (r *Runner) failAndHint(status string, err error) error {
	r.State.Status = status
	if saveErr := r.State.Save(r.ArtifactsDir); saveErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save state: %v\n", saveErr)
	}
	if r.Timing != nil {
		if flushErr := r.Timing.Flush(r.ArtifactsDir); flushErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to flush timing: %v\n", flushErr)
		}
	}
	ux.ResumeHint(r.State.StageIndex)
	return err
}

func (r *Runner) logger() *zap.Logger {
	if r.Log == nil {
		r.Log = zap.NewNop()
	}
	return r.Log
}

func (r *Runner) setup() error {
	if err := state.EnsureDir(r.ArtifactsDir); err != nil {
		return err
	}
	timing, err := state.LoadTiming(r.ArtifactsDir)
	if err != nil {
		return fmt.Errorf("loading timing: %w", err)
	}
	r.Timing = timing

	chain, err := r.Config.Chain()
	if err != nil {
		return err
	}
	r.chain = chain

	marker := ""
	if r.Config.Structure.Enabled {
		marker = r.Config.Structure.Marker
	}
	mat, err := materialize.New(r.State.Output,
		materialize.WithLogger(r.logger()),
		materialize.WithWorkers(r.Config.Workers),
		materialize.WithFinalNewline(r.Config.FinalNewline),
		materialize.WithMarker(marker))
	if err != nil {
		return fmt.Errorf("preparing output root: %w", err)
	}
	r.mat = mat
	r.conv = completion.NewConversation(SystemPrompt)
	r.report = &generate.Report{Root: mat.Root()}
	r.vars = map[string]string{
		"TASK":          r.State.Task,
		"OUTPUT_DIR":    mat.Root(),
		"PROJECT_ROOT":  r.ProjectRoot,
		"ARTIFACTS_DIR": r.ArtifactsDir,
	}
	return r.restore()
}

// restore reloads the outputs of stages a resumed run skips.
func (r *Runner) restore() error {
	needs := []struct {
		stage int
		file  string
		key   string
	}{
		{0, requirementsFile, "REQUIREMENTS"},
		{1, designFile, "DESIGN"},
		{2, structureFile, "STRUCTURE"},
	}
	for _, n := range needs {
		if r.State.StageIndex <= n.stage {
			break
		}
		content, err := state.LoadStageOutput(r.ArtifactsDir, n.file)
		if err != nil {
			return fmt.Errorf("loading %s: %w", n.file, err)
		}
		if content == "" {
			return fmt.Errorf("stage %q has no saved output (%s); rerun from stage %d",
				config.StageNames[n.stage], n.file, n.stage+1)
		}
		r.vars[n.key] = strings.TrimSpace(content)
		if n.stage == 2 {
			r.files = strings.Fields(content)
		}
	}
	return nil
}

// Run executes the workflow from the current state.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.setup(); err != nil {
		return err
	}
	log := r.logger().With(zap.String("run", r.State.ID))

	total := len(config.StageNames)
	for i := 0; i < r.State.StageIndex && i < total; i++ {
		ux.StageSkip(i, config.StageNames[i])
	}

	for r.State.StageIndex < total {
		i := r.State.StageIndex
		name := config.StageNames[i]

		if ctx.Err() != nil {
			return r.failAndHint(state.StatusInterrupted, ctx.Err())
		}

		ux.StageHeader(i, total, name, stageDescriptions[name])
		stop := r.Timing.Start(name)
		log.Info("stage start", zap.Int("stage", i+1), zap.String("name", name))

		err := r.runStage(ctx, i, name)
		if ctx.Err() != nil {
			return r.failAndHint(state.StatusInterrupted, ctx.Err())
		}
		if err != nil {
			ux.StageFail(i, name, err.Error())
			log.Warn("stage failed", zap.String("name", name), zap.Error(err))
			return r.failAndHint(state.StatusFailed, fmt.Errorf("stage %q: %w", name, err))
		}

		duration := stop()
		if err := r.Timing.Flush(r.ArtifactsDir); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to flush timing: %v\n", err)
		}
		r.State.Advance()
		r.State.Status = state.StatusRunning
		if err := r.State.Save(r.ArtifactsDir); err != nil {
			return fmt.Errorf("saving state after stage advance: %w", err)
		}
		ux.StageComplete(i, duration)
		log.Info("stage done", zap.String("name", name), zap.Duration("elapsed", duration))
	}

	r.State.Status = state.StatusCompleted
	if err := r.State.Save(r.ArtifactsDir); err != nil {
		return fmt.Errorf("saving final state: %w", err)
	}
	if err := r.Timing.Flush(r.ArtifactsDir); err != nil {
		return fmt.Errorf("flushing timing: %w", err)
	}
	if err := state.WriteSummary(r.ArtifactsDir, r.Summary()); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	ux.Success(total, len(r.report.Written()))
	return nil
}

func (r *Runner) runStage(ctx context.Context, i int, name string) error {
	tmpl, err := r.template(name)
	if err != nil {
		return err
	}
	if name == "files" {
		return r.generateFiles(ctx, i, tmpl)
	}

	prompt := ExpandVars(tmpl, r.vars)
	resp, err := r.ask(ctx, prompt, state.PromptPath(r.ArtifactsDir, i), state.ResponsePath(r.ArtifactsDir, i))
	if err != nil {
		return err
	}

	switch name {
	case "requirements":
		items := ParseRequirements(resp)
		if len(items) == 0 {
			return errors.New("no requirements in response")
		}
		list := BulletList(items)
		r.vars["REQUIREMENTS"] = strings.TrimSpace(list)
		return state.SaveStageOutput(r.ArtifactsDir, requirementsFile, list)
	case "design":
		design := strings.TrimSpace(resp)
		r.vars["DESIGN"] = design
		return state.SaveStageOutput(r.ArtifactsDir, designFile, design+"\n")
	case "structure":
		tree, files := ParseFileList(resp)
		if len(files) == 0 {
			return ErrNoFiles
		}
		if !tree.Empty() && r.Config.Structure.Enabled {
			dirs := r.mat.CreateDirs(tree.Dirs)
			r.report.Dirs = append(r.report.Dirs, dirs...)
		}
		for _, f := range files {
			ux.Planned(f)
		}
		r.files = files
		list := strings.Join(files, "\n")
		r.vars["STRUCTURE"] = list
		return state.SaveStageOutput(r.ArtifactsDir, structureFile, list+"\n")
	}
	return fmt.Errorf("unknown stage %q", name)
}

// generateFiles asks for each planned file in turn and writes the reply.
// Write failures are reported per file; only completion errors stop the
// stage.
func (r *Runner) generateFiles(ctx context.Context, i int, tmpl string) error {
	if len(r.files) == 0 {
		return ErrNoFiles
	}
	for n, file := range r.files {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.vars["FILE"] = file
		prompt := ExpandVars(tmpl, r.vars)
		resp, err := r.ask(ctx, prompt,
			state.StepPromptPath(r.ArtifactsDir, i, n),
			state.StepResponsePath(r.ArtifactsDir, i, n))
		if err != nil {
			return fmt.Errorf("generating %s: %w", file, err)
		}

		pass := &generate.Pass{
			Resolver:     r.chain.Prepend(resolve.Assigned{0: file}).WithFallbackPrefix(overflowPrefix(file)),
			Materializer: r.mat,
			Log:          r.logger(),
		}
		var rep *generate.Report
		if generate.HasBlocks(resp) {
			rep = pass.Run(ctx, resp)
		} else {
			rep = pass.WriteRaw(ctx, file, resp)
		}
		ux.Report(rep)
		r.report.Merge(rep)
	}
	delete(r.vars, "FILE")
	return nil
}

// overflowPrefix names unassigned blocks of a file's reply after the file,
// as in app/routes_py_generated_code_2.sh for app/routes.py.
func overflowPrefix(file string) string {
	return path.Join(path.Dir(file), strings.ReplaceAll(path.Base(file), ".", "_")) + "_"
}

// ask sends prompt and records both sides of the exchange.
func (r *Runner) ask(ctx context.Context, prompt, promptPath, responsePath string) (string, error) {
	if err := os.WriteFile(promptPath, []byte(prompt), 0644); err != nil {
		return "", fmt.Errorf("writing prompt: %w", err)
	}
	conv := r.conv
	if !r.Config.CarryHistory {
		conv = completion.NewConversation(SystemPrompt)
	}
	resp, err := conv.Ask(ctx, r.Completer, prompt)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(responsePath, []byte(resp), 0644); err != nil {
		return "", fmt.Errorf("writing response: %w", err)
	}
	return resp, nil
}

func (r *Runner) template(stage string) (string, error) {
	if p := r.Config.StagePrompt(r.ProjectRoot, stage); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("reading prompt for %s: %w", stage, err)
		}
		return string(data), nil
	}
	return DefaultPrompt(stage), nil
}

// Summary renders the workflow summary written at the end of a run.
func (r *Runner) Summary() string {
	var sb strings.Builder
	sb.WriteString("# Software Development Workflow Summary\n\n")
	fmt.Fprintf(&sb, "## Task\n%s\n\n", strings.TrimSpace(r.State.Task))
	if v := r.vars["REQUIREMENTS"]; v != "" {
		fmt.Fprintf(&sb, "## Requirements\n%s\n\n", v)
	}
	if v := r.vars["DESIGN"]; v != "" {
		fmt.Fprintf(&sb, "## Design\n%s\n\n", v)
	}
	fmt.Fprintf(&sb, "## Output\n%s\n\n", r.report.Root)
	sb.WriteString(r.report.Summary())
	return sb.String()
}

// DryRunPrint prints the stage plan without executing.
func (r *Runner) DryRunPrint() {
	total := len(config.StageNames)
	fmt.Fprintf(ux.Out, "\n%sDry run: %d stages%s\n", ux.Bold, total, ux.Reset)
	fmt.Fprintf(ux.Out, "  task:   %s\n", r.State.Task)
	fmt.Fprintf(ux.Out, "  output: %s\n", r.State.Output)
	fmt.Fprintf(ux.Out, "  model:  %s/%s\n", r.Config.Backend, r.Config.Model)
	fmt.Fprintf(ux.Out, "  naming: %s\n\n", strings.Join(r.Config.Resolve.StrategyNames(), ", "))
	for i, name := range config.StageNames {
		prompt := r.Config.StagePrompt(r.ProjectRoot, name)
		if prompt == "" {
			prompt = "(built-in)"
		}
		desc := stageDescriptions[name]
		if i < r.State.StageIndex {
			desc += " [reused]"
		}
		ux.StagePlan(i, name, desc, prompt)
	}
	fmt.Fprintln(ux.Out)
}
