package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jorge-barreto/forge/internal/completion"
	"github.com/jorge-barreto/forge/internal/config"
	"github.com/jorge-barreto/forge/internal/docs"
	"github.com/jorge-barreto/forge/internal/generate"
	"github.com/jorge-barreto/forge/internal/materialize"
	"github.com/jorge-barreto/forge/internal/resolve"
	"github.com/jorge-barreto/forge/internal/runner"
	"github.com/jorge-barreto/forge/internal/scaffold"
	"github.com/jorge-barreto/forge/internal/state"
	"github.com/jorge-barreto/forge/internal/ux"
)

var logger = zap.NewNop()

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		ux.Error(err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:        "forge",
		Usage:       "Turn a task description into source files with an LLM",
		Description: "Run 'forge docs' for documentation on file naming, configuration, and stages.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Debug logging to stderr"},
			&cli.StringFlag{Name: "backend", Usage: "Completion backend (claude, gemini)"},
			&cli.StringFlag{Name: "model", Usage: "Model name for the backend"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			l, err := newLogger(cmd.Bool("verbose"))
			if err != nil {
				return ctx, err
			}
			logger = l
			return ctx, nil
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			_ = logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			initCmd(),
			runCmd(),
			chatCmd(),
			applyCmd(),
			statusCmd(),
			docsCmd(),
		},
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

// project is the resolved root, config, and artifacts location for a command.
type project struct {
	root      string
	cfg       *config.Config
	artifacts string
}

func loadProject(cmd *cli.Command) (*project, error) {
	root, err := findProjectRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadProject(root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if b := cmd.String("backend"); b != "" && b != cfg.Backend {
		cfg.Backend = b
		cfg.Model = ""
	}
	if m := cmd.String("model"); m != "" {
		cfg.Model = m
	}
	if out := cmd.String("out"); out != "" {
		cfg.Output = out
	}
	if err := config.Validate(cfg, root); err != nil {
		return nil, err
	}
	return &project{
		root:      root,
		cfg:       cfg,
		artifacts: filepath.Join(root, config.Dir, "artifacts"),
	}, nil
}

func (p *project) outputDir() string {
	return p.cfg.OutputDir(p.root)
}

func (p *project) completer(ctx context.Context) (completion.Completer, error) {
	if err := completion.Preflight(p.cfg.Backend); err != nil {
		return nil, err
	}
	if err := state.EnsureDir(p.artifacts); err != nil {
		return nil, err
	}
	return completion.New(ctx, completion.Options{
		Backend:     p.cfg.Backend,
		Model:       p.cfg.Model,
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
		Timeout:     p.cfg.CompletionTimeout(),
		Retries:     p.cfg.Retries,
		CacheSize:   p.cfg.CacheSize,
		Dir:         p.root,
		LogPath:     filepath.Join(p.artifacts, "logs", p.cfg.Backend+".log"),
		Log:         logger,
	})
}

// pass builds a generation pass over the output root.
func (p *project) pass(chain *resolve.Chain) (*generate.Pass, error) {
	marker := ""
	if p.cfg.Structure.Enabled {
		marker = p.cfg.Structure.Marker
	}
	mat, err := materialize.New(p.outputDir(),
		materialize.WithLogger(logger),
		materialize.WithWorkers(p.cfg.Workers),
		materialize.WithFinalNewline(p.cfg.FinalNewline),
		materialize.WithMarker(marker))
	if err != nil {
		return nil, err
	}
	if chain == nil {
		if chain, err = p.cfg.Chain(); err != nil {
			return nil, err
		}
	}
	return &generate.Pass{
		Resolver:     chain,
		Materializer: mat,
		Structure:    p.cfg.Structure.Enabled,
		Log:          logger,
	}, nil
}

func outFlag() cli.Flag {
	return &cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output directory (overrides config)"}
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run the four-stage workflow for a task",
		ArgsUsage: "<task...>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "from", Usage: "Resume the last run from stage N (1-indexed)"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Print the stage plan without calling a model"},
			&cli.StringFlag{Name: "task-file", Usage: "Read the task from a file"},
			outFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}

			task, err := readTask(cmd)
			if err != nil {
				return err
			}

			var st *state.State
			total := len(config.StageNames)
			if from := int(cmd.Int("from")); from > 0 {
				if from > total {
					return fmt.Errorf("--from %d exceeds stage count (%d)", from, total)
				}
				if !state.Exists(p.artifacts) {
					return fmt.Errorf("no previous run to resume in %s", p.artifacts)
				}
				st, err = state.Load(p.artifacts)
				if err != nil {
					return fmt.Errorf("loading state: %w", err)
				}
				if task != "" && task != st.Task {
					return fmt.Errorf("state is for task %q; drop the task argument to resume it", st.Task)
				}
				if cmd.String("out") != "" {
					st.Output = p.outputDir()
				}
				st.SetStage(from - 1)
				st.Status = state.StatusRunning
			} else {
				if task == "" {
					return fmt.Errorf("task argument is required")
				}
				st = state.New(task, p.outputDir())
			}

			r := &runner.Runner{
				Config:       p.cfg,
				State:        st,
				ProjectRoot:  p.root,
				ArtifactsDir: p.artifacts,
				Log:          logger,
			}

			if cmd.Bool("dry-run") {
				r.DryRunPrint()
				return nil
			}

			r.Completer, err = p.completer(ctx)
			if err != nil {
				return err
			}
			if err := st.Save(p.artifacts); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			defer stop()

			return r.Run(ctx)
		},
	}
}

func readTask(cmd *cli.Command) (string, error) {
	if f := cmd.String("task-file"); f != "" {
		if cmd.Args().Len() > 0 {
			return "", fmt.Errorf("give the task as arguments or --task-file, not both")
		}
		data, err := os.ReadFile(f)
		if err != nil {
			return "", fmt.Errorf("reading task file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.TrimSpace(strings.Join(cmd.Args().Slice(), " ")), nil
}

func chatCmd() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Chat with the model; code in each reply is written to disk",
		Flags: []cli.Flag{outFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			comp, err := p.completer(ctx)
			if err != nil {
				return err
			}
			pass, err := p.pass(nil)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := &chatSession{
				comp: comp,
				conv: completion.NewConversation(runner.SystemPrompt),
				pass: pass,
			}
			fmt.Fprintf(ux.Out, "%sforge chat%s  writing to %s (exit to quit, /clear, /files)\n",
				ux.Bold, ux.Reset, pass.Materializer.Root())
			return s.loop(ctx, os.Stdin)
		},
	}
}

func applyCmd() *cli.Command {
	return &cli.Command{
		Name:      "apply",
		Usage:     "Write the code blocks of a saved response without calling a model",
		ArgsUsage: "[FILE|-]",
		Flags: []cli.Flag{
			outFlag(),
			&cli.StringSliceFlag{Name: "strategies", Usage: "Naming strategies in order (annotation, explicit, content, hint)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			var chain *resolve.Chain
			if names := cmd.StringSlice("strategies"); len(names) > 0 {
				if chain, err = resolve.FromNames(names); err != nil {
					return err
				}
			}
			pass, err := p.pass(chain)
			if err != nil {
				return err
			}
			text, err := readInput(cmd.Args().First(), os.Stdin)
			if err != nil {
				return err
			}
			return apply(ctx, pass, text)
		},
	}
}

func readInput(arg string, stdin io.Reader) (string, error) {
	if arg == "" || arg == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(arg)
	return string(data), err
}

// apply runs one pass over text and fails if any block could not be written.
func apply(ctx context.Context, pass *generate.Pass, text string) error {
	rep := pass.Run(ctx, text)
	ux.Report(rep)
	if failed := rep.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d files could not be written", len(failed), len(rep.Files))
	}
	return nil
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the state of the last run",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, err := findProjectRoot()
			if err != nil {
				return err
			}
			artifactsDir := filepath.Join(root, config.Dir, "artifacts")
			if !state.Exists(artifactsDir) {
				return errors.New("no runs recorded yet; start one with 'forge run <task>'")
			}
			st, err := state.Load(artifactsDir)
			if err != nil {
				return fmt.Errorf("loading state: %w", err)
			}
			ux.RenderStatus(st, artifactsDir)
			return nil
		},
	}
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new .forge/ directory with config and prompts",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			return scaffold.Init(dir)
		},
	}
}

func docsCmd() *cli.Command {
	return &cli.Command{
		Name:      "docs",
		Usage:     "Show documentation",
		ArgsUsage: "[topic]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				fmt.Fprint(ux.Out, docs.Index())
				return nil
			}
			t, err := docs.Get(name)
			if err != nil {
				return err
			}
			fmt.Fprint(ux.Out, t.Content)
			return nil
		},
	}
}

// findProjectRoot walks up from cwd looking for a .forge directory.
// Without one, the cwd is the project root.
func findProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return projectRootFrom(cwd), nil
}

func projectRootFrom(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, config.Dir)); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}
