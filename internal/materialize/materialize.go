// Package materialize writes resolved files under a single output root.
// Every path is joined through a boundary check, so nothing a model writes
// can land outside the root.
package materialize

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jorge-barreto/forge/internal/fileblocks"
	"github.com/jorge-barreto/forge/internal/fsutil"
	"github.com/jorge-barreto/forge/internal/structure"
)

// ErrOutsideRoot is returned for paths that would resolve outside the
// output root.
var ErrOutsideRoot = errors.New("path escapes output root")

// PathError records a failed operation on a relative output path.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error { return e.Err }

// File is one piece of content bound for a relative path.
type File struct {
	Index   int    // block ordinal, carried through to the Result
	Path    string // slash-separated, relative to the root
	Lang    string // picks the entry-point name on directory collisions
	Content string
	// AllowEmpty writes the file even when Content is blank.
	AllowEmpty bool
}

// Result is the outcome of writing one File.
type Result struct {
	Index      int
	Path       string // final relative path, after any redirect
	Content    string // bytes as written
	Redirected bool   // the requested path was a directory
	Skipped    bool   // blank content, nothing written
	Err        error
}

// OK reports whether the file was written.
func (r Result) OK() bool { return r.Err == nil && !r.Skipped }

// DirResult is the outcome of creating one hinted directory.
type DirResult struct {
	Path   string
	Marker string // relative marker path when one was created
	Err    error
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithLogger sets the logger for per-file events.
func WithLogger(l *zap.Logger) Option {
	return func(m *Materializer) { m.log = l }
}

// WithWorkers writes distinct paths concurrently with up to n writers.
func WithWorkers(n int) Option {
	return func(m *Materializer) { m.workers = n }
}

// WithFinalNewline terminates non-empty content with a newline on write.
func WithFinalNewline(on bool) Option {
	return func(m *Materializer) { m.finalNewline = on }
}

// WithMarker sets the package marker file name placed in package
// directories. An empty name disables markers.
func WithMarker(name string) Option {
	return func(m *Materializer) { m.marker = name }
}

// Materializer owns one output root.
type Materializer struct {
	root         string
	log          *zap.Logger
	workers      int
	finalNewline bool
	marker       string
	perm         os.FileMode
}

// New creates root if needed and returns a Materializer confined to it.
func New(root string, opts ...Option) (*Materializer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, &PathError{Op: "mkdir", Path: root, Err: err}
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	m := &Materializer{
		root:    resolved,
		log:     zap.NewNop(),
		workers: 1,
		marker:  "__init__.py",
		perm:    0644,
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Root returns the absolute output root.
func (m *Materializer) Root() string { return m.root }

// Join maps a slash-separated relative path to an absolute path inside the
// root. Absolute paths, paths that climb out with "..", and paths whose
// deepest existing component links outside the root are rejected with
// ErrOutsideRoot. The target itself counts, so an existing symlink at the
// target is followed too.
func (m *Materializer) Join(rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", &PathError{Op: "join", Path: rel, Err: errors.New("empty path")}
	}
	native := filepath.FromSlash(rel)
	if path.IsAbs(rel) || filepath.IsAbs(native) || !filepath.IsLocal(native) {
		return "", &PathError{Op: "join", Path: rel, Err: ErrOutsideRoot}
	}
	target := filepath.Join(m.root, native)
	if err := m.checkLinks(target); err != nil {
		return "", &PathError{Op: "join", Path: rel, Err: err}
	}
	return target, nil
}

// checkLinks resolves the deepest existing path on the way to target,
// target included, and makes sure it still lies inside the root.
func (m *Materializer) checkLinks(target string) error {
	dir := target
	for dir != m.root {
		if _, err := os.Lstat(dir); err == nil {
			break
		}
		dir = filepath.Dir(dir)
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if !m.contains(resolved) {
		return ErrOutsideRoot
	}
	return nil
}

func (m *Materializer) contains(p string) bool {
	rel, err := filepath.Rel(m.root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

type plan struct {
	file       File
	rel        string
	abs        string
	redirected bool
	skipped    bool
	err        error
}

// planAll fixes the final path of every file in order. A path counts as a
// directory when it exists as one or when an earlier file in the batch
// will create it, so parallel and sequential writes pick the same targets.
func (m *Materializer) planAll(files []File) []plan {
	plans := make([]plan, len(files))
	pending := make(map[string]bool)
	for i, f := range files {
		p := plan{file: f, rel: path.Clean(f.Path)}
		if !f.AllowEmpty && strings.TrimSpace(f.Content) == "" {
			p.skipped = true
			plans[i] = p
			continue
		}
		abs, err := m.Join(f.Path)
		if err == nil && (pending[abs] || isDir(abs)) {
			p.rel = path.Join(p.rel, fileblocks.EntryPoint(f.Lang))
			p.redirected = true
			abs, err = m.Join(p.rel)
		}
		if err != nil {
			p.err = err
			plans[i] = p
			continue
		}
		p.abs = abs
		for d := filepath.Dir(abs); d != m.root && m.contains(d); d = filepath.Dir(d) {
			pending[d] = true
		}
		plans[i] = p
	}
	return plans
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

func (m *Materializer) content(s string) string {
	if m.finalNewline && s != "" && !strings.HasSuffix(s, "\n") {
		return s + "\n"
	}
	return s
}

func (m *Materializer) write(p plan) Result {
	r := Result{
		Index:      p.file.Index,
		Path:       p.rel,
		Redirected: p.redirected,
		Skipped:    p.skipped,
		Err:        p.err,
	}
	if p.skipped {
		m.log.Debug("skipped empty block", zap.Int("block", p.file.Index), zap.String("path", p.file.Path))
		return r
	}
	if r.Err == nil {
		r.Content = m.content(p.file.Content)
		if err := os.MkdirAll(filepath.Dir(p.abs), 0755); err != nil {
			r.Err = &PathError{Op: "mkdir", Path: p.rel, Err: err}
		} else if err := fsutil.WriteFileAtomic(p.abs, []byte(r.Content), m.perm); err != nil {
			r.Err = &PathError{Op: "write", Path: p.rel, Err: err}
		}
	}
	if r.Err != nil {
		r.Content = ""
		m.log.Warn("file write failed",
			zap.Int("block", p.file.Index),
			zap.String("path", p.file.Path),
			zap.Bool("outside_root", errors.Is(r.Err, ErrOutsideRoot)),
			zap.Error(r.Err))
		return r
	}
	m.log.Info("wrote file",
		zap.Int("block", p.file.Index),
		zap.String("path", r.Path),
		zap.Int("bytes", len(r.Content)),
		zap.Bool("redirected", r.Redirected))
	return r
}

// Write writes a single file.
func (m *Materializer) Write(ctx context.Context, f File) Result {
	return m.WriteAll(ctx, []File{f})[0]
}

// WriteAll writes files and returns one Result per file, in input order.
// A failed file does not stop the rest. With more than one worker,
// distinct paths are written concurrently while files sharing a final path
// are written one after another in input order, so the last one wins.
func (m *Materializer) WriteAll(ctx context.Context, files []File) []Result {
	plans := m.planAll(files)
	results := make([]Result, len(plans))

	if m.workers <= 1 {
		for i, p := range plans {
			if err := ctx.Err(); err != nil {
				p.err = err
			}
			results[i] = m.write(p)
		}
		return results
	}

	var order []string
	groups := make(map[string][]int)
	for i, p := range plans {
		key := p.abs
		if key == "" {
			key = "\x00" + p.rel
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for _, key := range order {
		idxs := groups[key]
		g.Go(func() error {
			for _, i := range idxs {
				p := plans[i]
				if err := gctx.Err(); err != nil && p.err == nil {
					p.err = err
				}
				results[i] = m.write(p)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// CreateDirs creates hinted directories under the root. Package
// directories also get an empty marker file unless one already exists.
func (m *Materializer) CreateDirs(hints []structure.DirectoryHint) []DirResult {
	results := make([]DirResult, 0, len(hints))
	for _, h := range hints {
		r := DirResult{Path: h.Path}
		abs, err := m.Join(h.Path)
		if err == nil {
			err = m.mkdirConfined(h.Path, abs)
		}
		if err == nil && h.Package && m.marker != "" {
			r.Marker, err = m.touchMarker(h.Path, abs)
		}
		r.Err = err
		if err != nil {
			m.log.Warn("directory create failed", zap.String("path", h.Path), zap.Error(err))
		} else {
			m.log.Debug("created directory", zap.String("path", h.Path), zap.String("marker", r.Marker))
		}
		results = append(results, r)
	}
	return results
}

// mkdirConfined creates abs and rejects it if it now resolves outside
// the root.
func (m *Materializer) mkdirConfined(rel, abs string) error {
	if err := os.MkdirAll(abs, 0755); err != nil {
		return &PathError{Op: "mkdir", Path: rel, Err: err}
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return &PathError{Op: "mkdir", Path: rel, Err: err}
	}
	if !m.contains(resolved) {
		return &PathError{Op: "mkdir", Path: rel, Err: ErrOutsideRoot}
	}
	return nil
}

func (m *Materializer) touchMarker(rel, dir string) (string, error) {
	markerRel := path.Join(rel, m.marker)
	f, err := os.OpenFile(filepath.Join(dir, m.marker), os.O_WRONLY|os.O_CREATE|os.O_EXCL, m.perm)
	if errors.Is(err, os.ErrExist) {
		return "", nil
	}
	if err != nil {
		return "", &PathError{Op: "create", Path: markerRel, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &PathError{Op: "create", Path: markerRel, Err: err}
	}
	return markerRel, nil
}
