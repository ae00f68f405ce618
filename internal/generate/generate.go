// Package generate turns one model response into files on disk. A Pass
// extracts fenced blocks, resolves a path for each, sanitizes the bodies,
// and hands them to a materializer; directory trees drawn in the response
// are created first.
package generate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jorge-barreto/forge/internal/fileblocks"
	"github.com/jorge-barreto/forge/internal/materialize"
	"github.com/jorge-barreto/forge/internal/resolve"
	"github.com/jorge-barreto/forge/internal/structure"
)

// Pass is one extraction and write cycle over a single output root.
type Pass struct {
	Resolver     *resolve.Chain
	Materializer *materialize.Materializer
	// Structure enables directory pre-creation from tree diagrams. The
	// diagram block itself is then not written as a file.
	Structure bool
	Log       *zap.Logger
}

// FileResult describes what happened to one block.
type FileResult struct {
	Index      int
	Lang       string
	Requested  string // path the resolver chose
	Path       string // path written, relative to the root
	Method     resolve.Method
	Content    string
	Redirected bool
	Err        error
}

// Report collects the outcome of a Pass.
type Report struct {
	Root  string
	Tree  structure.Tree
	Dirs  []materialize.DirResult
	Files []FileResult
}

// Run processes text. It never fails as a whole; per-file errors are in
// the Report.
func (p *Pass) Run(ctx context.Context, text string) *Report {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	rep := &Report{Root: p.Materializer.Root()}
	doc := resolve.NewDocument(text)

	skipBlock := -1
	if p.Structure {
		rep.Tree = structure.Extract(text)
		if !rep.Tree.Empty() {
			skipBlock = rep.Tree.Block
			doc.Exclude(skipBlock)
			rep.Dirs = p.Materializer.CreateDirs(rep.Tree.Dirs)
			log.Debug("project tree found",
				zap.String("root", rep.Tree.Root),
				zap.Int("dirs", len(rep.Tree.Dirs)),
				zap.Int("files", len(rep.Tree.Files)))
		}
	}

	var (
		files    []materialize.File
		resolved []resolve.ResolvedFile
	)
	for i, b := range doc.Blocks {
		if i == skipBlock {
			continue
		}
		if b.Empty() {
			log.Debug("skipping empty block", zap.Int("block", i), zap.String("lang", b.Lang))
			continue
		}
		rf := p.Resolver.File(doc, i)
		log.Debug("resolved block",
			zap.Int("block", i),
			zap.String("lang", b.Lang),
			zap.String("path", rf.Path),
			zap.String("method", string(rf.Method)))
		resolved = append(resolved, rf)
		files = append(files, materialize.File{
			Index:   i,
			Path:    rf.Path,
			Lang:    b.Lang,
			Content: fileblocks.Sanitize(b.Body),
		})
	}

	results := p.Materializer.WriteAll(ctx, files)
	for k, r := range results {
		if r.Skipped {
			continue
		}
		rf := resolved[k]
		rep.Files = append(rep.Files, FileResult{
			Index:      rf.Block.Index,
			Lang:       rf.Block.Lang,
			Requested:  rf.Path,
			Path:       r.Path,
			Method:     rf.Method,
			Content:    r.Content,
			Redirected: r.Redirected,
			Err:        r.Err,
		})
	}
	return rep
}

// WriteRaw writes the whole of text to path, for responses that were
// asked for a single file and came back without any fences.
func (p *Pass) WriteRaw(ctx context.Context, path, text string) *Report {
	rep := &Report{Root: p.Materializer.Root()}
	r := p.Materializer.Write(ctx, materialize.File{
		Path:    path,
		Lang:    fileblocks.LangForPath(path),
		Content: fileblocks.Sanitize(text),
	})
	if r.Skipped {
		return rep
	}
	rep.Files = append(rep.Files, FileResult{
		Requested:  path,
		Path:       r.Path,
		Lang:       fileblocks.LangForPath(path),
		Method:     resolve.MethodAssigned,
		Content:    r.Content,
		Redirected: r.Redirected,
		Err:        r.Err,
	})
	return rep
}

// HasBlocks reports whether text contains a non-empty fenced block.
func HasBlocks(text string) bool {
	for b := range fileblocks.Blocks(text) {
		if !b.Empty() {
			return true
		}
	}
	return false
}

// Written maps each written path to its content. When several blocks
// landed on one path the last one is kept, matching the file on disk.
func (r *Report) Written() map[string]string {
	out := make(map[string]string)
	for _, f := range r.Files {
		if f.Err == nil {
			out[f.Path] = f.Content
		}
	}
	return out
}

// Failed returns the blocks that could not be written.
func (r *Report) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Merge appends other's results, as when several responses write into one
// root.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Dirs = append(r.Dirs, other.Dirs...)
	r.Files = append(r.Files, other.Files...)
}

// Summary renders the written and failed files as markdown.
func (r *Report) Summary() string {
	var sb strings.Builder
	sb.WriteString("## Files Created\n")
	written := r.Written()
	paths := make([]string, 0, len(written))
	for p := range written {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		sb.WriteString("- (none)\n")
	}
	for _, p := range paths {
		fmt.Fprintf(&sb, "- %s\n", p)
	}
	if failed := r.Failed(); len(failed) > 0 {
		sb.WriteString("\n## Failures\n")
		for _, f := range failed {
			fmt.Fprintf(&sb, "- %s: %v\n", f.Requested, f.Err)
		}
	}
	return sb.String()
}
