// Package resolve picks a target path for each code block in a model
// response. Resolution is an ordered chain of named strategies; the first
// strategy that returns a path wins.
package resolve

import (
	"fmt"
	"strings"

	"github.com/jorge-barreto/forge/internal/fileblocks"
)

// Method records how a block's path was chosen.
type Method string

const (
	MethodAnnotation Method = "annotation"
	MethodExplicit   Method = "explicit"
	MethodContent    Method = "content"
	MethodHint       Method = "hint"
	MethodAssigned   Method = "assigned"
	MethodFallback   Method = "fallback"
)

// Strategy resolves the path for block index of doc, if it can.
type Strategy interface {
	Name() Method
	Resolve(doc *Document, index int) (string, bool)
}

// Document is one response text with its blocks. Derived views are computed
// on first use. A Document is not safe for concurrent use.
type Document struct {
	Text   string
	Blocks []fileblocks.CodeBlock

	announcements []Announcement
	scanned       bool
	hints         []string
	parsed        bool
	excluded      map[int]bool
}

// NewDocument extracts the blocks of text.
func NewDocument(text string) *Document {
	return &Document{Text: text, Blocks: fileblocks.Extract(text)}
}

// Block returns block index, or false when index is out of range.
func (d *Document) Block(index int) (fileblocks.CodeBlock, bool) {
	if index < 0 || index >= len(d.Blocks) {
		return fileblocks.CodeBlock{}, false
	}
	return d.Blocks[index], true
}

// Exclude drops block index from positional pairing, as for a tree
// diagram that is not written. Its index is kept for everything else.
func (d *Document) Exclude(index int) {
	if d.excluded == nil {
		d.excluded = make(map[int]bool)
	}
	d.excluded[index] = true
}

// Ordinal returns the position of block index among the blocks that are
// not excluded.
func (d *Document) Ordinal(index int) (int, bool) {
	if index < 0 || index >= len(d.Blocks) || d.excluded[index] {
		return 0, false
	}
	n := index
	for i := range d.excluded {
		if i < index {
			n--
		}
	}
	return n, true
}

// ResolvedFile is a block bound to a relative target path.
type ResolvedFile struct {
	Path   string
	Block  fileblocks.CodeBlock
	Method Method
}

// Chain tries its strategies in order.
type Chain struct {
	strategies     []Strategy
	fallbackPrefix string
}

// NewChain builds a chain from strategies in priority order.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Prepend returns a copy of c with s tried first.
func (c *Chain) Prepend(s Strategy) *Chain {
	out := make([]Strategy, 0, len(c.strategies)+1)
	out = append(out, s)
	out = append(out, c.strategies...)
	return &Chain{strategies: out, fallbackPrefix: c.fallbackPrefix}
}

// WithFallbackPrefix returns a copy of c whose synthetic names start with
// prefix, so passes sharing one root keep their unnamed blocks apart.
func (c *Chain) WithFallbackPrefix(prefix string) *Chain {
	return &Chain{strategies: c.strategies, fallbackPrefix: prefix}
}

// Names lists the strategies in the order they are tried.
func (c *Chain) Names() []Method {
	names := make([]Method, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Resolve returns the first path any strategy produces for block index.
func (c *Chain) Resolve(doc *Document, index int) (string, Method, bool) {
	for _, s := range c.strategies {
		if p, ok := s.Resolve(doc, index); ok && p != "" {
			return p, s.Name(), true
		}
	}
	return "", "", false
}

// File resolves block index, falling back to a synthetic name.
// Directory-like results get the language's entry-point leaf.
func (c *Chain) File(doc *Document, index int) ResolvedFile {
	b, _ := doc.Block(index)
	p, m, ok := c.Resolve(doc, index)
	if !ok {
		return ResolvedFile{
			Path:   c.fallbackPrefix + fileblocks.SyntheticName(index, b.Lang),
			Block:  b,
			Method: MethodFallback,
		}
	}
	if p == "." || strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
		if p == "." || p == "" {
			p = fileblocks.EntryPoint(b.Lang)
		} else {
			p = p + "/" + fileblocks.EntryPoint(b.Lang)
		}
	}
	return ResolvedFile{Path: p, Block: b, Method: m}
}

// DefaultStrategies is the chain used when none is configured.
var DefaultStrategies = []Method{MethodAnnotation, MethodExplicit}

// FromNames builds a chain from configured strategy names. The assigned
// strategy cannot be configured; callers prepend it with fixed paths.
func FromNames(names []string) (*Chain, error) {
	if len(names) == 0 {
		names = make([]string, len(DefaultStrategies))
		for i, m := range DefaultStrategies {
			names[i] = string(m)
		}
	}
	var strategies []Strategy
	for _, n := range names {
		switch Method(n) {
		case MethodAnnotation:
			strategies = append(strategies, Annotation{})
		case MethodExplicit:
			strategies = append(strategies, Explicit{})
		case MethodContent:
			strategies = append(strategies, Content{})
		case MethodHint:
			strategies = append(strategies, Hint{})
		default:
			return nil, fmt.Errorf("unknown resolve strategy %q", n)
		}
	}
	return NewChain(strategies...), nil
}

// Annotation reads a file= attribute from the fence info string.
type Annotation struct{}

func (Annotation) Name() Method { return MethodAnnotation }

func (Annotation) Resolve(doc *Document, index int) (string, bool) {
	b, ok := doc.Block(index)
	if !ok {
		return "", false
	}
	p := normalize(b.Attr("file"))
	return p, p != ""
}

// Assigned maps block ordinals to paths chosen up front by the caller.
type Assigned map[int]string

func (Assigned) Name() Method { return MethodAssigned }

func (a Assigned) Resolve(_ *Document, index int) (string, bool) {
	p, ok := a[index]
	return p, ok && p != ""
}
