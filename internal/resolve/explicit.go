package resolve

import (
	"regexp"
	"strings"
)

const pathChars = `[\w\-./]+`

type announcementPattern struct {
	expr string
	// loose patterns match ordinary prose too often; their value must
	// look like a path to count.
	loose bool
}

// Alternation order breaks ties between phrasings that start at the same
// offset, so the more specific phrasings come first.
var announcementPatterns = []announcementPattern{
	{expr: `save[ \t]+(?:this|the[ \t]+code)[ \t]+(?:to|as)[ \t]+['"]?(` + pathChars + `)['"]?`},
	{expr: `create[ \t]+a[ \t]+file[ \t]+(?:named|called)[ \t]+['"]?(` + pathChars + `)['"]?`},
	{expr: `\bfilename(?::[ \t]*|[ \t]+)['"]?(` + pathChars + `)['"]?`},
	{expr: `\bfile:[ \t]*['"]?(` + pathChars + `)['"]?`},
	{expr: `\bfile[ \t]+['"]?(` + pathChars + `)['"]?`, loose: true},
	{expr: `save[ \t]+(?:this|the[ \t]+code)[ \t]+in[ \t]+['"]?(` + pathChars + `)['"]?`},
	{expr: `name[ \t]+the[ \t]+file[ \t]+['"]?(` + pathChars + `)['"]?`},
	{expr: "`(" + pathChars + ")`", loose: true},
}

var announcementRe = func() *regexp.Regexp {
	parts := make([]string, len(announcementPatterns))
	for i, p := range announcementPatterns {
		parts[i] = p.expr
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(parts, "|") + `)`)
}()

// Announcement is a filename phrase found in a response.
type Announcement struct {
	Offset  int // byte offset of the phrase in the text
	Path    string
	Pattern int // index into the announcement patterns
}

// Announcements scans text left to right for filename phrases. Matches do
// not overlap, so when two phrasings cover the same text the leftmost one
// wins.
func Announcements(text string) []Announcement {
	var out []Announcement
	for _, m := range announcementRe.FindAllStringSubmatchIndex(text, -1) {
		for g := range announcementPatterns {
			start, end := m[2+2*g], m[3+2*g]
			if start < 0 {
				continue
			}
			p := normalize(text[start:end])
			if p == "" || (announcementPatterns[g].loose && !looksLikePath(p)) {
				break
			}
			out = append(out, Announcement{Offset: m[0], Path: p, Pattern: g})
			break
		}
	}
	return out
}

// Announcements returns the filename phrases of the document, scanning once.
func (d *Document) Announcements() []Announcement {
	if !d.scanned {
		d.announcements = Announcements(d.Text)
		d.scanned = true
	}
	return d.announcements
}

// Explicit pairs the Nth filename phrase in the text with the Nth block
// that is not excluded. Nothing links a phrase to its block, so responses
// that announce files out of order or mention extra paths get shifted
// names.
type Explicit struct{}

func (Explicit) Name() Method { return MethodExplicit }

func (Explicit) Resolve(doc *Document, index int) (string, bool) {
	n, ok := doc.Ordinal(index)
	anns := doc.Announcements()
	if !ok || n >= len(anns) {
		return "", false
	}
	return anns[n].Path, true
}

// normalize strips label and quote residue from a matched path.
func normalize(p string) string {
	p = strings.TrimSpace(p)
	lower := strings.ToLower(p)
	for _, label := range []string{"filename:", "file:"} {
		if strings.HasPrefix(lower, label) {
			p = strings.TrimSpace(p[len(label):])
			break
		}
	}
	p = strings.Trim(p, "`\"' ")
	if strings.HasSuffix(p, ".") && !strings.HasSuffix(p, "..") {
		p = strings.TrimSuffix(p, ".")
	}
	return strings.TrimPrefix(p, "./")
}

func looksLikePath(p string) bool {
	if strings.Trim(p, "./") == "" {
		return false
	}
	return strings.ContainsAny(p, "./")
}
