package resolve

import (
	"strings"

	"github.com/jorge-barreto/forge/internal/fileblocks"
)

// Content guesses a conventional name from the block language and its
// surroundings. It is off by default: a lone script block would otherwise
// never reach the synthetic generated_code_N name.
type Content struct{}

func (Content) Name() Method { return MethodContent }

func (Content) Resolve(doc *Document, index int) (string, bool) {
	b, ok := doc.Block(index)
	if !ok {
		return "", false
	}
	switch lang := fileblocks.Canonical(b.Lang); lang {
	case "python", "javascript":
		ext := fileblocks.Extension(lang)
		if strings.Contains(strings.ToLower(doc.Text), "hello world") {
			return "hello_world" + ext, true
		}
		if strings.Contains(strings.ToLower(b.Body), "main") {
			return "main" + ext, true
		}
	case "html":
		return "index.html", true
	case "css":
		return "styles.css", true
	}
	return "", false
}
