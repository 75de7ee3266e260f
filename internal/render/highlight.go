package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// highlightStyle is the chroma style used for file contents
const highlightStyle = "monokai"

// Highlight colors source for a terminal, choosing the lexer from filename.
// It returns source unchanged when no lexer matches or formatting fails.
func Highlight(source, filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		return source
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return source
	}

	var sb strings.Builder
	if err := formatters.TTY256.Format(&sb, styles.Get(highlightStyle), iterator); err != nil {
		return source
	}
	return sb.String()
}
