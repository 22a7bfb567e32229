// Package render turns assistant replies into HTML for the chat surface.
package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// CodeBlockClass is the CSS class of the element wrapping fenced code.
const CodeBlockClass = "code-block"

// Renderer converts markdown replies to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a Renderer with GFM and the code-block wrapper.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				renderer.WithNodeRenderers(util.Prioritized(&codeRenderer{}, 100)),
			),
		),
	}
}

// HTML renders text. Single line breaks between prose lines become paragraph
// breaks, code keeps its literal characters, and known stage directions become emoji.
func (r *Renderer) HTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(paragraphBreaks(text)), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return ReplaceStageDirections(buf.String()), nil
}

// paragraphBreaks doubles newlines between prose lines outside fenced code.
func paragraphBreaks(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var b strings.Builder
	inFence := false
	for i, line := range lines {
		b.WriteString(line)
		if i == len(lines)-1 {
			break
		}
		b.WriteByte('\n')

		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if !inFence && isProse(line) && isProse(lines[i+1]) {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// isProse reports whether line is plain paragraph text rather than block syntax.
func isProse(line string) bool {
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
		return false
	}
	t := strings.TrimSpace(line)
	switch t[0] {
	case '#', '>', '|', '-', '*', '+', '`', '~', '=':
		return false
	}
	// Ordered list item.
	if i := strings.IndexAny(t, ".)"); i > 0 && i < 10 && strings.Trim(t[:i], "0123456789") == "" {
		return false
	}
	return true
}

// codeRenderer wraps fenced code in a styled block and restores entities the
// model escaped inside code before escaping once for HTML.
type codeRenderer struct{}

func (c *codeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, c.renderFencedCode)
	reg.Register(ast.KindCodeBlock, c.renderFencedCode)
	reg.Register(ast.KindCodeSpan, c.renderCodeSpan)
}

func (c *codeRenderer) renderFencedCode(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var lang string
	if fenced, ok := n.(*ast.FencedCodeBlock); ok {
		lang = string(fenced.Language(source))
	}

	_, _ = w.WriteString(`<div class="` + CodeBlockClass + `"><pre><code`)
	if lang != "" {
		_, _ = w.WriteString(` class="language-` + html.EscapeString(lang) + `"`)
	}
	_ = w.WriteByte('>')

	var raw bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		raw.Write(seg.Value(source))
	}
	_, _ = w.WriteString(html.EscapeString(html.UnescapeString(raw.String())))
	_, _ = w.WriteString("</code></pre></div>\n")
	return ast.WalkSkipChildren, nil
}

func (c *codeRenderer) renderCodeSpan(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var raw strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch v := child.(type) {
		case *ast.Text:
			raw.Write(v.Segment.Value(source))
		case *ast.String:
			raw.Write(v.Value)
		}
	}
	_, _ = w.WriteString("<code>" + html.EscapeString(html.UnescapeString(raw.String())) + "</code>")
	return ast.WalkSkipChildren, nil
}
