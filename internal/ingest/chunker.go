package ingest

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	minChunkSize = 50
	maxChunkSize = 700 // runes, roughly 450 tokens for a 512-token embedding model
)

// Chunk is one embeddable passage of a document.
type Chunk struct {
	Index       int
	HeadingPath string // "# Title > ## Section"
	Text        string
}

// Chunker splits documents into size-bounded passages.
type Chunker struct {
	md goldmark.Markdown
}

// NewChunker creates a chunker that understands GFM tables.
func NewChunker() *Chunker {
	return &Chunker{md: goldmark.New(goldmark.WithExtensions(extension.Table))}
}

// section is the run of paragraphs under one heading.
type section struct {
	path       string
	paragraphs []string
}

// ChunkMarkdown splits markdown on headings and paragraphs.
func (c *Chunker) ChunkMarkdown(content []byte, filename string) []Chunk {
	if len(strings.TrimSpace(string(content))) == 0 {
		return nil
	}

	doc := c.md.Parser().Parse(text.NewReader(content))
	title := documentTitle(doc, content, filename)

	var (
		sections []section
		stack    []heading
		current  = section{path: "# " + title}
	)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			if len(current.paragraphs) > 0 {
				sections = append(sections, current)
			}
			for len(stack) > 0 && stack[len(stack)-1].level >= h.Level {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, heading{level: h.Level, text: inlineText(h, content)})
			current = section{path: headingPath(stack)}
			continue
		}
		if para := strings.TrimSpace(blockText(n, content)); para != "" {
			current.paragraphs = append(current.paragraphs, para)
		}
	}
	if len(current.paragraphs) > 0 {
		sections = append(sections, current)
	}

	return pack(sections)
}

// ChunkText splits plain text on blank lines.
func (c *Chunker) ChunkText(content []byte, filename string) []Chunk {
	var paragraphs []string
	for _, p := range strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return nil
	}
	return pack([]section{{path: "# " + titleFromFilename(filename), paragraphs: paragraphs}})
}

// pack fills chunks paragraph by paragraph up to maxChunkSize, merging
// undersized sections into the next one.
func pack(sections []section) []Chunk {
	var chunks []Chunk
	var pending *Chunk

	flush := func() {
		if pending != nil && strings.TrimSpace(pending.Text) != "" {
			chunks = append(chunks, *pending)
		}
		pending = nil
	}

	for _, s := range sections {
		// A short previous section carries over into this one.
		if pending != nil && utf8.RuneCountInString(pending.Text) >= minChunkSize {
			flush()
		}
		for _, para := range s.paragraphs {
			for _, piece := range splitLong(para) {
				if pending == nil {
					pending = &Chunk{HeadingPath: s.path, Text: piece}
					continue
				}
				if utf8.RuneCountInString(pending.Text)+2+utf8.RuneCountInString(piece) > maxChunkSize {
					flush()
					pending = &Chunk{HeadingPath: s.path, Text: piece}
					continue
				}
				pending.Text += "\n\n" + piece
			}
		}
	}
	flush()

	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}

// splitLong cuts a paragraph above maxChunkSize at line, sentence or word boundaries.
func splitLong(para string) []string {
	runes := []rune(para)
	if len(runes) <= maxChunkSize {
		return []string{para}
	}

	var parts []string
	for len(runes) > maxChunkSize {
		window := string(runes[:maxChunkSize])
		cut := maxChunkSize
		for _, sep := range []string{"\n", ". ", " "} {
			if i := strings.LastIndex(window, sep); i > 0 {
				cut = utf8.RuneCountInString(window[:i+len(sep)])
				break
			}
		}
		if part := strings.TrimSpace(string(runes[:cut])); part != "" {
			parts = append(parts, part)
		}
		runes = runes[cut:]
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

// blockText flattens a top-level block into plain text.
func blockText(n ast.Node, source []byte) string {
	switch node := n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		return linesText(node, source)
	case *ast.ThematicBreak:
		return ""
	case *east.Table:
		var rows []string
		for row := node.FirstChild(); row != nil; row = row.NextSibling() {
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, inlineText(cell, source))
			}
			rows = append(rows, strings.Join(cells, " | "))
		}
		return strings.Join(rows, "\n")
	case *ast.ListItem:
		var parts []string
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			parts = append(parts, blockText(child, source))
		}
		return "- " + strings.Join(parts, "\n  ")
	}

	if n.HasChildren() && n.FirstChild().Type() == ast.TypeBlock {
		var parts []string
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			if t := blockText(child, source); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, "\n")
	}
	return inlineText(n, source)
}

func linesText(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

// inlineText collects the text of inline descendants, keeping soft line breaks.
func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.AutoLink:
			b.Write(v.URL(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

type heading struct {
	level int
	text  string
}

func headingPath(stack []heading) string {
	parts := make([]string, len(stack))
	for i, h := range stack {
		parts[i] = strings.Repeat("#", h.level) + " " + h.text
	}
	return strings.Join(parts, " > ")
}

// documentTitle is the first level-1 heading, else the first level-2 heading,
// else the filename.
func documentTitle(doc ast.Node, source []byte, filename string) string {
	var h2 string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		if h.Level == 1 {
			return inlineText(h, source)
		}
		if h.Level == 2 && h2 == "" {
			h2 = inlineText(h, source)
		}
	}
	if h2 != "" {
		return h2
	}
	return titleFromFilename(filename)
}

// titleFromFilename drops the extension and capitalizes words.
func titleFromFilename(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	words := strings.Fields(name)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
