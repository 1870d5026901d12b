package goldmark

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatkit"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// painter converts a goldmark AST into styled terminal text.
type painter struct {
	parser parser.Parser

	bold      lipgloss.Style
	italic    lipgloss.Style
	strike    lipgloss.Style
	heading   lipgloss.Style
	muted     lipgloss.Style
	code      lipgloss.Style
	underline lipgloss.Style
}

func newPainter(theme chatkit.Theme) *painter {
	md := goldmark.New(goldmark.WithExtensions(
		extension.Strikethrough,
		extension.TaskList,
		extension.Linkify,
	))
	return &painter{
		parser:    md.Parser(),
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		strike:    lipgloss.NewStyle().Strikethrough(true),
		heading:   lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		code:      lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)),
		underline: lipgloss.NewStyle().Underline(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (p *painter) paint(source []byte, width int) string {
	doc := p.parser.Parse(text.NewReader(source))
	var buf bytes.Buffer
	p.blocks(doc, source, width, &buf)
	return strings.TrimRight(buf.String(), "\n")
}

func (p *painter) blocks(parent ast.Node, source []byte, width int, buf *bytes.Buffer) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		p.block(c, source, width, buf)
		if c.NextSibling() != nil && !isInlineContainer(c) {
			buf.WriteString("\n")
		}
	}
}

// isInlineContainer reports nodes whose output already ends with its own
// separator handling (raw HTML passes through verbatim).
func isInlineContainer(n ast.Node) bool {
	_, ok := n.(*ast.HTMLBlock)
	return ok
}

func (p *painter) block(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		buf.WriteString(wrap(p.inline(n, source), width))
		buf.WriteString("\n")

	case *ast.Heading:
		buf.WriteString(wrap(p.heading.Render(p.inline(n, source)), width))
		buf.WriteString("\n")

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(source)); lang != "" {
			buf.WriteString(p.muted.Render(lang))
			buf.WriteString("\n")
		}
		p.codeLines(n, source, buf)

	case *ast.CodeBlock:
		p.codeLines(n, source, buf)

	case *ast.Blockquote:
		var inner bytes.Buffer
		p.blocks(n, source, max(width-2, 10), &inner)
		bar := p.muted.Render("▎") + " "
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			buf.WriteString(bar + line + "\n")
		}

	case *ast.List:
		p.list(n, source, width, buf, 0)

	case *ast.ThematicBreak:
		buf.WriteString(p.muted.Render(strings.Repeat("─", min(width, 40))))
		buf.WriteString("\n")

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(source))
		}

	default:
		p.blocks(node, source, width, buf)
	}
}

// codeLines writes code verbatim behind a gutter. Code is never reflowed.
func (p *painter) codeLines(n ast.Node, source []byte, buf *bytes.Buffer) {
	gutter := p.muted.Render("│") + " "
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.WriteString(gutter)
		buf.WriteString(strings.TrimRight(string(seg.Value(source)), "\n"))
		buf.WriteString("\n")
	}
}

func (p *painter) list(n *ast.List, source []byte, width int, buf *bytes.Buffer, depth int) {
	num := n.Start
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "• "
		if n.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		indent := strings.Repeat("  ", depth)

		var pending strings.Builder
		flush := func() {
			if pending.Len() == 0 {
				return
			}
			p.item(buf, indent, marker, pending.String(), width)
			pending.Reset()
			marker = strings.Repeat(" ", len([]rune(marker)))
		}
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				if pending.Len() > 0 {
					pending.WriteString(" ")
				}
				pending.WriteString(p.inline(in, source))
			case *ast.List:
				flush()
				p.list(in, source, width, buf, depth+1)
			default:
				flush()
				var nested bytes.Buffer
				p.block(ic, source, width-len(indent)-2, &nested)
				for _, line := range strings.Split(strings.TrimRight(nested.String(), "\n"), "\n") {
					buf.WriteString(indent + "  " + line + "\n")
				}
			}
		}
		flush()
	}
}

// item writes one list entry, indenting wrapped lines under the marker.
func (p *painter) item(buf *bytes.Buffer, indent, marker, content string, width int) {
	prefix := indent + marker
	hang := strings.Repeat(" ", lipgloss.Width(prefix))
	for i, line := range strings.Split(wrap(content, max(width-lipgloss.Width(prefix), 10)), "\n") {
		if i == 0 {
			buf.WriteString(prefix + line + "\n")
			continue
		}
		buf.WriteString(hang + line + "\n")
	}
}

func (p *painter) inline(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		p.span(c, source, &buf)
	}
	return buf.String()
}

func (p *painter) span(node ast.Node, source []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		switch {
		case n.HardLineBreak():
			buf.WriteByte('\n')
		case n.SoftLineBreak():
			buf.WriteByte(' ')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		inner := p.inline(n, source)
		if n.Level == 1 {
			buf.WriteString(p.italic.Render(inner))
		} else {
			buf.WriteString(p.bold.Render(inner))
		}

	case *east.Strikethrough:
		buf.WriteString(p.strike.Render(p.inline(n, source)))

	case *east.TaskCheckBox:
		if n.IsChecked {
			buf.WriteString("[x] ")
		} else {
			buf.WriteString("[ ] ")
		}

	case *ast.CodeSpan:
		buf.WriteString(p.code.Render(p.inline(n, source)))

	case *ast.Link:
		buf.WriteString(p.underline.Render(p.inline(n, source)))
		buf.WriteString(" " + p.muted.Render("("+string(n.Destination)+")"))

	case *ast.AutoLink:
		buf.WriteString(p.underline.Render(string(n.URL(source))))

	case *ast.Image:
		buf.WriteString(p.underline.Render(p.inline(n, source)))
		buf.WriteString(" " + p.muted.Render("("+string(n.Destination)+")"))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			p.span(c, source, buf)
		}
	}
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}
