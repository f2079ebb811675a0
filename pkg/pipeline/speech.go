package pipeline

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// SpeechText converts markdown-formatted agent text into plain speakable
// text. Bold, italic, heading and bullet markers are removed while the
// readable content is preserved. Plain input passes through unchanged, so
// applying the function twice yields the same result.
func SpeechText(markdown string) string {
	trimmed := strings.TrimSpace(markdown)
	if trimmed == "" {
		return ""
	}

	source := []byte(trimmed)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var blocks []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		collectBlock(node, source, &blocks)
	}

	return strings.TrimSpace(strings.Join(blocks, "\n"))
}

func collectBlock(node ast.Node, source []byte, blocks *[]string) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
		if s := collectInline(node, source); s != "" {
			*blocks = append(*blocks, s)
		}
	case *ast.List:
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			for child := item.FirstChild(); child != nil; child = child.NextSibling() {
				collectBlock(child, source, blocks)
			}
		}
	case *ast.Blockquote:
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			collectBlock(child, source, blocks)
		}
	case *ast.FencedCodeBlock:
		if s := collectLines(n, source); s != "" {
			*blocks = append(*blocks, s)
		}
	case *ast.CodeBlock:
		if s := collectLines(n, source); s != "" {
			*blocks = append(*blocks, s)
		}
	case *ast.ThematicBreak:
		// nothing to say
	default:
		if s := collectInline(node, source); s != "" {
			*blocks = append(*blocks, s)
		}
	}
}

func collectLines(node ast.Node, source []byte) string {
	var sb strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return strings.TrimSpace(sb.String())
}

func collectInline(node ast.Node, source []byte) string {
	var sb strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		renderInline(child, source, &sb)
	}
	return strings.TrimSpace(sb.String())
}

func renderInline(node ast.Node, source []byte, sb *strings.Builder) {
	switch n := node.(type) {
	case *ast.Text:
		sb.Write(n.Segment.Value(source))
		// Line breaks inside a paragraph stay line breaks, which keeps
		// the stripper stable when its own output is fed back in.
		if n.SoftLineBreak() || n.HardLineBreak() {
			sb.WriteByte('\n')
		}
	case *ast.String:
		sb.Write(n.Value)
	case *ast.CodeSpan:
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			renderInline(child, source, sb)
		}
	case *ast.AutoLink:
		sb.Write(n.URL(source))
	default:
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			renderInline(child, source, sb)
		}
	}
}
