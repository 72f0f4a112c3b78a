package docgen

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// PlainText flattens markdown to plain text. Emphasis markers, heading hashes
// and link syntax are dropped; paragraphs are separated by a blank line and
// list items start with "- ".
func PlainText(md string) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	source := []byte(md)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch v := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(v.Segment.Value(source))
				if v.HardLineBreak() || v.SoftLineBreak() {
					b.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				b.Write(v.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(v.Label(source))
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(source))
				}
				separate(&b)
			}
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			if entering {
				b.WriteString("- ")
			} else {
				newline(&b)
			}
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
			if !entering {
				if _, inList := n.Parent().(*ast.ListItem); inList {
					newline(&b)
				} else {
					separate(&b)
				}
			}
		case *ast.List, *ast.Blockquote:
			if !entering {
				separate(&b)
			}
		case *ast.ThematicBreak:
			if entering {
				separate(&b)
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func newline(b *strings.Builder) {
	if !strings.HasSuffix(b.String(), "\n") {
		b.WriteByte('\n')
	}
}

func separate(b *strings.Builder) {
	s := b.String()
	switch {
	case s == "", strings.HasSuffix(s, "\n\n"):
	case strings.HasSuffix(s, "\n"):
		b.WriteByte('\n')
	default:
		b.WriteString("\n\n")
	}
}
