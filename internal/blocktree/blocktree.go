package blocktree

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// BlockKind identifies the type of a document block.
type BlockKind string

const (
	// BlockParagraph is a plain text paragraph.
	BlockParagraph BlockKind = "paragraph"
	// BlockHeading is a section heading with a level of 1 through 6.
	BlockHeading BlockKind = "heading"
	// BlockListItem is one bullet or numbered list entry.
	BlockListItem BlockKind = "list-item"
	// BlockQuote is quoted text.
	BlockQuote BlockKind = "quote"
	// BlockCode is preformatted text.
	BlockCode BlockKind = "code"
	// BlockImage is an inline image referenced by its uploaded URL.
	BlockImage BlockKind = "image"
)

// Block is one node in the flattened document tree.
type Block struct {
	Kind    BlockKind `json:"kind"`
	Level   int       `json:"level,omitempty"`
	Text    string    `json:"text"`
	Ordered bool      `json:"ordered,omitempty"`
	Src     string    `json:"src,omitempty"`
	Alt     string    `json:"alt,omitempty"`
}

// Document is the in-memory editing tree. Exports read this tree directly,
// so the rendered output always reflects unsaved edits.
type Document struct {
	Blocks []Block `json:"blocks"`
}

// Len reports the number of blocks.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Blocks)
}

// ParseHTML builds a document tree from an HTML body fragment. Unknown
// elements contribute their text as paragraphs so no content is lost.
func ParseHTML(body string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document html: %w", err)
	}
	doc := &Document{}
	walk(root, doc, false)
	return doc, nil
}

func walk(node *html.Node, doc *Document, ordered bool) {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			if child.Type == html.TextNode {
				if text := strings.TrimSpace(child.Data); text != "" {
					doc.Blocks = append(doc.Blocks, Block{Kind: BlockParagraph, Text: text})
				}
			}
			continue
		}
		switch child.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(child.Data[1] - '0')
			doc.Blocks = append(doc.Blocks, Block{Kind: BlockHeading, Level: level, Text: textContent(child)})
		case "p":
			if text := textContent(child); text != "" {
				doc.Blocks = append(doc.Blocks, Block{Kind: BlockParagraph, Text: text})
			}
			appendImages(child, doc)
		case "img":
			if block, ok := imageBlock(child); ok {
				doc.Blocks = append(doc.Blocks, block)
			}
		case "ul":
			walk(child, doc, false)
		case "ol":
			walk(child, doc, true)
		case "li":
			doc.Blocks = append(doc.Blocks, Block{Kind: BlockListItem, Text: textContent(child), Ordered: ordered})
		case "blockquote":
			doc.Blocks = append(doc.Blocks, Block{Kind: BlockQuote, Text: textContent(child)})
		case "pre":
			doc.Blocks = append(doc.Blocks, Block{Kind: BlockCode, Text: rawText(child)})
		default:
			walk(child, doc, ordered)
		}
	}
}

func imageBlock(node *html.Node) (Block, bool) {
	var src, alt string
	for _, attr := range node.Attr {
		switch attr.Key {
		case "src":
			src = attr.Val
		case "alt":
			alt = attr.Val
		}
	}
	if src == "" {
		return Block{}, false
	}
	return Block{Kind: BlockImage, Src: src, Alt: alt}, true
}

// appendImages pulls images nested inside text containers so they survive
// the round-trip as their own blocks.
func appendImages(node *html.Node, doc *Document) {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.Data == "img" {
			if block, ok := imageBlock(child); ok {
				doc.Blocks = append(doc.Blocks, block)
			}
			continue
		}
		appendImages(child, doc)
	}
}

func textContent(node *html.Node) string {
	var b strings.Builder
	collectText(node, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(node *html.Node, b *strings.Builder) {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			b.WriteString(child.Data)
			b.WriteString(" ")
			continue
		}
		collectText(child, b)
	}
}

func rawText(node *html.Node) string {
	var b strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			b.WriteString(child.Data)
			continue
		}
		b.WriteString(rawText(child))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderHTML serializes the tree back to an HTML body fragment.
func RenderHTML(doc *Document) string {
	if doc == nil {
		return ""
	}
	var b strings.Builder
	var listOpen bool
	var listOrdered bool
	closeList := func() {
		if !listOpen {
			return
		}
		if listOrdered {
			b.WriteString("</ol>\n")
		} else {
			b.WriteString("</ul>\n")
		}
		listOpen = false
	}
	for _, block := range doc.Blocks {
		if block.Kind != BlockListItem {
			closeList()
		}
		switch block.Kind {
		case BlockHeading:
			level := block.Level
			if level < 1 || level > 6 {
				level = 1
			}
			fmt.Fprintf(&b, "<h%d>%s</h%d>\n", level, html.EscapeString(block.Text), level)
		case BlockListItem:
			if listOpen && listOrdered != block.Ordered {
				closeList()
			}
			if !listOpen {
				listOpen = true
				listOrdered = block.Ordered
				if listOrdered {
					b.WriteString("<ol>\n")
				} else {
					b.WriteString("<ul>\n")
				}
			}
			fmt.Fprintf(&b, "<li>%s</li>\n", html.EscapeString(block.Text))
		case BlockQuote:
			fmt.Fprintf(&b, "<blockquote>%s</blockquote>\n", html.EscapeString(block.Text))
		case BlockCode:
			fmt.Fprintf(&b, "<pre>%s</pre>\n", html.EscapeString(block.Text))
		case BlockImage:
			fmt.Fprintf(&b, "<img src=\"%s\" alt=\"%s\">\n", html.EscapeString(block.Src), html.EscapeString(block.Alt))
		default:
			fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(block.Text))
		}
	}
	closeList()
	return b.String()
}
