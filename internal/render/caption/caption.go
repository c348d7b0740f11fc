// Package caption renders the HTML fragment pixiv stores as an artwork
// description into wrapped plain lines for the terminal.
package caption

import (
	"html"
	"regexp"
	"strings"

	nethtml "golang.org/x/net/html"
)

// Lines parses the description fragment and wraps it to width. Broken HTML
// degrades to its text content instead of failing.
func Lines(description string, width int) []string {
	raw := strings.TrimSpace(description)
	if raw == "" {
		return nil
	}
	if width < 10 {
		width = 10
	}

	doc, err := nethtml.Parse(strings.NewReader(raw))
	if err != nil {
		return wrapText(normalizeText(raw), width)
	}
	body := findBodyNode(doc)
	if body == nil {
		return wrapText(normalizeText(raw), width)
	}

	text := normalizeText(renderInlineChildren(body))
	lines := make([]string, 0, 4)
	for _, paragraph := range strings.Split(text, "\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			if len(lines) > 0 && lines[len(lines)-1] != "" {
				lines = append(lines, "")
			}
			continue
		}
		lines = append(lines, wrapText(paragraph, width)...)
	}
	return trimBlankLines(lines)
}

// Text flattens the description to a single unwrapped string.
func Text(description string) string {
	return strings.Join(Lines(description, 1<<20), " ")
}

func renderInlineChildren(node *nethtml.Node) string {
	parts := make([]string, 0, 4)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		parts = append(parts, renderInlineNode(child))
	}
	return strings.Join(parts, " ")
}

func renderInlineNode(node *nethtml.Node) string {
	if node == nil {
		return ""
	}
	switch node.Type {
	case nethtml.TextNode:
		return node.Data
	case nethtml.ElementNode:
		switch strings.ToLower(node.Data) {
		case "script", "style", "noscript", "img":
			return ""
		case "br":
			return "\n"
		case "a":
			text := normalizeText(renderInlineChildren(node))
			href := strings.TrimSpace(nodeAttr(node, "href"))
			switch {
			case href == "":
				return text
			case text == "":
				return href
			case strings.EqualFold(text, href):
				return href
			default:
				return text + " (" + href + ")"
			}
		case "p", "div":
			text := normalizeText(renderInlineChildren(node))
			if text == "" {
				return ""
			}
			return "\n" + text + "\n"
		default:
			return renderInlineChildren(node)
		}
	default:
		return ""
	}
}

func normalizeText(s string) string {
	s = html.UnescapeString(s)
	parts := strings.Split(s, "\n")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.Join(strings.Fields(part), " "))
	}
	return strings.Join(out, "\n")
}

func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	lines := make([]string, 0, 2)
	var current strings.Builder
	for _, word := range words {
		if current.Len() == 0 {
			current.WriteString(word)
			continue
		}
		if current.Len()+1+len(word) > width {
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
			continue
		}
		current.WriteByte(' ')
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

func trimBlankLines(lines []string) []string {
	start := 0
	for start < len(lines) && lines[start] == "" {
		start++
	}
	end := len(lines)
	for end > start && lines[end-1] == "" {
		end--
	}
	return lines[start:end]
}

func findBodyNode(node *nethtml.Node) *nethtml.Node {
	if node == nil {
		return nil
	}
	if node.Type == nethtml.ElementNode && node.Data == "body" {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findBodyNode(child); found != nil {
			return found
		}
	}
	return nil
}

func nodeAttr(node *nethtml.Node, name string) string {
	for _, attr := range node.Attr {
		if strings.EqualFold(attr.Key, name) {
			return attr.Val
		}
	}
	return ""
}

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

// VisibleLen measures a line ignoring ANSI styling.
func VisibleLen(s string) int {
	return len([]rune(ansiPattern.ReplaceAllString(s, "")))
}
