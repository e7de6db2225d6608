// Package xml wraps xmlquery with the small XML surface the RecipeML
// importer needs: parsing, well-formedness checks, XPath queries, and
// pretty-printing. Entity expansion is disabled during validation so a
// crafted document cannot pull in external content.
package xml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/FocuswithJustin/Galley/core/encoding"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Document is a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node is one element of a parsed document.
type Node struct {
	node *xmlquery.Node
}

// ValidationResult reports whether a document is well formed.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidationError is a single well-formedness failure.
type ValidationError struct {
	Line    int
	Message string
}

// Parse parses XML data into a Document.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// Validate checks the data for well-formedness. Entity expansion is
// disabled so entity-based attacks surface as errors rather than
// expanding.
func Validate(data []byte) ValidationResult {
	result := ValidationResult{Valid: true}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Entity = map[string]string{}

	for {
		_, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var syn *xml.SyntaxError
			if errors.As(err, &syn) {
				line = syn.Line
			}
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Line:    line,
				Message: err.Error(),
			})
			break
		}
	}

	return result
}

// Root returns the document's root element, or nil for an empty
// document.
func (d *Document) Root() *Node {
	if d.root == nil {
		return nil
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Node{node: child}
		}
	}
	return nil
}

// XPath returns every node matching the expression.
func (d *Document) XPath(expr string) ([]*Node, error) {
	return queryAll(d.root, expr)
}

// XPathFirst returns the first node matching the expression, or nil
// when nothing matches.
func (d *Document) XPathFirst(expr string) (*Node, error) {
	return queryFirst(d.root, expr)
}

// XPath evaluates the expression relative to this node.
func (n *Node) XPath(expr string) ([]*Node, error) {
	return queryAll(n.node, expr)
}

// XPathFirst returns this node's first match for the expression, or
// nil when nothing matches.
func (n *Node) XPathFirst(expr string) (*Node, error) {
	return queryFirst(n.node, expr)
}

func queryAll(root *xmlquery.Node, expr string) ([]*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}
	nodes, err := xmlquery.QueryAll(root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	result := make([]*Node, len(nodes))
	for i, n := range nodes {
		result[i] = &Node{node: n}
	}
	return result, nil
}

func queryFirst(root *xmlquery.Node, expr string) (*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}
	node, err := xmlquery.Query(root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	if node == nil {
		return nil, nil
	}
	return &Node{node: node}, nil
}

// Name returns the element name.
func (n *Node) Name() string {
	if n.node == nil {
		return ""
	}
	return n.node.Data
}

// Text returns the concatenated text content of the node and its
// descendants.
func (n *Node) Text() string {
	if n.node == nil {
		return ""
	}
	return n.node.InnerText()
}

// Attr returns the value of the named attribute, or "" when absent.
func (n *Node) Attr(name string) string {
	if n.node == nil {
		return ""
	}
	return n.node.SelectAttr(name)
}

// Children returns the node's child elements.
func (n *Node) Children() []*Node {
	if n.node == nil {
		return nil
	}
	var children []*Node
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			children = append(children, &Node{node: child})
		}
	}
	return children
}

// FormatOptions controls Format's output.
type FormatOptions struct {
	Indent string // defaults to two spaces
}

// Format pretty-prints XML data.
func Format(data []byte, opts FormatOptions) ([]byte, error) {
	if opts.Indent == "" {
		opts.Indent = "  "
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	formatNode(&buf, doc.root, 0, opts.Indent)
	return buf.Bytes(), nil
}

func formatNode(w *bytes.Buffer, n *xmlquery.Node, depth int, indent string) {
	switch n.Type {
	case xmlquery.DocumentNode:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			formatNode(w, child, depth, indent)
		}

	case xmlquery.DeclarationNode:
		w.WriteString("<?xml")
		for _, attr := range n.Attr {
			w.WriteString(" ")
			w.WriteString(attr.Name.Local)
			w.WriteString(`="`)
			w.WriteString(encoding.EscapeXMLAttr(attr.Value))
			w.WriteString(`"`)
		}
		w.WriteString("?>\n")

	case xmlquery.ElementNode:
		writeIndent(w, depth, indent)
		w.WriteString("<")
		writeName(w, n)
		for _, attr := range n.Attr {
			w.WriteString(" ")
			if attr.Name.Space != "" {
				w.WriteString("xmlns:")
			}
			w.WriteString(attr.Name.Local)
			w.WriteString(`="`)
			w.WriteString(encoding.EscapeXMLAttr(attr.Value))
			w.WriteString(`"`)
		}

		if n.FirstChild == nil {
			w.WriteString("/>\n")
			return
		}

		blockLayout := false
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == xmlquery.ElementNode {
				blockLayout = true
				break
			}
		}

		w.WriteString(">")
		if blockLayout {
			w.WriteString("\n")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			switch child.Type {
			case xmlquery.ElementNode:
				formatNode(w, child, depth+1, indent)
			case xmlquery.TextNode:
				if strings.TrimSpace(child.Data) == "" {
					continue
				}
				if blockLayout {
					writeIndent(w, depth+1, indent)
					w.WriteString(encoding.EscapeXMLText(child.Data))
					w.WriteString("\n")
				} else {
					w.WriteString(encoding.EscapeXMLText(child.Data))
				}
			case xmlquery.CharDataNode:
				w.WriteString("<![CDATA[")
				w.WriteString(child.Data)
				w.WriteString("]]>")
			}
		}
		if blockLayout {
			writeIndent(w, depth, indent)
		}
		w.WriteString("</")
		writeName(w, n)
		w.WriteString(">\n")

	case xmlquery.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			w.WriteString(encoding.EscapeXMLText(text))
		}

	case xmlquery.CommentNode:
		writeIndent(w, depth, indent)
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->\n")
	}
}

func writeName(w *bytes.Buffer, n *xmlquery.Node) {
	if n.Prefix != "" {
		w.WriteString(n.Prefix)
		w.WriteString(":")
	}
	w.WriteString(n.Data)
}

func writeIndent(w *bytes.Buffer, depth int, indent string) {
	for i := 0; i < depth; i++ {
		w.WriteString(indent)
	}
}
