package foreground

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/GriffinCanCode/workerview/internal/domain/host"
	"github.com/GriffinCanCode/workerview/internal/domain/snapshot"
)

// ButtonIDAttr holds the button identifier in rendered HTML
const ButtonIDAttr = "data-id"

var textElements = map[host.TextType]atom.Atom{
	host.TextHeader:    atom.H2,
	host.TextParagraph: atom.P,
	host.TextSpan:      atom.Span,
}

// RenderHTML writes the payload as an HTML fragment
func RenderHTML(w io.Writer, p snapshot.Payload) error {
	root := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	root.Attr = []html.Attribute{{Key: "class", Val: "workerview"}}
	for _, n := range p.Elements {
		root.AppendChild(htmlNode(n))
	}
	if err := html.Render(w, root); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// HTMLString renders the payload to a string
func HTMLString(p snapshot.Payload) (string, error) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func appendAll(parent *html.Node, children []snapshot.Node) {
	for _, c := range children {
		parent.AppendChild(htmlNode(c))
	}
}

func htmlNode(n snapshot.Node) *html.Node {
	switch v := n.(type) {
	case snapshot.View:
		el := element(atom.Div)
		if v.Border != nil {
			el.Attr = append(el.Attr, html.Attribute{Key: "data-border", Val: strconv.Itoa(*v.Border)})
		}
		appendAll(el, v.Children)
		return el
	case snapshot.Text:
		a, ok := textElements[v.Type]
		if !ok {
			a = atom.Span
		}
		el := element(a)
		if v.Text != nil {
			el.AppendChild(textNode(v.Text.String()))
		}
		appendAll(el, v.Children)
		return el
	case snapshot.Button:
		el := element(atom.Button,
			html.Attribute{Key: "type", Val: "button"},
			html.Attribute{Key: ButtonIDAttr, Val: strconv.Itoa(v.ID)})
		appendAll(el, v.Children)
		return el
	case snapshot.Raw:
		el := element(atom.Span)
		el.AppendChild(textNode(v.Text.String()))
		return el
	}
	panic(fmt.Sprintf("foreground: unknown snapshot node %T", n))
}
